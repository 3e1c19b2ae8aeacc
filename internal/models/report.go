package models

import "time"

// Report types.
const (
	ReportOrders    = "orders"
	ReportInventory = "inventory"
	ReportRevenue   = "revenue"
)

// ValidReportType reports whether t names a known report.
func ValidReportType(t string) bool {
	return t == ReportOrders || t == ReportInventory || t == ReportRevenue
}

// OrderRow is one pending order in the orders report.
type OrderRow struct {
	OrderID    int64     `json:"order_id"`
	Name       string    `json:"name"`
	Customer   string    `json:"customer"`
	TotalPrice string    `json:"total_price"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
}

// InventoryRow is one product variant in the inventory report.
type InventoryRow struct {
	ProductID int64  `json:"product_id"`
	Product   string `json:"product"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
}

// RevenueReport aggregates paid orders over a window.
type RevenueReport struct {
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	OrderCount int       `json:"order_count"`
	Total      float64   `json:"total"`
	Currency   string    `json:"currency"`
}
