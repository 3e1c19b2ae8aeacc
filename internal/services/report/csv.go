package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/employee-suite/employee-suite/internal/models"
)

// ExportCSV renders a report as CSV. The feature is gated on the tier's
// csv flag, so starter and up can export during and after trial.
func (s *Service) ExportCSV(ctx context.Context, userUID, shopDomain, reportType string) ([]byte, string, error) {
	const op = "report.ExportCSV"

	tier, err := s.Entitlement(ctx, userUID)
	if err != nil {
		return nil, "", err
	}
	if !tier.CSVExport {
		return nil, "", ErrFeatureNotInPlan
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	switch reportType {
	case models.ReportOrders:
		rows, err := s.PendingOrders(ctx, userUID, shopDomain)
		if err != nil {
			return nil, "", err
		}
		if err := writeOrdersCSV(w, rows); err != nil {
			return nil, "", fmt.Errorf("%s: %w", op, err)
		}
	case models.ReportInventory:
		rows, err := s.InventoryLevels(ctx, userUID, shopDomain)
		if err != nil {
			return nil, "", err
		}
		if err := writeInventoryCSV(w, rows); err != nil {
			return nil, "", fmt.Errorf("%s: %w", op, err)
		}
	case models.ReportRevenue:
		rep, err := s.Revenue(ctx, userUID, shopDomain)
		if err != nil {
			return nil, "", err
		}
		if err := writeRevenueCSV(w, rep); err != nil {
			return nil, "", fmt.Errorf("%s: %w", op, err)
		}
	default:
		return nil, "", fmt.Errorf("%s: unknown report type %q", op, reportType)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	filename := fmt.Sprintf("%s-%s-%s.csv", reportType, shopDomain, s.now().UTC().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func writeOrdersCSV(w *csv.Writer, rows []models.OrderRow) error {
	if err := w.Write([]string{"order_id", "name", "customer", "total_price", "currency", "created_at"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.OrderID, 10),
			r.Name,
			r.Customer,
			r.TotalPrice,
			r.Currency,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeInventoryCSV(w *csv.Writer, rows []models.InventoryRow) error {
	if err := w.Write([]string{"product_id", "product", "sku", "quantity"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.ProductID, 10),
			r.Product,
			r.SKU,
			strconv.Itoa(r.Quantity),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeRevenueCSV(w *csv.Writer, rep *models.RevenueReport) error {
	if err := w.Write([]string{"from", "to", "order_count", "total", "currency"}); err != nil {
		return err
	}
	record := []string{
		rep.From.UTC().Format(time.RFC3339),
		rep.To.UTC().Format(time.RFC3339),
		strconv.Itoa(rep.OrderCount),
		strconv.FormatFloat(rep.Total, 'f', 2, 64),
		rep.Currency,
	}
	return w.Write(record)
}
