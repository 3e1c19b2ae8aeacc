package models

import "time"

// Plan statuses.
const (
	PlanStatusActive    = "active"
	PlanStatusCancelled = "cancelled"
	PlanStatusExpired   = "expired"
)

// Plan is the durable record of a user's subscription, created only by
// the billing reconciler on a confirmed charge activation. At most one
// active plan exists per user.
type Plan struct {
	ID          int
	UserUID     string
	Tier        string
	PriceUSD    float64
	Status      string
	ChargeID    string
	ActivatedAt time.Time
}

// PlanTier describes a sellable tier: fixed price, trial length and the
// feature flags the tier unlocks.
type PlanTier struct {
	Name           string
	PriceUSD       float64
	TrialDays      int
	CSVExport      bool
	ScheduledSends bool
	SMSAlerts      bool
}

// PlanCatalog lists the sellable tiers in display order. Prices and the
// 7-day trial are baked into the charge request sent to Shopify.
var PlanCatalog = []PlanTier{
	{Name: "starter", PriceUSD: 9.99, TrialDays: 7, CSVExport: true},
	{Name: "pro", PriceUSD: 19.99, TrialDays: 7, CSVExport: true, ScheduledSends: true},
	{Name: "enterprise", PriceUSD: 49.99, TrialDays: 7, CSVExport: true, ScheduledSends: true, SMSAlerts: true},
}

// FindPlanTier returns the catalog entry for name.
func FindPlanTier(name string) (PlanTier, bool) {
	for _, t := range PlanCatalog {
		if t.Name == name {
			return t, true
		}
	}
	return PlanTier{}, false
}
