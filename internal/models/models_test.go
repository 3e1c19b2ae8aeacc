package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReportSchedule_Advance(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	daily := ReportSchedule{Frequency: FrequencyDaily}
	assert.Equal(t, now.AddDate(0, 0, 1), daily.Advance(now))

	weekly := ReportSchedule{Frequency: FrequencyWeekly}
	assert.Equal(t, now.AddDate(0, 0, 7), weekly.Advance(now))
}

func TestValidReportType(t *testing.T) {
	assert.True(t, ValidReportType(ReportOrders))
	assert.True(t, ValidReportType(ReportInventory))
	assert.True(t, ValidReportType(ReportRevenue))
	assert.False(t, ValidReportType("profit"))
	assert.False(t, ValidReportType(""))
}

func TestUser_TrialExpired(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	u := User{TrialEndsAt: now.Add(time.Minute)}
	assert.False(t, u.TrialExpired(now))

	u.TrialEndsAt = now.Add(-time.Minute)
	assert.True(t, u.TrialExpired(now))

	// the boundary instant still counts as inside the trial
	u.TrialEndsAt = now
	assert.False(t, u.TrialExpired(now))
}

func TestStore_Connected(t *testing.T) {
	var nilStore *Store
	assert.False(t, nilStore.Connected())

	assert.False(t, (&Store{IsActive: true}).Connected())
	assert.False(t, (&Store{AccessTokenEnc: "enc"}).Connected())
	assert.True(t, (&Store{IsActive: true, AccessTokenEnc: "enc"}).Connected())
}

func TestChargeRef(t *testing.T) {
	ref := PendingCharge("12345")
	id, ok := ref.ID()
	assert.True(t, ok)
	assert.Equal(t, "12345", id)
	assert.True(t, ref.Pending())

	none := NoCharge()
	_, ok = none.ID()
	assert.False(t, ok)
	assert.False(t, none.Pending())
}

func TestFindPlanTier(t *testing.T) {
	tier, ok := FindPlanTier("pro")
	assert.True(t, ok)
	assert.Equal(t, 19.99, tier.PriceUSD)
	assert.True(t, tier.ScheduledSends)

	_, ok = FindPlanTier("platinum")
	assert.False(t, ok)
}
