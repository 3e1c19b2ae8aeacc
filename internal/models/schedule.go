package models

import "time"

// Schedule frequencies.
const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// ReportSchedule is a recurring report delivery: which report to build
// for which store, how often, and where to email it.
type ReportSchedule struct {
	ID             string     `json:"id"`
	UserUID        string     `json:"user_uid"`
	ShopDomain     string     `json:"shop_domain"`
	ReportType     string     `json:"report_type"`
	Frequency      string     `json:"frequency"`
	RecipientEmail string     `json:"recipient_email"`
	NextRunAt      time.Time  `json:"next_run_at"`
	LastSentAt     *time.Time `json:"last_sent_at,omitempty"`
}

// DeliveryJob is the queue message for one due schedule. It carries just
// enough for the sender to rebuild the report and record the send.
type DeliveryJob struct {
	ScheduleID     string `json:"schedule_id"`
	UserUID        string `json:"user_uid"`
	ShopDomain     string `json:"shop_domain"`
	ReportType     string `json:"report_type"`
	Frequency      string `json:"frequency"`
	RecipientEmail string `json:"recipient_email"`
}

// Advance returns the next run time after a successful delivery at now.
func (s *ReportSchedule) Advance(now time.Time) time.Time {
	if s.Frequency == FrequencyWeekly {
		return now.AddDate(0, 0, 7)
	}
	return now.AddDate(0, 0, 1)
}
