// Package sender consumes delivery jobs, rebuilds the report as CSV and
// emails it to the schedule's recipient.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	smtplib "github.com/employee-suite/employee-suite/internal/lib/smtp"
	"github.com/employee-suite/employee-suite/internal/lib/sl"
	"github.com/employee-suite/employee-suite/internal/models"
	"github.com/employee-suite/employee-suite/internal/services/report"
)

// Exporter builds a report as CSV on behalf of a user.
type Exporter interface {
	ExportCSV(ctx context.Context, userUID, shopDomain, reportType string) ([]byte, string, error)
}

// ScheduleRepository records delivery outcomes.
type ScheduleRepository interface {
	MarkScheduleSent(ctx context.Context, id string, sentAt, nextRunAt time.Time) error
	AdvanceSchedule(ctx context.Context, id string, nextRunAt time.Time) error
}

// Transport opens SMTP sessions.
type Transport interface {
	Connect() (smtplib.Client, error)
	GetSMTPUser() string
}

type Service struct {
	exporter  Exporter
	repo      ScheduleRepository
	transport Transport
	log       *slog.Logger
	now       func() time.Time
}

func New(exporter Exporter, repo ScheduleRepository, transport Transport, log *slog.Logger) *Service {
	return &Service{
		exporter:  exporter,
		repo:      repo,
		transport: transport,
		log:       log,
		now:       time.Now,
	}
}

// DeliverReport handles one queue message. Jobs whose owner lost the
// feature are skipped and the schedule is advanced so they do not come
// back every poll; transient failures return an error so the message is
// redelivered.
func (s *Service) DeliverReport(ctx context.Context, body []byte) error {
	var job models.DeliveryJob
	if err := json.Unmarshal(body, &job); err != nil {
		s.log.Error("failed to unmarshal delivery job", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	sched := models.ReportSchedule{Frequency: job.Frequency}
	now := s.now().UTC()

	csvData, filename, err := s.exporter.ExportCSV(ctx, job.UserUID, job.ShopDomain, job.ReportType)
	if err != nil {
		if errors.Is(err, report.ErrSubscriptionRequired) ||
			errors.Is(err, report.ErrFeatureNotInPlan) ||
			errors.Is(err, report.ErrStoreNotConnected) {
			s.log.Warn("skipping delivery, owner no longer entitled",
				slog.String("schedule_id", job.ScheduleID), sl.Err(err))
			if advErr := s.repo.AdvanceSchedule(ctx, job.ScheduleID, sched.Advance(now)); advErr != nil {
				s.log.Error("failed to advance skipped schedule", sl.Err(advErr))
			}
			return nil
		}
		return fmt.Errorf("failed to build report: %w", err)
	}

	subject := fmt.Sprintf("Your %s report for %s", job.ReportType, job.ShopDomain)
	bodyText := fmt.Sprintf("Hello!\n\nYour scheduled %s report for %s is attached.\n",
		job.ReportType, job.ShopDomain)

	if err := s.sendEmail([]string{job.RecipientEmail}, subject, bodyText, filename, csvData); err != nil {
		return err
	}

	if err := s.repo.MarkScheduleSent(ctx, job.ScheduleID, now, sched.Advance(now)); err != nil {
		s.log.Error("failed to record delivery",
			slog.String("schedule_id", job.ScheduleID), sl.Err(err))
		return err
	}

	s.log.Info("report delivered",
		slog.String("schedule_id", job.ScheduleID),
		slog.String("report_type", job.ReportType),
		slog.String("recipient", job.RecipientEmail))
	return nil
}

func (s *Service) sendEmail(to []string, subject, bodyText, filename string, attachment []byte) error {
	var body strings.Builder
	mw := multipart.NewWriter(&body)

	headers := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=" + mw.Boundary(),
		"",
		"",
	}, "\r\n")

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=\"UTF-8\""},
	})
	if err != nil {
		return err
	}
	if _, err := textPart.Write([]byte(bodyText)); err != nil {
		return err
	}

	filePart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":        {"text/csv"},
		"Content-Disposition": {fmt.Sprintf("attachment; filename=%q", filename)},
	})
	if err != nil {
		return err
	}
	if _, err := filePart.Write(attachment); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err := wc.Write([]byte(headers + body.String())); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err := wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err := client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", "to", to)
	return nil
}
