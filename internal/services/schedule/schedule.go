// Package schedule manages recurring report deliveries.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/employee-suite/employee-suite/internal/models"
	"github.com/employee-suite/employee-suite/internal/services/report"
	"github.com/employee-suite/employee-suite/internal/storage/repository"
)

var (
	// ErrScheduleNotFound means no schedule with the id belongs to the
	// user.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrInvalidSchedule means the report type or frequency is unknown.
	ErrInvalidSchedule = errors.New("invalid schedule")
)

// Repository is the slice of storage the schedule CRUD needs.
type Repository interface {
	CreateSchedule(ctx context.Context, sched models.ReportSchedule) error
	ListSchedules(ctx context.Context, userUID string) ([]*models.ReportSchedule, error)
	RemoveSchedule(ctx context.Context, id, userUID string) (int, error)
	GetStoreByUserAndShop(ctx context.Context, userUID, shopDomain string) (*models.Store, error)
}

// Entitler decides which tier the user may use.
type Entitler interface {
	Entitlement(ctx context.Context, userUID string) (models.PlanTier, error)
}

type Service struct {
	repo    Repository
	entitle Entitler
	log     *slog.Logger
	now     func() time.Time
}

func New(repo Repository, entitle Entitler, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		entitle: entitle,
		log:     log,
		now:     time.Now,
	}
}

// Create registers a new recurring delivery. The first send is due one
// period from now. Scheduled sends are a pro-and-up feature.
func (s *Service) Create(ctx context.Context, userUID, shopDomain, reportType, frequency, recipientEmail string) (*models.ReportSchedule, error) {
	const op = "schedule.Create"

	if !models.ValidReportType(reportType) {
		return nil, ErrInvalidSchedule
	}
	if frequency != models.FrequencyDaily && frequency != models.FrequencyWeekly {
		return nil, ErrInvalidSchedule
	}

	tier, err := s.entitle.Entitlement(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if !tier.ScheduledSends {
		return nil, report.ErrFeatureNotInPlan
	}

	st, err := s.repo.GetStoreByUserAndShop(ctx, userUID, shopDomain)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return nil, report.ErrStoreNotConnected
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !st.Connected() {
		return nil, report.ErrStoreNotConnected
	}

	sched := models.ReportSchedule{
		ID:             uuid.NewString(),
		UserUID:        userUID,
		ShopDomain:     shopDomain,
		ReportType:     reportType,
		Frequency:      frequency,
		RecipientEmail: recipientEmail,
	}
	sched.NextRunAt = sched.Advance(s.now().UTC())

	if err := s.repo.CreateSchedule(ctx, sched); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("schedule created",
		slog.String("schedule_id", sched.ID),
		slog.String("report_type", reportType),
		slog.String("frequency", frequency))
	return &sched, nil
}

// List returns the user's schedules.
func (s *Service) List(ctx context.Context, userUID string) ([]*models.ReportSchedule, error) {
	const op = "schedule.List"

	items, err := s.repo.ListSchedules(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Remove deletes a schedule the user owns.
func (s *Service) Remove(ctx context.Context, id, userUID string) error {
	const op = "schedule.Remove"

	n, err := s.repo.RemoveSchedule(ctx, id, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrScheduleNotFound
	}
	return nil
}
