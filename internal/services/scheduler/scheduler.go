// Package scheduler finds due report schedules and enqueues delivery
// jobs for the sender.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/employee-suite/employee-suite/internal/lib/rabbitmq"
	"github.com/employee-suite/employee-suite/internal/lib/sl"
	"github.com/employee-suite/employee-suite/internal/models"
)

const pollInterval = time.Hour

// ScheduleRepository finds schedules whose next run time has passed.
type ScheduleRepository interface {
	FindDueSchedules(ctx context.Context, now time.Time) ([]*models.ReportSchedule, error)
}

type Service struct {
	repo ScheduleRepository
	log  *slog.Logger
	now  func() time.Time
}

func New(repo ScheduleRepository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Run polls for due schedules every hour until ctx is cancelled. A
// schedule stays due until the sender records the delivery, so a failed
// publish is retried on the next tick.
func (s *Service) Run(ctx context.Context, channel *amqp.Channel) {
	s.enqueueDueSchedules(ctx, channel)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueueDueSchedules(ctx, channel)
		}
	}
}

func (s *Service) enqueueDueSchedules(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("looking for due report schedules")
	due, err := s.repo.FindDueSchedules(ctx, s.now().UTC())
	if err != nil {
		s.log.Error("failed to find due schedules", sl.Err(err))
		return
	}
	if len(due) == 0 {
		s.log.Info("no due schedules")
		return
	}
	s.log.Info("found due schedules", "count", len(due))

	for _, sched := range due {
		job := models.DeliveryJob{
			ScheduleID:     sched.ID,
			UserUID:        sched.UserUID,
			ShopDomain:     sched.ShopDomain,
			ReportType:     sched.ReportType,
			Frequency:      sched.Frequency,
			RecipientEmail: sched.RecipientEmail,
		}
		if err := rabbitmq.PublishMessage(channel, "reports", "deliver", job); err != nil {
			s.log.Error("failed to publish delivery job",
				slog.String("schedule_id", sched.ID), sl.Err(err))
		}
	}
}
