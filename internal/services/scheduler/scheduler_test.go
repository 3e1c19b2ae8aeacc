package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/employee-suite/employee-suite/internal/models"
)

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) FindDueSchedules(ctx context.Context, now time.Time) ([]*models.ReportSchedule, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReportSchedule), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_EnqueueDueSchedules_NoDue(t *testing.T) {
	repo := new(MockScheduleRepository)
	repo.On("FindDueSchedules", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*models.ReportSchedule{}, nil).Once()

	svc := New(repo, newNoopLogger())

	// with nothing due the channel is never touched
	svc.enqueueDueSchedules(context.Background(), nil)

	repo.AssertExpectations(t)
}

func TestService_EnqueueDueSchedules_RepoFailure(t *testing.T) {
	repo := new(MockScheduleRepository)
	repo.On("FindDueSchedules", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(nil, errors.New("db down")).Once()

	svc := New(repo, newNoopLogger())

	// a failed poll is logged and retried next tick, never a panic
	svc.enqueueDueSchedules(context.Background(), nil)

	repo.AssertExpectations(t)
}

func TestService_Run_StopsOnContextCancel(t *testing.T) {
	repo := new(MockScheduleRepository)
	repo.On("FindDueSchedules", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*models.ReportSchedule{}, nil)

	svc := New(repo, newNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, nil)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
