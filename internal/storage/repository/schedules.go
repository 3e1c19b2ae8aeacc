package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/employee-suite/employee-suite/internal/models"
)

// CreateSchedule inserts a report schedule.
func (s *Storage) CreateSchedule(ctx context.Context, sched models.ReportSchedule) error {
	const op = "storage.CreateSchedule"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO report_schedules
			      (id, user_uid, shop_domain, report_type, frequency, recipient_email, next_run_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.DB.ExecContext(ctx, query,
		sched.ID, sched.UserUID, sched.ShopDomain, sched.ReportType,
		sched.Frequency, sched.RecipientEmail, sched.NextRunAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListSchedules returns a user's schedules.
func (s *Storage) ListSchedules(ctx context.Context, userUID string) ([]*models.ReportSchedule, error) {
	const op = "storage.ListSchedules"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, shop_domain, report_type, frequency,
			      recipient_email, next_run_at, last_sent_at
			  FROM report_schedules
			  WHERE user_uid = $1
			  ORDER BY next_run_at`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ReportSchedule
	for rows.Next() {
		item, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemoveSchedule deletes a schedule owned by the user and returns the
// number of deleted rows.
func (s *Storage) RemoveSchedule(ctx context.Context, id, userUID string) (int, error) {
	const op = "storage.RemoveSchedule"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM report_schedules WHERE id = $1 AND user_uid = $2`
	result, err := s.DB.ExecContext(ctx, query, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// FindDueSchedules returns schedules whose next run time has passed.
func (s *Storage) FindDueSchedules(ctx context.Context, now time.Time) ([]*models.ReportSchedule, error) {
	const op = "storage.FindDueSchedules"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, shop_domain, report_type, frequency,
			      recipient_email, next_run_at, last_sent_at
			  FROM report_schedules
			  WHERE next_run_at <= $1`
	rows, err := s.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ReportSchedule
	for rows.Next() {
		item, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AdvanceSchedule moves the next run time forward without recording a
// delivery. Used when a due schedule is skipped.
func (s *Storage) AdvanceSchedule(ctx context.Context, id string, nextRunAt time.Time) error {
	const op = "storage.AdvanceSchedule"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE report_schedules SET next_run_at = $1 WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, nextRunAt, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkScheduleSent stamps a delivery and advances the next run time.
func (s *Storage) MarkScheduleSent(ctx context.Context, id string, sentAt, nextRunAt time.Time) error {
	const op = "storage.MarkScheduleSent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE report_schedules
			  SET last_sent_at = $1, next_run_at = $2
			  WHERE id = $3`
	if _, err := s.DB.ExecContext(ctx, query, sentAt, nextRunAt, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanSchedule(rows *sql.Rows) (*models.ReportSchedule, error) {
	var item models.ReportSchedule
	var lastSent sql.NullTime
	if err := rows.Scan(&item.ID, &item.UserUID, &item.ShopDomain, &item.ReportType,
		&item.Frequency, &item.RecipientEmail, &item.NextRunAt, &lastSent); err != nil {
		return nil, err
	}
	if lastSent.Valid {
		item.LastSentAt = &lastSent.Time
	}
	return &item, nil
}
