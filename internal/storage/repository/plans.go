package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/employee-suite/employee-suite/internal/models"
)

// ErrNoActivePlan is returned when a user has no active plan row.
var ErrNoActivePlan = errors.New("no active plan")

// GetActivePlan returns the user's active plan record.
func (s *Storage) GetActivePlan(ctx context.Context, userUID string) (*models.Plan, error) {
	const op = "storage.GetActivePlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, tier, price_usd, status, charge_id, activated_at
			  FROM plans
			  WHERE user_uid = $1 AND status = $2`
	p := &models.Plan{}
	row := s.DB.QueryRowContext(ctx, query, userUID, models.PlanStatusActive)
	if err := row.Scan(&p.ID, &p.UserUID, &p.Tier, &p.PriceUSD, &p.Status,
		&p.ChargeID, &p.ActivatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActivePlan
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// CancelActivePlan marks the user's active plan cancelled. Cancelling
// when no active plan exists is a no-op.
func (s *Storage) CancelActivePlan(ctx context.Context, userUID string) error {
	const op = "storage.CancelActivePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE plans SET status = $1 WHERE user_uid = $2 AND status = $3`
	if _, err := s.DB.ExecContext(ctx, query,
		models.PlanStatusCancelled, userUID, models.PlanStatusActive); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
