package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/employee-suite/employee-suite/internal/models"
)

// ErrStoreNotFound is returned when no row matches a store lookup.
var ErrStoreNotFound = errors.New("store not found")

func scanStore(row interface{ Scan(...any) error }) (*models.Store, error) {
	st := &models.Store{}
	var chargeID sql.NullString
	if err := row.Scan(&st.ID, &st.UserUID, &st.ShopDomain, &st.AccessTokenEnc,
		&chargeID, &st.IsActive, &st.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	if chargeID.Valid {
		st.Charge = models.PendingCharge(chargeID.String)
	} else {
		st.Charge = models.NoCharge()
	}
	return st, nil
}

const storeColumns = `id, user_uid, shop_domain, access_token_enc, charge_id, is_active, created_at`

// UpsertStore inserts or refreshes the credential row of a user+shop pair.
// Reconnecting a previously uninstalled shop reactivates the row with the
// new token and no outstanding charge.
func (s *Storage) UpsertStore(ctx context.Context, userUID, shopDomain, accessTokenEnc string) (*models.Store, error) {
	const op = "storage.UpsertStore"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO stores (user_uid, shop_domain, access_token_enc, is_active)
			  VALUES ($1, $2, $3, TRUE)
			  ON CONFLICT (user_uid, shop_domain)
			  DO UPDATE SET access_token_enc = EXCLUDED.access_token_enc,
			                is_active = TRUE,
			                charge_id = NULL
			  RETURNING ` + storeColumns
	st, err := scanStore(s.DB.QueryRowContext(ctx, query, userUID, shopDomain, accessTokenEnc))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// GetStoreByUserAndShop returns the active credential row of a user+shop pair.
func (s *Storage) GetStoreByUserAndShop(ctx context.Context, userUID, shopDomain string) (*models.Store, error) {
	const op = "storage.GetStoreByUserAndShop"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + storeColumns + ` FROM stores
			  WHERE user_uid = $1 AND shop_domain = $2 AND is_active`
	st, err := scanStore(s.DB.QueryRowContext(ctx, query, userUID, shopDomain))
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// GetStoreByShopDomain returns the active credential row for a shop. Used
// when a request arrives without a session and the acting user has to be
// derived from the shop parameter.
func (s *Storage) GetStoreByShopDomain(ctx context.Context, shopDomain string) (*models.Store, error) {
	const op = "storage.GetStoreByShopDomain"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + storeColumns + ` FROM stores
			  WHERE shop_domain = $1 AND is_active
			  ORDER BY id
			  LIMIT 1`
	st, err := scanStore(s.DB.QueryRowContext(ctx, query, shopDomain))
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// SetCharge writes the outstanding charge reference of a store. Pending
// ids are written optimistically right after charge creation; NoCharge
// clears the marker on decline, verification failure or cancellation.
func (s *Storage) SetCharge(ctx context.Context, storeID int, charge models.ChargeRef) error {
	const op = "storage.SetCharge"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var chargeID sql.NullString
	if id, ok := charge.ID(); ok {
		chargeID = sql.NullString{String: id, Valid: true}
	}
	query := `UPDATE stores SET charge_id = $1 WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, chargeID, storeID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeactivateStore soft-deletes the credential rows of a shop on app
// uninstall and unsubscribes the owning users. The encrypted token is
// kept but the row no longer participates in lookups.
func (s *Storage) DeactivateStore(ctx context.Context, shopDomain string) error {
	const op = "storage.DeactivateStore"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET subscribed = FALSE
		 WHERE uid IN (SELECT user_uid FROM stores WHERE shop_domain = $1 AND is_active)`,
		shopDomain); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE plans SET status = $1
		 WHERE status = $2 AND user_uid IN (SELECT user_uid FROM stores WHERE shop_domain = $3 AND is_active)`,
		models.PlanStatusExpired, models.PlanStatusActive, shopDomain); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE stores SET is_active = FALSE, charge_id = NULL WHERE shop_domain = $1`,
		shopDomain); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PlanActivation is what the activation callback produces on remote
// success: the plan row to upsert for the store's owner.
type PlanActivation struct {
	Tier        string
	PriceUSD    float64
	ChargeID    string
	ActivatedAt time.Time
}

// ActivateSubscription runs the activation critical section. It re-reads
// the credential row under a row lock, hands the LOCKED row to fn (which
// performs the remote activation using the token from that row), and only
// on success commits subscribed=true plus the plan upsert. Any error
// rolls the whole transaction back, so no partial state is ever visible.
//
// fn may return (nil, nil) to signal that activation already happened;
// the transaction then commits without changes, which is how a second
// concurrent confirmation serialized behind the lock no-ops.
func (s *Storage) ActivateSubscription(ctx context.Context, userUID, shopDomain string,
	fn func(ctx context.Context, locked *models.Store) (*PlanActivation, error)) error {
	const op = "storage.ActivateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + storeColumns + ` FROM stores
			  WHERE user_uid = $1 AND shop_domain = $2 AND is_active
			  FOR UPDATE`
	locked, err := scanStore(tx.QueryRowContext(ctx, query, userUID, shopDomain))
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	activation, err := fn(ctx, locked)
	if err != nil {
		return err
	}
	if activation == nil {
		// already activated by an earlier confirmation
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET subscribed = TRUE WHERE uid = $1`, locked.UserUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE plans SET status = $1 WHERE user_uid = $2 AND status = $3`,
		models.PlanStatusCancelled, locked.UserUID, models.PlanStatusActive); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO plans (user_uid, tier, price_usd, status, charge_id, activated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		locked.UserUID, activation.Tier, activation.PriceUSD, models.PlanStatusActive,
		activation.ChargeID, activation.ActivatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE stores SET charge_id = $1 WHERE id = $2`,
		activation.ChargeID, locked.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
