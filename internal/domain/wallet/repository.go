package wallet

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cliplink/cliplink-api/internal/domain/ledger"
)

type Repository struct {
	db     *sqlx.DB
	ledger *ledger.Repository
}

func NewRepository(db *sqlx.DB, ledgerRepo *ledger.Repository) *Repository {
	return &Repository{db: db, ledger: ledgerRepo}
}

func (r *Repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// lockWallet serializes all mutations for one owner behind a row lock.
func (r *Repository) lockWallet(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID) (*Wallet, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO advertiser_wallets (owner_user_id, available_cents, pending_cents, currency)
		VALUES ($1, 0, 0, 'USD')
		ON CONFLICT (owner_user_id) DO NOTHING
	`, ownerID); err != nil {
		return nil, err
	}

	var w Wallet
	err := tx.GetContext(ctx, &w, `
		SELECT owner_user_id, available_cents, pending_cents, currency, updated_at
		FROM advertiser_wallets
		WHERE owner_user_id = $1
		FOR UPDATE
	`, ownerID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) updateWallet(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID, available, pending int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE advertiser_wallets
		SET available_cents = $1, pending_cents = $2, updated_at = now()
		WHERE owner_user_id = $3
	`, available, pending, ownerID)
	return err
}

// GetWallet returns the wallet, creating an empty one on first read.
func (r *Repository) GetWallet(ctx context.Context, ownerID uuid.UUID) (*Wallet, error) {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO advertiser_wallets (owner_user_id, available_cents, pending_cents, currency)
		VALUES ($1, 0, 0, 'USD')
		ON CONFLICT (owner_user_id) DO NOTHING
	`, ownerID); err != nil {
		return nil, err
	}

	var w Wallet
	err := r.db.GetContext(ctx, &w, `
		SELECT owner_user_id, available_cents, pending_cents, currency, updated_at
		FROM advertiser_wallets
		WHERE owner_user_id = $1
	`, ownerID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Deposit credits confirmed PSP funds. Idempotent on the payment reference:
// a retried confirmation with the same amount is a no-op, a different amount
// is a conflict. The DEPOSIT ledger entry records the wallet owner in the
// party column and no campaign.
func (r *Repository) Deposit(ctx context.Context, ownerID uuid.UUID, amount int64, paymentRef string) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w, err := r.lockWallet(ctx, tx, ownerID)
	if err != nil {
		return err
	}

	entry := &ledger.Entry{
		CampaignID:  uuid.Nil,
		CreatorID:   ownerID,
		Type:        ledger.EntryTypeDeposit,
		AmountCents: amount,
		RefEventID:  paymentRef,
	}
	if err := r.ledger.AppendTx(ctx, tx, entry); err != nil {
		if errors.Is(err, ledger.ErrDuplicateEvent) {
			existing, getErr := r.ledger.GetByEventTx(ctx, tx, uuid.Nil, ownerID, paymentRef, ledger.EntryTypeDeposit)
			if getErr != nil {
				return getErr
			}
			if existing.AmountCents != amount {
				return ErrReferenceConflict
			}
			return nil
		}
		return err
	}

	if err := r.updateWallet(ctx, tx, ownerID, w.AvailableCents+amount, w.PendingCents); err != nil {
		return err
	}

	return tx.Commit()
}

// LockFunds moves available funds into a pending reserve against a campaign.
// Idempotent on (owner, reference): a retry with the same amount returns the
// existing reserve.
func (r *Repository) LockFunds(ctx context.Context, ownerID, campaignID uuid.UUID, amount int64, referenceID string, ttl time.Duration) (*Reserve, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w, err := r.lockWallet(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}

	existing, err := r.getReserveByRef(ctx, tx, ownerID, referenceID)
	if err != nil && !errors.Is(err, ErrReserveNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.AmountCents != amount {
			return nil, ErrReferenceConflict
		}
		return existing, nil
	}

	if w.AvailableCents < amount {
		return nil, ErrInsufficientFunds
	}

	reserve := &Reserve{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		CampaignID:  campaignID,
		AmountCents: amount,
		Status:      ReserveStatusActive,
		ReferenceID: referenceID,
		ExpiresAt:   time.Now().UTC().Add(ttl),
		CreatedAt:   time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fund_reserves (id, owner_user_id, campaign_id, amount_cents, status, reference_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, reserve.ID, reserve.OwnerUserID, reserve.CampaignID, reserve.AmountCents,
		string(reserve.Status), reserve.ReferenceID, reserve.ExpiresAt, reserve.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrReferenceConflict
		}
		return nil, err
	}

	if err := r.updateWallet(ctx, tx, ownerID, w.AvailableCents-amount, w.PendingCents+amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return reserve, nil
}

// ReleaseFunds consumes an active reserve into campaign spend, writing the
// BILLING ledger entry in the same transaction.
func (r *Repository) ReleaseFunds(ctx context.Context, reserveID uuid.UUID) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	reserve, err := r.lockReserve(ctx, tx, reserveID)
	if err != nil {
		return err
	}
	if reserve.Status != ReserveStatusActive {
		return ErrReserveNotActive
	}

	w, err := r.lockWallet(ctx, tx, reserve.OwnerUserID)
	if err != nil {
		return err
	}

	entry := &ledger.Entry{
		CampaignID:  reserve.CampaignID,
		CreatorID:   reserve.OwnerUserID,
		Type:        ledger.EntryTypeBilling,
		AmountCents: reserve.AmountCents,
		RefEventID:  "reserve:" + reserve.ID.String(),
	}
	if err := r.ledger.AppendTx(ctx, tx, entry); err != nil && !errors.Is(err, ledger.ErrDuplicateEvent) {
		return err
	}

	if err := r.setReserveStatus(ctx, tx, reserve.ID, ReserveStatusConsumed); err != nil {
		return err
	}
	if err := r.updateWallet(ctx, tx, reserve.OwnerUserID, w.AvailableCents, w.PendingCents-reserve.AmountCents); err != nil {
		return err
	}

	return tx.Commit()
}

// returnReserve puts one expired reserve's funds back into available.
func (r *Repository) returnReserve(ctx context.Context, reserveID uuid.UUID, now time.Time) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	reserve, err := r.lockReserve(ctx, tx, reserveID)
	if err != nil {
		return err
	}
	// Re-check under the lock: an admin release may have raced the sweep.
	if reserve.Status != ReserveStatusActive || reserve.ExpiresAt.After(now) {
		return ErrReserveNotActive
	}

	w, err := r.lockWallet(ctx, tx, reserve.OwnerUserID)
	if err != nil {
		return err
	}

	if err := r.setReserveStatus(ctx, tx, reserve.ID, ReserveStatusReturned); err != nil {
		return err
	}
	if err := r.updateWallet(ctx, tx, reserve.OwnerUserID, w.AvailableCents+reserve.AmountCents, w.PendingCents-reserve.AmountCents); err != nil {
		return err
	}

	return tx.Commit()
}

// listExpiredReserveIDs returns candidates for the return sweep.
func (r *Repository) listExpiredReserveIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT id FROM fund_reserves
		WHERE status = 'active' AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`, now, limit)
	return ids, err
}

func (r *Repository) lockReserve(ctx context.Context, tx *sqlx.Tx, reserveID uuid.UUID) (*Reserve, error) {
	var reserve Reserve
	err := tx.GetContext(ctx, &reserve, `
		SELECT id, owner_user_id, campaign_id, amount_cents, status, reference_id, expires_at, created_at
		FROM fund_reserves
		WHERE id = $1
		FOR UPDATE
	`, reserveID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReserveNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reserve, nil
}

func (r *Repository) getReserveByRef(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID, referenceID string) (*Reserve, error) {
	var reserve Reserve
	err := tx.GetContext(ctx, &reserve, `
		SELECT id, owner_user_id, campaign_id, amount_cents, status, reference_id, expires_at, created_at
		FROM fund_reserves
		WHERE owner_user_id = $1 AND reference_id = $2
		LIMIT 1
	`, ownerID, referenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReserveNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reserve, nil
}

func (r *Repository) setReserveStatus(ctx context.Context, tx *sqlx.Tx, reserveID uuid.UUID, status ReserveStatus) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE fund_reserves SET status = $1 WHERE id = $2
	`, string(status), reserveID)
	return err
}
