package balance

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cliplink/cliplink-api/internal/domain/ledger"
)

// Repository projects creator balances from ledger activity. Every mutation
// locks the balance row first, so concurrent releases and withdrawals
// serialize per creator.
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

func (r *Repository) lockBalance(ctx context.Context, tx *sqlx.Tx, creatorID uuid.UUID) (*CreatorBalance, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO creator_balances (creator_id, available_cents, pending_cents, total_earned_cents, risk_level, payout_delay_days)
		VALUES ($1, 0, 0, 0, 'low', 3)
		ON CONFLICT (creator_id) DO NOTHING
	`, creatorID); err != nil {
		return nil, err
	}

	var b CreatorBalance
	err := tx.GetContext(ctx, &b, `
		SELECT creator_id, available_cents, pending_cents, total_earned_cents, risk_level, payout_delay_days, updated_at
		FROM creator_balances
		WHERE creator_id = $1
		FOR UPDATE
	`, creatorID)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) updateBalance(ctx context.Context, tx *sqlx.Tx, creatorID uuid.UUID, available, pending, totalEarned int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE creator_balances
		SET available_cents = $1, pending_cents = $2, total_earned_cents = $3, updated_at = now()
		WHERE creator_id = $4
	`, available, pending, totalEarned, creatorID)
	return err
}

// checkInvariant verifies available + pending <= total earned - withdrawals
// using the ledger visible inside the transaction. Withdrawal entries are
// negative, so they add back in.
func (r *Repository) checkInvariant(ctx context.Context, tx *sqlx.Tx, creatorID uuid.UUID, available, pending, totalEarned int64) error {
	if available < 0 || pending < 0 {
		return ErrInvariantViolation
	}

	var withdrawn int64
	err := tx.GetContext(ctx, &withdrawn, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM ledger_entries
		WHERE creator_id = $1 AND type = 'WITHDRAWAL'
	`, creatorID)
	if err != nil {
		return err
	}

	if available+pending > totalEarned+withdrawn {
		return ErrInvariantViolation
	}
	return nil
}

// AccrueTx records a newly queued payout: pending and total earned grow
// together. Runs inside the payout creation transaction.
func (r *Repository) AccrueTx(ctx context.Context, tx *sqlx.Tx, creatorID uuid.UUID, amount int64) error {
	b, err := r.lockBalance(ctx, tx, creatorID)
	if err != nil {
		return err
	}
	return r.updateBalance(ctx, tx, creatorID, b.AvailableCents, b.PendingCents+amount, b.TotalEarnedCents+amount)
}

// ReleaseTx moves a released payout from pending to available inside the
// release transaction, after the ledger pair is written.
func (r *Repository) ReleaseTx(ctx context.Context, tx *sqlx.Tx, creatorID uuid.UUID, amount int64) error {
	b, err := r.lockBalance(ctx, tx, creatorID)
	if err != nil {
		return err
	}

	available := b.AvailableCents + amount
	pending := b.PendingCents - amount
	if err := r.checkInvariant(ctx, tx, creatorID, available, pending, b.TotalEarnedCents); err != nil {
		return err
	}
	return r.updateBalance(ctx, tx, creatorID, available, pending, b.TotalEarnedCents)
}

// CancelAccrualTx backs a cancelled payout out of pending and total earned.
func (r *Repository) CancelAccrualTx(ctx context.Context, tx *sqlx.Tx, creatorID uuid.UUID, amount int64) error {
	b, err := r.lockBalance(ctx, tx, creatorID)
	if err != nil {
		return err
	}

	pending := b.PendingCents - amount
	totalEarned := b.TotalEarnedCents - amount
	if pending < 0 || totalEarned < 0 {
		return ErrInvariantViolation
	}
	return r.updateBalance(ctx, tx, creatorID, b.AvailableCents, pending, totalEarned)
}

// Withdraw debits available funds, writing the WITHDRAWAL ledger entry in
// the same transaction. Withdrawal entries carry a negative amount.
func (r *Repository) Withdraw(ctx context.Context, creatorID uuid.UUID, amount int64, referenceID string) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	b, err := r.lockBalance(ctx, tx, creatorID)
	if err != nil {
		return err
	}

	if b.AvailableCents < amount {
		return ErrInsufficientFunds
	}

	entry := &ledger.Entry{
		CampaignID:  uuid.Nil,
		CreatorID:   creatorID,
		Type:        ledger.EntryTypeWithdrawal,
		AmountCents: -amount,
		RefEventID:  referenceID,
	}
	if err := r.ledger.AppendTx(ctx, tx, entry); err != nil {
		if errors.Is(err, ledger.ErrDuplicateEvent) {
			existing, getErr := r.ledger.GetByEventTx(ctx, tx, uuid.Nil, creatorID, referenceID, ledger.EntryTypeWithdrawal)
			if getErr != nil {
				return getErr
			}
			if existing.AmountCents != -amount {
				return ErrInvalidAmount
			}
			return nil
		}
		return err
	}

	available := b.AvailableCents - amount
	if err := r.checkInvariant(ctx, tx, creatorID, available, b.PendingCents, b.TotalEarnedCents); err != nil {
		return err
	}
	if err := r.updateBalance(ctx, tx, creatorID, available, b.PendingCents, b.TotalEarnedCents); err != nil {
		return err
	}

	return tx.Commit()
}

// Get returns the balance, creating an empty row on first read.
func (r *Repository) Get(ctx context.Context, creatorID uuid.UUID) (*CreatorBalance, error) {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO creator_balances (creator_id, available_cents, pending_cents, total_earned_cents, risk_level, payout_delay_days)
		VALUES ($1, 0, 0, 0, 'low', 3)
		ON CONFLICT (creator_id) DO NOTHING
	`, creatorID); err != nil {
		return nil, err
	}

	var b CreatorBalance
	err := r.db.GetContext(ctx, &b, `
		SELECT creator_id, available_cents, pending_cents, total_earned_cents, risk_level, payout_delay_days, updated_at
		FROM creator_balances
		WHERE creator_id = $1
	`, creatorID)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SetRiskLevel updates the risk tier and its matching payout delay.
func (r *Repository) SetRiskLevel(ctx context.Context, creatorID uuid.UUID, level RiskLevel) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE creator_balances
		SET risk_level = $1, payout_delay_days = $2, updated_at = now()
		WHERE creator_id = $3
	`, string(level), level.PayoutDelayDays(), creatorID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// WithdrawnCents returns cumulative withdrawals as a positive number.
func (r *Repository) WithdrawnCents(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	total, err := r.ledger.SumByCreator(ctx, creatorID, []ledger.EntryType{ledger.EntryTypeWithdrawal})
	if err != nil {
		return 0, err
	}
	return -total, nil
}
