package payout

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const selectColumns = `id, creator_id, campaign_id, kind, amount_cents, fee_cents,
	ref_event_id, status, reason, risk_score, eligible_at, released_at,
	created_at, updated_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// CreateTx inserts the entry, or returns the existing one when the same
// (campaign, creator, ref_event_id) was already queued. Retried jobs hit the
// second path; created tells the caller whether to accrue the balance.
func (r *Repository) CreateTx(ctx context.Context, tx *sqlx.Tx, e *QueueEntry) (created bool, err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	e.Status = StatusPending

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payout_queue (id, creator_id, campaign_id, kind, amount_cents,
			fee_cents, ref_event_id, status, risk_score, eligible_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.CreatorID, e.CampaignID, e.Kind, e.AmountCents,
		e.FeeCents, e.RefEventID, e.Status, e.RiskScore, e.EligibleAt, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			existing, getErr := r.getByEvent(ctx, tx, e.CampaignID, e.CreatorID, e.RefEventID)
			if getErr != nil {
				return false, getErr
			}
			*e = *existing
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *Repository) getByEvent(ctx context.Context, tx *sqlx.Tx, campaignID, creatorID uuid.UUID, refEventID string) (*QueueEntry, error) {
	var e QueueEntry
	err := tx.GetContext(ctx, &e, `
		SELECT `+selectColumns+`
		FROM payout_queue
		WHERE campaign_id = $1 AND creator_id = $2 AND ref_event_id = $3`,
		campaignID, creatorID, refEventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*QueueEntry, error) {
	var e QueueEntry
	err := r.db.GetContext(ctx, &e, `
		SELECT `+selectColumns+`
		FROM payout_queue
		WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetForUpdateTx re-reads the entry under a row lock so a sweep and an admin
// action racing on the same entry serialize.
func (r *Repository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*QueueEntry, error) {
	var e QueueEntry
	err := tx.GetContext(ctx, &e, `
		SELECT `+selectColumns+`
		FROM payout_queue
		WHERE id = $1
		FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, e *QueueEntry) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE payout_queue
		SET status = $2, reason = $3, released_at = $4, updated_at = $5
		WHERE id = $1`,
		e.ID, e.Status, e.Reason, e.ReleasedAt, e.UpdatedAt)
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

// ListEligibleIDs returns PENDING entries whose hold has elapsed, oldest
// first. Only IDs: each entry is re-read under lock in its own transaction.
func (r *Repository) ListEligibleIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		SELECT id
		FROM payout_queue
		WHERE status = $1 AND eligible_at <= $2
		ORDER BY eligible_at
		LIMIT $3`, StatusPending, now, limit)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]QueueEntry, error) {
	entries := []QueueEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT `+selectColumns+`
		FROM payout_queue
		WHERE creator_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, creatorID, limit, offset)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// QueueStats feeds the creator payout summary.
func (r *Repository) QueueStats(ctx context.Context, creatorID uuid.UUID) (queued, frozen int, nextEligibleAt *time.Time, err error) {
	var row struct {
		Queued       int          `db:"queued"`
		Frozen       int          `db:"frozen"`
		NextEligible sql.NullTime `db:"next_eligible"`
	}
	err = r.db.GetContext(ctx, &row, `
		SELECT
			COUNT(*) FILTER (WHERE status = $2) AS queued,
			COUNT(*) FILTER (WHERE status = $3) AS frozen,
			MIN(eligible_at) FILTER (WHERE status = $2) AS next_eligible
		FROM payout_queue
		WHERE creator_id = $1`, creatorID, StatusPending, StatusFrozen)
	if err != nil {
		return 0, 0, nil, err
	}
	if row.NextEligible.Valid {
		t := row.NextEligible.Time
		nextEligibleAt = &t
	}
	return row.Queued, row.Frozen, nextEligibleAt, nil
}
