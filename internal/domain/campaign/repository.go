package campaign

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	var c Campaign
	err := r.db.GetContext(ctx, &c, `
		SELECT id, advertiser_id, total_budget_cents, spent_budget_cents,
		       base_cpm_cents, min_cpm_cents, max_cpm_cents,
		       dynamic_cpm_enabled, dynamic_cpm_mode, updated_at
		FROM campaigns
		WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetForUpdateTx locks the campaign row for the caller's transaction. Budget
// ceiling checks must hold this lock while summing ledger spend, otherwise
// two concurrent releases on the same campaign each read the pre-release sum
// and both fit under the ceiling.
func (r *Repository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Campaign, error) {
	var c Campaign
	err := tx.GetContext(ctx, &c, `
		SELECT id, advertiser_id, total_budget_cents, spent_budget_cents,
		       base_cpm_cents, min_cpm_cents, max_cpm_cents,
		       dynamic_cpm_enabled, dynamic_cpm_mode, updated_at
		FROM campaigns
		WHERE id = $1
		FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// RefreshSpentCache overwrites the derived spend cache with the ledger sum.
func (r *Repository) RefreshSpentCache(ctx context.Context, id uuid.UUID, spentCents int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET spent_budget_cents = $2, updated_at = NOW()
		WHERE id = $1`, id, spentCents)
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

// Directory is the read side of the creator directory owned upstream.
type Directory struct {
	db *sqlx.DB
}

func NewDirectory(db *sqlx.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) ChannelVerified(ctx context.Context, creatorID uuid.UUID) (bool, error) {
	var verified bool
	err := d.db.GetContext(ctx, &verified, `
		SELECT channel_verified FROM creators WHERE id = $1`, creatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrCreatorNotFound
	}
	if err != nil {
		return false, err
	}
	return verified, nil
}
