package campaign

import (
	"time"

	"github.com/google/uuid"
)

type CpmMode string

const (
	CpmModeConservative CpmMode = "conservative"
	CpmModeAggressive   CpmMode = "aggressive"
)

// Campaign carries the budget and CPM configuration the monetization core
// reads. Campaign CRUD lives upstream; this package never writes anything
// except the derived spent_budget_cents cache.
type Campaign struct {
	ID                uuid.UUID `db:"id" json:"id"`
	AdvertiserID      uuid.UUID `db:"advertiser_id" json:"advertiser_id"`
	TotalBudgetCents  int64     `db:"total_budget_cents" json:"total_budget_cents"`
	SpentBudgetCents  int64     `db:"spent_budget_cents" json:"spent_budget_cents"`
	BaseCpmCents      int64     `db:"base_cpm_cents" json:"base_cpm_cents"`
	MinCpmCents       int64     `db:"min_cpm_cents" json:"min_cpm_cents"`
	MaxCpmCents       int64     `db:"max_cpm_cents" json:"max_cpm_cents"`
	DynamicCpmEnabled bool      `db:"dynamic_cpm_enabled" json:"dynamic_cpm_enabled"`
	DynamicCpmMode    CpmMode   `db:"dynamic_cpm_mode" json:"dynamic_cpm_mode"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// EffectiveMinCpm applies the 0.5x-of-base default when no floor is set.
func (c *Campaign) EffectiveMinCpm() int64 {
	if c.MinCpmCents > 0 {
		return c.MinCpmCents
	}
	return c.BaseCpmCents / 2
}

// EffectiveMaxCpm applies the 1.5x-of-base default when no ceiling is set.
func (c *Campaign) EffectiveMaxCpm() int64 {
	if c.MaxCpmCents > 0 {
		return c.MaxCpmCents
	}
	return c.BaseCpmCents * 3 / 2
}

// BudgetReport is the result of computeBudget: authoritative spend from the
// ledger next to the cached figure, so callers can see drift.
type BudgetReport struct {
	CampaignID       uuid.UUID `json:"campaign_id"`
	TotalBudgetCents int64     `json:"total_budget_cents"`
	SpentCents       int64     `json:"spent_cents"`
	RemainingCents   int64     `json:"remaining_cents"`
	CachedSpentCents int64     `json:"cached_spent_cents"`
	DriftCents       int64     `json:"drift_cents"`
}
