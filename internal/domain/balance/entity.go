package balance

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel determines how long a creator's payouts are held before release.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// PayoutDelayDays returns the risk-tier-dependent hold applied to new
// payout queue entries.
func (r RiskLevel) PayoutDelayDays() int {
	switch r {
	case RiskLevelMedium:
		return 7
	case RiskLevelHigh:
		return 14
	default:
		return 3
	}
}

// CreatorBalance is the projection of a creator's ledger position.
// pending covers queued-but-unreleased payouts; total_earned accrues at
// queue creation so available + pending never exceeds total_earned minus
// cumulative withdrawals.
type CreatorBalance struct {
	CreatorID        uuid.UUID `db:"creator_id" json:"creator_id"`
	AvailableCents   int64     `db:"available_cents" json:"available_cents"`
	PendingCents     int64     `db:"pending_cents" json:"pending_cents"`
	TotalEarnedCents int64     `db:"total_earned_cents" json:"total_earned_cents"`
	RiskLevel        RiskLevel `db:"risk_level" json:"risk_level"`
	PayoutDelayDays  int       `db:"payout_delay_days" json:"payout_delay_days"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// PayoutSummary is the creator-facing earnings overview.
type PayoutSummary struct {
	CreatorID          uuid.UUID `json:"creator_id"`
	AvailableCents     int64     `json:"available_cents"`
	PendingCents       int64     `json:"pending_cents"`
	TotalEarnedCents   int64     `json:"total_earned_cents"`
	WithdrawnCents     int64     `json:"withdrawn_cents"`
	QueuedPayouts      int       `json:"queued_payouts"`
	FrozenPayouts      int       `json:"frozen_payouts"`
	RiskLevel          RiskLevel `json:"risk_level"`
	PayoutDelayDays    int       `json:"payout_delay_days"`
	NextEligibleAt     *time.Time `json:"next_eligible_at,omitempty"`
}
