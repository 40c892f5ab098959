package payout

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusReleased  Status = "RELEASED"
	StatusFrozen    Status = "FROZEN"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusReleased || s == StatusCancelled
}

// Kind distinguishes what the queued payout rewards, and selects the ledger
// entry type written on release.
type Kind string

const (
	KindView       Kind = "view"
	KindConversion Kind = "conversion"
)

// QueueEntry is one queued creator payout. Created once per qualifying
// validated event; AmountCents is net to the creator, FeeCents the platform's
// cut of the same gross amount.
type QueueEntry struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	CreatorID   uuid.UUID  `db:"creator_id" json:"creator_id"`
	CampaignID  uuid.UUID  `db:"campaign_id" json:"campaign_id"`
	Kind        Kind       `db:"kind" json:"kind"`
	AmountCents int64      `db:"amount_cents" json:"amount_cents"`
	FeeCents    int64      `db:"fee_cents" json:"fee_cents"`
	RefEventID  string     `db:"ref_event_id" json:"ref_event_id"`
	Status      Status     `db:"status" json:"status"`
	Reason      *string    `db:"reason" json:"reason,omitempty"`
	RiskScore   int        `db:"risk_score" json:"risk_score"`
	EligibleAt  time.Time  `db:"eligible_at" json:"eligible_at"`
	ReleasedAt  *time.Time `db:"released_at" json:"released_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// GrossCents is the campaign-side cost of this payout.
func (e *QueueEntry) GrossCents() int64 {
	return e.AmountCents + e.FeeCents
}
