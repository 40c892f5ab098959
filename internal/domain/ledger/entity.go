package ledger

import (
	"time"

	"github.com/google/uuid"
)

// EntryType classifies a ledger movement.
type EntryType string

const (
	EntryTypeViewPayout       EntryType = "VIEW_PAYOUT"
	EntryTypeConversionPayout EntryType = "CONVERSION_PAYOUT"
	EntryTypePlatformFee      EntryType = "PLATFORM_FEE"
	EntryTypeDeposit          EntryType = "DEPOSIT"
	EntryTypeBilling          EntryType = "BILLING"
	EntryTypeWithdrawal       EntryType = "WITHDRAWAL"
)

// Entry is an immutable signed monetary fact. Corrections are new offsetting
// entries, never updates. (campaign_id, creator_id, ref_event_id) is unique,
// which makes payout creation idempotent under retry.
type Entry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	CampaignID  uuid.UUID `db:"campaign_id" json:"campaign_id"`
	CreatorID   uuid.UUID `db:"creator_id" json:"creator_id"`
	Type        EntryType `db:"type" json:"type"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	RefEventID  string    `db:"ref_event_id" json:"ref_event_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SpendTypes are the entry types charged against a campaign's budget:
// creator payouts plus the platform's cut. BILLING is deliberately not here;
// it records the advertiser's wallet funding a campaign, and counting the
// funding and the delivery it pays for against the same ceiling would charge
// the budget twice.
var SpendTypes = []EntryType{
	EntryTypeViewPayout,
	EntryTypeConversionPayout,
	EntryTypePlatformFee,
}

// EarningTypes are the entry types counted as creator earnings.
var EarningTypes = []EntryType{
	EntryTypeViewPayout,
	EntryTypeConversionPayout,
}
