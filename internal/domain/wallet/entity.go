package wallet

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds an advertiser's funds. A cent is in exactly one of
// {available, pending (locked in a reserve), spent (billed to the ledger)}.
type Wallet struct {
	OwnerUserID    uuid.UUID `db:"owner_user_id" json:"owner_user_id"`
	AvailableCents int64     `db:"available_cents" json:"available_cents"`
	PendingCents   int64     `db:"pending_cents" json:"pending_cents"`
	Currency       string    `db:"currency" json:"currency"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ReserveStatus is the lifecycle of a fund reserve.
type ReserveStatus string

const (
	ReserveStatusActive   ReserveStatus = "active"
	ReserveStatusConsumed ReserveStatus = "consumed"
	ReserveStatusReturned ReserveStatus = "returned"
)

// Reserve is a chunk of advertiser funds locked against a campaign. Consumed
// reserves become BILLING ledger entries; expired ones return to available.
type Reserve struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	OwnerUserID uuid.UUID     `db:"owner_user_id" json:"owner_user_id"`
	CampaignID  uuid.UUID     `db:"campaign_id" json:"campaign_id"`
	AmountCents int64         `db:"amount_cents" json:"amount_cents"`
	Status      ReserveStatus `db:"status" json:"status"`
	ReferenceID string        `db:"reference_id" json:"reference_id"`
	ExpiresAt   time.Time     `db:"expires_at" json:"expires_at"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}
