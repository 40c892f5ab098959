package ledger

import "errors"

var (
	// ErrDuplicateEvent is returned when an entry for the same
	// (campaign, creator, ref_event) already exists. Callers rely on this
	// instead of doing their own "already paid?" checks.
	ErrDuplicateEvent = errors.New("ledger entry already exists for event")

	// ErrInvalidAmount is returned for a zero amount
	ErrInvalidAmount = errors.New("invalid amount: must be non-zero")

	// ErrNotFound is returned when an entry doesn't exist
	ErrNotFound = errors.New("ledger entry not found")
)
