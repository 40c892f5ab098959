package balance

import "errors"

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient available balance")
	ErrNotFound          = errors.New("creator balance not found")

	// ErrInvariantViolation means a committed operation would have left
	// available + pending above total earned minus withdrawals. The row
	// serialization discipline should make this impossible; seeing it is a
	// logic defect, the transaction aborts and the caller alerts.
	ErrInvariantViolation = errors.New("balance invariant violation")
)
