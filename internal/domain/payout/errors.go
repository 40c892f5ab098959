package payout

import "errors"

var (
	ErrNotFound          = errors.New("payout queue entry not found")
	ErrInvalidTransition = errors.New("invalid payout state transition")
	ErrAlreadyTerminal   = errors.New("payout is already in a terminal state")
	ErrReasonRequired    = errors.New("a reason is required for this transition")
	ErrNotEligible       = errors.New("payout is not yet eligible for release")
	ErrBudgetExceeded    = errors.New("campaign budget exceeded")
	ErrEventNotPayable   = errors.New("event does not qualify for payout")
)
