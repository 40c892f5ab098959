package payout

import (
	"strings"
	"time"
)

// Command is a payout state transition request. The set of commands is
// closed: each carries exactly the data its transition needs, so a caller
// cannot ask for a freeze without a reason or a release with one.
type Command interface {
	isCommand()
}

// ReleaseCommand moves an entry to RELEASED. Force bypasses the eligibility
// hold and allows releasing a FROZEN entry; it never bypasses budget checks,
// which live above the state machine.
type ReleaseCommand struct {
	Force bool
}

// FreezeCommand parks a PENDING entry out of the release sweep.
type FreezeCommand struct {
	Reason string
}

// CancelCommand permanently excludes the entry from payout.
type CancelCommand struct {
	Reason string
}

func (ReleaseCommand) isCommand() {}
func (FreezeCommand) isCommand()  {}
func (CancelCommand) isCommand()  {}

// Apply validates the command against the entry's current state and mutates
// the entry in place. Callers persist the result in the same transaction
// that re-read the entry under lock.
func Apply(e *QueueEntry, cmd Command, now time.Time) error {
	if e.Status.Terminal() {
		return ErrAlreadyTerminal
	}

	switch c := cmd.(type) {
	case ReleaseCommand:
		if e.Status == StatusFrozen && !c.Force {
			return ErrInvalidTransition
		}
		if !c.Force && e.EligibleAt.After(now) {
			return ErrNotEligible
		}
		e.Status = StatusReleased
		released := now
		e.ReleasedAt = &released

	case FreezeCommand:
		if e.Status != StatusPending {
			return ErrInvalidTransition
		}
		reason := strings.TrimSpace(c.Reason)
		if reason == "" {
			return ErrReasonRequired
		}
		e.Status = StatusFrozen
		e.Reason = &reason

	case CancelCommand:
		reason := strings.TrimSpace(c.Reason)
		if reason == "" {
			return ErrReasonRequired
		}
		e.Status = StatusCancelled
		e.Reason = &reason

	default:
		return ErrInvalidTransition
	}

	e.UpdatedAt = now
	return nil
}
