package payout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingEntry(eligibleAt time.Time) *QueueEntry {
	return &QueueEntry{
		Status:     StatusPending,
		EligibleAt: eligibleAt,
	}
}

func TestApplyRelease(t *testing.T) {
	now := time.Now().UTC()

	t.Run("eligible pending releases", func(t *testing.T) {
		e := pendingEntry(now.Add(-time.Hour))
		err := Apply(e, ReleaseCommand{}, now)

		require.NoError(t, err)
		assert.Equal(t, StatusReleased, e.Status)
		require.NotNil(t, e.ReleasedAt)
		assert.Equal(t, now, *e.ReleasedAt)
	})

	t.Run("not yet eligible", func(t *testing.T) {
		e := pendingEntry(now.Add(time.Hour))
		err := Apply(e, ReleaseCommand{}, now)

		assert.ErrorIs(t, err, ErrNotEligible)
		assert.Equal(t, StatusPending, e.Status)
	})

	t.Run("force bypasses eligibility", func(t *testing.T) {
		e := pendingEntry(now.Add(time.Hour))
		err := Apply(e, ReleaseCommand{Force: true}, now)

		require.NoError(t, err)
		assert.Equal(t, StatusReleased, e.Status)
	})

	t.Run("sweep cannot release frozen", func(t *testing.T) {
		e := pendingEntry(now.Add(-time.Hour))
		e.Status = StatusFrozen
		err := Apply(e, ReleaseCommand{}, now)

		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StatusFrozen, e.Status)
	})

	t.Run("force releases frozen", func(t *testing.T) {
		e := pendingEntry(now.Add(time.Hour))
		e.Status = StatusFrozen
		err := Apply(e, ReleaseCommand{Force: true}, now)

		require.NoError(t, err)
		assert.Equal(t, StatusReleased, e.Status)
	})
}

func TestApplyFreeze(t *testing.T) {
	now := time.Now().UTC()

	t.Run("pending freezes with reason", func(t *testing.T) {
		e := pendingEntry(now)
		err := Apply(e, FreezeCommand{Reason: "manual fraud review"}, now)

		require.NoError(t, err)
		assert.Equal(t, StatusFrozen, e.Status)
		require.NotNil(t, e.Reason)
		assert.Equal(t, "manual fraud review", *e.Reason)
	})

	t.Run("reason is mandatory", func(t *testing.T) {
		e := pendingEntry(now)
		err := Apply(e, FreezeCommand{Reason: "   "}, now)

		assert.ErrorIs(t, err, ErrReasonRequired)
		assert.Equal(t, StatusPending, e.Status)
	})

	t.Run("frozen cannot be re-frozen", func(t *testing.T) {
		e := pendingEntry(now)
		e.Status = StatusFrozen
		err := Apply(e, FreezeCommand{Reason: "again"}, now)

		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestApplyCancel(t *testing.T) {
	now := time.Now().UTC()

	t.Run("pending cancels", func(t *testing.T) {
		e := pendingEntry(now)
		err := Apply(e, CancelCommand{Reason: "advertiser dispute"}, now)

		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, e.Status)
	})

	t.Run("frozen cancels", func(t *testing.T) {
		e := pendingEntry(now)
		e.Status = StatusFrozen
		err := Apply(e, CancelCommand{Reason: "confirmed fraud"}, now)

		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, e.Status)
	})

	t.Run("reason is mandatory", func(t *testing.T) {
		e := pendingEntry(now)
		err := Apply(e, CancelCommand{}, now)

		assert.ErrorIs(t, err, ErrReasonRequired)
	})
}

func TestApplyTerminalStates(t *testing.T) {
	now := time.Now().UTC()
	commands := []Command{
		ReleaseCommand{},
		ReleaseCommand{Force: true},
		FreezeCommand{Reason: "r"},
		CancelCommand{Reason: "r"},
	}

	for _, terminal := range []Status{StatusReleased, StatusCancelled} {
		for _, cmd := range commands {
			e := pendingEntry(now)
			e.Status = terminal
			err := Apply(e, cmd, now)

			assert.ErrorIs(t, err, ErrAlreadyTerminal, "status %s, command %T", terminal, cmd)
			assert.Equal(t, terminal, e.Status, "terminal state must not change")
		}
	}
}

func TestGrossCents(t *testing.T) {
	e := &QueueEntry{AmountCents: 80, FeeCents: 20}
	assert.Equal(t, int64(100), e.GrossCents())
}
