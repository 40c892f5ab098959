package balance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PayoutQueueStats provides queue counts for the payout summary without
// coupling to the payout package.
type PayoutQueueStats interface {
	QueueStats(ctx context.Context, creatorID uuid.UUID) (queued, frozen int, nextEligibleAt *time.Time, err error)
}

type Service struct {
	repo       *Repository
	queueStats PayoutQueueStats
}

func NewService(repo *Repository, queueStats PayoutQueueStats) *Service {
	return &Service{repo: repo, queueStats: queueStats}
}

func (s *Service) Get(ctx context.Context, creatorID uuid.UUID) (*CreatorBalance, error) {
	return s.repo.Get(ctx, creatorID)
}

// Withdraw debits available creator funds.
func (s *Service) Withdraw(ctx context.Context, creatorID uuid.UUID, amount int64, referenceID string) error {
	if amount <= 0 || referenceID == "" {
		return ErrInvalidAmount
	}
	if err := s.repo.Withdraw(ctx, creatorID, amount, referenceID); err != nil {
		return err
	}
	log.Info().
		Str("creator_id", creatorID.String()).
		Int64("amount", amount).
		Str("reference_id", referenceID).
		Msg("Creator withdrawal applied")
	return nil
}

// SetRiskLevel adjusts the hold applied to the creator's future payouts.
func (s *Service) SetRiskLevel(ctx context.Context, creatorID uuid.UUID, level RiskLevel) error {
	if err := s.repo.SetRiskLevel(ctx, creatorID, level); err != nil {
		return err
	}
	log.Info().
		Str("creator_id", creatorID.String()).
		Str("risk_level", string(level)).
		Msg("Creator risk level updated")
	return nil
}

// GetPayoutSummary assembles the creator-facing earnings overview.
func (s *Service) GetPayoutSummary(ctx context.Context, creatorID uuid.UUID) (*PayoutSummary, error) {
	b, err := s.repo.Get(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	withdrawn, err := s.repo.WithdrawnCents(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	summary := &PayoutSummary{
		CreatorID:        b.CreatorID,
		AvailableCents:   b.AvailableCents,
		PendingCents:     b.PendingCents,
		TotalEarnedCents: b.TotalEarnedCents,
		WithdrawnCents:   withdrawn,
		RiskLevel:        b.RiskLevel,
		PayoutDelayDays:  b.PayoutDelayDays,
	}

	if s.queueStats != nil {
		queued, frozen, nextEligible, err := s.queueStats.QueueStats(ctx, creatorID)
		if err != nil {
			return nil, err
		}
		summary.QueuedPayouts = queued
		summary.FrozenPayouts = frozen
		summary.NextEligibleAt = nextEligible
	}

	return summary, nil
}
