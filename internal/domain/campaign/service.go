package campaign

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cliplink/cliplink-api/internal/domain/ledger"
)

// SpendSource aggregates committed ledger entries. Implemented by
// ledger.Repository.
type SpendSource interface {
	SumByCampaign(ctx context.Context, campaignID uuid.UUID, types []ledger.EntryType) (int64, error)
}

type Service struct {
	repo  *Repository
	spend SpendSource
}

func NewService(repo *Repository, spend SpendSource) *Service {
	return &Service{repo: repo, spend: spend}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	return s.repo.Get(ctx, id)
}

// ComputeBudget derives spend from the ledger, which is authoritative.
// The stored spent_budget_cents is only a cache: when it drifts from the
// ledger sum it is corrected here and the drift logged.
func (s *Service) ComputeBudget(ctx context.Context, campaignID uuid.UUID) (*BudgetReport, error) {
	c, err := s.repo.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	spent, err := s.spend.SumByCampaign(ctx, campaignID, ledger.SpendTypes)
	if err != nil {
		return nil, fmt.Errorf("sum campaign spend: %w", err)
	}

	drift := c.SpentBudgetCents - spent
	if drift != 0 {
		log.Warn().
			Str("campaign_id", campaignID.String()).
			Int64("cached_cents", c.SpentBudgetCents).
			Int64("ledger_cents", spent).
			Int64("drift_cents", drift).
			Msg("Campaign spend cache drifted from ledger")

		if err := s.repo.RefreshSpentCache(ctx, campaignID, spent); err != nil {
			log.Error().Err(err).
				Str("campaign_id", campaignID.String()).
				Msg("Failed to refresh campaign spend cache")
		}
	}

	return &BudgetReport{
		CampaignID:       campaignID,
		TotalBudgetCents: c.TotalBudgetCents,
		SpentCents:       spent,
		RemainingCents:   c.TotalBudgetCents - spent,
		CachedSpentCents: c.SpentBudgetCents,
		DriftCents:       drift,
	}, nil
}
