package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/cliplink/cliplink-api/internal/domain/balance"
	"github.com/cliplink/cliplink-api/internal/domain/campaign"
	"github.com/cliplink/cliplink-api/internal/domain/ledger"
	"github.com/cliplink/cliplink-api/internal/domain/notification"
	"github.com/cliplink/cliplink-api/internal/domain/pricing"
	"github.com/cliplink/cliplink-api/internal/domain/traffic"
)

// Config tunes payout creation and release.
type Config struct {
	PlatformFeeBps      int
	FraudScoreThreshold int
	PayoutClusterSize   int
}

type Service struct {
	repo       *Repository
	ledger     *ledger.Repository
	balances   *balance.Repository
	campaigns  *campaign.Repository
	traffic    *traffic.Repository
	pricer     *pricing.Service
	dispatcher *notification.Dispatcher
	cfg        Config
}

func NewService(
	repo *Repository,
	ledgerRepo *ledger.Repository,
	balances *balance.Repository,
	campaigns *campaign.Repository,
	trafficRepo *traffic.Repository,
	pricer *pricing.Service,
	dispatcher *notification.Dispatcher,
	cfg Config,
) *Service {
	if cfg.FraudScoreThreshold <= 0 {
		cfg.FraudScoreThreshold = 50
	}
	return &Service{
		repo:       repo,
		ledger:     ledgerRepo,
		balances:   balances,
		campaigns:  campaigns,
		traffic:    trafficRepo,
		pricer:     pricer,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// CreateForVisit queues a payout for a validated visit. Suspicious or
// unvalidated visits are not payable; an already-queued event returns the
// existing entry so retried jobs are harmless.
func (s *Service) CreateForVisit(ctx context.Context, visitID uuid.UUID) (*QueueEntry, error) {
	v, err := s.traffic.GetVisitEvent(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if !v.IsValidated || v.FraudScore >= s.cfg.FraudScoreThreshold {
		return nil, ErrEventNotPayable
	}
	return s.create(ctx, v.CampaignID, v.CreatorID, KindView, v.ID.String(), v.FraudScore)
}

// CreateForConversion queues a payout for a conversion event.
func (s *Service) CreateForConversion(ctx context.Context, conversionID uuid.UUID) (*QueueEntry, error) {
	c, err := s.traffic.GetConversionEvent(ctx, conversionID)
	if err != nil {
		return nil, err
	}
	v, err := s.traffic.GetVisitEvent(ctx, c.VisitID)
	if err != nil {
		return nil, err
	}
	if !v.IsValidated || v.FraudScore >= s.cfg.FraudScoreThreshold {
		return nil, ErrEventNotPayable
	}
	return s.create(ctx, c.CampaignID, c.CreatorID, KindConversion, c.ID.String(), v.FraudScore)
}

func (s *Service) create(ctx context.Context, campaignID, creatorID uuid.UUID, kind Kind, refEventID string, riskScore int) (*QueueEntry, error) {
	quote, err := s.pricer.QuoteFor(ctx, campaignID, creatorID)
	if err != nil {
		return nil, fmt.Errorf("price payout: %w", err)
	}

	// A conversion pays the full effective CPM; a view one thousandth of it.
	gross := quote.PerViewAmountCents
	if kind == KindConversion {
		gross = quote.EffectiveCpmCents
	}
	if gross <= 0 {
		return nil, ErrEventNotPayable
	}

	fee := gross * int64(s.cfg.PlatformFeeBps) / 10000
	net := gross - fee

	delayDays := balance.RiskLevelLow.PayoutDelayDays()
	if b, err := s.balances.Get(ctx, creatorID); err == nil {
		delayDays = b.PayoutDelayDays
	}

	e := &QueueEntry{
		CreatorID:   creatorID,
		CampaignID:  campaignID,
		Kind:        kind,
		AmountCents: net,
		FeeCents:    fee,
		RefEventID:  refEventID,
		RiskScore:   riskScore,
		EligibleAt:  time.Now().UTC().AddDate(0, 0, delayDays),
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	created, err := s.repo.CreateTx(ctx, tx, e)
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.balances.AccrueTx(ctx, tx, creatorID, net); err != nil {
			return nil, fmt.Errorf("accrue pending balance: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if created {
		log.Info().
			Str("payout_id", e.ID.String()).
			Str("creator_id", creatorID.String()).
			Str("kind", string(kind)).
			Int64("amount_cents", net).
			Int64("fee_cents", fee).
			Time("eligible_at", e.EligibleAt).
			Msg("Payout queued")
	}
	return e, nil
}

// ReleaseEligible is the scheduled sweep: every PENDING entry whose hold has
// elapsed is released in its own transaction, so one failing entry never
// stalls the rest.
func (s *Service) ReleaseEligible(ctx context.Context, batchSize int) (int, error) {
	ids, err := s.repo.ListEligibleIDs(ctx, time.Now().UTC(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("list eligible payouts: %w", err)
	}

	released := 0
	perCreator := make(map[uuid.UUID]int)
	for _, id := range ids {
		e, err := s.transition(ctx, id, ReleaseCommand{})
		if err != nil {
			// Concurrent admin actions legitimately steal entries out from
			// under the sweep.
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrAlreadyTerminal) || errors.Is(err, ErrNotEligible) {
				continue
			}
			log.Error().Err(err).
				Str("payout_id", id.String()).
				Msg("Failed to release payout")
			continue
		}
		released++
		perCreator[e.CreatorID]++
	}

	s.reportClusters(ctx, perCreator)
	return released, nil
}

// ForceRelease is the admin override: bypasses the eligibility hold and
// releases FROZEN entries, but the budget ceiling still applies.
func (s *Service) ForceRelease(ctx context.Context, id uuid.UUID) (*QueueEntry, error) {
	return s.transition(ctx, id, ReleaseCommand{Force: true})
}

func (s *Service) Freeze(ctx context.Context, id uuid.UUID, reason string) (*QueueEntry, error) {
	return s.transition(ctx, id, FreezeCommand{Reason: reason})
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*QueueEntry, error) {
	return s.transition(ctx, id, CancelCommand{Reason: reason})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*QueueEntry, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]QueueEntry, error) {
	return s.repo.ListByCreator(ctx, creatorID, limit, offset)
}

// transition is the single mutating path: re-read under lock, apply the
// command, perform the command's side effects, persist — one transaction.
func (s *Service) transition(ctx context.Context, id uuid.UUID, cmd Command) (*QueueEntry, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	e, err := s.repo.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := Apply(e, cmd, time.Now().UTC()); err != nil {
		return nil, err
	}

	switch e.Status {
	case StatusReleased:
		if err := s.settle(ctx, tx, e); err != nil {
			return nil, err
		}
	case StatusCancelled:
		if err := s.balances.CancelAccrualTx(ctx, tx, e.CreatorID, e.AmountCents); err != nil {
			return nil, fmt.Errorf("cancel accrual: %w", err)
		}
	}

	if err := s.repo.UpdateStatusTx(ctx, tx, e); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info().
		Str("payout_id", e.ID.String()).
		Str("status", string(e.Status)).
		Msg("Payout transitioned")
	return e, nil
}

// settle writes the ledger entries and moves the creator's balance from
// pending to available, inside the caller's transaction. The campaign row
// lock serializes releases per campaign: the payout-entry row lock alone
// would let two releases of different entries each sum only committed spend
// and both squeeze under the ceiling.
func (s *Service) settle(ctx context.Context, tx *sqlx.Tx, e *QueueEntry) error {
	c, err := s.campaigns.GetForUpdateTx(ctx, tx, e.CampaignID)
	if err != nil {
		return err
	}

	spent, err := s.ledger.SumByCampaignTx(ctx, tx, e.CampaignID, ledger.SpendTypes)
	if err != nil {
		return fmt.Errorf("sum campaign spend: %w", err)
	}
	if spent+e.GrossCents() > c.TotalBudgetCents {
		return ErrBudgetExceeded
	}

	payoutType := ledger.EntryTypeViewPayout
	if e.Kind == KindConversion {
		payoutType = ledger.EntryTypeConversionPayout
	}

	payoutEntry := &ledger.Entry{
		CampaignID:  e.CampaignID,
		CreatorID:   e.CreatorID,
		Type:        payoutType,
		AmountCents: e.AmountCents,
		RefEventID:  e.RefEventID,
	}

	// Small grosses floor the fee to zero (the ledger rejects zero-amount
	// entries), so those releases record the payout entry alone.
	if e.FeeCents == 0 {
		err = s.ledger.AppendTx(ctx, tx, payoutEntry)
	} else {
		err = s.ledger.AppendPairTx(ctx, tx, payoutEntry,
			&ledger.Entry{
				CampaignID:  e.CampaignID,
				CreatorID:   e.CreatorID,
				Type:        ledger.EntryTypePlatformFee,
				AmountCents: e.FeeCents,
				RefEventID:  e.RefEventID,
			})
	}
	if err != nil {
		return fmt.Errorf("append payout ledger entries: %w", err)
	}

	if err := s.balances.ReleaseTx(ctx, tx, e.CreatorID, e.AmountCents); err != nil {
		return fmt.Errorf("release balance: %w", err)
	}
	return nil
}

func (s *Service) reportClusters(ctx context.Context, perCreator map[uuid.UUID]int) {
	if s.dispatcher == nil || s.cfg.PayoutClusterSize <= 0 {
		return
	}
	for creatorID, count := range perCreator {
		if count < s.cfg.PayoutClusterSize {
			continue
		}
		s.dispatcher.Dispatch(ctx, notification.Event{
			Type:      notification.TypeUnusualPayoutCluster,
			CreatorID: creatorID,
			Payload: map[string]any{
				"released_count": count,
			},
		})
	}
}
