package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cliplink/cliplink-api/internal/config"
	"github.com/cliplink/cliplink-api/internal/domain/balance"
	"github.com/cliplink/cliplink-api/internal/domain/campaign"
	"github.com/cliplink/cliplink-api/internal/domain/ledger"
	"github.com/cliplink/cliplink-api/internal/domain/notification"
	"github.com/cliplink/cliplink-api/internal/domain/payout"
	"github.com/cliplink/cliplink-api/internal/domain/pricing"
	"github.com/cliplink/cliplink-api/internal/domain/scoring"
	"github.com/cliplink/cliplink-api/internal/domain/traffic"
	"github.com/cliplink/cliplink-api/internal/domain/wallet"
	"github.com/cliplink/cliplink-api/internal/pkg/database"
)

// Standalone sweep runner for deployments that keep background work off the
// API instances. Runs the same sweeps the API runs with WORKERS_ENABLED.
func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().Msg("Starting sweep-worker")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	ledgerRepo := ledger.NewRepository(db)
	walletRepo := wallet.NewRepository(db, ledgerRepo)
	balanceRepo := balance.NewRepository(db, ledgerRepo)
	trafficRepo := traffic.NewRepository(db)
	scoringRepo := scoring.NewRepository(db)
	campaignRepo := campaign.NewRepository(db)
	creatorDirectory := campaign.NewDirectory(db)
	notificationRepo := notification.NewRepository(db)
	payoutRepo := payout.NewRepository(db)

	hub := notification.NewHub(redis)
	go hub.Run()
	defer hub.Stop()

	dispatcher := notification.NewDispatcher(notificationRepo, hub)

	walletService := wallet.NewService(walletRepo, cfg.ReserveTTL)
	scoringService := scoring.NewService(scoringRepo, trafficRepo, creatorDirectory, redis, dispatcher)
	pricingService := pricing.NewService(campaignRepo, scoringService)
	payoutService := payout.NewService(
		payoutRepo, ledgerRepo, balanceRepo, campaignRepo, trafficRepo,
		pricingService, dispatcher,
		payout.Config{
			PlatformFeeBps:      cfg.PlatformFeeBps,
			FraudScoreThreshold: cfg.FraudScoreThreshold,
			PayoutClusterSize:   cfg.PayoutClusterSize,
		})

	releaseWorker := payout.NewWorker(payoutService, cfg.ReleaseSweepInterval, cfg.SweepBatchSize)
	reserveWorker := wallet.NewWorker(walletService, cfg.ReserveSweepInterval, cfg.SweepBatchSize)
	trustWorker := scoring.NewWorker(scoringService, cfg.TrustSweepInterval, cfg.SweepBatchSize)

	releaseWorker.Start()
	reserveWorker.Start()
	trustWorker.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down sweep-worker...")
	releaseWorker.Stop()
	reserveWorker.Stop()
	trustWorker.Stop()
	log.Info().Msg("Sweep-worker exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
