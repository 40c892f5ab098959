package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
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
	"github.com/cliplink/cliplink-api/internal/middleware"
	"github.com/cliplink/cliplink-api/internal/pkg/database"
	"github.com/cliplink/cliplink-api/internal/pkg/jwt"
	pkgresponse "github.com/cliplink/cliplink-api/internal/pkg/response"
	"github.com/cliplink/cliplink-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting ClipLink API")

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

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	r2Storage, err := storage.NewR2Storage(storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		AccessKeySecret: cfg.R2AccessKeySecret,
		BucketName:      cfg.R2BucketName,
		PublicURL:       cfg.R2PublicURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create R2 storage")
	}

	// ---------- Repositories ----------
	ledgerRepo := ledger.NewRepository(db)
	walletRepo := wallet.NewRepository(db, ledgerRepo)
	balanceRepo := balance.NewRepository(db, ledgerRepo)
	trafficRepo := traffic.NewRepository(db)
	scoringRepo := scoring.NewRepository(db)
	campaignRepo := campaign.NewRepository(db)
	creatorDirectory := campaign.NewDirectory(db)
	notificationRepo := notification.NewRepository(db)
	payoutRepo := payout.NewRepository(db)

	// ---------- WebSocket hub ----------
	hub := notification.NewHub(redis)
	go hub.Run()
	defer hub.Stop()

	dispatcher := notification.NewDispatcher(notificationRepo, hub)

	// ---------- Services ----------
	statementService := ledger.NewStatementService(ledgerRepo, r2Storage)
	walletService := wallet.NewService(walletRepo, cfg.ReserveTTL)
	balanceService := balance.NewService(balanceRepo, payoutRepo)
	scoringService := scoring.NewService(scoringRepo, trafficRepo, creatorDirectory, redis, dispatcher)
	pricingService := pricing.NewService(campaignRepo, scoringService)
	campaignService := campaign.NewService(campaignRepo, ledgerRepo)
	payoutService := payout.NewService(
		payoutRepo, ledgerRepo, balanceRepo, campaignRepo, trafficRepo,
		pricingService, dispatcher,
		payout.Config{
			PlatformFeeBps:      cfg.PlatformFeeBps,
			FraudScoreThreshold: cfg.FraudScoreThreshold,
			PayoutClusterSize:   cfg.PayoutClusterSize,
		})

	// ---------- Rate limiting ----------
	var limitStore middleware.LimitStore
	if redis != nil {
		limitStore = middleware.NewRedisLimitStore(redis, "ratelimit")
	} else {
		limitStore = middleware.NewMemoryLimitStore()
	}
	limiter := middleware.NewRateLimiter(limitStore, middleware.SystemClock(), cfg.RateLimitRequests, cfg.RateLimitWindow)
	adminLimiter := limiter.Middleware(middleware.KeyByUser)
	webhookLimiter := limiter.Middleware(middleware.KeyByIP)

	// ---------- Handlers ----------
	ledgerHandler := ledger.NewHandler(ledgerRepo, statementService)
	walletHandler := wallet.NewHandler(walletService)
	webhookHandler := wallet.NewWebhookHandler(walletService, cfg.PSPWebhookSecret)
	balanceHandler := balance.NewHandler(balanceService)
	scoringHandler := scoring.NewHandler(scoringService)
	pricingHandler := pricing.NewHandler(pricingService)
	campaignHandler := campaign.NewHandler(campaignService)
	payoutHandler := payout.NewHandler(payoutService, cfg.SweepBatchSize)
	notificationHandler := notification.NewHandler(notificationRepo, hub, cfg.AllowedOrigins)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Workers ----------
	if cfg.WorkersEnabled {
		releaseWorker := payout.NewWorker(payoutService, cfg.ReleaseSweepInterval, cfg.SweepBatchSize)
		reserveWorker := wallet.NewWorker(walletService, cfg.ReserveSweepInterval, cfg.SweepBatchSize)
		trustWorker := scoring.NewWorker(scoringService, cfg.TrustSweepInterval, cfg.SweepBatchSize)

		releaseWorker.Start()
		reserveWorker.Start()
		trustWorker.Start()
		defer releaseWorker.Stop()
		defer reserveWorker.Stop()
		defer trustWorker.Stop()
	}

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint (before Compress)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(notificationHandler.WebSocket)).ServeHTTP(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Mount("/wallets", walletHandler.Routes(authMiddleware))
		r.Mount("/balances", balanceHandler.Routes(authMiddleware))
		r.Mount("/ledger", ledgerHandler.Routes(authMiddleware))
		r.Mount("/payouts", payoutHandler.Routes(authMiddleware, adminLimiter))
		r.Mount("/campaigns", campaignHandler.Routes(authMiddleware))
		r.Mount("/pricing", pricingHandler.Routes(authMiddleware))
		r.Mount("/creators", scoringHandler.Routes(authMiddleware))
		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(webhookLimiter)
		r.Mount("/", webhookHandler.WebhookRoutes())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
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
