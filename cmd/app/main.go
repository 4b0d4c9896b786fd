// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telegram-tiktok-checker/internal/application"
	"telegram-tiktok-checker/internal/config"
	"telegram-tiktok-checker/internal/domain/ports/adapter"
	"telegram-tiktok-checker/internal/domain/ports/repository"
	tele "telegram-tiktok-checker/internal/infra/adapters/telegram"
	"telegram-tiktok-checker/internal/infra/adapters/tiktok"
	pg "telegram-tiktok-checker/internal/infra/db/postgres"
	"telegram-tiktok-checker/internal/infra/i18n"
	"telegram-tiktok-checker/internal/infra/logging"
	"telegram-tiktok-checker/internal/infra/metrics"
	red "telegram-tiktok-checker/internal/infra/redis"
	"telegram-tiktok-checker/internal/infra/sched"
	"telegram-tiktok-checker/internal/infra/web"
	"telegram-tiktok-checker/internal/infra/worker"
	"telegram-tiktok-checker/internal/usecase"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Config (flags are parsed inside) ----
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	logger.Debug().
		Str("bot_token", logging.Redact(cfg.Bot.Token, cfg.Runtime.Dev)).
		Int("admin_port", cfg.Admin.Port).
		Msg("config loaded")

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	var cache repository.VerdictCacheRepository
	if cfg.Checker.DisableCache {
		logger.Warn().Msg("verdict cache disabled")
	} else {
		cache = red.NewVerdictCache(redisClient, cfg.Redis.TTL)
	}

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	checkRepo := pg.NewCheckRepo(pool)
	reportRepo := pg.NewReportRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- TikTok prober chain: HTTP probe -> concurrency cap -> breaker ----
	prober := tiktok.NewBreakerProber(
		tiktok.NewLimitedProber(tiktok.NewProber(cfg.TikTok, logger), cfg.TikTok.ConcurrentLimit),
		logger,
	)

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, tm, logger)
	checkUC := usecase.NewCheckUseCase(prober, checkRepo, reportRepo, cache, cfg.TikTok.BulkRate, cfg.Checker.BulkMax, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, checkRepo, reportRepo, logger)

	// ---- Localization ----
	bundle, err := i18n.NewBundle(i18n.LocalesFS, cfg.Bot.Language, "ru", "en")
	if err != nil {
		logger.Fatal().Err(err).Msg("locale load failed")
	}

	// ---- Facade ----
	facade := application.NewBotFacade(userUC, checkUC, statsUC, bundle, cfg.Bot.AdminIDs, cfg.Checker.BulkMax)

	// ---- Telegram ----
	// Dev runs without a token get the noop adapter: no polling, but the
	// admin API, metrics and retention all come up for local work.
	var botAdapter adapter.TelegramBotAdapter
	var realBot *tele.RealTelegramBotAdapter
	if cfg.Bot.Token == "" {
		logger.Warn().Msg("no bot token, using noop telegram adapter")
		botAdapter = tele.NewNoopBotAdapter(logger)
	} else {
		realBot, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, facade, rateLimiter, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram init failed")
		}
		botAdapter = realBot
	}
	if strings.ToLower(cfg.Bot.Mode) != "polling" {
		logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot mode not implemented; falling back to polling")
	}

	// ---- Bulk worker pool ----
	workerPool := worker.NewPool(cfg.Bot.Workers, logger)
	workerPool.Start(ctx)
	bulkProc := worker.NewBulkProcessor(workerPool, facade, botAdapter, locker, logger)

	if realBot != nil {
		realBot.SetBulkSubmitter(bulkProc)
		go func() {
			if err := realBot.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}

	// ---- History retention ----
	retention := sched.NewRetentionWorker(cfg.Retention.SweepInterval, cfg.Retention.HistoryDays, checkRepo, logger)
	go func() { _ = retention.Run(ctx) }()

	// ---- Admin HTTP server: health, metrics, JSON API ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.TokenTTL)
	adminSrv := web.NewServer(statsUC, checkUC, cfg.Admin.APIKey, auth, pool, redisClient, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler:           adminSrv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("admin server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- DB pool gauge sampler ----
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	logger.Info().Str("version", version).Msg("tiktok checker bot is up")

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := server.Shutdown(shutCtx); err != nil {
		logger.Error().Err(err).Msg("admin server shutdown failed")
	}
	workerPool.Stop()
	logger.Info().Msg("bye")
}
