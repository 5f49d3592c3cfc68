// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"telegram-channel-bot/internal/config"
	"telegram-channel-bot/internal/domain/ports/adapter"
	"telegram-channel-bot/internal/domain/ports/repository"
	aiAdapters "telegram-channel-bot/internal/infra/adapters/ai"
	tele "telegram-channel-bot/internal/infra/adapters/telegram"
	"telegram-channel-bot/internal/infra/antiflood"
	pg "telegram-channel-bot/internal/infra/db/postgres"
	httpapi "telegram-channel-bot/internal/infra/http"
	"telegram-channel-bot/internal/infra/i18n"
	"telegram-channel-bot/internal/infra/logging"
	"telegram-channel-bot/internal/infra/metrics"
	red "telegram-channel-bot/internal/infra/redis"
	"telegram-channel-bot/internal/infra/sched"
	"telegram-channel-bot/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop messenger without a token)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	logger.Info().
		Str("version", version).
		Bool("dev", cfg.Runtime.Dev).
		Str("bot_mode", cfg.Bot.Mode).
		Str("bot_token", logging.Redact(cfg.Bot.Token, cfg.Runtime.Dev)).
		Str("webhook_secret", logging.Redact(cfg.Bot.WebhookSecret, cfg.Runtime.Dev)).
		Msg("starting")

	// ---- Postgres ----
	if cfg.Database.AutoMigrate {
		if err := pg.MigrateUp(cfg.Database.URL); err != nil {
			logger.Fatal().Err(err).Msg("migrations")
		}
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second, logger)

	userRepo := pg.NewUserRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	postRepo := pg.NewPostRepo(pool)
	categoryRepo := pg.NewCategoryRepo(pool)
	reportRepo := pg.NewProblemReportRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Redis (optional) ----
	var (
		usage  repository.UsageCounter = pg.NewUsageRepo(pool)
		guard  adapter.FloodGuard
		locker red.Locker
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		usage = red.NewUsageCounter(redisClient)
		locker = red.NewLocker(redisClient)
		if cfg.RateLimit.Backend == "redis" {
			guard = red.NewSlidingWindowLimiter(redisClient, cfg.RateLimit.Limit, cfg.RateLimitInterval(), logger)
		}
	}
	if guard == nil {
		mem := antiflood.New(antiflood.Config{Limit: cfg.RateLimit.Limit, Interval: cfg.RateLimitInterval()}, logger)
		go mem.Run(ctx)
		guard = mem
	}

	// ---- Content ----
	bundle, err := i18n.NewBundle(i18n.LocalesFS)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}
	gen, err := aiAdapters.New(ctx, cfg.AI, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("ai provider")
	}
	content := usecase.NewContentSource(gen, categoryRepo, bundle, cfg.NetworkTimeout(), logger)

	// ---- Telegram ----
	var (
		messenger interface {
			adapter.Messenger
			tele.Replier
		}
		sendAPI tele.BotAPI
		pollAPI tele.UpdateSource
	)
	if cfg.Bot.Token == "" {
		logger.Warn().Msg("bot.token is empty; using the noop messenger")
		messenger = tele.NewNoopMessenger(logger)
	} else {
		api, err := tele.NewBotAPI(cfg.Bot.Token, cfg.NetworkTimeout())
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		sendAPI = api
		messenger = tele.NewRealMessenger(api, cfg.Bot.SendPerSecond, cfg.Bot.SendBurst, logger)
		if cfg.Bot.Mode == "polling" {
			poller, err := tele.NewBotAPI(cfg.Bot.Token, tele.PollTimeout)
			if err != nil {
				logger.Fatal().Err(err).Msg("telegram poller")
			}
			pollAPI = poller
		}
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, txManager, cfg.Quota.DefaultDailyLimit, logger)
	subUC := usecase.NewSubscriptionUseCase(userRepo, subRepo, usage, txManager, logger)
	reportUC := usecase.NewReportUseCase(userRepo, reportRepo, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, subRepo, logger)
	dispatchUC := usecase.NewDispatchUseCase(postRepo, categoryRepo, content, messenger, i18n.DefaultLang, cfg.NetworkTimeout(), logger)

	router := tele.NewRouter(tele.Deps{
		Users:   userUC,
		Subs:    subUC,
		Reports: reportUC,
		Content: content,
		Guard:   guard,
		Tr:      bundle,
		Out:     messenger,
	}, &cfg.Bot, logger)
	updates := tele.NewDispatcher(router, cfg.Bot.Workers, logger)
	updates.Start(ctx)

	// ---- Inbound: webhook or long polling ----
	deps := httpapi.Deps{Dispatch: dispatchUC, Subs: subUC, Stats: statsUC}
	webhookSet := false
	if cfg.Bot.Mode == "webhook" && sendAPI != nil {
		if err := tele.SetWebhook(sendAPI, cfg.Bot.WebhookURL, cfg.Bot.WebhookSecret); err != nil {
			logger.Fatal().Err(err).Msg("set webhook")
		}
		webhookSet = true
		deps.Webhook = tele.WebhookHandler(updates, cfg.Bot.WebhookSecret, logger)
	}

	var wg sync.WaitGroup
	if pollAPI != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tele.Poll(ctx, pollAPI, updates); err != nil {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}

	server := httpapi.NewServer(cfg, deps, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Workers ----
	postWorker := sched.NewPostWorker(cfg.SchedulerTick(), dispatchUC, locker, logger)
	postWorker.Start(ctx)
	statsWorker := sched.NewStatsWorker(5*time.Minute, statsUC, logger)
	go func() { _ = statsWorker.Run(ctx) }()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")

	postWorker.Stop()
	if webhookSet {
		if err := tele.DeleteWebhook(sendAPI); err != nil {
			logger.Warn().Err(err).Msg("delete webhook")
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	wg.Wait()
	updates.Stop()
	logger.Info().Msg("stopped")
}
