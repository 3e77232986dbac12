package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"remindbot/internal/ai"
	"remindbot/internal/bot"
	"remindbot/internal/bot/handlers"
	"remindbot/internal/config"
	"remindbot/internal/database"
	"remindbot/internal/dedup"
	"remindbot/internal/dispatcher"
	"remindbot/internal/guard"
	"remindbot/internal/logging"
	"remindbot/internal/nlu"
	"remindbot/internal/reminder"
	"remindbot/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("error", true)
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogPretty)
	loc := cfg.Location()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}
	logger.Info().Msg("database ready")

	reminderRepo := repository.NewReminderRepository(db)
	seriesRepo := repository.NewSeriesRepository(db)
	service := reminder.NewService(reminderRepo, seriesRepo, loc, logger)

	aiClient := ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
	costGuard := guard.NewCostGuard(cfg.MonthlyBudgetUSD, cfg.InputCostPer1K, cfg.OutputCostPer1K)
	breaker := guard.NewCircuitBreaker(cfg.CircuitFailureThreshold, cfg.CircuitOpenDuration)
	gateway := nlu.New(aiClient, costGuard, breaker, cfg.EstimatedCallUSD, logger)
	logger.Info().Str("model", cfg.AIModel).Msg("model gateway ready")

	api, err := bot.NewAPI(cfg.TelegramToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("create telegram api")
	}

	limiter := guard.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	dd := dedup.New(cfg.DedupTTL)

	var disp *dispatcher.Dispatcher
	h := handlers.New(api, gateway, service, notifierFunc(func() { disp.Notify() }), loc, logger)
	b := bot.New(api, h, dd, limiter, logger)

	disp = dispatcher.New(reminderRepo, b, cfg.DispatchInterval, cfg.DispatchBatchSize, logger)
	disp.Start(ctx)
	defer disp.Stop()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info().Msg("shutting down")
		cancel()
	}()

	logger.Info().Msg("starting bot")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("bot stopped")
	}
}

// notifierFunc adapts a closure to the handlers.Notifier contract, used
// to break the handlers/dispatcher construction cycle.
type notifierFunc func()

func (f notifierFunc) Notify() { f() }
