package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/causality360/newsapi/internal/ai"
	"github.com/causality360/newsapi/internal/api"
	"github.com/causality360/newsapi/internal/archive"
	"github.com/causality360/newsapi/internal/cache"
	"github.com/causality360/newsapi/internal/config"
	"github.com/causality360/newsapi/internal/enrich"
	"github.com/causality360/newsapi/internal/feed"
	"github.com/causality360/newsapi/internal/logger"
	"github.com/causality360/newsapi/internal/middleware"
	"github.com/causality360/newsapi/internal/scheduler"
	"github.com/causality360/newsapi/internal/store"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: firstNonEmpty(cfg.LogFile, "stdout"),
		Pretty: cfg.DevMode(),
	})
	log := logger.Get()
	log.Info().Str("env", cfg.Env).Msg("Starting application...")

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("Invalid timezone")
	}

	// Cache: Redis preferred, in-process fallback keeps the app serving.
	var c cache.Cache
	c, err = cache.NewRedisCache(cfg.RedisURL, cfg.RedisPrefix)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory cache")
		c = cache.NewMemoryCache()
	}
	defer c.Close()

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		cancelMigrate()
		log.Fatal().Err(err).Msg("Database migration failed")
	}
	cancelMigrate()

	sources, err := feed.LoadSources(cfg.FeedsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.FeedsPath).Msg("Failed to load feed sources")
	}
	log.Info().Int("sources", len(sources)).Msg("Loaded feed sources")

	aiClient := ai.NewClient(ai.ClientConfig{
		APIURL:     cfg.AIApiURL,
		APIKey:     cfg.AIApiKey,
		Model:      cfg.AIModel,
		Timeout:    cfg.AITimeout,
		MaxRetries: cfg.AIMaxRetries,
	})
	gate := ai.NewGate(cfg.AIMinInterval)
	categorizer := ai.NewCategorizer(aiClient, gate)
	analyst := ai.NewAnalyst(aiClient, cfg.AIMaxTokens)

	fetcher := feed.NewFetcher(0)
	selCfg := feed.DefaultSelectorConfig()
	selCfg.MaxResults = cfg.MaxResults
	selector := feed.NewSelector(fetcher, categorizer, selCfg, loc)

	autoOrch := enrich.NewOrchestrator(analyst, db, enrich.Delays{
		BetweenAnalyses: cfg.AutoAnalysisDelay,
		BetweenDetails:  cfg.AutoDetailDelay,
		BetweenArticles: cfg.AutoArticleDelay,
		MaxSimilar:      cfg.MaxSimilar,
	}, loc)
	manualOrch := enrich.NewOrchestrator(analyst, db, enrich.Delays{
		BetweenAnalyses: cfg.ManualAnalysisDelay,
		BetweenDetails:  cfg.ManualDetailDelay,
		BetweenArticles: cfg.ManualArticleDelay,
		BatchSize:       cfg.ManualBatchSize,
		BetweenBatches:  cfg.ManualBatchDelay,
		MaxSimilar:      cfg.MaxSimilar,
	}, loc)
	service := enrich.NewService(selector, sources, db, autoOrch, manualOrch, loc)

	var archiver scheduler.Archiver
	if a, err := archive.New(context.Background(), archive.Config{
		Endpoint:  cfg.R2Endpoint,
		Bucket:    cfg.R2Bucket,
		AccessKey: cfg.R2AccessKey,
		SecretKey: cfg.R2SecretKey,
	}); err != nil {
		log.Warn().Err(err).Msg("Daily archiving disabled")
	} else {
		archiver = a
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	sched := scheduler.New(service, db, c, archiver, scheduler.Config{
		RunHour:   cfg.RunHour,
		RunMinute: cfg.RunMinute,
		Cooldown:  cfg.SchedulerCooldown,
	}, loc)
	go sched.Run(rootCtx)

	window := api.Window{
		RunHour:   cfg.RunHour,
		RunMinute: cfg.RunMinute,
		Buffer:    cfg.ProcessingBuffer,
		Loc:       loc,
	}
	handlers := api.NewHandlers(db, c, service, manualOrch, window, loc, cfg.DevMode())
	throttle := middleware.NewThrottle(cfg.ThrottleWindow)

	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // manual processing answers synchronously
		IdleTimeout:  120 * time.Second,
		ErrorHandler: middleware.ErrorHandler,
	})
	api.SetupRoutes(app, handlers, throttle)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
