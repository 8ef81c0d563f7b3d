// README: Entry point; loads config, wires provider adapters and services, starts HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wayfinder/internal/ai"
	"wayfinder/internal/config"
	httptransport "wayfinder/internal/http"
	"wayfinder/internal/infra"
	"wayfinder/internal/modules/plan"
	"wayfinder/internal/modules/provider"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *plan.Store
	if cfg.DB.DSN != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Fatal("postgres init", zap.Error(err))
		}
		defer dbPool.Close()
		store = plan.NewStore(dbPool)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = infra.NewRedis(cfg.Redis.Addr)
		defer redisClient.Close()
	}

	adapters := buildAdapters(cfg.Providers, logger)
	planSvc := plan.NewService(adapters, store, cfg.Plan, logger)

	var summarizer ai.Summarizer
	if cfg.AI.GeminiKey != "" {
		gemini, err := ai.NewGeminiSummarizer(ctx, cfg.AI.GeminiKey)
		if err != nil {
			logger.Fatal("gemini init", zap.Error(err))
		}
		defer gemini.Close()
		summarizer = gemini
	}

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Plan:               planSvc,
		Summarizer:         summarizer,
		Store:              store,
		Redis:              redisClient,
		RateLimitPerMinute: cfg.RateLimit.PerMinute,
		Log:                logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.Int("adapters", len(adapters)))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server", zap.Error(err))
	}
}

// buildAdapters wires every provider with configuration present. Unconfigured
// ride-hail providers are still registered so the plan response records them
// as unavailable.
func buildAdapters(cfg config.ProviderConfig, logger *zap.Logger) []provider.Adapter {
	adapters := []provider.Adapter{
		provider.NewRideHailAdapter(provider.RideHailConfig{
			Provider: "uber", Product: "UberX",
			QuoteURL: cfg.UberQuoteURL, APIKey: cfg.UberAPIKey,
		}),
		provider.NewRideHailAdapter(provider.RideHailConfig{
			Provider: "lyft", Product: "Lyft",
			QuoteURL: cfg.LyftQuoteURL, APIKey: cfg.LyftAPIKey,
		}),
		provider.NewScooterAdapter("lime", cfg.LimeFeedURL),
	}

	transit, err := provider.NewTransitAdapter(cfg.TransitAgency, cfg.GoogleMapsKey)
	if err != nil {
		logger.Warn("transit adapter init", zap.Error(err))
	} else {
		adapters = append(adapters, transit)
	}

	baseline, err := provider.NewBaselineAdapter(cfg.GoogleMapsKey)
	if err != nil {
		logger.Warn("baseline adapter init", zap.Error(err))
	} else {
		adapters = append(adapters, baseline)
	}
	return adapters
}
