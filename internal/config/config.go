// README: Config loader with env defaults for HTTP, providers, DB, Redis, and AI.
package config

import (
	"os"
	"strconv"
	"time"

	"wayfinder/internal/modules/plan"
)

type ProviderConfig struct {
	// Uber/Lyft quote endpoints; empty means the adapter reports itself
	// unavailable instead of guessing.
	UberQuoteURL string
	UberAPIKey   string
	LyftQuoteURL string
	LyftAPIKey   string

	// Lime GBFS free_bike_status feed.
	LimeFeedURL string

	// Google Maps Platform key, shared by the transit and baseline adapters.
	GoogleMapsKey string
	TransitAgency string
}

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		// Empty DSN disables the diagnostics store.
		DSN string
	}
	Redis struct {
		// Empty addr disables rate limiting.
		Addr string
	}
	Providers ProviderConfig
	Plan      plan.Config
	RateLimit struct {
		PerMinute int
	}
	AI struct {
		// Empty key disables the summary endpoint.
		GeminiKey string
	}
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("WAYFINDER_HTTP_ADDR", ":8080")
	cfg.DB.DSN = envOrDefault("WAYFINDER_DB_DSN", "")
	cfg.Redis.Addr = envOrDefault("WAYFINDER_REDIS_ADDR", "")

	cfg.Providers.UberQuoteURL = envOrDefault("WAYFINDER_UBER_QUOTE_URL", "")
	cfg.Providers.UberAPIKey = envOrDefault("WAYFINDER_UBER_API_KEY", "")
	cfg.Providers.LyftQuoteURL = envOrDefault("WAYFINDER_LYFT_QUOTE_URL", "")
	cfg.Providers.LyftAPIKey = envOrDefault("WAYFINDER_LYFT_API_KEY", "")
	cfg.Providers.LimeFeedURL = envOrDefault("WAYFINDER_LIME_FEED_URL", "")
	cfg.Providers.GoogleMapsKey = envOrDefault("WAYFINDER_GOOGLE_MAPS_KEY", "")
	cfg.Providers.TransitAgency = envOrDefault("WAYFINDER_TRANSIT_AGENCY", "transit")

	cfg.Plan.ProviderTimeout = time.Duration(envOrDefaultInt("WAYFINDER_PROVIDER_TIMEOUT_MS", 4000)) * time.Millisecond
	cfg.Plan.OverallDeadline = time.Duration(envOrDefaultInt("WAYFINDER_PLAN_DEADLINE_MS", 8000)) * time.Millisecond
	cfg.Plan.AlwaysIncludeFallback = envOrDefaultBool("WAYFINDER_ALWAYS_INCLUDE_FALLBACK", false)

	cfg.RateLimit.PerMinute = envOrDefaultInt("WAYFINDER_RATE_LIMIT_PER_MIN", 60)

	cfg.AI.GeminiKey = envOrDefault("GEMINI_API_KEY", "")
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
