// Command server runs the rate limiter as a standalone HTTP service:
// clients are registered over POST /register, admissions checked over
// POST /check, and counters exposed over GET /metrics.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/yourusername/tokengate/api"
	"github.com/yourusername/tokengate/metrics"
	"github.com/yourusername/tokengate/pkg/tokengate"
)

type serverConfig struct {
	Port       string `env:"PORT" envDefault:"8080"`
	ConfigFile string `env:"CONFIG_FILE"`

	// Fallback policy used when no config file is given.
	DefaultCapacity   int64   `env:"DEFAULT_CAPACITY" envDefault:"100"`
	DefaultRefillRate float64 `env:"DEFAULT_REFILL_RATE" envDefault:"10"`

	KeyExtractor string `env:"KEY_EXTRACTOR" envDefault:"ip"`
	FailOpen     bool   `env:"FAIL_OPEN" envDefault:"false"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// A missing .env file is fine; the environment itself still applies.
	_ = godotenv.Load()

	var cfg serverConfig
	if err := env.Parse(&cfg); err != nil {
		logger.Error("parsing environment", "error", err)
		os.Exit(1)
	}

	policy, err := buildPolicy(cfg)
	if err != nil {
		logger.Error("loading policy", "config_file", cfg.ConfigFile, "error", err)
		os.Exit(1)
	}

	limiterMetrics := metrics.New()
	limiter, err := tokengate.NewLimiter(
		tokengate.WithConfig(policy),
		tokengate.WithLogger(logger),
		tokengate.WithMetrics(limiterMetrics),
		tokengate.WithFailOpen(cfg.FailOpen),
	)
	if err != nil {
		logger.Error("creating limiter", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(limiter, logger)
	metricsHandler := api.NewMetricsHandler(limiterMetrics)

	mux := http.NewServeMux()
	mux.HandleFunc("/register", handler.Register)
	mux.HandleFunc("/check", handler.Check)
	mux.Handle("/metrics", metricsHandler)
	mux.HandleFunc("/health", healthHandler)

	addr := ":" + cfg.Port
	logger.Info("rate limiter service listening",
		"addr", addr,
		"config_file", cfg.ConfigFile,
		"fail_open", cfg.FailOpen,
		"registered_clients", limiter.Registry().Count())

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// buildPolicy loads the YAML policy file when one is configured, and falls
// back to a defaults-only policy assembled from the environment.
func buildPolicy(cfg serverConfig) (*tokengate.Config, error) {
	if cfg.ConfigFile != "" {
		return tokengate.LoadConfigFromFile(cfg.ConfigFile)
	}
	return &tokengate.Config{
		Defaults: &tokengate.PolicyConfig{
			Capacity:   cfg.DefaultCapacity,
			RefillRate: cfg.DefaultRefillRate,
		},
		KeyExtractor: cfg.KeyExtractor,
	}, nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "tokengate",
	})
}
