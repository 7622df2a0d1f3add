package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration shared by the dashboard API and the
// ledger backend.
type Config struct {
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	// Servers
	Port       string `env:"PORT" envDefault:"8080"`
	LedgerPort string `env:"LEDGER_PORT" envDefault:"8081"`

	// JWT
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"fallback-secret-key-for-dev-only"`
	JWTExpirationDur time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`

	// Upstreams
	LedgerAPIURL string        `env:"LEDGER_API_URL" envDefault:"http://localhost:8081"`
	MarketAPIURL string        `env:"MARKET_API_URL" envDefault:"https://api.coingecko.com/api/v3"`
	HTTPTimeout  time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`

	// Valuation
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"10s"`
	QuoteCacheTTL   time.Duration `env:"QUOTE_CACHE_TTL" envDefault:"20s"`
	MarketsPerPage  int           `env:"MARKETS_PER_PAGE" envDefault:"20"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Kafka (trade events); publishing is disabled when no brokers are set.
	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTradesTopic string   `env:"KAFKA_TRADES_TOPIC" envDefault:"ledger.trades"`
}

var appConfig *Config

// Load loads configuration from the environment, reading a .env file first
// when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.MarketsPerPage < 1 || cfg.MarketsPerPage > 100 {
		log.Printf("Warning: MARKETS_PER_PAGE %d out of range, falling back to 20\n", cfg.MarketsPerPage)
		cfg.MarketsPerPage = 20
	}

	appConfig = cfg
	return cfg, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}
