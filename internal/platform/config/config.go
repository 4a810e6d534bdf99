// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration. Every field has an env tag so a
// deployment can be described entirely through the environment.
type Config struct {
	Server     Server
	Auth       Auth
	Postgres   PostgresConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Scoring    Scoring
	Chain      Chain
	Timeouts   Timeouts
	Tracing    Tracing
	RateLimit  RateLimit
	IssuerSeed string `env:"VOUCH_ISSUER_SEED_PATH"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string        `env:"VOUCH_ADDR" envDefault:":8080"`
	Environment string        `env:"VOUCH_ENV" envDefault:"dev"`
	LogLevel    string        `env:"VOUCH_LOG_LEVEL" envDefault:"info"`
	ReadTimeout time.Duration `env:"VOUCH_READ_TIMEOUT" envDefault:"10s"`
	// RequestTimeout bounds each handler via chi's Timeout middleware.
	RequestTimeout time.Duration `env:"VOUCH_REQUEST_TIMEOUT" envDefault:"15s"`
}

// Auth configures holder bearer tokens and the admin guard.
type Auth struct {
	JWTSigningKey string        `env:"VOUCH_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string        `env:"VOUCH_JWT_ISSUER" envDefault:"vouch"`
	JWTAudience   string        `env:"VOUCH_JWT_AUDIENCE" envDefault:"vouch-api"`
	TokenTTL      time.Duration `env:"VOUCH_TOKEN_TTL" envDefault:"1h"`
	AdminToken    string        `env:"VOUCH_ADMIN_TOKEN"`
}

// PostgresConfig selects the PostgreSQL stores when URL is set. Empty URL
// keeps every store in memory.
type PostgresConfig struct {
	URL          string        `env:"VOUCH_POSTGRES_URL"`
	MaxOpenConns int           `env:"VOUCH_POSTGRES_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns int           `env:"VOUCH_POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLife  time.Duration `env:"VOUCH_POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// RedisConfig backs the content store when URL is set.
type RedisConfig struct {
	URL          string        `env:"VOUCH_REDIS_URL"`
	PoolSize     int           `env:"VOUCH_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"VOUCH_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"VOUCH_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"VOUCH_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"VOUCH_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig enables the Kafka audit publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `env:"VOUCH_KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"VOUCH_KAFKA_AUDIT_TOPIC" envDefault:"vouch.audit"`
}

// Scoring parameterizes the reputation and sybil heuristics.
type Scoring struct {
	DecayPerDay      float64       `env:"VOUCH_DECAY_PER_DAY" envDefault:"0.5"`
	DecayModel       string        `env:"VOUCH_DECAY_MODEL" envDefault:"linear"`
	HalfLife         time.Duration `env:"VOUCH_DECAY_HALF_LIFE" envDefault:"2160h"`
	WalletAgeMinimum time.Duration `env:"VOUCH_WALLET_AGE_MINIMUM" envDefault:"720h"`
	ReputationPolicy string        `env:"VOUCH_REPUTATION_POLICY" envDefault:"clamp_at_display"`
}

// Chain describes the anchoring ledger the credentials point at.
type Chain struct {
	ChainID         string `env:"VOUCH_CHAIN_ID" envDefault:"0xaa36a7"`
	ContractAddress string `env:"VOUCH_CONTRACT_ADDRESS" envDefault:"0x5FbDB2315678afecb367f032d93F642f64180aa3"`
}

// Timeouts bound collaborator and transaction calls.
type Timeouts struct {
	ContentStore time.Duration `env:"VOUCH_CONTENT_STORE_TIMEOUT" envDefault:"3s"`
	Anchor       time.Duration `env:"VOUCH_ANCHOR_TIMEOUT" envDefault:"3s"`
	Transaction  time.Duration `env:"VOUCH_TX_TIMEOUT" envDefault:"5s"`
}

// Tracing exports spans over OTLP/HTTP when Endpoint is set.
type Tracing struct {
	Endpoint    string  `env:"VOUCH_OTEL_ENDPOINT"`
	Enabled     bool    `env:"VOUCH_OTEL_ENABLED" envDefault:"true"`
	ServiceName string  `env:"VOUCH_OTEL_SERVICE_NAME" envDefault:"vouch"`
	SampleRatio float64 `env:"VOUCH_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// RateLimit sets the sliding window allowances. Limits live in Redis when
// VOUCH_REDIS_URL is set, otherwise in process memory.
type RateLimit struct {
	Disabled        bool          `env:"VOUCH_RATELIMIT_DISABLED"`
	AuthRequests    int           `env:"VOUCH_RATELIMIT_AUTH_REQUESTS" envDefault:"10"`
	AuthWindow      time.Duration `env:"VOUCH_RATELIMIT_AUTH_WINDOW" envDefault:"1m"`
	EndorseRequests int           `env:"VOUCH_RATELIMIT_ENDORSE_REQUESTS" envDefault:"20"`
	EndorseWindow   time.Duration `env:"VOUCH_RATELIMIT_ENDORSE_WINDOW" envDefault:"1h"`
	WriteRequests   int           `env:"VOUCH_RATELIMIT_WRITE_REQUESTS" envDefault:"30"`
	WriteWindow     time.Duration `env:"VOUCH_RATELIMIT_WRITE_WINDOW" envDefault:"1m"`
}

// IsProduction reports whether the process runs with production defaults.
func (c Config) IsProduction() bool {
	return c.Server.Environment == "prod" || c.Server.Environment == "production"
}

// FromEnv loads and validates the configuration so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Scoring.DecayPerDay < 0 {
		return fmt.Errorf("VOUCH_DECAY_PER_DAY must be non-negative")
	}
	switch c.Scoring.DecayModel {
	case "linear", "half_life":
	default:
		return fmt.Errorf("VOUCH_DECAY_MODEL must be linear or half_life, got %q", c.Scoring.DecayModel)
	}
	switch c.Scoring.ReputationPolicy {
	case "clamp_at_display", "clamp_at_write":
	default:
		return fmt.Errorf("VOUCH_REPUTATION_POLICY must be clamp_at_display or clamp_at_write, got %q", c.Scoring.ReputationPolicy)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("VOUCH_OTEL_SAMPLE_RATIO must be within [0, 1]")
	}
	if c.RateLimit.AuthRequests < 0 || c.RateLimit.EndorseRequests < 0 || c.RateLimit.WriteRequests < 0 {
		return fmt.Errorf("VOUCH_RATELIMIT_*_REQUESTS must be non-negative")
	}
	if c.IsProduction() && c.Auth.JWTSigningKey == "dev-secret-key-change-in-production" {
		return fmt.Errorf("VOUCH_JWT_SIGNING_KEY must be set in production")
	}
	return nil
}
