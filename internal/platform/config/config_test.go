package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 0.5, cfg.Scoring.DecayPerDay)
	assert.Equal(t, 30*24*time.Hour, cfg.Scoring.WalletAgeMinimum)
	assert.Equal(t, "clamp_at_display", cfg.Scoring.ReputationPolicy)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Transaction)
	assert.Empty(t, cfg.Postgres.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Tracing.Endpoint)
	assert.Equal(t, "vouch", cfg.Tracing.ServiceName)
	assert.False(t, cfg.RateLimit.Disabled)
	assert.Equal(t, 20, cfg.RateLimit.EndorseRequests)
	assert.Equal(t, time.Hour, cfg.RateLimit.EndorseWindow)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VOUCH_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("VOUCH_REPUTATION_POLICY", "clamp_at_write")
	t.Setenv("VOUCH_DECAY_MODEL", "half_life")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "clamp_at_write", cfg.Scoring.ReputationPolicy)
	assert.Equal(t, "half_life", cfg.Scoring.DecayModel)
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	t.Run("negative rate limit", func(t *testing.T) {
		t.Setenv("VOUCH_RATELIMIT_AUTH_REQUESTS", "-1")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("unknown reputation policy", func(t *testing.T) {
		t.Setenv("VOUCH_REPUTATION_POLICY", "clamp_sometimes")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("negative decay", func(t *testing.T) {
		t.Setenv("VOUCH_DECAY_PER_DAY", "-1")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("sample ratio above one", func(t *testing.T) {
		t.Setenv("VOUCH_OTEL_SAMPLE_RATIO", "1.5")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("production with dev signing key", func(t *testing.T) {
		t.Setenv("VOUCH_ENV", "production")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}
