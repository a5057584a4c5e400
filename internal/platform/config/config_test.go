package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("BALLOTBOX_ENV", "")
	t.Setenv("CENSUS_TIMEOUT", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 3*time.Second, cfg.Census.Timeout)
	assert.Equal(t, CensusCacheTTL, cfg.Census.CacheTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	require.NotNil(t, cfg.Location)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("BALLOTBOX_ADDR", ":9090")
	t.Setenv("CENSUS_TIMEOUT", "750ms")
	t.Setenv("CENSUS_BREAKER_THRESHOLD", "3")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("BALLOTBOX_TIMEZONE", "UTC")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 750*time.Millisecond, cfg.Census.Timeout)
	assert.Equal(t, 3, cfg.Census.BreakerThreshold)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestFromEnvProductionRequiresSecrets(t *testing.T) {
	t.Setenv("BALLOTBOX_ENV", EnvProduction)
	t.Setenv("JWT_SIGNING_KEY", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
}

func TestFromEnvRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("BALLOTBOX_TIMEZONE", "Mars/Olympus")

	_, err := FromEnv()
	require.Error(t, err)
}
