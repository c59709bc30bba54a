package featuregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyOptions(options []Option) config {
	e := &Engine{config: defaultConfig()}
	for _, opt := range options {
		opt(e)
	}
	return e.config
}

func TestFromEnvDefaultsToNoOptions(t *testing.T) {
	t.Setenv("FEATUREGATE_BASE_URL", "")
	t.Setenv("FEATUREGATE_ENVIRONMENT", "")
	t.Setenv("FEATUREGATE_TIMEOUT_MS", "")
	t.Setenv("FEATUREGATE_STALE_AFTER_HOURS", "")

	options, err := FromEnv()

	require.NoError(t, err)
	cfg := applyOptions(options)
	assert.Equal(t, DefaultBaseURL, cfg.baseURL)
	assert.Equal(t, EnvProduction, cfg.environment)
	assert.Equal(t, DefaultTimeout, cfg.timeout)
}

func TestFromEnvReadsOverrides(t *testing.T) {
	t.Setenv("FEATUREGATE_BASE_URL", "https://flags.example.test/v1/")
	t.Setenv("FEATUREGATE_ENVIRONMENT", "staging")
	t.Setenv("FEATUREGATE_TIMEOUT_MS", "250")
	t.Setenv("FEATUREGATE_STALE_AFTER_HOURS", "48")

	options, err := FromEnv()

	require.NoError(t, err)
	cfg := applyOptions(options)
	assert.Equal(t, "https://flags.example.test/v1/", cfg.baseURL)
	assert.Equal(t, EnvStaging, cfg.environment)
	assert.Equal(t, 250*time.Millisecond, cfg.timeout)
	assert.Equal(t, 48*time.Hour, cfg.staleAfter)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric timeout", "FEATUREGATE_TIMEOUT_MS", "soon"},
		{"negative timeout", "FEATUREGATE_TIMEOUT_MS", "-1"},
		{"non-numeric staleness", "FEATUREGATE_STALE_AFTER_HOURS", "never"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := FromEnv()

			assert.Error(t, err)
		})
	}
}
