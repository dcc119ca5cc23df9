package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := GetDefaultConfig()
	cfg.Ruler.URL = "https://ruler.example.com/prefix"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	err := GetDefaultConfig().Validate()
	require.Error(t, err, "defaults lack a ruler URL")
	assert.Contains(t, err.Error(), "ruler.url")
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"relative url", func(c *Config) { c.Ruler.URL = "/api" }, "ruler.url"},
		{"unsupported scheme", func(c *Config) { c.Ruler.URL = "ftp://ruler" }, "ruler.url"},
		{"unparsable url", func(c *Config) { c.Ruler.URL = "http://[::1" }, "ruler.url"},
		{"zero timeout", func(c *Config) { c.Ruler.Timeout = 0 }, "ruler.timeout"},
		{"no workers", func(c *Config) { c.Reconciler.Workers = 0 }, "reconciler.workers"},
		{"no retries", func(c *Config) { c.Reconciler.MaxRetries = 0 }, "reconciler.maxRetries"},
		{"no conflict retries", func(c *Config) { c.Reconciler.ConflictRetries = -1 }, "reconciler.conflictRetries"},
		{"zero backoff", func(c *Config) { c.Reconciler.InitialBackoff = 0 }, "reconciler.initialBackoff"},
		{"max below initial", func(c *Config) { c.Reconciler.MaxBackoff = c.Reconciler.InitialBackoff / 2 }, "reconciler.maxBackoff"},
		{"zero reconcile timeout", func(c *Config) { c.Reconciler.ReconcileTimeout = 0 }, "reconciler.reconcileTimeout"},
		{"merge strategy", func(c *Config) { c.Reconciler.MergeStrategy = "append" }, "reconciler.mergeStrategy"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1, "got %v", verrs)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Ruler.URL = ""
	cfg.Reconciler.Workers = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 3)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_EmptyMergeStrategyMeansReplace(t *testing.T) {
	cfg := validConfig()
	cfg.Reconciler.MergeStrategy = ""
	assert.NoError(t, cfg.Validate())
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
	assert.False(t, ValidationErrors{}.HasErrors())

	single := ValidationErrors{{Field: "a", Message: "is bad"}}
	assert.Equal(t, "field 'a': is bad", single.Error())

	assert.Equal(t, "plain", ValidationError{Message: "plain"}.Error())
}
