package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-metrics-mt-kit/ruler-informer/internal/config"
)

func TestNewConfig(t *testing.T) {
	override := func(c *config.Config) { c.Kubernetes.Namespace = "x" }
	cfg := NewConfig("/etc/config.yaml", true, override)

	assert.Equal(t, "/etc/config.yaml", cfg.ConfigPath)
	assert.True(t, cfg.Debug)
	assert.Len(t, cfg.Overrides, 1)
	assert.Nil(t, cfg.Settings)
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ruler:
  url: http://ruler:8080
kubernetes:
  namespace: monitoring
`), 0644))

	t.Run("file only", func(t *testing.T) {
		settings, err := loadSettings(NewConfig(path, false))
		require.NoError(t, err)
		assert.Equal(t, "http://ruler:8080", settings.Ruler.URL)
		assert.Equal(t, "monitoring", settings.Kubernetes.Namespace)
		assert.Equal(t, config.DefaultLogLevel, settings.Logging.Level)
	})

	t.Run("overrides win in order", func(t *testing.T) {
		settings, err := loadSettings(NewConfig(path, false,
			func(c *config.Config) { c.Kubernetes.Namespace = "first" },
			func(c *config.Config) { c.Kubernetes.Namespace = "second" },
		))
		require.NoError(t, err)
		assert.Equal(t, "second", settings.Kubernetes.Namespace)
	})

	t.Run("debug forces level", func(t *testing.T) {
		settings, err := loadSettings(NewConfig(path, true))
		require.NoError(t, err)
		assert.Equal(t, "DEBUG", settings.Logging.Level)
	})

	t.Run("validated after overrides", func(t *testing.T) {
		_, err := loadSettings(NewConfig(path, false, func(c *config.Config) { c.Ruler.URL = "" }))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "ruler.url")
	})

	t.Run("no file and no url", func(t *testing.T) {
		_, err := loadSettings(NewConfig("", false))
		require.Error(t, err)
	})

	t.Run("flag supplies url", func(t *testing.T) {
		settings, err := loadSettings(NewConfig("", false, func(c *config.Config) { c.Ruler.URL = "https://ruler" }))
		require.NoError(t, err)
		assert.Equal(t, "https://ruler", settings.Ruler.URL)
	})
}
