package app

import (
	"github.com/open-metrics-mt-kit/ruler-informer/internal/config"
)

// Override adjusts the loaded configuration before it is validated.
// Command line flags are applied this way.
type Override func(*config.Config)

// Config holds the application configuration
type Config struct {
	// Debug forces the debug log level
	Debug bool

	// ConfigPath is the YAML configuration file. Empty means defaults only.
	ConfigPath string

	// Overrides are applied in order after the file has been loaded
	Overrides []Override

	// Settings is the validated configuration, filled in by NewApplication
	Settings *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(configPath string, debug bool, overrides ...Override) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
		Overrides:  overrides,
	}
}
