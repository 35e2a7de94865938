package app

import (
	"github.com/uorlab/primeseek/internal/config"
)

// Config contains the runtime options the orchestrator needs beyond the
// loaded configuration file.
type Config struct {
	// App is the parsed configuration file.
	App *config.Config

	// DisableStore runs sessions without persistence (used by tests and
	// dry runs).
	DisableStore bool
}

// DefaultConfig returns a Config populated with the shipped defaults.
func DefaultConfig() *Config {
	return &Config{App: config.Default()}
}
