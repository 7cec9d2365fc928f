package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays GROUPCHAT_* variables onto config. Unset variables keep
// the current value. A nil environ reads the process environment.
func parseEnv(config *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(config, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
