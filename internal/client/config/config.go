package config

import "time"

// Config holds runtime settings for the groupchat CLI.
type Config struct {
	ServerEndpointAddr string        `env:"GROUPCHAT_SERVER_ADDR"`
	RequestTimeout     time.Duration `env:"GROUPCHAT_REQUEST_TIMEOUT"`
}

// LoadDefaults populates c with local development defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 5 * time.Second
}

// LoadConfig applies defaults, the environment, an optional JSON file and
// command-line flags. Later sources take precedence.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg, nil); err != nil {
		return nil, err
	}
	parseJson(cfg)
	parseFlags(cfg)
	return cfg, nil
}
