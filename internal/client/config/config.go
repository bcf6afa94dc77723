package config

import "time"

// Config is the CLI's runtime configuration.
type Config struct {
	// ServerEndpointAddr is the API base URL, e.g. "http://127.0.0.1:8080".
	ServerEndpointAddr string
	// OnlineCheckInterval is how often /healthz is probed; zero turns the
	// probe off.
	OnlineCheckInterval time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig applies defaults, then the JSON file, then flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
