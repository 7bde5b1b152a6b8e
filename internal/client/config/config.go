package config

import "time"

// Config holds runtime settings for gatectl.
//
// Fields:
//   - ServerEndpointAddr: host:port of the gateway gRPC endpoint.
//   - RequestTimeout: deadline applied to every command.
//   - SessionFile: SQLite file keeping the token pair between invocations.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	SessionFile        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 30 * time.Second
	c.SessionFile = "gatectl.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
