package config

import "time"

// TestConfig returns a config suitable for tests: in-memory paths, short
// timeouts and no logging.
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Database = DatabaseConfig{
		Path:    ":memory:",
		Timeout: 1 * time.Second,
	}
	cfg.Source.HTTPTimeout = 2 * time.Second
	cfg.Source.UserAgent = "kiosk-test/1.0"
	cfg.Browse.FlashDuration = 10 * time.Millisecond
	cfg.Ingest.SourcesFile = ""
	cfg.Log = LogConfig{Level: "off"}
	return cfg
}
