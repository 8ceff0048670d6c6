package config

import "time"

const (
	DefaultPort             = 4000
	DefaultModel            = "gpt-4o-mini"
	DefaultMaxTokens        = 2000
	DefaultTemperature      = 0.2
	DefaultEdgarRateLimit   = 10
	DefaultMaxDocumentChars = 200000
	DefaultUserAgent        = "cft-genai admin@example.com"
)

// ApplyDefaults fills zero values. Temperature is only defaulted when unset,
// so an explicit 0 cannot be expressed; use a tiny value instead.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 32
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		// one completion can take well over a minute
		cfg.Server.WriteTimeout = 180 * time.Second
	}
	if cfg.Server.RateLimit.RPS <= 0 {
		cfg.Server.RateLimit.RPS = 1
	}
	if cfg.Server.RateLimit.Burst <= 0 {
		cfg.Server.RateLimit.Burst = 5
	}

	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = DefaultModel
	}
	if cfg.OpenAI.MaxTokens <= 0 {
		cfg.OpenAI.MaxTokens = DefaultMaxTokens
	}
	if cfg.OpenAI.Temperature == 0 {
		cfg.OpenAI.Temperature = DefaultTemperature
	}

	if cfg.Edgar.UserAgent == "" {
		cfg.Edgar.UserAgent = DefaultUserAgent
	}
	if cfg.Edgar.RateLimit <= 0 {
		cfg.Edgar.RateLimit = DefaultEdgarRateLimit
	}
	if cfg.Edgar.MaxDocumentChars == 0 {
		cfg.Edgar.MaxDocumentChars = DefaultMaxDocumentChars
	}
	if cfg.Edgar.Timeout == 0 {
		cfg.Edgar.Timeout = 30 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "none"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Port == 0 {
		switch cfg.Database.Driver {
		case "mysql":
			cfg.Database.Port = 3306
		case "postgres":
			cfg.Database.Port = 5432
		}
	}
}
