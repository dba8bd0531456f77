package config

import (
	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
type Config struct {
	// Processing
	Workers   int `env:"PAYMENT_ENGINE_WORKERS"    envDefault:"0"`
	QueueSize int `env:"PAYMENT_ENGINE_QUEUE_SIZE" envDefault:"1024"`

	// Input handling
	ReadBuffer int  `env:"PAYMENT_ENGINE_READ_BUFFER" envDefault:"1048576"`
	Strict     bool `env:"PAYMENT_ENGINE_STRICT"      envDefault:"false"`

	// Logging
	LogLevel  string `env:"PAYMENT_ENGINE_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"PAYMENT_ENGINE_LOG_FORMAT" envDefault:"json"`

	// Operational endpoint (optional - leave empty to disable)
	OpsAddr string `env:"PAYMENT_ENGINE_OPS_ADDR" envDefault:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
