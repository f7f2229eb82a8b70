package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SampleEvery int    `env:"LOG_SAMPLE_EVERY" envDefault:"0"`
	File        string `env:"LOG_FILE"`
	MaxMB       int    `env:"LOG_MAX_MB" envDefault:"10"`
	// Service is stamped on every record as "service" when set.
	Service string `env:"LOG_SERVICE"`
}

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true,
	"error": true, "fatal": true, "panic": true, "disabled": true,
}

func (c LogConfig) Validate() error {
	if lvl := strings.ToLower(strings.TrimSpace(c.Level)); lvl != "" && !logLevels[lvl] {
		return fmt.Errorf("LOG_LEVEL %q is not a log level", c.Level)
	}
	if c.SampleEvery < 0 {
		return fmt.Errorf("LOG_SAMPLE_EVERY must be >= 0, got %d", c.SampleEvery)
	}
	if c.File != "" && c.MaxMB <= 0 {
		return fmt.Errorf("LOG_MAX_MB must be > 0 with LOG_FILE, got %d", c.MaxMB)
	}
	return nil
}

func LoadLog() (LogConfig, error) {
	var cfg LogConfig
	if err := env.Parse(&cfg); err != nil {
		return LogConfig{}, err
	}
	return cfg, cfg.Validate()
}
