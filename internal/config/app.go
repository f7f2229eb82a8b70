package config

import "github.com/caarlos0/env/v11"

// AppConfig is everything cmd/game-server reads from the environment. Both
// sections are parsed in one pass and validated together.
type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Log.Validate(); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Server.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
