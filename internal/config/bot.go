package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	WSURL      string `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	PlayerID   string `env:"PLAYER_ID" envDefault:"bot"`
	PlayerName string `env:"PLAYER_NAME" envDefault:"Burn Bot"`
	SessionID  string `env:"SESSION_ID"`
	Tier       string `env:"TIER" envDefault:"normal"`
	Seed       int64  `env:"BOT_SEED" envDefault:"0"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}

type SimConfig struct {
	Games   int      `env:"SIM_GAMES" envDefault:"1000"`
	Players int      `env:"SIM_PLAYERS" envDefault:"3"`
	Seed    int64    `env:"SIM_SEED" envDefault:"1"`
	Tiers   []string `env:"SIM_TIERS" envSeparator:"," envDefault:"easy,normal,hard"`
}

func LoadSim() (SimConfig, error) {
	var cfg SimConfig
	err := env.Parse(&cfg)
	return cfg, err
}
