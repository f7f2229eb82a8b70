package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	// PostgresDSN selects the Postgres session store; empty keeps sessions in memory.
	PostgresDSN string `env:"POSTGRES_DSN"`

	TurnTimeout time.Duration `env:"TURN_TIMEOUT" envDefault:"0s"`
	AIStepDelay time.Duration `env:"AI_STEP_DELAY" envDefault:"0s"`
	MaxSessions int           `env:"MAX_SESSIONS" envDefault:"1000"`
	EventBuffer int           `env:"EVENT_BUFFER" envDefault:"500"`

	NotifyWebhookURL string        `env:"NOTIFY_WEBHOOK_URL"`
	NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
	NotifyRetryMax   int           `env:"NOTIFY_RETRY_MAX" envDefault:"3"`
	NotifyRetryBase  time.Duration `env:"NOTIFY_RETRY_BASE" envDefault:"1s"`
	NotifyQueueSize  int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`
}

func (c ServerConfig) Validate() error {
	switch {
	case c.TurnTimeout < 0:
		return fmt.Errorf("TURN_TIMEOUT must be >= 0, got %s", c.TurnTimeout)
	case c.AIStepDelay < 0:
		return fmt.Errorf("AI_STEP_DELAY must be >= 0, got %s", c.AIStepDelay)
	case c.MaxSessions <= 0:
		return fmt.Errorf("MAX_SESSIONS must be > 0, got %d", c.MaxSessions)
	case c.EventBuffer <= 0:
		return fmt.Errorf("EVENT_BUFFER must be > 0, got %d", c.EventBuffer)
	case c.NotifyRetryMax < 0:
		return fmt.Errorf("NOTIFY_RETRY_MAX must be >= 0, got %d", c.NotifyRetryMax)
	}
	return nil
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, cfg.Validate()
}
