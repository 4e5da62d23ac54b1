package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken     string        `envconfig:"BOT_TOKEN" required:"true"`
	DatabaseURL  string        `envconfig:"DATABASE_URL" required:"true"`
	HTTPAddr     string        `envconfig:"HTTP_ADDR" default:":8080"`
	DefaultTZ    string        `envconfig:"DEFAULT_TZ" default:"UTC"`
	TickInterval time.Duration `envconfig:"TICK_INTERVAL" default:"1m"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
