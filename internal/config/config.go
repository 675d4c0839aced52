package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration. Values come from an optional YAML file
// with environment variables taking precedence, so a bare deployment needs
// no file at all.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Game struct {
		RoundSeconds int `yaml:"roundSeconds"`
		GraceSeconds int `yaml:"graceSeconds"`
	} `yaml:"game"`
}

// Load reads YAML config from path (skipped when path is empty or missing),
// then applies environment overrides and defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	cfg.Server.Port = overrideOrDefault(cfg.Server.Port, "PORT", "8080")
	cfg.Redis.Addr = overrideOrDefault(cfg.Redis.Addr, "REDIS_ADDR", "")
	cfg.Redis.Password = overrideOrDefault(cfg.Redis.Password, "REDIS_PASSWORD", "")
	cfg.Mongo.URI = overrideOrDefault(cfg.Mongo.URI, "MONGO_URI", "")
	cfg.Mongo.Database = overrideOrDefault(cfg.Mongo.Database, "MONGO_DATABASE", "quizstorm")
	if cfg.Game.RoundSeconds <= 0 {
		cfg.Game.RoundSeconds = 30
	}
	if cfg.Game.GraceSeconds <= 0 {
		cfg.Game.GraceSeconds = 3
	}
	return cfg, nil
}

// RoundDuration is how long a question accepts answers before the reveal
// timer fires.
func (c Config) RoundDuration() time.Duration {
	return time.Duration(c.Game.RoundSeconds) * time.Second
}

// RevealGrace is the window after a reveal before answer records are cleared.
func (c Config) RevealGrace() time.Duration {
	return time.Duration(c.Game.GraceSeconds) * time.Second
}

func overrideOrDefault(current, envKey, fallback string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if current != "" {
		return current
	}
	return fallback
}
