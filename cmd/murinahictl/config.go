package main

import (
	"github.com/lomoval/murinahi/internal/app"
	"github.com/lomoval/murinahi/internal/config"
	"github.com/lomoval/murinahi/internal/logger"
	"github.com/lomoval/murinahi/internal/storagebuilder"
)

type Config struct {
	Logger  logger.Config
	Storage storagebuilder.Config
	Engine  app.Config
}

func NewConfig(configFile, envFile string) (Config, error) {
	c := Config{}
	err := config.Load(configFile, envFile, map[string]interface{}{
		"logger.level":        "ERROR",
		"storage.storageType": "redis",
		"storage.redis.host":  "127.0.0.1",
		"storage.redis.port":  "6379",
		"engine.attempts":     app.DefaultAttempts,
		"engine.backoff":      app.DefaultBackoff,
		"engine.ttl":          app.DefaultTTL,
	}, &c)
	return c, err
}
