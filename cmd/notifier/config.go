package main

import (
	"github.com/lomoval/murinahi/internal/config"
	"github.com/lomoval/murinahi/internal/logger"
	"github.com/lomoval/murinahi/internal/notify/rabbit"
)

type Config struct {
	Logger logger.Config
	Rabbit rabbit.Config
}

func NewConfig(configFile, envFile string) (Config, error) {
	c := Config{}
	err := config.Load(configFile, envFile, map[string]interface{}{
		"rabbit.host":     "127.0.0.1",
		"rabbit.port":     "5672",
		"rabbit.user":     "user",
		"rabbit.password": "pass",
		"rabbit.queue":    "murinahi.changes",
		"logger.level":    "WARN",
	}, &c)
	return c, err
}
