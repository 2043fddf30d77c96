package main

import (
	"time"

	"github.com/lomoval/murinahi/internal/app"
	"github.com/lomoval/murinahi/internal/config"
	"github.com/lomoval/murinahi/internal/logger"
	"github.com/lomoval/murinahi/internal/notify/rabbit"
	internalgrpc "github.com/lomoval/murinahi/internal/server/grpc"
	internalhttp "github.com/lomoval/murinahi/internal/server/http"
	"github.com/lomoval/murinahi/internal/storagebuilder"
)

type NotifierConfig struct {
	Enabled bool
	Rabbit  rabbit.Config
}

type SweeperConfig struct {
	Interval time.Duration
}

type Config struct {
	HTTPServer internalhttp.Config
	GrpcServer internalgrpc.Config
	Logger     logger.Config
	Storage    storagebuilder.Config
	Engine     app.Config
	Notifier   NotifierConfig
	Sweeper    SweeperConfig
}

func NewConfig(configFile, envFile string) (Config, error) {
	c := Config{}
	err := config.Load(configFile, envFile, map[string]interface{}{
		"httpServer.host":          "127.0.0.1",
		"httpServer.port":          "8005",
		"grpcServer.host":          "127.0.0.1",
		"grpcServer.port":          "8006",
		"logger.level":             "WARN",
		"logger.format":            "text",
		"storage.storageType":      "memory",
		"storage.redis.host":       "127.0.0.1",
		"storage.redis.port":       "6379",
		"storage.database.driver":  "postgres",
		"storage.database.port":    "5432",
		"storage.mongo.database":   "murinahi",
		"storage.mongo.collection": "records",
		"storage.s3.region":        "us-east-1",
		"engine.attempts":          app.DefaultAttempts,
		"engine.backoff":           app.DefaultBackoff,
		"engine.ttl":               app.DefaultTTL,
		"notifier.enabled":         false,
		"notifier.rabbit.host":     "127.0.0.1",
		"notifier.rabbit.port":     "5672",
		"notifier.rabbit.user":     "user",
		"notifier.rabbit.password": "pass",
		"notifier.rabbit.queue":    "murinahi.changes",
		"sweeper.interval":         "5m",
	}, &c)
	return c, err
}
