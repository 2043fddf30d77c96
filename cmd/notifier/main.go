package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/lomoval/murinahi/internal/logger"
	"github.com/lomoval/murinahi/internal/notify"
	"github.com/lomoval/murinahi/internal/notify/rabbit"
	log "github.com/sirupsen/logrus"
)

var (
	configFile string
	envFile    string
)

func init() {
	flag.StringVar(&configFile, "config", "./configs/notifier_config.yaml", "Path to configuration file")
	flag.StringVar(&envFile, "env", ".env", "Path to optional env file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	config, err := NewConfig(configFile, envFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("failed to connect to rabbit: %v", err)
		return
	}
	defer r.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	log.Info("notifier is running...")
	err = r.Consume(ctx,
		func(m notify.Message) {
			log.WithField("kind", m.Kind).WithField("eventId", m.EventID).
				WithField("participantId", m.ParticipantID).WithField("at", m.At).
				Info("event changed")
		},
		func(err error) {
			log.Errorf("failed to parse message: %v", err)
		},
	)
	if err != nil {
		log.Errorf("failed to consume: %v", err)
	}
}
