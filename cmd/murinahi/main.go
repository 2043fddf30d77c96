package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lomoval/murinahi/internal/app"
	"github.com/lomoval/murinahi/internal/logger"
	"github.com/lomoval/murinahi/internal/metrics"
	"github.com/lomoval/murinahi/internal/notify"
	"github.com/lomoval/murinahi/internal/notify/rabbit"
	internalgrpc "github.com/lomoval/murinahi/internal/server/grpc"
	internalhttp "github.com/lomoval/murinahi/internal/server/http"
	"github.com/lomoval/murinahi/internal/storage"
	"github.com/lomoval/murinahi/internal/storagebuilder"
	"github.com/lomoval/murinahi/internal/sweeper"
	log "github.com/sirupsen/logrus"
)

var (
	configFile string
	envFile    string
)

func init() {
	flag.StringVar(&configFile, "config", "./configs/config.yaml", "Path to configuration file")
	flag.StringVar(&envFile, "env", ".env", "Path to optional env file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	if flag.Arg(0) == "version" {
		printVersion()
		return
	}

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
	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		if err := stor.Close(ctx); err != nil {
			log.Errorf("failed to close storage: %v", err)
		}
	}()

	var publisher notify.Publisher = notify.Noop{}
	if config.Notifier.Enabled {
		r := rabbit.New(config.Notifier.Rabbit)
		if err := r.Connect(); err != nil {
			log.Errorf("failed to connect to rabbit, changes will not be published: %v", err)
		} else {
			defer r.Close()
			publisher = r
		}
	}

	recorder := metrics.New()
	events := app.New(stor,
		app.WithConfig(config.Engine),
		app.WithRecorder(recorder),
		app.WithPublisher(publisher),
	)

	httpServer := internalhttp.NewServer(config.HTTPServer, events, recorder.Handler())
	grpcServer := internalgrpc.NewServer(config.GrpcServer, events)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	if target, ok := stor.(storage.Sweeper); ok && config.Sweeper.Interval > 0 {
		go sweeper.New(target, config.Sweeper.Interval).Run(ctx)
	}

	go func() {
		if err := grpcServer.Start(ctx); err != nil {
			log.Errorf("failed to start grpc server: %v", err)
			cancel()
		}
	}()

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		if err := httpServer.Stop(ctx); err != nil {
			log.Error("failed to stop http server: " + err.Error())
		}
		if err := grpcServer.Stop(ctx); err != nil {
			log.Error("failed to stop grpc server: " + err.Error())
		}
	}()

	log.Info("murinahi is running...")

	if err := httpServer.Start(ctx); err != nil {
		log.Error("failed to start http server: " + err.Error())
		cancel()
	}
}
