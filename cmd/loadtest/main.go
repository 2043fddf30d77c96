// Command loadtest writes many participants into one event concurrently over gRPC
// and reports how many of them were kept by the store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lomoval/murinahi/internal/parallel"
	internalgrpc "github.com/lomoval/murinahi/internal/server/grpc"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	addr         string
	participants int
	workers      int
	timeout      time.Duration
)

func init() {
	flag.StringVar(&addr, "addr", "127.0.0.1:8006", "gRPC address of the service")
	flag.IntVar(&participants, "participants", 100, "Number of participants to write")
	flag.IntVar(&workers, "workers", 10, "Number of concurrent writers")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "Timeout of a single call")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func run() error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	defer conn.Close()
	client := internalgrpc.NewClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	created, err := client.CreateEvent(ctx, &internalgrpc.CreateEventRequest{Title: "load test"})
	cancel()
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	eventID := created.ID

	var failed int32
	tasks := make([]parallel.Task, 0, participants)
	for i := 0; i < participants; i++ {
		participantID := uuid.NewString()
		tasks = append(tasks, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			_, err := client.UpdateParticipant(ctx, &internalgrpc.UpdateParticipantRequest{
				EventID:       eventID,
				ParticipantID: participantID,
				NgDates:       []string{},
			})
			if err != nil {
				atomic.AddInt32(&failed, 1)
				log.Warnf("update of %s failed: %v", participantID, err)
			}
			return err
		})
	}

	start := time.Now()
	if err := parallel.Run(tasks, workers, 0); err != nil {
		return fmt.Errorf("failed to run writers: %w", err)
	}
	elapsed := time.Since(start)

	ctx, cancel = context.WithTimeout(context.Background(), timeout)
	defer cancel()
	got, err := client.GetEvent(ctx, &internalgrpc.GetEventRequest{ID: eventID})
	if err != nil {
		return fmt.Errorf("failed to read event: %w", err)
	}

	stored := got.Event.Participants.Len()
	acknowledged := participants - int(atomic.LoadInt32(&failed))
	log.WithFields(log.Fields{
		"event":        eventID,
		"sent":         participants,
		"acknowledged": acknowledged,
		"stored":       stored,
		"lost":         acknowledged - stored,
		"elapsed":      elapsed,
	}).Info("load test finished")
	return nil
}
