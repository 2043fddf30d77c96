package app

import (
	"context"
	"fmt"
	"time"

	"github.com/lomoval/murinahi/internal/event"
	"github.com/lomoval/murinahi/internal/notify"
	"github.com/lomoval/murinahi/internal/validation"
	log "github.com/sirupsen/logrus"
)

type UpdateParticipantParams struct {
	EventID       string
	ParticipantID string
	NgDates       []string
	Name          string
	// InputCompleted defaults to false when nil.
	InputCompleted *bool
}

type UpdateResult struct {
	Success bool `json:"success"`
}

// UpdateParticipant replaces the record of one participant inside the event document.
//
// The document is read, changed and written back as a whole. A failed read or write is
// retried after a fixed pause up to the configured number of attempts. A missing event ends
// the update at once. Nothing guards against another writer storing the same document
// between the read and the write of a round, so a concurrent update of another participant
// can be lost.
func (a *App) UpdateParticipant(ctx context.Context, params UpdateParticipantParams) (UpdateResult, error) {
	start := time.Now()
	err := a.updateParticipant(ctx, params)
	a.recorder.ObserveOperation(OpUpdate, KindOf(err), time.Since(start))
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update error: %w", err)
	}
	a.publish(ctx, notify.Message{
		Kind:          notify.KindParticipantUpdated,
		EventID:       params.EventID,
		ParticipantID: params.ParticipantID,
	})
	return UpdateResult{Success: true}, nil
}

func (a *App) updateParticipant(ctx context.Context, params UpdateParticipantParams) error {
	if err := validation.EventID(params.EventID); err != nil {
		return err
	}
	if err := validation.UserID(params.ParticipantID); err != nil {
		return err
	}
	if err := validation.NgDates(params.NgDates); err != nil {
		return err
	}
	name, err := validation.ParticipantName(params.Name)
	if err != nil {
		return err
	}

	record := event.Participant{
		NgDates:        append([]string{}, params.NgDates...),
		Name:           name,
		InputCompleted: params.InputCompleted != nil && *params.InputCompleted,
	}
	return a.mutate(ctx, params.EventID, func(e *event.Event) error {
		return e.Participants.Set(params.ParticipantID, record)
	})
}

// mutate runs read-modify-write rounds until one succeeds. Only store failures are retried.
func (a *App) mutate(ctx context.Context, id string, apply func(e *event.Event) error) error {
	logger := log.WithField("eventId", id)

	var lastErr error
	for attempt := 1; attempt <= a.config.Attempts; attempt++ {
		if attempt > 1 {
			a.recorder.ObserveRetry(OpUpdate)
			logger.WithField("attempt", attempt).Warnf("retrying update: %v", lastErr)
			if err := sleep(ctx, a.config.Backoff); err != nil {
				return err
			}
		}

		e, err := a.events.Get(ctx, id)
		if err != nil {
			lastErr = err
			continue
		}
		if e == nil {
			return ErrEventNotFound
		}
		if err := apply(e); err != nil {
			return err
		}
		if err := a.events.Put(ctx, e); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	logger.Errorf("update failed after %d attempts: %v", a.config.Attempts, lastErr)
	return &RetriesExhaustedError{Attempts: a.config.Attempts, Err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
