package notify

import (
	"context"
	"time"
)

type Kind string

const (
	KindEventCreated       Kind = "event.created"
	KindParticipantUpdated Kind = "participant.updated"
)

// Message describes a successful change of an event document.
type Message struct {
	Kind          Kind      `json:"kind"`
	EventID       string    `json:"eventId"`
	ParticipantID string    `json:"participantId,omitempty"`
	At            time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

type Noop struct{}

func (Noop) Publish(context.Context, Message) error {
	return nil
}
