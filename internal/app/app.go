package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/lomoval/murinahi/internal/event"
	"github.com/lomoval/murinahi/internal/icalexport"
	"github.com/lomoval/murinahi/internal/notify"
	"github.com/lomoval/murinahi/internal/records"
	"github.com/lomoval/murinahi/internal/storage"
	"github.com/lomoval/murinahi/internal/validation"
	log "github.com/sirupsen/logrus"
)

const (
	OpCreate  = "create"
	OpGet     = "get"
	OpUpdate  = "update"
	OpSummary = "summary"
	OpICal    = "ical"
)

const (
	DefaultAttempts = 3
	DefaultBackoff  = 50 * time.Millisecond
	DefaultTTL      = 30 * 24 * time.Hour

	idLength      = 6
	idAlphabet    = "0123456789abcdefghijklmnopqrstuvwxyz"
	idGenerations = 5
)

type Config struct {
	// Attempts is the number of read-modify-write rounds of a participant update.
	Attempts int
	// Backoff is the fixed pause between rounds.
	Backoff time.Duration
	// TTL is re-armed on every write.
	TTL time.Duration
}

func DefaultConfig() Config {
	return Config{Attempts: DefaultAttempts, Backoff: DefaultBackoff, TTL: DefaultTTL}
}

// Recorder receives operation outcomes.
type Recorder interface {
	ObserveOperation(op string, kind ErrorKind, duration time.Duration)
	ObserveRetry(op string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveOperation(string, ErrorKind, time.Duration) {}
func (noopRecorder) ObserveRetry(string)                              {}

type App struct {
	events    *records.Events
	config    Config
	recorder  Recorder
	publisher notify.Publisher
	now       func() time.Time
	newID     func() string
}

type Option func(*App)

// WithConfig overrides the defaults with the non-zero fields of config.
func WithConfig(config Config) Option {
	return func(a *App) {
		if config.Attempts > 0 {
			a.config.Attempts = config.Attempts
		}
		if config.Backoff > 0 {
			a.config.Backoff = config.Backoff
		}
		if config.TTL > 0 {
			a.config.TTL = config.TTL
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(a *App) { a.recorder = r }
}

func WithPublisher(p notify.Publisher) Option {
	return func(a *App) { a.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(a *App) { a.newID = gen }
}

func New(store storage.Store, opts ...Option) *App {
	a := &App{
		config:    DefaultConfig(),
		recorder:  noopRecorder{},
		publisher: notify.Noop{},
		now:       time.Now,
		newID:     NewEventID,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.events = records.New(store, a.config.TTL)
	return a
}

// NewEventID returns 6 random characters of [0-9a-z].
func NewEventID() string {
	b := make([]byte, idLength)
	for i := range b {
		b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return string(b)
}

type CreateEventParams struct {
	Title     string
	StartDate string
	EndDate   string
}

func (a *App) CreateEvent(ctx context.Context, params CreateEventParams) (string, error) {
	start := time.Now()
	id, err := a.createEvent(ctx, params)
	a.recorder.ObserveOperation(OpCreate, KindOf(err), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("creation error: %w", err)
	}
	a.publish(ctx, notify.Message{Kind: notify.KindEventCreated, EventID: id})
	return id, nil
}

func (a *App) createEvent(ctx context.Context, params CreateEventParams) (string, error) {
	title, err := validation.EventTitle(params.Title)
	if err != nil {
		return "", err
	}
	if err := validation.EventDateRange(params.StartDate, params.EndDate); err != nil {
		return "", err
	}

	id, err := a.allocateID(ctx)
	if err != nil {
		return "", err
	}
	e := &event.Event{
		ID:        id,
		Title:     title,
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		CreatedAt: a.now().UTC().Truncate(time.Millisecond),
	}
	if err := a.events.Put(ctx, e); err != nil {
		return "", err
	}
	log.WithField("eventId", id).Debug("event created")
	return id, nil
}

// allocateID looks for an id not used by a live event. The check and the following write
// are not atomic, so two creations may still pick the same id.
func (a *App) allocateID(ctx context.Context) (string, error) {
	for i := 0; i < idGenerations; i++ {
		id := a.newID()
		existing, err := a.events.Get(ctx, id)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return id, nil
		}
		log.WithField("eventId", id).Warn("generated event id is taken")
	}
	return "", ErrIDUnavailable
}

// GetEvent returns nil without error when the event is absent or expired.
func (a *App) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	start := time.Now()
	e, err := a.getEvent(ctx, id)
	kind := KindOf(err)
	if err == nil && e == nil {
		kind = KindNotFound
	}
	a.recorder.ObserveOperation(OpGet, kind, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("retrieval error: %w", err)
	}
	return e, nil
}

func (a *App) getEvent(ctx context.Context, id string) (*event.Event, error) {
	if err := validation.EventID(id); err != nil {
		return nil, err
	}
	return a.events.Get(ctx, id)
}

func (a *App) Summary(ctx context.Context, id string) (*event.Summary, error) {
	start := time.Now()
	s, err := a.summary(ctx, id)
	a.recorder.ObserveOperation(OpSummary, KindOf(err), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("retrieval error: %w", err)
	}
	return s, nil
}

func (a *App) summary(ctx context.Context, id string) (*event.Summary, error) {
	e, err := a.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEventNotFound
	}
	return event.Summarize(e)
}

// ExportICal renders the available dates of an event as iCalendar data.
func (a *App) ExportICal(ctx context.Context, id string) ([]byte, error) {
	start := time.Now()
	data, err := a.exportICal(ctx, id)
	a.recorder.ObserveOperation(OpICal, KindOf(err), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("retrieval error: %w", err)
	}
	return data, nil
}

func (a *App) exportICal(ctx context.Context, id string) ([]byte, error) {
	s, err := a.summary(ctx, id)
	if err != nil {
		return nil, err
	}
	return icalexport.Encode(s, a.now())
}

func (a *App) publish(ctx context.Context, msg notify.Message) {
	msg.At = a.now().UTC()
	if err := a.publisher.Publish(ctx, msg); err != nil {
		log.WithFields(log.Fields{
			"eventId": msg.EventID,
			"kind":    msg.Kind,
		}).Errorf("failed to publish change: %v", err)
	}
}
