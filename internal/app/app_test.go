package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lomoval/murinahi/internal/notify"
	"github.com/lomoval/murinahi/internal/records"
	"github.com/lomoval/murinahi/internal/storage"
	memorystorage "github.com/lomoval/murinahi/internal/storage/memory"
	"github.com/lomoval/murinahi/internal/validation"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store is down")

// countingStore wraps the memory store, counts calls and injects failures by call number.
type countingStore struct {
	*memorystorage.Storage

	mu       sync.Mutex
	gets     int
	sets     int
	ttls     []time.Duration
	getErr   func(n int) error
	setErr   func(n int) error
	afterGet func()
}

func newCountingStore() *countingStore {
	return &countingStore{Storage: memorystorage.New()}
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	s.gets++
	n := s.gets
	getErr := s.getErr
	afterGet := s.afterGet
	s.mu.Unlock()

	if getErr != nil {
		if err := getErr(n); err != nil {
			return nil, err
		}
	}
	value, err := s.Storage.Get(ctx, key)
	if afterGet != nil {
		afterGet()
	}
	return value, err
}

func (s *countingStore) SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	s.mu.Lock()
	s.sets++
	n := s.sets
	s.ttls = append(s.ttls, ttl)
	setErr := s.setErr
	s.mu.Unlock()

	if setErr != nil {
		if err := setErr(n); err != nil {
			return err
		}
	}
	return s.Storage.SetWithExpiry(ctx, key, ttl, value)
}

func (s *countingStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets = 0
	s.sets = 0
	s.ttls = nil
}

func (s *countingStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.sets
}

type publisherMock struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (p *publisherMock) Publish(_ context.Context, msg notify.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

const (
	userA = "0b6f8a46-2c53-4b5e-9d1a-5f3c2e1d0a9b"
	userB = "9f1c2d3e-4a5b-4c6d-8e7f-a0b1c2d3e4f5"
)

func boolPtr(v bool) *bool {
	return &v
}

func fastApp(store storage.Store, opts ...Option) *App {
	opts = append([]Option{WithConfig(Config{Backoff: time.Millisecond})}, opts...)
	return New(store, opts...)
}

func TestCreateAndGetEvent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 30, 15, 123456789, time.UTC)

	t.Run("round trip", func(t *testing.T) {
		a := New(memorystorage.New(), WithClock(func() time.Time { return now }))

		id, err := a.CreateEvent(ctx, CreateEventParams{Title: "  Team dinner  ", StartDate: "2024-03-10", EndDate: "2024-03-20"})
		require.NoError(t, err)
		require.NoError(t, validation.EventID(id))
		require.Len(t, id, 6)

		e, err := a.GetEvent(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, e)
		require.Equal(t, id, e.ID)
		require.Equal(t, "Team dinner", e.Title)
		require.Equal(t, "2024-03-10", e.StartDate)
		require.Equal(t, "2024-03-20", e.EndDate)
		require.Equal(t, 0, e.Participants.Len())
		require.Equal(t, now.Truncate(time.Millisecond), e.CreatedAt)
	})

	t.Run("blank title is omitted", func(t *testing.T) {
		a := New(memorystorage.New())
		id, err := a.CreateEvent(ctx, CreateEventParams{Title: "   "})
		require.NoError(t, err)

		e, err := a.GetEvent(ctx, id)
		require.NoError(t, err)
		require.Empty(t, e.Title)
	})

	t.Run("invalid input", func(t *testing.T) {
		store := newCountingStore()
		a := New(store)

		_, err := a.CreateEvent(ctx, CreateEventParams{Title: strings.Repeat("a", 51)})
		require.ErrorIs(t, err, validation.ErrTitleTooLong)
		_, err = a.CreateEvent(ctx, CreateEventParams{StartDate: "2024-03-20", EndDate: "2024-03-10"})
		require.ErrorIs(t, err, validation.ErrInvalidDateRange)
		_, err = a.CreateEvent(ctx, CreateEventParams{StartDate: "2024-02-30"})
		require.ErrorIs(t, err, validation.ErrInvalidDate)
		require.Equal(t, KindInvalid, KindOf(err))

		gets, sets := store.counts()
		require.Zero(t, gets)
		require.Zero(t, sets)
	})

	t.Run("absent event", func(t *testing.T) {
		a := New(memorystorage.New())
		e, err := a.GetEvent(ctx, "nothere")
		require.NoError(t, err)
		require.Nil(t, e)
	})

	t.Run("invalid id", func(t *testing.T) {
		a := New(memorystorage.New())
		_, err := a.GetEvent(ctx, "bad-id!")
		require.ErrorIs(t, err, validation.ErrInvalidEventID)
		require.Contains(t, err.Error(), "retrieval error")
	})

	t.Run("store failure is not retried", func(t *testing.T) {
		store := newCountingStore()
		store.setErr = func(int) error { return errStoreDown }
		a := New(store)

		_, err := a.CreateEvent(ctx, CreateEventParams{Title: "x"})
		require.ErrorIs(t, err, errStoreDown)
		require.Contains(t, err.Error(), "creation error")
		require.Equal(t, KindUnavailable, KindOf(err))
		_, sets := store.counts()
		require.Equal(t, 1, sets)

		store.getErr = func(int) error { return errStoreDown }
		_, err = a.GetEvent(ctx, "abc123")
		require.ErrorIs(t, err, errStoreDown)
		require.Contains(t, err.Error(), "retrieval error")
	})

	t.Run("expired event is absent", func(t *testing.T) {
		clock := now
		store := memorystorage.NewWithClock(func() time.Time { return clock })
		a := New(store)

		id, err := a.CreateEvent(ctx, CreateEventParams{})
		require.NoError(t, err)
		clock = clock.Add(DefaultTTL)

		e, err := a.GetEvent(ctx, id)
		require.NoError(t, err)
		require.Nil(t, e)
	})
}

func TestCreateEventIDCollision(t *testing.T) {
	ctx := context.Background()

	t.Run("taken id is regenerated", func(t *testing.T) {
		store := memorystorage.New()
		ids := []string{"aaaaaa", "aaaaaa", "bbbbbb"}
		a := New(store, WithIDGenerator(func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}))

		first, err := a.CreateEvent(ctx, CreateEventParams{Title: "first"})
		require.NoError(t, err)
		require.Equal(t, "aaaaaa", first)

		second, err := a.CreateEvent(ctx, CreateEventParams{Title: "second"})
		require.NoError(t, err)
		require.Equal(t, "bbbbbb", second)

		e, err := a.GetEvent(ctx, first)
		require.NoError(t, err)
		require.Equal(t, "first", e.Title)
	})

	t.Run("no free id", func(t *testing.T) {
		a := New(memorystorage.New(), WithIDGenerator(func() string { return "cccccc" }))
		_, err := a.CreateEvent(ctx, CreateEventParams{})
		require.NoError(t, err)

		_, err = a.CreateEvent(ctx, CreateEventParams{})
		require.ErrorIs(t, err, ErrIDUnavailable)
	})
}

func TestNewEventID(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id := NewEventID()
		require.Len(t, id, 6)
		require.NoError(t, validation.EventID(id))
		require.Regexp(t, `^[0-9a-z]{6}$`, id)
	}
}

func TestTTLRefresh(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	a := fastApp(store)

	id, err := a.CreateEvent(ctx, CreateEventParams{Title: "ttl"})
	require.NoError(t, err)
	_, err = a.UpdateParticipant(ctx, UpdateParticipantParams{EventID: id, ParticipantID: userA, NgDates: []string{}})
	require.NoError(t, err)

	require.Equal(t, []time.Duration{2592000 * time.Second, 2592000 * time.Second}, store.ttls)
	require.InDelta(t, float64(30*24*time.Hour), float64(store.TTL(records.Key(id))), float64(time.Minute))
}

func TestSummaryAndExport(t *testing.T) {
	ctx := context.Background()
	a := fastApp(memorystorage.New())

	id, err := a.CreateEvent(ctx, CreateEventParams{Title: "Trip", StartDate: "2024-01-10", EndDate: "2024-01-12"})
	require.NoError(t, err)
	_, err = a.UpdateParticipant(ctx, UpdateParticipantParams{
		EventID: id, ParticipantID: userA, NgDates: []string{"2024-01-11"}, InputCompleted: boolPtr(true),
	})
	require.NoError(t, err)
	_, err = a.UpdateParticipant(ctx, UpdateParticipantParams{
		EventID: id, ParticipantID: userB, NgDates: []string{"2024-01-11"}, Name: "Bob",
	})
	require.NoError(t, err)

	s, err := a.Summary(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 2, s.ParticipantCount)
	require.Equal(t, 1, s.CompletedCount)
	require.Equal(t, "anonymous #1", s.Participants[0].DisplayName)
	require.Equal(t, "Bob", s.Participants[1].DisplayName)
	require.Equal(t, []string{"2024-01-10", "2024-01-12"}, s.AvailableDates)

	data, err := a.ExportICal(ctx, id)
	require.NoError(t, err)
	require.Contains(t, string(data), "DTSTART;VALUE=DATE:20240110")
	require.NotContains(t, string(data), "DTSTART;VALUE=DATE:20240111")

	_, err = a.Summary(ctx, "missing")
	require.ErrorIs(t, err, ErrEventNotFound)
	require.Equal(t, KindNotFound, KindOf(err))
	_, err = a.ExportICal(ctx, "missing")
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("changes are published", func(t *testing.T) {
		pub := &publisherMock{}
		a := fastApp(memorystorage.New(), WithPublisher(pub), WithClock(func() time.Time { return now }))

		id, err := a.CreateEvent(ctx, CreateEventParams{})
		require.NoError(t, err)
		_, err = a.UpdateParticipant(ctx, UpdateParticipantParams{EventID: id, ParticipantID: userA, NgDates: []string{}})
		require.NoError(t, err)

		require.Equal(t, []notify.Message{
			{Kind: notify.KindEventCreated, EventID: id, At: now},
			{Kind: notify.KindParticipantUpdated, EventID: id, ParticipantID: userA, At: now},
		}, pub.messages)
	})

	t.Run("publish failure does not fail the write", func(t *testing.T) {
		pub := &publisherMock{err: errors.New("broker down")}
		a := fastApp(memorystorage.New(), WithPublisher(pub))

		id, err := a.CreateEvent(ctx, CreateEventParams{})
		require.NoError(t, err)
		res, err := a.UpdateParticipant(ctx, UpdateParticipantParams{EventID: id, ParticipantID: userA, NgDates: []string{}})
		require.NoError(t, err)
		require.True(t, res.Success)
	})

	t.Run("failed update is not published", func(t *testing.T) {
		pub := &publisherMock{}
		a := fastApp(memorystorage.New(), WithPublisher(pub))

		_, err := a.UpdateParticipant(ctx, UpdateParticipantParams{EventID: "missing", ParticipantID: userA, NgDates: []string{}})
		require.Error(t, err)
		require.Empty(t, pub.messages)
	})
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		kind ErrorKind
	}{
		{err: nil, kind: KindOK},
		{err: &validation.Error{Field: "eventId", Err: validation.ErrInvalidEventID}, kind: KindInvalid},
		{err: ErrEventNotFound, kind: KindNotFound},
		{err: &RetriesExhaustedError{Attempts: 3, Err: errStoreDown}, kind: KindUnavailable},
		{err: &records.StoreError{Op: "get", Err: errStoreDown}, kind: KindUnavailable},
		{err: records.ErrCorruptedRecord, kind: KindInternal},
		{err: context.Canceled, kind: KindInternal},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.kind.String(), func(t *testing.T) {
			require.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}
