package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lomoval/murinahi/internal/event"
	"github.com/lomoval/murinahi/internal/storage"
)

const KeyPrefix = "event:"

var ErrCorruptedRecord = errors.New("stored event is corrupted")

// StoreError reports a failed call to the backing store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func Key(id string) string {
	return KeyPrefix + id
}

// Events reads and writes whole event documents, one value per event id.
type Events struct {
	store storage.Store
	ttl   time.Duration
}

func New(store storage.Store, ttl time.Duration) *Events {
	return &Events{store: store, ttl: ttl}
}

func (r *Events) TTL() time.Duration {
	return r.ttl
}

// Get returns nil without error when the event is absent or expired.
func (r *Events) Get(ctx context.Context, id string) (*event.Event, error) {
	raw, err := r.store.Get(ctx, Key(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "get", Err: err}
	}

	var e event.Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptedRecord, id, err)
	}
	return &e, nil
}

// Put writes the whole document and re-arms its expiry.
func (r *Events) Put(ctx context.Context, e *event.Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", e.ID, err)
	}
	if err := r.store.SetWithExpiry(ctx, Key(e.ID), r.ttl, raw); err != nil {
		return &StoreError{Op: "set", Err: err}
	}
	return nil
}
