package app

import (
	"errors"
	"fmt"

	"github.com/lomoval/murinahi/internal/records"
	"github.com/lomoval/murinahi/internal/validation"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrIDUnavailable = errors.New("no free event id")
)

// RetriesExhaustedError is returned when every update attempt failed on the store.
type RetriesExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}

type ErrorKind int

const (
	KindOK ErrorKind = iota
	KindInvalid
	KindNotFound
	KindUnavailable
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// KindOf classifies an error returned by App for transports and metrics.
func KindOf(err error) ErrorKind {
	var (
		exhausted *RetriesExhaustedError
		storeErr  *records.StoreError
	)
	switch {
	case err == nil:
		return KindOK
	case validation.IsValidationError(err):
		return KindInvalid
	case errors.Is(err, ErrEventNotFound):
		return KindNotFound
	case errors.As(err, &exhausted), errors.As(err, &storeErr):
		return KindUnavailable
	default:
		return KindInternal
	}
}
