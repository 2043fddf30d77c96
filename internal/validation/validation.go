package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxEventIDLength         = 20
	MaxTitleLength           = 50
	MaxParticipantNameLength = 20
	MaxNgDates               = 365

	DateLayout = "2006-01-02"
)

var (
	ErrInvalidEventID   = errors.New("invalid event id")
	ErrInvalidUserID    = errors.New("invalid user id")
	ErrTitleTooLong     = fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	ErrNameTooLong      = fmt.Errorf("name must be at most %d characters", MaxParticipantNameLength)
	ErrDatesMissing     = errors.New("date list is missing")
	ErrTooManyDates     = fmt.Errorf("at most %d dates can be selected", MaxNgDates)
	ErrInvalidDate      = errors.New("invalid date format")
	ErrDuplicateDate    = errors.New("duplicate date")
	ErrInvalidDateRange = errors.New("end date precedes start date")
)

var (
	uuidV4Regexp  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)
	dateRegexp    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	eventIDRegexp = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// Error describes a rejected input field.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func IsValidationError(err error) bool {
	var vErr *Error
	return errors.As(err, &vErr)
}

func fail(field string, err error) error {
	return &Error{Field: field, Err: err}
}

func EventID(id string) error {
	if id == "" || len(id) > MaxEventIDLength || !eventIDRegexp.MatchString(id) {
		return fail("eventId", ErrInvalidEventID)
	}
	return nil
}

func UserID(id string) error {
	if !uuidV4Regexp.MatchString(id) {
		return fail("userId", ErrInvalidUserID)
	}
	return nil
}

// EventTitle returns the trimmed title. Empty or blank input means "no title".
func EventTitle(title string) (string, error) {
	return optionalText("title", title, MaxTitleLength, ErrTitleTooLong)
}

// ParticipantName returns the trimmed name. Empty or blank input means anonymous.
func ParticipantName(name string) (string, error) {
	return optionalText("name", name, MaxParticipantNameLength, ErrNameTooLong)
}

func optionalText(field, value string, limit int, tooLong error) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	if utf8.RuneCountInString(trimmed) > limit {
		return "", fail(field, tooLong)
	}
	return trimmed, nil
}

// NgDates checks a participant's NG date list. A nil slice is treated as a missing list.
func NgDates(dates []string) error {
	if dates == nil {
		return fail("ng_dates", ErrDatesMissing)
	}
	if len(dates) > MaxNgDates {
		return fail("ng_dates", ErrTooManyDates)
	}
	for _, date := range dates {
		if !IsValidDate(date) {
			return fail("ng_dates", fmt.Errorf("%w: %q", ErrInvalidDate, date))
		}
	}
	seen := make(map[string]struct{}, len(dates))
	for _, date := range dates {
		if _, ok := seen[date]; ok {
			return fail("ng_dates", fmt.Errorf("%w: %s", ErrDuplicateDate, date))
		}
		seen[date] = struct{}{}
	}
	return nil
}

// EventDateRange checks an optional response window. Either bound may be empty.
func EventDateRange(start, end string) error {
	if start != "" && !IsValidDate(start) {
		return fail("startDate", fmt.Errorf("%w: %q", ErrInvalidDate, start))
	}
	if end != "" && !IsValidDate(end) {
		return fail("endDate", fmt.Errorf("%w: %q", ErrInvalidDate, end))
	}
	// YYYY-MM-DD compares lexically in calendar order.
	if start != "" && end != "" && end < start {
		return fail("endDate", ErrInvalidDateRange)
	}
	return nil
}

// IsValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func IsValidDate(s string) bool {
	if !dateRegexp.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
