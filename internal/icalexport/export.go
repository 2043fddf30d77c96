package icalexport

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/lomoval/murinahi/internal/event"
	"github.com/lomoval/murinahi/internal/validation"
)

const (
	productID    = "-//murinahi//NG dates//EN"
	defaultTitle = "Available date"
)

// Encode renders every available date of the summary as an all-day event.
func Encode(s *event.Summary, stamp time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	title := s.Title
	if title == "" {
		title = defaultTitle
	}
	for _, date := range s.AvailableDates {
		day, err := time.Parse(validation.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("incorrect date %q: %w", date, err)
		}
		ve := ical.NewComponent(ical.CompEvent)
		ve.Props.SetText(ical.PropUID, fmt.Sprintf("%s-%s@murinahi", s.EventID, date))
		ve.Props.SetText(ical.PropSummary, title)
		ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		ve.Props.SetDate(ical.PropDateTimeStart, day)
		ve.Props.SetDate(ical.PropDateTimeEnd, day.AddDate(0, 0, 1))
		cal.Children = append(cal.Children, ve)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}
