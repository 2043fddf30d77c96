package event

import (
	"fmt"
	"sort"
	"time"

	"github.com/lomoval/murinahi/internal/validation"
)

// Listing of available dates stops after this many days of a response window.
const maxWindowDays = 366

type ParticipantView struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"displayName"`
	Anonymous      bool     `json:"anonymous"`
	NgDates        []string `json:"ng_dates"`
	InputCompleted bool     `json:"inputCompleted"`
}

type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Summary struct {
	EventID          string            `json:"eventId"`
	Title            string            `json:"title,omitempty"`
	StartDate        string            `json:"startDate,omitempty"`
	EndDate          string            `json:"endDate,omitempty"`
	ParticipantCount int               `json:"participantCount"`
	CompletedCount   int               `json:"completedCount"`
	Participants     []ParticipantView `json:"participants"`
	NgCounts         []DateCount       `json:"ngCounts"`
	AvailableDates   []string          `json:"availableDates,omitempty"`
}

func AnonymousName(n int) string {
	return fmt.Sprintf("anonymous #%d", n)
}

// Summarize aggregates NG marks of all participants. Anonymous participants are numbered
// in insertion order, counting only the anonymous ones.
func Summarize(e *Event) (*Summary, error) {
	s := &Summary{
		EventID:      e.ID,
		Title:        e.Title,
		StartDate:    e.StartDate,
		EndDate:      e.EndDate,
		Participants: make([]ParticipantView, 0, e.Participants.Len()),
		NgCounts:     []DateCount{},
	}

	counts := make(map[string]int)
	anonymous := 0
	for _, id := range e.Participants.IDs() {
		p, _, err := e.Participants.Get(id)
		if err != nil {
			return nil, err
		}
		view := ParticipantView{
			ID:             id,
			DisplayName:    p.Name,
			NgDates:        p.NgDates,
			InputCompleted: p.InputCompleted,
		}
		if view.NgDates == nil {
			view.NgDates = []string{}
		}
		if p.Name == "" {
			anonymous++
			view.Anonymous = true
			view.DisplayName = AnonymousName(anonymous)
		}
		if p.InputCompleted {
			s.CompletedCount++
		}
		for _, date := range p.NgDates {
			counts[date]++
		}
		s.Participants = append(s.Participants, view)
	}
	s.ParticipantCount = len(s.Participants)

	for date, count := range counts {
		s.NgCounts = append(s.NgCounts, DateCount{Date: date, Count: count})
	}
	sort.Slice(s.NgCounts, func(i, j int) bool { return s.NgCounts[i].Date < s.NgCounts[j].Date })

	s.AvailableDates = availableDates(e.StartDate, e.EndDate, counts)
	return s, nil
}

func availableDates(start, end string, counts map[string]int) []string {
	if start == "" || end == "" {
		return nil
	}
	from, err := time.Parse(validation.DateLayout, start)
	if err != nil {
		return nil
	}
	to, err := time.Parse(validation.DateLayout, end)
	if err != nil {
		return nil
	}

	dates := []string{}
	for day, i := from, 0; !day.After(to) && i < maxWindowDays; day, i = day.AddDate(0, 0, 1), i+1 {
		date := day.Format(validation.DateLayout)
		if counts[date] == 0 {
			dates = append(dates, date)
		}
	}
	return dates
}
