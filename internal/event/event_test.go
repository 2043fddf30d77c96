package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const storedDoc = `{"id":"abc123","title":"Party","participants":{` +
	`"zzz":{"ng_dates":["2024-01-10"],"name":"Zed"},` +
	`"aaa":{"ng_dates":[], "inputCompleted":true, "extra":1},` +
	`"mmm":{"ng_dates":["2024-01-10","2024-01-11"]}` +
	`},"createdAt":"2024-01-01T00:00:00.000Z"}`

func TestParticipantsKeepOrderAndBytes(t *testing.T) {
	var e Event
	require.NoError(t, json.Unmarshal([]byte(storedDoc), &e))

	require.Equal(t, "abc123", e.ID)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), e.CreatedAt)
	require.Equal(t, []string{"zzz", "aaa", "mmm"}, e.Participants.IDs())

	require.NoError(t, e.Participants.Set("new", Participant{NgDates: []string{"2024-01-12"}}))
	require.NoError(t, e.Participants.Set("zzz", Participant{NgDates: []string{}, Name: "Zed"}))
	require.Equal(t, []string{"zzz", "aaa", "mmm", "new"}, e.Participants.IDs())

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var again Event
	require.NoError(t, json.Unmarshal(data, &again))
	require.Equal(t, []string{"zzz", "aaa", "mmm", "new"}, again.Participants.IDs())
	// encoding/json compacts marshaler output, unknown fields survive
	require.Equal(t, `{"ng_dates":[],"inputCompleted":true,"extra":1}`, string(again.Participants.Raw("aaa")))
	require.Equal(t, `{"ng_dates":["2024-01-10","2024-01-11"]}`, string(again.Participants.Raw("mmm")))

	zed, ok, err := again.Participants.Get("zzz")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Participant{NgDates: []string{}, Name: "Zed"}, zed)
}

func TestParticipantEncoding(t *testing.T) {
	data, err := json.Marshal(Participant{})
	require.NoError(t, err)
	require.JSONEq(t, `{"ng_dates":[],"inputCompleted":false}`, string(data))

	data, err = json.Marshal(Participant{NgDates: []string{"2024-01-01"}, Name: "Taro", InputCompleted: true})
	require.NoError(t, err)
	require.JSONEq(t, `{"ng_dates":["2024-01-01"],"name":"Taro","inputCompleted":true}`, string(data))
}

func TestParticipantsEdgeCases(t *testing.T) {
	t.Run("empty and null", func(t *testing.T) {
		var e Event
		require.NoError(t, json.Unmarshal([]byte(`{"id":"x","participants":null,"createdAt":"2024-01-01T00:00:00Z"}`), &e))
		require.Equal(t, 0, e.Participants.Len())

		data, err := json.Marshal(Event{ID: "x"})
		require.NoError(t, err)
		require.Contains(t, string(data), `"participants":{}`)
	})

	t.Run("not an object", func(t *testing.T) {
		var e Event
		err := json.Unmarshal([]byte(`{"id":"x","participants":[1,2]}`), &e)
		require.Error(t, err)
	})

	t.Run("absent participant", func(t *testing.T) {
		var p Participants
		_, ok, err := p.Get("missing")
		require.NoError(t, err)
		require.False(t, ok)
		require.False(t, p.Has("missing"))
		require.Nil(t, p.Raw("missing"))
	})
}

func TestSummarize(t *testing.T) {
	e := &Event{ID: "abc123", Title: "Trip", StartDate: "2024-01-09", EndDate: "2024-01-12"}
	require.NoError(t, e.Participants.Set("p1", Participant{NgDates: []string{"2024-01-10"}}))
	require.NoError(t, e.Participants.Set("p2", Participant{NgDates: []string{"2024-01-10", "2024-01-11"}, Name: "Hanako", InputCompleted: true}))
	require.NoError(t, e.Participants.Set("p3", Participant{NgDates: []string{"2024-02-01"}}))

	s, err := Summarize(e)
	require.NoError(t, err)

	require.Equal(t, 3, s.ParticipantCount)
	require.Equal(t, 1, s.CompletedCount)
	require.Equal(t, []DateCount{
		{Date: "2024-01-10", Count: 2},
		{Date: "2024-01-11", Count: 1},
		{Date: "2024-02-01", Count: 1},
	}, s.NgCounts)
	require.Equal(t, []string{"2024-01-09", "2024-01-12"}, s.AvailableDates)

	names := make([]string, 0, len(s.Participants))
	for _, p := range s.Participants {
		names = append(names, p.DisplayName)
	}
	require.Equal(t, []string{"anonymous #1", "Hanako", "anonymous #2"}, names)
	require.True(t, s.Participants[0].Anonymous)
	require.False(t, s.Participants[1].Anonymous)
}

func TestSummarizeWithoutWindow(t *testing.T) {
	s, err := Summarize(&Event{ID: "abc123"})
	require.NoError(t, err)
	require.Equal(t, 0, s.ParticipantCount)
	require.Empty(t, s.NgCounts)
	require.Nil(t, s.AvailableDates)
}
