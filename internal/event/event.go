package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrMalformedParticipants = errors.New("participants must be a JSON object")

// Event is the stored document of a single scheduling event.
type Event struct {
	ID           string       `json:"id"`
	Title        string       `json:"title,omitempty"`
	StartDate    string       `json:"startDate,omitempty"`
	EndDate      string       `json:"endDate,omitempty"`
	Participants Participants `json:"participants"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Participant holds the dates one participant cannot attend.
type Participant struct {
	NgDates        []string `json:"ng_dates"`
	Name           string   `json:"name,omitempty"`
	InputCompleted bool     `json:"inputCompleted"`
}

func (p Participant) MarshalJSON() ([]byte, error) {
	type plain Participant
	if p.NgDates == nil {
		p.NgDates = []string{}
	}
	return json.Marshal(plain(p))
}

// Participants maps participant id to record. Key order from the stored JSON is kept and
// new ids are appended, so iteration follows insertion order. Records are held as the raw
// bytes read from the store until they are replaced.
type Participants struct {
	order []string
	raw   map[string]json.RawMessage
}

func (p *Participants) Len() int {
	return len(p.order)
}

func (p *Participants) IDs() []string {
	ids := make([]string, len(p.order))
	copy(ids, p.order)
	return ids
}

func (p *Participants) Has(id string) bool {
	_, ok := p.raw[id]
	return ok
}

// Raw returns the stored bytes of a record, nil when absent.
func (p *Participants) Raw(id string) json.RawMessage {
	return p.raw[id]
}

func (p *Participants) Get(id string) (Participant, bool, error) {
	raw, ok := p.raw[id]
	if !ok {
		return Participant{}, false, nil
	}
	var participant Participant
	if err := json.Unmarshal(raw, &participant); err != nil {
		return Participant{}, true, fmt.Errorf("failed to decode participant %q: %w", id, err)
	}
	return participant, true, nil
}

// Set replaces the record of id, or appends it when id is new.
func (p *Participants) Set(id string, participant Participant) error {
	raw, err := json.Marshal(participant)
	if err != nil {
		return fmt.Errorf("failed to encode participant %q: %w", id, err)
	}
	p.setRaw(id, raw)
	return nil
}

func (p *Participants) setRaw(id string, raw json.RawMessage) {
	if p.raw == nil {
		p.raw = make(map[string]json.RawMessage)
	}
	if _, ok := p.raw[id]; !ok {
		p.order = append(p.order, id)
	}
	p.raw[id] = raw
}

func (p Participants) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range p.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(p.raw[id])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Participants) UnmarshalJSON(data []byte) error {
	p.order = nil
	p.raw = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrMalformedParticipants
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return ErrMalformedParticipants
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to read participant %q: %w", id, err)
		}
		p.setRaw(id, raw)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
