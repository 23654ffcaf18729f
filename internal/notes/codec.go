package notes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// layouts accepted for deadlines without an explicit offset, as produced by
// a browser datetime-local input
var localDeadlineLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

type noteRecord struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Deadline *string `json:"deadline,omitempty"`
}

// Marshal encodes the whole collection as a JSON array. Deadlines are written
// as RFC 3339 in UTC and left out when absent.
func Marshal(notes []Note) ([]byte, error) {
	records := make([]noteRecord, 0, len(notes))
	for _, n := range notes {
		rec := noteRecord{
			ID:      n.ID,
			Title:   n.Title,
			Content: n.Content,
		}
		if n.Deadline != nil {
			d := n.Deadline.UTC().Format(time.RFC3339Nano)
			rec.Deadline = &d
		}
		records = append(records, rec)
	}
	return json.Marshal(records)
}

// Unmarshal decodes a collection, reading offset-less deadlines in local time.
func Unmarshal(data []byte) ([]Note, error) {
	return UnmarshalIn(data, time.Local)
}

func UnmarshalIn(data []byte, loc *time.Location) ([]Note, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("unmarshal notes: empty payload")
	}

	var records []noteRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal notes: %w", err)
	}

	notes := make([]Note, 0, len(records))
	for _, rec := range records {
		n := Note{
			ID:      rec.ID,
			Title:   rec.Title,
			Content: rec.Content,
		}
		if rec.Deadline != nil {
			deadline, err := ParseDeadline(*rec.Deadline, loc)
			if err != nil {
				return nil, fmt.Errorf("note %d: %w", rec.ID, err)
			}
			n.Deadline = deadline
		}
		notes = append(notes, n)
	}

	return notes, nil
}

// ParseDeadline parses a user or stored deadline. An empty string means no
// deadline and yields nil without error.
func ParseDeadline(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t, nil
	}
	for _, layout := range localDeadlineLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidDeadline, raw)
}
