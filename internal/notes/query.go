package notes

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// View is a note prepared for rendering at a given instant.
type View struct {
	Note
	Urgent bool   `json:"urgent"`
	Due    string `json:"due,omitempty"`
}

// Filter keeps the notes whose title or content contains term, ignoring case.
// The term is matched verbatim; an empty term keeps everything.
func Filter(notes []Note, term string) []Note {
	filtered := make([]Note, 0, len(notes))
	if term == "" {
		return append(filtered, notes...)
	}

	folder := cases.Fold()
	needle := folder.String(term)
	for _, n := range notes {
		if strings.Contains(folder.String(n.Title), needle) ||
			strings.Contains(folder.String(n.Content), needle) {
			filtered = append(filtered, n)
		}
	}
	return filtered
}

// IsUrgent reports whether the note's deadline has already passed at now.
func IsUrgent(note Note, now time.Time) bool {
	return note.Deadline != nil && note.Deadline.Before(now)
}

// FormatDeadline renders the deadline relative to now, e.g. "due 3 hours ago"
// or "due in 2 days". The second result is false when there is no deadline.
func FormatDeadline(note Note, now time.Time) (string, bool) {
	if note.Deadline == nil {
		return "", false
	}
	return "due " + DistanceWithSuffix(*note.Deadline, now), true
}

// Query filters the notes and annotates each match for display.
func Query(notes []Note, term string, now time.Time) []View {
	filtered := Filter(notes, term)
	views := make([]View, 0, len(filtered))
	for _, n := range filtered {
		due, _ := FormatDeadline(n, now)
		views = append(views, View{
			Note:   n,
			Urgent: IsUrgent(n, now),
			Due:    due,
		})
	}
	return views
}
