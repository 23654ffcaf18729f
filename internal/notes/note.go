package notes

import "time"

type Note struct {
	ID       int64      `json:"id"`
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// HasDeadline reports whether the note carries a deadline.
func (n Note) HasDeadline() bool {
	return n.Deadline != nil
}
