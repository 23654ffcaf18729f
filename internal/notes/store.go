package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/smartnotes/internal/storage"

	log "github.com/sirupsen/logrus"
)

const DefaultStorageKey = "smartnotes"

//go:generate mockgen -source=$GOFILE -destination=persistence_mocks_test.go -package=notes

// Persistence is the key-value byte store the collection is synced to.
type Persistence interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
}

// Store owns the note collection. It is not safe for concurrent use;
// callers serialize access to it.
type Store struct {
	persistence Persistence
	key         string
	clock       func() time.Time
	location    *time.Location

	notes       []Note
	lastID      int64
	initialized bool
}

type StoreOption func(*Store)

func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.clock = clock
	}
}

func WithKey(key string) StoreOption {
	return func(s *Store) {
		s.key = key
	}
}

// WithLocation sets the location used for stored deadlines that carry no offset.
func WithLocation(loc *time.Location) StoreOption {
	return func(s *Store) {
		s.location = loc
	}
}

func NewStore(persistence Persistence, opts ...StoreOption) *Store {
	s := &Store{
		persistence: persistence,
		key:         DefaultStorageKey,
		clock:       time.Now,
		location:    time.Local,
		notes:       []Note{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the collection from persistence. Missing or corrupt data
// leaves the store empty; nothing is returned to the caller.
func (s *Store) Initialize(ctx context.Context) {
	if s.initialized {
		return
	}
	s.initialized = true

	raw, err := s.persistence.Read(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Debugf("notes store: no data under key [%s], starting empty", s.key)
		} else {
			log.Warnf("notes store: read key [%s]: %s", s.key, err)
		}
		return
	}

	loaded, err := UnmarshalIn(raw, s.location)
	if err != nil {
		log.Warnf("notes store: discarding unreadable data under key [%s]: %s", s.key, err)
		return
	}

	s.notes = loaded
	for _, n := range loaded {
		if n.ID > s.lastID {
			s.lastID = n.ID
		}
	}
	log.Debugf("notes store: loaded %d notes", len(loaded))
}

// Add appends a note built from the drafts. Empty (after trimming) title or
// content rejects the call with ErrEmptyField and leaves the collection as is.
// A failed write still keeps the note in memory and returns ErrPersistWrite.
func (s *Store) Add(ctx context.Context, title, content string, deadline *time.Time) ([]Note, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return s.List(), ErrEmptyField
	}

	note := Note{
		ID:      s.nextID(),
		Title:   title,
		Content: content,
	}
	if deadline != nil {
		d := *deadline
		note.Deadline = &d
	}

	s.notes = append(s.notes, note)
	return s.List(), s.persist(ctx)
}

// Delete removes the note with the given id. Unknown ids are not an error.
func (s *Store) Delete(ctx context.Context, id int64) ([]Note, error) {
	kept := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.notes = kept
	return s.List(), s.persist(ctx)
}

// List returns the collection in insertion order. The slice must not be
// modified by callers.
func (s *Store) List() []Note {
	return s.notes[:len(s.notes):len(s.notes)]
}

func (s *Store) Get(id int64) (Note, bool) {
	for _, n := range s.notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}

func (s *Store) Len() int {
	return len(s.notes)
}

// nextID derives the id from the clock in milliseconds, bumped past the
// last issued id so that two adds in the same millisecond never collide.
func (s *Store) nextID() int64 {
	id := s.clock().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) persist(ctx context.Context) error {
	payload, err := Marshal(s.notes)
	if err != nil {
		return fmt.Errorf("%w: marshal: %s", ErrPersistWrite, err)
	}
	if err := s.persistence.Write(ctx, s.key, payload); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistWrite, err)
	}
	return nil
}
