// Package session persists named diagram snapshots on disk.
//
// A session is a named history of saved diagram documents. Each Save appends
// an entry, so restoring an earlier entry gives callers a manual undo without
// the engine tracking any state. Sessions are stored as JSON files in a
// config directory, one file per session.
//
// # Usage
//
// Create a store:
//
//	store, err := session.NewFileStore("")  // Uses ~/.config/designer/sessions/
//
// Save and restore:
//
//	// Append the current snapshot to the "refactor" session
//	entry, err := store.Save(ctx, "refactor", snapshot, "grid", "before split")
//
//	// Restore the most recent entry
//	snap, err := store.Restore(ctx, "refactor")
//
//	// Or a specific one
//	snap, err := store.RestoreAt(ctx, "refactor", entry.Seq)
package session

import (
	"context"
	"strings"
	"time"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/diagram"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/errors"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

// MaxHistory caps the number of entries a session keeps. Saving past the cap
// drops the oldest entry; sequence numbers keep counting up so references to
// trimmed entries fail loudly instead of silently resolving to other saves.
const MaxHistory = 50

// Entry is one saved snapshot within a session.
type Entry struct {
	// Seq is the entry's position in the session's lifetime save order.
	// It is unique within the session and never reused.
	Seq int `json:"seq"`

	// Note is an optional caller-provided description of the save.
	Note string `json:"note,omitempty"`

	// SavedAt is when the entry was written.
	SavedAt time.Time `json:"saved_at"`

	// Document is the serialized diagram at save time.
	Document diagram.Document `json:"document"`
}

// Session is a named history of saved diagrams.
type Session struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	NextSeq   int       `json:"next_seq"`
	Entries   []Entry   `json:"entries"`
}

// Latest returns the most recent entry, or nil for an empty session.
func (s *Session) Latest() *Entry {
	if len(s.Entries) == 0 {
		return nil
	}
	return &s.Entries[len(s.Entries)-1]
}

// EntryAt returns the entry with the given sequence number.
func (s *Session) EntryAt(seq int) (*Entry, error) {
	for i := range s.Entries {
		if s.Entries[i].Seq == seq {
			return &s.Entries[i], nil
		}
	}
	return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q has no entry %d", s.Name, seq)
}

// Info summarizes a session for listings.
type Info struct {
	Name      string    `json:"name"`
	Entries   int       `json:"entries"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the interface for session storage backends.
type Store interface {
	// Save appends a snapshot to the named session, creating the session if
	// it does not exist, and returns the new entry.
	Save(ctx context.Context, name string, s *model.Snapshot, algorithm, note string) (*Entry, error)

	// Restore returns the snapshot from the most recent entry.
	Restore(ctx context.Context, name string) (*model.Snapshot, error)

	// RestoreAt returns the snapshot from a specific entry.
	RestoreAt(ctx context.Context, name string, seq int) (*model.Snapshot, error)

	// Get retrieves the full session with its history.
	Get(ctx context.Context, name string) (*Session, error)

	// List returns summaries of all sessions, sorted by name.
	List(ctx context.Context) ([]Info, error)

	// Delete removes a session and its history.
	Delete(ctx context.Context, name string) error
}

// ValidateName checks that a session name is usable as a file name.
func ValidateName(name string) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "session name is empty")
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return errors.New(errors.ErrCodeInvalidInput, "invalid session name %q", name)
	}
	return nil
}
