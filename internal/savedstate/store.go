package savedstate

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("saved state not found")
	// ErrStale reports a Put whose Revision no longer matches the stored one.
	ErrStale = errors.New("saved state was modified concurrently")
	ErrEmpty = errors.New("saved state has no entries")
)

// Record is the persisted form of one board: the output of chessboard.Save
// plus bookkeeping.
type Record struct {
	SessionID string    `json:"session_id"`
	Entries   []string  `json:"entries"`
	Revision  int64     `json:"revision"`
	SavedAt   time.Time `json:"saved_at"`
}

// Store keeps saved boards between host recreations. A Put with a non-zero
// Revision only succeeds if it matches the stored revision; zero overwrites.
// On success the record's Revision and SavedAt are updated in place.
type Store interface {
	Put(ctx context.Context, rec *Record) error
	Get(ctx context.Context, sessionID string) (*Record, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

func validate(rec *Record) error {
	if rec == nil || strings.TrimSpace(rec.SessionID) == "" {
		return errors.New("saved state requires a session id")
	}
	if len(rec.Entries) == 0 {
		return ErrEmpty
	}
	return nil
}

func clone(rec *Record) *Record {
	if rec == nil {
		return nil
	}
	cp := *rec
	cp.Entries = append([]string(nil), rec.Entries...)
	return &cp
}
