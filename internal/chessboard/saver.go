package chessboard

import (
	"errors"
	"fmt"
)

var ErrRestore = errors.New("restore board state")

// Save produces the persisted form of s: the current notation followed by the
// history, oldest to newest.
func Save(s *State) []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.history)+1)
	out = append(out, s.notation)
	return append(out, s.history...)
}

// Restore rebuilds a State from the output of Save. Every entry must be a
// well-formed notation.
func Restore(engine Engine, saved []string) (*State, error) {
	if len(saved) == 0 {
		return nil, fmt.Errorf("%w: empty saved state", ErrRestore)
	}
	for i, entry := range saved {
		if _, _, err := Decode(entry); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrRestore, i, err)
		}
	}
	state, err := NewState(engine, saved[0], saved[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRestore, err)
	}
	return state, nil
}

// RestoreOrDefault behaves like Restore but falls back to StandardStart when
// saved cannot be restored. The restore error is still returned so the
// caller can report it; the state is non-nil whenever the engine is usable.
func RestoreOrDefault(engine Engine, saved []string) (*State, error) {
	state, err := Restore(engine, saved)
	if err == nil {
		return state, nil
	}
	fallback, ferr := NewState(engine, StandardStart, nil)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return fallback, err
}
