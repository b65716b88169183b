package blocklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ezmod/ezmod/lockmap"
)

var (
	// ErrCorrupt is wrapped by errors from backends whose stored data cannot
	// be decoded. The Store treats corrupt data as absent.
	ErrCorrupt = errors.New("blocklist data is corrupt")
	// ErrInvalidArgument is wrapped by errors from setters given a value they
	// do not recognize. The setting is left unchanged.
	ErrInvalidArgument = errors.New("unrecognized value")
)

// Backend is durable storage for records.
type Backend interface {
	// Load returns the stored record for a chat.
	// If there is no record, the result is nil with a nil error.
	Load(ctx context.Context, chat int64) (*Record, error)
	// Save stores a record, replacing any existing record for its chat.
	Save(ctx context.Context, rec *Record) error
}

// Store manages the records of all chats over a backend.
// Modifications to the same chat are serialized; different chats proceed
// concurrently, subject to the backend.
type Store struct {
	backend Backend
	locks   lockmap.Map[int64]
	log     *slog.Logger
}

// New creates a store over a backend.
// If log is nil, the default logger is used.
func New(backend Backend, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{backend: backend, log: log}
}

// Load returns the record for a chat.
// If the chat has no record or the backend fails, the result is the default
// record for the chat.
func (s *Store) Load(ctx context.Context, chat int64) Record {
	r, err := s.load(ctx, chat)
	if err != nil {
		s.log.ErrorContext(ctx, "couldn't load blocklist; using defaults",
			slog.Int64("chat", chat),
			slog.Any("err", err),
		)
		return Default(chat)
	}
	return r
}

// Snapshot returns a copy of the current record for a chat for reporting.
func (s *Store) Snapshot(ctx context.Context, chat int64) Record {
	r := s.Load(ctx, chat)
	return r.Clone()
}

func (s *Store) load(ctx context.Context, chat int64) (Record, error) {
	p, err := s.backend.Load(ctx, chat)
	switch {
	case err == nil: // do nothing
	case errors.Is(err, ErrCorrupt):
		s.log.WarnContext(ctx, "corrupt blocklist data treated as empty",
			slog.Int64("chat", chat),
			slog.Any("err", err),
		)
		return Default(chat), nil
	default:
		return Record{}, err
	}
	if p == nil {
		return Default(chat), nil
	}
	r := p.Clone()
	r.ChatID = chat
	return r, nil
}

// update applies f to the chat's record under the chat's lock and saves the
// result if f reports a change.
func (s *Store) update(ctx context.Context, chat int64, f func(r *Record) (bool, error)) error {
	unlock := s.locks.Lock(chat)
	defer unlock()
	r, err := s.load(ctx, chat)
	if err != nil {
		// Saving over a record we couldn't read would destroy it.
		return fmt.Errorf("couldn't load blocklist for chat %d: %w", chat, err)
	}
	changed, err := f(&r)
	if err != nil || !changed {
		return err
	}
	if err := s.backend.Save(ctx, &r); err != nil {
		return fmt.Errorf("couldn't save blocklist for chat %d: %w", chat, err)
	}
	s.log.DebugContext(ctx, "saved blocklist", slog.Int64("chat", chat), slog.Any("record", &r))
	return nil
}

// AddWord adds a word to a chat's blocklist.
// Empty words and words already present are ignored.
func (s *Store) AddWord(ctx context.Context, chat int64, word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil
	}
	return s.update(ctx, chat, func(r *Record) (bool, error) {
		if r.Contains(word) {
			return false, nil
		}
		r.BlockedWords = append(r.BlockedWords, word)
		return true, nil
	})
}

// RemoveWord removes a word from a chat's blocklist, if present.
func (s *Store) RemoveWord(ctx context.Context, chat int64, word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil
	}
	return s.update(ctx, chat, func(r *Record) (bool, error) {
		k := r.index(word)
		if k < 0 {
			return false, nil
		}
		r.BlockedWords = slices.Delete(r.BlockedWords, k, k+1)
		return true, nil
	})
}

// ClearWords empties a chat's blocklist.
// The record is saved even if it was already empty.
func (s *Store) ClearWords(ctx context.Context, chat int64) error {
	return s.update(ctx, chat, func(r *Record) (bool, error) {
		r.BlockedWords = nil
		return true, nil
	})
}

// SetActive enables or disables enforcement in a chat according to a yes/no
// answer as interpreted by [ParseSwitch].
func (s *Store) SetActive(ctx context.Context, chat int64, raw string) error {
	v, ok := ParseSwitch(raw)
	if !ok {
		return fmt.Errorf("%q is not yes or no: %w", raw, ErrInvalidArgument)
	}
	return s.update(ctx, chat, func(r *Record) (bool, error) {
		r.Active = v
		return true, nil
	})
}

// SetAction sets the action for a chat by name as interpreted by
// [ParseAction].
func (s *Store) SetAction(ctx context.Context, chat int64, raw string) error {
	v, ok := ParseAction(raw)
	if !ok {
		return fmt.Errorf("%q is not an action: %w", raw, ErrInvalidArgument)
	}
	return s.update(ctx, chat, func(r *Record) (bool, error) {
		r.Action = v
		return true, nil
	})
}

// SetDeleteMessage sets whether violating messages in a chat are deleted
// according to a yes/no answer as interpreted by [ParseSwitch].
func (s *Store) SetDeleteMessage(ctx context.Context, chat int64, raw string) error {
	v, ok := ParseSwitch(raw)
	if !ok {
		return fmt.Errorf("%q is not yes or no: %w", raw, ErrInvalidArgument)
	}
	return s.update(ctx, chat, func(r *Record) (bool, error) {
		r.DeleteMessage = v
		return true, nil
	})
}
