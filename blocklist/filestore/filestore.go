// Package filestore implements a blocklist backend holding every chat's
// record in a single JSON file.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/ezmod/ezmod/blocklist"
)

// File is a blocklist backend backed by a JSON file containing an array of
// records. Every save rewrites the whole file.
type File struct {
	// mu serializes access to the file across all chats.
	mu   sync.Mutex
	path string
	log  *slog.Logger
}

var _ blocklist.Backend = (*File)(nil)

// Open returns a backend using the file at path.
// The file need not exist; it is created on the first save.
func Open(path string, log *slog.Logger) *File {
	if log == nil {
		log = slog.Default()
	}
	return &File{path: path, log: log}
}

// Load returns the record for a chat.
// If the file exists but cannot be decoded, the error wraps
// [blocklist.ErrCorrupt].
func (f *File) Load(ctx context.Context, chat int64) (*blocklist.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs, err := f.read()
	if err != nil {
		return nil, err
	}
	k := slices.IndexFunc(recs, func(r blocklist.Record) bool { return r.ChatID == chat })
	if k < 0 {
		return nil, nil
	}
	return &recs[k], nil
}

// Save replaces the record for rec's chat, or appends it if there is none,
// and rewrites the file. If the existing file is corrupt, it is moved aside
// with a .corrupt suffix and replaced.
func (f *File) Save(ctx context.Context, rec *blocklist.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs, err := f.read()
	switch {
	case err == nil: // do nothing
	case errors.Is(err, blocklist.ErrCorrupt):
		bad := f.path + ".corrupt"
		f.log.WarnContext(ctx, "replacing corrupt blocklist file",
			slog.String("path", f.path),
			slog.String("moved", bad),
			slog.Any("err", err),
		)
		if err := os.Rename(f.path, bad); err != nil {
			f.log.ErrorContext(ctx, "couldn't move corrupt blocklist file", slog.Any("err", err))
		}
		recs = nil
	default:
		return err
	}
	recs = replace(recs, rec.Clone())
	b, err := json.Marshal(recs, jsontext.WithIndent("\t"))
	if err != nil {
		return fmt.Errorf("couldn't encode blocklist: %w", err)
	}
	if err := writeFile(f.path, b); err != nil {
		return fmt.Errorf("couldn't write blocklist file: %w", err)
	}
	return nil
}

// read decodes the whole file. A missing or empty file is an empty list.
func (f *File) read() ([]blocklist.Record, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("couldn't read blocklist file: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var recs []blocklist.Record
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("couldn't decode %s: %w (%w)", f.path, err, blocklist.ErrCorrupt)
	}
	return recs, nil
}

// replace puts rec in place of the first record for its chat and drops any
// other records for the same chat.
func replace(recs []blocklist.Record, rec blocklist.Record) []blocklist.Record {
	k := slices.IndexFunc(recs, func(r blocklist.Record) bool { return r.ChatID == rec.ChatID })
	if k < 0 {
		return append(recs, rec)
	}
	recs[k] = rec
	rest := slices.DeleteFunc(recs[k+1:], func(r blocklist.Record) bool { return r.ChatID == rec.ChatID })
	return recs[:k+1+len(rest)]
}

// writeFile replaces the file at path with b such that readers see either the
// old contents or the new contents in full.
func writeFile(path string, b []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	_, err = tmp.Write(b)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(name, 0644)
	}
	if err == nil {
		err = os.Rename(name, path)
	}
	if err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
