package filestore_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-json-experiment/json"

	"github.com/ezmod/ezmod/blocklist"
	"github.com/ezmod/ezmod/blocklist/blocktest"
	"github.com/ezmod/ezmod/blocklist/filestore"
)

func TestBackend(t *testing.T) {
	blocktest.Test(context.Background(), t, func(ctx context.Context) blocklist.Backend {
		return filestore.Open(filepath.Join(t.TempDir(), "blocklist.json"), nil)
	})
}

func TestMissing(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "blocklist.json")
	f := filestore.Open(p, nil)
	r, err := f.Load(ctx, 42)
	if err != nil {
		t.Errorf("couldn't load from missing file: %v", err)
	}
	if r != nil {
		t.Errorf("got record from missing file: %+v", r)
	}
	if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("load created the file: %v", err)
	}
}

func TestFormat(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "blocklist.json")
	f := filestore.Open(p, nil)
	r := blocklist.Record{ChatID: 42, BlockedWords: []string{"badword"}, Active: true, Action: blocklist.Mute}
	if err := f.Save(ctx, &r); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	var v []map[string]any
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("file isn't a JSON array of objects: %v\n%s", err, b)
	}
	if len(v) != 1 {
		t.Fatalf("wrong number of records: want 1, got %d", len(v))
	}
	want := map[string]any{
		"chatId":        float64(42),
		"blockedWords":  []any{"badword"},
		"active":        true,
		"action":        "mute",
		"deleteMessage": false,
	}
	for k, w := range want {
		got, ok := v[0][k]
		if !ok {
			t.Errorf("missing field %q", k)
			continue
		}
		if fmt.Sprint(got) != fmt.Sprint(w) {
			t.Errorf("wrong %q: want %v, got %v", k, w, got)
		}
	}
}

func TestCorrupt(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "blocklist.json")
	if err := os.WriteFile(p, []byte(`[{"chatId": 42, "blockedWords": ["bocchi"`), 0644); err != nil {
		t.Fatal(err)
	}
	f := filestore.Open(p, nil)
	_, err := f.Load(ctx, 42)
	if !errors.Is(err, blocklist.ErrCorrupt) {
		t.Errorf("wrong error from corrupt file: %v", err)
	}

	s := blocklist.New(f, nil)
	if r := s.Load(ctx, 42); len(r.BlockedWords) != 0 || r.Active {
		t.Errorf("corrupt file not treated as empty: %+v", r)
	}
	if err := s.AddWord(ctx, 42, "ryou"); err != nil {
		t.Fatalf("couldn't save over corrupt file: %v", err)
	}
	r := s.Load(ctx, 42)
	if len(r.BlockedWords) != 1 || r.BlockedWords[0] != "ryou" {
		t.Errorf("wrong words after recovery: %q", r.BlockedWords)
	}
	if _, err := os.Stat(p + ".corrupt"); err != nil {
		t.Errorf("corrupt file not preserved: %v", err)
	}
}

func TestNoopLeavesFile(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "blocklist.json")
	s := blocklist.New(filestore.Open(p, nil), nil)
	if err := s.AddWord(ctx, 42, "bocchi"); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	// Replace the file with a marker. A no-op must not rewrite it.
	marker := append(before, '\n')
	if err := os.WriteFile(p, marker, 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveWord(ctx, 42, "ryou"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddWord(ctx, 42, "BOCCHI"); err != nil {
		t.Fatal(err)
	}
	after, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(marker) {
		t.Errorf("no-op rewrote the file:\nbefore %q\nafter  %q", marker, after)
	}
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "blocklist.json")
	s := blocklist.New(filestore.Open(p, nil), nil)
	const n = 32
	var wg sync.WaitGroup
	wg.Add(2 * n)
	for i := range n {
		go func() {
			defer wg.Done()
			if err := s.AddWord(ctx, 42, fmt.Sprintf("word%d", i)); err != nil {
				t.Errorf("couldn't add word %d: %v", i, err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := s.AddWord(ctx, int64(100+i), "bocchi"); err != nil {
				t.Errorf("couldn't add word to chat %d: %v", 100+i, err)
			}
		}()
	}
	wg.Wait()

	// Reload from a fresh store to see exactly what is on disk.
	u := blocklist.New(filestore.Open(p, nil), nil)
	r := u.Load(ctx, 42)
	if len(r.BlockedWords) != n {
		t.Errorf("lost words in chat 42: want %d, got %d: %q", n, len(r.BlockedWords), r.BlockedWords)
	}
	for i := range n {
		if !r.Contains(fmt.Sprintf("word%d", i)) {
			t.Errorf("missing word%d", i)
		}
	}
	for i := range n {
		r := u.Load(ctx, int64(100+i))
		if len(r.BlockedWords) != 1 {
			t.Errorf("lost record for chat %d: %+v", 100+i, r)
		}
	}
}
