// Package blocktest provides integration testing facilities for blocklist
// backends.
package blocktest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ezmod/ezmod/blocklist"
)

// Test runs the integration test suite against backends produced by new.
// Each subtest receives a fresh backend.
//
// If a backend cannot be created without error, new should call t.Fatal.
func Test(ctx context.Context, t *testing.T, new func(context.Context) blocklist.Backend) {
	t.Run("absent", testAbsent(ctx, new(ctx)))
	t.Run("roundtrip", testRoundTrip(ctx, new(ctx)))
	t.Run("replace", testReplace(ctx, new(ctx)))
	t.Run("store", testStore(ctx, new(ctx)))
}

var records = [...]blocklist.Record{
	{
		ChatID:       -1001,
		BlockedWords: []string{"bocchi", "Ryou"},
		Active:       true,
		Action:       blocklist.Mute,
	},
	{
		ChatID:        -1002,
		BlockedWords:  []string{"nijika"},
		Action:        blocklist.Ban,
		DeleteMessage: true,
	},
	{
		ChatID: 42,
	},
	{
		ChatID:       7,
		BlockedWords: []string{"kita", "ｋｉｔａ", "喜多"},
		Active:       true,
	},
}

// Equal is the comparison option for records, treating nil and empty word
// lists as equal.
var Equal = cmpopts.EquateEmpty()

func testAbsent(ctx context.Context, b blocklist.Backend) func(t *testing.T) {
	return func(t *testing.T) {
		r, err := b.Load(ctx, 99)
		if err != nil {
			t.Errorf("couldn't load absent record: %v", err)
		}
		if r != nil {
			t.Errorf("absent record loaded as %+v", r)
		}
	}
}

func testRoundTrip(ctx context.Context, b blocklist.Backend) func(t *testing.T) {
	return func(t *testing.T) {
		for i := range records {
			r := records[i].Clone()
			if err := b.Save(ctx, &r); err != nil {
				t.Fatalf("couldn't save record for %d: %v", r.ChatID, err)
			}
		}
		for _, want := range records {
			got, err := b.Load(ctx, want.ChatID)
			if err != nil {
				t.Errorf("couldn't load record for %d: %v", want.ChatID, err)
				continue
			}
			if got == nil {
				t.Errorf("no record for %d", want.ChatID)
				continue
			}
			if diff := cmp.Diff(want, *got, Equal); diff != "" {
				t.Errorf("wrong record for %d (-want/+got):\n%s", want.ChatID, diff)
			}
		}
	}
}

func testReplace(ctx context.Context, b blocklist.Backend) func(t *testing.T) {
	return func(t *testing.T) {
		first := blocklist.Record{ChatID: 5, BlockedWords: []string{"bocchi"}}
		if err := b.Save(ctx, &first); err != nil {
			t.Fatal(err)
		}
		other := blocklist.Record{ChatID: 6, BlockedWords: []string{"ryou"}, Active: true}
		if err := b.Save(ctx, &other); err != nil {
			t.Fatal(err)
		}
		second := blocklist.Record{ChatID: 5, BlockedWords: []string{"nijika", "kita"}, Action: blocklist.Ban}
		if err := b.Save(ctx, &second); err != nil {
			t.Fatal(err)
		}
		got, err := b.Load(ctx, 5)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(second, *got, Equal); diff != "" {
			t.Errorf("record not replaced (-want/+got):\n%s", diff)
		}
		got, err = b.Load(ctx, 6)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(other, *got, Equal); diff != "" {
			t.Errorf("other chat's record changed (-want/+got):\n%s", diff)
		}
		// Saving must not retain the caller's slice.
		second.BlockedWords[0] = "seika"
		got, err = b.Load(ctx, 5)
		if err != nil {
			t.Fatal(err)
		}
		if got.BlockedWords[0] != "nijika" {
			t.Errorf("backend aliases saved words: got %q", got.BlockedWords)
		}
	}
}

// testStore exercises the backend through a Store so that a fresh Store over
// the same backend sees everything the first one wrote.
func testStore(ctx context.Context, b blocklist.Backend) func(t *testing.T) {
	return func(t *testing.T) {
		s := blocklist.New(b, nil)
		steps := []func() error{
			func() error { return s.AddWord(ctx, 1, "bocchi") },
			func() error { return s.AddWord(ctx, 1, "BOCCHI") },
			func() error { return s.AddWord(ctx, 1, "ryou") },
			func() error { return s.SetActive(ctx, 1, "yes") },
			func() error { return s.SetAction(ctx, 1, "Ban") },
			func() error { return s.AddWord(ctx, 2, "kita") },
			func() error { return s.SetDeleteMessage(ctx, 2, "y") },
		}
		for i, f := range steps {
			if err := f(); err != nil {
				t.Fatalf("step %d failed: %v", i, err)
			}
		}
		want := map[int64]blocklist.Record{
			1: {ChatID: 1, BlockedWords: []string{"bocchi", "ryou"}, Active: true, Action: blocklist.Ban},
			2: {ChatID: 2, BlockedWords: []string{"kita"}, DeleteMessage: true},
			3: blocklist.Default(3),
		}
		u := blocklist.New(b, nil)
		for chat, w := range want {
			if diff := cmp.Diff(w, u.Snapshot(ctx, chat), Equal); diff != "" {
				t.Errorf("wrong record for chat %d after reload (-want/+got):\n%s", chat, diff)
			}
		}
	}
}
