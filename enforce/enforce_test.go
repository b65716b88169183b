package enforce_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ezmod/ezmod/blocklist"
	"github.com/ezmod/ezmod/blocklist/blocktest"
	"github.com/ezmod/ezmod/enforce"
	"github.com/ezmod/ezmod/message"
	"github.com/ezmod/ezmod/metrics"
	"github.com/ezmod/ezmod/platform"
	"github.com/ezmod/ezmod/platform/platformtest"
)

var now = time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)

func newEnforcer(recs ...blocklist.Record) (*enforce.Enforcer, *platformtest.Platform) {
	mem := new(blocktest.Memory)
	for _, r := range recs {
		mem.Put(r)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := platformtest.New(nil)
	e := &enforce.Enforcer{
		Log:       log,
		Blocklist: blocklist.New(mem, log),
		Platform:  api,
		Metrics:   metrics.New(),
		Now:       func() time.Time { return now },
	}
	return e, api
}

func msg(text string) *message.Received {
	return &message.Received{ID: 7, Chat: 42, Sender: 3, Name: "@bocchi", Text: text}
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name  string
		rec   blocklist.Record
		msg   *message.Received
		word  string
		calls []platformtest.Call
	}{
		{
			name: "warn",
			rec:  blocklist.Record{ChatID: 42, BlockedWords: []string{"badword"}, Active: true, Action: blocklist.Warn},
			msg:  msg("this has a BADWORD in it"),
			word: "badword",
			calls: []platformtest.Call{
				{Method: "SendMessage", Chat: 42, Message: 7, Text: "@bocchi, your message contains a blocked word: 'badword'."},
			},
		},
		{
			name: "ban-delete",
			rec:  blocklist.Record{ChatID: 42, BlockedWords: []string{"x"}, Active: true, Action: blocklist.Ban, DeleteMessage: true},
			msg:  msg("x"),
			word: "x",
			calls: []platformtest.Call{
				{Method: "DeleteMessage", Chat: 42, Message: 7},
				{Method: "BanMember", Chat: 42, User: 3},
				{Method: "SendMessage", Chat: 42, Text: "@bocchi has been banned for using a blocked word."},
			},
		},
		{
			name: "mute",
			rec:  blocklist.Record{ChatID: 42, BlockedWords: []string{"x"}, Active: true, Action: blocklist.Mute},
			msg:  msg("xyz"),
			word: "x",
			calls: []platformtest.Call{
				{Method: "RestrictMember", Chat: 42, User: 3, Perms: platform.Muted, Until: now.Add(5 * time.Minute)},
				{Method: "SendMessage", Chat: 42, Message: 7, Text: "@bocchi has been muted for 5 minutes for using a blocked word."},
			},
		},
		{
			name: "first-match",
			rec:  blocklist.Record{ChatID: 42, BlockedWords: []string{"zzz", "bar", "foo"}, Active: true},
			msg:  msg("foo bar"),
			word: "bar",
			calls: []platformtest.Call{
				{Method: "SendMessage", Chat: 42, Message: 7, Text: "@bocchi, your message contains a blocked word: 'bar'."},
			},
		},
		{
			name: "inactive",
			rec:  blocklist.Record{ChatID: 42, BlockedWords: []string{"badword"}, Action: blocklist.Ban},
			msg:  msg("badword"),
		},
		{
			name: "no-match",
			rec:  blocklist.Record{ChatID: 42, BlockedWords: []string{"badword"}, Active: true},
			msg:  msg("good words only"),
		},
		{
			name: "no-sender",
			rec:  blocklist.Record{ChatID: 42, BlockedWords: []string{"badword"}, Active: true},
			msg:  &message.Received{ID: 7, Chat: 42, Text: "badword"},
		},
		{
			name: "other-chat",
			rec:  blocklist.Record{ChatID: 43, BlockedWords: []string{"badword"}, Active: true},
			msg:  msg("badword"),
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, api := newEnforcer(c.rec)
			word, ok := e.Evaluate(context.Background(), c.msg)
			if word != c.word || ok != (c.word != "") {
				t.Errorf("wrong match: want %q, got %q, %t", c.word, word, ok)
			}
			if diff := cmp.Diff(c.calls, api.Calls()); diff != "" {
				t.Errorf("wrong calls (-want/+got):\n%s", diff)
			}
		})
	}
}

func TestEnforceFailures(t *testing.T) {
	cases := []struct {
		name   string
		action blocklist.Action
		fail   string
		calls  []platformtest.Call
	}{
		{
			name:   "delete-fails",
			action: blocklist.Ban,
			fail:   "DeleteMessage",
			calls: []platformtest.Call{
				{Method: "DeleteMessage", Chat: 42, Message: 7},
				{Method: "BanMember", Chat: 42, User: 3},
				{Method: "SendMessage", Chat: 42, Message: 7, Text: "User has been banned for using a blocked word."},
			},
		},
		{
			name:   "ban-fails",
			action: blocklist.Ban,
			fail:   "BanMember",
			calls: []platformtest.Call{
				{Method: "DeleteMessage", Chat: 42, Message: 7},
				{Method: "BanMember", Chat: 42, User: 3},
			},
		},
		{
			name:   "mute-fails",
			action: blocklist.Mute,
			fail:   "RestrictMember",
			calls: []platformtest.Call{
				{Method: "DeleteMessage", Chat: 42, Message: 7},
				{Method: "RestrictMember", Chat: 42, User: 3, Perms: platform.Muted, Until: now.Add(enforce.MuteDuration)},
			},
		},
		{
			name:   "warn-fails",
			action: blocklist.Warn,
			fail:   "SendMessage",
			calls: []platformtest.Call{
				{Method: "DeleteMessage", Chat: 42, Message: 7},
				{Method: "SendMessage", Chat: 42, Text: "User, your message contains a blocked word: 'x'."},
			},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, api := newEnforcer()
			api.FailOn(c.fail, errors.New("forbidden"))
			rec := blocklist.Record{ChatID: 42, BlockedWords: []string{"x"}, Active: true, Action: c.action, DeleteMessage: true}
			m := &message.Received{ID: 7, Chat: 42, Sender: 3, Text: "x"}
			e.Enforce(context.Background(), &rec, m, "x")
			if diff := cmp.Diff(c.calls, api.Calls()); diff != "" {
				t.Errorf("wrong calls (-want/+got):\n%s", diff)
			}
		})
	}
}
