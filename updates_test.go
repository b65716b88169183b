package main

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ezmod/ezmod/blocklist"
	"github.com/ezmod/ezmod/blocklist/blocktest"
	"github.com/ezmod/ezmod/message"
	"github.com/ezmod/ezmod/moderation"
	"github.com/ezmod/ezmod/platform/platformtest"
)

// fakeUpdates delivers a fixed list of messages and then waits for the
// context to end.
type fakeUpdates struct {
	msgs []*message.Received
}

func (f *fakeUpdates) Updates(ctx context.Context, handle func(context.Context, *message.Received)) error {
	for _, m := range f.msgs {
		handle(ctx, m)
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRun(t *testing.T) {
	mem := new(blocktest.Memory)
	mem.Put(blocklist.Record{ChatID: 42, BlockedWords: []string{"cucumber"}, Active: true})
	api := platformtest.New(map[int64][]int64{42: {1}})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	robo := New(2)
	robo.SetSources(context.Background(), mem)
	robo.engine = moderation.New(moderation.Config{
		Log:       log,
		Name:      "ezmod_bot",
		Blocklist: robo.blocklist,
		Platform:  api,
		Metrics:   robo.metrics,
	})
	robo.updates = &fakeUpdates{msgs: []*message.Received{
		{ID: 1, Chat: 42, Sender: 2, Name: "@kita", Text: "I love cucumber"},
		{ID: 2, Chat: 42, Sender: 1, Text: "/addblock pickle"},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	var err error
	go func() {
		defer wg.Done()
		err = robo.Run(ctx, "")
	}()
	// Wait for both messages to be handled.
	deadline := time.Now().Add(5 * time.Second)
	for len(api.Sent()) < 2 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("messages not handled: %+v", api.Calls())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	wg.Wait()
	if err != nil {
		t.Errorf("unexpected error from Run: %v", err)
	}
	want := []string{
		"@kita, your message contains a blocked word: 'cucumber'.",
		"Added 'pickle' to blocklist.",
	}
	got := api.Sent()
	// Workers run concurrently, so replies may arrive in either order.
	if len(got) == 2 && got[0] != want[0] {
		got[0], got[1] = got[1], got[0]
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wrong replies (-want/+got):\n%s", diff)
	}
}

// slowSave delays saves, failing them if their context ends first.
type slowSave struct {
	*blocktest.Memory
	started chan struct{}
	once    sync.Once
}

func (s *slowSave) Save(ctx context.Context, rec *blocklist.Record) error {
	s.once.Do(func() { close(s.started) })
	select {
	case <-time.After(300 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Memory.Save(ctx, rec)
}

func TestRunFinishesWork(t *testing.T) {
	mem := &slowSave{Memory: new(blocktest.Memory), started: make(chan struct{})}
	api := platformtest.New(map[int64][]int64{42: {1}})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	robo := New(2)
	robo.SetSources(context.Background(), mem)
	robo.engine = moderation.New(moderation.Config{
		Log:       log,
		Name:      "ezmod_bot",
		Blocklist: robo.blocklist,
		Platform:  api,
		Metrics:   robo.metrics,
	})
	robo.updates = &fakeUpdates{msgs: []*message.Received{
		{ID: 1, Chat: 42, Sender: 1, Text: "/addblock pickle"},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- robo.Run(ctx, "") }()
	select {
	case <-mem.started:
	case <-time.After(5 * time.Second):
		t.Fatal("save never started")
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error from Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run never returned")
	}
	// Everything below must have happened before Run returned.
	r, _ := mem.Get(42)
	if diff := cmp.Diff([]string{"pickle"}, r.BlockedWords); diff != "" {
		t.Errorf("save not finished (-want/+got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Added 'pickle' to blocklist."}, api.Sent()); diff != "" {
		t.Errorf("wrong replies (-want/+got):\n%s", diff)
	}
}

func TestEnqueue(t *testing.T) {
	robo := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	var mu sync.Mutex
	n := 0
	for range 100 {
		wg.Add(1)
		robo.enqueue(ctx, func(ctx context.Context) {
			defer wg.Done()
			mu.Lock()
			n++
			mu.Unlock()
		})
	}
	wg.Wait()
	if n != 100 {
		t.Errorf("wrong number of works run: want 100, got %d", n)
	}
}
