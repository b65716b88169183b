package blocktest

import (
	"context"
	"sync"

	"github.com/ezmod/ezmod/blocklist"
)

// Memory is an in-memory backend for tests of code built on blocklist.Store.
type Memory struct {
	mu   sync.Mutex
	recs map[int64]blocklist.Record
	err  error
}

var _ blocklist.Backend = (*Memory)(nil)

// Put stores a record directly.
func (m *Memory) Put(rec blocklist.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recs == nil {
		m.recs = make(map[int64]blocklist.Record)
	}
	m.recs[rec.ChatID] = rec.Clone()
}

// Get returns the stored record for a chat, if any.
func (m *Memory) Get(chat int64) (blocklist.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[chat]
	return r.Clone(), ok
}

// Fail causes all subsequent operations to return err.
// A nil err clears the failure.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Memory) Load(ctx context.Context, chat int64) (*blocklist.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.recs[chat]
	if !ok {
		return nil, nil
	}
	r = r.Clone()
	return &r, nil
}

func (m *Memory) Save(ctx context.Context, rec *blocklist.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.recs == nil {
		m.recs = make(map[int64]blocklist.Record)
	}
	m.recs[rec.ChatID] = rec.Clone()
	return nil
}
