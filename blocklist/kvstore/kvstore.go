// Package kvstore implements a blocklist backend in a Badger database.
package kvstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-json-experiment/json"

	"github.com/ezmod/ezmod/blocklist"
)

/*
Key structure:
"blocklist\x00" × chat
- chat is the chat ID as an 8 byte big-endian two's complement integer.

The value is the JSON encoding of the record.
*/

const prefix = "blocklist\x00"

// DB is a blocklist backend in a Badger database.
type DB struct {
	db *badger.DB
}

var _ blocklist.Backend = (*DB)(nil)

// New returns a backend using db.
// The db must remain open for the lifetime of the backend.
func New(db *badger.DB) *DB {
	return &DB{db: db}
}

func key(chat int64) []byte {
	b := make([]byte, len(prefix), len(prefix)+8)
	copy(b, prefix)
	return binary.BigEndian.AppendUint64(b, uint64(chat))
}

// Load returns the record for a chat.
func (d *DB) Load(ctx context.Context, chat int64) (*blocklist.Record, error) {
	var r *blocklist.Record
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(chat))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var v blocklist.Record
			if err := json.Unmarshal(val, &v); err != nil {
				return fmt.Errorf("couldn't decode record for chat %d: %w (%w)", chat, err, blocklist.ErrCorrupt)
			}
			r = &v
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't load blocklist: %w", err)
	}
	return r, nil
}

// Save stores the record for rec's chat.
func (d *DB) Save(ctx context.Context, rec *blocklist.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("couldn't encode record for chat %d: %w", rec.ChatID, err)
	}
	err = d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(rec.ChatID), b)
	})
	if err != nil {
		return fmt.Errorf("couldn't save blocklist: %w", err)
	}
	return nil
}
