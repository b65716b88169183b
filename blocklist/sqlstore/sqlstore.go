// Package sqlstore implements a blocklist backend in an SQLite database.
package sqlstore

import (
	"context"
	"fmt"

	"github.com/go-json-experiment/json"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/ezmod/ezmod/blocklist"
)

// DB is a blocklist backend in an SQLite database.
type DB struct {
	db *sqlitex.Pool
}

var _ blocklist.Backend = (*DB)(nil)

const schema = `CREATE TABLE IF NOT EXISTS blocklist (
	chat INTEGER PRIMARY KEY,
	words TEXT NOT NULL,
	active INTEGER NOT NULL,
	action TEXT NOT NULL,
	delete_message INTEGER NOT NULL
) STRICT`

// Init creates the blocklist table in an SQL database if it does not exist.
// For convenience, it accepts either a single connection or a pool.
func Init[DB *sqlite.Conn | *sqlitex.Pool](ctx context.Context, db DB) error {
	var conn *sqlite.Conn
	switch db := any(db).(type) {
	case *sqlite.Conn:
		conn = db
	case *sqlitex.Pool:
		var err error
		conn, err = db.Take(ctx)
		defer db.Put(conn)
		if err != nil {
			return fmt.Errorf("couldn't get connection from pool: %w", err)
		}
	}
	if err := sqlitex.ExecuteTransient(conn, schema, nil); err != nil {
		return fmt.Errorf("couldn't create blocklist table: %w", err)
	}
	return nil
}

// Open returns a backend within the given database, creating its table if
// needed. The db must remain open for the lifetime of the backend.
func Open(ctx context.Context, db *sqlitex.Pool) (*DB, error) {
	if err := Init(ctx, db); err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

// Load returns the record for a chat.
func (d *DB) Load(ctx context.Context, chat int64) (*blocklist.Record, error) {
	conn, err := d.db.Take(ctx)
	defer d.db.Put(conn)
	if err != nil {
		return nil, fmt.Errorf("couldn't get connection to load blocklist: %w", err)
	}
	var r *blocklist.Record
	opts := sqlitex.ExecOptions{
		Args: []any{chat},
		ResultFunc: func(st *sqlite.Stmt) error {
			v := blocklist.Record{
				ChatID:        chat,
				Active:        st.ColumnInt64(1) != 0,
				DeleteMessage: st.ColumnInt64(3) != 0,
			}
			if err := json.Unmarshal([]byte(st.ColumnText(0)), &v.BlockedWords); err != nil {
				return fmt.Errorf("couldn't decode words for chat %d: %w (%w)", chat, err, blocklist.ErrCorrupt)
			}
			if err := v.Action.UnmarshalText([]byte(st.ColumnText(2))); err != nil {
				return fmt.Errorf("couldn't decode action for chat %d: %w (%w)", chat, err, blocklist.ErrCorrupt)
			}
			r = &v
			return nil
		},
	}
	err = sqlitex.Execute(conn, `SELECT words, active, action, delete_message FROM blocklist WHERE chat = ?`, &opts)
	if err != nil {
		return nil, fmt.Errorf("couldn't load blocklist: %w", err)
	}
	return r, nil
}

// Save stores the record for rec's chat.
func (d *DB) Save(ctx context.Context, rec *blocklist.Record) error {
	words, err := json.Marshal(rec.BlockedWords)
	if err != nil {
		return fmt.Errorf("couldn't encode words for chat %d: %w", rec.ChatID, err)
	}
	conn, err := d.db.Take(ctx)
	defer d.db.Put(conn)
	if err != nil {
		return fmt.Errorf("couldn't get connection to save blocklist: %w", err)
	}
	const upsert = `INSERT INTO blocklist (chat, words, active, action, delete_message)
		VALUES (:chat, :words, :active, :action, :delete)
		ON CONFLICT (chat) DO UPDATE SET
			words = excluded.words,
			active = excluded.active,
			action = excluded.action,
			delete_message = excluded.delete_message`
	opts := sqlitex.ExecOptions{
		Named: map[string]any{
			":chat":   rec.ChatID,
			":words":  string(words),
			":active": rec.Active,
			":action": rec.Action.String(),
			":delete": rec.DeleteMessage,
		},
	}
	if err := sqlitex.Execute(conn, upsert, &opts); err != nil {
		return fmt.Errorf("couldn't save blocklist: %w", err)
	}
	return nil
}
