package main_test

import (
	"context"
	_ "embed"
	"strings"
	"testing"

	main "github.com/ezmod/ezmod"
)

//go:embed example.toml
var exampleToml string

func eqcase[T comparable](t *testing.T, name string, val T, eq T) {
	t.Helper()
	if val != eq {
		t.Errorf("wrong %s: want %#v, got %#v", name, eq, val)
	}
}

func TestExampleConfig(t *testing.T) {
	t.Setenv("EZMOD_TOKEN", "123456:bocchi")
	cfg, md, err := main.Load(context.Background(), strings.NewReader(exampleToml))
	if err != nil {
		t.Fatalf("failed to load example.toml: %v", err)
	}
	eqcase(t, "Telegram.Token", cfg.Telegram.Token, "123456:bocchi")
	eqcase(t, "Telegram.Endpoint", cfg.Telegram.Endpoint, "")
	eqcase(t, "Telegram.Timeout", cfg.Telegram.Timeout, 10)
	eqcase(t, "Telegram.Poll", cfg.Telegram.Poll, 50)
	eqcase(t, "Telegram.Rate.Every", cfg.Telegram.Rate.Every, 0.05)
	eqcase(t, "Telegram.Rate.Num", cfg.Telegram.Rate.Num, 20)
	eqcase(t, "Store.File", cfg.Store.File, "blocklist.json")
	eqcase(t, "Store.KV", cfg.Store.KV, "")
	eqcase(t, "Store.KVFlag", cfg.Store.KVFlag, "")
	eqcase(t, "Store.SQL", cfg.Store.SQL, "")
	eqcase(t, "HTTP.Listen", cfg.HTTP.Listen, ":4959")
	if u := md.Undecoded(); len(u) != 0 {
		t.Errorf("undecoded keys: %v", u)
	}
}

func TestExpand(t *testing.T) {
	t.Setenv("EZMOD_TOKEN", "")
	in := `
[telegram]
token = '${EZMOD_TOKEN}'
[store]
sql = 'file:${HOME_DIR}/blocklist.db'
`
	t.Setenv("HOME_DIR", "/home/kita")
	cfg, _, err := main.Load(context.Background(), strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	eqcase(t, "Telegram.Token", cfg.Telegram.Token, "")
	eqcase(t, "Store.SQL", cfg.Store.SQL, "file:/home/kita/blocklist.db")
}

func TestBadConfig(t *testing.T) {
	_, _, err := main.Load(context.Background(), strings.NewReader("[telegram]\ntoken = 1"))
	if err == nil {
		t.Error("no error from invalid config")
	}
}
