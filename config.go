package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/ezmod/ezmod/blocklist"
	"github.com/ezmod/ezmod/blocklist/filestore"
	"github.com/ezmod/ezmod/blocklist/kvstore"
	"github.com/ezmod/ezmod/blocklist/sqlstore"
	"github.com/ezmod/ezmod/moderation"
	"github.com/ezmod/ezmod/telegram"
)

// Load loads the bot configuration from TOML.
// Environment variables in string values are expanded.
func Load(ctx context.Context, r io.Reader) (*Config, *toml.MetaData, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't decode config: %w", err)
	}
	expandcfg(&cfg, os.Getenv)
	return &cfg, &md, nil
}

// loadConfig opens and loads a config file, warning about unknown keys.
func loadConfig(ctx context.Context, file string) (*Config, error) {
	if file == "" {
		return nil, errors.New("no config file")
	}
	r, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("couldn't open config file: %w", err)
	}
	defer r.Close()
	cfg, md, err := Load(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("couldn't load config: %w", err)
	}
	for _, k := range md.Undecoded() {
		slog.WarnContext(ctx, "unknown config key", slog.String("key", k.String()))
	}
	return cfg, nil
}

// loadEnv loads environment variables from a dotenv file.
// If file is empty, .env in the working directory is used if it exists.
// Variables already set in the environment take precedence.
func loadEnv(file string) error {
	if file == "" {
		err := godotenv.Load()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(file); err != nil {
		return fmt.Errorf("couldn't load env file: %w", err)
	}
	return nil
}

// SetSources creates the blocklist store over a backend.
func (robo *Robot) SetSources(ctx context.Context, backend blocklist.Backend) {
	robo.blocklist = blocklist.New(backend, slog.Default())
}

// InitTelegram connects to Telegram and creates the moderation engine.
// It must be called after SetSources.
func (robo *Robot) InitTelegram(ctx context.Context, cfg TelegramCfg) error {
	poll := fseconds(cfg.Poll)
	if poll <= 0 {
		poll = 30 * time.Second
	}
	timeout := fseconds(cfg.Timeout)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var lim rate.Limit
	if cfg.Rate.Every > 0 {
		lim = rate.Every(fseconds(cfg.Rate.Every))
	}
	tc := telegram.Config{
		Token:    cfg.Token,
		Endpoint: cfg.Endpoint,
		// Long polls hold the request open for the poll duration.
		HTTP:  &http.Client{Timeout: poll + timeout},
		Rate:  lim,
		Burst: cfg.Rate.Num,
		Poll:  poll,
		Log:   slog.Default(),
	}
	tg, err := telegram.New(ctx, tc)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "connected to Telegram", slog.String("name", tg.Name()), slog.Int64("id", tg.ID()))
	robo.updates = tg
	robo.engine = moderation.New(moderation.Config{
		Log:       slog.Default(),
		Name:      tg.Name(),
		Blocklist: robo.blocklist,
		Platform:  tg,
		Metrics:   robo.metrics,
	})
	return nil
}

// loadBackend opens the configured blocklist backend.
// The returned function closes any underlying database.
func loadBackend(ctx context.Context, cfg StoreCfg) (blocklist.Backend, func() error, error) {
	n := 0
	for _, s := range []string{cfg.File, cfg.KV, cfg.SQL} {
		if s != "" {
			n++
		}
	}
	if n > 1 {
		return nil, nil, fmt.Errorf("multiple blocklist backends requested; use exactly one")
	}
	switch {
	case cfg.KV != "":
		slog.DebugContext(ctx, "using kvstore", slog.String("path", cfg.KV), slog.String("flags", cfg.KVFlag))
		opts := badger.DefaultOptions(cfg.KV)
		opts = opts.WithLogger(nil)
		opts = opts.WithCompression(options.None)
		db, err := badger.Open(opts.FromSuperFlag(cfg.KVFlag))
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't open kvstore db: %w", err)
		}
		return kvstore.New(db), db.Close, nil
	case cfg.SQL != "":
		slog.DebugContext(ctx, "using sqlstore", slog.String("path", cfg.SQL))
		pool, err := sqlitex.NewPool(cfg.SQL, sqlitex.PoolOptions{})
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't open sqlstore db: %w", err)
		}
		db, err := sqlstore.Open(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("couldn't open sqlstore: %w", err)
		}
		return db, pool.Close, nil
	default:
		file := cfg.File
		if file == "" {
			file = "blocklist.json"
		}
		slog.DebugContext(ctx, "using filestore", slog.String("path", file))
		return filestore.Open(file, slog.Default()), func() error { return nil }, nil
	}
}

func fseconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Config is the bot configuration.
type Config struct {
	// Telegram is the configuration for connecting to Telegram.
	Telegram TelegramCfg `toml:"telegram"`
	// Store is the blocklist storage configuration.
	Store StoreCfg `toml:"store"`
	// HTTP is the configuration for the HTTP API.
	HTTP HTTP `toml:"http"`
}

// TelegramCfg is the configuration for the Telegram Bot API client.
type TelegramCfg struct {
	// Token is the bot token. It usually refers to an environment variable,
	// e.g. "${EZMOD_TOKEN}".
	Token string `toml:"token"`
	// Endpoint is the API endpoint format, for local Bot API servers.
	Endpoint string `toml:"endpoint"`
	// Timeout is the HTTP request timeout in seconds, in addition to the
	// long polling duration.
	Timeout float64 `toml:"timeout"`
	// Poll is the long polling duration in seconds.
	Poll float64 `toml:"poll"`
	// Rate is the global rate limit for outbound requests.
	Rate Rate `toml:"rate"`
}

// StoreCfg selects the blocklist backend. At most one may be set.
// If none is, the file backend is used with blocklist.json.
type StoreCfg struct {
	// File is the path to a JSON blocklist file.
	File string `toml:"file"`
	// KV is the path to a Badger database directory.
	KV string `toml:"kv"`
	// KVFlag is a Badger superflag string for options.
	KVFlag string `toml:"kvflag"`
	// SQL is an SQLite connection string.
	SQL string `toml:"sql"`
}

// HTTP is the configuration for the HTTP API.
type HTTP struct {
	// Listen is the address on which to serve. If empty, the API is disabled.
	Listen string `toml:"listen"`
}

// Rate is a rate limit configuration.
type Rate struct {
	Every float64 `toml:"every"`
	Num   int     `toml:"num"`
}

func expandcfg(cfg *Config, expand func(s string) string) {
	fields := []*string{
		&cfg.Telegram.Token,
		&cfg.Telegram.Endpoint,
		&cfg.Store.File,
		&cfg.Store.KV,
		&cfg.Store.KVFlag,
		&cfg.Store.SQL,
		&cfg.HTTP.Listen,
	}
	for _, f := range fields {
		*f = os.Expand(*f, expand)
	}
}
