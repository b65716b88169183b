package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/urfave/cli/v3"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/ezmod/ezmod/blocklist"
	"github.com/ezmod/ezmod/blocklist/sqlstore"
)

var app = cli.Command{
	Name:  "ezmod",
	Usage: "Telegram chat blocklist moderation bot",

	Flags: []cli.Flag{
		&flagConfig,
		&flagLog,
		&flagLogFormat,
		&flagEnv,
	},
	Commands: []*cli.Command{
		{
			Name:  "init-sql",
			Usage: "Create the blocklist schema in an SQLite database",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "db",
					Usage:    "SQLite connection string",
					Required: true,
				},
			},
			Action: cliInitSQL,
		},
		{
			Name:  "show",
			Usage: "Print a chat's blocklist record as JSON",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "chat",
					Usage:    "Chat ID",
					Required: true,
				},
			},
			Action: cliShow,
		},
	},
	Action: cliRun,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		stop()
	}()
	err := app.Run(ctx, os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func cliRun(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	if err := loadEnv(cmd.String("env")); err != nil {
		return err
	}
	cfg, err := loadConfig(ctx, cmd.String("config"))
	if err != nil {
		return err
	}
	backend, closer, err := loadBackend(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closer()

	robo := New(runtime.GOMAXPROCS(0))
	robo.SetSources(ctx, backend)
	if err := robo.InitTelegram(ctx, cfg.Telegram); err != nil {
		return err
	}
	return robo.Run(ctx, cfg.HTTP.Listen)
}

func cliInitSQL(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	dsn := cmd.String("db")
	pool, err := sqlitex.NewPool(dsn, sqlitex.PoolOptions{})
	if err != nil {
		return fmt.Errorf("couldn't open db: %w", err)
	}
	defer pool.Close()
	if err := sqlstore.Init(ctx, pool); err != nil {
		return fmt.Errorf("couldn't initialize db: %w", err)
	}
	slog.InfoContext(ctx, "initialized blocklist schema", slog.String("db", dsn))
	return nil
}

func cliShow(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	if err := loadEnv(cmd.String("env")); err != nil {
		return err
	}
	cfg, err := loadConfig(ctx, cmd.String("config"))
	if err != nil {
		return err
	}
	backend, closer, err := loadBackend(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closer()
	s := blocklist.New(backend, slog.Default())
	rec := s.Snapshot(ctx, int64(cmd.Int("chat")))
	b, err := json.Marshal(&rec, jsontext.WithIndent("\t"))
	if err != nil {
		return fmt.Errorf("couldn't encode record: %w", err)
	}
	fmt.Println(string(b))
	return nil
}

var (
	flagConfig = cli.StringFlag{
		Name:       "config",
		Usage:      "TOML config file",
		Persistent: true,
		Action: func(ctx context.Context, cmd *cli.Command, s string) error {
			i, err := os.Stat(s)
			if err != nil {
				return err
			}
			if !i.Mode().IsRegular() {
				return errors.New("config must be a regular file")
			}
			return nil
		},
	}

	flagEnv = cli.StringFlag{
		Name:       "env",
		Usage:      "dotenv file to load before reading config (default .env if present)",
		Persistent: true,
	}

	flagLog = cli.StringFlag{
		Name:       "log",
		Usage:      "Logging level, one of debug, info, warn, error",
		Value:      "info",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			var l slog.Level
			return l.UnmarshalText([]byte(s))
		},
	}

	flagLogFormat = cli.StringFlag{
		Name:       "log-format",
		Usage:      "Logging format, either text or json",
		Value:      "text",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			switch strings.ToLower(s) {
			case "text", "json":
				return nil
			default:
				return errors.New("unknown logging format")
			}
		},
	}
)

func loggerFromFlags(cmd *cli.Command) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(cmd.String("log"))); err != nil {
		panic(err)
	}
	var h slog.Handler
	switch strings.ToLower(cmd.String("log-format")) {
	case "text":
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	case "json":
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	}
	return slog.New(h)
}
