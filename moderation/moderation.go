// Package moderation routes chat messages to commands or blocklist
// enforcement.
package moderation

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"

	"github.com/ezmod/ezmod/blocklist"
	"github.com/ezmod/ezmod/command"
	"github.com/ezmod/ezmod/enforce"
	"github.com/ezmod/ezmod/message"
	"github.com/ezmod/ezmod/metrics"
	"github.com/ezmod/ezmod/platform"
)

// Engine handles inbound chat messages.
type Engine struct {
	log      *slog.Logger
	metrics  *metrics.Metrics
	robo     command.Robot
	enforcer enforce.Enforcer
}

// Config is the set of dependencies of an Engine.
type Config struct {
	// Log is the base logger. If nil, the default logger is used.
	Log *slog.Logger
	// Name is the bot's username.
	Name      string
	Blocklist *blocklist.Store
	Platform  platform.API
	// Metrics receives counts. If nil, unregistered metrics are used.
	Metrics *metrics.Metrics
}

// New creates a new moderation engine.
func New(cfg Config) *Engine {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Engine{
		log:     log,
		metrics: m,
		robo: command.Robot{
			Name:      cfg.Name,
			Blocklist: cfg.Blocklist,
			Platform:  cfg.Platform,
			Metrics:   m,
		},
		enforcer: enforce.Enforcer{
			Blocklist: cfg.Blocklist,
			Platform:  cfg.Platform,
			Metrics:   m,
		},
	}
}

// HandleMessage handles a single inbound message. Commands addressed to the
// bot are executed; all other messages, including commands that are unknown
// or refused and edits of earlier messages, are checked against the chat's
// blocklist. HandleMessage never panics.
func (e *Engine) HandleMessage(ctx context.Context, msg *message.Received) {
	log := e.log.With(
		slog.String("trace", uuid.NewString()),
		slog.Int64("chat", msg.Chat),
		slog.Int("message", msg.ID),
	)
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "panic handling message",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	if msg.Sender == 0 || msg.Text == "" {
		log.DebugContext(ctx, "ignoring message without sender or text")
		return
	}
	kind := "text"
	// Edits of earlier commands are only scanned, never run again.
	if !msg.Edited && strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
		robo := e.robo
		robo.Log = log
		switch command.Dispatch(ctx, &robo, msg) {
		case command.Ran:
			e.metrics.MessagesCount.Observe(1, "command")
			return
		case command.Rejected:
			// A refused command is still the sender's text in the chat.
			kind = "command"
		}
	}
	e.metrics.MessagesCount.Observe(1, kind)
	en := e.enforcer
	en.Log = log
	if word, ok := en.Evaluate(ctx, msg); ok {
		log.DebugContext(ctx, "enforced", slog.String("word", word))
	}
}
