// Package enforce applies blocklist actions to messages that violate them.
package enforce

import (
	"context"
	"log/slog"
	"time"

	"github.com/ezmod/ezmod/blocklist"
	"github.com/ezmod/ezmod/message"
	"github.com/ezmod/ezmod/metrics"
	"github.com/ezmod/ezmod/platform"
)

// MuteDuration is how long a muted user stays muted.
const MuteDuration = 5 * time.Minute

// Enforcer checks messages against chats' blocklists.
type Enforcer struct {
	Log       *slog.Logger
	Blocklist *blocklist.Store
	Platform  platform.API
	// Metrics is required.
	Metrics *metrics.Metrics
	// Now returns the current time. If nil, time.Now is used.
	Now func() time.Time
}

// Evaluate checks a message against its chat's blocklist and enforces the
// chat's action if the message contains a blocked word.
// It reports the matched word, if any.
func (e *Enforcer) Evaluate(ctx context.Context, msg *message.Received) (string, bool) {
	if msg.Sender == 0 || msg.Text == "" {
		return "", false
	}
	rec := e.Blocklist.Load(ctx, msg.Chat)
	if !rec.Active {
		return "", false
	}
	word, ok := rec.Match(msg.Text)
	if !ok {
		return "", false
	}
	e.Enforce(ctx, &rec, msg, word)
	return word, true
}

// Enforce applies rec's action to the sender of msg for using word.
// Failures of individual platform calls are logged and do not stop later
// steps.
func (e *Enforcer) Enforce(ctx context.Context, rec *blocklist.Record, msg *message.Received, word string) {
	start := e.now()
	log := e.Log.With(
		slog.Int64("chat", msg.Chat),
		slog.Int64("user", msg.Sender),
		slog.Int("message", msg.ID),
		slog.String("word", word),
		slog.String("action", rec.Action.String()),
	)
	log.InfoContext(ctx, "blocked word")
	e.Metrics.ViolationCount.Observe(1, rec.Action.String())
	// Reply to the offending message unless it's gone.
	reply := msg.ID
	if rec.DeleteMessage {
		reply = 0
		if err := e.Platform.DeleteMessage(ctx, msg.Chat, msg.ID); err != nil {
			log.ErrorContext(ctx, "couldn't delete message", slog.Any("err", err))
			e.Metrics.PlatformErrors.Observe(1, "delete")
			reply = msg.ID
		}
	}
	name := displayName(msg)
	switch rec.Action {
	case blocklist.Warn:
		e.send(ctx, log, message.Format(reply, msg.Chat, "%s, your message contains a blocked word: '%s'.", name, word))
	case blocklist.Mute:
		until := start.Add(MuteDuration)
		if err := e.Platform.RestrictMember(ctx, msg.Chat, msg.Sender, platform.Muted, until); err != nil {
			log.ErrorContext(ctx, "couldn't mute user", slog.Any("err", err))
			e.Metrics.PlatformErrors.Observe(1, "restrict")
			break
		}
		e.send(ctx, log, message.Format(reply, msg.Chat, "%s has been muted for %d minutes for using a blocked word.", name, int(MuteDuration/time.Minute)))
	case blocklist.Ban:
		if err := e.Platform.BanMember(ctx, msg.Chat, msg.Sender); err != nil {
			log.ErrorContext(ctx, "couldn't ban user", slog.Any("err", err))
			e.Metrics.PlatformErrors.Observe(1, "ban")
			break
		}
		e.send(ctx, log, message.Format(reply, msg.Chat, "%s has been banned for using a blocked word.", name))
	default:
		log.ErrorContext(ctx, "unknown action")
	}
	e.Metrics.EnforceLatency.Observe(e.now().Sub(start).Seconds(), rec.Action.String())
}

func (e *Enforcer) send(ctx context.Context, log *slog.Logger, msg message.Sent) {
	if err := e.Platform.SendMessage(ctx, msg); err != nil {
		log.ErrorContext(ctx, "couldn't send notice", slog.Any("err", err))
		e.Metrics.PlatformErrors.Observe(1, "send")
	}
}

func (e *Enforcer) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// displayName returns the name to use for the sender of a message.
func displayName(msg *message.Received) string {
	if msg.Name == "" {
		return "User"
	}
	return msg.Name
}
