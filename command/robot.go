package command

import (
	"context"
	"log/slog"

	"github.com/ezmod/ezmod/blocklist"
	"github.com/ezmod/ezmod/message"
	"github.com/ezmod/ezmod/metrics"
	"github.com/ezmod/ezmod/platform"
)

// Robot is the bot state as is visible to commands.
type Robot struct {
	Log *slog.Logger
	// Name is the bot's own username, used to recognize commands addressed
	// to it with an @name suffix.
	Name      string
	Blocklist *blocklist.Store
	Platform  platform.API
	Metrics   *metrics.Metrics // required
}

// send sends a message, logging on failure.
func (robo *Robot) send(ctx context.Context, msg message.Sent) {
	if err := robo.Platform.SendMessage(ctx, msg); err != nil {
		robo.Log.ErrorContext(ctx, "couldn't send reply",
			slog.Any("err", err),
			slog.Int64("chat", msg.To),
			slog.String("text", msg.Text),
		)
		robo.Metrics.PlatformErrors.Observe(1, "send")
	}
}

// reply sends a reply to an invocation.
func (robo *Robot) reply(ctx context.Context, call *Invocation, msg message.Sent) {
	msg.Reply, msg.To = call.Message.ID, call.Message.Chat
	robo.send(ctx, msg)
}

func (robo *Robot) count(name, outcome string) {
	robo.Metrics.CommandCount.Observe(1, name, outcome)
}
