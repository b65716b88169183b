package command

import (
	"context"
	"log/slog"

	"github.com/ezmod/ezmod/message"
)

// Result is the outcome of dispatching a message.
type Result int

const (
	// NotCommand means the message is not a command addressed to the bot.
	NotCommand Result = iota
	// Rejected means the command is unknown or the sender may not use it.
	// The sender has been told so.
	Rejected
	// Ran means the command was executed.
	Ran
)

// Dispatch runs the command in msg, if it is one addressed to this bot.
func Dispatch(ctx context.Context, robo *Robot, msg *message.Received) Result {
	name, arg, ok := Parse(msg.Text, robo.Name)
	if !ok {
		return NotCommand
	}
	call := Invocation{Message: msg, Name: name, Arg: arg}
	c := Lookup(name)
	if c == nil {
		robo.Log.DebugContext(ctx, "unknown command", slog.String("name", name))
		robo.count(name, "unknown")
		robo.reply(ctx, &call, message.Format(0, 0, "Unknown command."))
		return Rejected
	}
	if !c.Anyone {
		admin, err := IsAdmin(ctx, robo.Platform, msg.Chat, msg.Sender)
		if err != nil {
			robo.Log.WarnContext(ctx, "treating user as non-admin",
				slog.Any("err", err),
				slog.Int64("chat", msg.Chat),
				slog.Int64("user", msg.Sender),
			)
			robo.Metrics.PlatformErrors.Observe(1, "admins")
		}
		if !admin {
			robo.Log.InfoContext(ctx, "permission denied",
				slog.String("name", name),
				slog.Int64("chat", msg.Chat),
				slog.Int64("user", msg.Sender),
			)
			robo.count(name, "denied")
			robo.reply(ctx, &call, message.Format(0, 0, "You do not have permission to use this command."))
			return Rejected
		}
	}
	robo.Log.InfoContext(ctx, "command",
		slog.String("name", name),
		slog.String("arg", arg),
		slog.Int64("chat", msg.Chat),
		slog.Int64("user", msg.Sender),
	)
	c.Fn(ctx, robo, &call)
	return Ran
}
