package command

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ezmod/ezmod/blocklist"
	"github.com/ezmod/ezmod/message"
)

// failed reports a blocklist update failure. Invalid arguments get the usage
// text; anything else is a storage failure.
func (robo *Robot) failed(ctx context.Context, call *Invocation, err error, usage message.Sent) {
	if errors.Is(err, blocklist.ErrInvalidArgument) {
		robo.count(call.Name, "usage")
		robo.reply(ctx, call, usage)
		return
	}
	robo.Log.ErrorContext(ctx, "couldn't update blocklist",
		slog.Any("err", err),
		slog.String("name", call.Name),
		slog.Int64("chat", call.Message.Chat),
	)
	robo.count(call.Name, "error")
	robo.reply(ctx, call, message.Format(0, 0, "Couldn't save the blocklist. Try again."))
}

func (robo *Robot) usage(ctx context.Context, call *Invocation, usage message.Sent) {
	robo.count(call.Name, "usage")
	robo.reply(ctx, call, usage)
}

// AddBlock adds a word to the chat's blocklist.
func AddBlock(ctx context.Context, robo *Robot, call *Invocation) {
	usage := message.Format(0, 0, "Usage: /addblock <word>")
	if call.Arg == "" {
		robo.usage(ctx, call, usage)
		return
	}
	if err := robo.Blocklist.AddWord(ctx, call.Message.Chat, call.Arg); err != nil {
		robo.failed(ctx, call, err, usage)
		return
	}
	robo.count(call.Name, "ok")
	robo.reply(ctx, call, message.Format(0, 0, "Added '%s' to blocklist.", call.Arg))
}

// RemoveBlock removes a word from the chat's blocklist.
func RemoveBlock(ctx context.Context, robo *Robot, call *Invocation) {
	usage := message.Format(0, 0, "Usage: /rmblock <word>")
	if call.Arg == "" {
		robo.usage(ctx, call, usage)
		return
	}
	if err := robo.Blocklist.RemoveWord(ctx, call.Message.Chat, call.Arg); err != nil {
		robo.failed(ctx, call, err, usage)
		return
	}
	robo.count(call.Name, "ok")
	robo.reply(ctx, call, message.Format(0, 0, "Removed '%s' from blocklist.", call.Arg))
}

// ClearBlock removes all words from the chat's blocklist.
func ClearBlock(ctx context.Context, robo *Robot, call *Invocation) {
	if err := robo.Blocklist.ClearWords(ctx, call.Message.Chat); err != nil {
		robo.failed(ctx, call, err, message.Sent{})
		return
	}
	robo.count(call.Name, "ok")
	robo.reply(ctx, call, message.Format(0, 0, "Blocklist cleared."))
}

// List shows the chat's blocked words.
func List(ctx context.Context, robo *Robot, call *Invocation) {
	r := robo.Blocklist.Snapshot(ctx, call.Message.Chat)
	robo.count(call.Name, "ok")
	if len(r.BlockedWords) == 0 {
		robo.reply(ctx, call, message.Format(0, 0, "Blocklist is empty."))
		return
	}
	robo.reply(ctx, call, message.Format(0, 0, "Blocklist: %s", strings.Join(r.BlockedWords, ", ")))
}

// BlockOn enables or disables the chat's blocklist.
func BlockOn(ctx context.Context, robo *Robot, call *Invocation) {
	usage := message.Format(0, 0, "Usage: /blockon y|n")
	if call.Arg == "" {
		robo.usage(ctx, call, usage)
		return
	}
	if err := robo.Blocklist.SetActive(ctx, call.Message.Chat, call.Arg); err != nil {
		robo.failed(ctx, call, err, usage)
		return
	}
	robo.count(call.Name, "ok")
	if on, _ := blocklist.ParseSwitch(call.Arg); on {
		robo.reply(ctx, call, message.Format(0, 0, "Blocklist is now active."))
	} else {
		robo.reply(ctx, call, message.Format(0, 0, "Blocklist is now inactive."))
	}
}

// ActBlock sets the action taken against senders of blocked words.
func ActBlock(ctx context.Context, robo *Robot, call *Invocation) {
	usage := message.Format(0, 0, "Usage: /actblock warn|mute|ban")
	if call.Arg == "" {
		robo.usage(ctx, call, usage)
		return
	}
	if err := robo.Blocklist.SetAction(ctx, call.Message.Chat, call.Arg); err != nil {
		robo.failed(ctx, call, err, usage)
		return
	}
	robo.count(call.Name, "ok")
	a, _ := blocklist.ParseAction(call.Arg)
	robo.reply(ctx, call, message.Format(0, 0, "Block action set to '%s'.", a))
}

// DelBlock sets whether messages containing blocked words are deleted.
func DelBlock(ctx context.Context, robo *Robot, call *Invocation) {
	usage := message.Format(0, 0, "Usage: /delblock y|n")
	if call.Arg == "" {
		robo.usage(ctx, call, usage)
		return
	}
	if err := robo.Blocklist.SetDeleteMessage(ctx, call.Message.Chat, call.Arg); err != nil {
		robo.failed(ctx, call, err, usage)
		return
	}
	robo.count(call.Name, "ok")
	if del, _ := blocklist.ParseSwitch(call.Arg); del {
		robo.reply(ctx, call, message.Format(0, 0, "Messages in violation will be deleted."))
	} else {
		robo.reply(ctx, call, message.Format(0, 0, "Messages in violation will not be deleted."))
	}
}

// Status shows the chat's blocklist settings.
func Status(ctx context.Context, robo *Robot, call *Invocation) {
	r := robo.Blocklist.Snapshot(ctx, call.Message.Chat)
	robo.count(call.Name, "ok")
	robo.reply(ctx, call, message.Format(0, 0,
		"Blocklist status:\nActive: %s\nAction: %s\nDelete messages: %s\nBlocked words: %d",
		yesno(r.Active), r.Action, yesno(r.DeleteMessage), len(r.BlockedWords),
	))
}

func yesno(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
