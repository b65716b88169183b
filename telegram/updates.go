package telegram

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ezmod/ezmod/message"
)

// Updates long-polls for chat messages and calls handle with each one until
// ctx is canceled. Edited messages are delivered with Edited set.
// Polling errors are logged and retried with backoff.
// handle should not block for long; it delays receipt of further updates.
func (c *Client) Updates(ctx context.Context, handle func(context.Context, *message.Received)) error {
	cfg := tgbotapi.UpdateConfig{
		Timeout:        int(c.poll / time.Second),
		AllowedUpdates: []string{"message", "edited_message"},
	}
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ups, err := c.api(ctx).GetUpdates(cfg)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.ErrorContext(ctx, "couldn't get updates", slog.Any("err", err), slog.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(2*backoff, time.Minute)
			continue
		}
		backoff = time.Second
		for _, u := range ups {
			cfg.Offset = u.UpdateID + 1
			switch {
			case u.Message != nil:
				handle(ctx, message.FromTelegram(u.Message))
			case u.EditedMessage != nil:
				m := message.FromTelegram(u.EditedMessage)
				m.Edited = true
				handle(ctx, m)
			}
		}
	}
}
