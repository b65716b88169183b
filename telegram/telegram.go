// Package telegram implements the chat platform over the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/ezmod/ezmod/message"
	"github.com/ezmod/ezmod/platform"
)

// Client holds the context for requests to the Telegram Bot API.
type Client struct {
	bot   *tgbotapi.BotAPI
	hc    *http.Client
	limit *rate.Limiter
	log   *slog.Logger
	poll  time.Duration
}

var _ platform.API = (*Client)(nil)

// Config configures a Client.
type Config struct {
	// Token is the bot token from BotFather.
	Token string
	// Endpoint is the API endpoint format string, with verbs for the token
	// and method name. If empty, tgbotapi.APIEndpoint is used.
	Endpoint string
	// HTTP is the HTTP client for performing requests.
	// If nil, http.DefaultClient is used.
	HTTP *http.Client
	// Rate is the limit on outbound requests. Zero means no limit.
	Rate rate.Limit
	// Burst is the burst size of the rate limit. Zero means 1.
	Burst int
	// Poll is the long polling timeout for updates. Zero means 30 seconds.
	Poll time.Duration
	// Log is the logger for update polling. If nil, slog.Default is used.
	Log *slog.Logger
}

// doer attaches a context to requests made by the Telegram library, which
// otherwise makes requests without one.
type doer struct {
	ctx context.Context
	hc  *http.Client
}

func (d doer) Do(req *http.Request) (*http.Response, error) {
	return d.hc.Do(req.WithContext(d.ctx))
}

// New connects to the Telegram Bot API and identifies the bot.
// ctx applies only to connecting.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("no bot token")
	}
	ep := cfg.Endpoint
	if ep == "" {
		ep = tgbotapi.APIEndpoint
	}
	hc := cfg.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, ep, doer{ctx: ctx, hc: hc})
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to Telegram: %w", err)
	}
	lim := rate.Inf
	if cfg.Rate > 0 {
		lim = cfg.Rate
	}
	burst := max(cfg.Burst, 1)
	poll := cfg.Poll
	if poll <= 0 {
		poll = 30 * time.Second
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	c := Client{
		bot:   bot,
		hc:    hc,
		limit: rate.NewLimiter(lim, burst),
		log:   log,
		poll:  poll,
	}
	return &c, nil
}

// Name returns the bot's username.
func (c *Client) Name() string {
	return c.bot.Self.UserName
}

// ID returns the bot's user ID.
func (c *Client) ID() int64 {
	return c.bot.Self.ID
}

// api returns a copy of the bot whose requests are bound to ctx.
func (c *Client) api(ctx context.Context) *tgbotapi.BotAPI {
	b := *c.bot
	b.Client = doer{ctx: ctx, hc: c.hc}
	return &b
}

// request waits for the rate limit and then performs a request.
func (c *Client) request(ctx context.Context, r tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := c.limit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("couldn't wait for rate limit: %w", err)
	}
	return c.api(ctx).Request(r)
}

func (c *Client) SendMessage(ctx context.Context, msg message.Sent) error {
	m := tgbotapi.NewMessage(msg.To, msg.Text)
	if msg.Reply != 0 {
		m.ReplyToMessageID = msg.Reply
		m.AllowSendingWithoutReply = true
	}
	if _, err := c.request(ctx, m); err != nil {
		return fmt.Errorf("couldn't send message to %d: %w", msg.To, err)
	}
	return nil
}

func (c *Client) DeleteMessage(ctx context.Context, chat int64, id int) error {
	if _, err := c.request(ctx, tgbotapi.NewDeleteMessage(chat, id)); err != nil {
		return fmt.Errorf("couldn't delete message %d in %d: %w", id, chat, err)
	}
	return nil
}

func (c *Client) RestrictMember(ctx context.Context, chat, user int64, perms platform.Permissions, until time.Time) error {
	r := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chat, UserID: user},
		UntilDate:        until.Unix(),
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages:       perms.SendMessages,
			CanSendMediaMessages:  perms.SendMedia,
			CanSendOtherMessages:  perms.SendOther,
			CanAddWebPagePreviews: perms.SendOther,
		},
	}
	if _, err := c.request(ctx, r); err != nil {
		return fmt.Errorf("couldn't restrict %d in %d: %w", user, chat, err)
	}
	return nil
}

func (c *Client) BanMember(ctx context.Context, chat, user int64) error {
	r := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chat, UserID: user},
	}
	if _, err := c.request(ctx, r); err != nil {
		return fmt.Errorf("couldn't ban %d in %d: %w", user, chat, err)
	}
	return nil
}

func (c *Client) Administrators(ctx context.Context, chat int64) ([]int64, error) {
	if err := c.limit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("couldn't wait for rate limit: %w", err)
	}
	admins, err := c.api(ctx).GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: chat}})
	if err != nil {
		return nil, fmt.Errorf("couldn't get administrators of %d: %w", chat, err)
	}
	r := make([]int64, 0, len(admins))
	for _, m := range admins {
		if m.User != nil {
			r = append(r, m.User.ID)
		}
	}
	return r, nil
}
