// Package platformtest provides a recording implementation of platform.API
// for tests.
package platformtest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ezmod/ezmod/message"
	"github.com/ezmod/ezmod/platform"
)

// Call is a recorded call to a [Platform].
type Call struct {
	// Method is the name of the API method called.
	Method string
	Chat   int64
	// User is the target user for RestrictMember and BanMember.
	User int64
	// Message is the message ID for DeleteMessage or the reply-to ID for
	// SendMessage.
	Message int
	// Text is the text of a sent message.
	Text  string
	Perms platform.Permissions
	Until time.Time
}

// Platform is a platform.API that records calls.
// The zero value has no administrators in any chat and never fails.
type Platform struct {
	mu    sync.Mutex
	calls []Call
	// Admins maps chats to their administrators.
	Admins map[int64][]int64
	// Fail maps method names to errors returned by those methods.
	// Failed calls are still recorded.
	Fail map[string]error
}

var _ platform.API = (*Platform)(nil)

// New creates a new fake platform with the given administrators.
func New(admins map[int64][]int64) *Platform {
	return &Platform{Admins: admins}
}

// FailOn causes subsequent calls to method to return err.
func (p *Platform) FailOn(method string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail == nil {
		p.Fail = make(map[string]error)
	}
	p.Fail[method] = err
}

// Calls returns a copy of the calls recorded so far in order.
func (p *Platform) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

// Sent returns the texts of sent messages in order.
func (p *Platform) Sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var r []string
	for _, c := range p.calls {
		if c.Method == "SendMessage" {
			r = append(r, c.Text)
		}
	}
	return r
}

// Reset forgets recorded calls.
func (p *Platform) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}

func (p *Platform) record(c Call) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, c)
	return p.Fail[c.Method]
}

func (p *Platform) SendMessage(ctx context.Context, msg message.Sent) error {
	return p.record(Call{Method: "SendMessage", Chat: msg.To, Message: msg.Reply, Text: msg.Text})
}

func (p *Platform) DeleteMessage(ctx context.Context, chat int64, id int) error {
	return p.record(Call{Method: "DeleteMessage", Chat: chat, Message: id})
}

func (p *Platform) RestrictMember(ctx context.Context, chat, user int64, perms platform.Permissions, until time.Time) error {
	return p.record(Call{Method: "RestrictMember", Chat: chat, User: user, Perms: perms, Until: until})
}

func (p *Platform) BanMember(ctx context.Context, chat, user int64) error {
	return p.record(Call{Method: "BanMember", Chat: chat, User: user})
}

func (p *Platform) Administrators(ctx context.Context, chat int64) ([]int64, error) {
	if err := p.record(Call{Method: "Administrators", Chat: chat}); err != nil {
		return nil, fmt.Errorf("couldn't get administrators: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.Admins[chat]), nil
}
