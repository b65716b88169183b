// Package platform describes the operations the moderation engine performs
// against a chat service.
package platform

import (
	"context"
	"time"

	"github.com/ezmod/ezmod/message"
)

// API is the set of chat service operations used for moderation.
// Implementations must be safe for concurrent use.
type API interface {
	// SendMessage sends a message to a chat.
	SendMessage(ctx context.Context, msg message.Sent) error
	// DeleteMessage deletes a message from a chat.
	DeleteMessage(ctx context.Context, chat int64, id int) error
	// RestrictMember sets a chat member's permissions until the given time.
	RestrictMember(ctx context.Context, chat, user int64, perms Permissions, until time.Time) error
	// BanMember removes a user from a chat and prevents them from rejoining.
	BanMember(ctx context.Context, chat, user int64) error
	// Administrators lists the user IDs of a chat's administrators.
	Administrators(ctx context.Context, chat int64) ([]int64, error)
}

// Permissions is the set of permissions a restricted chat member keeps.
// The zero value revokes everything.
type Permissions struct {
	SendMessages bool
	SendMedia    bool
	SendOther    bool
}

// Muted is the permission set for a muted member.
var Muted = Permissions{}
