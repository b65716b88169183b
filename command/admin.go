package command

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ezmod/ezmod/platform"
)

// ErrAuthorizationUnavailable is returned when a user's administrator status
// cannot be determined.
var ErrAuthorizationUnavailable = errors.New("authorization unavailable")

// IsAdmin checks whether a user is an administrator of a chat.
// Administrator lists are fetched on every call.
func IsAdmin(ctx context.Context, api platform.API, chat, user int64) (bool, error) {
	admins, err := api.Administrators(ctx, chat)
	if err != nil {
		return false, fmt.Errorf("couldn't check admin status of %d in %d: %w: %w", user, chat, ErrAuthorizationUnavailable, err)
	}
	return slices.Contains(admins, user), nil
}
