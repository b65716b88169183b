// Package message defines platform-neutral chat messages.
package message

import (
	"fmt"
	"strings"
)

// Received is a message received from a chat.
type Received struct {
	// ID is the ID of the message within its chat.
	ID int
	// Chat is the chat to which the message was sent.
	Chat int64
	// Sender is the user ID of the message sender.
	// It is zero for messages not sent by a user, e.g. channel posts.
	Sender int64
	// Name is the display name of the message sender.
	Name string
	// Text is the text of the message, or its caption for media messages.
	Text string
	// Timestamp is the timestamp of the message as milliseconds since the
	// Unix epoch.
	Timestamp int64
	// Edited is true if the message is a new version of an earlier message.
	Edited bool
}

// Sent is a message to be sent to a chat.
type Sent struct {
	// Reply is the ID of a message to reply to. If zero, the message is not
	// a reply.
	Reply int
	// To is the chat to which the message is sent.
	To int64
	// Text is the message text.
	Text string
}

// formatString is a type to prevent misuse of format strings passed to [Format].
type formatString string

// Format constructs a message to send from a format string literal and
// formatting arguments.
func Format(reply int, to int64, f formatString, args ...any) Sent {
	return Sent{
		Reply: reply,
		To:    to,
		Text:  strings.TrimSpace(fmt.Sprintf(string(f), args...)),
	}
}
