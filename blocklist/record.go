// Package blocklist implements per-chat blocked word lists and moderation
// settings.
package blocklist

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Record is the blocklist state of a single chat.
type Record struct {
	// ChatID identifies the chat which the record describes.
	ChatID int64 `json:"chatId"`
	// BlockedWords is the list of literal substrings disallowed in the chat,
	// in the order they were added. Comparisons are case-insensitive.
	BlockedWords []string `json:"blockedWords"`
	// Active indicates whether enforcement runs in the chat.
	Active bool `json:"active"`
	// Action is the moderation action applied to violating senders.
	Action Action `json:"action"`
	// DeleteMessage indicates whether violating messages are deleted.
	DeleteMessage bool `json:"deleteMessage"`
}

// Default returns the record of a chat that has never been configured.
func Default(chat int64) Record {
	return Record{ChatID: chat, Action: Warn}
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() Record {
	c := *r
	c.BlockedWords = slices.Clone(r.BlockedWords)
	return c
}

// Contains reports whether the record's words include word case-insensitively.
func (r *Record) Contains(word string) bool {
	return r.index(word) >= 0
}

func (r *Record) index(word string) int {
	w := fold(word)
	return slices.IndexFunc(r.BlockedWords, func(s string) bool { return fold(s) == w })
}

// Match returns the first blocked word, in list order, that appears anywhere
// in text case-insensitively.
func (r *Record) Match(text string) (string, bool) {
	t := fold(text)
	for _, w := range r.BlockedWords {
		f := fold(w)
		if f == "" {
			continue
		}
		if strings.Contains(t, f) {
			return w, true
		}
	}
	return "", false
}

// fold applies Unicode case folding.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Action is a moderation action.
type Action int

const (
	// Warn sends a warning naming the blocked word.
	Warn Action = iota
	// Mute revokes the sender's permission to send messages for a while.
	Mute
	// Ban removes the sender from the chat.
	Ban
)

var actionNames = [...]string{Warn: "warn", Mute: "mute", Ban: "ban"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// ParseAction parses an action name case-insensitively.
func ParseAction(s string) (Action, bool) {
	s = strings.TrimSpace(s)
	for i, name := range actionNames {
		if strings.EqualFold(s, name) {
			return Action(i), true
		}
	}
	return Warn, false
}

// MarshalText implements [encoding.TextMarshaler].
func (a Action) MarshalText() ([]byte, error) {
	if a < 0 || int(a) >= len(actionNames) {
		return nil, fmt.Errorf("invalid action %d", int(a))
	}
	return []byte(actionNames[a]), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (a *Action) UnmarshalText(b []byte) error {
	v, ok := ParseAction(string(b))
	if !ok {
		return fmt.Errorf("unknown action %q", b)
	}
	*a = v
	return nil
}

// ParseSwitch parses a yes/no answer. The first result is the answer, and the
// second indicates whether s was recognized at all.
// Recognized values are y, yes, n, and no without regard to case.
func ParseSwitch(s string) (v, ok bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, "y"), strings.EqualFold(s, "yes"):
		return true, true
	case strings.EqualFold(s, "n"), strings.EqualFold(s, "no"):
		return false, true
	default:
		return false, false
	}
}
