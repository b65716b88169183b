package command

import (
	"strings"
	"unicode"
)

// Parse splits a command message into its lowercased name and argument.
// If the text is not a command, or the name has an @ suffix naming a bot
// other than self, ok is false. Bot names are compared case-insensitively.
func Parse(text, self string) (name, arg string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	name = text[1:]
	if k := strings.IndexFunc(name, unicode.IsSpace); k >= 0 {
		name, arg = name[:k], name[k:]
	}
	name, to, addressed := strings.Cut(name, "@")
	if addressed && !strings.EqualFold(to, strings.TrimPrefix(self, "@")) {
		return "", "", false
	}
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(arg), true
}
