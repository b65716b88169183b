package command

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		text string
		cmd  string
		arg  string
		ok   bool
	}{
		{"simple", "/addblock badword", "addblock", "badword", true},
		{"no-arg", "/clearblock", "clearblock", "", true},
		{"upper", "/AddBlock BadWord", "addblock", "BadWord", true},
		{"spaces", "  /addblock   bad word  ", "addblock", "bad word", true},
		{"newline", "/addblock\nbadword", "addblock", "badword", true},
		{"tab", "/blockon\ty", "blockon", "y", true},
		{"self", "/bstat@ezmod_bot", "bstat", "", true},
		{"self-case", "/blockon@EZMod_Bot n", "blockon", "n", true},
		{"other", "/bstat@other_bot", "", "", false},
		{"empty-addressee", "/bstat@", "", "", false},
		{"not-command", "addblock badword", "", "", false},
		{"slash-only", "/", "", "", false},
		{"slash-space", "/ addblock", "", "", false},
		{"empty", "", "", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cmd, arg, ok := Parse(c.text, "ezmod_bot")
			if cmd != c.cmd || arg != c.arg || ok != c.ok {
				t.Errorf("wrong parse of %q: want (%q, %q, %t), got (%q, %q, %t)", c.text, c.cmd, c.arg, c.ok, cmd, arg, ok)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"addblock", "rmblock", "clearblock", "blocklist", "blockon", "actblock", "delblock", "bstat"} {
		c := Lookup(name)
		if c == nil {
			t.Errorf("no command %q", name)
			continue
		}
		if c.Anyone != (name == "blocklist") {
			t.Errorf("wrong permission for %q: anyone=%t", name, c.Anyone)
		}
	}
	if c := Lookup("ban"); c != nil {
		t.Errorf("found nonexistent command: %+v", c)
	}
}
