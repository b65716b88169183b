// Package command implements chat commands for managing a chat's blocklist.
package command

import (
	"context"

	"github.com/ezmod/ezmod/message"
)

// Invocation is a command invocation. An Invocation and its fields must not
// be modified or retained by any command.
type Invocation struct {
	// Message is the message which triggered the invocation. It is always
	// non-nil.
	Message *message.Received
	// Name is the command name without its leading slash.
	Name string
	// Arg is the text following the command name with surrounding
	// whitespace removed. It is empty if the command had no argument.
	Arg string
}

// Func executes a command.
type Func func(ctx context.Context, robo *Robot, call *Invocation)

// Command is a command available to chat users.
type Command struct {
	// Name is the command name without its leading slash.
	Name string
	// Fn executes the command.
	Fn Func
	// Anyone is whether non-administrators may use the command.
	Anyone bool
}

// Commands is the list of all commands.
var Commands = []Command{
	{Name: "addblock", Fn: AddBlock},
	{Name: "rmblock", Fn: RemoveBlock},
	{Name: "clearblock", Fn: ClearBlock},
	{Name: "blocklist", Fn: List, Anyone: true},
	{Name: "blockon", Fn: BlockOn},
	{Name: "actblock", Fn: ActBlock},
	{Name: "delblock", Fn: DelBlock},
	{Name: "bstat", Fn: Status},
}

// Lookup finds a command by name.
func Lookup(name string) *Command {
	for i := range Commands {
		if Commands[i].Name == name {
			return &Commands[i]
		}
	}
	return nil
}
