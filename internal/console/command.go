// Package console is the interactive front end of a dice table: it maps
// raw input lines to engine operations and renders the table after each.
package console

import "strings"

type Command int

const (
	CommandInvalid Command = iota
	CommandRoll
	CommandUndo
	CommandRedo
)

const (
	TokenUndo = "UNDO"
	TokenRedo = "REDO"
)

func (c Command) String() string {
	switch c {
	case CommandRoll:
		return "roll"
	case CommandUndo:
		return "undo"
	case CommandRedo:
		return "redo"
	default:
		return "invalid"
	}
}

// ParseCommand maps one line of input to a command: an empty line rolls,
// the exact tokens UNDO and REDO undo and redo, and anything else is
// invalid. A trailing line ending is ignored.
func ParseCommand(line string) Command {
	switch strings.TrimRight(line, "\r\n") {
	case "":
		return CommandRoll
	case TokenUndo:
		return CommandUndo
	case TokenRedo:
		return CommandRedo
	default:
		return CommandInvalid
	}
}
