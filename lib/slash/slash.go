// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package slash parses the composer's slash commands.
//
// A line starting with "/name" followed by whitespace or the end of the
// line invokes that command. Lines that start with an unknown "/word"
// are ordinary messages.
package slash

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bureau-foundation/roomchat/lib/chat"
)

// Command describes one slash command.
type Command struct {
	Name  string
	Help  string
	Usage string

	// Kind is the outbound event kind for directed commands and empty
	// for local ones.
	Kind chat.Kind

	// RequiresMessage is set for directed commands that cannot be sent
	// without message text.
	RequiresMessage bool
}

// Commands lists the available commands in help order.
var Commands = []Command{
	{
		Name:            "growl",
		Help:            "Send a growl notification to a user",
		Usage:           "/growl [user] [message]",
		Kind:            chat.KindGrowl,
		RequiresMessage: true,
	},
	{
		Name:  "ping",
		Help:  "Send a ping notification to a user",
		Usage: "/ping [user] [message]",
		Kind:  chat.KindPing,
	},
	{
		Name:            "whisper",
		Help:            "Send a message to a specific user",
		Usage:           "/whisper [user] [message]",
		Kind:            chat.KindWhisper,
		RequiresMessage: true,
	},
	{
		Name:  "help",
		Help:  "Show commands help",
		Usage: "/help [command]",
	},
}

// DefaultPingText is sent when /ping is given no message.
const DefaultPingText = "ping"

// Lookup returns the command called name.
func Lookup(name string) (Command, bool) {
	for _, command := range Commands {
		if command.Name == name {
			return command, true
		}
	}
	return Command{}, false
}

// UsageError reports a malformed command line.
type UsageError struct {
	Command Command
	Reason  string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("/%s: %s (usage: %s)", e.Command.Name, e.Reason, e.Command.Usage)
}

// Action is what a composed line asks for.
type Action int

const (
	// ActionMessage sends Invocation.Text as a chat message.
	ActionMessage Action = iota

	// ActionHelp appends Invocation.Text as a local help record.
	ActionHelp

	// ActionDirected sends a directed payload to Invocation.Target.
	ActionDirected
)

// Invocation is a parsed composer line.
type Invocation struct {
	Action  Action
	Command Command

	// Text is the message for ActionMessage, the rendered help for
	// ActionHelp, and the directed message for ActionDirected.
	Text string

	// Target is the recipient handle for ActionDirected.
	Target string
}

// Payload returns the outbound data for a directed invocation sent by
// the peer with handle from.
func (i Invocation) Payload(from string) chat.DirectedData {
	return chat.DirectedData{To: i.Target, Msg: i.Text, From: from}
}

var (
	commandPattern  = regexp.MustCompile(`^/([a-z]+)(?:\s+|$)`)
	argumentPattern = regexp.MustCompile(`^/[a-z]+\s+(\S+)(?:\s+([\s\S]*))?$`)
)

// Parse interprets one composed line. The line is trimmed first; an
// empty line yields an ActionMessage with empty Text, which callers
// drop. Malformed commands return a *UsageError.
func Parse(line string) (Invocation, error) {
	line = strings.TrimSpace(line)
	match := commandPattern.FindStringSubmatch(line)
	if match == nil {
		return Invocation{Action: ActionMessage, Text: line}, nil
	}
	command, ok := Lookup(match[1])
	if !ok {
		return Invocation{Action: ActionMessage, Text: line}, nil
	}

	var target, text string
	if arguments := argumentPattern.FindStringSubmatch(line); arguments != nil {
		target, text = arguments[1], strings.TrimSpace(arguments[2])
	}

	if command.Kind == "" {
		help, err := Help(target)
		if err != nil {
			return Invocation{}, &UsageError{Command: command, Reason: err.Error()}
		}
		return Invocation{Action: ActionHelp, Command: command, Text: help}, nil
	}

	if target == "" {
		return Invocation{}, &UsageError{Command: command, Reason: "missing user"}
	}
	if text == "" {
		if command.RequiresMessage {
			return Invocation{}, &UsageError{Command: command, Reason: "missing message"}
		}
		text = DefaultPingText
	}
	return Invocation{Action: ActionDirected, Command: command, Target: target, Text: text}, nil
}

// Help renders help for the named command, or for every command when
// name is empty. A leading slash on name is ignored.
func Help(name string) (string, error) {
	name = strings.TrimPrefix(name, "/")
	if name != "" {
		command, ok := Lookup(name)
		if !ok {
			return "", fmt.Errorf("unknown command %q", name)
		}
		return describe(command), nil
	}
	var builder strings.Builder
	builder.WriteString("Help for all commands\n")
	for _, command := range Commands {
		builder.WriteString("\n")
		builder.WriteString(describe(command))
	}
	return builder.String(), nil
}

func describe(command Command) string {
	return fmt.Sprintf("/%s: %s\nUsage: %s\n", command.Name, command.Help, command.Usage)
}
