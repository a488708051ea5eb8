// Package commands maps chat commands to the statistics, regression and
// cipher packages and formats their replies.
package commands

import (
	"context"
	"strconv"
)

// Platform message limits. Replies longer than these are truncated.
const (
	MaxContentLength    = 2000
	MaxEmbedFieldLength = 1024
)

// Invocation is one typed command from the chat platform.
type Invocation struct {
	Name    string  `json:"name"`
	Options Options `json:"options"`
}

// Options holds the raw option values of an invocation keyed by name.
type Options map[string]string

// String returns the named option, or "" when it was not supplied.
func (o Options) String(name string) string {
	return o[name]
}

// Int returns the named integer option and whether it was supplied.
// Dispatch has already checked that supplied integer options parse.
func (o Options) Int(name string) (int, bool) {
	raw, ok := o[name]
	if !ok || raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// EmbedField is one titled block of an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Embed is a rich reply card.
type Embed struct {
	Title  string       `json:"title"`
	Color  int          `json:"color"`
	Fields []EmbedField `json:"fields"`
}

// Response is the reply to an invocation. Ephemeral replies are shown only
// to the invoking user.
type Response struct {
	Content   string  `json:"content,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty"`
	Ephemeral bool    `json:"ephemeral"`
}

// Handler runs one command against already validated options.
type Handler func(ctx context.Context, opts Options) (Response, error)

// OptionType is the platform type of an option value.
type OptionType string

const (
	OptionString  OptionType = "string"
	OptionInteger OptionType = "integer"
)

// Choice is one allowed value of an option.
type Choice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OptionDefinition describes one command option for registration.
type OptionDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        OptionType `json:"type"`
	Required    bool       `json:"required"`
	Choices     []Choice   `json:"choices,omitempty"`
}

// Definition describes a command for registration with the platform.
type Definition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Options     []OptionDefinition `json:"options"`
}

// Command pairs a definition with its handler.
type Command struct {
	Definition
	Handler Handler
}
