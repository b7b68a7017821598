// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/roomchat/lib/flash"
)

// Theme defines the color palette of the chat surface. Colors are
// lipgloss ANSI 256-color codes; peer handles use the peer's own
// avatar color instead.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	HeaderForeground lipgloss.Color
	HeaderBackground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Flash notifications.
	NoticeForeground lipgloss.Color
	ErrorForeground  lipgloss.Color

	// Message bodies.
	LinkForeground lipgloss.Color
	CodeForeground lipgloss.Color
	CodeBackground lipgloss.Color

	// Directed records addressed to the local user.
	PingForeground    lipgloss.Color
	WhisperForeground lipgloss.Color
}

// SeverityColor returns the flash color for severity.
func (theme Theme) SeverityColor(severity flash.Severity) lipgloss.Color {
	if severity == flash.Error {
		return theme.ErrorForeground
	}
	return theme.NoticeForeground
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	HeaderForeground: lipgloss.Color("255"),
	HeaderBackground: lipgloss.Color("236"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	NoticeForeground: lipgloss.Color("114"), // green
	ErrorForeground:  lipgloss.Color("196"), // red

	LinkForeground: lipgloss.Color("75"), // blue
	CodeForeground: lipgloss.Color("223"),
	CodeBackground: lipgloss.Color("235"),

	PingForeground:    lipgloss.Color("220"), // amber
	WhisperForeground: lipgloss.Color("141"), // light purple
}
