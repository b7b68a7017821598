// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/roomchat/lib/flash"
	"github.com/bureau-foundation/roomchat/lib/loop"
	"github.com/bureau-foundation/roomchat/lib/session"
	"github.com/bureau-foundation/roomchat/lib/typing"
	"github.com/bureau-foundation/roomchat/lib/upload"
)

// Controller is the part of a session the surface drives.
// *session.Session satisfies it.
type Controller interface {
	Submit(line string) error
	Keystroke(key typing.Key) typing.Action
	Upload(files []upload.File) error
	Flash(message string, severity flash.Severity)
	Focus()
	Blur()
}

// SnapshotMsg carries a published session snapshot into the program.
type SnapshotMsg struct {
	Snapshot session.Snapshot
}

// uploadCommand is handled by the surface rather than the session: it
// names local files, which only the terminal side can open.
const uploadCommand = "/upload"

// chromeHeight is the number of rows outside the log viewport: header,
// typing line, status line and composer.
const chromeHeight = 4

// Options configures a Model.
type Options struct {
	// Controller and Poster are required. Every controller call is
	// posted so it runs on the session's goroutine.
	Controller Controller
	Poster     loop.Poster

	// Room is shown in the header.
	Room string

	// Theme defaults to DefaultTheme.
	Theme *Theme

	// FileURL links uploaded files.
	FileURL func(id string) string

	// Keys defaults to DefaultKeyMap.
	Keys *KeyMap
}

// Model is the bubbletea model of the chat surface.
type Model struct {
	controller Controller
	poster     loop.Poster
	keys       KeyMap
	renderer   Renderer
	room       string
	slab       *util.Slab

	input    textinput.Model
	viewport viewport.Model
	snapshot session.Snapshot

	width  int
	height int

	status           string
	statusLevel      slog.Level
	statusGeneration uint64
}

// NewModel returns a focused, empty surface.
func NewModel(options Options) Model {
	theme := DefaultTheme
	if options.Theme != nil {
		theme = *options.Theme
	}
	keys := DefaultKeyMap
	if options.Keys != nil {
		keys = *options.Keys
	}

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Connecting…"
	input.Focus()

	return Model{
		controller: options.Controller,
		poster:     options.Poster,
		keys:       keys,
		renderer:   Renderer{Theme: theme, FileURL: options.FileURL},
		room:       options.Room,
		slab:       newSlab(),
		input:      input,
	}
}

// Init starts the cursor blink.
func (model Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles one message.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case SnapshotMsg:
		model.snapshot = message.Snapshot
		model.input.Placeholder = placeholder(model.snapshot.State)
		model.refresh()
		return model, nil

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.viewport.Width = message.Width
		model.viewport.Height = max(message.Height-chromeHeight, 1)
		model.input.Width = max(message.Width-len(model.input.Prompt)-1, 1)
		model.refresh()
		return model, nil

	case tea.FocusMsg:
		model.post(model.controller.Focus)
		return model, nil

	case tea.BlurMsg:
		model.post(model.controller.Blur)
		return model, nil

	case logRecordMsg:
		model.status = message.Summary
		model.statusLevel = message.Level
		model.statusGeneration++
		generation := model.statusGeneration
		return model, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{generation: generation}
		})

	case logRecordFadeMsg:
		if message.generation == model.statusGeneration {
			model.status = ""
		}
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(message)
	}

	var command tea.Cmd
	model.input, command = model.input.Update(message)
	return model, command
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.PageUp):
		model.viewport.HalfViewUp()
		return model, nil

	case key.Matches(message, model.keys.PageDown):
		model.viewport.HalfViewDown()
		return model, nil

	case key.Matches(message, model.keys.Complete):
		if completed, ok := CompleteHandle(model.input.Value(), model.handles(), model.slab); ok {
			model.input.SetValue(completed)
			model.input.CursorEnd()
		}
		return model, nil

	case key.Matches(message, model.keys.Submit):
		line := model.input.Value()
		model.input.Reset()
		controller := model.controller
		model.post(func() {
			if controller.Keystroke(typing.Key{Enter: true}) == typing.ActionSubmit {
				submit(controller, line)
			}
		})
		return model, nil
	}

	var command tea.Cmd
	model.input, command = model.input.Update(message)
	stroke := keystroke(message)
	controller := model.controller
	model.post(func() { controller.Keystroke(stroke) })
	return model, command
}

// submit sends line, or starts an upload for an /upload line.
func submit(controller Controller, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed != uploadCommand && !strings.HasPrefix(trimmed, uploadCommand+" ") {
		controller.Submit(line)
		return
	}
	paths := strings.Fields(strings.TrimPrefix(trimmed, uploadCommand))
	if len(paths) == 0 {
		controller.Flash("/upload: missing file (usage: /upload [file]...)", flash.Error)
		return
	}
	files := make([]upload.File, len(paths))
	for index, path := range paths {
		files[index] = upload.FromPath(path)
	}
	controller.Upload(files)
}

// keystroke maps a bubbletea key to the composer key the typing
// debouncer classifies.
func keystroke(message tea.KeyMsg) typing.Key {
	switch message.Type {
	case tea.KeyRunes:
		if len(message.Runes) > 0 {
			return typing.Key{Rune: message.Runes[0]}
		}
	case tea.KeySpace:
		return typing.Key{Rune: ' '}
	case tea.KeyEnter:
		return typing.Key{Enter: true, Shift: message.Alt}
	}
	return typing.Key{}
}

func (model Model) post(task func()) {
	if model.poster == nil || model.controller == nil {
		return
	}
	model.poster.Post(task)
}

// handles lists the other peers' handles for completion.
func (model Model) handles() []string {
	handles := make([]string, 0, len(model.snapshot.Peers))
	for _, peer := range model.snapshot.Peers {
		if model.snapshot.HasSelf && peer.ID == model.snapshot.Self.ID {
			continue
		}
		handles = append(handles, peer.Handle)
	}
	return handles
}

// refresh re-renders the log, following the tail unless the user has
// scrolled up.
func (model *Model) refresh() {
	following := model.viewport.AtBottom()
	self := ""
	if model.snapshot.HasSelf {
		self = model.snapshot.Self.ID
	}
	lines := make([]string, len(model.snapshot.Messages))
	for index, message := range model.snapshot.Messages {
		lines[index] = model.renderer.Message(message, self, model.width)
	}
	model.viewport.SetContent(strings.Join(lines, "\n"))
	if following {
		model.viewport.GotoBottom()
	}
}

// View renders the surface.
func (model Model) View() string {
	theme := model.renderer.Theme
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)

	sections := []string{
		model.header(),
		model.viewport.View(),
		faint.Render(model.fit(TypingLine(model.snapshot.Typing))),
		model.statusLine(),
		model.input.View(),
	}
	return strings.Join(sections, "\n")
}

func (model Model) header() string {
	theme := model.renderer.Theme
	style := lipgloss.NewStyle().
		Foreground(theme.HeaderForeground).
		Background(theme.HeaderBackground).
		Bold(true)

	handles := make([]string, len(model.snapshot.Peers))
	for index, peer := range model.snapshot.Peers {
		handles[index] = peer.Handle
	}
	text := fmt.Sprintf(" %s · %s · %d online", model.room, model.snapshot.State, len(handles))
	if len(handles) > 0 {
		text += ": " + strings.Join(handles, ", ")
	}
	if model.width > 0 {
		style = style.Width(model.width)
	}
	return style.Render(model.fit(text))
}

// statusLine shows the flash notification, else the latest log record,
// else key help.
func (model Model) statusLine() string {
	theme := model.renderer.Theme
	if notification := model.snapshot.Flash; notification != nil {
		style := lipgloss.NewStyle().Foreground(theme.SeverityColor(notification.Severity))
		return style.Render(model.fit(notification.Message))
	}
	if model.status != "" {
		color := theme.FaintText
		if model.statusLevel >= slog.LevelError {
			color = theme.ErrorForeground
		}
		return lipgloss.NewStyle().Foreground(color).Render(model.fit(model.status))
	}
	help := []key.Binding{model.keys.Submit, model.keys.Complete, model.keys.PageUp, model.keys.Quit}
	parts := make([]string, len(help))
	for index, binding := range help {
		parts[index] = binding.Help().Key + " " + binding.Help().Desc
	}
	return lipgloss.NewStyle().Foreground(theme.HelpText).Render(model.fit(strings.Join(parts, " · ")))
}

func (model Model) fit(text string) string {
	if model.width <= 0 {
		return text
	}
	return ansi.Truncate(text, model.width, "…")
}

func placeholder(state session.State) string {
	switch state {
	case session.StateOpen:
		return "Message, or /help"
	case session.StateClosed:
		return "Disconnected"
	case session.StateDisposed:
		return "This room is gone"
	default:
		return "Connecting…"
	}
}
