// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/net/html"

	"github.com/bureau-foundation/roomchat/lib/chat"
	"github.com/bureau-foundation/roomchat/lib/chatlog"
	"github.com/bureau-foundation/roomchat/lib/typing"
)

// timestampLayout prefixes every log line.
const timestampLayout = "15:04"

var blankLines = regexp.MustCompile(`\n{3,}`)

// Renderer turns log records into styled terminal lines.
type Renderer struct {
	Theme Theme

	// FileURL maps an uploaded file's stored ID to a link. Nil shows
	// the bare ID.
	FileURL func(id string) string
}

// bodyWriter walks enriched HTML and accumulates styled text.
type bodyWriter struct {
	theme   Theme
	builder strings.Builder

	bold   int
	italic int
	code   int
	pre    int

	inLink   bool
	href     string
	linkText strings.Builder
}

// Body converts the HTML of an enriched message to terminal text.
// Unknown tags are dropped and their text kept, so the output never
// contains markup.
func (r Renderer) Body(source string) string {
	writer := &bodyWriter{theme: r.Theme}
	tokenizer := html.NewTokenizer(strings.NewReader(source))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return writer.finish()
		case html.TextToken:
			writer.text(string(tokenizer.Text()))
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttributes := tokenizer.TagName()
			attributes := map[string]string{}
			for hasAttributes {
				var key, value []byte
				key, value, hasAttributes = tokenizer.TagAttr()
				attributes[string(key)] = string(value)
			}
			writer.open(string(name), attributes)
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			writer.close(string(name))
		}
	}
}

func (w *bodyWriter) open(tag string, attributes map[string]string) {
	switch tag {
	case "strong", "b":
		w.bold++
	case "em", "i":
		w.italic++
	case "code":
		w.code++
	case "pre":
		w.pre++
		w.newline()
	case "br":
		w.builder.WriteByte('\n')
	case "li":
		w.newline()
		w.builder.WriteString("• ")
	case "a":
		w.inLink = true
		w.href = attributes["href"]
		w.linkText.Reset()
	case "iframe":
		style := lipgloss.NewStyle().Foreground(w.theme.FaintText)
		w.newline()
		w.builder.WriteString(style.Render("[video] " + attributes["src"]))
		w.builder.WriteByte('\n')
	}
}

func (w *bodyWriter) close(tag string) {
	switch tag {
	case "strong", "b":
		w.bold = max(w.bold-1, 0)
	case "em", "i":
		w.italic = max(w.italic-1, 0)
	case "code":
		w.code = max(w.code-1, 0)
	case "pre":
		w.pre = max(w.pre-1, 0)
		w.newline()
	case "p", "ul", "ol", "blockquote", "h1", "h2", "h3", "h4", "h5", "h6", "div":
		w.newline()
		w.builder.WriteByte('\n')
	case "a":
		w.inLink = false
		text := w.linkText.String()
		style := lipgloss.NewStyle().Foreground(w.theme.LinkForeground).Underline(true)
		w.builder.WriteString(style.Render(text))
		if w.href != "" && w.href != text {
			w.builder.WriteString(" <" + w.href + ">")
		}
	}
}

func (w *bodyWriter) text(value string) {
	if w.pre == 0 {
		value = strings.ReplaceAll(value, "\n", " ")
		if w.atLineStart() {
			value = strings.TrimLeft(value, " ")
		}
	}
	if value == "" {
		return
	}
	if w.inLink {
		w.linkText.WriteString(value)
		return
	}

	style := lipgloss.NewStyle()
	styled := false
	if w.bold > 0 {
		style = style.Bold(true)
		styled = true
	}
	if w.italic > 0 {
		style = style.Italic(true)
		styled = true
	}
	if w.code > 0 || w.pre > 0 {
		style = style.Foreground(w.theme.CodeForeground)
		styled = true
	}
	if !styled {
		w.builder.WriteString(value)
		return
	}
	// Style line by line so wrapping never splits an escape sequence
	// across a newline.
	lines := strings.Split(value, "\n")
	for index, line := range lines {
		if index > 0 {
			w.builder.WriteByte('\n')
		}
		if line != "" {
			w.builder.WriteString(style.Render(line))
		}
	}
}

func (w *bodyWriter) atLineStart() bool {
	current := w.builder.String()
	return current == "" || strings.HasSuffix(current, "\n")
}

// newline ends the current line, dropping its trailing spaces.
func (w *bodyWriter) newline() {
	if w.atLineStart() {
		return
	}
	current := strings.TrimRight(w.builder.String(), " ")
	w.builder.Reset()
	w.builder.WriteString(current)
	w.builder.WriteByte('\n')
}

func (w *bodyWriter) finish() string {
	result := blankLines.ReplaceAllString(w.builder.String(), "\n\n")
	return strings.TrimRight(result, " \n")
}

// Message renders one record wrapped to width. self is the local
// peer's ID, used to tell whose directed records these are.
func (r Renderer) Message(message chatlog.Message, self string, width int) string {
	faint := lipgloss.NewStyle().Foreground(r.Theme.FaintText)
	stamp := faint.Render(message.Timestamp.Local().Format(timestampLayout)) + " "
	handle := r.handle(message.Peer, self)

	var line string
	switch message.Kind {
	case chatlog.KindChat:
		line = stamp + handle + ": " + r.Body(message.Body.HTML)
	case chatlog.KindMotd:
		line = stamp + faint.Render("Message of the day:") + "\n" + r.Body(message.Body.HTML)
	case chatlog.KindJoin:
		line = stamp + faint.Render("→ ") + handle + faint.Render(" joined")
	case chatlog.KindLeave:
		line = stamp + faint.Render("← ") + handle + faint.Render(" left")
	case chatlog.KindHelp:
		line = faint.Render(message.Text)
	case chatlog.KindPing:
		style := lipgloss.NewStyle().Foreground(r.Theme.PingForeground).Bold(true)
		line = stamp + handle + style.Render(" pings you: ") + message.Text
	case chatlog.KindWhisper:
		style := lipgloss.NewStyle().Foreground(r.Theme.WhisperForeground).Italic(true)
		line = stamp + handle + style.Render(" whispers: "+message.Text)
	case chatlog.KindUpload:
		line = stamp + handle + " " + r.upload(message.Upload)
	default:
		line = stamp + message.Text
	}
	if width <= 0 {
		return line
	}
	return ansi.Wrap(line, width, "")
}

func (r Renderer) handle(peer chat.Peer, self string) string {
	style := lipgloss.NewStyle().Bold(true)
	if peer.Avatar != "" {
		style = style.Foreground(lipgloss.Color(peer.Avatar))
	}
	name := peer.Handle
	if name == "" {
		name = "someone"
	}
	if self != "" && peer.ID == self {
		name += " (you)"
	}
	return style.Render(name)
}

func (r Renderer) upload(upload *chatlog.Upload) string {
	if upload == nil {
		return "shared files"
	}
	names := strings.Join(upload.Files, ", ")
	errorStyle := lipgloss.NewStyle().Foreground(r.Theme.ErrorForeground)
	switch {
	case upload.Err != "":
		return fmt.Sprintf("failed to upload %s: %s", names, errorStyle.Render(upload.Err))
	case !upload.Complete:
		return fmt.Sprintf("is uploading %s… %d%%", names, upload.Percent)
	case upload.Result == nil:
		return "uploaded " + names
	}

	var builder strings.Builder
	builder.WriteString("uploaded")
	if upload.Result.Error != nil && *upload.Result.Error != "" {
		builder.WriteString(" with an error: " + errorStyle.Render(*upload.Result.Error))
	}
	link := lipgloss.NewStyle().Foreground(r.Theme.LinkForeground).Underline(true)
	for _, name := range upload.Files {
		file, ok := upload.Result.Data[name]
		builder.WriteString("\n  " + name)
		switch {
		case !ok:
		case file.Err != "":
			builder.WriteString(" " + errorStyle.Render(file.Err))
		case r.FileURL != nil:
			builder.WriteString(" " + link.Render(r.FileURL(file.ID)))
		default:
			builder.WriteString(" " + file.ID)
		}
	}
	return builder.String()
}

// TypingLine summarizes who is typing. It is empty when nobody is.
func TypingLine(entries []typing.Entry) string {
	switch len(entries) {
	case 0:
		return ""
	case 1:
		return entries[0].Peer.Handle + " is typing…"
	case 2:
		return entries[0].Peer.Handle + " and " + entries[1].Peer.Handle + " are typing…"
	default:
		return "Several people are typing…"
	}
}
