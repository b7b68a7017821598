// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package enrich

import (
	"html"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// linkPattern locates URL-like tokens. The trailing character class
// leaves out '.', ',', ';', ':', '!' and '?' so sentence punctuation
// after a link is not swallowed.
var linkPattern = regexp.MustCompile(`(?i)\b(?:https?|ftp|file)://[-A-Z0-9+&@#/%?=~_|!:,.;]*[-A-Z0-9+&@#/%=~_|]`)

// Placeholder delimiters. Both are private-use code points; any that
// appear in user text are replaced before scanning.
const (
	placeholderOpen  = '\uE000'
	placeholderClose = '\uE001'
)

// Markers around the text of a rendered markdown link.
var (
	linkTextStart = string(placeholderOpen) + "a" + string(placeholderClose)
	linkTextEnd   = string(placeholderOpen) + "/a" + string(placeholderClose)
)

// Content is the result of enriching one message.
type Content struct {
	// HTML is the rendered message body.
	HTML string

	// Embeds lists video frames in the order they appear.
	Embeds []Embed

	// Links lists hyperlinked URLs in the order they appear.
	Links []string
}

// Enricher converts raw chat text to HTML. It holds no per-message
// state and is safe for concurrent use.
type Enricher struct {
	providers []Provider
	style     string
	logger    *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithProviders replaces the default provider list.
func WithProviders(providers ...Provider) Option {
	return func(e *Enricher) { e.providers = providers }
}

// WithCodeStyle selects the chroma style for highlighted code. Unknown
// names fall back to chroma's default style.
func WithCodeStyle(name string) Option {
	return func(e *Enricher) { e.style = name }
}

// WithLogger sets the logger used to report rendering failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) { e.logger = logger }
}

// New returns an Enricher using DefaultProviders.
func New(options ...Option) *Enricher {
	enricher := &Enricher{
		providers: DefaultProviders(),
		style:     "github",
		logger:    slog.Default(),
	}
	for _, option := range options {
		option(enricher)
	}
	return enricher
}

// token is one URL held out of the markdown source.
type token struct {
	url   string
	embed *Embed
	html  string
}

// Enrich renders raw. It never fails: when markdown conversion errors
// the escaped text is returned with links and embeds still applied.
func (e *Enricher) Enrich(raw string) Content {
	raw = stripPlaceholderRunes(raw)

	var source strings.Builder
	var tokens []token
	last := 0
	for _, location := range linkPattern.FindAllStringIndex(raw, -1) {
		source.WriteString(escapeText(raw[last:location[0]]))
		url := raw[location[0]:location[1]]
		source.WriteString(placeholder(len(tokens)))
		tokens = append(tokens, e.classify(url))
		last = location[1]
	}
	source.WriteString(escapeText(raw[last:]))

	conversion := &conversion{tokens: tokens, linked: make([]bool, len(tokens))}
	rendered, err := conversion.render(source.String(), e.style)
	if err != nil {
		e.logger.Warn("markdown conversion failed, using escaped text", "error", err)
		rendered = "<p>" + strings.ReplaceAll(source.String(), "\n", "<br>\n") + "</p>\n"
	}

	rendered = unlinkNested(rendered, tokens)

	content := Content{}
	replacements := make([]string, 0, 2*len(tokens))
	for index, item := range tokens {
		key := placeholder(index)
		present := strings.Contains(rendered, key)
		switch {
		case present && item.embed != nil:
			content.Embeds = append(content.Embeds, *item.embed)
		case present || conversion.linked[index]:
			content.Links = append(content.Links, item.url)
		}
		replacements = append(replacements, key, item.html)
	}
	if len(replacements) > 0 {
		rendered = strings.NewReplacer(replacements...).Replace(rendered)
	}
	content.HTML = rendered
	return content
}

// escapeText HTML-escapes text for the markdown source. A backslash
// in front of a character the escape rewrites is written as the entity
// &#92;, so markdown does not treat it as escaping the entity's '&'.
// Backslash pairs are copied through unchanged.
func escapeText(value string) string {
	if !strings.ContainsRune(value, '\\') {
		return html.EscapeString(value)
	}
	var builder strings.Builder
	for index := 0; index < len(value); index++ {
		current := value[index]
		if current != '\\' || index+1 == len(value) {
			writeEscapedByte(&builder, current)
			continue
		}
		switch next := value[index+1]; next {
		case '\\':
			builder.WriteString(`\\`)
			index++
		case '&', '<', '>', '"', '\'':
			builder.WriteString("&#92;")
		default:
			builder.WriteByte(current)
		}
	}
	return builder.String()
}

func writeEscapedByte(builder *strings.Builder, b byte) {
	switch b {
	case '&', '<', '>', '"', '\'':
		builder.WriteString(html.EscapeString(string(rune(b))))
	default:
		builder.WriteByte(b)
	}
}

// unlinkNested replaces detected URLs inside a markdown link's text with
// their escaped text, so an anchor never contains another anchor or a
// frame. The link markers are removed.
func unlinkNested(rendered string, tokens []token) string {
	if !strings.Contains(rendered, linkTextStart) {
		return rendered
	}
	var builder strings.Builder
	for {
		start := strings.Index(rendered, linkTextStart)
		if start < 0 {
			builder.WriteString(rendered)
			return builder.String()
		}
		builder.WriteString(rendered[:start])
		rendered = rendered[start+len(linkTextStart):]
		end := strings.Index(rendered, linkTextEnd)
		if end < 0 {
			end = len(rendered)
		}
		inner := rendered[:end]
		for index, item := range tokens {
			inner = strings.ReplaceAll(inner, placeholder(index), html.EscapeString(item.url))
		}
		builder.WriteString(inner)
		rendered = strings.TrimPrefix(rendered[end:], linkTextEnd)
	}
}

func (e *Enricher) classify(url string) token {
	for _, provider := range e.providers {
		if embed, ok := provider.Match(url); ok {
			return token{url: url, embed: &embed, html: embed.HTML()}
		}
	}
	return token{url: url, html: anchorOpen(url) + html.EscapeString(url) + "</a>"}
}

func anchorOpen(url string) string {
	return `<a rel="noopener noreferrer" href="` + html.EscapeString(url) + `" target="_blank">`
}

func placeholder(index int) string {
	return string(placeholderOpen) + strconv.Itoa(index) + string(placeholderClose)
}

// parsePlaceholder reports whether value is exactly one placeholder
// and returns its index.
func parsePlaceholder(value string) (int, bool) {
	inner, found := strings.CutPrefix(value, string(placeholderOpen))
	if !found {
		return 0, false
	}
	inner, found = strings.CutSuffix(inner, string(placeholderClose))
	if !found || inner == "" {
		return 0, false
	}
	index, err := strconv.Atoi(inner)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

func stripPlaceholderRunes(raw string) string {
	if !strings.ContainsRune(raw, placeholderOpen) && !strings.ContainsRune(raw, placeholderClose) {
		return raw
	}
	return strings.Map(func(r rune) rune {
		if r == placeholderOpen || r == placeholderClose {
			return utf8.RuneError
		}
		return r
	}, raw)
}
