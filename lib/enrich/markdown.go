// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package enrich

import (
	"bytes"
	"html"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// The parser configuration never changes and parsing keeps its state
// per call, so one instance serves every Enrich call. Renderers are
// built per call because the override renderer carries the message's
// placeholder table.
var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.Table,
			),
		)
	})
	return markdownInstance
}

var codeFormatter = chromahtml.New(chromahtml.WithClasses(true))

// conversion is the per-message state shared with the override
// renderer.
type conversion struct {
	tokens []token

	// linked marks tokens consumed as markdown link destinations.
	linked []bool

	style *chroma.Style
}

func (c *conversion) render(source, styleName string) (string, error) {
	c.style = styles.Get(styleName)
	input := []byte(source)
	document := getMarkdown().Parser().Parse(text.NewReader(input))

	htmlRenderer := renderer.NewRenderer(renderer.WithNodeRenderers(
		util.Prioritized(gmhtml.NewRenderer(gmhtml.WithHardWraps()), 1000),
		util.Prioritized(extension.NewStrikethroughHTMLRenderer(), 500),
		util.Prioritized(extension.NewTableHTMLRenderer(), 500),
		util.Prioritized(c, 100),
	))
	var output bytes.Buffer
	if err := htmlRenderer.Render(&output, input, document); err != nil {
		return "", err
	}
	return output.String(), nil
}

// RegisterFuncs overrides the nodes whose default rendering would
// either double-escape the pre-escaped source or emit unvetted URLs.
func (c *conversion) RegisterFuncs(registerer renderer.NodeRendererFuncRegisterer) {
	registerer.Register(ast.KindFencedCodeBlock, c.renderFencedCodeBlock)
	registerer.Register(ast.KindCodeBlock, c.renderCodeBlock)
	registerer.Register(ast.KindCodeSpan, c.renderCodeSpan)
	registerer.Register(ast.KindLink, c.renderLink)
	registerer.Register(ast.KindImage, c.renderImage)
}

// plain turns escaped source with placeholders back into the text the
// user typed.
func (c *conversion) plain(escaped string) string {
	value := html.UnescapeString(escaped)
	if !strings.ContainsRune(value, placeholderOpen) {
		return value
	}
	var builder strings.Builder
	for {
		start := strings.IndexRune(value, placeholderOpen)
		if start < 0 {
			builder.WriteString(value)
			return builder.String()
		}
		end := strings.IndexRune(value[start:], placeholderClose)
		if end < 0 {
			builder.WriteString(value)
			return builder.String()
		}
		end += start + len(string(placeholderClose))
		builder.WriteString(value[:start])
		if index, ok := parsePlaceholder(value[start:end]); ok && index < len(c.tokens) {
			builder.WriteString(c.tokens[index].url)
		} else {
			builder.WriteString(value[start:end])
		}
		value = value[end:]
	}
}

func (c *conversion) lines(source []byte, node ast.Node) string {
	var builder strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		builder.Write(segment.Value(source))
	}
	return c.plain(builder.String())
}

func (c *conversion) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	block := node.(*ast.FencedCodeBlock)
	return ast.WalkContinue, c.highlight(w, c.lines(source, block), string(block.Language(source)))
}

func (c *conversion) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	return ast.WalkContinue, c.highlight(w, c.lines(source, node), "")
}

func (c *conversion) highlight(w util.BufWriter, code, language string) error {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(html.UnescapeString(language))
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err == nil {
		err = codeFormatter.Format(w, c.style, iterator)
	}
	if err != nil {
		_, _ = w.WriteString("<pre><code>")
		_, _ = w.WriteString(html.EscapeString(code))
		_, _ = w.WriteString("</code></pre>\n")
	}
	return nil
}

func (c *conversion) renderCodeSpan(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	var builder strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		var value []byte
		switch child := child.(type) {
		case *ast.Text:
			value = child.Segment.Value(source)
		case *ast.String:
			value = child.Value
		}
		if trimmed, found := bytes.CutSuffix(value, []byte("\n")); found {
			builder.Write(trimmed)
			builder.WriteByte(' ')
		} else {
			builder.Write(value)
		}
	}
	_, _ = w.WriteString("<code>")
	_, _ = w.WriteString(html.EscapeString(c.plain(builder.String())))
	_, _ = w.WriteString("</code>")
	return ast.WalkSkipChildren, nil
}

// destination returns the vetted URL for a markdown link target. Only
// targets that are exactly one detected URL qualify.
func (c *conversion) destination(raw []byte) (int, bool) {
	index, ok := parsePlaceholder(string(raw))
	if !ok || index >= len(c.tokens) {
		return 0, false
	}
	return index, true
}

func (c *conversion) renderLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	link := node.(*ast.Link)
	return c.renderAnchor(w, link.Destination, entering)
}

func (c *conversion) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	image := node.(*ast.Image)
	return c.renderAnchor(w, image.Destination, entering)
}

func (c *conversion) renderAnchor(w util.BufWriter, destination []byte, entering bool) (ast.WalkStatus, error) {
	index, ok := c.destination(destination)
	if !ok {
		return ast.WalkContinue, nil
	}
	if entering {
		c.linked[index] = true
		_, _ = w.WriteString(anchorOpen(c.tokens[index].url))
		_, _ = w.WriteString(linkTextStart)
	} else {
		_, _ = w.WriteString(linkTextEnd)
		_, _ = w.WriteString("</a>")
	}
	return ast.WalkContinue, nil
}
