// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package enrich

import (
	"reflect"
	"strings"
	"testing"
)

func TestEnrichEscapesMarkup(t *testing.T) {
	content := New().Enrich("<script>alert(1)</script> see http://example.com/x")

	if strings.Contains(content.HTML, "<script") {
		t.Fatalf("script tag survived: %q", content.HTML)
	}
	if !strings.Contains(content.HTML, "&lt;script&gt;") {
		t.Errorf("escaped tag missing: %q", content.HTML)
	}
	if count := strings.Count(content.HTML, "<a "); count != 1 {
		t.Errorf("anchor count = %d, want 1: %q", count, content.HTML)
	}
	want := `<a rel="noopener noreferrer" href="http://example.com/x" target="_blank">http://example.com/x</a>`
	if !strings.Contains(content.HTML, want) {
		t.Errorf("HTML = %q, want it to contain %q", content.HTML, want)
	}
	if !reflect.DeepEqual(content.Links, []string{"http://example.com/x"}) {
		t.Errorf("Links = %v", content.Links)
	}
	if len(content.Embeds) != 0 {
		t.Errorf("Embeds = %v, want none", content.Embeds)
	}
}

func TestEnrichVideoEmbeds(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		provider string
		videoID  string
		source   string
		sandbox  string
	}{
		{
			name:     "youtube",
			input:    "watch https://www.youtube.com/watch?v=abc123",
			provider: "youtube",
			videoID:  "abc123",
			source:   "https://www.youtube.com/embed/abc123?enablejsapi=1",
		},
		{
			name:     "youtube short link",
			input:    "https://youtu.be/dQw4w9WgXcQ",
			provider: "youtube",
			videoID:  "dQw4w9WgXcQ",
			source:   "https://www.youtube.com/embed/dQw4w9WgXcQ?enablejsapi=1",
		},
		{
			name:     "vimeo",
			input:    "https://vimeo.com/220643959",
			provider: "vimeo",
			videoID:  "220643959",
			source:   "https://player.vimeo.com/video/220643959?title=0&byline=0",
		},
		{
			name:     "dailymotion",
			input:    "https://www.dailymotion.com/video/x7tgad0",
			provider: "dailymotion",
			videoID:  "x7tgad0",
			source:   "https://www.dailymotion.com/embed/video/x7tgad0",
		},
		{
			name:     "peertube",
			input:    "https://peertube.example.org/videos/watch/9c9de5e8-0a1e-484a-b099-e80766180a6d",
			provider: "peertube",
			videoID:  "9c9de5e8-0a1e-484a-b099-e80766180a6d",
			source:   "https://peertube.example.org/videos/embed/9c9de5e8-0a1e-484a-b099-e80766180a6d",
			sandbox:  "allow-same-origin allow-scripts",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			content := New().Enrich(test.input)
			if len(content.Embeds) != 1 {
				t.Fatalf("Embeds = %v, want exactly one", content.Embeds)
			}
			embed := content.Embeds[0]
			if embed.Provider != test.provider || embed.VideoID != test.videoID {
				t.Errorf("embed = %s/%s, want %s/%s", embed.Provider, embed.VideoID, test.provider, test.videoID)
			}
			if embed.Source != test.source {
				t.Errorf("Source = %q, want %q", embed.Source, test.source)
			}
			if embed.Sandbox != test.sandbox {
				t.Errorf("Sandbox = %q, want %q", embed.Sandbox, test.sandbox)
			}
			if embed.Width != EmbedWidth || embed.Height != EmbedHeight || !embed.AllowFullscreen {
				t.Errorf("frame = %dx%d fullscreen=%v", embed.Width, embed.Height, embed.AllowFullscreen)
			}
			if !strings.Contains(content.HTML, "<iframe") {
				t.Errorf("HTML has no iframe: %q", content.HTML)
			}
			if strings.Contains(content.HTML, "<a ") {
				t.Errorf("embedded URL also rendered as anchor: %q", content.HTML)
			}
			if len(content.Links) != 0 {
				t.Errorf("Links = %v, want none", content.Links)
			}
		})
	}
}

func TestEnrichSandboxAttribute(t *testing.T) {
	content := New().Enrich("https://peertube.example.org/videos/watch/abc-123")
	if !strings.Contains(content.HTML, `sandbox="allow-same-origin allow-scripts"`) {
		t.Errorf("HTML = %q, want sandbox attribute", content.HTML)
	}
	content = New().Enrich("https://vimeo.com/220643959")
	if strings.Contains(content.HTML, "sandbox") {
		t.Errorf("HTML = %q, vimeo frames are not sandboxed", content.HTML)
	}
	if !strings.Contains(content.HTML, `src="https://player.vimeo.com/video/220643959?title=0&amp;byline=0"`) {
		t.Errorf("HTML = %q, want escaped frame source", content.HTML)
	}
}

func TestEnrichTrailingPunctuation(t *testing.T) {
	content := New().Enrich("see http://example.com/x. and http://example.com/y, ok?")
	want := []string{"http://example.com/x", "http://example.com/y"}
	if !reflect.DeepEqual(content.Links, want) {
		t.Errorf("Links = %v, want %v", content.Links, want)
	}
}

func TestEnrichQueryAmpersand(t *testing.T) {
	content := New().Enrich("http://e.example/?a=1&copy=2")
	if !strings.Contains(content.HTML, `href="http://e.example/?a=1&amp;copy=2"`) {
		t.Errorf("HTML = %q", content.HTML)
	}
}

func TestEnrichMarkdown(t *testing.T) {
	content := New().Enrich("**bold** and _it_ and ~~gone~~")
	for _, want := range []string{"<strong>bold</strong>", "<em>it</em>", "<del>gone</del>"} {
		if !strings.Contains(content.HTML, want) {
			t.Errorf("HTML = %q, want it to contain %q", content.HTML, want)
		}
	}
}

func TestEnrichHardWraps(t *testing.T) {
	content := New().Enrich("one\ntwo")
	if !strings.Contains(content.HTML, "<br>") {
		t.Errorf("HTML = %q, want a line break", content.HTML)
	}
}

func TestEnrichCodeSpanKeepsURLLiteral(t *testing.T) {
	content := New().Enrich("run `curl http://x.example/a` now")
	if !strings.Contains(content.HTML, "<code>curl http://x.example/a</code>") {
		t.Errorf("HTML = %q", content.HTML)
	}
	if strings.Contains(content.HTML, "<a ") || len(content.Links) != 0 {
		t.Errorf("URL inside code was linked: %q %v", content.HTML, content.Links)
	}
}

func TestEnrichCodeSpanEscapesOnce(t *testing.T) {
	content := New().Enrich("`<b> & \"q\"`")
	want := "<code>&lt;b&gt; &amp; &#34;q&#34;</code>"
	if !strings.Contains(content.HTML, want) {
		t.Errorf("HTML = %q, want it to contain %q", content.HTML, want)
	}
}

func TestEnrichFencedCode(t *testing.T) {
	content := New().Enrich("```go\nfmt.Println(\"<b>\")\n```")
	if !strings.Contains(content.HTML, `class="chroma"`) {
		t.Errorf("HTML = %q, want chroma output", content.HTML)
	}
	if !strings.Contains(content.HTML, "&lt;b&gt;") {
		t.Errorf("HTML = %q, want escaped string literal", content.HTML)
	}
	if strings.Contains(content.HTML, "&amp;lt;") {
		t.Errorf("HTML = %q, source was escaped twice", content.HTML)
	}
}

func TestEnrichUnknownFenceLanguage(t *testing.T) {
	content := New().Enrich("```no-such-language\nplain text\n```")
	if !strings.Contains(content.HTML, "plain text") {
		t.Errorf("HTML = %q", content.HTML)
	}
}

func TestEnrichMarkdownLinks(t *testing.T) {
	content := New().Enrich("[docs](https://example.com/docs)")
	want := `<a rel="noopener noreferrer" href="https://example.com/docs" target="_blank">docs</a>`
	if !strings.Contains(content.HTML, want) {
		t.Errorf("HTML = %q, want it to contain %q", content.HTML, want)
	}
	if !reflect.DeepEqual(content.Links, []string{"https://example.com/docs"}) {
		t.Errorf("Links = %v", content.Links)
	}
}

func TestEnrichURLInsideLinkTextIsNotNested(t *testing.T) {
	for _, input := range []string{
		"[http://inner.example/a](http://outer.example/b)",
		"[watch https://www.youtube.com/watch?v=abc123](https://outer.example/)",
	} {
		content := New().Enrich(input)
		if count := strings.Count(content.HTML, "<a "); count != 1 {
			t.Errorf("Enrich(%q): anchor count = %d, want 1: %q", input, count, content.HTML)
		}
		if strings.Contains(content.HTML, "<iframe") || len(content.Embeds) != 0 {
			t.Errorf("Enrich(%q) embedded a frame inside a link: %q", input, content.HTML)
		}
		if strings.ContainsRune(content.HTML, placeholderOpen) || strings.ContainsRune(content.HTML, placeholderClose) {
			t.Errorf("Enrich(%q) = %q left markers behind", input, content.HTML)
		}
	}

	content := New().Enrich("[http://inner.example/a](http://outer.example/b)")
	want := `<a rel="noopener noreferrer" href="http://outer.example/b" target="_blank">http://inner.example/a</a>`
	if !strings.Contains(content.HTML, want) {
		t.Errorf("HTML = %q, want it to contain %q", content.HTML, want)
	}
	if !reflect.DeepEqual(content.Links, []string{"http://outer.example/b"}) {
		t.Errorf("Links = %v, want the destination only", content.Links)
	}
}

func TestEnrichBackslashBeforeEscapedCharacter(t *testing.T) {
	content := New().Enrich(`\<b>x\</b> a \& b`)
	for _, unwanted := range []string{"&amp;lt;", "&amp;amp;", "<b>"} {
		if strings.Contains(content.HTML, unwanted) {
			t.Errorf("HTML = %q contains %q", content.HTML, unwanted)
		}
	}
	for _, want := range []string{"&lt;b&gt;x", "&lt;/b&gt;"} {
		if !strings.Contains(content.HTML, want) {
			t.Errorf("HTML = %q, want it to contain %q", content.HTML, want)
		}
	}

	code := New().Enrich("`a\\<b`")
	if !strings.Contains(code.HTML, `<code>a\&lt;b</code>`) {
		t.Errorf("code span = %q, want the backslash kept", code.HTML)
	}
}

func TestEnrichRejectsUnvettedLinkTargets(t *testing.T) {
	for _, input := range []string{
		"[click](javascript:alert(1))",
		"[rel](/etc/passwd)",
		"![pixel](data:image/png;base64,AAAA)",
	} {
		content := New().Enrich(input)
		if strings.Contains(content.HTML, "<a ") || strings.Contains(content.HTML, "<img") {
			t.Errorf("Enrich(%q) = %q, want plain text", input, content.HTML)
		}
		if strings.Contains(content.HTML, "javascript:") || strings.Contains(content.HTML, "data:") {
			t.Errorf("Enrich(%q) = %q leaked the target", input, content.HTML)
		}
	}
}

func TestEnrichImageBecomesLink(t *testing.T) {
	content := New().Enrich("![cat](https://img.example/cat.png)")
	if strings.Contains(content.HTML, "<img") {
		t.Errorf("HTML = %q, images must not load inline", content.HTML)
	}
	if !strings.Contains(content.HTML, `href="https://img.example/cat.png"`) {
		t.Errorf("HTML = %q, want link to image", content.HTML)
	}
}

func TestEnrichStripsPlaceholderRunes(t *testing.T) {
	content := New().Enrich("\uE0000\uE001 http://a.example/")
	if count := strings.Count(content.HTML, "<a "); count != 1 {
		t.Errorf("anchor count = %d, want 1: %q", count, content.HTML)
	}
	if strings.ContainsRune(content.HTML, placeholderOpen) || strings.ContainsRune(content.HTML, placeholderClose) {
		t.Errorf("HTML = %q contains placeholder delimiters", content.HTML)
	}
}

func TestEnrichDeterministic(t *testing.T) {
	enricher := New()
	input := "hi **there** https://www.youtube.com/watch?v=abc123 and http://example.com/"
	first := enricher.Enrich(input)
	second := enricher.Enrich(input)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Enrich is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestEnrichNeverPanics(t *testing.T) {
	enricher := New()
	for _, input := range []string{
		"",
		"[",
		"```",
		"\x00\x01",
		"*",
		"|a|b|\n|-|-|\n|1|2|",
		strings.Repeat("(", 500),
		strings.Repeat("[x](", 100),
		"http://",
		"\xff\xfe",
	} {
		_ = enricher.Enrich(input)
	}
}

func TestWithProviders(t *testing.T) {
	content := New(WithProviders()).Enrich("https://www.youtube.com/watch?v=abc123")
	if len(content.Embeds) != 0 || len(content.Links) != 1 {
		t.Errorf("with no providers: embeds=%v links=%v", content.Embeds, content.Links)
	}
}
