// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package enrich

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Embed frame dimensions.
const (
	EmbedWidth  = 560
	EmbedHeight = 315
)

// Embed describes an embeddable video frame.
type Embed struct {
	// Provider is the matching provider's name.
	Provider string

	// VideoID is the provider's identifier for the video.
	VideoID string

	// Host is the instance serving the video. Only set for federated
	// providers (PeerTube).
	Host string

	// Source is the frame URL.
	Source string

	// URL is the link the user posted.
	URL string

	Width           int
	Height          int
	AllowFullscreen bool

	// Sandbox, when non-empty, is the iframe sandbox permission list.
	// Frames from federated instances run sandboxed.
	Sandbox string
}

// HTML renders the embed as an iframe element.
func (e Embed) HTML() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, `<iframe class="video" type="text/html" width="%d" height="%d" src="%s"`,
		e.Width, e.Height, html.EscapeString(e.Source))
	if e.Sandbox != "" {
		fmt.Fprintf(&builder, ` sandbox="%s"`, html.EscapeString(e.Sandbox))
	}
	if e.AllowFullscreen {
		builder.WriteString(` webkitallowfullscreen mozallowfullscreen allowfullscreen`)
	}
	builder.WriteString(`></iframe>`)
	return builder.String()
}

// Provider recognizes one video site's URL shapes.
type Provider interface {
	// Name identifies the provider in Embed.Provider.
	Name() string

	// Match returns the embed for url, or false if url is not a video
	// page on this provider.
	Match(url string) (Embed, bool)
}

// DefaultProviders is the provider order used by New. The first match
// wins.
func DefaultProviders() []Provider {
	return []Provider{YouTube{}, Dailymotion{}, Vimeo{}, PeerTube{}}
}

func newEmbed(provider, videoID, source, url string) Embed {
	return Embed{
		Provider:        provider,
		VideoID:         videoID,
		Source:          source,
		URL:             url,
		Width:           EmbedWidth,
		Height:          EmbedHeight,
		AllowFullscreen: true,
	}
}

var (
	youtubeWatchPattern = regexp.MustCompile(`(?i)^https?://(?:[^/?#]+\.)?youtube\.[^/?#]+/watch\?(?:[^#]*&)?v=([A-Za-z0-9_-]+)`)
	youtubeShortPattern = regexp.MustCompile(`(?i)^https?://youtu\.be/([A-Za-z0-9_-]+)`)
)

// YouTube matches youtube.com/watch?v= and youtu.be links.
type YouTube struct{}

func (YouTube) Name() string { return "youtube" }

func (YouTube) Match(url string) (Embed, bool) {
	match := youtubeWatchPattern.FindStringSubmatch(url)
	if match == nil {
		match = youtubeShortPattern.FindStringSubmatch(url)
	}
	if match == nil {
		return Embed{}, false
	}
	id := match[1]
	return newEmbed("youtube", id, "https://www.youtube.com/embed/"+id+"?enablejsapi=1", url), true
}

var dailymotionPattern = regexp.MustCompile(`(?i)^https?://(?:[^/?#]+\.)?dailymotion\.[^/?#]+/video/([A-Za-z0-9]+)`)

// Dailymotion matches dailymotion.com/video/ links.
type Dailymotion struct{}

func (Dailymotion) Name() string { return "dailymotion" }

func (Dailymotion) Match(url string) (Embed, bool) {
	match := dailymotionPattern.FindStringSubmatch(url)
	if match == nil {
		return Embed{}, false
	}
	id := match[1]
	return newEmbed("dailymotion", id, "https://www.dailymotion.com/embed/video/"+id, url), true
}

var vimeoPattern = regexp.MustCompile(`(?i)^https?://(?:[^/?#]+\.)?vimeo\.[^/?#]+/(\d+)(?:[/?#]|$)`)

// Vimeo matches numeric vimeo.com video links.
type Vimeo struct{}

func (Vimeo) Name() string { return "vimeo" }

func (Vimeo) Match(url string) (Embed, bool) {
	match := vimeoPattern.FindStringSubmatch(url)
	if match == nil {
		return Embed{}, false
	}
	id := match[1]
	return newEmbed("vimeo", id, "https://player.vimeo.com/video/"+id+"?title=0&byline=0", url), true
}

var peertubePattern = regexp.MustCompile(`(?i)^https?://([a-z0-9.-]*peertube[a-z0-9.-]*(?::\d+)?)/videos/watch/([A-Za-z0-9-]+)$`)

// PeerTube matches /videos/watch/ links on hosts whose name contains
// "peertube". Any instance can serve the frame, so it is sandboxed.
type PeerTube struct{}

func (PeerTube) Name() string { return "peertube" }

func (PeerTube) Match(url string) (Embed, bool) {
	match := peertubePattern.FindStringSubmatch(url)
	if match == nil {
		return Embed{}, false
	}
	host, id := strings.ToLower(match[1]), match[2]
	embed := newEmbed("peertube", id, "https://"+host+"/videos/embed/"+id, url)
	embed.Host = host
	embed.Sandbox = "allow-same-origin allow-scripts"
	return embed, true
}
