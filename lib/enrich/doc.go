// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package enrich turns raw chat text into displayable HTML.
//
// [Enricher.Enrich] is a pure function of its input. The pipeline:
//
//  1. Every character of user text is HTML-escaped. No markup the user
//     typed survives as markup.
//  2. URL-like tokens (http, https, ftp and file schemes) are located
//     with a single link pattern whose final character class excludes
//     sentence punctuation.
//  3. Each URL is offered to the ordered [Provider] list. The first
//     provider that recognizes a video URL supplies an [Embed]
//     descriptor rendered as a fixed-size iframe; otherwise the URL
//     becomes an outbound anchor with rel="noopener noreferrer".
//  4. The escaped text is converted from markdown with goldmark. URLs
//     are held out of the markdown source as opaque placeholders and
//     spliced back in afterwards, so generated embed and link markup is
//     never reinterpreted. Fenced code is highlighted with chroma.
//
// Markdown links are only honoured when their destination is one of
// the URLs found in step 2; anything else (javascript:, relative paths)
// renders as plain text. Images render as links.
package enrich
