// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"regexp"
	"slices"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/roomchat/lib/slash"
)

// completable matches a directed command whose handle argument is
// still being typed at the end of the line.
var completable = regexp.MustCompile(`^(\s*/([a-z]+)\s+)(\S*)$`)

type rankedHandle struct {
	handle string
	score  int
	start  int
}

// RankHandles returns the handles matching pattern, best match first.
// Matching is fzf's case-insensitive fuzzy match; ties keep
// alphabetical order. An empty pattern returns every handle sorted.
func RankHandles(pattern string, handles []string, slab *util.Slab) []string {
	runes := []rune(strings.ToLower(pattern))
	var ranked []rankedHandle
	for _, handle := range handles {
		if len(runes) == 0 {
			ranked = append(ranked, rankedHandle{handle: handle})
			continue
		}
		chars := util.ToChars([]byte(handle))
		result, _ := algo.FuzzyMatchV2(false, true, true, &chars, runes, false, slab)
		if result.Start < 0 {
			continue
		}
		ranked = append(ranked, rankedHandle{handle: handle, score: result.Score, start: result.Start})
	}
	slices.SortStableFunc(ranked, func(a, b rankedHandle) int {
		switch {
		case a.score != b.score:
			return b.score - a.score
		case a.start != b.start:
			return a.start - b.start
		default:
			return strings.Compare(a.handle, b.handle)
		}
	})

	result := make([]string, 0, len(ranked))
	for _, entry := range ranked {
		if !slices.Contains(result, entry.handle) {
			result = append(result, entry.handle)
		}
	}
	return result
}

// CompleteHandle completes the handle argument of a directed command
// in line. It returns the completed line and true when line ends in a
// partial handle after /ping, /whisper or /growl that matches one of
// handles.
func CompleteHandle(line string, handles []string, slab *util.Slab) (string, bool) {
	match := completable.FindStringSubmatch(line)
	if match == nil {
		return line, false
	}
	command, ok := slash.Lookup(match[2])
	if !ok || command.Kind == "" {
		return line, false
	}
	ranked := RankHandles(match[3], handles, slab)
	if len(ranked) == 0 {
		return line, false
	}
	return match[1] + ranked[0] + " ", true
}

func newSlab() *util.Slab {
	return util.MakeSlab(16*1024, 2048)
}
