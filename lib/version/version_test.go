// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestResolveFillsFromBuildInfo(t *testing.T) {
	info := &debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2026-02-10T08:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	}}
	got := resolve("unknown", "unknown", info)
	want := stamp{commit: "0123456789ab", time: "2026-02-10T08:00:00Z", dirty: true}
	if got != want {
		t.Errorf("resolve = %+v, want %+v", got, want)
	}
}

func TestResolvePrefersInjectedValues(t *testing.T) {
	info := &debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: "ffffffffffff"},
		{Key: "vcs.time", Value: "2026-01-01T00:00:00Z"},
	}}
	got := resolve("abc1234", "2026-03-03T03:03:03Z", info)
	if got.commit != "abc1234" || got.time != "2026-03-03T03:03:03Z" || got.dirty {
		t.Errorf("resolve = %+v", got)
	}
	if got := resolve("abc1234", "t", nil); got.commit != "abc1234" {
		t.Errorf("resolve without build info = %+v", got)
	}
}

func TestInfoFormat(t *testing.T) {
	info := Info()
	if !strings.HasPrefix(info, Version+" (") || !strings.HasSuffix(info, ")") {
		t.Errorf("Info = %q", info)
	}
	if full := Full(); !strings.Contains(full, "Go: ") || !strings.HasPrefix(full, info) {
		t.Errorf("Full = %q", full)
	}
	if UserAgent() != "roomchat/"+Version {
		t.Errorf("UserAgent = %q", UserAgent())
	}
}
