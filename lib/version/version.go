// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set via -ldflags at build time.
var (
	// Version is the semantic version.
	Version = "0.1.0-dev"

	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)

// stamp is the build identity after filling gaps from the embedded
// build info.
type stamp struct {
	commit string
	time   string
	dirty  bool
}

var current = sync.OnceValue(func() stamp {
	info, _ := debug.ReadBuildInfo()
	return resolve(GitCommit, BuildTime, info)
})

func resolve(commit, buildTime string, info *debug.BuildInfo) stamp {
	result := stamp{commit: commit, time: buildTime}
	if info == nil {
		return result
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if result.commit == "unknown" && setting.Value != "" {
				result.commit = setting.Value[:min(len(setting.Value), 12)]
			}
		case "vcs.time":
			if result.time == "unknown" && setting.Value != "" {
				result.time = setting.Value
			}
		case "vcs.modified":
			result.dirty = setting.Value == "true"
		}
	}
	return result
}

// Info returns "0.1.0-dev (abc1234, 2026-02-10T...)" for --version.
func Info() string {
	build := current()
	dirty := ""
	if build.dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, build.commit, dirty, build.time)
}

// Full adds the Go version and platform to Info.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies the client in HTTP requests.
func UserAgent() string {
	return "roomchat/" + Version
}
