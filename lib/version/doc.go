// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the --version flag of
// the roomchat binaries.
//
// [Version], [GitCommit] and [BuildTime] may be injected with -ldflags:
//
//	go build -ldflags "-X github.com/bureau-foundation/roomchat/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// When they are not, the commit and time are taken from the VCS stamp
// the Go toolchain embeds in module builds, if present.
package version
