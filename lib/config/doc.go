// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the roomchat client configuration from YAML.
//
// Configuration comes from a single file named by either the
// ROOMCHAT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no discovery and no fallback file search.
// A missing file is an error; missing keys take the values of
// [Default].
//
// Durations are written as Go duration strings ("3s", "250ms").
// ${VAR} and ${VAR:-default} patterns are expanded in the server
// session id and in the record and log paths, so secrets and
// per-machine locations can come from the environment:
//
//	server:
//	  url: https://chat.example.com
//	  room: 3kq9xv
//	  session_cookie: sess
//	  session_id: ${ROOMCHAT_SESSION}
//	chat:
//	  sound: true
//	record:
//	  path: ${HOME}/roomchat/last.cbor.zst
//
// This package depends on no other roomchat packages.
package config
