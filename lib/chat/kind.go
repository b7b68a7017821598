// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

// Kind names an event type on the wire.
type Kind string

// Inbound kinds. Connect, disconnect and reconnecting are synthesized by
// the transport; the rest come from the room server.
const (
	KindConnect      Kind = "connect"
	KindDisconnect   Kind = "disconnect"
	KindReconnecting Kind = "reconnecting"
	KindPeerInfo     Kind = "peer.info"
	KindPeerList     Kind = "peer.list"
	KindPeerJoin     Kind = "peer.join"
	KindPeerLeave    Kind = "peer.leave"
	KindRateLimited  Kind = "peer.ratelimited"
	KindRoomFull     Kind = "room.full"
	KindRoomDispose  Kind = "room.dispose"
	KindMessage      Kind = "message"
	KindMotd         Kind = "motd"
	KindTyping       Kind = "typing"
	KindUploading    Kind = "uploading"
	KindUpload       Kind = "upload"
	KindPing         Kind = "ping"
	KindWhisper      Kind = "whisper"
)

// KindGrowl is outbound only: the server turns it into a native
// notification for an offline peer.
const KindGrowl Kind = "growl"

// Terminal reports whether a session fault of this kind ends the
// connection for good. The transport stops reconnecting after one.
func (k Kind) Terminal() bool {
	switch k {
	case KindRateLimited, KindRoomFull, KindRoomDispose:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }
