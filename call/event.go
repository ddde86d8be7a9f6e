// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package call

import (
	"mellium.im/xmpp/jid"

	"mellium.im/jingle"
	"mellium.im/jingle/session"
)

// Event describes a stanza that was applied to a session or rejected.
type Event struct {
	SID    string
	Action jingle.Action

	// Peer is the remote party.
	Peer jid.JID

	// Outbound is true for stanzas sent by the local party.
	Outbound bool

	// State is the state of the session after the stanza was handled.
	State session.State

	// Jingle is the stanza itself.
	// It is nil if the stanza could not be decoded.
	Jingle *jingle.Jingle

	// Err is set if the stanza was rejected.
	// For outbound stanzas it may also be a TransportError or the error
	// returned by the peer, in which case the stanza was already applied.
	Err error
}
