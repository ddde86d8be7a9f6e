// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ns provides namespace constants that are used by the jingle package
// and other internal packages.
package ns // import "mellium.im/jingle/internal/ns"

// List of commonly used namespaces.
const (
	Jingle       = "urn:xmpp:jingle:1"
	JingleErrors = "urn:xmpp:jingle:errors:1"
	Stanza       = "urn:ietf:params:xml:ns:xmpp-stanzas"
	XMLNS        = "xmlns"
)
