// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package jingle implements the data model of XEP-0166: Jingle.
//
// Jingle negotiates peer to peer media sessions (voice, video, file transfer)
// over an existing XMPP connection.
// Each negotiation message is a jingle element sent in an IQ of type "set":
//
//     <iq type="set" to="juliet@capulet.lit/balcony">
//       <jingle xmlns="urn:xmpp:jingle:1"
//               action="session-initiate"
//               initiator="romeo@montague.lit/orchard"
//               sid="a73sjjvkla37jfea">
//         <content creator="initiator" name="voice" senders="both">
//           <description xmlns="urn:xmpp:jingle:apps:rtp:1" media="audio"/>
//           <transport xmlns="urn:xmpp:jingle:transports:ice-udp:1"/>
//         </content>
//       </jingle>
//     </iq>
//
// The Jingle type is the message itself, Content is one negotiated stream, and
// Element carries application descriptions, transports, and session-info
// payloads without interpreting them.
// Messages are encoded with TokenReader and decoded with Decode, and a message
// should always be checked with Validate before it is acted upon.
//
// The session lifecycle is tracked by the session package and the call package
// ties sessions to an XMPP connection.
package jingle // import "mellium.im/jingle"
