// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package call

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/sirupsen/logrus"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle"
	"mellium.im/jingle/session"
)

// Open starts a new session with peer and returns its sid.
// If the session-initiate cannot be delivered the session is dropped.
func (m *Manager) Open(ctx context.Context, peer jid.JID, contents ...*jingle.Content) (string, error) {
	j := jingle.New(jingle.SessionInitiate, m.newSID())
	j.Initiator = m.local
	j.Contents = contents

	s, err := m.register(j, session.RoleInitiator, peer)
	if err != nil {
		m.metrics.rejected.WithLabelValues(condition(err).label()).Inc()
		return "", err
	}
	m.metrics.stanzas.WithLabelValues(dirOut, j.Action.String()).Inc()
	m.log(j, peer).Info("initiating session")

	err = m.transmit(ctx, peer, j)
	m.emit(Event{SID: j.SID, Action: j.Action, Peer: peer, Outbound: true, State: s.State(), Jingle: j, Err: err})
	if err != nil {
		m.unregister(s)
		return "", err
	}
	return j.SID, nil
}

// Accept accepts a session initiated by the peer.
// If no contents are given all contents of the session are accepted.
func (m *Manager) Accept(ctx context.Context, sid string, contents ...*jingle.Content) error {
	s, err := m.lookup(sid, jingle.SessionAccept)
	if err != nil {
		return err
	}
	j := jingle.New(jingle.SessionAccept, sid)
	j.Initiator = s.Initiator()
	j.Responder = m.local
	j.Contents = contents
	if len(contents) == 0 {
		j.Contents = s.Contents()
	}
	return m.send(ctx, s, j)
}

// Terminate ends the session.
func (m *Manager) Terminate(ctx context.Context, sid string, reason jingle.Reason) error {
	s, err := m.lookup(sid, jingle.SessionTerminate)
	if err != nil {
		return err
	}
	j := jingle.New(jingle.SessionTerminate, sid)
	if reason != (jingle.Reason{}) {
		j.Reason = &reason
	}
	return m.send(ctx, s, j)
}

// AddContent proposes new contents in an active session.
func (m *Manager) AddContent(ctx context.Context, sid string, contents ...*jingle.Content) error {
	s, err := m.lookup(sid, jingle.ContentAdd)
	if err != nil {
		return err
	}
	j := jingle.New(jingle.ContentAdd, sid)
	j.Contents = contents
	return m.send(ctx, s, j)
}

// Info sends a session-info payload such as ringing or hold.
func (m *Manager) Info(ctx context.Context, sid string, payload jingle.Element) error {
	s, err := m.lookup(sid, jingle.SessionInfo)
	if err != nil {
		return err
	}
	j := jingle.New(jingle.SessionInfo, sid)
	j.Info = &payload
	return m.send(ctx, s, j)
}

// Send applies j to the session sid and sends it to the peer.
// It can be used for actions that have no dedicated method.
// The SID of j is set to sid.
func (m *Manager) Send(ctx context.Context, sid string, j *jingle.Jingle) error {
	s, err := m.lookup(sid, j.Action)
	if err != nil {
		return err
	}
	j.SID = sid
	return m.send(ctx, s, j)
}

// send applies j to s and then transmits it.
// The session lock is not held while waiting for the peer.
func (m *Manager) send(ctx context.Context, s *session.Session, j *jingle.Jingle) error {
	peer := s.Remote()
	if err := s.Apply(ctx, j); err != nil {
		m.metrics.rejected.WithLabelValues(condition(err).label()).Inc()
		m.log(j, peer).WithError(err).Warn("not sending invalid stanza")
		return err
	}
	m.metrics.stanzas.WithLabelValues(dirOut, j.Action.String()).Inc()
	m.log(j, peer).Debug("sending stanza")

	err := m.transmit(ctx, peer, j)
	m.emit(Event{SID: j.SID, Action: j.Action, Peer: peer, Outbound: true, State: s.State(), Jingle: j, Err: err})
	return err
}

// transmit sends j to peer and waits for the response.
// Errors returned by the peer are returned as a stanza.Error.
func (m *Manager) transmit(ctx context.Context, peer jid.JID, j *jingle.Jingle) error {
	iq := stanza.IQ{
		To:   peer,
		Type: stanza.SetIQ,
	}
	resp, err := m.sender.SendIQ(ctx, iq.Wrap(j.TokenReader()))
	if err != nil {
		m.log(j, peer).WithError(err).Error("error sending stanza")
		return &TransportError{SID: j.SID, Action: j.Action, Err: err}
	}
	defer resp.Close()

	tok, err := resp.Token()
	if err != nil {
		return &TransportError{SID: j.SID, Action: j.Action, Err: err}
	}
	start, ok := tok.(xml.StartElement)
	if !ok {
		return &TransportError{SID: j.SID, Action: j.Action, Err: fmt.Errorf("expected IQ start token, got %T %[1]v", tok)}
	}
	_, err = stanza.UnmarshalIQError(resp, start)
	if err != nil {
		m.log(j, peer).WithError(err).Warn("peer rejected stanza")
	}
	return err
}

func (m *Manager) log(j *jingle.Jingle, peer jid.JID) logrus.FieldLogger {
	return m.logger.WithFields(logrus.Fields{
		"sid":    j.SID,
		"action": j.Action.String(),
		"peer":   peer.String(),
	})
}
