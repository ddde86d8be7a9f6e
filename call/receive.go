// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package call

import (
	"context"
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle"
	"mellium.im/jingle/session"
)

// HandleIQ implements mux.IQHandler.
//
// Every Jingle stanza is answered with either an empty result or an error.
// Protocol errors are reported to the peer and to the OnEvent function but are
// not returned since that would end the XMPP session.
func (m *Manager) HandleIQ(iq stanza.IQ, r xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	j, err := jingle.Decode(r, *start)
	if err != nil {
		c := condition(err)
		m.metrics.rejected.WithLabelValues(c.label()).Inc()
		m.logger.WithField("peer", iq.From.String()).WithError(err).Warn("rejecting malformed stanza")
		m.emit(Event{Peer: iq.From, Err: err})
		_, err = xmlstream.Copy(r, errorReply(iq, c))
		return err
	}

	err = m.Receive(context.Background(), iq.From, j)
	if err != nil {
		_, err = xmlstream.Copy(r, errorReply(iq, condition(err)))
		return err
	}
	_, err = xmlstream.Copy(r, iq.Result(nil))
	return err
}

// Receive applies a stanza sent by from.
// It is called by HandleIQ and may be used directly by applications that
// receive stanzas by other means.
//
// A session-initiate creates a new session, all other actions must belong to
// an existing session with from.
// If an error is returned the session was not changed.
func (m *Manager) Receive(ctx context.Context, from jid.JID, j *jingle.Jingle) error {
	s, err := m.receive(ctx, from, j)
	ev := Event{SID: j.SID, Action: j.Action, Peer: from, Jingle: j, Err: err}
	if s != nil {
		ev.State = s.State()
	}
	if err != nil {
		m.metrics.rejected.WithLabelValues(condition(err).label()).Inc()
		m.log(j, from).WithError(err).Warn("rejecting stanza")
	} else {
		m.metrics.stanzas.WithLabelValues(dirIn, j.Action.String()).Inc()
		m.log(j, from).Debug("received stanza")
	}
	m.emit(ev)
	return err
}

func (m *Manager) receive(ctx context.Context, from jid.JID, j *jingle.Jingle) (*session.Session, error) {
	if err := jingle.Validate(j); err != nil {
		return nil, err
	}
	for _, w := range jingle.Lint(j) {
		m.log(j, from).Warn(w)
	}
	if j.Info != nil && m.infoNS != nil {
		if _, ok := m.infoNS[j.Info.XMLName.Space]; !ok {
			return nil, ErrUnsupportedInfo
		}
	}

	if j.Action == jingle.SessionInitiate {
		s, err := m.register(j, session.RoleResponder, from)
		if err != nil {
			return nil, err
		}
		m.log(j, from).Info("new session")
		return s, nil
	}

	s, err := m.lookup(j.SID, j.Action)
	if err != nil {
		return nil, err
	}
	if !s.Remote().Equal(from) {
		return nil, &session.StateError{SID: j.SID, Action: j.Action, Err: session.ErrUnknownSession}
	}
	return s, s.Apply(ctx, j)
}
