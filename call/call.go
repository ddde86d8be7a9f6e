// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package call manages the Jingle sessions of a single XMPP connection.
//
// A Manager keeps one session per sid, applies every stanza sent or received
// to it, and exchanges the stanzas with the peer over an XMPP session.
// Incoming stanzas are routed to the manager by registering it on a mux:
//
//	m := call.New(s.LocalAddr(), s)
//	err := s.Serve(mux.New(stanza.NSClient, call.Handle(m)))
package call // import "mellium.im/jingle/call"

import (
	"context"
	"encoding/xml"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"mellium.im/xmlstream"
	"mellium.im/xmpp/disco/info"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/mux"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle"
	"mellium.im/jingle/session"
)

// Sender is used to send IQs to the peer and wait for the response.
// It is implemented by *xmpp.Session.
type Sender interface {
	SendIQ(ctx context.Context, r xml.TokenReader) (xmlstream.TokenReadCloser, error)
}

// Handle returns an option that registers m on the mux for incoming Jingle
// stanzas.
func Handle(m *Manager) mux.Option {
	return mux.IQ(stanza.SetIQ, xml.Name{Space: jingle.NS, Local: "jingle"}, m)
}

// Option configures a Manager.
type Option func(*Manager)

// Logger sets the logger used by the manager.
// By default nothing is logged.
func Logger(l logrus.FieldLogger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// Metrics registers the manager's metrics with r.
func Metrics(r prometheus.Registerer) Option {
	return func(m *Manager) {
		m.metrics = newMetrics(r)
	}
}

// OnEvent sets a function that is called for every stanza that is sent,
// received, or rejected.
// f is called synchronously and must not block.
func OnEvent(f func(Event)) Option {
	return func(m *Manager) {
		m.onEvent = f
	}
}

// SIDGenerator sets the function used to create the sid of new sessions.
// The default generates a random UUID.
func SIDGenerator(f func() string) Option {
	return func(m *Manager) {
		m.newSID = f
	}
}

// Features sets extra service discovery features advertised along with the
// Jingle namespace, normally the namespaces of the supported application
// formats and transports.
func Features(vars ...string) Option {
	return func(m *Manager) {
		m.features = append(m.features, vars...)
	}
}

// SupportedInfo limits the session-info payloads that are accepted to those in
// the given namespaces.
// Other payloads are rejected with ErrUnsupportedInfo.
// By default all payloads are accepted.
func SupportedInfo(namespaces ...string) Option {
	return func(m *Manager) {
		if m.infoNS == nil {
			m.infoNS = make(map[string]struct{})
		}
		for _, ns := range namespaces {
			m.infoNS[ns] = struct{}{}
		}
	}
}

// Manager tracks the Jingle sessions of one local party.
// It is safe for concurrent use.
type Manager struct {
	local    jid.JID
	sender   Sender
	logger   logrus.FieldLogger
	metrics  *metrics
	onEvent  func(Event)
	newSID   func() string
	features []string
	infoNS   map[string]struct{}

	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// New returns a manager that sends stanzas from local using s.
func New(local jid.JID, s Sender, opts ...Option) *Manager {
	m := &Manager{
		local:    local,
		sender:   s,
		sessions: make(map[string]*session.Session),
		newSID: func() string {
			return uuid.New().String()
		},
	}
	for _, o := range opts {
		o(m)
	}
	if m.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		m.logger = l
	}
	if m.metrics == nil {
		m.metrics = newMetrics(nil)
	}
	return m
}

// Session returns the session with the given sid.
// Terminated sessions are kept until Forget or Reset is called.
func (m *Manager) Session(sid string) (*session.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sid]
	return s, ok
}

// Sessions returns the sessions that are not terminated, ordered by sid.
func (m *Manager) Sessions() []*session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.State() != session.Terminated {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SID() < out[j].SID()
	})
	return out
}

// Forget removes the session with the given sid, terminating it first if
// needed.
func (m *Manager) Forget(sid string) {
	m.mu.Lock()
	s, ok := m.sessions[sid]
	delete(m.sessions, sid)
	m.mu.Unlock()
	if ok {
		s.Abort()
	}
}

// Reset terminates and removes every session.
// It should be called when the connection to the server is lost.
func (m *Manager) Reset() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*session.Session)
	m.mu.Unlock()

	for sid, s := range sessions {
		if s.State() != session.Terminated {
			m.logger.WithFields(logrus.Fields{"sid": sid, "peer": s.Remote().String()}).Info("aborting session")
		}
		s.Abort()
	}
}

// ForFeatures implements info.FeatureIter.
func (m *Manager) ForFeatures(node string, f func(info.Feature) error) error {
	if node != "" {
		return nil
	}
	err := f(info.Feature{Var: jingle.NS})
	if err != nil {
		return err
	}
	for _, v := range m.features {
		if err = f(info.Feature{Var: v}); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) sessionOpts() []session.Option {
	return []session.Option{
		session.OnStateChange(func(s *session.Session, from, to session.State) {
			m.logger.WithFields(logrus.Fields{
				"sid":  s.SID(),
				"peer": s.Remote().String(),
			}).Debugf("session %s -> %s", from, to)
			if to == session.Terminated {
				m.metrics.sessions.Dec()
			}
		}),
	}
}

// lookup returns the session for sid or a StateError for action.
func (m *Manager) lookup(sid string, action jingle.Action) (*session.Session, error) {
	s, ok := m.Session(sid)
	if !ok {
		return nil, &session.StateError{SID: sid, Action: action, Err: session.ErrUnknownSession}
	}
	return s, nil
}

// register adds a new session created from the session-initiate j.
// An existing session with the same sid is replaced only if it is terminated.
func (m *Manager) register(j *jingle.Jingle, role session.Role, remote jid.JID) (*session.Session, error) {
	s, err := session.New(j, role, m.local, remote, m.sessionOpts()...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[j.SID]; ok && old.State() != session.Terminated {
		return nil, &session.StateError{SID: j.SID, Action: j.Action, Err: session.ErrDuplicateInitiate}
	}
	m.sessions[j.SID] = s
	m.metrics.sessions.Inc()
	return s, nil
}

// unregister removes s if it is still the session stored under its sid.
func (m *Manager) unregister(s *session.Session) {
	m.mu.Lock()
	if m.sessions[s.SID()] == s {
		delete(m.sessions, s.SID())
	}
	m.mu.Unlock()
	s.Abort()
}

func (m *Manager) emit(e Event) {
	if m.onEvent != nil {
		m.onEvent(e)
	}
}
