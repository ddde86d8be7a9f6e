// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package session tracks the lifecycle of a single Jingle session.
//
// A Session is created from the session-initiate that started it and every
// further stanza for the same sid is passed to Apply in the order in which it
// was sent or received.
// Apply either applies the whole stanza or leaves the session untouched.
package session // import "mellium.im/jingle/session"

import (
	"context"
	"encoding/xml"
	"errors"
	"sync"

	"github.com/looplab/fsm"
	"mellium.im/xmpp/jid"

	"mellium.im/jingle"
)

// Each action that is legal after the session is initiated is an event of the
// state machine.
// Actions that are missing from this list are rejected with ErrOutOfOrder.
var events = fsm.Events{
	{Name: jingle.SessionAccept.String(), Src: []string{Pending.String()}, Dst: Active.String()},
	{Name: jingle.SessionTerminate.String(), Src: []string{Pending.String(), Active.String()}, Dst: Terminated.String()},

	// Ringing and trickled candidates may be sent before the session is
	// accepted.
	{Name: jingle.SessionInfo.String(), Src: []string{Pending.String()}, Dst: Pending.String()},
	{Name: jingle.SessionInfo.String(), Src: []string{Active.String()}, Dst: Active.String()},
	{Name: jingle.TransportInfo.String(), Src: []string{Pending.String()}, Dst: Pending.String()},
	{Name: jingle.TransportInfo.String(), Src: []string{Active.String()}, Dst: Active.String()},

	{Name: jingle.ContentAdd.String(), Src: []string{Active.String()}, Dst: Active.String()},
	{Name: jingle.ContentModify.String(), Src: []string{Active.String()}, Dst: Active.String()},
	{Name: jingle.ContentAccept.String(), Src: []string{Active.String()}, Dst: Active.String()},
	{Name: jingle.ContentReject.String(), Src: []string{Active.String()}, Dst: Active.String()},
	{Name: jingle.ContentRemove.String(), Src: []string{Active.String()}, Dst: Active.String()},
	{Name: jingle.TransportAccept.String(), Src: []string{Active.String()}, Dst: Active.String()},
	{Name: jingle.TransportReplace.String(), Src: []string{Active.String()}, Dst: Active.String()},
	{Name: jingle.TransportReject.String(), Src: []string{Active.String()}, Dst: Active.String()},
	{Name: jingle.DescriptionInfo.String(), Src: []string{Active.String()}, Dst: Active.String()},
	{Name: jingle.SecurityInfo.String(), Src: []string{Active.String()}, Dst: Active.String()},
}

// Option configures a session.
type Option func(*Session)

// OnStateChange returns an option that calls f after every change of state.
// f is called after the session lock is released and may use the session.
func OnStateChange(f func(s *Session, from, to State)) Option {
	return func(s *Session) {
		s.onState = f
	}
}

type entry struct {
	content *jingle.Content
	state   ContentState
}

// Session is the state of one Jingle negotiation.
// It is safe for concurrent use; each session has its own lock.
type Session struct {
	sid    string
	role   Role
	local  jid.JID
	remote jid.JID

	onState func(s *Session, from, to State)

	mu        sync.Mutex
	machine   *fsm.FSM
	initiator jid.JID
	responder jid.JID
	contents  map[jingle.Key]entry
	order     []jingle.Key
	changed   *transition
}

type transition struct {
	from, to State
}

// New creates a session from a session-initiate.
// The role is the part played by local; remote is the other party.
func New(j *jingle.Jingle, role Role, local, remote jid.JID, opts ...Option) (*Session, error) {
	if err := jingle.Validate(j); err != nil {
		return nil, err
	}
	if j.Action != jingle.SessionInitiate {
		return nil, &StateError{SID: j.SID, Action: j.Action, Err: ErrOutOfOrder}
	}
	s := &Session{
		sid:       j.SID,
		role:      role,
		local:     local,
		remote:    remote,
		initiator: j.Initiator,
		responder: j.Responder,
		contents:  make(map[jingle.Key]entry, len(j.Contents)),
	}
	for _, c := range j.Contents {
		k := c.Key()
		if _, ok := s.contents[k]; ok {
			return nil, &StateError{SID: j.SID, Action: j.Action, Key: k, Err: ErrDuplicateContent}
		}
		s.contents[k] = entry{content: clone(c)}
		s.order = append(s.order, k)
	}
	for _, o := range opts {
		o(s)
	}
	s.machine = fsm.NewFSM(
		Pending.String(),
		events,
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.changed = &transition{from: parseState(e.Src), to: parseState(e.Dst)}
			},
		},
	)
	return s, nil
}

// SID returns the session identifier.
func (s *Session) SID() string {
	return s.sid
}

// Role returns the part played by the local party.
func (s *Session) Role() Role {
	return s.role
}

// Local returns the address of the local party.
func (s *Session) Local() jid.JID {
	return s.local
}

// Remote returns the address of the peer.
func (s *Session) Remote() jid.JID {
	return s.remote
}

// Initiator returns the initiator of the session.
func (s *Session) Initiator() jid.JID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initiator
}

// Responder returns the responder of the session.
// It is the zero JID until the session is accepted unless the initiator named
// a responder in the session-initiate.
func (s *Session) Responder() jid.JID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responder
}

// State returns the current state of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return parseState(s.machine.Current())
}

// Contents returns copies of the contents of the session in the order in which
// they were added.
func (s *Session) Contents() []*jingle.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*jingle.Content, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, clone(s.contents[k].content))
	}
	return out
}

// Content returns a copy of the most recent version of the content with key k.
// Changing the copy does not change the session.
func (s *Session) Content(k jingle.Key) (*jingle.Content, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.contents[k]
	if !ok {
		return nil, false
	}
	return clone(e.content), true
}

// ContentState returns the negotiation state of the content with key k.
func (s *Session) ContentState(k jingle.Key) (ContentState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.contents[k]
	return e.state, ok
}

// Apply validates j against the current state and applies it.
// If an error is returned the session is unchanged.
//
// The ctx is passed to the state machine callbacks.
func (s *Session) Apply(ctx context.Context, j *jingle.Jingle) error {
	change, err := s.apply(ctx, j)
	if change != nil && s.onState != nil {
		s.onState(s, change.from, change.to)
	}
	return err
}

func (s *Session) apply(ctx context.Context, j *jingle.Jingle) (*transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fail := func(k jingle.Key, err error) error {
		return &StateError{SID: s.sid, Action: j.Action, Key: k, Err: err}
	}
	if j.SID != s.sid {
		return nil, fail(jingle.Key{}, ErrUnknownSession)
	}
	if err := jingle.Validate(j); err != nil {
		return nil, err
	}

	event := j.Action.String()
	switch {
	case s.machine.Current() == Terminated.String():
		return nil, fail(jingle.Key{}, ErrActionAfterTerminate)
	case j.Action == jingle.SessionInitiate:
		return nil, fail(jingle.Key{}, ErrDuplicateInitiate)
	case !s.machine.Can(event):
		return nil, fail(jingle.Key{}, ErrOutOfOrder)
	case j.Action == jingle.SessionAccept && !s.canAccept(j.Responder):
		return nil, fail(jingle.Key{}, ErrOutOfOrder)
	}

	st := s.stage()
	if err := st.apply(j); err != nil {
		var se *StateError
		if errors.As(err, &se) {
			se.SID = s.sid
		}
		return nil, err
	}

	s.changed = nil
	err := s.machine.Event(ctx, event)
	if err != nil && !errors.As(err, &fsm.NoTransitionError{}) {
		return nil, err
	}
	s.contents, s.order = st.contents, st.order
	if j.Action == jingle.SessionAccept {
		s.responder = j.Responder
		if isZero(s.initiator) {
			s.initiator = j.Initiator
		}
	}
	return s.changed, nil
}

// Abort moves the session to Terminated without a session-terminate, for
// example because the connection to the peer was lost.
// Aborting a terminated session does nothing.
func (s *Session) Abort() {
	s.mu.Lock()
	from := parseState(s.machine.Current())
	if from != Terminated {
		s.machine.SetState(Terminated.String())
	}
	s.mu.Unlock()

	if from != Terminated && s.onState != nil {
		s.onState(s, from, Terminated)
	}
}

// canAccept reports whether responder may accept the session.
// The initiator never accepts its own session, and the accepting party is the
// remote party for an initiator and the local party for a responder.
func (s *Session) canAccept(responder jid.JID) bool {
	if responder.Equal(s.initiator) {
		return false
	}
	party := s.remote
	if s.role == RoleResponder {
		party = s.local
	}
	if isZero(party) {
		return true
	}
	return responder.Bare().Equal(party.Bare())
}

// clone returns a copy of c that shares nothing mutable with it.
func clone(c *jingle.Content) *jingle.Content {
	children := c.SubElements()
	for i, el := range children {
		if el.Attr != nil {
			children[i].Attr = append([]xml.Attr(nil), el.Attr...)
		}
	}
	return c.WithSubElements(children...)
}

func isZero(j jid.JID) bool {
	return j.String() == ""
}
