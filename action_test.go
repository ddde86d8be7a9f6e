// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle_test

import (
	"encoding/xml"
	"errors"
	"strconv"
	"testing"

	"mellium.im/jingle"
)

func TestActionRoundTrip(t *testing.T) {
	actions := jingle.Actions()
	if len(actions) != 15 {
		t.Fatalf("wrong number of actions: want=15, got=%d", len(actions))
	}
	for _, a := range actions {
		t.Run(a.String(), func(t *testing.T) {
			parsed, err := jingle.ParseAction(a.String())
			if err != nil {
				t.Fatalf("unexpected error parsing %q: %v", a, err)
			}
			if parsed != a {
				t.Errorf("wrong action: want=%v, got=%v", a, parsed)
			}
		})
	}
}

var badActions = [...]string{
	0: "",
	1: "session-initiated",
	2: "SESSION-INITIATE",
	3: "session-initiate ",
	4: "transport-info-extra",
}

func TestParseUnknownAction(t *testing.T) {
	for i, s := range badActions {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			_, err := jingle.ParseAction(s)
			if !errors.Is(err, jingle.ErrUnknownAction) {
				t.Errorf("wrong error: want=%v, got=%v", jingle.ErrUnknownAction, err)
			}
		})
	}
}

func TestMarshalInvalidAction(t *testing.T) {
	_, err := jingle.Action(0).MarshalXMLAttr(xml.Name{Local: "action"})
	if !errors.Is(err, jingle.ErrUnknownAction) {
		t.Errorf("wrong error marshaling zero action: %v", err)
	}
	if s := jingle.Action(200).String(); s != "" {
		t.Errorf("expected empty string for out of range action, got %q", s)
	}
}

var enumTests = [...]struct {
	in      string
	creator jingle.Creator
	senders jingle.Senders
	cErr    error
	sErr    error
}{
	0: {in: "initiator", creator: jingle.CreatorInitiator, senders: jingle.SendersInitiator},
	1: {in: "responder", creator: jingle.CreatorResponder, senders: jingle.SendersResponder},
	2: {in: "both", cErr: jingle.ErrUnknownCreator, senders: jingle.SendersBoth},
	3: {in: "none", cErr: jingle.ErrUnknownCreator, senders: jingle.SendersNone},
	4: {in: "", cErr: jingle.ErrUnknownCreator, sErr: jingle.ErrUnknownSenders},
	5: {in: "Initiator", cErr: jingle.ErrUnknownCreator, sErr: jingle.ErrUnknownSenders},
}

func TestParseCreatorSenders(t *testing.T) {
	for i, tc := range enumTests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			c, err := jingle.ParseCreator(tc.in)
			if !errors.Is(err, tc.cErr) {
				t.Errorf("wrong creator error: want=%v, got=%v", tc.cErr, err)
			}
			if err == nil && c != tc.creator {
				t.Errorf("wrong creator: want=%v, got=%v", tc.creator, c)
			}
			s, err := jingle.ParseSenders(tc.in)
			if !errors.Is(err, tc.sErr) {
				t.Errorf("wrong senders error: want=%v, got=%v", tc.sErr, err)
			}
			if err == nil && s != tc.senders {
				t.Errorf("wrong senders: want=%v, got=%v", tc.senders, s)
			}
			if err == nil && s.String() != tc.in {
				t.Errorf("senders did not round trip: want=%q, got=%q", tc.in, s)
			}
		})
	}
}
