// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"encoding/xml"
)

// Creator is the party that originally proposed a content.
// The zero value means that no creator was given.
type Creator uint8

// Valid creators.
const (
	CreatorInitiator Creator = iota + 1
	CreatorResponder
)

// String returns the wire form of the creator.
func (c Creator) String() string {
	switch c {
	case CreatorInitiator:
		return "initiator"
	case CreatorResponder:
		return "responder"
	}
	return ""
}

// ParseCreator returns the creator with the given wire form.
func ParseCreator(s string) (Creator, error) {
	switch s {
	case "initiator":
		return CreatorInitiator, nil
	case "responder":
		return CreatorResponder, nil
	}
	return 0, ErrUnknownCreator
}

// MarshalXMLAttr satisfies xml.MarshalerAttr.
// The zero value is omitted.
func (c Creator) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	if c == 0 {
		return xml.Attr{}, nil
	}
	return xml.Attr{Name: name, Value: c.String()}, nil
}

// UnmarshalXMLAttr satisfies xml.UnmarshalerAttr.
func (c *Creator) UnmarshalXMLAttr(attr xml.Attr) error {
	cc, err := ParseCreator(attr.Value)
	if err != nil {
		return err
	}
	*c = cc
	return nil
}

// Senders indicates which parties will be generating media for a content.
// The zero value is SendersBoth, the protocol default.
type Senders uint8

// Valid senders.
const (
	SendersBoth Senders = iota
	SendersInitiator
	SendersResponder
	SendersNone
)

// String returns the wire form of s.
func (s Senders) String() string {
	switch s {
	case SendersBoth:
		return "both"
	case SendersInitiator:
		return "initiator"
	case SendersResponder:
		return "responder"
	case SendersNone:
		return "none"
	}
	return ""
}

// ParseSenders returns the senders value with the given wire form.
func ParseSenders(v string) (Senders, error) {
	switch v {
	case "both":
		return SendersBoth, nil
	case "initiator":
		return SendersInitiator, nil
	case "responder":
		return SendersResponder, nil
	case "none":
		return SendersNone, nil
	}
	return 0, ErrUnknownSenders
}

// MarshalXMLAttr satisfies xml.MarshalerAttr.
func (s Senders) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: s.String()}, nil
}

// UnmarshalXMLAttr satisfies xml.UnmarshalerAttr.
func (s *Senders) UnmarshalXMLAttr(attr xml.Attr) error {
	ss, err := ParseSenders(attr.Value)
	if err != nil {
		return err
	}
	*s = ss
	return nil
}
