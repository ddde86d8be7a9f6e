// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"encoding/xml"
)

// Action is the purpose of a Jingle element.
// The set of actions is closed: decoding an element with any other action
// fails with ErrUnknownAction.
type Action uint8

// A list of Jingle actions.
// The zero value is not a valid action.
const (
	ContentAccept Action = iota + 1
	ContentAdd
	ContentModify
	ContentReject
	ContentRemove
	DescriptionInfo
	SecurityInfo
	SessionAccept
	SessionInfo
	SessionInitiate
	SessionTerminate
	TransportAccept
	TransportInfo
	TransportReject
	TransportReplace
)

var actionNames = [...]string{
	ContentAccept:    "content-accept",
	ContentAdd:       "content-add",
	ContentModify:    "content-modify",
	ContentReject:    "content-reject",
	ContentRemove:    "content-remove",
	DescriptionInfo:  "description-info",
	SecurityInfo:     "security-info",
	SessionAccept:    "session-accept",
	SessionInfo:      "session-info",
	SessionInitiate:  "session-initiate",
	SessionTerminate: "session-terminate",
	TransportAccept:  "transport-accept",
	TransportInfo:    "transport-info",
	TransportReject:  "transport-reject",
	TransportReplace: "transport-replace",
}

// Actions returns every valid action in wire order.
func Actions() []Action {
	a := make([]Action, 0, len(actionNames)-1)
	for i := 1; i < len(actionNames); i++ {
		a = append(a, Action(i))
	}
	return a
}

// String returns the wire form of the action or the empty string if a is not
// a valid action.
func (a Action) String() string {
	if !a.valid() {
		return ""
	}
	return actionNames[a]
}

func (a Action) valid() bool {
	return a > 0 && int(a) < len(actionNames)
}

// ParseAction returns the action with the given wire form.
func ParseAction(s string) (Action, error) {
	for i := 1; i < len(actionNames); i++ {
		if actionNames[i] == s {
			return Action(i), nil
		}
	}
	return 0, ErrUnknownAction
}

// MarshalXMLAttr satisfies xml.MarshalerAttr.
func (a Action) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	if !a.valid() {
		return xml.Attr{}, ErrUnknownAction
	}
	return xml.Attr{Name: name, Value: a.String()}, nil
}

// UnmarshalXMLAttr satisfies xml.UnmarshalerAttr.
func (a *Action) UnmarshalXMLAttr(attr xml.Attr) error {
	act, err := ParseAction(attr.Value)
	if err != nil {
		return err
	}
	*a = act
	return nil
}
