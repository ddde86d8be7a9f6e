// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package call

import (
	"encoding/xml"
	"errors"
	"fmt"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle"
	"mellium.im/jingle/internal/ns"
	"mellium.im/jingle/session"
)

// ErrUnsupportedInfo is returned when a session-info payload is not in one of
// the namespaces configured with SupportedInfo.
var ErrUnsupportedInfo = errors.New("call: unsupported session-info payload")

// TransportError is returned when a stanza could not be sent to the peer.
// It is never retried.
type TransportError struct {
	SID    string
	Action jingle.Action
	Err    error
}

// Error satisfies the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("call: error sending %s for %q: %v", e.Action, e.SID, e.Err)
}

// Unwrap returns the error from the underlying transport.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Jingle specific error conditions.
const (
	condOutOfOrder      = "out-of-order"
	condTieBreak        = "tie-break"
	condUnknownSession  = "unknown-session"
	condUnsupportedInfo = "unsupported-info"
)

type errorCondition struct {
	typ    stanza.ErrorType
	cond   stanza.Condition
	jingle string
}

// condition maps an error returned while handling an incoming stanza to the
// error that is sent back to the peer.
func condition(err error) errorCondition {
	var (
		decodeErr     *jingle.DecodeError
		validationErr *jingle.ValidationError
	)
	switch {
	case errors.As(err, &decodeErr), errors.As(err, &validationErr):
		return errorCondition{typ: stanza.Modify, cond: stanza.BadRequest}
	case errors.Is(err, session.ErrOutOfOrder):
		return errorCondition{typ: stanza.Wait, cond: stanza.UnexpectedRequest, jingle: condOutOfOrder}
	case errors.Is(err, session.ErrUnknownSession), errors.Is(err, session.ErrActionAfterTerminate):
		return errorCondition{typ: stanza.Cancel, cond: stanza.ItemNotFound, jingle: condUnknownSession}
	case errors.Is(err, session.ErrDuplicateInitiate):
		return errorCondition{typ: stanza.Cancel, cond: stanza.Conflict, jingle: condTieBreak}
	case errors.Is(err, session.ErrDuplicateContent):
		return errorCondition{typ: stanza.Cancel, cond: stanza.Conflict}
	case errors.Is(err, session.ErrUnknownContent):
		return errorCondition{typ: stanza.Cancel, cond: stanza.ItemNotFound}
	case errors.Is(err, session.ErrCreatorMismatch):
		return errorCondition{typ: stanza.Modify, cond: stanza.BadRequest}
	case errors.Is(err, ErrUnsupportedInfo):
		return errorCondition{typ: stanza.Modify, cond: stanza.FeatureNotImplemented, jingle: condUnsupportedInfo}
	}
	return errorCondition{typ: stanza.Cancel, cond: stanza.UndefinedCondition}
}

// label returns the value of the reason label of the rejected counter.
func (c errorCondition) label() string {
	if c.jingle != "" {
		return c.jingle
	}
	return string(c.cond)
}

// TokenReader returns the error element.
func (c errorCondition) TokenReader() xml.TokenReader {
	inner := []xml.TokenReader{
		xmlstream.Wrap(nil, xml.StartElement{Name: xml.Name{Space: ns.Stanza, Local: string(c.cond)}}),
	}
	if c.jingle != "" {
		inner = append(inner, xmlstream.Wrap(nil, xml.StartElement{Name: xml.Name{Space: ns.JingleErrors, Local: c.jingle}}))
	}
	return xmlstream.Wrap(
		xmlstream.MultiReader(inner...),
		xml.StartElement{
			Name: xml.Name{Local: "error"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "type"}, Value: string(c.typ)}},
		},
	)
}

// errorReply returns an error response to iq.
func errorReply(iq stanza.IQ, c errorCondition) xml.TokenReader {
	iq.To, iq.From = iq.From, iq.To
	iq.Type = stanza.ErrorIQ
	return iq.Wrap(c.TokenReader())
}
