// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"encoding/xml"
	"io"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"

	"mellium.im/jingle/internal/ns"
)

// NS is the XML namespace used by Jingle. It is provided as a convenience.
const NS = ns.Jingle

// NSErrors is the namespace of Jingle specific error conditions.
const NSErrors = ns.JingleErrors

// Jingle is a session negotiation message.
//
// A Jingle can be built without regard to which fields its action requires so
// that outgoing messages can be assembled in steps.
// Use Validate before sending it or handing it to a session.
type Jingle struct {
	Action Action

	// Initiator and Responder are the full JIDs of the parties.
	// The zero JID means that the attribute is absent.
	Initiator jid.JID
	Responder jid.JID

	// SID is generated by the initiator and is the same on every message of
	// the session.
	SID string

	// Contents are kept in the order in which they appear on the wire.
	Contents []*Content

	// Info is the session-info payload, if any.
	Info *Element

	// Reason is an optional explanation, normally sent with session-terminate.
	Reason *Reason

	// Extra holds any further unrecognized child elements so that they survive
	// a round trip.
	// On decode the first unrecognized child always becomes Info.
	Extra []Element
}

// New returns a Jingle with the fields that are required for every action.
func New(action Action, sid string) *Jingle {
	return &Jingle{
		Action: action,
		SID:    sid,
	}
}

// Content returns the first content with the given creator and name.
func (j *Jingle) Content(creator Creator, name string) (*Content, bool) {
	for _, c := range j.Contents {
		if c.creator == creator && c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Equal reports whether j and o are structurally equal.
func (j *Jingle) Equal(o *Jingle) bool {
	if j == nil || o == nil {
		return j == o
	}
	if j.Action != o.Action ||
		j.SID != o.SID ||
		!j.Initiator.Equal(o.Initiator) ||
		!j.Responder.Equal(o.Responder) ||
		len(j.Contents) != len(o.Contents) ||
		len(j.Extra) != len(o.Extra) {
		return false
	}
	for i, c := range j.Contents {
		if !c.Equal(o.Contents[i]) {
			return false
		}
	}
	switch {
	case (j.Info == nil) != (o.Info == nil):
		return false
	case j.Info != nil && !j.Info.Equal(*o.Info):
		return false
	case (j.Reason == nil) != (o.Reason == nil):
		return false
	case j.Reason != nil && *j.Reason != *o.Reason:
		return false
	}
	for i, el := range j.Extra {
		if !el.Equal(o.Extra[i]) {
			return false
		}
	}
	return true
}

func isZero(j jid.JID) bool {
	return j.String() == ""
}

func (j *Jingle) start() xml.StartElement {
	start := xml.StartElement{
		Name: xml.Name{Space: NS, Local: "jingle"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "action"}, Value: j.Action.String()}},
	}
	if !isZero(j.Initiator) {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "initiator"}, Value: j.Initiator.String()})
	}
	if !isZero(j.Responder) {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "responder"}, Value: j.Responder.String()})
	}
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "sid"}, Value: j.SID})
	return start
}

// TokenReader satisfies the xmlstream.Marshaler interface.
func (j *Jingle) TokenReader() xml.TokenReader {
	inner := make([]xml.TokenReader, 0, len(j.Contents)+len(j.Extra)+2)
	for _, c := range j.Contents {
		inner = append(inner, c.TokenReader())
	}
	if j.Reason != nil {
		inner = append(inner, j.Reason.TokenReader())
	}
	if j.Info != nil {
		inner = append(inner, j.Info.TokenReader())
	}
	for _, el := range j.Extra {
		inner = append(inner, el.TokenReader())
	}
	return xmlstream.Wrap(xmlstream.MultiReader(inner...), j.start())
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (j *Jingle) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, j.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface.
func (j *Jingle) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := j.WriteXML(e)
	if err != nil {
		return err
	}
	return e.Flush()
}

// UnmarshalXML satisfies the xml.Unmarshaler interface.
func (j *Jingle) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	jj, err := Decode(d, start)
	if err != nil {
		return err
	}
	*j = *jj
	return nil
}

func isJingle(name xml.Name, local string) bool {
	return name.Local == local && (name.Space == NS || name.Space == "")
}

// Decode reads a Jingle element from r.
// The start element must already have been consumed from r; decoding stops
// after the matching end element (or at io.EOF if r only returns the inner
// tokens).
//
// Decode does not validate the element, see Validate.
func Decode(r xml.TokenReader, start xml.StartElement) (*Jingle, error) {
	j := &Jingle{}
	var hasAction bool
	for _, a := range start.Attr {
		if a.Name.Space != "" {
			continue
		}
		var err error
		switch a.Name.Local {
		case "action":
			hasAction = true
			j.Action, err = ParseAction(a.Value)
		case "sid":
			j.SID = a.Value
		case "initiator":
			j.Initiator, err = jid.Parse(a.Value)
		case "responder":
			j.Responder, err = jid.Parse(a.Value)
		}
		if err != nil {
			return nil, &DecodeError{Attr: a.Name.Local, Err: err}
		}
	}
	if !hasAction {
		return nil, &DecodeError{Attr: "action", Err: ErrUnknownAction}
	}

	for {
		tok, err := r.Token()
		switch t := tok.(type) {
		case xml.StartElement:
			if err := j.decodeChild(r, t); err != nil {
				return nil, err
			}
			continue
		case xml.EndElement:
			return j, nil
		}
		if err != nil {
			if err == io.EOF {
				return j, nil
			}
			return nil, err
		}
	}
}

func (j *Jingle) decodeChild(r xml.TokenReader, start xml.StartElement) error {
	switch {
	case isJingle(start.Name, "content"):
		c, err := decodeContent(r, start)
		if err != nil {
			return err
		}
		j.Contents = append(j.Contents, c)
		return nil
	case isJingle(start.Name, "reason") && j.Reason == nil:
		reason, err := decodeReason(r)
		if err != nil {
			return err
		}
		j.Reason = &reason
		return nil
	}

	el, err := readElement(r, start)
	if err != nil {
		return err
	}
	if j.Info == nil {
		j.Info = &el
		return nil
	}
	j.Extra = append(j.Extra, el)
	return nil
}
