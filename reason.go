// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"encoding/xml"
	"io"

	"mellium.im/xmlstream"

	"mellium.im/jingle/internal/ns"
)

// Condition is the machine readable reason for an action, most often for
// session-terminate.
type Condition string

// A list of reason conditions.
const (
	AlternativeSession      Condition = "alternative-session"
	Busy                    Condition = "busy"
	Cancel                  Condition = "cancel"
	ConnectivityError       Condition = "connectivity-error"
	Decline                 Condition = "decline"
	Expired                 Condition = "expired"
	FailedApplication       Condition = "failed-application"
	FailedTransport         Condition = "failed-transport"
	GeneralError            Condition = "general-error"
	Gone                    Condition = "gone"
	IncompatibleParameters  Condition = "incompatible-parameters"
	MediaError              Condition = "media-error"
	SecurityError           Condition = "security-error"
	Success                 Condition = "success"
	Timeout                 Condition = "timeout"
	UnsupportedApplications Condition = "unsupported-applications"
	UnsupportedTransports   Condition = "unsupported-transports"
)

// Reason explains why an action was taken.
type Reason struct {
	Condition Condition

	// SID is the identifier of the session to switch to.
	// It is only used with the AlternativeSession condition.
	SID string

	// Text is an optional human readable description.
	Text string
}

// TokenReader satisfies the xmlstream.Marshaler interface.
func (r Reason) TokenReader() xml.TokenReader {
	var inner []xml.TokenReader
	if r.Condition != "" {
		var sid xml.TokenReader
		if r.Condition == AlternativeSession && r.SID != "" {
			sid = xmlstream.Wrap(
				xmlstream.Token(xml.CharData(r.SID)),
				xml.StartElement{Name: xml.Name{Space: ns.Jingle, Local: "sid"}},
			)
		}
		inner = append(inner, xmlstream.Wrap(
			sid,
			xml.StartElement{Name: xml.Name{Space: ns.Jingle, Local: string(r.Condition)}},
		))
	}
	if r.Text != "" {
		inner = append(inner, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(r.Text)),
			xml.StartElement{Name: xml.Name{Space: ns.Jingle, Local: "text"}},
		))
	}
	return xmlstream.Wrap(
		xmlstream.MultiReader(inner...),
		xml.StartElement{Name: xml.Name{Space: ns.Jingle, Local: "reason"}},
	)
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (r Reason) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, r.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface.
func (r Reason) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := r.WriteXML(e)
	if err != nil {
		return err
	}
	return e.Flush()
}

// UnmarshalXML satisfies the xml.Unmarshaler interface.
func (r *Reason) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	reason, err := decodeReason(d)
	if err != nil {
		return err
	}
	*r = reason
	return nil
}

func decodeReason(r xml.TokenReader) (Reason, error) {
	var reason Reason
	for {
		tok, err := r.Token()
		switch t := tok.(type) {
		case xml.StartElement:
			el, err := readElement(r, t)
			if err != nil {
				return reason, err
			}
			switch el.XMLName.Local {
			case "text":
				reason.Text = el.Text()
			default:
				reason.Condition = Condition(el.XMLName.Local)
				if reason.Condition == AlternativeSession {
					reason.SID = el.Text()
				}
			}
			continue
		case xml.EndElement:
			return reason, nil
		}
		if err != nil {
			if err == io.EOF {
				return reason, nil
			}
			return reason, err
		}
	}
}
