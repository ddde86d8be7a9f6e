// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package rtp contains the Jingle RTP application format payloads.
//
// The package only builds and parses the signaling elements; it does not send
// or receive media.
package rtp // import "mellium.im/jingle/rtp"

import (
	"encoding/xml"
	"strconv"

	"mellium.im/xmlstream"

	"mellium.im/jingle"
)

// Namespaces used by this package, provided as a convenience.
const (
	NS     = "urn:xmpp:jingle:apps:rtp:1"
	NSInfo = "urn:xmpp:jingle:apps:rtp:info:1"
)

// Media types.
const (
	Audio = "audio"
	Video = "video"
)

// PayloadType is a codec offered in a description.
type PayloadType struct {
	ID        uint8
	Name      string
	ClockRate uint32
	Channels  uint8
}

// Description is an RTP application description.
type Description struct {
	Media    string
	Payloads []PayloadType
}

// TokenReader satisfies the xmlstream.Marshaler interface.
func (d Description) TokenReader() xml.TokenReader {
	var payloads []xml.TokenReader
	for _, p := range d.Payloads {
		attr := []xml.Attr{{Name: xml.Name{Local: "id"}, Value: strconv.Itoa(int(p.ID))}}
		if p.Name != "" {
			attr = append(attr, xml.Attr{Name: xml.Name{Local: "name"}, Value: p.Name})
		}
		if p.ClockRate != 0 {
			attr = append(attr, xml.Attr{Name: xml.Name{Local: "clockrate"}, Value: strconv.FormatUint(uint64(p.ClockRate), 10)})
		}
		if p.Channels > 1 {
			attr = append(attr, xml.Attr{Name: xml.Name{Local: "channels"}, Value: strconv.Itoa(int(p.Channels))})
		}
		payloads = append(payloads, xmlstream.Wrap(nil, xml.StartElement{
			Name: xml.Name{Space: NS, Local: "payload-type"},
			Attr: attr,
		}))
	}
	return xmlstream.Wrap(
		xmlstream.MultiReader(payloads...),
		xml.StartElement{
			Name: xml.Name{Space: NS, Local: "description"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "media"}, Value: d.Media}},
		},
	)
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (d Description) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, d.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface.
func (d Description) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := d.WriteXML(e)
	if err != nil {
		return err
	}
	return e.Flush()
}

// UnmarshalXML satisfies the xml.Unmarshaler interface.
func (d *Description) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	s := struct {
		Media    string `xml:"media,attr"`
		Payloads []struct {
			ID        uint8  `xml:"id,attr"`
			Name      string `xml:"name,attr"`
			ClockRate uint32 `xml:"clockrate,attr"`
			Channels  uint8  `xml:"channels,attr"`
		} `xml:"urn:xmpp:jingle:apps:rtp:1 payload-type"`
	}{}
	if err := dec.DecodeElement(&s, &start); err != nil {
		return err
	}
	d.Media = s.Media
	d.Payloads = d.Payloads[:0]
	for _, p := range s.Payloads {
		d.Payloads = append(d.Payloads, PayloadType{
			ID:        p.ID,
			Name:      p.Name,
			ClockRate: p.ClockRate,
			Channels:  p.Channels,
		})
	}
	return nil
}

// Element returns the description as an element that can be added to a
// content.
func (d Description) Element() jingle.Element {
	el, err := jingle.ReadElement(d.TokenReader())
	if err != nil {
		// The token stream is generated above and is always well formed.
		panic(err)
	}
	return el
}

// ParseDescription reads the RTP description of a content.
// It reports false if the content has no description in this namespace.
func ParseDescription(c *jingle.Content) (Description, bool, error) {
	el, ok := c.SubElement("description")
	if !ok || el.XMLName.Space != NS {
		return Description{}, false, nil
	}
	var d Description
	err := el.Unmarshal(&d)
	return d, true, err
}

// NewContent returns a content named after the media type with an RTP
// description.
func NewContent(creator jingle.Creator, d Description, opts ...jingle.ContentOption) *jingle.Content {
	c := jingle.NewContent(creator, d.Media, opts...)
	c.AddSubElement(d.Element())
	return c
}
