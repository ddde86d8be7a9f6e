// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"encoding/xml"
	"io"
	"sync"

	"mellium.im/xmlstream"

	"mellium.im/jingle/internal/ns"
)

// DefaultDisposition is the disposition of a content that does not specify
// one.
const DefaultDisposition = "session"

// Key identifies a content within a session.
// Two contents with the same name but a different creator are distinct.
type Key struct {
	Creator Creator
	Name    string
}

// String returns the key in the form creator/name.
func (k Key) String() string {
	return k.Creator.String() + "/" + k.Name
}

// Content is one negotiated media or data stream.
//
// The list of sub-elements may be appended to by one goroutine while another
// encodes the content.
type Content struct {
	creator     Creator
	name        string
	disposition string
	senders     Senders

	mu       sync.RWMutex
	children []Element
}

// ContentOption sets an optional field of a content.
type ContentOption func(*Content)

// WithDisposition sets how the content is to be interpreted by the recipient.
func WithDisposition(d string) ContentOption {
	return func(c *Content) {
		c.disposition = d
	}
}

// WithSenders sets which parties will be generating media.
func WithSenders(s Senders) ContentOption {
	return func(c *Content) {
		c.senders = s
	}
}

// NewContent returns a content with the two mandatory fields set.
func NewContent(creator Creator, name string, opts ...ContentOption) *Content {
	c := &Content{
		creator: creator,
		name:    name,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Creator returns the party that originally proposed the content.
func (c *Content) Creator() Creator {
	return c.creator
}

// Name returns the name of the content.
func (c *Content) Name() string {
	return c.name
}

// Key returns the (creator, name) pair that identifies the content.
func (c *Content) Key() Key {
	return Key{Creator: c.creator, Name: c.name}
}

// Disposition returns the disposition of the content, or DefaultDisposition if
// none was set.
func (c *Content) Disposition() string {
	if c.disposition == "" {
		return DefaultDisposition
	}
	return c.disposition
}

// Senders returns which parties will be generating media.
func (c *Content) Senders() Senders {
	return c.senders
}

// AddSubElement appends el to the content's sub-elements.
func (c *Content) AddSubElement(el Element) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.children = append(c.children, el)
}

// SubElements returns a copy of the content's sub-elements.
func (c *Content) SubElements() []Element {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.children) == 0 {
		return nil
	}
	out := make([]Element, len(c.children))
	copy(out, c.children)
	return out
}

// WithSubElements returns a copy of c that has els as its sub-elements.
// The receiver is not modified.
func (c *Content) WithSubElements(els ...Element) *Content {
	nc := &Content{
		creator:     c.creator,
		name:        c.name,
		disposition: c.disposition,
		senders:     c.senders,
	}
	if len(els) > 0 {
		nc.children = make([]Element, len(els))
		copy(nc.children, els)
	}
	return nc
}

// SubElement returns the first sub-element with the given local name.
// The description and transport of a content are normally found with
// SubElement("description") and SubElement("transport").
func (c *Content) SubElement(local string) (Element, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, el := range c.children {
		if el.XMLName.Local == local {
			return el, true
		}
	}
	return Element{}, false
}

// Equal reports whether c and o have the same fields and sub-elements.
func (c *Content) Equal(o *Content) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.creator != o.creator ||
		c.name != o.name ||
		c.disposition != o.disposition ||
		c.senders != o.senders {
		return false
	}
	a, b := c.SubElements(), o.SubElements()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (c *Content) start() xml.StartElement {
	start := xml.StartElement{Name: xml.Name{Space: ns.Jingle, Local: "content"}}
	if c.creator != 0 {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "creator"}, Value: c.creator.String()})
	}
	if c.disposition != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "disposition"}, Value: c.disposition})
	}
	start.Attr = append(start.Attr,
		xml.Attr{Name: xml.Name{Local: "name"}, Value: c.name},
		xml.Attr{Name: xml.Name{Local: "senders"}, Value: c.senders.String()},
	)
	return start
}

// TokenReader satisfies the xmlstream.Marshaler interface.
// The sub-elements are copied when TokenReader is called; elements added
// afterwards are not part of the returned stream.
func (c *Content) TokenReader() xml.TokenReader {
	children := c.SubElements()
	inner := make([]xml.TokenReader, 0, len(children))
	for _, el := range children {
		inner = append(inner, el.TokenReader())
	}
	return xmlstream.Wrap(xmlstream.MultiReader(inner...), c.start())
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (c *Content) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, c.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface.
func (c *Content) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := c.WriteXML(e)
	if err != nil {
		return err
	}
	return e.Flush()
}

// UnmarshalXML satisfies the xml.Unmarshaler interface.
func (c *Content) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	nc, err := decodeContent(d, start)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creator = nc.creator
	c.name = nc.name
	c.disposition = nc.disposition
	c.senders = nc.senders
	c.children = nc.children
	return nil
}

func decodeContent(r xml.TokenReader, start xml.StartElement) (*Content, error) {
	c := &Content{}
	for _, a := range start.Attr {
		if a.Name.Space != "" {
			continue
		}
		var err error
		switch a.Name.Local {
		case "creator":
			c.creator, err = ParseCreator(a.Value)
		case "name":
			c.name = a.Value
		case "disposition":
			c.disposition = a.Value
		case "senders":
			c.senders, err = ParseSenders(a.Value)
		}
		if err != nil {
			return nil, &DecodeError{Attr: a.Name.Local, Err: err}
		}
	}

	for {
		tok, err := r.Token()
		switch t := tok.(type) {
		case xml.StartElement:
			el, err := readElement(r, t)
			if err != nil {
				return nil, err
			}
			c.children = append(c.children, el)
			continue
		case xml.EndElement:
			return c, nil
		}
		if err != nil {
			if err == io.EOF {
				return c, nil
			}
			return nil, err
		}
	}
}
