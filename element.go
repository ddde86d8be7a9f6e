// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"reflect"

	"mellium.im/xmlstream"

	"mellium.im/jingle/internal/attr"
)

var errNoElement = errors.New("jingle: expected start element")

// Element is an XML element that is carried without being interpreted, such as
// an application description, a transport, or a session-info payload.
//
// Namespace declarations are not kept in Attr.
// The namespace of the element and its children is part of their names and is
// declared again when the element is encoded.
type Element struct {
	XMLName xml.Name
	Attr    []xml.Attr

	inner []xml.Token
}

// NewElement returns an element with no children.
func NewElement(name xml.Name, attr ...xml.Attr) Element {
	return Element{XMLName: name, Attr: attr}
}

// ReadElement consumes the next element from r, skipping any leading character
// data, comments, or processing instructions.
func ReadElement(r xml.TokenReader) (Element, error) {
	for {
		tok, err := r.Token()
		if start, ok := tok.(xml.StartElement); ok {
			return readElement(r, start)
		}
		if _, ok := tok.(xml.EndElement); ok {
			return Element{}, errNoElement
		}
		if err != nil {
			if err == io.EOF {
				return Element{}, errNoElement
			}
			return Element{}, err
		}
	}
}

// readElement captures the inner tokens of start from r, consuming the end
// element.
func readElement(r xml.TokenReader, start xml.StartElement) (Element, error) {
	el := Element{
		XMLName: start.Name,
		Attr:    attr.StripDecl(start.Attr),
	}
	var depth int
	for {
		tok, err := r.Token()
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			t = t.Copy()
			t.Attr = attr.StripDecl(t.Attr)
			el.inner = append(el.inner, t)
		case xml.EndElement:
			if depth == 0 {
				return el, nil
			}
			depth--
			el.inner = append(el.inner, t)
		case xml.ProcInst, xml.Directive, nil:
		default:
			el.inner = append(el.inner, xml.CopyToken(t))
		}
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return el, err
		}
	}
}

// Inner returns a token reader over the children of the element.
func (e Element) Inner() xml.TokenReader {
	inner := e.inner
	return xmlstream.ReaderFunc(func() (xml.Token, error) {
		if len(inner) == 0 {
			return nil, io.EOF
		}
		var t xml.Token
		t, inner = inner[0], inner[1:]
		return t, nil
	})
}

// Text returns the concatenated character data of the element's children.
func (e Element) Text() string {
	var buf bytes.Buffer
	for _, t := range e.inner {
		if cd, ok := t.(xml.CharData); ok {
			buf.Write(cd)
		}
	}
	return buf.String()
}

// Unmarshal decodes the element into v using encoding/xml.
func (e Element) Unmarshal(v interface{}) error {
	return xml.NewTokenDecoder(e.TokenReader()).Decode(v)
}

// Equal reports whether e and o have the same name, attributes, and children.
func (e Element) Equal(o Element) bool {
	if e.XMLName != o.XMLName ||
		len(e.Attr) != len(o.Attr) ||
		len(e.inner) != len(o.inner) {
		return false
	}
	for i, a := range e.Attr {
		if a != o.Attr[i] {
			return false
		}
	}
	for i, t := range e.inner {
		if !reflect.DeepEqual(t, o.inner[i]) {
			return false
		}
	}
	return true
}

// TokenReader satisfies the xmlstream.Marshaler interface.
func (e Element) TokenReader() xml.TokenReader {
	return xmlstream.Wrap(
		e.Inner(),
		xml.StartElement{Name: e.XMLName, Attr: e.Attr},
	)
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (e Element) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, e.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface.
func (e Element) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	_, err := e.WriteXML(enc)
	if err != nil {
		return err
	}
	return enc.Flush()
}

// UnmarshalXML satisfies the xml.Unmarshaler interface.
func (e *Element) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	el, err := readElement(d, start)
	if err != nil {
		return err
	}
	*e = el
	return nil
}
