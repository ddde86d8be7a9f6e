// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package jingletest provides utilities for testing Jingle signaling without a
// real XMPP connection.
package jingletest // import "mellium.im/jingle/internal/jingletest"

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"mellium.im/xmlstream"

	"mellium.im/jingle"
)

// ReadEncoder combines a token reader with an encoder so that IQ handlers can
// be called directly.
type ReadEncoder struct {
	xml.TokenReader
	*xml.Encoder
}

// NewReadEncoder returns a ReadEncoder that reads tokens from in and writes
// the response to out.
func NewReadEncoder(in string, out io.Writer) ReadEncoder {
	return ReadEncoder{
		TokenReader: xml.NewDecoder(strings.NewReader(in)),
		Encoder:     xml.NewEncoder(out),
	}
}

// Element parses s and returns the first element in it.
// Element panics on error for ease of use in testing, where a panic is
// acceptable.
func Element(s string) jingle.Element {
	el, err := jingle.ReadElement(xml.NewDecoder(strings.NewReader(s)))
	if err != nil {
		panic(err)
	}
	return el
}

// Encode returns the XML encoding of the tokens in r.
func Encode(r xml.TokenReader) (string, error) {
	var buf bytes.Buffer
	e := xml.NewEncoder(&buf)
	_, err := xmlstream.Copy(e, r)
	if err != nil {
		return "", err
	}
	err = e.Flush()
	return buf.String(), err
}
