// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingletest

import (
	"encoding/xml"
	"io"
	"strings"
)

// Tokens is a token reader over a fixed list of tokens.
// When the list runs out it returns io.EOF even if elements are still open,
// which lets tests feed decoders streams that an xml.Decoder would reject.
type Tokens []xml.Token

// Truncate decodes s and returns a reader over its first n tokens.
// If s has fewer than n tokens all of them are returned.
// Truncate panics if s is not well formed, for ease of use in testing.
func Truncate(s string, n int) *Tokens {
	d := xml.NewDecoder(strings.NewReader(s))
	toks := make(Tokens, 0, n)
	for len(toks) < n {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(err)
		}
		toks = append(toks, xml.CopyToken(tok))
	}
	return &toks
}

// Token satisfies the xml.TokenReader interface.
func (r *Tokens) Token() (xml.Token, error) {
	if len(*r) == 0 {
		return nil, io.EOF
	}
	tok := (*r)[0]
	*r = (*r)[1:]
	return tok, nil
}

// Start pops the first token, which must be a start element.
// Start panics otherwise.
func (r *Tokens) Start() xml.StartElement {
	tok, err := r.Token()
	if err != nil {
		panic(err)
	}
	return tok.(xml.StartElement)
}
