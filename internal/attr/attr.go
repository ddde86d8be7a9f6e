// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package attr contains helpers for working with XML attributes.
package attr // import "mellium.im/jingle/internal/attr"

import (
	"encoding/xml"

	"mellium.im/jingle/internal/ns"
)

// Get returns the value of the first un-namespaced attribute with the provided
// local name from a list of attributes and whether it was found.
func Get(attr []xml.Attr, local string) (string, bool) {
	for _, a := range attr {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}

// IsDecl reports whether a is a namespace declaration (xmlns="…" or
// xmlns:prefix="…").
func IsDecl(a xml.Attr) bool {
	return a.Name.Space == ns.XMLNS || (a.Name.Space == "" && a.Name.Local == ns.XMLNS)
}

// StripDecl returns a copy of attr without namespace declarations.
// The encoder derives declarations from element names, so keeping them would
// duplicate them on the next encode.
func StripDecl(attr []xml.Attr) []xml.Attr {
	var out []xml.Attr
	for _, a := range attr {
		if IsDecl(a) {
			continue
		}
		out = append(out, a)
	}
	return out
}
