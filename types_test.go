// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle_test

import (
	"encoding/xml"

	"mellium.im/xmlstream"

	"mellium.im/jingle"
)

var (
	_ xml.Marshaler         = (*jingle.Jingle)(nil)
	_ xml.Unmarshaler       = (*jingle.Jingle)(nil)
	_ xmlstream.Marshaler   = (*jingle.Jingle)(nil)
	_ xmlstream.WriterTo    = (*jingle.Jingle)(nil)
	_ xml.Marshaler         = (*jingle.Content)(nil)
	_ xml.Unmarshaler       = (*jingle.Content)(nil)
	_ xmlstream.Marshaler   = (*jingle.Content)(nil)
	_ xmlstream.WriterTo    = (*jingle.Content)(nil)
	_ xml.Marshaler         = jingle.Element{}
	_ xml.Unmarshaler       = (*jingle.Element)(nil)
	_ xmlstream.Marshaler   = jingle.Element{}
	_ xmlstream.WriterTo    = jingle.Element{}
	_ xml.Marshaler         = jingle.Reason{}
	_ xml.Unmarshaler       = (*jingle.Reason)(nil)
	_ xmlstream.Marshaler   = jingle.Reason{}
	_ xmlstream.WriterTo    = jingle.Reason{}
	_ xml.MarshalerAttr     = jingle.Action(0)
	_ xml.UnmarshalerAttr   = (*jingle.Action)(nil)
	_ xml.MarshalerAttr     = jingle.Creator(0)
	_ xml.UnmarshalerAttr   = (*jingle.Creator)(nil)
	_ xml.MarshalerAttr     = jingle.Senders(0)
	_ xml.UnmarshalerAttr   = (*jingle.Senders)(nil)
)
