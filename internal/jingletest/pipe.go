// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingletest

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"sync"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/mux"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle"
	"mellium.im/jingle/internal/attr"
)

// ErrNoResponse is returned by SendIQ if the peer's handler did not write a
// response.
var ErrNoResponse = errors.New("jingletest: handler did not respond to IQ")

// Endpoint is one side of an in-memory IQ transport.
// IQs sent by an endpoint are delivered synchronously to the handler of its
// peer and the handler's response is returned.
// If the peer has no handler an empty result is returned.
type Endpoint struct {
	Local jid.JID

	mu      sync.Mutex
	peer    *Endpoint
	handler mux.IQHandler
	fail    error
	sent    []*jingle.Jingle
}

// Pipe returns two connected endpoints.
func Pipe(a, b jid.JID) (*Endpoint, *Endpoint) {
	ea := &Endpoint{Local: a}
	eb := &Endpoint{Local: b, peer: ea}
	ea.peer = eb
	return ea, eb
}

// NewEndpoint returns an endpoint with no peer that answers every IQ with an
// empty result.
func NewEndpoint(local jid.JID) *Endpoint {
	return &Endpoint{Local: local}
}

// Handle sets the handler that receives IQs sent by the peer.
func (e *Endpoint) Handle(h mux.IQHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = h
}

// Fail makes all further calls to SendIQ return err without delivering the
// IQ.
// Passing nil restores normal delivery.
func (e *Endpoint) Fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail = err
}

// Sent returns the Jingle payloads of the IQs delivered so far.
func (e *Endpoint) Sent() []*jingle.Jingle {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*jingle.Jingle, len(e.sent))
	copy(out, e.sent)
	return out
}

func (e *Endpoint) peerHandler() mux.IQHandler {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.peer == nil {
		return nil
	}
	e.peer.mu.Lock()
	defer e.peer.mu.Unlock()
	return e.peer.handler
}

type readCloser struct {
	xml.TokenReader
}

func (readCloser) Close() error { return nil }

// SendIQ satisfies the interface used by the call package to send IQs.
func (e *Endpoint) SendIQ(ctx context.Context, r xml.TokenReader) (xmlstream.TokenReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	fail := e.fail
	e.mu.Unlock()
	if fail != nil {
		return nil, fail
	}

	var req bytes.Buffer
	enc := xml.NewEncoder(&req)
	if _, err := xmlstream.Copy(enc, r); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	raw := req.Bytes()

	iq, payload, d, err := readIQ(raw)
	if err != nil {
		return nil, err
	}
	if isZero(iq.From) {
		iq.From = e.Local
	}
	if payload != nil && payload.Name.Local == "jingle" {
		if j, err := jingle.Decode(d, *payload); err == nil {
			e.mu.Lock()
			e.sent = append(e.sent, j)
			e.mu.Unlock()
		}
	}

	h := e.peerHandler()
	if h == nil {
		return readCloser{iq.Result(nil)}, nil
	}

	// Decode a second time so the handler sees the full payload.
	iq, payload, d, err = readIQ(raw)
	if err != nil {
		return nil, err
	}
	if isZero(iq.From) {
		iq.From = e.Local
	}
	var resp bytes.Buffer
	out := xml.NewEncoder(&resp)
	err = h.HandleIQ(iq, ReadEncoder{TokenReader: d, Encoder: out}, payload)
	if err != nil {
		return nil, err
	}
	if err = out.Flush(); err != nil {
		return nil, err
	}
	if resp.Len() == 0 {
		return nil, ErrNoResponse
	}
	return readCloser{xml.NewDecoder(&resp)}, nil
}

// readIQ decodes the IQ start element and the start of its payload from raw.
// The returned decoder is positioned after the payload start element.
func readIQ(raw []byte) (stanza.IQ, *xml.StartElement, *xml.Decoder, error) {
	d := xml.NewDecoder(bytes.NewReader(raw))
	tok, err := d.Token()
	if err != nil {
		return stanza.IQ{}, nil, nil, err
	}
	start, ok := tok.(xml.StartElement)
	if !ok || start.Name.Local != "iq" {
		return stanza.IQ{}, nil, nil, errors.New("jingletest: expected IQ start element")
	}
	iq := stanza.IQ{XMLName: start.Name}
	iq.ID, _ = attr.Get(start.Attr, "id")
	typ, _ := attr.Get(start.Attr, "type")
	iq.Type = stanza.IQType(typ)
	if to, ok := attr.Get(start.Attr, "to"); ok {
		if iq.To, err = jid.Parse(to); err != nil {
			return iq, nil, nil, err
		}
	}
	if from, ok := attr.Get(start.Attr, "from"); ok {
		if iq.From, err = jid.Parse(from); err != nil {
			return iq, nil, nil, err
		}
	}

	for {
		tok, err := d.Token()
		switch t := tok.(type) {
		case xml.StartElement:
			payload := t.Copy()
			return iq, &payload, d, nil
		case xml.EndElement:
			return iq, nil, d, nil
		}
		if err != nil {
			if err == io.EOF {
				return iq, nil, d, nil
			}
			return iq, nil, nil, err
		}
	}
}

func isZero(j jid.JID) bool {
	return j.String() == ""
}
