// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle_test

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"

	"mellium.im/xmpp/jid"

	"mellium.im/jingle"
	"mellium.im/jingle/internal/jingletest"
)

const (
	rtpNS = "urn:xmpp:jingle:apps:rtp:1"
	iceNS = "urn:xmpp:jingle:transports:ice-udp:1"
)

func mustElement(t *testing.T, s string) jingle.Element {
	t.Helper()
	el, err := jingle.ReadElement(xml.NewDecoder(strings.NewReader(s)))
	if err != nil {
		t.Fatalf("error reading element %q: %v", s, err)
	}
	return el
}

func content(t *testing.T, creator jingle.Creator, name string, children ...string) *jingle.Content {
	t.Helper()
	c := jingle.NewContent(creator, name)
	for _, s := range children {
		c.AddSubElement(mustElement(t, s))
	}
	return c
}

func encode(t *testing.T, j *jingle.Jingle) []byte {
	t.Helper()
	var buf bytes.Buffer
	e := xml.NewEncoder(&buf)
	_, err := j.WriteXML(e)
	if err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	if err = e.Flush(); err != nil {
		t.Fatalf("error flushing: %v", err)
	}
	return buf.Bytes()
}

func decode(s []byte) (*jingle.Jingle, error) {
	d := xml.NewDecoder(bytes.NewReader(s))
	tok, err := d.Token()
	if err != nil {
		return nil, err
	}
	return jingle.Decode(d, tok.(xml.StartElement))
}

var (
	romeo  = jid.MustParse("romeo@montague.lit/orchard")
	juliet = jid.MustParse("juliet@capulet.lit/balcony")
)

func roundTripCases(t *testing.T) []*jingle.Jingle {
	initiate := jingle.New(jingle.SessionInitiate, "a73sjjvkla37jfea")
	initiate.Initiator = romeo
	initiate.Contents = []*jingle.Content{
		content(t, jingle.CreatorInitiator, "voice",
			`<description xmlns='`+rtpNS+`' media='audio'><payload-type id='96' name='speex' clockrate='16000'/><payload-type id='0' name='PCMU'/></description>`,
			`<transport xmlns='`+iceNS+`' pwd='asd88fgpdd777uzjYhagZg' ufrag='8hhy'/>`,
		),
		jingle.NewContent(jingle.CreatorInitiator, "screen",
			jingle.WithDisposition("early-session"),
			jingle.WithSenders(jingle.SendersInitiator)),
	}

	accept := jingle.New(jingle.SessionAccept, "a73sjjvkla37jfea")
	accept.Initiator = romeo
	accept.Responder = juliet
	accept.Contents = []*jingle.Content{
		content(t, jingle.CreatorInitiator, "voice",
			`<description xmlns='`+rtpNS+`' media='audio'/>`,
			`<transport xmlns='`+iceNS+`'><candidate component='1' foundation='1' generation='0' id='el0747fg11' ip='10.0.1.1' network='1' port='8998' priority='2130706431' protocol='udp' type='host'/></transport>`,
		),
	}

	terminate := jingle.New(jingle.SessionTerminate, "a73sjjvkla37jfea")
	terminate.Reason = &jingle.Reason{Condition: jingle.Success, Text: `Sorry, gotta go! <3 & "bye"`}

	alt := jingle.New(jingle.SessionTerminate, "a73sjjvkla37jfea")
	alt.Reason = &jingle.Reason{Condition: jingle.AlternativeSession, SID: "b84tkkwlmb48kgfb"}

	ringing := mustElement(t, `<ringing xmlns='urn:xmpp:jingle:apps:rtp:info:1'/>`)
	info := jingle.New(jingle.SessionInfo, "a73sjjvkla37jfea")
	info.Info = &ringing

	unknown := jingle.New(jingle.ContentAdd, "a73sjjvkla37jfea")
	unknown.Contents = []*jingle.Content{
		content(t, jingle.CreatorResponder, "voice",
			`<x xmlns='urn:example:unknown' a='1'><y>some text &amp; more</y><!-- comment --><z xmlns='urn:example:other'/></x>`,
		),
		content(t, jingle.CreatorInitiator, "voice"),
	}
	unknown.Extra = []jingle.Element{
		mustElement(t, `<extra xmlns='urn:example:unknown'/>`),
	}
	unknownInfo := mustElement(t, `<mute xmlns='urn:xmpp:jingle:apps:rtp:info:1' creator='initiator' name='voice'/>`)
	unknown.Info = &unknownInfo

	empty := jingle.New(jingle.SessionTerminate, "")

	active := mustElement(t, `<active xmlns='urn:xmpp:jingle:apps:rtp:info:1'/>`)
	extras := jingle.New(jingle.SessionInfo, "a73sjjvkla37jfea")
	extras.Info = &active
	extras.Extra = []jingle.Element{
		mustElement(t, `<ringing xmlns='urn:xmpp:jingle:apps:rtp:info:1'/>`),
		mustElement(t, `<reason xmlns='urn:example:unknown'/>`),
	}

	gone := jingle.New(jingle.SessionTerminate, "a73sjjvkla37jfea")
	gone.Reason = &jingle.Reason{Condition: jingle.Gone}

	return []*jingle.Jingle{
		0: initiate,
		1: accept,
		2: terminate,
		3: alt,
		4: info,
		5: unknown,
		6: empty,
		7: extras,
		8: gone,
	}
}

// lossyCases are stanzas that cannot be encoded faithfully.
// Validate rejects them so that they are never sent.
var lossyCases = [...]struct {
	modify func(*jingle.Jingle)
	field  string
	err    error
}{
	0: {
		// The first extra payload would be decoded as the session-info payload.
		modify: func(j *jingle.Jingle) {
			j.Info = nil
			j.Extra = []jingle.Element{jingle.NewElement(xml.Name{Space: "urn:example:unknown", Local: "extra"})}
		},
		field: jingle.FieldExtra,
		err:   jingle.ErrExtraWithoutInfo,
	},
	1: {
		// The sid is only encoded inside an alternative-session condition.
		modify: func(j *jingle.Jingle) {
			j.Reason = &jingle.Reason{Condition: jingle.Busy, SID: "b84tkkwlmb48kgfb"}
		},
		field: jingle.FieldReason,
		err:   jingle.ErrReasonSID,
	},
	2: {
		// Without a namespace the payload inherits the jingle namespace.
		modify: func(j *jingle.Jingle) {
			info := jingle.NewElement(xml.Name{Local: "ringing"})
			j.Info = &info
		},
		field: jingle.FieldSessionInfo,
		err:   jingle.ErrNoNamespace,
	},
	3: {
		// A payload in the jingle namespace named reason is read back as the
		// reason.
		modify: func(j *jingle.Jingle) {
			info := jingle.NewElement(xml.Name{Space: jingle.NS, Local: "reason"})
			j.Info = &info
		},
		field: jingle.FieldSessionInfo,
		err:   jingle.ErrNoNamespace,
	},
	4: {
		modify: func(j *jingle.Jingle) {
			j.Extra = []jingle.Element{jingle.NewElement(xml.Name{Local: "extra"})}
		},
		field: jingle.FieldExtra,
		err:   jingle.ErrNoNamespace,
	},
	5: {
		modify: func(j *jingle.Jingle) {
			j.Contents[0].AddSubElement(jingle.NewElement(xml.Name{Local: "transport"}))
		},
		field: jingle.FieldSubElement,
		err:   jingle.ErrNoNamespace,
	},
}

func TestLossy(t *testing.T) {
	for i, tc := range lossyCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			j := jingle.New(jingle.SessionTerminate, "a73sjjvkla37jfea")
			j.Contents = []*jingle.Content{jingle.NewContent(jingle.CreatorInitiator, "voice")}
			info := mustElement(t, `<ringing xmlns='urn:xmpp:jingle:apps:rtp:info:1'/>`)
			j.Info = &info
			if err := jingle.Validate(j); err != nil {
				t.Fatalf("unexpected error before modification: %v", err)
			}
			tc.modify(j)

			err := jingle.Validate(j)
			var validationErr *jingle.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected validation error, got %T: %v", err, err)
			}
			if validationErr.Field != tc.field {
				t.Errorf("wrong field: want=%q, got=%q", tc.field, validationErr.Field)
			}
			if !errors.Is(err, tc.err) {
				t.Errorf("wrong error: want=%v, got=%v", tc.err, err)
			}

			// Encoding still works, but the value does not survive the trip.
			out := encode(t, j)
			decoded, err := decode(out)
			if err != nil {
				t.Fatalf("error decoding %s: %v", out, err)
			}
			if j.Equal(decoded) {
				t.Errorf("expected %s to decode to a different value", out)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for i, tc := range roundTripCases(t) {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			out := encode(t, tc)
			j, err := decode(out)
			if err != nil {
				t.Fatalf("error decoding %s: %v", out, err)
			}
			if !tc.Equal(j) {
				t.Errorf("round trip did not produce an equal value:\nwant=%s\n got=%s", out, encode(t, j))
			}

			// Decoding through encoding/xml must give the same result.
			var unmarshaled jingle.Jingle
			if err = xml.Unmarshal(out, &unmarshaled); err != nil {
				t.Fatalf("error unmarshaling: %v", err)
			}
			if !tc.Equal(&unmarshaled) {
				t.Errorf("unmarshal did not produce an equal value:\nwant=%s\n got=%s", out, encode(t, &unmarshaled))
			}

			// Encoding again must be stable.
			if again := encode(t, j); !bytes.Equal(again, out) {
				t.Errorf("second encoding differs:\nwant=%s\n got=%s", out, again)
			}
		})
	}
}

func TestRoundTripPreservesOrder(t *testing.T) {
	j := jingle.New(jingle.ContentAdd, "order")
	for i := 0; i < 10; i++ {
		j.Contents = append(j.Contents, jingle.NewContent(jingle.CreatorInitiator, strconv.Itoa(i)))
	}
	out, err := decode(encode(t, j))
	if err != nil {
		t.Fatalf("error decoding: %v", err)
	}
	for i, c := range out.Contents {
		if c.Name() != strconv.Itoa(i) {
			t.Fatalf("content %d out of order: got name %q", i, c.Name())
		}
	}
}

func TestEncode(t *testing.T) {
	j := jingle.New(jingle.SessionInitiate, "sid1")
	j.Initiator = romeo
	j.Contents = []*jingle.Content{jingle.NewContent(jingle.CreatorInitiator, "voice")}
	const want = `<jingle xmlns="urn:xmpp:jingle:1" action="session-initiate" initiator="romeo@montague.lit/orchard" sid="sid1"><content xmlns="urn:xmpp:jingle:1" creator="initiator" name="voice" senders="both"></content></jingle>`
	if out := string(encode(t, j)); out != want {
		t.Errorf("wrong encoding:\nwant=%s\n got=%s", want, out)
	}
	x, err := xml.Marshal(j)
	if err != nil {
		t.Fatalf("error marshaling: %v", err)
	}
	if string(x) != want {
		t.Errorf("wrong marshaled output:\nwant=%s\n got=%s", want, x)
	}
}

var decodeErrorTests = [...]struct {
	in   string
	attr string
	err  error
}{
	0: {
		in:   `<jingle xmlns='urn:xmpp:jingle:1' sid='a'/>`,
		attr: "action",
		err:  jingle.ErrUnknownAction,
	},
	1: {
		in:   `<jingle xmlns='urn:xmpp:jingle:1' action='session-start' sid='a'/>`,
		attr: "action",
		err:  jingle.ErrUnknownAction,
	},
	2: {
		in:   `<jingle xmlns='urn:xmpp:jingle:1' action='content-add' sid='a'><content creator='nobody' name='voice'/></jingle>`,
		attr: "creator",
		err:  jingle.ErrUnknownCreator,
	},
	3: {
		in:   `<jingle xmlns='urn:xmpp:jingle:1' action='content-add' sid='a'><content creator='initiator' name='voice' senders='everyone'/></jingle>`,
		attr: "senders",
		err:  jingle.ErrUnknownSenders,
	},
	4: {
		in:   `<jingle xmlns='urn:xmpp:jingle:1' action='session-initiate' initiator='romeo@' sid='a'/>`,
		attr: "initiator",
	},
}

const truncated = `<jingle xmlns='urn:xmpp:jingle:1' action='content-add' sid='a'><content creator='initiator' name='voice'><description xmlns='urn:xmpp:jingle:apps:rtp:1' media='audio'><payload-type id='0'/></description></content></jingle>`

var truncatedTests = [...]struct {
	n        int
	err      error
	children int
}{
	// Ends inside the content, which is read as having ended there.
	0: {n: 2},
	// Ends inside the description.
	1: {n: 3, err: io.ErrUnexpectedEOF},
	2: {n: 4, err: io.ErrUnexpectedEOF},
	3: {n: 5, err: io.ErrUnexpectedEOF},
	// Ends after the description.
	4: {n: 6, children: 1},
	5: {n: 8, children: 1},
}

func TestDecodeTruncated(t *testing.T) {
	for i, tc := range truncatedTests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			toks := jingletest.Truncate(truncated, tc.n)
			j, err := jingle.Decode(toks, toks.Start())
			if !errors.Is(err, tc.err) {
				t.Fatalf("wrong error: want=%v, got=%v", tc.err, err)
			}
			if tc.err != nil {
				return
			}
			if len(j.Contents) != 1 {
				t.Fatalf("wrong number of contents: want=1, got=%d", len(j.Contents))
			}
			if n := len(j.Contents[0].SubElements()); n != tc.children {
				t.Errorf("wrong number of sub-elements: want=%d, got=%d", tc.children, n)
			}
		})
	}
}

func TestDecodeError(t *testing.T) {
	for i, tc := range decodeErrorTests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			_, err := decode([]byte(tc.in))
			var decodeErr *jingle.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected a decode error, got %T: %v", err, err)
			}
			if decodeErr.Attr != tc.attr {
				t.Errorf("wrong attribute: want=%q, got=%q", tc.attr, decodeErr.Attr)
			}
			if tc.err != nil && !errors.Is(err, tc.err) {
				t.Errorf("wrong error: want=%v, got=%v", tc.err, err)
			}
		})
	}
}

func TestDecodeDefaults(t *testing.T) {
	j, err := decode([]byte(`<jingle xmlns='urn:xmpp:jingle:1' action='content-add' sid='a'><content creator='responder' name='video'/></jingle>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, ok := j.Content(jingle.CreatorResponder, "video")
	if !ok {
		t.Fatalf("content not found in %+v", j.Contents)
	}
	if d := c.Disposition(); d != jingle.DefaultDisposition {
		t.Errorf("wrong default disposition: want=%q, got=%q", jingle.DefaultDisposition, d)
	}
	if s := c.Senders(); s != jingle.SendersBoth {
		t.Errorf("wrong default senders: want=%v, got=%v", jingle.SendersBoth, s)
	}
	if _, ok := j.Content(jingle.CreatorInitiator, "video"); ok {
		t.Errorf("content with the wrong creator should not be found")
	}
}

func TestConcurrentAddSubElement(t *testing.T) {
	const n = 100
	c := jingle.NewContent(jingle.CreatorInitiator, "voice")
	j := jingle.New(jingle.ContentAdd, "race")
	j.Contents = []*jingle.Content{c}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			c.AddSubElement(jingle.NewElement(
				xml.Name{Space: iceNS, Local: "transport"},
				xml.Attr{Name: xml.Name{Local: "ufrag"}, Value: strconv.Itoa(i)},
			))
		}
	}()
	for i := 0; i < n; i++ {
		out, err := decode(encode(t, j))
		if err != nil {
			t.Fatalf("error decoding snapshot %d: %v", i, err)
		}
		if got := len(out.Contents[0].SubElements()); got > n {
			t.Fatalf("too many sub-elements in snapshot: %d", got)
		}
	}
	wg.Wait()
	if got := len(c.SubElements()); got != n {
		t.Errorf("wrong number of sub-elements: want=%d, got=%d", n, got)
	}
}
