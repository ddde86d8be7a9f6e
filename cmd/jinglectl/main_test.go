// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"

	"mellium.im/xmpp/jid"

	"mellium.im/jingle"
	"mellium.im/jingle/rtp"
)

var romeo = jid.MustParse("romeo@montague.lit/orchard")

var validateTests = [...]struct {
	in  string
	out string
	err bool
}{
	0: {
		in: `<iq type='set' id='1'><jingle xmlns='urn:xmpp:jingle:1' action='session-initiate' initiator='romeo@montague.lit/orchard' sid='a73sjjvkla37jfea'>
<content creator='initiator' name='voice'><description xmlns='urn:xmpp:jingle:apps:rtp:1' media='audio'/></content>
</jingle></iq>`,
		out: "VALID: session-initiate sid=\"a73sjjvkla37jfea\", 1 content(s)\n",
	},
	1: {
		in:  `<jingle xmlns='urn:xmpp:jingle:1' action='session-accept' sid='a73sjjvkla37jfea'/>`,
		out: "INVALID: ",
		err: true,
	},
	2: {
		in:  `<message><body>hi</body></message>`,
		err: true,
	},
	3: {
		in: `<jingle xmlns='urn:xmpp:jingle:1' action='session-info' sid='a73sjjvkla37jfea'><ringing xmlns='urn:xmpp:jingle:apps:rtp:info:1'/><content creator='initiator' name='voice'/></jingle>`,
		out: "WARNING: ",
	},
}

func TestValidate(t *testing.T) {
	for i, tc := range validateTests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			var out bytes.Buffer
			cmd := newRootCmd()
			cmd.SetArgs([]string{"validate"})
			cmd.SetIn(strings.NewReader(tc.in))
			cmd.SetOut(&out)
			cmd.SetErr(&bytes.Buffer{})
			err := cmd.Execute()
			switch {
			case tc.err && err == nil:
				t.Fatal("expected an error")
			case !tc.err && err != nil:
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(out.String(), tc.out) {
				t.Errorf("wrong output: want prefix %q, got %q", tc.out, out.String())
			}
		})
	}
}

func TestFindJingleEmpty(t *testing.T) {
	_, err := findJingle(strings.NewReader(`<iq type='set'/>`))
	if !errors.Is(err, errNoJingle) {
		t.Errorf("wrong error: want=%v, got=%v", errNoJingle, err)
	}
}

func TestOffer(t *testing.T) {
	contents := offer([]string{rtp.Audio, rtp.Video})
	if len(contents) != 2 {
		t.Fatalf("want 2 contents, got %d", len(contents))
	}
	j := jingle.New(jingle.SessionInitiate, "sid")
	j.Initiator = romeo
	j.Contents = contents
	if err := jingle.Validate(j); err != nil {
		t.Fatalf("offer is not a valid session-initiate: %v", err)
	}
	for i, c := range contents {
		if _, ok := c.SubElement("transport"); !ok {
			t.Errorf("content %d has no transport", i)
		}
		d, ok, err := rtp.ParseDescription(c)
		if err != nil || !ok {
			t.Fatalf("content %d: bad description: %v", i, err)
		}
		if d.Media != c.Name() || len(d.Payloads) == 0 {
			t.Errorf("content %d: unexpected description %+v", i, d)
		}
	}
	got := strings.Join(describe(contents), ", ")
	const want = "initiator/audio (audio, 2 codecs), initiator/video (video, 1 codecs)"
	if got != want {
		t.Errorf("wrong summary: want=%q, got=%q", want, got)
	}
}
