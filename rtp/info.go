// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package rtp

import (
	"encoding/xml"
	"errors"

	"mellium.im/jingle"
	"mellium.im/jingle/internal/attr"
)

// ErrUnknownInfo is returned by ParseInfo for payloads that are not in the
// informational messages namespace or that have an unrecognized name.
var ErrUnknownInfo = errors.New("rtp: unknown session-info payload")

// InfoType is the kind of an informational message.
type InfoType string

// A list of informational messages.
const (
	InfoActive  InfoType = "active"
	InfoHold    InfoType = "hold"
	InfoUnhold  InfoType = "unhold"
	InfoMute    InfoType = "mute"
	InfoUnmute  InfoType = "unmute"
	InfoRinging InfoType = "ringing"
)

// Info is an informational message sent in a session-info.
// Creator and Name are only set for mute and unmute, and only if the message
// applies to a single content.
type Info struct {
	Type    InfoType
	Creator jingle.Creator
	Name    string
}

// Element returns the info as a session-info payload.
func (i Info) Element() jingle.Element {
	var attr []xml.Attr
	if i.Name != "" {
		if i.Creator != 0 {
			attr = append(attr, xml.Attr{Name: xml.Name{Local: "creator"}, Value: i.Creator.String()})
		}
		attr = append(attr, xml.Attr{Name: xml.Name{Local: "name"}, Value: i.Name})
	}
	return jingle.NewElement(xml.Name{Space: NSInfo, Local: string(i.Type)}, attr...)
}

// Ringing returns a payload telling the initiator that the device is ringing.
func Ringing() jingle.Element {
	return Info{Type: InfoRinging}.Element()
}

// Active returns a payload signaling that the party is active again.
func Active() jingle.Element {
	return Info{Type: InfoActive}.Element()
}

// Hold returns a payload signaling that the party has put the call on hold.
func Hold() jingle.Element {
	return Info{Type: InfoHold}.Element()
}

// Unhold returns a payload signaling that the call is no longer on hold.
func Unhold() jingle.Element {
	return Info{Type: InfoUnhold}.Element()
}

// Mute returns a payload signaling that the party stopped sending media for
// the named content, or for all contents if name is empty.
func Mute(creator jingle.Creator, name string) jingle.Element {
	return Info{Type: InfoMute, Creator: creator, Name: name}.Element()
}

// Unmute is the inverse of Mute.
func Unmute(creator jingle.Creator, name string) jingle.Element {
	return Info{Type: InfoUnmute, Creator: creator, Name: name}.Element()
}

// ParseInfo returns the informational message carried by a session-info
// payload.
func ParseInfo(el jingle.Element) (Info, error) {
	if el.XMLName.Space != NSInfo {
		return Info{}, ErrUnknownInfo
	}
	info := Info{Type: InfoType(el.XMLName.Local)}
	switch info.Type {
	case InfoActive, InfoHold, InfoUnhold, InfoRinging:
		return info, nil
	case InfoMute, InfoUnmute:
	default:
		return Info{}, ErrUnknownInfo
	}
	if v, ok := attr.Get(el.Attr, "creator"); ok {
		c, err := jingle.ParseCreator(v)
		if err != nil {
			return Info{}, err
		}
		info.Creator = c
	}
	info.Name, _ = attr.Get(el.Attr, "name")
	return info, nil
}
