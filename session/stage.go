// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package session

import (
	"mellium.im/jingle"
)

// stage is a copy of a session's contents that a stanza is applied to before
// it is committed.
type stage struct {
	contents map[jingle.Key]entry
	order    []jingle.Key
}

func (s *Session) stage() *stage {
	st := &stage{
		contents: make(map[jingle.Key]entry, len(s.contents)),
		order:    make([]jingle.Key, len(s.order)),
	}
	for k, e := range s.contents {
		st.contents[k] = e
	}
	copy(st.order, s.order)
	return st
}

func (st *stage) apply(j *jingle.Jingle) error {
	for _, c := range j.Contents {
		if err := st.applyContent(j.Action, c); err != nil {
			return err
		}
	}
	return nil
}

func (st *stage) applyContent(action jingle.Action, c *jingle.Content) error {
	k := c.Key()
	fail := func(err error) error {
		return &StateError{Action: action, Key: k, Err: err}
	}
	// The stage never keeps anything the caller can still change.
	c = clone(c)

	if action == jingle.ContentAdd {
		if _, ok := st.contents[k]; ok {
			return fail(ErrDuplicateContent)
		}
		st.contents[k] = entry{content: c}
		st.order = append(st.order, k)
		return nil
	}

	stored, ok := st.contents[k]
	if !ok {
		if action == jingle.ContentModify {
			// Keys include the creator, so report a modify that names a content by
			// the wrong creator as a mismatch rather than a missing content.
			other := jingle.Key{Creator: otherCreator(k.Creator), Name: k.Name}
			if _, ok := st.contents[other]; ok {
				return fail(ErrCreatorMismatch)
			}
		}
		return fail(ErrUnknownContent)
	}

	switch action {
	case jingle.SessionAccept, jingle.ContentAccept:
		stored.state = Accepted
		if len(c.SubElements()) > 0 {
			stored.content = c
		}
	case jingle.ContentReject:
		stored.state = Rejected
	case jingle.ContentRemove:
		delete(st.contents, k)
		for i, key := range st.order {
			if key == k {
				st.order = append(st.order[:i:i], st.order[i+1:]...)
				break
			}
		}
		return nil
	case jingle.ContentModify:
		children := c.SubElements()
		if len(children) == 0 {
			children = stored.content.SubElements()
		}
		stored.content = c.WithSubElements(children...)
	case jingle.TransportInfo, jingle.TransportAccept, jingle.TransportReplace, jingle.TransportReject:
		stored.content = replaceChild(stored.content, c, "transport")
	case jingle.DescriptionInfo:
		stored.content = replaceChild(stored.content, c, "description")
	case jingle.SecurityInfo:
		stored.content = replaceChild(stored.content, c, "security")
	}
	st.contents[k] = stored
	return nil
}

// replaceChild returns a copy of stored in which the first sub-element named
// local is replaced by the one carried in c.
// If c has no such sub-element stored is returned unchanged, if stored has none
// it is appended.
func replaceChild(stored, c *jingle.Content, local string) *jingle.Content {
	el, ok := c.SubElement(local)
	if !ok {
		return stored
	}
	children := stored.SubElements()
	for i, child := range children {
		if child.XMLName.Local == local {
			children[i] = el
			return stored.WithSubElements(children...)
		}
	}
	return stored.WithSubElements(append(children, el)...)
}

func otherCreator(c jingle.Creator) jingle.Creator {
	if c == jingle.CreatorInitiator {
		return jingle.CreatorResponder
	}
	return jingle.CreatorInitiator
}
