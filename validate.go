// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"encoding/xml"
	"fmt"
)

// Fields reported by ValidationError.
const (
	FieldAction      = "action"
	FieldSID         = "sid"
	FieldInitiator   = "initiator"
	FieldResponder   = "responder"
	FieldContent     = "content"
	FieldCreator     = "creator"
	FieldName        = "name"
	FieldTransport   = "transport"
	FieldSessionInfo = "session-info"
	FieldExtra       = "extra"
	FieldReason      = "reason"
	FieldSubElement  = "sub-element"
)

// ValidationError is returned by Validate when a field that is required by the
// action is missing, or when a field is present but would not survive being
// encoded and decoded again.
type ValidationError struct {
	Action Action
	Field  string

	// Index is the position of the offending content, or -1 if the error is not
	// about a particular content.
	Index int

	// Err is set if the field is present but invalid.
	Err error
}

// Error satisfies the error interface.
func (e *ValidationError) Error() string {
	if e.Err != nil {
		if e.Index >= 0 {
			return fmt.Sprintf("jingle: %s: content %d has bad %s: %v", e.Action, e.Index, e.Field, e.Err)
		}
		return fmt.Sprintf("jingle: %s has bad %s: %v", e.Action, e.Field, e.Err)
	}
	if e.Index >= 0 {
		return fmt.Sprintf("jingle: %s: content %d requires %s", e.Action, e.Index, e.Field)
	}
	if e.Field == FieldAction {
		return "jingle: missing or invalid action"
	}
	return fmt.Sprintf("jingle: %s requires %s", e.Action, e.Field)
}

// Unwrap returns the reason a present field is invalid, if any.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

type requirement uint8

const (
	needInitiator requirement = 1 << iota
	needResponder
	needContents
	needTransport
	needInfo
)

// requirements maps each action to the fields it cannot do without.
var requirements = [...]requirement{
	SessionInitiate:  needInitiator | needContents,
	SessionAccept:    needResponder | needContents,
	SessionTerminate: 0,
	SessionInfo:      needInfo,
	ContentAdd:       needContents,
	ContentModify:    needContents,
	ContentAccept:    needContents,
	ContentReject:    needContents,
	ContentRemove:    needContents,
	TransportInfo:    needContents | needTransport,
	TransportAccept:  needContents | needTransport,
	TransportReplace: needContents | needTransport,
	TransportReject:  needContents | needTransport,
	DescriptionInfo:  needContents,
	SecurityInfo:     needContents,
}

// Validate checks that j carries every field required by its action and
// returns a *ValidationError describing the first one that is missing.
//
// It also rejects stanzas that would decode to a different value than the one
// that was encoded: a reason sid with a condition other than
// alternative-session, extra payloads without a session-info payload, and
// payloads that have no namespace of their own.
func Validate(j *Jingle) error {
	if !j.Action.valid() {
		return &ValidationError{Action: j.Action, Field: FieldAction, Index: -1}
	}
	fail := func(field string, idx int) error {
		return &ValidationError{Action: j.Action, Field: field, Index: idx}
	}
	bad := func(field string, idx int, err error) error {
		return &ValidationError{Action: j.Action, Field: field, Index: idx, Err: err}
	}

	req := requirements[j.Action]
	switch {
	case j.SID == "":
		return fail(FieldSID, -1)
	case req&needInitiator != 0 && isZero(j.Initiator):
		return fail(FieldInitiator, -1)
	case req&needResponder != 0 && isZero(j.Responder):
		return fail(FieldResponder, -1)
	case req&needContents != 0 && len(j.Contents) == 0:
		return fail(FieldContent, -1)
	}
	for i, c := range j.Contents {
		switch {
		case c == nil:
			return fail(FieldContent, i)
		case c.creator != CreatorInitiator && c.creator != CreatorResponder:
			return fail(FieldCreator, i)
		case c.name == "":
			return fail(FieldName, i)
		}
		if req&needTransport != 0 {
			if _, ok := c.SubElement("transport"); !ok {
				return fail(FieldTransport, i)
			}
		}
		for _, el := range c.SubElements() {
			if el.XMLName.Space == "" {
				return bad(FieldSubElement, i, ErrNoNamespace)
			}
		}
	}
	if req&needInfo != 0 && j.Info == nil {
		return fail(FieldSessionInfo, -1)
	}
	switch {
	case j.Info != nil && !ownNamespace(j.Info.XMLName):
		return bad(FieldSessionInfo, -1, ErrNoNamespace)
	case j.Info == nil && len(j.Extra) > 0:
		return bad(FieldExtra, -1, ErrExtraWithoutInfo)
	case j.Reason != nil && j.Reason.SID != "" && j.Reason.Condition != AlternativeSession:
		return bad(FieldReason, -1, ErrReasonSID)
	}
	for _, el := range j.Extra {
		if !ownNamespace(el.XMLName) {
			return bad(FieldExtra, -1, ErrNoNamespace)
		}
	}
	return nil
}

// ownNamespace reports whether a payload of the jingle element would be read
// back as a payload, and not as a content or reason.
func ownNamespace(name xml.Name) bool {
	return name.Space != "" && name.Space != NS
}

// Lint reports problems with j that do not make it invalid but that the
// application may want to log.
func Lint(j *Jingle) []error {
	var warnings []error
	if j.Info != nil && len(j.Contents) > 0 {
		warnings = append(warnings, ErrInfoWithContents)
	}
	return warnings
}
