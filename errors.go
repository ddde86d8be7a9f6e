// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"errors"
)

// Errors returned while decoding Jingle elements.
var (
	ErrUnknownAction  = errors.New("jingle: unknown action")
	ErrUnknownCreator = errors.New("jingle: unknown creator")
	ErrUnknownSenders = errors.New("jingle: unknown senders")
)

// Errors wrapped by ValidationError when a field is present but cannot be
// encoded faithfully.
var (
	ErrNoNamespace      = errors.New("jingle: payload has no namespace of its own")
	ErrExtraWithoutInfo = errors.New("jingle: extra payloads sent without a session-info payload")
	ErrReasonSID        = errors.New("jingle: reason sid is only sent with alternative-session")
)

// ErrInfoWithContents is reported by Lint when a session-info payload is sent
// alongside contents.
// It is advisory and never returned by Validate.
var ErrInfoWithContents = errors.New("jingle: session-info payload sent alongside contents")

// DecodeError is returned when a Jingle element is malformed.
// Elements that fail to decode never reach the session state machine.
type DecodeError struct {
	// Attr is the name of the offending attribute, if any.
	Attr string
	Err  error
}

// Error satisfies the error interface.
func (e *DecodeError) Error() string {
	if e.Attr == "" {
		return e.Err.Error()
	}
	return "jingle: bad " + e.Attr + " attribute: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
