// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package session

import (
	"errors"
	"fmt"

	"mellium.im/jingle"
)

// Errors wrapped by StateError.
var (
	ErrDuplicateContent     = errors.New("session: duplicate content")
	ErrUnknownContent       = errors.New("session: unknown content")
	ErrCreatorMismatch      = errors.New("session: content creator does not match")
	ErrDuplicateInitiate    = errors.New("session: session already initiated")
	ErrActionAfterTerminate = errors.New("session: session is terminated")
	ErrOutOfOrder           = errors.New("session: action not allowed in current state")
	ErrUnknownSession       = errors.New("session: unknown session")
)

// StateError is returned when an action cannot be applied to a session.
// The session is left unchanged.
type StateError struct {
	SID    string
	Action jingle.Action

	// Key is the content that caused the error, if any.
	Key jingle.Key

	Err error
}

// Error satisfies the error interface.
func (e *StateError) Error() string {
	if e.Key.Name != "" {
		return fmt.Sprintf("%v: %s on %q, content %s", e.Err, e.Action, e.SID, e.Key)
	}
	return fmt.Sprintf("%v: %s on %q", e.Err, e.Action, e.SID)
}

// Unwrap returns the underlying sentinel error.
func (e *StateError) Unwrap() error {
	return e.Err
}
