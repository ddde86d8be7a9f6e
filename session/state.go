// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package session

// State is the lifecycle state of a session.
type State uint8

// A list of session states.
const (
	// Pending sessions have been initiated but not yet accepted.
	Pending State = iota

	// Active sessions have been accepted by the responder.
	Active

	// Terminated sessions accept no further actions.
	Terminated
)

var stateNames = [...]string{
	Pending:    "pending",
	Active:     "active",
	Terminated: "terminated",
}

func (s State) String() string {
	if int(s) >= len(stateNames) {
		return ""
	}
	return stateNames[s]
}

func parseState(s string) State {
	for i, name := range stateNames {
		if name == s {
			return State(i)
		}
	}
	return Terminated
}

// Role is the part the local party plays in a session.
type Role uint8

// A list of roles.
const (
	RoleInitiator Role = iota
	RoleResponder
)

func (r Role) String() string {
	if r == RoleResponder {
		return "responder"
	}
	return "initiator"
}

// ContentState tracks the negotiation of a single content.
type ContentState uint8

// A list of content states.
const (
	// Proposed contents were sent in a session-initiate or content-add and have
	// not yet been answered.
	Proposed ContentState = iota
	Accepted
	Rejected
)

func (s ContentState) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	}
	return "proposed"
}
