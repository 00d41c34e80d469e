package imap

import (
	"fmt"
)

// ConnState is the state of an IMAP session.
//
// See RFC 3501 section 3. The ordering of the values matters: a state
// satisfies every requirement of the states below it.
type ConnState int

const (
	// In the disconnected state there is no transport. It is both the
	// initial and the terminal state, entered after LOGOUT, an explicit
	// close or a fatal I/O error.
	ConnStateDisconnected ConnState = iota

	// In the connected state, the transport is established and the
	// greeting was read. The client MUST supply authentication credentials
	// before most commands will be permitted.
	ConnStateConnected

	// In the authenticated state, the client is authenticated and MUST
	// select a mailbox to access before commands that affect messages
	// will be permitted. This state is entered when a pre-authenticated
	// connection starts, when acceptable authentication credentials have
	// been provided, after an error in selecting a mailbox, or after a
	// successful CLOSE command.
	ConnStateAuthenticated

	// In the selected state, a mailbox has been selected to access.
	ConnStateSelected
)

func (state ConnState) String() string {
	switch state {
	case ConnStateDisconnected:
		return "disconnected"
	case ConnStateConnected:
		return "connected"
	case ConnStateAuthenticated:
		return "authenticated"
	case ConnStateSelected:
		return "selected"
	default:
		panic(fmt.Errorf("imap: unknown connection state %v", int(state)))
	}
}

// Satisfies reports whether state is at least required.
func (state ConnState) Satisfies(required ConnState) bool {
	return state >= required
}
