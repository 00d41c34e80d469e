package imapclient

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/emersion/go-imapengine"
)

var (
	// ErrNotAuthenticated is returned when a command requiring an
	// authenticated session is sent before login.
	ErrNotAuthenticated = errors.New("imapclient: not authenticated")
	// ErrNoMailboxSelected is returned when a command requiring a selected
	// mailbox is sent without one.
	ErrNoMailboxSelected = errors.New("imapclient: no mailbox selected")
	// ErrClosed is returned when the session is disconnected.
	ErrClosed = errors.New("imapclient: connection closed")
	// ErrDesync is returned when the response stream could not be parsed
	// MaxDesync times in a row. The session is closed.
	ErrDesync = errors.New("imapclient: response stream out of sync")
	// ErrUnsupported is returned when the server lacks the capability a
	// command needs.
	ErrUnsupported = errors.New("imapclient: unsupported by server")
	// ErrQueueBusy is returned when the engine is re-entered while it is
	// reading or writing, or when an in-flight command is removed.
	ErrQueueBusy = errors.New("imapclient: command queue busy")
	// ErrNoCommand is returned by DrainOne when no command is in flight.
	ErrNoCommand = errors.New("imapclient: no command in flight")

	ErrMailboxNotFound = errors.New("imapclient: mailbox does not exist")
	ErrAccessDenied    = errors.New("imapclient: access denied")
	ErrReadOnly        = errors.New("imapclient: mailbox is read-only")
)

// TransportError is a fatal I/O failure. The session is disconnected and
// the outcome of the in-flight command is unknown.
type TransportError struct {
	Host string
	Err  error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("imapclient: connection to %v failed: %v", err.Host, err.Err)
}

func (err *TransportError) Unwrap() error {
	return err.Err
}

// NegotiationError is returned when the server lacks a capability required
// to log in. No credentials have been sent.
type NegotiationError struct {
	Host string
	Cap  imap.Cap
	Msg  string
}

func (err *NegotiationError) Error() string {
	if err.Cap != "" {
		return fmt.Sprintf("imapclient: %v: %v (missing %v)", err.Host, err.Msg, err.Cap)
	}
	return fmt.Sprintf("imapclient: %v: %v", err.Host, err.Msg)
}

// AuthError is returned when the server rejected the credentials.
type AuthError struct {
	Host      string
	User      string
	Mechanism string
	Err       error
}

func (err *AuthError) Error() string {
	mech := err.Mechanism
	if mech == "" {
		mech = "LOGIN"
	}
	return fmt.Sprintf("imapclient: authentication of %q on %v using %v failed: %v", err.User, err.Host, mech, err.Err)
}

func (err *AuthError) Unwrap() error {
	return err.Err
}
