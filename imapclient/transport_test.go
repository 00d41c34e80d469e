package imapclient

import (
	"bytes"
	"crypto/tls"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// scriptTransport plays a server script. Each turn is released once the
// client wrote as many times as the turn index: turns[0] is the greeting,
// turns[1] answers the first write and so on. Reading past the released
// data returns io.EOF.
type scriptTransport struct {
	turns    []string
	released int
	pending  []byte
	maxRead  int

	written  bytes.Buffer
	writes   []string
	closed   bool
	tlsCalls int
}

func newScriptTransport(turns ...string) *scriptTransport {
	return &scriptTransport{turns: turns}
}

func (t *scriptTransport) Read(b []byte) (int, error) {
	for len(t.pending) == 0 && t.released < len(t.turns) && t.released <= len(t.writes) {
		t.pending = []byte(t.turns[t.released])
		t.released++
	}
	if len(t.pending) == 0 {
		return 0, io.EOF
	}
	if t.maxRead > 0 && len(b) > t.maxRead {
		b = b[:t.maxRead]
	}
	n := copy(b, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

func (t *scriptTransport) Write(b []byte) (int, error) {
	if t.closed {
		return 0, io.ErrClosedPipe
	}
	t.written.Write(b)
	t.writes = append(t.writes, string(b))
	return len(b), nil
}

func (t *scriptTransport) SetReadDeadline(time.Time) error {
	return nil
}

func (t *scriptTransport) StartTLS(*tls.Config) error {
	t.tlsCalls++
	return nil
}

func (t *scriptTransport) Close() error {
	t.closed = true
	return nil
}

// lines returns the command lines written by the client.
func (t *scriptTransport) lines() []string {
	s := strings.TrimSuffix(t.written.String(), "\r\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\r\n")
}

const testGreeting = "* OK IMAP4rev1 Server Ready\r\n"

func newTestClient(t *testing.T, options *Options, turns ...string) (*Client, *scriptTransport) {
	t.Helper()
	st := newScriptTransport(turns...)
	c, err := New(st, options)
	require.NoError(t, err)
	return c, st
}

// newAuthClient returns a client in the authenticated state.
func newAuthClient(t *testing.T, options *Options, turns ...string) (*Client, *scriptTransport) {
	t.Helper()
	turns = append([]string{"* PREAUTH [CAPABILITY IMAP4rev1 NAMESPACE ACL QUOTA] Logged in\r\n"}, turns...)
	return newTestClient(t, options, turns...)
}

// newSelectedClient returns a client with INBOX selected read-write. The
// SELECT is the first write.
func newSelectedClient(t *testing.T, options *Options, turns ...string) (*Client, *scriptTransport) {
	t.Helper()
	turns = append([]string{"* 3 EXISTS\r\n* OK [UIDVALIDITY 42] UIDs valid\r\nA0001 OK [READ-WRITE] SELECT completed\r\n"}, turns...)
	c, st := newAuthClient(t, options, turns...)
	_, err := c.Select("INBOX", false)
	require.NoError(t, err)
	return c, st
}
