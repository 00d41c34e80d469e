package imapclient

import (
	"bufio"
	"crypto/tls"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/kit/metrics/generic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// pipeServer answers each command line read from conn with the next
// response of the script. It stops at the end of the script.
func pipeServer(conn net.Conn, greeting string, responses ...string) <-chan []string {
	done := make(chan []string, 1)
	go func() {
		defer conn.Close()
		var received []string
		if _, err := conn.Write([]byte(greeting)); err != nil {
			done <- received
			return
		}
		scanner := bufio.NewScanner(conn)
		for _, resp := range responses {
			if !scanner.Scan() {
				break
			}
			received = append(received, scanner.Text())
			if _, err := conn.Write([]byte(resp)); err != nil {
				break
			}
		}
		done <- received
	}()
	return done
}

func TestNetTransport(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	done := pipeServer(serverConn, "* OK [CAPABILITY IMAP4rev1] Ready\r\n",
		"* 2 EXISTS\r\nA0001 OK [READ-WRITE] Done\r\n",
		"* BYE\r\nA0002 OK\r\n",
	)

	c, err := New(NewTransport(clientConn), &Options{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, imap.ConnStateConnected, c.State())

	_, err = c.Do(&RawArgs{Verb: "SELECT", Args: "INBOX"})
	assert.Equal(t, ErrNotAuthenticated, err)

	cmd, err := c.DoSync("NOOP", "")
	require.NoError(t, err)
	assert.Equal(t, imap.ResponseCodeReadWrite, cmd.Code())

	require.NoError(t, c.Logout())
	assert.Equal(t, []string{"A0001 NOOP", "A0002 LOGOUT"}, <-done)
}

func TestNetTransport_timeout(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()
	go func() {
		serverConn.Write([]byte(testGreeting))
		// swallow the command and never answer
		bufio.NewReader(serverConn).ReadString('\n')
	}()

	c, err := New(NewTransport(clientConn), &Options{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	err = c.Noop()
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr), "got %v", err)
	assert.True(t, errors.Is(err, imapwire.ErrTimeout), "got %v", err)
	assert.Equal(t, imap.ConnStateDisconnected, c.State())
}

func TestNetTransport_startTLSTwice(t *testing.T) {
	assert.Error(t, (&netTransport{conn: tlsConnStub()}).StartTLS(nil))
}

func tlsConnStub() net.Conn {
	conn, _ := net.Pipe()
	return tls.Client(conn, &tls.Config{})
}

func TestMetrics(t *testing.T) {
	metrics := NewDiscardMetrics()
	literalBytes := generic.NewCounter("literal_bytes")
	desyncs := generic.NewCounter("desyncs")
	disconnects := generic.NewCounter("disconnects")
	metrics.LiteralBytes = literalBytes
	metrics.Desyncs = desyncs
	metrics.Disconnects = disconnects

	c, _ := newAuthClient(t, &Options{Metrics: metrics},
		"* 1 FETCH (BODY[] {5}\r\nhello)\r\nbogus\r\nA0001 OK\r\n",
		"A0002 OK\r\n* 1 FETCH (BODY[] {5}\r\nhel",
	)

	require.NoError(t, c.Noop())
	assert.Equal(t, 5.0, literalBytes.Value())
	assert.Equal(t, 1.0, desyncs.Value())

	require.NoError(t, c.Noop())
	_, err := c.Step()
	assert.Error(t, err)
	assert.Equal(t, 1.0, disconnects.Value())
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "mail.example.org", hostOf("mail.example.org:993"))
	assert.Equal(t, "mail.example.org", hostOf("mail.example.org"))
	assert.Equal(t, "::1", hostOf("[::1]:143"))
}

func TestTLSConfigFor(t *testing.T) {
	config := tlsConfigFor(nil, "mail.example.org")
	assert.Equal(t, "mail.example.org", config.ServerName)

	options := &Options{TLSConfig: tlsConfigFor(nil, "other.example.org")}
	config = tlsConfigFor(options, "mail.example.org")
	assert.Equal(t, "other.example.org", config.ServerName)
	assert.NotSame(t, options.TLSConfig, config)
}

func TestDebugTransport(t *testing.T) {
	var debug strings.Builder
	st := newScriptTransport(testGreeting)
	dt := debugTransport{Transport: st, w: &debug}
	_, err := dt.Write([]byte("A0001 NOOP\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "A0001 NOOP\r\n", debug.String())
}
