package imapclient

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
)

// Transport is the byte stream carrying an IMAP session.
//
// A zero-byte read or io.EOF means the peer closed the connection. StartTLS
// upgrades the stream in place: subsequent reads and writes are encrypted.
type Transport interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	StartTLS(config *tls.Config) error
}

type netTransport struct {
	conn net.Conn
}

// NewTransport wraps a network connection as a Transport.
func NewTransport(conn net.Conn) Transport {
	return &netTransport{conn: conn}
}

func (t *netTransport) Read(b []byte) (int, error) {
	return t.conn.Read(b)
}

func (t *netTransport) Write(b []byte) (int, error) {
	return t.conn.Write(b)
}

func (t *netTransport) SetReadDeadline(deadline time.Time) error {
	return t.conn.SetReadDeadline(deadline)
}

func (t *netTransport) Close() error {
	return t.conn.Close()
}

func (t *netTransport) StartTLS(config *tls.Config) error {
	if _, ok := t.conn.(*tls.Conn); ok {
		return errors.New("imapclient: TLS is already enabled")
	}
	tlsConn := tls.Client(t.conn, config)
	if err := tlsConn.Handshake(); err != nil {
		return errors.Wrap(err, "TLS handshake failed")
	}
	t.conn = tlsConn
	return nil
}

// debugTransport tees raw traffic to a writer.
type debugTransport struct {
	Transport
	w io.Writer
}

func (t debugTransport) Read(b []byte) (int, error) {
	n, err := t.Transport.Read(b)
	if n > 0 {
		t.w.Write(b[:n])
	}
	return n, err
}

func (t debugTransport) Write(b []byte) (int, error) {
	n, err := t.Transport.Write(b)
	if n > 0 {
		t.w.Write(b[:n])
	}
	return n, err
}

// Dial connects to an IMAP server without TLS and reads the greeting.
// Login can upgrade the connection with STARTTLS.
func Dial(ctx context.Context, address string, options *Options) (*Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &TransportError{Host: address, Err: err}
	}
	return newWithHost(NewTransport(conn), hostOf(address), options)
}

// DialTLS connects to an IMAP server with implicit TLS and reads the
// greeting.
func DialTLS(ctx context.Context, address string, options *Options) (*Client, error) {
	host := hostOf(address)
	config := tlsConfigFor(options, host)
	dialer := tls.Dialer{Config: config}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &TransportError{Host: host, Err: err}
	}
	return newWithHost(NewTransport(conn), host, options)
}

func hostOf(address string) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return address
	}
	return host
}

func tlsConfigFor(options *Options, host string) *tls.Config {
	var config *tls.Config
	if options != nil && options.TLSConfig != nil {
		config = options.TLSConfig.Clone()
	} else {
		config = new(tls.Config)
	}
	if config.ServerName == "" {
		config.ServerName = host
	}
	return config
}
