package imapclient

import (
	"crypto/tls"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/emersion/go-imapengine"
)

// StartTLS sends a STARTTLS command, upgrades the transport and re-reads
// the capabilities: those announced in cleartext are discarded.
//
// A nil config uses Options.TLSConfig, with the server name set to the
// host. On any failure after the command was accepted, the connection is
// closed.
func (c *Client) StartTLS(config *tls.Config) error {
	if !c.caps.Has(imap.CapStartTLS) {
		return &NegotiationError{Host: c.host, Cap: imap.CapStartTLS, Msg: "server does not support TLS"}
	}
	if err := c.do(noArgs(KindStartTLS), nil); err != nil {
		return err
	}

	// Anything the server sent after the OK was injected before the
	// handshake.
	if n := c.lr.Buffered(); n > 0 {
		return c.fail(errors.Errorf("%v bytes of cleartext data received after STARTTLS", n))
	}

	if config == nil {
		config = tlsConfigFor(&c.options, c.host)
	}
	if err := c.t.StartTLS(config); err != nil {
		return c.fail(err)
	}
	level.Debug(c.logger).Log("msg", "TLS enabled")

	c.caps = nil
	_, err := c.Capability()
	return err
}
