package imapclient

import (
	"crypto/tls"
	"fmt"
	"regexp"
	"strings"

	"github.com/blang/semver"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/emersion/go-imapengine"
)

// TLSMode selects whether Login upgrades the connection with STARTTLS.
type TLSMode int

const (
	// TLSNone never sends STARTTLS. Use it for implicit TLS connections.
	TLSNone TLSMode = iota
	// TLSOpportunistic sends STARTTLS if the server supports it.
	TLSOpportunistic
	// TLSRequired fails the login if the server doesn't support STARTTLS.
	TLSRequired
)

func (mode TLSMode) String() string {
	switch mode {
	case TLSNone:
		return "none"
	case TLSOpportunistic:
		return "opportunistic"
	case TLSRequired:
		return "required"
	}
	return "unknown"
}

// LoginOptions contains options for Login.
type LoginOptions struct {
	TLS       TLSMode
	TLSConfig *tls.Config

	// Mechanism is a SASL mechanism name. Empty or "*" selects the LOGIN
	// command.
	Mechanism string
	User      string
	Password  string
	// Token is the OAuth 2.0 bearer token of OAUTHBEARER and XOAUTH2.
	Token string
	// Port is sent by OAUTHBEARER.
	Port int

	// NoLogin stops after checking the server capabilities.
	NoLogin bool
}

// Login negotiates the session and authenticates.
//
// Capabilities are checked, the connection is upgraded with STARTTLS as
// configured and the requested authentication mechanism must be
// advertised: credentials are never sent before these checks passed. On a
// negotiation failure the connection is closed and a *NegotiationError is
// returned. Rejected credentials are reported as an *AuthError and leave
// the session connected.
//
// Once authenticated, the namespaces are learnt. A pre-authenticated
// session skips TLS negotiation and authentication.
func (c *Client) Login(options *LoginOptions) error {
	if options == nil {
		options = &LoginOptions{}
	}

	caps, err := c.Capability()
	if err != nil {
		return err
	}
	if !caps.IsIMAP4() {
		greeting := c.greeting
		c.Close()
		return &NegotiationError{
			Host: c.host,
			Cap:  imap.CapIMAP4rev1,
			Msg:  fmt.Sprintf("not an IMAP4 server, it identified itself with %q", greeting),
		}
	}
	if options.NoLogin {
		return nil
	}

	if c.state == imap.ConnStateConnected {
		if err := c.negotiate(options); err != nil {
			return err
		}
		if err := c.authenticate(options); err != nil {
			return err
		}
	}
	return c.learnNamespaces()
}

func (c *Client) negotiate(options *LoginOptions) error {
	hasTLS := c.caps.Has(imap.CapStartTLS)
	if options.TLS == TLSRequired && !hasTLS {
		c.Close()
		return &NegotiationError{Host: c.host, Cap: imap.CapStartTLS, Msg: "server does not support TLS"}
	}
	if options.TLS != TLSNone && hasTLS {
		if err := c.StartTLS(options.TLSConfig); err != nil {
			c.Close()
			return err
		}
	}

	mech := strings.ToUpper(options.Mechanism)
	if mech != "" && mech != "*" && !c.caps.Has(imap.AuthCap(mech)) {
		c.Close()
		return &NegotiationError{Host: c.host, Cap: imap.AuthCap(mech), Msg: "authentication method not supported by the server"}
	}
	return nil
}

func (c *Client) authenticate(options *LoginOptions) error {
	mech := strings.ToUpper(options.Mechanism)
	level.Debug(c.logger).Log("msg", "logging in", "user", options.User, "mechanism", mech)
	if mech == "" || mech == "*" {
		return c.LoginPlain(options.User, options.Password)
	}

	saslOptions := *options
	saslOptions.Mechanism = mech
	client, err := saslClient(&saslOptions, c.host, options.Port)
	if err != nil {
		return err
	}
	return c.Authenticate(options.User, client)
}

// learnNamespaces builds the namespace map. Without NAMESPACE support, the
// default delimiter comes from `LIST "" ""`.
func (c *Client) learnNamespaces() error {
	ns := make(imap.NamespaceMap)
	if c.caps.Has(imap.CapNamespace) {
		data, err := c.Namespace()
		var imapErr *imap.Error
		if errors.As(err, &imapErr) {
			level.Warn(c.logger).Log("msg", "cannot get namespaces", "err", err)
		} else if err != nil {
			return err
		} else {
			ns.Add(data)
		}
	}

	if _, ok := ns[""]; !ok {
		l, err := c.List("", "")
		var imapErr *imap.Error
		if errors.As(err, &imapErr) {
			level.Warn(c.logger).Log("msg", "cannot get hierarchy delimiter", "err", err)
		} else if err != nil {
			return err
		}
		if len(l) > 0 {
			ns[""] = ""
			if l[0].Delim != 0 {
				ns[""] = string(l[0].Delim)
			}
		}
	}

	c.namespaces = ns
	return nil
}

var cyrusVersionRegexp = regexp.MustCompile(`(?i)Cyrus\sIMAP4?\sv(\d+\.\d+\.\d+)`)

// sharedSeenVersion is the last Cyrus version without shared seen flags.
var sharedSeenVersion = semver.MustParse("2.3.9")

// applyQuirks adjusts the capabilities of servers known to misreport them,
// based on the greeting.
func (c *Client) applyQuirks() {
	if c.caps == nil {
		return
	}
	if strings.Contains(c.greeting, "Cyrus IMAP4 v2.1") {
		c.caps.Remove(imap.CapAnnotate)
	}

	m := cyrusVersionRegexp.FindStringSubmatch(c.greeting)
	if m == nil {
		return
	}
	v, err := semver.ParseTolerant(m[1])
	if err != nil {
		return
	}
	if v.GT(sharedSeenVersion) {
		c.caps.Add(imap.CapSharedSeen)
	}
}
