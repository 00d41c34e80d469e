// Package imapclient implements an IMAP4rev1 client engine.
//
// A Client owns one session: the transport, the line reader, the command
// queue and the session state. It is single-threaded: every method blocks
// until the I/O it needs is done, and at most one command is on the wire at
// a time. Untagged data read between a command and its completion is
// attributed to that command.
//
// The basic loop is Send followed by DrainOne until the command is done; Do
// wraps both. Typed methods such as Select or Fetch are built on Do.
package imapclient

import (
	"bufio"
	"crypto/tls"
	"io"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

const (
	// DefaultTimeout is the default response timeout.
	DefaultTimeout = 20 * time.Second
	// DefaultNoopInterval is the minimum delay between two NOOP commands
	// sent to refresh the selected mailbox.
	DefaultNoopInterval = 10 * time.Second
	// MaxDesync is the number of consecutive unparseable responses after
	// which the session is closed.
	MaxDesync = 3
	// MaxLiteralSize is the maximum size of a literal kept in memory.
	// Relayed literals are not limited.
	MaxLiteralSize = 64 * 1024 * 1024
)

// Options contains options for Client.
type Options struct {
	// Logger receives structured logs. Defaults to a no-op logger.
	Logger log.Logger
	// Raw ingress and egress data will be written to this writer, if any
	DebugWriter io.Writer
	// Timeout bounds each wait for server data. Zero means DefaultTimeout,
	// a negative value disables it.
	Timeout time.Duration
	// TLSConfig is used for STARTTLS and implicit TLS.
	TLSConfig *tls.Config
	// NoopInterval is the minimum delay between two NOOP commands issued by
	// AssureMailboxSelected. Zero means DefaultNoopInterval.
	NoopInterval time.Duration
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// Metrics collects session metrics. Defaults to discarded metrics.
	Metrics *Metrics
}

func (options *Options) timeout() time.Duration {
	switch {
	case options.Timeout == 0:
		return DefaultTimeout
	case options.Timeout < 0:
		return 0
	default:
		return options.Timeout
	}
}

// writeTracker records the first error of the underlying writer, to tell
// transport failures apart from encoding errors. It also counts the bytes
// that reached the transport.
type writeTracker struct {
	w   io.Writer
	n   int64
	err error
}

func (wt *writeTracker) Write(b []byte) (int, error) {
	n, err := wt.w.Write(b)
	wt.n += int64(n)
	if err != nil && wt.err == nil {
		wt.err = err
	}
	return n, err
}

// Client is an IMAP client session.
//
// A Client is not safe for concurrent use. Sessions of different accounts
// run on different clients.
type Client struct {
	t       Transport
	host    string
	options Options
	logger  log.Logger
	metrics *Metrics
	now     func() time.Time

	lr *imapwire.LineReader
	wt writeTracker
	bw *bufio.Writer

	state      imap.ConnState
	greeting   string
	caps       imap.CapSet
	namespaces imap.NamespaceMap
	mailbox    *imap.MailboxInfo
	lastNoop   time.Time
	alerts     []string
	unhandled  []string
	cont       *ContinuationRequest

	tag    uint64
	queue  []*Command
	desync int
	busy   bool
}

// New creates a new client over a transport and reads the server greeting.
//
// A nil options pointer is equivalent to a zero options value.
func New(t Transport, options *Options) (*Client, error) {
	return newWithHost(t, "", options)
}

func newWithHost(t Transport, host string, options *Options) (*Client, error) {
	if options == nil {
		options = &Options{}
	}
	if options.DebugWriter != nil {
		t = debugTransport{Transport: t, w: options.DebugWriter}
	}

	c := &Client{
		t:       t,
		host:    host,
		options: *options,
		logger:  options.Logger,
		metrics: options.Metrics,
		now:     options.Clock,
		state:   imap.ConnStateDisconnected,
	}
	if c.logger == nil {
		c.logger = log.NewNopLogger()
	}
	if host != "" {
		c.logger = log.With(c.logger, "host", host)
	}
	if c.metrics == nil {
		c.metrics = NewDiscardMetrics()
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.lr = imapwire.NewLineReader(t, options.timeout())
	c.wt.w = t
	c.bw = bufio.NewWriter(&c.wt)

	if err := c.readGreeting(); err != nil {
		return nil, err
	}
	return c, nil
}

// readGreeting reads responses until the greeting. Banner lines sent before
// it are kept as unhandled.
func (c *Client) readGreeting() error {
	for c.state == imap.ConnStateDisconnected {
		resp, err := c.step()
		if err != nil {
			return err
		}
		if untagged, ok := resp.(*UntaggedResponse); ok && untagged.Kind == "BYE" {
			c.abort()
			return &TransportError{Host: c.host, Err: errors.Errorf("server refused connection: %v", c.greeting)}
		}
	}
	level.Debug(c.logger).Log("msg", "connected", "state", c.state, "greeting", c.greeting)
	return nil
}

// Close immediately closes the connection. Queued commands are dropped
// without being completed.
func (c *Client) Close() error {
	if c.t == nil {
		return nil
	}
	t := c.t
	c.abort()
	return t.Close()
}

// abort moves the session to the disconnected state. Queued commands are
// dropped without being completed and session data is reset.
func (c *Client) abort() {
	if c.t == nil {
		return
	}
	c.t.Close()
	c.t = nil
	c.queue = nil
	c.cont = nil
	c.state = imap.ConnStateDisconnected
	c.caps = nil
	c.namespaces = nil
	c.mailbox = nil
	c.desync = 0
}

// fail aborts the session after a fatal transport error.
func (c *Client) fail(err error) error {
	if c.t == nil {
		return err
	}
	level.Error(c.logger).Log("msg", "connection lost", "state", c.state, "err", err)
	c.metrics.Disconnects.Add(1)
	c.abort()
	return &TransportError{Host: c.host, Err: err}
}

// Host returns the server host name, if known.
func (c *Client) Host() string {
	return c.host
}

// State returns the current session state.
func (c *Client) State() imap.ConnState {
	return c.state
}

func (c *Client) setState(state imap.ConnState) {
	if state != c.state {
		level.Debug(c.logger).Log("msg", "state changed", "from", c.state, "to", state)
	}
	c.state = state
	if state != imap.ConnStateSelected {
		c.mailbox = nil
	}
}

// Greeting returns the text of the server greeting.
func (c *Client) Greeting() string {
	return c.greeting
}

// Caps returns the capabilities of the server, as last announced.
func (c *Client) Caps() imap.CapSet {
	return c.caps.Copy()
}

// HasCapability checks whether the server supports a capability. The
// comparison is case-insensitive.
func (c *Client) HasCapability(cap imap.Cap) bool {
	return c.caps.Has(cap)
}

func (c *Client) setCaps(caps imap.CapSet) {
	c.caps = caps
	c.applyQuirks()
}

// Mailbox returns a snapshot of the selected mailbox, or nil if no mailbox
// is selected.
func (c *Client) Mailbox() *imap.MailboxInfo {
	return c.mailbox.Copy()
}

// Namespaces returns the namespace map learnt during login.
func (c *Client) Namespaces() imap.NamespaceMap {
	m := make(imap.NamespaceMap, len(c.namespaces))
	for prefix, delim := range c.namespaces {
		m[prefix] = delim
	}
	return m
}

// Alerts returns and clears the texts of ALERT responses.
func (c *Client) Alerts() []string {
	alerts := c.alerts
	c.alerts = nil
	return alerts
}

// Unhandled returns and clears the lines the engine did not understand.
func (c *Client) Unhandled() []string {
	l := c.unhandled
	c.unhandled = nil
	return l
}

// Continuation returns the last continuation request that wasn't answered,
// if any.
func (c *Client) Continuation() *ContinuationRequest {
	return c.cont
}

// WriteContinuation answers a continuation request with a line of data.
// The CRLF is added.
func (c *Client) WriteContinuation(line string) error {
	if c.busy {
		return ErrQueueBusy
	}
	return c.writeLine(line)
}

func (c *Client) writeLine(line string) error {
	if c.t == nil {
		return ErrClosed
	}
	c.cont = nil
	c.bw.WriteString(line)
	c.bw.WriteString("\r\n")
	if err := c.bw.Flush(); err != nil {
		return c.fail(err)
	}
	return nil
}
