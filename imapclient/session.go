package imapclient

import (
	"strings"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// SelectArgs are the arguments of SELECT and EXAMINE.
type SelectArgs struct {
	Mailbox  string
	ReadOnly bool
}

func (args *SelectArgs) Kind() Kind {
	if args.ReadOnly {
		return KindExamine
	}
	return KindSelect
}

func (args *SelectArgs) encodeArgs(enc *imapwire.Encoder) {
	enc.SP().Mailbox(args.Mailbox)
}

// selectedName returns the mailbox name of SELECT or EXAMINE arguments.
func selectedName(args Args) string {
	switch args := args.(type) {
	case *SelectArgs:
		return imap.CanonicalMailboxName(args.Mailbox)
	case *RawArgs:
		var name string
		dec := imapwire.NewDecoder([]byte(args.Args))
		if dec.Mailbox(&name) {
			return name
		}
	}
	return ""
}

// onComplete applies the state transition caused by a command completion.
func (c *Client) onComplete(cmd *Command) {
	ok := cmd.resp.Type == imap.StatusResponseTypeOK
	switch cmd.kind {
	case KindLogin, KindAuthenticate:
		if ok && c.state == imap.ConnStateConnected {
			c.setState(imap.ConnStateAuthenticated)
		}
	case KindSelect, KindExamine:
		if ok {
			c.setState(imap.ConnStateSelected)
			c.mailbox = cmd.mailbox
			c.lastNoop = c.now()
		} else if c.state.Satisfies(imap.ConnStateAuthenticated) {
			// a failed SELECT leaves no mailbox selected
			c.setState(imap.ConnStateAuthenticated)
		}
	case KindClose:
		if ok {
			c.setState(imap.ConnStateAuthenticated)
		}
	case KindNoop:
		c.lastNoop = c.now()
	}
}

// Select sends a SELECT command, or EXAMINE if readOnly is set, and returns
// the selected mailbox.
func (c *Client) Select(mailbox string, readOnly bool) (*imap.MailboxInfo, error) {
	if err := c.do(&SelectArgs{Mailbox: mailbox, ReadOnly: readOnly}, nil); err != nil {
		return nil, err
	}
	return c.Mailbox(), nil
}

// Noop sends a NOOP command. Pending unilateral updates are applied to the
// selected mailbox.
func (c *Client) Noop() error {
	return c.do(noArgs(KindNoop), nil)
}

// Logout sends a LOGOUT command and closes the connection. The session ends
// in the disconnected state even if the command failed.
func (c *Client) Logout() error {
	if c.t == nil {
		return nil
	}
	err := c.do(noArgs(KindLogout), nil)
	c.Close()
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		// the server may close the connection right after BYE
		return nil
	}
	return err
}

func (c *Client) noopInterval() time.Duration {
	if c.options.NoopInterval > 0 {
		return c.options.NoopInterval
	}
	return DefaultNoopInterval
}

// AssureMailboxSelected makes sure a mailbox is selected, in read-write
// mode unless readOnly is set.
//
// If the mailbox is already selected in a suitable mode, it is not selected
// again: a NOOP is sent instead, at most once per NoopInterval, to collect
// pending updates. A read-only selection is re-selected when write access
// is required.
func (c *Client) AssureMailboxSelected(mailbox string, readOnly bool) error {
	if mailbox == "" {
		return errors.New("imapclient: empty mailbox name")
	}
	if err := c.checkState(imap.ConnStateAuthenticated); err != nil {
		return err
	}
	mailbox = imap.CanonicalMailboxName(mailbox)

	if c.mailbox != nil && c.mailbox.Name == mailbox && (readOnly || c.mailbox.ReadWrite) {
		if c.now().Sub(c.lastNoop) > c.noopInterval() {
			level.Debug(c.logger).Log("msg", "refreshing mailbox", "mailbox", mailbox)
			if err := c.Noop(); err != nil {
				return err
			}
		}
	} else {
		err := c.do(&SelectArgs{Mailbox: mailbox, ReadOnly: readOnly}, nil)
		var imapErr *imap.Error
		if errors.As(err, &imapErr) {
			return c.diagnoseSelect(mailbox, imapErr)
		} else if err != nil {
			return err
		}
	}

	if !readOnly && (c.mailbox == nil || !c.mailbox.ReadWrite) {
		return errors.Wrapf(ErrReadOnly, "cannot open %q for writing", mailbox)
	}
	return nil
}

// diagnoseSelect tells a missing mailbox apart from a denied one after a
// failed SELECT.
func (c *Client) diagnoseSelect(mailbox string, selectErr *imap.Error) error {
	var found bool
	err := c.do(&ListArgs{Pattern: mailbox}, func(cmd *Command) {
		for _, data := range cmd.list {
			if data.Mailbox == mailbox {
				found = true
			}
		}
	})
	var imapErr *imap.Error
	if err != nil && !errors.As(err, &imapErr) {
		return err
	}

	switch {
	case !found:
		return errors.Wrapf(ErrMailboxNotFound, "%q", mailbox)
	case strings.Contains(strings.ToLower(selectErr.Text), "permission"):
		return errors.Wrapf(ErrAccessDenied, "%q: %v", mailbox, selectErr.Text)
	default:
		return errors.Wrapf(selectErr, "cannot open %q", mailbox)
	}
}
