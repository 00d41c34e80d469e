package imapclient

import (
	"fmt"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// Send queues a command and returns its handle.
//
// The command is written immediately if no other command is in flight,
// otherwise it is written once the commands before it completed. A command
// the session state doesn't allow fails without touching the wire.
func (c *Client) Send(args Args) (*Command, error) {
	if c.busy {
		return nil, ErrQueueBusy
	}
	c.busy = true
	defer func() { c.busy = false }()
	return c.send(args)
}

func (c *Client) send(args Args) (*Command, error) {
	if c.t == nil {
		return nil, ErrClosed
	}
	kind := args.Kind()
	if err := c.checkState(kind.RequiredState()); err != nil {
		return nil, err
	}

	verb := kind.Verb()
	if raw, ok := args.(*RawArgs); ok {
		verb = raw.Verb
	}
	c.tag++
	cmd := &Command{
		tag:  fmt.Sprintf("A%04d", c.tag),
		kind: kind,
		verb: verb,
		args: args,
	}
	c.queue = append(c.queue, cmd)
	if len(c.queue) == 1 {
		if err := c.writeCommand(cmd); err != nil {
			return cmd, err
		}
	}
	return cmd, nil
}

func (c *Client) checkState(required imap.ConnState) error {
	if c.state.Satisfies(required) {
		return nil
	}
	switch {
	case c.state == imap.ConnStateDisconnected:
		return ErrClosed
	case required == imap.ConnStateSelected && c.state == imap.ConnStateAuthenticated:
		return ErrNoMailboxSelected
	default:
		return ErrNotAuthenticated
	}
}

// writeCommand encodes and writes the command at the head of the queue.
func (c *Client) writeCommand(cmd *Command) error {
	enc := imapwire.NewEncoder(c.bw)
	enc.LiteralPlus = c.caps.Has(imap.CapLiteralPlus)
	enc.QuotedUTF8 = c.caps.Has(imap.CapUTF8Accept)
	enc.Continue = func() error {
		return c.waitContinuation(cmd)
	}

	switch cmd.kind {
	case KindSelect, KindExamine:
		cmd.mailbox = &imap.MailboxInfo{
			Name:      selectedName(cmd.args),
			ReadWrite: cmd.kind == KindSelect,
		}
	}
	cmd.written = true
	cmd.sentAt = c.now()
	level.Debug(c.logger).Log("msg", "sending command", "tag", cmd.tag, "cmd", cmd.verb)

	flushed := c.wt.n
	enc.Atom(cmd.tag).SP().Atom(cmd.verb)
	cmd.args.encodeArgs(enc)
	err := enc.CRLF()
	switch {
	case c.wt.err != nil:
		return c.fail(c.wt.err)
	case c.t == nil:
		// the session was closed while waiting for a continuation
		return err
	case cmd.done:
		// the server rejected a synchronizing literal
		return nil
	case err != nil && c.wt.n > flushed:
		// part of the command is on the wire, the server still waits for
		// the rest of it
		cmd.err = errors.Wrapf(err, "imapclient: cannot encode %v", cmd.verb)
		return c.fail(cmd.err)
	case err != nil:
		c.bw.Reset(&c.wt)
		c.dequeue(cmd)
		cmd.err = errors.Wrapf(err, "imapclient: cannot encode %v", cmd.verb)
		return cmd.err
	}
	return nil
}

// waitContinuation reads responses until the server accepts a
// synchronizing literal of cmd. It fails if cmd completes instead.
func (c *Client) waitContinuation(cmd *Command) error {
	for !cmd.done {
		resp, err := c.step()
		if err != nil {
			return err
		}
		if _, ok := resp.(*ContinuationRequest); ok {
			c.cont = nil
			return nil
		}
	}
	if err := cmd.Err(); err != nil {
		return errors.Wrap(err, "literal rejected")
	}
	return errors.New("imapclient: command completed before literal was sent")
}

// inflight returns the command on the wire, if any.
func (c *Client) inflight() *Command {
	if len(c.queue) == 0 || !c.queue[0].written {
		return nil
	}
	return c.queue[0]
}

func (c *Client) dequeue(cmd *Command) bool {
	for i, queued := range c.queue {
		if queued == cmd {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return true
		}
	}
	return false
}

// complete records the tagged completion of the in-flight command and
// writes the next queued command.
func (c *Client) complete(cmd *Command, resp *imap.StatusResponse) error {
	cmd.done = true
	cmd.resp = *resp
	c.dequeue(cmd)

	c.metrics.Commands.With("verb", cmd.kind.String(), "status", string(resp.Type)).Add(1)
	c.metrics.CommandDuration.With("verb", cmd.kind.String()).Observe(c.now().Sub(cmd.sentAt).Seconds())
	level.Debug(c.logger).Log("msg", "command completed", "tag", cmd.tag, "cmd", cmd.verb, "status", resp.Type, "text", resp.Text)

	c.onComplete(cmd)

	for len(c.queue) > 0 && !c.queue[0].written {
		// commands failing to encode are dropped, the next one is tried
		if err := c.writeCommand(c.queue[0]); err != nil && c.t == nil {
			return err
		}
	}
	return nil
}

// DrainOne reads and handles one response unit. It returns true if the
// command that was in flight is now complete.
func (c *Client) DrainOne() (bool, error) {
	if c.busy {
		return false, ErrQueueBusy
	}
	c.busy = true
	defer func() { c.busy = false }()

	if c.t == nil {
		return false, ErrClosed
	}
	head := c.inflight()
	if head == nil {
		return false, ErrNoCommand
	}
	if _, err := c.step(); err != nil {
		return false, err
	}
	return head.done, nil
}

// CompleteAndRemove releases a command once its result was consumed. Its
// accumulated data is dropped. A command still queued is removed without
// being sent; the in-flight command cannot be removed.
func (c *Client) CompleteAndRemove(cmd *Command) error {
	if c.busy {
		return ErrQueueBusy
	}
	if !cmd.done && c.inflight() == cmd {
		return ErrQueueBusy
	}
	c.dequeue(cmd)
	cmd.evict()
	return nil
}

// Do sends a command and drains responses until it completes. A NO or BAD
// completion is returned as an *imap.Error.
//
// The caller should release the command with CompleteAndRemove once its
// data was consumed.
func (c *Client) Do(args Args) (*Command, error) {
	cmd, err := c.Send(args)
	if err != nil {
		return cmd, err
	}
	if err := c.wait(cmd); err != nil {
		return cmd, err
	}
	return cmd, cmd.Err()
}

// DoSync sends a command with verbatim arguments and waits for its
// completion.
func (c *Client) DoSync(verb, args string) (*Command, error) {
	return c.Do(&RawArgs{Verb: verb, Args: args})
}

func (c *Client) wait(cmd *Command) error {
	for !cmd.done {
		if cmd.err != nil {
			return cmd.err
		}
		if _, err := c.DrainOne(); err != nil {
			return err
		}
	}
	return nil
}

// do runs a command to completion and releases it. It is used by the typed
// command methods which copy the data they need before returning.
func (c *Client) do(args Args, f func(cmd *Command)) error {
	cmd, err := c.Do(args)
	if cmd != nil && f != nil && cmd.done {
		f(cmd)
	}
	if cmd != nil {
		c.CompleteAndRemove(cmd)
	}
	return err
}
