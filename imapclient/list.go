package imapclient

import (
	"fmt"
	"unicode/utf8"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// ListArgs are the arguments of LIST and LSUB.
type ListArgs struct {
	Reference string
	Pattern   string
	// Subscribed lists subscribed mailboxes only (LSUB)
	Subscribed bool
}

func (args *ListArgs) Kind() Kind {
	if args.Subscribed {
		return KindLsub
	}
	return KindList
}

func (args *ListArgs) encodeArgs(enc *imapwire.Encoder) {
	enc.SP().Mailbox(args.Reference).SP().Mailbox(args.Pattern)
}

// List sends a LIST command and returns the matching mailboxes.
func (c *Client) List(ref, pattern string) ([]*imap.ListData, error) {
	return c.list(&ListArgs{Reference: ref, Pattern: pattern})
}

// Lsub sends a LSUB command and returns the matching subscribed mailboxes.
func (c *Client) Lsub(ref, pattern string) ([]*imap.ListData, error) {
	return c.list(&ListArgs{Reference: ref, Pattern: pattern, Subscribed: true})
}

func (c *Client) list(args *ListArgs) ([]*imap.ListData, error) {
	var l []*imap.ListData
	err := c.do(args, func(cmd *Command) {
		l = cmd.list
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (c *Client) handleList(dec *imapwire.Decoder, cmd *Command) error {
	if !dec.ExpectSP() {
		return dec.Err()
	}
	data, err := readList(dec)
	if err != nil {
		return err
	}
	if cmd != nil {
		cmd.list = append(cmd.list, data)
	}
	return nil
}

func readList(dec *imapwire.Decoder) (*imap.ListData, error) {
	var data imap.ListData
	err := dec.ExpectList(func() error {
		var attr string
		if !dec.ExpectFlag(&attr) {
			return dec.Err()
		}
		data.Attrs = append(data.Attrs, imap.MailboxAttr(attr))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("in mbx-list-flags: %v", err)
	}

	if !dec.ExpectSP() {
		return nil, dec.Err()
	}
	data.Delim, err = readDelim(dec)
	if err != nil {
		return nil, err
	}
	if !dec.ExpectSP() || !dec.ExpectMailbox(&data.Mailbox) {
		return nil, dec.Err()
	}
	return &data, nil
}

func readDelim(dec *imapwire.Decoder) (rune, error) {
	var delimStr string
	if dec.Quoted(&delimStr) {
		delim, size := utf8.DecodeRuneInString(delimStr)
		if delim == utf8.RuneError || size != len(delimStr) {
			return 0, fmt.Errorf("mailbox delimiter must be a single rune")
		}
		return delim, nil
	} else if !dec.Expect(dec.Func("NIL"), "NIL") {
		return 0, dec.Err()
	}
	return 0, nil
}
