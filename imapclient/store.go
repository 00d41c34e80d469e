package imapclient

import (
	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// StoreArgs are the arguments of STORE and UID STORE.
type StoreArgs struct {
	UID    bool
	SeqSet imap.SeqSet
	Flags  imap.StoreFlags
}

func (args *StoreArgs) Kind() Kind {
	if args.UID {
		return KindUIDStore
	}
	return KindStore
}

func (args *StoreArgs) encodeArgs(enc *imapwire.Encoder) {
	enc.SP().SeqSet(args.SeqSet).SP().Atom(args.Flags.Item()).SP()
	enc.List(len(args.Flags.Flags), func(i int) {
		enc.Flag(args.Flags.Flags[i])
	})
}

// Store sends a STORE command.
//
// Unless StoreFlags.Silent is set, the server returns the updated flags.
func (c *Client) Store(seqSet imap.SeqSet, flags *imap.StoreFlags) ([]*imap.FetchData, error) {
	return c.store(&StoreArgs{SeqSet: seqSet, Flags: *flags})
}

// UIDStore sends a UID STORE command.
//
// See Store.
func (c *Client) UIDStore(uidSet imap.SeqSet, flags *imap.StoreFlags) ([]*imap.FetchData, error) {
	return c.store(&StoreArgs{UID: true, SeqSet: uidSet, Flags: *flags})
}

func (c *Client) store(args *StoreArgs) ([]*imap.FetchData, error) {
	var msgs []*imap.FetchData
	err := c.do(args, func(cmd *Command) {
		msgs = cmd.Messages()
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// SetSeen adds or removes the \Seen flag of messages designated by UID.
func (c *Client) SetSeen(uidSet imap.SeqSet, seen bool) error {
	op := imap.StoreFlagsDel
	if seen {
		op = imap.StoreFlagsAdd
	}
	_, err := c.UIDStore(uidSet, &imap.StoreFlags{
		Op:     op,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	})
	return err
}

// ReplaceFlags replaces the flags of messages designated by UID.
//
// Only the flags the client knows about are removed: the system flags, and
// the keyword flags if the selected mailbox accepts keywords. Other flags
// set by the server or other clients are kept.
func (c *Client) ReplaceFlags(uidSet imap.SeqSet, flags []imap.Flag) error {
	known := append([]imap.Flag(nil), imap.SystemFlags...)
	if c.mailbox.AcceptsKeywords() {
		known = append(known, imap.KeywordFlags...)
	}

	_, err := c.UIDStore(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsDel,
		Silent: true,
		Flags:  known,
	})
	if err != nil || len(flags) == 0 {
		return err
	}
	_, err = c.UIDStore(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  flags,
	})
	return err
}
