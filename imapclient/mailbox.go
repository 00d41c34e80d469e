package imapclient

import (
	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// MailboxArgs are the arguments of commands taking a single mailbox name:
// CREATE, DELETE, SUBSCRIBE and UNSUBSCRIBE.
type MailboxArgs struct {
	Command Kind
	Mailbox string
}

func (args *MailboxArgs) Kind() Kind {
	return args.Command
}

func (args *MailboxArgs) encodeArgs(enc *imapwire.Encoder) {
	enc.SP().Mailbox(args.Mailbox)
}

// RenameArgs are the arguments of RENAME.
type RenameArgs struct {
	Mailbox string
	NewName string
}

func (args *RenameArgs) Kind() Kind {
	return KindRename
}

func (args *RenameArgs) encodeArgs(enc *imapwire.Encoder) {
	enc.SP().Mailbox(args.Mailbox).SP().Mailbox(args.NewName)
}

// Create sends a CREATE command.
func (c *Client) Create(mailbox string) error {
	return c.do(&MailboxArgs{Command: KindCreate, Mailbox: mailbox}, nil)
}

// Delete sends a DELETE command.
func (c *Client) Delete(mailbox string) error {
	return c.do(&MailboxArgs{Command: KindDelete, Mailbox: mailbox}, nil)
}

// Rename sends a RENAME command.
func (c *Client) Rename(mailbox, newName string) error {
	return c.do(&RenameArgs{Mailbox: mailbox, NewName: newName}, nil)
}

// Subscribe sends a SUBSCRIBE command.
func (c *Client) Subscribe(mailbox string) error {
	return c.do(&MailboxArgs{Command: KindSubscribe, Mailbox: mailbox}, nil)
}

// Unsubscribe sends an UNSUBSCRIBE command.
func (c *Client) Unsubscribe(mailbox string) error {
	return c.do(&MailboxArgs{Command: KindUnsubscribe, Mailbox: mailbox}, nil)
}

// Check sends a CHECK command.
func (c *Client) Check() error {
	return c.do(noArgs(KindCheck), nil)
}

// Expunge sends an EXPUNGE command. The message count of the selected
// mailbox is updated as EXPUNGE responses are read.
func (c *Client) Expunge() error {
	return c.do(noArgs(KindExpunge), nil)
}

// UnselectAndExpunge sends a CLOSE command.
//
// CLOSE implicitly performs a silent EXPUNGE command. The session goes back
// to the authenticated state.
func (c *Client) UnselectAndExpunge() error {
	return c.do(noArgs(KindClose), nil)
}

// DeleteMessages flags messages designated by UID as \Deleted, then
// expunges them.
func (c *Client) DeleteMessages(uidSet imap.SeqSet) error {
	_, err := c.UIDStore(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	})
	if err != nil {
		return err
	}
	return c.Expunge()
}
