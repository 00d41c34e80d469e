package imapclient

import (
	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// CopyArgs are the arguments of COPY and UID COPY.
type CopyArgs struct {
	UID     bool
	SeqSet  imap.SeqSet
	Mailbox string
}

func (args *CopyArgs) Kind() Kind {
	if args.UID {
		return KindUIDCopy
	}
	return KindCopy
}

func (args *CopyArgs) encodeArgs(enc *imapwire.Encoder) {
	enc.SP().SeqSet(args.SeqSet).SP().Mailbox(args.Mailbox)
}

// Copy sends a COPY command.
//
// The returned data is only populated if the server supports UIDPLUS,
// otherwise it is nil.
func (c *Client) Copy(seqSet imap.SeqSet, mailbox string) (*imap.CopyData, error) {
	return c.copy(&CopyArgs{SeqSet: seqSet, Mailbox: mailbox})
}

// UIDCopy sends a UID COPY command.
//
// See Copy.
func (c *Client) UIDCopy(uidSet imap.SeqSet, mailbox string) (*imap.CopyData, error) {
	return c.copy(&CopyArgs{UID: true, SeqSet: uidSet, Mailbox: mailbox})
}

func (c *Client) copy(args *CopyArgs) (*imap.CopyData, error) {
	var data *imap.CopyData
	err := c.do(args, func(cmd *Command) {
		data = cmd.copyData
	})
	return data, err
}

// readCopyUID reads the arguments of a COPYUID response code.
func readCopyUID(dec *imapwire.Decoder) (*imap.CopyData, error) {
	var (
		data     imap.CopyData
		src, dst string
		ok       bool
	)
	if !dec.ExpectSP() {
		return nil, dec.Err()
	}
	if data.UIDValidity, ok = dec.ExpectNumber(); !ok {
		return nil, dec.Err()
	}
	if !dec.ExpectSP() || !dec.ExpectAtom(&src) || !dec.ExpectSP() || !dec.ExpectAtom(&dst) {
		return nil, dec.Err()
	}

	var err error
	if data.SourceUIDs, err = imap.ParseSeqSet(src); err != nil {
		return nil, err
	}
	if data.DestUIDs, err = imap.ParseSeqSet(dst); err != nil {
		return nil, err
	}
	return &data, nil
}
