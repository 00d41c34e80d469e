package imapclient

import (
	"fmt"
	"strings"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// StatusArgs are the arguments of STATUS. No items requests all of them.
type StatusArgs struct {
	Mailbox string
	Items   []imap.StatusItem
}

func (args *StatusArgs) Kind() Kind {
	return KindStatus
}

func (args *StatusArgs) encodeArgs(enc *imapwire.Encoder) {
	items := args.Items
	if len(items) == 0 {
		items = []imap.StatusItem{
			imap.StatusItemNumMessages,
			imap.StatusItemNumRecent,
			imap.StatusItemUIDNext,
			imap.StatusItemUIDValidity,
			imap.StatusItemNumUnseen,
		}
	}
	enc.SP().Mailbox(args.Mailbox).SP()
	enc.List(len(items), func(i int) {
		enc.Atom(string(items[i]))
	})
}

// Status sends a STATUS command.
func (c *Client) Status(mailbox string, items ...imap.StatusItem) (*imap.StatusData, error) {
	var data *imap.StatusData
	err := c.do(&StatusArgs{Mailbox: mailbox, Items: items}, func(cmd *Command) {
		data = cmd.status
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("imapclient: server sent no STATUS data for %q", mailbox)
	}
	return data, nil
}

func (c *Client) handleStatusData(dec *imapwire.Decoder, cmd *Command) error {
	if !dec.ExpectSP() {
		return dec.Err()
	}
	data, err := readStatus(dec)
	if err != nil {
		return fmt.Errorf("in status: %v", err)
	}
	if cmd != nil {
		cmd.status = data
	}
	return nil
}

func readStatus(dec *imapwire.Decoder) (*imap.StatusData, error) {
	var data imap.StatusData

	if !dec.ExpectMailbox(&data.Mailbox) || !dec.ExpectSP() {
		return nil, dec.Err()
	}

	err := dec.ExpectList(func() error {
		if err := readStatusAttVal(dec, &data); err != nil {
			return fmt.Errorf("in status-att-val: %v", err)
		}
		return nil
	})
	return &data, err
}

func readStatusAttVal(dec *imapwire.Decoder, data *imap.StatusData) error {
	var name string
	if !dec.ExpectAtom(&name) || !dec.ExpectSP() {
		return dec.Err()
	}

	var (
		num uint32
		ok  bool
	)
	switch imap.StatusItem(strings.ToUpper(name)) {
	case imap.StatusItemNumMessages:
		num, ok = dec.ExpectNumber()
		data.NumMessages = &num
	case imap.StatusItemNumRecent:
		num, ok = dec.ExpectNumber()
		data.NumRecent = &num
	case imap.StatusItemUIDNext:
		data.UIDNext, ok = dec.ExpectNumber()
	case imap.StatusItemUIDValidity:
		data.UIDValidity, ok = dec.ExpectNumber()
	case imap.StatusItemNumUnseen:
		num, ok = dec.ExpectNumber()
		data.NumUnseen = &num
	default:
		var v string
		ok = dec.ExpectValue(&v)
	}
	if !ok {
		return dec.Err()
	}
	return nil
}
