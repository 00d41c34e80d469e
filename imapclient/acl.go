package imapclient

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// ACLArgs are the arguments of the ACL commands (RFC 4314). Identifier is
// only used by SETACL, DELETEACL and LISTRIGHTS, Rights by SETACL.
type ACLArgs struct {
	Command      Kind
	Mailbox      string
	Identifier   imap.RightsIdentifier
	Modification imap.RightModification
	Rights       imap.RightSet
}

func (args *ACLArgs) Kind() Kind {
	return args.Command
}

func (args *ACLArgs) encodeArgs(enc *imapwire.Encoder) {
	enc.SP().Mailbox(args.Mailbox)
	switch args.Command {
	case KindSetACL:
		rights := string(args.Rights)
		if args.Modification != imap.RightModificationReplace {
			rights = string(args.Modification) + rights
		}
		enc.SP().String(string(args.Identifier)).SP().String(rights)
	case KindDeleteACL, KindListRights:
		enc.SP().String(string(args.Identifier))
	}
}

func (c *Client) checkACL() error {
	if !c.caps.Has(imap.CapACL) {
		return errors.Wrapf(ErrUnsupported, "missing %v", imap.CapACL)
	}
	return nil
}

// SetACL sends a SETACL command.
func (c *Client) SetACL(mailbox string, ri imap.RightsIdentifier, rm imap.RightModification, rs imap.RightSet) error {
	if err := c.checkACL(); err != nil {
		return err
	}
	return c.do(&ACLArgs{
		Command:      KindSetACL,
		Mailbox:      mailbox,
		Identifier:   ri,
		Modification: rm,
		Rights:       rs,
	}, nil)
}

// DeleteACL sends a DELETEACL command.
func (c *Client) DeleteACL(mailbox string, ri imap.RightsIdentifier) error {
	if err := c.checkACL(); err != nil {
		return err
	}
	return c.do(&ACLArgs{Command: KindDeleteACL, Mailbox: mailbox, Identifier: ri}, nil)
}

// GetACL sends a GETACL command.
func (c *Client) GetACL(mailbox string) (*imap.GetACLData, error) {
	if err := c.checkACL(); err != nil {
		return nil, err
	}
	var data *imap.GetACLData
	err := c.do(&ACLArgs{Command: KindGetACL, Mailbox: mailbox}, func(cmd *Command) {
		data = cmd.acl
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = &imap.GetACLData{Mailbox: mailbox}
	}
	return data, nil
}

// ListRights sends a LISTRIGHTS command.
func (c *Client) ListRights(mailbox string, ri imap.RightsIdentifier) (*imap.ListRightsData, error) {
	if err := c.checkACL(); err != nil {
		return nil, err
	}
	var data *imap.ListRightsData
	err := c.do(&ACLArgs{Command: KindListRights, Mailbox: mailbox, Identifier: ri}, func(cmd *Command) {
		data = cmd.listRights
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("imapclient: server sent no LISTRIGHTS data for %q", mailbox)
	}
	return data, nil
}

// MyRights sends a MYRIGHTS command.
func (c *Client) MyRights(mailbox string) (*imap.MyRightsData, error) {
	if err := c.checkACL(); err != nil {
		return nil, err
	}
	var data *imap.MyRightsData
	err := c.do(&ACLArgs{Command: KindMyRights, Mailbox: mailbox}, func(cmd *Command) {
		data = cmd.myRights
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("imapclient: server sent no MYRIGHTS data for %q", mailbox)
	}
	return data, nil
}

func (c *Client) handleACL(dec *imapwire.Decoder, cmd *Command) error {
	if !dec.ExpectSP() {
		return dec.Err()
	}
	data, err := readGetACL(dec)
	if err != nil {
		return fmt.Errorf("in acl-data: %v", err)
	}
	if cmd != nil {
		cmd.acl = data
	}
	return nil
}

func (c *Client) handleMyRights(dec *imapwire.Decoder, cmd *Command) error {
	if !dec.ExpectSP() {
		return dec.Err()
	}
	data, err := readMyRights(dec)
	if err != nil {
		return fmt.Errorf("in myrights-data: %v", err)
	}
	if cmd != nil {
		cmd.myRights = data
	}
	return nil
}

func (c *Client) handleListRights(dec *imapwire.Decoder, cmd *Command) error {
	if !dec.ExpectSP() {
		return dec.Err()
	}
	data, err := readListRights(dec)
	if err != nil {
		return fmt.Errorf("in listrights-data: %v", err)
	}
	if cmd != nil {
		cmd.listRights = data
	}
	return nil
}

func readMyRights(dec *imapwire.Decoder) (*imap.MyRightsData, error) {
	var data imap.MyRightsData
	var rights string

	if !dec.ExpectMailbox(&data.Mailbox) || !dec.ExpectSP() || !dec.ExpectAString(&rights) {
		return nil, dec.Err()
	}

	_, rs, err := imap.NewRights(rights, true)
	if err != nil {
		return nil, err
	}

	data.Rights = rs

	return &data, nil
}

func readGetACL(dec *imapwire.Decoder) (*imap.GetACLData, error) {
	data := &imap.GetACLData{Rights: make(map[imap.RightsIdentifier]imap.RightSet)}

	if !dec.ExpectMailbox(&data.Mailbox) {
		return nil, dec.Err()
	}

	for dec.SP() {
		var rsStr, riStr string

		if !dec.ExpectAString(&riStr) || !dec.ExpectSP() || !dec.ExpectAString(&rsStr) {
			return nil, dec.Err()
		}

		_, rs, err := imap.NewRights(rsStr, true)
		if err != nil {
			return nil, err
		}

		data.Rights[imap.RightsIdentifier(riStr)] = rs
	}

	return data, nil
}

func readListRights(dec *imapwire.Decoder) (*imap.ListRightsData, error) {
	var (
		data     imap.ListRightsData
		ri, reqd string
	)
	if !dec.ExpectMailbox(&data.Mailbox) || !dec.ExpectSP() || !dec.ExpectAString(&ri) || !dec.ExpectSP() || !dec.ExpectAString(&reqd) {
		return nil, dec.Err()
	}
	data.Identifier = imap.RightsIdentifier(ri)
	data.Required = imap.RightSet(reqd)

	for dec.SP() {
		var group string
		if !dec.ExpectAString(&group) {
			return nil, dec.Err()
		}
		data.Optional = append(data.Optional, imap.RightSet(group))
	}
	return &data, nil
}
