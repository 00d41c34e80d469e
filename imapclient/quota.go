package imapclient

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// QuotaArgs are the arguments of GETQUOTA, GETQUOTAROOT and SETQUOTA.
// Root is the mailbox name for GETQUOTAROOT.
type QuotaArgs struct {
	Command Kind
	Root    string
	Limits  map[imap.QuotaResourceType]int64
}

func (args *QuotaArgs) Kind() Kind {
	return args.Command
}

func (args *QuotaArgs) encodeArgs(enc *imapwire.Encoder) {
	enc.SP()
	if args.Command == KindGetQuotaRoot {
		enc.Mailbox(args.Root)
		return
	}
	enc.String(args.Root)
	if args.Command != KindSetQuota {
		return
	}

	types := make([]string, 0, len(args.Limits))
	for typ := range args.Limits {
		types = append(types, string(typ))
	}
	sort.Strings(types)
	enc.SP().List(len(types), func(i int) {
		enc.Atom(types[i]).SP().Number64(args.Limits[imap.QuotaResourceType(types[i])])
	})
}

func (c *Client) checkQuota() error {
	if !c.caps.Has(imap.CapQuota) {
		return errors.Wrapf(ErrUnsupported, "missing %v", imap.CapQuota)
	}
	return nil
}

// GetQuota sends a GETQUOTA command.
//
// This command requires support for the QUOTA extension.
func (c *Client) GetQuota(root string) (*imap.QuotaData, error) {
	if err := c.checkQuota(); err != nil {
		return nil, err
	}
	var data *imap.QuotaData
	err := c.do(&QuotaArgs{Command: KindGetQuota, Root: root}, func(cmd *Command) {
		for _, q := range cmd.quotas {
			if q.Root == root {
				data = q
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("imapclient: server sent no QUOTA data for %q", root)
	}
	return data, nil
}

// GetQuotaRoot sends a GETQUOTAROOT command.
//
// This command requires support for the QUOTA extension.
func (c *Client) GetQuotaRoot(mailbox string) (*imap.QuotaRootData, error) {
	if err := c.checkQuota(); err != nil {
		return nil, err
	}
	var data *imap.QuotaRootData
	err := c.do(&QuotaArgs{Command: KindGetQuotaRoot, Root: mailbox}, func(cmd *Command) {
		data = cmd.quotaRoot
		if data == nil {
			data = &imap.QuotaRootData{Mailbox: mailbox}
		}
		for _, q := range cmd.quotas {
			data.Quotas = append(data.Quotas, *q)
		}
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SetQuota sends a SETQUOTA command.
//
// This command requires support for the QUOTA extension.
func (c *Client) SetQuota(root string, limits map[imap.QuotaResourceType]int64) error {
	if err := c.checkQuota(); err != nil {
		return err
	}
	return c.do(&QuotaArgs{Command: KindSetQuota, Root: root, Limits: limits}, nil)
}

func (c *Client) handleQuota(dec *imapwire.Decoder, cmd *Command) error {
	if !dec.ExpectSP() {
		return dec.Err()
	}
	data, err := readQuotaResponse(dec)
	if err != nil {
		return fmt.Errorf("in quota-response: %v", err)
	}
	if cmd != nil {
		cmd.quotas = append(cmd.quotas, data)
	}
	return nil
}

func (c *Client) handleQuotaRoot(dec *imapwire.Decoder, cmd *Command) error {
	if !dec.ExpectSP() {
		return dec.Err()
	}
	data, err := readQuotaRoot(dec)
	if err != nil {
		return fmt.Errorf("in quotaroot-response: %v", err)
	}
	if cmd != nil {
		cmd.quotaRoot = data
	}
	return nil
}

func readQuotaResponse(dec *imapwire.Decoder) (*imap.QuotaData, error) {
	data := &imap.QuotaData{Resources: make(map[imap.QuotaResourceType]imap.QuotaResourceData)}
	if !dec.ExpectAString(&data.Root) || !dec.ExpectSP() {
		return nil, dec.Err()
	}
	err := dec.ExpectList(func() error {
		var (
			name string
			res  imap.QuotaResourceData
			ok   bool
		)
		if !dec.ExpectAtom(&name) || !dec.ExpectSP() {
			return dec.Err()
		}
		if res.Usage, ok = dec.ExpectNumber64(); !ok || !dec.ExpectSP() {
			return dec.Err()
		}
		if res.Limit, ok = dec.ExpectNumber64(); !ok {
			return dec.Err()
		}
		data.Resources[imap.QuotaResourceType(strings.ToUpper(name))] = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("in quota-resource: %v", err)
	}
	return data, nil
}

func readQuotaRoot(dec *imapwire.Decoder) (*imap.QuotaRootData, error) {
	var data imap.QuotaRootData
	if !dec.ExpectMailbox(&data.Mailbox) {
		return nil, dec.Err()
	}
	for dec.SP() {
		var root string
		if !dec.ExpectAString(&root) {
			return nil, dec.Err()
		}
		data.Roots = append(data.Roots, root)
	}
	return &data, nil
}
