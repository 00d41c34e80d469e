package imapclient

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// AnnotationArgs are the arguments of SETANNOTATION and GETANNOTATION.
//
// For SETANNOTATION, Entries holds a single entry and Values the attributes
// to set; an empty value is sent as NIL and removes the attribute. For
// GETANNOTATION, Attributes lists the requested attribute names.
type AnnotationArgs struct {
	Command    Kind
	Mailbox    string
	Entries    []string
	Attributes []string
	Values     map[string]string
}

func (args *AnnotationArgs) Kind() Kind {
	return args.Command
}

func (args *AnnotationArgs) encodeArgs(enc *imapwire.Encoder) {
	enc.SP().Mailbox(args.Mailbox).SP()
	if args.Command == KindSetAnnotation {
		entry := ""
		if len(args.Entries) > 0 {
			entry = args.Entries[0]
		}
		attrs := make([]string, 0, len(args.Values))
		for attr := range args.Values {
			attrs = append(attrs, attr)
		}
		sort.Strings(attrs)

		enc.String(entry).SP()
		enc.List(len(attrs), func(i int) {
			enc.String(attrs[i]).SP()
			if v := args.Values[attrs[i]]; v != "" {
				enc.String(v)
			} else {
				enc.NIL()
			}
		})
		return
	}

	stringOrList(enc, args.Entries)
	enc.SP()
	stringOrList(enc, args.Attributes)
}

func stringOrList(enc *imapwire.Encoder, l []string) {
	if len(l) == 1 {
		enc.String(l[0])
		return
	}
	enc.List(len(l), func(i int) {
		enc.String(l[i])
	})
}

func (c *Client) checkAnnotate() error {
	if !c.caps.Has(imap.CapAnnotate) {
		return errors.Wrapf(ErrUnsupported, "missing %v", imap.CapAnnotate)
	}
	return nil
}

// SetAnnotation sends a SETANNOTATION command.
//
// This command requires support for the ANNOTATEMORE extension.
func (c *Client) SetAnnotation(mailbox, entry string, values map[string]string) error {
	if err := c.checkAnnotate(); err != nil {
		return err
	}
	return c.do(&AnnotationArgs{
		Command: KindSetAnnotation,
		Mailbox: mailbox,
		Entries: []string{entry},
		Values:  values,
	}, nil)
}

// GetAnnotation sends a GETANNOTATION command.
//
// This command requires support for the ANNOTATEMORE extension.
func (c *Client) GetAnnotation(mailbox string, entries, attributes []string) ([]*imap.AnnotationData, error) {
	if err := c.checkAnnotate(); err != nil {
		return nil, err
	}
	if len(entries) == 0 || len(attributes) == 0 {
		return nil, fmt.Errorf("imapclient: GETANNOTATION needs at least one entry and attribute")
	}
	var l []*imap.AnnotationData
	err := c.do(&AnnotationArgs{
		Command:    KindGetAnnotation,
		Mailbox:    mailbox,
		Entries:    entries,
		Attributes: attributes,
	}, func(cmd *Command) {
		l = cmd.annotations
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (c *Client) handleAnnotation(dec *imapwire.Decoder, cmd *Command) error {
	if !dec.ExpectSP() {
		return dec.Err()
	}
	data, err := readAnnotation(dec)
	if err != nil {
		return fmt.Errorf("in annotation-data: %v", err)
	}
	if cmd != nil {
		cmd.annotations = append(cmd.annotations, data)
	}
	return nil
}

func readAnnotation(dec *imapwire.Decoder) (*imap.AnnotationData, error) {
	data := &imap.AnnotationData{Attributes: make(map[string]string)}
	if !dec.ExpectMailbox(&data.Mailbox) || !dec.ExpectSP() || !dec.ExpectString(&data.Entry) || !dec.ExpectSP() {
		return nil, dec.Err()
	}
	err := dec.ExpectList(func() error {
		var name, value string
		if !dec.ExpectString(&name) || !dec.ExpectSP() {
			return dec.Err()
		}
		isNil, ok := dec.NString(&value)
		if !dec.Expect(ok, "nstring") {
			return dec.Err()
		}
		if !isNil {
			data.Attributes[name] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
