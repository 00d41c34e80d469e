package imapclient

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// Namespace sends a NAMESPACE command.
//
// This command requires support for the NAMESPACE extension.
func (c *Client) Namespace() (*imap.NamespaceData, error) {
	if !c.caps.Has(imap.CapNamespace) {
		return nil, errors.Wrapf(ErrUnsupported, "missing %v", imap.CapNamespace)
	}
	var data *imap.NamespaceData
	err := c.do(noArgs(KindNamespace), func(cmd *Command) {
		data = cmd.namespace
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = &imap.NamespaceData{}
	}
	return data, nil
}

func (c *Client) handleNamespace(dec *imapwire.Decoder, cmd *Command) error {
	if !dec.ExpectSP() {
		return dec.Err()
	}
	data, err := readNamespaceResponse(dec)
	if err != nil {
		return fmt.Errorf("in namespace-response: %v", err)
	}
	if cmd != nil {
		cmd.namespace = data
	}
	return nil
}

func readNamespaceResponse(dec *imapwire.Decoder) (*imap.NamespaceData, error) {
	var (
		data imap.NamespaceData
		err  error
	)

	data.Personal, err = readNamespace(dec)
	if err != nil {
		return nil, err
	}

	if !dec.ExpectSP() {
		return nil, dec.Err()
	}

	data.Other, err = readNamespace(dec)
	if err != nil {
		return nil, err
	}

	if !dec.ExpectSP() {
		return nil, dec.Err()
	}

	data.Shared, err = readNamespace(dec)
	if err != nil {
		return nil, err
	}

	return &data, nil
}

// readNamespace reads NIL or a list of descriptors. Descriptors are not
// separated by spaces.
func readNamespace(dec *imapwire.Decoder) ([]imap.NamespaceDescriptor, error) {
	if dec.Func("NIL") {
		return nil, nil
	}
	if !dec.ExpectSpecial('(') {
		return nil, dec.Err()
	}
	var l []imap.NamespaceDescriptor
	for !dec.Special(')') {
		if len(l) > 0 {
			dec.SP()
		}
		descr, err := readNamespaceDescr(dec)
		if err != nil {
			return nil, fmt.Errorf("in namespace-descr: %v", err)
		}
		l = append(l, *descr)
	}
	return l, nil
}

func readNamespaceDescr(dec *imapwire.Decoder) (*imap.NamespaceDescriptor, error) {
	var descr imap.NamespaceDescriptor

	if !dec.ExpectSpecial('(') || !dec.ExpectString(&descr.Prefix) || !dec.ExpectSP() {
		return nil, dec.Err()
	}

	var err error
	descr.Delim, err = readDelim(dec)
	if err != nil {
		return nil, err
	}

	// Skip namespace-response-extensions
	for dec.SP() {
		if !dec.ExpectValue(new(string)) {
			return nil, dec.Err()
		}
	}

	if !dec.ExpectSpecial(')') {
		return nil, dec.Err()
	}

	return &descr, nil
}
