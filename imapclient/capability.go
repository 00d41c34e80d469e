package imapclient

import (
	"fmt"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// Capability sends a CAPABILITY command and returns the announced
// capabilities. The session capabilities are replaced.
func (c *Client) Capability() (imap.CapSet, error) {
	var caps imap.CapSet
	err := c.do(noArgs(KindCapability), func(cmd *Command) {
		caps = cmd.caps
	})
	if err != nil {
		return nil, err
	}
	return caps.Copy(), nil
}

func (c *Client) handleCapability(dec *imapwire.Decoder, cmd *Command) error {
	caps, err := readCapabilities(dec)
	if err != nil {
		return err
	}
	c.setCaps(caps)
	if cmd != nil {
		cmd.caps = caps
	}
	return nil
}

func readCapabilities(dec *imapwire.Decoder) (imap.CapSet, error) {
	caps := make(imap.CapSet)
	for dec.SP() {
		var name string
		if !dec.ExpectAtom(&name) {
			return caps, fmt.Errorf("in capability-data: %v", dec.Err())
		}
		caps.Add(imap.Cap(name))
	}
	return caps, nil
}
