package imapclient

import (
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// SearchArgs are the arguments of SEARCH and UID SEARCH.
//
// Criteria is written verbatim, e.g. `UNSEEN SINCE 1-Feb-1994`. Strings it
// contains must already be quoted.
type SearchArgs struct {
	UID      bool
	Criteria string
}

func (args *SearchArgs) Kind() Kind {
	if args.UID {
		return KindUIDSearch
	}
	return KindSearch
}

func (args *SearchArgs) encodeArgs(enc *imapwire.Encoder) {
	criteria := args.Criteria
	if criteria == "" {
		criteria = "ALL"
	}
	enc.SP().Text(criteria)
}

// Search sends a SEARCH command and returns the matching message sequence
// numbers.
func (c *Client) Search(criteria string) ([]uint32, error) {
	return c.search(&SearchArgs{Criteria: criteria})
}

// UIDSearch sends a UID SEARCH command and returns the matching UIDs.
func (c *Client) UIDSearch(criteria string) ([]uint32, error) {
	return c.search(&SearchArgs{UID: true, Criteria: criteria})
}

func (c *Client) search(args *SearchArgs) ([]uint32, error) {
	var nums []uint32
	err := c.do(args, func(cmd *Command) {
		nums = cmd.search
	})
	if err != nil {
		return nil, err
	}
	return nums, nil
}

func (c *Client) handleSearch(dec *imapwire.Decoder, cmd *Command) error {
	var nums []uint32
	for dec.SP() {
		// some servers send a trailing space
		if dec.EOF() {
			break
		}
		num, ok := dec.ExpectNumber()
		if !ok {
			return dec.Err()
		}
		nums = append(nums, num)
	}
	if cmd != nil {
		cmd.search = append(cmd.search, nums...)
	}
	return nil
}
