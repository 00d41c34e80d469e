package internal

import (
	"fmt"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// ReadFlagList reads a parenthesized list of flags.
func ReadFlagList(dec *imapwire.Decoder) ([]imap.Flag, error) {
	var flags []imap.Flag
	err := dec.ExpectList(func() error {
		var flag string
		if !dec.ExpectFlag(&flag) {
			return fmt.Errorf("in flag: %w", dec.Err())
		}
		flags = append(flags, imap.Flag(flag))
		return nil
	})
	return flags, err
}
