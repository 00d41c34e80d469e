package imap

import (
	"strings"
)

// ListData is the mailbox data returned by a LIST or LSUB command.
type ListData struct {
	Attrs   []MailboxAttr
	Delim   rune // zero if the server has no hierarchy
	Mailbox string
}

// HasAttr reports whether the mailbox carries the attribute, ignoring case.
func (data *ListData) HasAttr(attr MailboxAttr) bool {
	for _, a := range data.Attrs {
		if strings.EqualFold(string(a), string(attr)) {
			return true
		}
	}
	return false
}
