// Package imap defines the data model shared by the IMAP4rev1 session
// engine.
//
// IMAP4rev1 is defined in RFC 3501. The engine itself lives in the
// imapclient package; this package only contains wire-independent types.
package imap

import (
	"strings"
)

// InboxName is the name of the primary mailbox, as defined in RFC 3501
// section 5.1. It is case-insensitive.
const InboxName = "INBOX"

// CanonicalMailboxName returns the canonical form of a mailbox name: INBOX
// is upper-cased, every other name is returned as-is.
func CanonicalMailboxName(name string) string {
	if strings.EqualFold(name, InboxName) {
		return InboxName
	}
	return name
}

// MailboxAttr is a mailbox attribute.
//
// Mailbox attributes are defined in RFC 3501 section 7.2.2.
type MailboxAttr string

const (
	MailboxAttrNoInferiors   MailboxAttr = "\\Noinferiors"
	MailboxAttrNoSelect      MailboxAttr = "\\Noselect"
	MailboxAttrMarked        MailboxAttr = "\\Marked"
	MailboxAttrUnmarked      MailboxAttr = "\\Unmarked"
	MailboxAttrHasChildren   MailboxAttr = "\\HasChildren"   // RFC 3348
	MailboxAttrHasNoChildren MailboxAttr = "\\HasNoChildren" // RFC 3348
)

// Flag is a message flag.
//
// Message flags are defined in RFC 3501 section 2.3.2.
type Flag string

const (
	// System flags
	FlagSeen     Flag = "\\Seen"
	FlagAnswered Flag = "\\Answered"
	FlagFlagged  Flag = "\\Flagged"
	FlagDeleted  Flag = "\\Deleted"
	FlagDraft    Flag = "\\Draft"
	FlagRecent   Flag = "\\Recent"

	// Widely used flags
	FlagForwarded Flag = "$Forwarded"
	FlagMDNSent   Flag = "$MDNSent" // Message Disposition Notification sent
	FlagJunk      Flag = "$Junk"
	FlagNotJunk   Flag = "$NotJunk"
	FlagTodo      Flag = "$Todo"
	FlagWatched   Flag = "$Watched"
	FlagIgnored   Flag = "$Ignored"

	// Permanent flags
	FlagWildcard Flag = "\\*"
)

// SystemFlags lists the system flags a client may change on any server.
var SystemFlags = []Flag{FlagSeen, FlagAnswered, FlagFlagged, FlagDraft}

// KeywordFlags lists the keywords only changed when the mailbox accepts
// user-defined keywords (PERMANENTFLAGS contains "\*").
var KeywordFlags = []Flag{
	"KMAILFORWARDED", "KMAILTODO", "KMAILWATCHED", "KMAILIGNORED",
	FlagForwarded, FlagTodo, FlagWatched, FlagIgnored,
}

// HasFlag reports whether flags contains f, ignoring case.
func HasFlag(flags []Flag, f Flag) bool {
	for _, flag := range flags {
		if strings.EqualFold(string(flag), string(f)) {
			return true
		}
	}
	return false
}
