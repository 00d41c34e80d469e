package imap

import (
	"strings"
	"time"

	"github.com/emersion/go-message/textproto"
)

// FetchItem is a message data item which can be requested by a FETCH
// command, in its wire form.
type FetchItem string

const (
	// Macros
	FetchItemAll  FetchItem = "ALL"
	FetchItemFast FetchItem = "FAST"
	FetchItemFull FetchItem = "FULL"

	FetchItemBodyStructure FetchItem = "BODYSTRUCTURE"
	FetchItemEnvelope      FetchItem = "ENVELOPE"
	FetchItemFlags         FetchItem = "FLAGS"
	FetchItemInternalDate  FetchItem = "INTERNALDATE"
	FetchItemRFC822Size    FetchItem = "RFC822.SIZE"
	FetchItemUID           FetchItem = "UID"
	FetchItemRFC822        FetchItem = "RFC822"
	FetchItemBody          FetchItem = "BODY[]"
	FetchItemBodyPeek      FetchItem = "BODY.PEEK[]"
	FetchItemHeader        FetchItem = "BODY.PEEK[HEADER]"
)

// FetchItemBodySection returns a BODY[section] item. With peek set, the
// server does not set the \Seen flag.
func FetchItemBodySection(section string, peek bool) FetchItem {
	name := "BODY"
	if peek {
		name = "BODY.PEEK"
	}
	return FetchItem(name + "[" + section + "]")
}

// FetchItemHeaderFields returns a BODY.PEEK[HEADER.FIELDS (...)] item
// restricted to the given header fields.
func FetchItemHeaderFields(fields ...string) FetchItem {
	return FetchItemBodySection("HEADER.FIELDS ("+strings.ToUpper(strings.Join(fields, " "))+")", true)
}

// FetchData is the data accumulated for one message during a FETCH
// command.
//
// Entries are keyed by message sequence number and only live as long as
// the command that produced them.
type FetchData struct {
	SeqNum uint32

	UID          uint32
	Size         *int64
	Flags        []Flag
	InternalDate time.Time

	// Header holds the parsed header fields of BODY[HEADER] or
	// BODY[HEADER.FIELDS (...)] sections.
	Header textproto.Header

	// Sections maps a body section name (e.g. "BODY[]", "BODY[1.MIME]")
	// to its raw literal contents.
	Sections map[string][]byte
	// Relayed maps a body section name to the number of bytes streamed to
	// the command relay instead of being kept in Sections.
	Relayed map[string]int64

	// Envelope and BodyStructure are kept verbatim.
	Envelope      string
	BodyStructure string
}

// Body returns the BODY[] or RFC822 section, if any.
func (data *FetchData) Body() []byte {
	for _, name := range []string{"BODY[]", "RFC822"} {
		if b, ok := data.Sections[name]; ok {
			return b
		}
	}
	return nil
}

// HasFlag reports whether the message carries the flag.
func (data *FetchData) HasFlag(f Flag) bool {
	return HasFlag(data.Flags, f)
}
