package imap

import (
	"fmt"
	"strings"
)

// RightSet is a set of access rights, in the RFC 4314 letter notation.
type RightSet string

type Right byte

const (
	RightLookup     = Right('l') // mailbox is visible to LIST/LSUB commands
	RightRead       = Right('r') // SELECT the mailbox, perform CHECK, FETCH, SEARCH, COPY from mailbox
	RightSeen       = Right('s') // keep seen/unseen information across sessions (STORE SEEN flag)
	RightWrite      = Right('w') // STORE flags other than SEEN and DELETED
	RightInsert     = Right('i') // perform APPEND, COPY into mailbox
	RightPost       = Right('p') // send mail to submission address for mailbox, not enforced by IMAP4 itself
	RightCreate     = Right('c') // CREATE new sub-mailboxes in any implementation-defined hierarchy
	RightDelete     = Right('d') // STORE DELETED flag, perform EXPUNGE
	RightAdminister = Right('a') // perform SETACL

	AllRights = RightSet("lrswipcda")
)

// obsoleteRights are RFC 2086 rights still sent by older servers.
const obsoleteRights = "xten"

type RightsIdentifier string

const RightsIdentifierAnyone = RightsIdentifier("anyone")

type RightModification byte

const (
	RightModificationReplace = RightModification(0)
	RightModificationAdd     = RightModification('+')
	RightModificationRemove  = RightModification('-')
)

// NewRights converts rights string into RightModification and RightSet with
// validation. With lenient set, the obsolete RFC 2086 rights are accepted,
// as sent by servers in ACL and MYRIGHTS responses.
func NewRights(rights string, lenient bool) (RightModification, RightSet, error) {
	rm := RightModificationReplace

	if len(rights) == 0 {
		return rm, RightSet(rights), nil
	}

	if rights[0] == byte(RightModificationAdd) || rights[0] == byte(RightModificationRemove) {
		rm = RightModification(rights[0])
		rights = rights[1:]
	}

	for _, r := range rights {
		if strings.ContainsRune(string(AllRights), r) {
			continue
		}
		if lenient && (strings.ContainsRune(obsoleteRights, r) || ('0' <= r && r <= '9')) {
			continue
		}
		return rm, "", fmt.Errorf("unsupported right: '%v'", string(r))
	}

	return rm, RightSet(rights), nil
}

func (r RightSet) Add(rights RightSet) RightSet {
	for _, right := range rights {
		if !strings.ContainsRune(string(r), right) {
			r += RightSet(right)
		}
	}

	return r
}

func (r RightSet) Remove(rights RightSet) RightSet {
	var newRights RightSet

	for _, right := range r {
		if !strings.ContainsRune(string(rights), right) {
			newRights += RightSet(right)
		}
	}

	return newRights
}

// Has reports whether the set contains the right.
func (r RightSet) Has(right Right) bool {
	return strings.IndexByte(string(r), byte(right)) >= 0
}

// MyRightsData is the data returned by the MYRIGHTS command.
type MyRightsData struct {
	Mailbox string
	Rights  RightSet
}

// GetACLData is the data returned by the GETACL command.
type GetACLData struct {
	Mailbox string
	Rights  map[RightsIdentifier]RightSet
}

// ListRightsData is the data returned by the LISTRIGHTS command.
type ListRightsData struct {
	Mailbox    string
	Identifier RightsIdentifier
	// Rights always granted to the identifier
	Required RightSet
	// Groups of rights that may be granted; rights within a group are
	// granted or revoked together
	Optional []RightSet
}
