package imap

import (
	"sort"
	"strings"
)

// Cap represents an IMAP capability.
type Cap string

// Registered capabilities.
//
// See: https://www.iana.org/assignments/imap-capabilities/
const (
	CapIMAP4     Cap = "IMAP4"     // RFC 1730
	CapIMAP4rev1 Cap = "IMAP4rev1" // RFC 3501

	CapAuthPlain Cap = "AUTH=PLAIN"

	CapStartTLS      Cap = "STARTTLS"
	CapLoginDisabled Cap = "LOGINDISABLED"

	CapNamespace   Cap = "NAMESPACE"     // RFC 2342
	CapUIDPlus     Cap = "UIDPLUS"       // RFC 4315
	CapIdle        Cap = "IDLE"          // RFC 2177
	CapSASLIR      Cap = "SASL-IR"       // RFC 4959
	CapLiteralPlus Cap = "LITERAL+"      // RFC 7888
	CapChildren    Cap = "CHILDREN"      // RFC 3348
	CapACL         Cap = "ACL"           // RFC 4314
	CapQuota       Cap = "QUOTA"         // RFC 9208
	CapAnnotate    Cap = "ANNOTATEMORE"  // draft-daboo-imap-annotatemore
	CapMetadata    Cap = "METADATA"      // RFC 5464
	CapUnselect    Cap = "UNSELECT"      // RFC 3691
	CapID          Cap = "ID"            // RFC 2971
	CapMultiAppend Cap = "MULTIAPPEND"   // RFC 3502
	CapSpecialUse  Cap = "SPECIAL-USE"   // RFC 6154
	CapUTF8Accept  Cap = "UTF8=ACCEPT"   // RFC 6855
	CapCondStore   Cap = "CONDSTORE"     // RFC 7162
	CapListExt     Cap = "LIST-EXTENDED" // RFC 5258

	// CapSharedSeen is not advertised by servers. It is added by the client
	// for servers known to keep per-user seen state on shared folders.
	CapSharedSeen Cap = "X-SHARED-SEEN"
)

// AuthCap returns the capability name for an SASL authentication mechanism.
func AuthCap(mechanism string) Cap {
	return Cap("AUTH=" + strings.ToUpper(mechanism))
}

// CapSet is a set of capabilities.
//
// Names are stored as announced by the server, lookups are case-insensitive.
type CapSet map[Cap]struct{}

func (set CapSet) lookup(c Cap) (Cap, bool) {
	if _, ok := set[c]; ok {
		return c, true
	}
	for name := range set {
		if strings.EqualFold(string(name), string(c)) {
			return name, true
		}
	}
	return "", false
}

// Add inserts capabilities into the set.
func (set CapSet) Add(caps ...Cap) {
	for _, c := range caps {
		if _, ok := set.lookup(c); !ok {
			set[c] = struct{}{}
		}
	}
}

// Remove deletes a capability from the set.
func (set CapSet) Remove(c Cap) {
	if name, ok := set.lookup(c); ok {
		delete(set, name)
	}
}

// Has checks whether a capability is supported.
func (set CapSet) Has(c Cap) bool {
	_, ok := set.lookup(c)
	return ok
}

// IsIMAP4 reports whether the server speaks IMAP4 or IMAP4rev1.
func (set CapSet) IsIMAP4() bool {
	return set.Has(CapIMAP4) || set.Has(CapIMAP4rev1)
}

// AuthMechanisms returns the list of supported SASL mechanisms for
// authentication.
func (set CapSet) AuthMechanisms() []string {
	var l []string
	for c := range set {
		if len(c) <= 5 || !strings.EqualFold(string(c[:5]), "AUTH=") {
			continue
		}
		l = append(l, strings.ToUpper(string(c[5:])))
	}
	sort.Strings(l)
	return l
}

// Copy returns a shallow copy of the set.
func (set CapSet) Copy() CapSet {
	out := make(CapSet, len(set))
	for c := range set {
		out[c] = struct{}{}
	}
	return out
}

// Names returns the sorted capability names.
func (set CapSet) Names() []string {
	l := make([]string, 0, len(set))
	for c := range set {
		l = append(l, string(c))
	}
	sort.Strings(l)
	return l
}
