package imap

// MailboxInfo describes the currently selected mailbox.
//
// It is replaced wholesale on each SELECT or EXAMINE and partially updated by
// unilateral EXISTS, RECENT, EXPUNGE and FLAGS responses. Servers may omit
// most of the data, hence the optional fields.
type MailboxInfo struct {
	Name string

	// Flags defined for this mailbox
	Flags []Flag
	// Flags that the client can change permanently
	PermanentFlags []Flag

	// Number of messages in this mailbox (aka. "EXISTS")
	NumMessages *uint32
	NumRecent   *uint32
	// Sequence number of the first unseen message
	FirstUnseen *uint32
	UIDNext     *uint32
	UIDValidity *uint32

	ReadWrite bool
}

// Copy returns a deep copy of the mailbox info.
func (info *MailboxInfo) Copy() *MailboxInfo {
	if info == nil {
		return nil
	}
	out := *info
	out.Flags = append([]Flag(nil), info.Flags...)
	out.PermanentFlags = append([]Flag(nil), info.PermanentFlags...)
	out.NumMessages = copyUint32(info.NumMessages)
	out.NumRecent = copyUint32(info.NumRecent)
	out.FirstUnseen = copyUint32(info.FirstUnseen)
	out.UIDNext = copyUint32(info.UIDNext)
	out.UIDValidity = copyUint32(info.UIDValidity)
	return &out
}

// AcceptsKeywords reports whether the server lets the client create
// keywords permanently, i.e. PERMANENTFLAGS contains "\*".
func (info *MailboxInfo) AcceptsKeywords() bool {
	return info != nil && HasFlag(info.PermanentFlags, FlagWildcard)
}

func copyUint32(v *uint32) *uint32 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
