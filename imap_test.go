package imap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalMailboxName(t *testing.T) {
	assert.Equal(t, InboxName, CanonicalMailboxName("inbox"))
	assert.Equal(t, InboxName, CanonicalMailboxName("InBoX"))
	assert.Equal(t, "Inbox/Sub", CanonicalMailboxName("Inbox/Sub"))
}

func TestConnState(t *testing.T) {
	assert.Equal(t, "selected", ConnStateSelected.String())
	assert.True(t, ConnStateSelected.Satisfies(ConnStateAuthenticated))
	assert.True(t, ConnStateConnected.Satisfies(ConnStateConnected))
	assert.False(t, ConnStateConnected.Satisfies(ConnStateAuthenticated))
	assert.Panics(t, func() { _ = ConnState(42).String() })
}

func TestError(t *testing.T) {
	resp := &StatusResponse{Type: StatusResponseTypeNo, Code: ResponseCodeTryCreate, Text: "No such mailbox"}
	err := resp.Err()
	require.Error(t, err)
	assert.Equal(t, "imap: NO [TRYCREATE] No such mailbox", err.Error())

	assert.EqualError(t, (&Error{Type: StatusResponseTypeBad}), "imap: BAD <unknown>")
	assert.NoError(t, (&StatusResponse{Type: StatusResponseTypeOK}).Err())
}

func TestMailboxInfo_Copy(t *testing.T) {
	n := uint32(3)
	info := &MailboxInfo{
		Name:           "INBOX",
		PermanentFlags: []Flag{FlagSeen, FlagWildcard},
		NumMessages:    &n,
	}
	out := info.Copy()
	*out.NumMessages = 4
	out.PermanentFlags[0] = FlagDeleted

	assert.Equal(t, uint32(3), *info.NumMessages)
	assert.Equal(t, FlagSeen, info.PermanentFlags[0])
	assert.True(t, out.AcceptsKeywords())
	assert.Nil(t, out.UIDNext)

	var nilInfo *MailboxInfo
	assert.Nil(t, nilInfo.Copy())
	assert.False(t, nilInfo.AcceptsKeywords())
}

func TestNamespaceMap(t *testing.T) {
	m := NamespaceMap{}
	m.Add(&NamespaceData{
		Personal: []NamespaceDescriptor{{Prefix: "", Delim: '/'}},
		Shared:   []NamespaceDescriptor{{Prefix: "#shared.", Delim: '.'}, {Prefix: "#flat"}},
	})

	delim, ok := m.Delimiter("#shared.team")
	assert.True(t, ok)
	assert.Equal(t, ".", delim)

	delim, ok = m.Delimiter("INBOX")
	assert.True(t, ok)
	assert.Equal(t, "/", delim)

	delim, ok = m.Delimiter("#flat")
	assert.True(t, ok)
	assert.Equal(t, "", delim)

	_, ok = NamespaceMap{"#news.": "."}.Delimiter("INBOX")
	assert.False(t, ok)
}

func TestNewRights(t *testing.T) {
	mod, rights, err := NewRights("+lr", false)
	require.NoError(t, err)
	assert.Equal(t, RightModificationAdd, mod)
	assert.Equal(t, RightSet("lr"), rights)
	assert.True(t, rights.Has(RightRead))
	assert.False(t, rights.Has(RightAdminister))

	_, _, err = NewRights("lrx", false)
	assert.Error(t, err)
	_, rights, err = NewRights("lrx1", true)
	require.NoError(t, err)
	assert.Equal(t, RightSet("lrx1"), rights)

	assert.Equal(t, RightSet("lrs"), RightSet("lr").Add("rs"))
	assert.Equal(t, RightSet("ls"), RightSet("lrs").Remove("r"))
}

func TestStoreFlags_Item(t *testing.T) {
	assert.Equal(t, "FLAGS", (&StoreFlags{Op: StoreFlagsSet}).Item())
	assert.Equal(t, "+FLAGS.SILENT", (&StoreFlags{Op: StoreFlagsAdd, Silent: true}).Item())
	assert.Equal(t, "-FLAGS", (&StoreFlags{Op: StoreFlagsDel}).Item())
}

func TestFetchData(t *testing.T) {
	assert.Equal(t, FetchItem("BODY.PEEK[HEADER.FIELDS (FROM SUBJECT)]"), FetchItemHeaderFields("From", "subject"))
	assert.Equal(t, FetchItem("BODY[1.MIME]"), FetchItemBodySection("1.MIME", false))

	data := &FetchData{
		Flags:    []Flag{"\\SEEN"},
		Sections: map[string][]byte{"RFC822": []byte("hello")},
	}
	assert.Equal(t, []byte("hello"), data.Body())
	assert.True(t, data.HasFlag(FlagSeen))
	assert.False(t, data.HasFlag(FlagDeleted))
	assert.Nil(t, (&FetchData{}).Body())
}
