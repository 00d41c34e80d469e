package imapclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersion/go-imapengine"
)

func TestClient_List(t *testing.T) {
	c, st := newAuthClient(t, nil,
		"* LIST (\\HasNoChildren) \"/\" INBOX\r\n"+
			"* LIST (\\Noselect \\HasChildren) \"/\" \"Entw&APw-rfe\"\r\n"+
			"* LIST () NIL Flat\r\n"+
			"A0001 OK LIST completed\r\n",
		"* LSUB () \"/\" INBOX\r\nA0002 OK\r\n",
	)

	l, err := c.List("", "*")
	require.NoError(t, err)
	require.Len(t, l, 3)
	assert.Equal(t, "INBOX", l[0].Mailbox)
	assert.Equal(t, "Entwürfe", l[1].Mailbox)
	assert.True(t, l[1].HasAttr(imap.MailboxAttrNoSelect))
	assert.Equal(t, '/', l[1].Delim)
	assert.Equal(t, rune(0), l[2].Delim)

	l, err = c.Lsub("", "*")
	require.NoError(t, err)
	assert.Len(t, l, 1)
	assert.Equal(t, []string{`A0001 LIST "" "*"`, `A0002 LSUB "" "*"`}, st.lines())
}

func TestClient_Search(t *testing.T) {
	c, st := newSelectedClient(t, nil,
		"* SEARCH 2 3 6 \r\nA0002 OK SEARCH completed\r\n",
		"* SEARCH\r\nA0003 OK\r\n",
	)

	nums, err := c.Search(`FLAGGED SINCE 1-Feb-1994 NOT FROM "Smith"`)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3, 6}, nums)

	nums, err = c.UIDSearch("")
	require.NoError(t, err)
	assert.Empty(t, nums)
	assert.Equal(t, []string{
		"A0001 SELECT INBOX",
		`A0002 SEARCH FLAGGED SINCE 1-Feb-1994 NOT FROM "Smith"`,
		"A0003 UID SEARCH ALL",
	}, st.lines())
}

func TestClient_Status(t *testing.T) {
	c, st := newAuthClient(t, nil, "* STATUS blurdybloop (MESSAGES 231 UIDNEXT 44292)\r\nA0001 OK STATUS completed\r\n")

	data, err := c.Status("blurdybloop")
	require.NoError(t, err)
	assert.Equal(t, "blurdybloop", data.Mailbox)
	require.NotNil(t, data.NumMessages)
	assert.Equal(t, uint32(231), *data.NumMessages)
	assert.Equal(t, uint32(44292), data.UIDNext)
	assert.Nil(t, data.NumUnseen)
	assert.Equal(t, []string{`A0001 STATUS "blurdybloop" (MESSAGES RECENT UIDNEXT UIDVALIDITY UNSEEN)`}, st.lines())
}

func TestClient_Store(t *testing.T) {
	c, st := newSelectedClient(t, nil, "* 2 FETCH (FLAGS (\\Deleted \\Seen))\r\nA0002 OK STORE completed\r\n")

	msgs, err := c.Store(imap.SeqSetRange(2, 4), &imap.StoreFlags{
		Op:    imap.StoreFlagsAdd,
		Flags: []imap.Flag{imap.FlagDeleted},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].HasFlag(imap.FlagDeleted))
	assert.Equal(t, `A0002 STORE 2:4 +FLAGS (\Deleted)`, st.lines()[1])
}

func TestClient_SetSeen(t *testing.T) {
	c, st := newSelectedClient(t, nil, "A0002 OK\r\n", "A0003 OK\r\n")

	require.NoError(t, c.SetSeen(imap.SeqSetNum(7, 9), true))
	require.NoError(t, c.SetSeen(imap.SeqSetNum(7), false))
	assert.Equal(t, []string{
		"A0001 SELECT INBOX",
		`A0002 UID STORE 7,9 +FLAGS.SILENT (\Seen)`,
		`A0003 UID STORE 7 -FLAGS.SILENT (\Seen)`,
	}, st.lines())
}

func TestClient_ReplaceFlags(t *testing.T) {
	c, st := newSelectedClient(t, nil, "A0002 OK\r\n", "A0003 OK\r\n")

	require.NoError(t, c.ReplaceFlags(imap.SeqSetNum(5), []imap.Flag{imap.FlagForwarded, imap.FlagSeen}))
	assert.Equal(t, []string{
		"A0001 SELECT INBOX",
		`A0002 UID STORE 5 -FLAGS.SILENT (\Seen \Answered \Flagged \Draft)`,
		`A0003 UID STORE 5 +FLAGS.SILENT ($Forwarded \Seen)`,
	}, st.lines())
}

func TestClient_ReplaceFlags_keywords(t *testing.T) {
	c, st := newAuthClient(t, nil,
		"* OK [PERMANENTFLAGS (\\Seen \\*)] Limited\r\nA0001 OK [READ-WRITE] SELECT completed\r\n",
		"A0002 OK\r\n",
	)
	_, err := c.Select("INBOX", false)
	require.NoError(t, err)

	require.NoError(t, c.ReplaceFlags(imap.SeqSetNum(5), nil))
	require.Len(t, st.lines(), 2)
	assert.Contains(t, st.lines()[1], "$Forwarded $Todo $Watched $Ignored)")
}

func TestClient_UIDCopy(t *testing.T) {
	c, st := newSelectedClient(t, nil, "A0002 OK [COPYUID 38505 304,319:320 3956:3958] Done\r\n")

	data, err := c.UIDCopy(imap.SeqSetNum(304, 319, 320), "Archive")
	require.NoError(t, err)
	assert.Equal(t, uint32(38505), data.UIDValidity)
	assert.Equal(t, "304,319:320", data.SourceUIDs.String())
	assert.Equal(t, "3956:3958", data.DestUIDs.String())
	assert.Equal(t, `A0002 UID COPY 304,319,320 "Archive"`, st.lines()[1])
}

func TestClient_Copy_noUIDPlus(t *testing.T) {
	c, _ := newSelectedClient(t, nil, "A0002 OK COPY completed\r\n")

	data, err := c.Copy(imap.SeqSetNum(1), "Archive")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestClient_mailboxCommands(t *testing.T) {
	c, st := newAuthClient(t, nil,
		"A0001 OK\r\n", "A0002 OK\r\n", "A0003 OK\r\n", "A0004 OK\r\n", "A0005 OK\r\n",
		"A0006 NO [ALREADYEXISTS] Mailbox exists\r\n",
	)

	require.NoError(t, c.Create("Entwürfe"))
	require.NoError(t, c.Rename("Foo", "Bar"))
	require.NoError(t, c.Subscribe("Bar"))
	require.NoError(t, c.Unsubscribe("Bar"))
	require.NoError(t, c.Delete("Bar"))

	err := c.Create("INBOX")
	var imapErr *imap.Error
	require.True(t, errors.As(err, &imapErr))
	assert.Equal(t, imap.ResponseCodeAlreadyExists, imapErr.Code)

	assert.Equal(t, []string{
		`A0001 CREATE "Entw&APw-rfe"`,
		`A0002 RENAME "Foo" "Bar"`,
		`A0003 SUBSCRIBE "Bar"`,
		`A0004 UNSUBSCRIBE "Bar"`,
		`A0005 DELETE "Bar"`,
		`A0006 CREATE INBOX`,
	}, st.lines())
}

func TestClient_DeleteMessages(t *testing.T) {
	c, st := newSelectedClient(t, nil,
		"A0002 OK\r\n",
		"* 2 EXPUNGE\r\n* 2 EXPUNGE\r\nA0003 OK EXPUNGE completed\r\n",
	)

	require.NoError(t, c.DeleteMessages(imap.SeqSetRange(4, 5)))
	assert.Equal(t, uint32(1), *c.Mailbox().NumMessages)
	assert.Equal(t, []string{
		"A0001 SELECT INBOX",
		`A0002 UID STORE 4:5 +FLAGS.SILENT (\Deleted)`,
		"A0003 EXPUNGE",
	}, st.lines())
}

func TestClient_Check(t *testing.T) {
	c, st := newSelectedClient(t, nil, "A0002 OK CHECK completed\r\n")
	require.NoError(t, c.Check())
	assert.Equal(t, "A0002 CHECK", st.lines()[1])
}

func TestClient_ACL(t *testing.T) {
	c, st := newAuthClient(t, nil,
		"A0001 OK SETACL completed\r\n",
		"* ACL INBOX Fred lrswipcda anyone lr\r\nA0002 OK\r\n",
		"* MYRIGHTS INBOX lrswite\r\nA0003 OK\r\n",
		"* LISTRIGHTS INBOX smith la r swicd\r\nA0004 OK\r\n",
		"A0005 OK\r\n",
	)

	require.NoError(t, c.SetACL("INBOX", "fred", imap.RightModificationAdd, "rwi"))

	acl, err := c.GetACL("INBOX")
	require.NoError(t, err)
	assert.Equal(t, map[imap.RightsIdentifier]imap.RightSet{
		"Fred":                      imap.AllRights,
		imap.RightsIdentifierAnyone: "lr",
	}, acl.Rights)

	my, err := c.MyRights("INBOX")
	require.NoError(t, err)
	assert.True(t, my.Rights.Has(imap.RightWrite))

	lr, err := c.ListRights("INBOX", "smith")
	require.NoError(t, err)
	assert.Equal(t, imap.RightSet("la"), lr.Required)
	assert.Equal(t, []imap.RightSet{"r", "swicd"}, lr.Optional)

	require.NoError(t, c.DeleteACL("INBOX", "fred"))

	assert.Equal(t, []string{
		`A0001 SETACL INBOX "fred" "+rwi"`,
		"A0002 GETACL INBOX",
		"A0003 MYRIGHTS INBOX",
		`A0004 LISTRIGHTS INBOX "smith"`,
		`A0005 DELETEACL INBOX "fred"`,
	}, st.lines())
}

func TestClient_unsupported(t *testing.T) {
	c, st := newTestClient(t, nil, "* PREAUTH [CAPABILITY IMAP4rev1] Logged in\r\n")

	_, err := c.GetACL("INBOX")
	assert.True(t, errors.Is(err, ErrUnsupported), "got %v", err)
	_, err = c.GetQuotaRoot("INBOX")
	assert.True(t, errors.Is(err, ErrUnsupported), "got %v", err)
	err = c.SetAnnotation("INBOX", "/comment", map[string]string{imap.AnnotationValueShared: "x"})
	assert.True(t, errors.Is(err, ErrUnsupported), "got %v", err)
	_, err = c.Namespace()
	assert.True(t, errors.Is(err, ErrUnsupported), "got %v", err)
	assert.Empty(t, st.writes)
}

func TestClient_Quota(t *testing.T) {
	c, st := newAuthClient(t, nil,
		"* QUOTAROOT INBOX \"\"\r\n* QUOTA \"\" (STORAGE 10 512)\r\nA0001 OK Getquotaroot completed\r\n",
		"* QUOTA \"\" (STORAGE 10 512 MESSAGE 2 100)\r\nA0002 OK\r\n",
		"A0003 OK\r\n",
	)

	root, err := c.GetQuotaRoot("INBOX")
	require.NoError(t, err)
	assert.Equal(t, "INBOX", root.Mailbox)
	assert.Equal(t, []string{""}, root.Roots)
	require.Len(t, root.Quotas, 1)
	assert.Equal(t, imap.QuotaResourceData{Usage: 10, Limit: 512}, root.Quotas[0].Resources[imap.QuotaResourceStorage])

	quota, err := c.GetQuota("")
	require.NoError(t, err)
	assert.Equal(t, imap.QuotaResourceData{Usage: 2, Limit: 100}, quota.Resources[imap.QuotaResourceMessage])

	err = c.SetQuota("", map[imap.QuotaResourceType]int64{
		imap.QuotaResourceStorage: 512,
		imap.QuotaResourceMessage: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"A0001 GETQUOTAROOT INBOX",
		`A0002 GETQUOTA ""`,
		`A0003 SETQUOTA "" (MESSAGE 100 STORAGE 512)`,
	}, st.lines())
}

func TestClient_Annotation(t *testing.T) {
	c, st := newTestClient(t, nil,
		"* PREAUTH [CAPABILITY IMAP4rev1 ANNOTATEMORE] Dovecot ready\r\n",
		"A0001 OK\r\n",
		"* ANNOTATION INBOX \"/comment\" (\"value.shared\" \"My comment\" \"value.priv\" NIL)\r\nA0002 OK\r\n",
	)

	err := c.SetAnnotation("INBOX", "/comment", map[string]string{
		imap.AnnotationValueShared:  "My comment",
		imap.AnnotationValuePrivate: "",
	})
	require.NoError(t, err)

	l, err := c.GetAnnotation("INBOX", []string{"/comment"}, []string{imap.AnnotationValueShared, imap.AnnotationValuePrivate})
	require.NoError(t, err)
	require.Len(t, l, 1)
	assert.Equal(t, "/comment", l[0].Entry)
	assert.Equal(t, map[string]string{imap.AnnotationValueShared: "My comment"}, l[0].Attributes)

	assert.Equal(t, []string{
		`A0001 SETANNOTATION INBOX "/comment" ("value.priv" NIL "value.shared" "My comment")`,
		`A0002 GETANNOTATION INBOX "/comment" ("value.shared" "value.priv")`,
	}, st.lines())
}

func TestClient_Namespace(t *testing.T) {
	c, _ := newAuthClient(t, nil,
		"* NAMESPACE ((\"\" \"/\")(\"#mh/\" \"/\" \"X-PARAM\" (\"FLAG1\" \"FLAG2\"))) NIL ((\"#shared/\" \"/\"))\r\nA0001 OK\r\n",
	)

	data, err := c.Namespace()
	require.NoError(t, err)
	require.Len(t, data.Personal, 2)
	assert.Equal(t, imap.NamespaceDescriptor{Prefix: "#mh/", Delim: '/'}, data.Personal[1])
	assert.Empty(t, data.Other)
	require.Len(t, data.Shared, 1)
	assert.Equal(t, "#shared/", data.Shared[0].Prefix)
}
