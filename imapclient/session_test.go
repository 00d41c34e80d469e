package imapclient

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersion/go-imapengine"
)

func TestClient_Select(t *testing.T) {
	c, st := newAuthClient(t, nil,
		"* FLAGS (\\Answered \\Flagged \\Deleted \\Seen \\Draft)\r\n"+
			"* OK [PERMANENTFLAGS (\\Deleted \\Seen \\*)] Limited\r\n"+
			"* 172 EXISTS\r\n"+
			"* 1 RECENT\r\n"+
			"* OK [UNSEEN 12] Message 12 is first unseen\r\n"+
			"* OK [UIDVALIDITY 3857529045] UIDs valid\r\n"+
			"* OK [UIDNEXT 4392] Predicted next UID\r\n"+
			"A0001 OK [READ-WRITE] SELECT completed\r\n",
	)

	mbox, err := c.Select("inbox", false)
	require.NoError(t, err)
	assert.Equal(t, imap.ConnStateSelected, c.State())
	assert.Equal(t, "INBOX", mbox.Name)
	assert.Len(t, mbox.Flags, 5)
	assert.True(t, mbox.AcceptsKeywords())
	assert.Equal(t, uint32(172), *mbox.NumMessages)
	assert.Equal(t, uint32(1), *mbox.NumRecent)
	assert.Equal(t, uint32(12), *mbox.FirstUnseen)
	assert.Equal(t, uint32(3857529045), *mbox.UIDValidity)
	assert.Equal(t, uint32(4392), *mbox.UIDNext)
	assert.True(t, mbox.ReadWrite)
	assert.Equal(t, []string{"A0001 SELECT INBOX"}, st.lines())
}

func TestClient_Select_examine(t *testing.T) {
	c, st := newAuthClient(t, nil, "* 2 EXISTS\r\nA0001 OK [READ-ONLY] EXAMINE completed\r\n")

	mbox, err := c.Select("Archive", true)
	require.NoError(t, err)
	assert.False(t, mbox.ReadWrite)
	assert.Equal(t, "Archive", mbox.Name)
	assert.Equal(t, []string{`A0001 EXAMINE "Archive"`}, st.lines())
}

func TestClient_Select_failure(t *testing.T) {
	c, _ := newSelectedClient(t, nil, "* 5 EXISTS\r\nA0002 NO Mailbox does not exist\r\n")

	_, err := c.Select("Foo", false)
	var imapErr *imap.Error
	require.True(t, errors.As(err, &imapErr))
	assert.Equal(t, imap.ConnStateAuthenticated, c.State())
	assert.Nil(t, c.Mailbox())
}

func TestClient_Select_snapshot(t *testing.T) {
	c, _ := newSelectedClient(t, nil, "* 1 EXPUNGE\r\nA0002 OK\r\n")

	before := c.Mailbox()
	require.NoError(t, c.Noop())
	assert.Equal(t, uint32(3), *before.NumMessages)
	assert.Equal(t, uint32(2), *c.Mailbox().NumMessages)
}

func TestClient_Close(t *testing.T) {
	c, st := newSelectedClient(t, nil, "A0002 OK CLOSE completed\r\n")

	require.NoError(t, c.UnselectAndExpunge())
	assert.Equal(t, imap.ConnStateAuthenticated, c.State())
	assert.Nil(t, c.Mailbox())
	assert.Equal(t, "A0002 CLOSE", st.lines()[1])
}

func TestClient_Logout(t *testing.T) {
	c, st := newAuthClient(t, nil, "* BYE logging out\r\nA0001 OK LOGOUT completed\r\n")

	require.NoError(t, c.Logout())
	assert.Equal(t, imap.ConnStateDisconnected, c.State())
	assert.True(t, st.closed)
	assert.Equal(t, []string{"A0001 LOGOUT"}, st.lines())
	assert.NoError(t, c.Logout())
}

func TestClient_Logout_eof(t *testing.T) {
	c, st := newAuthClient(t, nil, "* BYE logging out\r\n")

	require.NoError(t, c.Logout())
	assert.Equal(t, imap.ConnStateDisconnected, c.State())
	assert.True(t, st.closed)
}

type fakeClock struct {
	now time.Time
}

func (clock *fakeClock) Now() time.Time {
	return clock.now
}

func TestClient_AssureMailboxSelected_reuse(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c, st := newSelectedClient(t, &Options{Clock: clock.Now},
		"* 4 EXISTS\r\nA0002 OK NOOP completed\r\n",
	)

	require.NoError(t, c.AssureMailboxSelected("inbox", false))
	require.NoError(t, c.AssureMailboxSelected("INBOX", true))
	assert.Len(t, st.writes, 1)

	clock.now = clock.now.Add(DefaultNoopInterval + time.Second)
	require.NoError(t, c.AssureMailboxSelected("INBOX", false))
	assert.Equal(t, []string{"A0001 SELECT INBOX", "A0002 NOOP"}, st.lines())
	assert.Equal(t, uint32(4), *c.Mailbox().NumMessages)

	clock.now = clock.now.Add(time.Second)
	require.NoError(t, c.AssureMailboxSelected("INBOX", false))
	assert.Len(t, st.writes, 2)
}

func TestClient_AssureMailboxSelected_upgrade(t *testing.T) {
	c, st := newAuthClient(t, nil,
		"A0001 OK [READ-ONLY] EXAMINE completed\r\n",
		"A0002 OK [READ-WRITE] SELECT completed\r\n",
	)

	require.NoError(t, c.AssureMailboxSelected("Archive", true))
	assert.False(t, c.Mailbox().ReadWrite)
	require.NoError(t, c.AssureMailboxSelected("Archive", false))
	assert.True(t, c.Mailbox().ReadWrite)
	assert.Equal(t, []string{`A0001 EXAMINE "Archive"`, `A0002 SELECT "Archive"`}, st.lines())
}

func TestClient_AssureMailboxSelected_readOnly(t *testing.T) {
	c, _ := newAuthClient(t, nil, "A0001 OK [READ-ONLY] SELECT completed\r\n")

	err := c.AssureMailboxSelected("Shared", false)
	assert.True(t, errors.Is(err, ErrReadOnly), "got %v", err)
	assert.Equal(t, imap.ConnStateSelected, c.State())
}

func TestClient_AssureMailboxSelected_notFound(t *testing.T) {
	c, st := newAuthClient(t, nil,
		"A0001 NO Mailbox doesn't exist\r\n",
		"A0002 OK LIST completed\r\n",
	)

	err := c.AssureMailboxSelected("Foo", false)
	assert.True(t, errors.Is(err, ErrMailboxNotFound), "got %v", err)
	assert.Equal(t, []string{`A0001 SELECT "Foo"`, `A0002 LIST "" "Foo"`}, st.lines())
}

func TestClient_AssureMailboxSelected_denied(t *testing.T) {
	c, _ := newAuthClient(t, nil,
		"A0001 NO Permission denied\r\n",
		"* LIST () \"/\" Foo\r\nA0002 OK LIST completed\r\n",
	)

	err := c.AssureMailboxSelected("Foo", false)
	assert.True(t, errors.Is(err, ErrAccessDenied), "got %v", err)
}

func TestClient_AssureMailboxSelected_otherFailure(t *testing.T) {
	c, _ := newAuthClient(t, nil,
		"A0001 NO [INUSE] Mailbox locked\r\n",
		"* LIST () \"/\" Foo\r\nA0002 OK LIST completed\r\n",
	)

	err := c.AssureMailboxSelected("Foo", false)
	var imapErr *imap.Error
	require.True(t, errors.As(err, &imapErr), "got %v", err)
	assert.Equal(t, imap.ResponseCodeInUse, imapErr.Code)
	assert.False(t, errors.Is(err, ErrMailboxNotFound))
	assert.False(t, errors.Is(err, ErrAccessDenied))
}

func TestClient_AssureMailboxSelected_notAuthenticated(t *testing.T) {
	c, st := newTestClient(t, nil, testGreeting)

	assert.Equal(t, ErrNotAuthenticated, c.AssureMailboxSelected("INBOX", true))
	assert.Error(t, c.AssureMailboxSelected("", true))
	assert.Empty(t, st.writes)
}
