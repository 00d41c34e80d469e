package imapwire

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersion/go-imapengine"
)

func TestEncoder_Command(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(bufio.NewWriter(&buf))

	enc.Atom("A0001").SP().Atom("STORE").SP().SeqSet(imap.SeqSetRange(1, 0)).SP().Atom("+FLAGS.SILENT").SP()
	enc.List(2, func(i int) {
		enc.Flag([]imap.Flag{imap.FlagSeen, "$Forwarded"}[i])
	})
	require.NoError(t, enc.CRLF())
	assert.Equal(t, "A0001 STORE 1:* +FLAGS.SILENT (\\Seen $Forwarded)\r\n", buf.String())
}

func TestEncoder_Mailbox(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(bufio.NewWriter(&buf))

	enc.Mailbox("inbox").SP().Mailbox("Entwürfe").SP().Mailbox(`a "b"`)
	require.NoError(t, enc.CRLF())
	assert.Equal(t, "INBOX \"Entw&APw-rfe\" \"a \\\"b\\\"\"\r\n", buf.String())
}

func TestEncoder_SyncLiteral(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(bufio.NewWriter(&buf))

	var flushed string
	enc.Continue = func() error {
		flushed = buf.String()
		return nil
	}
	enc.Atom("A0001").SP().Atom("LOGIN").SP().String("user").SP().String("pa\r\nss")
	require.NoError(t, enc.CRLF())
	assert.Equal(t, "A0001 LOGIN \"user\" {6}\r\n", flushed)
	assert.Equal(t, "A0001 LOGIN \"user\" {6}\r\npa\r\nss\r\n", buf.String())
}

func TestEncoder_LiteralPlus(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(bufio.NewWriter(&buf))
	enc.LiteralPlus = true

	enc.String("a\nb")
	require.NoError(t, enc.CRLF())
	assert.Equal(t, "{3+}\r\na\nb\r\n", buf.String())
}

func TestEncoder_NoContinue(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(bufio.NewWriter(&buf))

	enc.String("a\nb")
	assert.Error(t, enc.CRLF())
}

func TestEncoder_EmptySeqSet(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(bufio.NewWriter(&buf))

	enc.SeqSet(nil)
	assert.Error(t, enc.CRLF())
}
