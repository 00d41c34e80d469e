package imapwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_Tokens(t *testing.T) {
	dec := NewDecoder([]byte(`LIST (\HasNoChildren \Noselect) "/" "Tom \"Jr\"" 42`))

	var s string
	require.True(t, dec.ExpectAtom(&s))
	assert.Equal(t, "LIST", s)
	require.True(t, dec.ExpectSP())

	var flags []string
	err := dec.ExpectList(func() error {
		var flag string
		if !dec.ExpectFlag(&flag) {
			return dec.Err()
		}
		flags = append(flags, flag)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{`\HasNoChildren`, `\Noselect`}, flags)

	require.True(t, dec.ExpectSP())
	require.True(t, dec.ExpectQuoted(&s))
	assert.Equal(t, "/", s)
	require.True(t, dec.ExpectSP())
	require.True(t, dec.ExpectAString(&s))
	assert.Equal(t, `Tom "Jr"`, s)
	require.True(t, dec.ExpectSP())
	n, ok := dec.ExpectNumber()
	require.True(t, ok)
	assert.Equal(t, uint32(42), n)
	assert.True(t, dec.ExpectEOF())
}

func TestDecoder_Literal(t *testing.T) {
	dec := NewDecoder([]byte("BODY[] {10}\r\n0123\r\n6789 UID 7"))

	var att string
	require.True(t, dec.ExpectFetchAtt(&att))
	assert.Equal(t, "BODY[]", att)
	require.True(t, dec.ExpectSP())

	var b []byte
	require.True(t, dec.ExpectLiteral(&b))
	assert.Equal(t, "0123\r\n6789", string(b))
	assert.Equal(t, int64(0), dec.Relayed())
	assert.Equal(t, " UID 7", dec.Remaining())
}

func TestDecoder_RelayedLiteral(t *testing.T) {
	unit := []byte("BODY[] {10}\r\n89)")
	dec := NewDecoder(unit)
	dec.SetRelayed(len("BODY[] {10}\r\n"), 8)

	var att string
	require.True(t, dec.ExpectFetchAtt(&att))
	require.True(t, dec.ExpectSP())
	var b []byte
	require.True(t, dec.ExpectLiteral(&b))
	assert.Equal(t, "89", string(b))
	assert.Equal(t, int64(8), dec.Relayed())
	assert.True(t, dec.ExpectSpecial(')'))
}

func TestDecoder_FetchAttSection(t *testing.T) {
	dec := NewDecoder([]byte("BODY[HEADER.FIELDS (SUBJECT FROM)]<0> NIL"))

	var att string
	require.True(t, dec.ExpectFetchAtt(&att))
	assert.Equal(t, "BODY[HEADER.FIELDS (SUBJECT FROM)]<0>", att)
	require.True(t, dec.ExpectSP())

	var s string
	isNil, ok := dec.NString(&s)
	assert.True(t, ok)
	assert.True(t, isNil)
}

func TestDecoder_Value(t *testing.T) {
	dec := NewDecoder([]byte(`("a" NIL (1 2) {3}` + "\r\nxyz) rest"))

	var v string
	require.True(t, dec.ExpectValue(&v))
	assert.Equal(t, "(\"a\" NIL (1 2) {3}\r\nxyz)", v)
	assert.Equal(t, " rest", dec.Remaining())
}

func TestDecoder_Mailbox(t *testing.T) {
	dec := NewDecoder([]byte(`inbox Entw&APw-rfe`))

	var name string
	require.True(t, dec.ExpectMailbox(&name))
	assert.Equal(t, "INBOX", name)
	require.True(t, dec.ExpectSP())
	require.True(t, dec.ExpectMailbox(&name))
	assert.Equal(t, "Entwürfe", name)
}

func TestDecoder_ExpectError(t *testing.T) {
	dec := NewDecoder([]byte(`(a`))

	err := dec.ExpectList(func() error {
		var s string
		if !dec.ExpectAtom(&s) {
			return dec.Err()
		}
		return nil
	})
	assert.Error(t, err)
}
