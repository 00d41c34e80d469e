package imap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeqSet(t *testing.T) {
	tests := []struct {
		in      string
		out     string
		dynamic bool
	}{
		{"1", "1", false},
		{"1:3,5", "1:3,5", false},
		{"7:*", "7:*", true},
		{"*:7", "7:*", true},
		{"*", "*", true},
		{"9:2", "2:9", false},
	}
	for _, test := range tests {
		s, err := ParseSeqSet(test.in)
		require.NoError(t, err, test.in)
		assert.Equal(t, test.out, s.String(), test.in)
		assert.Equal(t, test.dynamic, s.Dynamic(), test.in)
	}

	for _, in := range []string{"", "0", "1:", "a", "1,,2", "4294967296"} {
		_, err := ParseSeqSet(in)
		assert.Error(t, err, in)
	}
}

func TestSeqSet_Contains(t *testing.T) {
	s, err := ParseSeqSet("2:4,7:*")
	require.NoError(t, err)

	assert.False(t, s.Contains(0))
	assert.False(t, s.Contains(1))
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(5))
	assert.True(t, s.Contains(7))
	assert.True(t, s.Contains(1000))
}

func TestSeqSetNum(t *testing.T) {
	assert.Equal(t, "1,5,*", SeqSetNum(1, 5, 0).String())
	assert.Equal(t, "3:*", SeqSetRange(0, 3).String())
	assert.Equal(t, "", SeqSet(nil).String())
}
