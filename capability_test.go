package imap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapSet(t *testing.T) {
	caps := CapSet{}
	caps.Add("imap4rev1", "AUTH=plain", "auth=XOAUTH2", "AUTH=LOGIN", CapIdle)
	caps.Add(CapIMAP4rev1)

	assert.Len(t, caps, 5)
	assert.True(t, caps.Has(CapIMAP4rev1))
	assert.True(t, caps.IsIMAP4())
	assert.True(t, caps.Has(CapAuthPlain))
	assert.False(t, caps.Has(CapStartTLS))
	assert.Equal(t, []string{"LOGIN", "PLAIN", "XOAUTH2"}, caps.AuthMechanisms())

	other := caps.Copy()
	other.Remove("IMAP4REV1")
	assert.False(t, other.IsIMAP4())
	assert.True(t, caps.IsIMAP4())

	assert.Equal(t, []string{"AUTH=LOGIN", "AUTH=plain", "IDLE", "auth=XOAUTH2", "imap4rev1"}, caps.Names())
}

func TestAuthCap(t *testing.T) {
	assert.Equal(t, CapAuthPlain, AuthCap("plain"))
	assert.Equal(t, Cap("AUTH=XOAUTH2"), AuthCap("xoauth2"))
}
