package config

import (
	"os"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersion/go-imapengine/imapclient"
)

func TestLoad(t *testing.T) {
	for _, path := range []string{"testdata/accounts.toml", "testdata/accounts.yaml"} {
		conf, err := Load(path)
		require.NoError(t, err, path)
		require.Len(t, conf.Accounts, 2, path)

		work := conf.Account("work")
		require.NotNil(t, work, path)
		assert.Equal(t, "mail.example.org:143", work.Address(), path)
		assert.Equal(t, 30*time.Second, work.ResponseTimeout.Duration, path)
		assert.Equal(t, imapclient.DefaultNoopInterval, work.NoopInterval.Duration, path)

		other := conf.Accounts[1]
		assert.Equal(t, "jane@example.com@imap.example.com", other.Name, path)
		assert.Equal(t, DefaultTLSPort, other.Port, path)
		assert.Equal(t, "opportunistic", other.TLS, path)
		assert.Equal(t, imapclient.DefaultTimeout, other.ResponseTimeout.Duration, path)
		assert.Equal(t, time.Minute, other.NoopInterval.Duration, path)
	}
}

func TestLoad_errors(t *testing.T) {
	_, err := Load("testdata/broken.toml")
	assert.Error(t, err)

	_, err = Load("testdata/badtls.yaml")
	assert.EqualError(t, err, `account 1 (joe@mail.example.org): invalid tls mode "sometimes"`)

	_, err = Load("testdata/secrets.env")
	assert.Error(t, err)

	_, err = Load("testdata/missing.toml")
	assert.Error(t, err)
}

func TestAccount_Validate(t *testing.T) {
	acc := &Account{Host: "mail.example.org"}
	acc.setDefaults()
	assert.EqualError(t, acc.Validate(), "missing user")

	acc.Auth = "anonymous"
	assert.NoError(t, acc.Validate())

	acc.Port = 70000
	assert.Error(t, acc.Validate())

	assert.EqualError(t, (&Account{}).Validate(), "missing host")
}

func TestAccount_LoginOptions(t *testing.T) {
	acc := &Account{Host: "mail.example.org", User: "joe", Password: "secret", TLS: "required", Auth: "PLAIN"}
	acc.setDefaults()

	options := acc.LoginOptions()
	assert.Equal(t, imapclient.TLSRequired, options.TLS)
	assert.Equal(t, "PLAIN", options.Mechanism)
	assert.Equal(t, "joe", options.User)
	assert.Equal(t, "secret", options.Password)
	assert.Equal(t, DefaultPort, options.Port)
	assert.Equal(t, "mail.example.org", options.TLSConfig.ServerName)

	acc.ImplicitTLS = true
	assert.Equal(t, imapclient.TLSNone, acc.LoginOptions().TLS)

	acc.TLS = "off"
	acc.ImplicitTLS = false
	assert.Equal(t, imapclient.TLSNone, acc.LoginOptions().TLS)
}

func TestAccount_Options(t *testing.T) {
	acc := &Account{Name: "work", Host: "mail.example.org", User: "joe", InsecureSkipVerify: true}
	acc.setDefaults()

	options := acc.Options(log.NewNopLogger())
	assert.NotNil(t, options.Logger)
	assert.Equal(t, imapclient.DefaultTimeout, options.Timeout)
	assert.Equal(t, imapclient.DefaultNoopInterval, options.NoopInterval)
	assert.True(t, options.TLSConfig.InsecureSkipVerify)

	assert.Nil(t, acc.Options(nil).Logger)
}

func TestLoadEnv(t *testing.T) {
	for _, k := range []string{"IMAP_PASSWORD", "IMAP_PASSWORD_WORK", "IMAP_TOKEN"} {
		k := k
		t.Cleanup(func() { os.Unsetenv(k) })
	}

	env, err := LoadEnv("testdata/secrets.env")
	require.NoError(t, err)

	conf, err := Load("testdata/accounts.toml")
	require.NoError(t, err)
	conf.Accounts[1].Token = "explicit"
	env.Apply(conf)

	assert.Equal(t, "correct horse", conf.Account("work").Password)
	assert.Equal(t, "ya29.token", conf.Account("work").Token)
	assert.Equal(t, "hunter2", conf.Accounts[1].Password)
	assert.Equal(t, "explicit", conf.Accounts[1].Token)

	_, err = LoadEnv("testdata/missing.env")
	assert.Error(t, err)
}
