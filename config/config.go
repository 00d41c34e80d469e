// Package config loads IMAP account settings.
//
// Account files are TOML or YAML, chosen by file extension. Secrets can be
// kept out of them in a .env file, see LoadEnv.
package config

import (
	"context"
	"crypto/tls"
	"io/ioutil"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/emersion/go-imapengine/imapclient"
)

// Default ports.
const (
	DefaultPort    = 143
	DefaultTLSPort = 993
)

// Structs

// Config holds the accounts parsed from a config file.
type Config struct {
	Accounts []*Account `toml:"account" yaml:"accounts"`
}

// Account describes how to reach and log into one IMAP account.
type Account struct {
	Name string `toml:"name" yaml:"name"`
	Host string `toml:"host" yaml:"host"`
	Port int    `toml:"port" yaml:"port"`

	// ImplicitTLS connects with TLS from the start (imaps). STARTTLS is
	// not used then.
	ImplicitTLS bool `toml:"implicit_tls" yaml:"implicit_tls"`
	// TLS is "off", "opportunistic" or "required" and controls STARTTLS.
	TLS                string `toml:"tls" yaml:"tls"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify" yaml:"insecure_skip_verify"`

	// Auth is a SASL mechanism name, empty or "*" for the LOGIN command.
	Auth     string `toml:"auth" yaml:"auth"`
	User     string `toml:"user" yaml:"user"`
	Password string `toml:"password" yaml:"password"`
	Token    string `toml:"token" yaml:"token"`

	ResponseTimeout Duration `toml:"response_timeout" yaml:"response_timeout"`
	NoopInterval    Duration `toml:"noop_interval" yaml:"noop_interval"`
}

// Duration is a time.Duration written as a string such as "20s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML
// decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// Functions

// Load reads a TOML (.toml) or YAML (.yaml, .yml) config file. Defaults are
// applied and every account is validated.
func Load(path string) (*Config, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	conf := new(Config)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(b), conf); err != nil {
			return nil, errors.Wrapf(err, "failed to read in TOML config file at '%s'", path)
		}
	case ".yaml", ".yml":
		if err := yaml.UnmarshalStrict(b, conf); err != nil {
			return nil, errors.Wrapf(err, "failed to read in YAML config file at '%s'", path)
		}
	default:
		return nil, errors.Errorf("unknown config file format %q", ext)
	}

	if len(conf.Accounts) == 0 {
		return nil, errors.Errorf("no account defined in '%s'", path)
	}
	seen := make(map[string]bool)
	for i, acc := range conf.Accounts {
		if acc.Name == "" {
			acc.Name = acc.User + "@" + acc.Host
		}
		if seen[acc.Name] {
			return nil, errors.Errorf("duplicate account %q", acc.Name)
		}
		seen[acc.Name] = true

		acc.setDefaults()
		if err := acc.Validate(); err != nil {
			return nil, errors.Wrapf(err, "account %d (%v)", i+1, acc.Name)
		}
	}
	return conf, nil
}

// Account returns the account with the given name, or nil.
func (conf *Config) Account(name string) *Account {
	for _, acc := range conf.Accounts {
		if acc.Name == name {
			return acc
		}
	}
	return nil
}

func (acc *Account) setDefaults() {
	if acc.Port == 0 {
		if acc.ImplicitTLS {
			acc.Port = DefaultTLSPort
		} else {
			acc.Port = DefaultPort
		}
	}
	if acc.TLS == "" {
		acc.TLS = "opportunistic"
	}
	if acc.ResponseTimeout.Duration == 0 {
		acc.ResponseTimeout.Duration = imapclient.DefaultTimeout
	}
	if acc.NoopInterval.Duration == 0 {
		acc.NoopInterval.Duration = imapclient.DefaultNoopInterval
	}
}

// Validate checks that the account can be used to connect.
func (acc *Account) Validate() error {
	if acc.Host == "" {
		return errors.New("missing host")
	}
	if acc.Port <= 0 || acc.Port > 65535 {
		return errors.Errorf("invalid port %v", acc.Port)
	}
	if _, err := acc.tlsMode(); err != nil {
		return err
	}
	switch strings.ToUpper(acc.Auth) {
	case "ANONYMOUS", "EXTERNAL":
	default:
		if acc.User == "" {
			return errors.New("missing user")
		}
	}
	if acc.ResponseTimeout.Duration < 0 {
		return errors.New("negative response timeout")
	}
	return nil
}

func (acc *Account) tlsMode() (imapclient.TLSMode, error) {
	switch strings.ToLower(acc.TLS) {
	case "off", "none":
		return imapclient.TLSNone, nil
	case "", "opportunistic":
		return imapclient.TLSOpportunistic, nil
	case "required":
		return imapclient.TLSRequired, nil
	}
	return imapclient.TLSNone, errors.Errorf("invalid tls mode %q", acc.TLS)
}

// Address returns the host:port address of the server.
func (acc *Account) Address() string {
	return net.JoinHostPort(acc.Host, strconv.Itoa(acc.Port))
}

// TLSConfig returns the TLS configuration used for implicit TLS and
// STARTTLS.
func (acc *Account) TLSConfig() *tls.Config {
	return &tls.Config{
		ServerName:         acc.Host,
		InsecureSkipVerify: acc.InsecureSkipVerify,
	}
}

// Options returns the engine options of the account.
func (acc *Account) Options(logger log.Logger) *imapclient.Options {
	if logger != nil {
		logger = log.With(logger, "account", acc.Name)
	}
	return &imapclient.Options{
		Logger:       logger,
		Timeout:      acc.ResponseTimeout.Duration,
		TLSConfig:    acc.TLSConfig(),
		NoopInterval: acc.NoopInterval.Duration,
	}
}

// LoginOptions returns the options of imapclient.Client.Login.
func (acc *Account) LoginOptions() *imapclient.LoginOptions {
	mode, _ := acc.tlsMode()
	if acc.ImplicitTLS {
		mode = imapclient.TLSNone
	}
	return &imapclient.LoginOptions{
		TLS:       mode,
		TLSConfig: acc.TLSConfig(),
		Mechanism: acc.Auth,
		User:      acc.User,
		Password:  acc.Password,
		Token:     acc.Token,
		Port:      acc.Port,
	}
}

// Dial connects to the server of the account and reads the greeting.
func (acc *Account) Dial(ctx context.Context, options *imapclient.Options) (*imapclient.Client, error) {
	if acc.ImplicitTLS {
		return imapclient.DialTLS(ctx, acc.Address(), options)
	}
	return imapclient.Dial(ctx, acc.Address(), options)
}
