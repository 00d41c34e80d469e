package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Env holds the secrets read from a .env file.
//
// IMAP_PASSWORD and IMAP_TOKEN apply to every account. A variable suffixed
// with the upper-cased account name, e.g. IMAP_PASSWORD_WORK, takes
// precedence for that account.
type Env struct {
	vars map[string]string
}

// LoadEnv reads the .env file at path. Values already set in the process
// environment are kept.
func LoadEnv(path string) (*Env, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, errors.Wrapf(err, "failed to read in .env file at '%s'", path)
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read in .env file at '%s'", path)
	}
	env := &Env{vars: make(map[string]string, len(vars))}
	for k := range vars {
		env.vars[k] = os.Getenv(k)
	}
	return env, nil
}

func (env *Env) lookup(key, account string) string {
	suffix := strings.ToUpper(strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, account))
	if v := env.vars[key+"_"+suffix]; v != "" {
		return v
	}
	return env.vars[key]
}

// Apply fills the empty secrets of the accounts.
func (env *Env) Apply(conf *Config) {
	for _, acc := range conf.Accounts {
		if acc.Password == "" {
			acc.Password = env.lookup("IMAP_PASSWORD", acc.Name)
		}
		if acc.Token == "" {
			acc.Token = env.lookup("IMAP_TOKEN", acc.Name)
		}
	}
}
