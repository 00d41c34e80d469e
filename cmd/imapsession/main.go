// Command imapsession logs into one or more IMAP accounts and prints what
// it finds: capabilities, mailboxes and message summaries.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/config"
	"github.com/emersion/go-imapengine/imapclient"
)

type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

var (
	configFiles stringList
	envFile     string
	account     string
	logLevel    string
	debug       bool
	metricsAddr string
	listPattern string
	mailbox     string
	fetchSet    string
)

// initLogger initializes a JSON go-kit logger writing to stderr, filtered
// at the given level.
func initLogger(loglevel string) log.Logger {
	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
	)

	switch strings.ToLower(loglevel) {
	case "debug":
		logger = level.NewFilter(logger, level.AllowDebug())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	return logger
}

func main() {
	flag.Var(&configFiles, "config", "Account file in TOML or YAML syntax (repeatable)")
	flag.StringVar(&envFile, "env", "", "Path to a .env file holding secrets")
	flag.StringVar(&account, "account", "", "Only use the account with this name")
	flag.StringVar(&logLevel, "log-level", "info", "Logging level: debug, info, warn or error")
	flag.BoolVar(&debug, "debug", false, "Print all commands and responses")
	flag.StringVar(&metricsAddr, "metrics", "", "Serve Prometheus metrics on this address")
	flag.StringVar(&listPattern, "list", "", "List mailboxes matching this pattern")
	flag.StringVar(&mailbox, "mailbox", "", "Select this mailbox")
	flag.StringVar(&fetchSet, "fetch", "", "Print the messages of this sequence set, requires -mailbox")
	flag.Parse()

	logger := initLogger(logLevel)
	if len(configFiles) == 0 {
		configFiles = stringList{"accounts.toml"}
	}

	var env *config.Env
	if envFile != "" {
		var err error
		if env, err = config.LoadEnv(envFile); err != nil {
			level.Error(logger).Log("msg", "failed to load secrets", "err", err)
			os.Exit(1)
		}
	}

	var accounts []*config.Account
	for _, path := range configFiles {
		conf, err := config.Load(path)
		if err != nil {
			level.Error(logger).Log("msg", "failed to load the config", "path", path, "err", err)
			os.Exit(1)
		}
		if env != nil {
			env.Apply(conf)
		}
		for _, acc := range conf.Accounts {
			if account == "" || acc.Name == account {
				accounts = append(accounts, acc)
			}
		}
	}
	if len(accounts) == 0 {
		level.Error(logger).Log("msg", "no matching account", "account", account)
		os.Exit(1)
	}

	metrics := imapclient.NewDiscardMetrics()
	if metricsAddr != "" {
		metrics = imapclient.NewPrometheusMetrics("imapsession")
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(metricsAddr, nil); err != nil {
				level.Error(logger).Log("msg", "failed to serve metrics", "err", err)
			}
		}()
	}

	var debugWriter io.Writer
	if debug {
		debugWriter = log.NewSyncWriter(os.Stderr)
	}

	results := make([]string, len(accounts))
	g, ctx := errgroup.WithContext(context.Background())
	for i, acc := range accounts {
		i, acc := i, acc
		g.Go(func() error {
			options := acc.Options(logger)
			options.Metrics = metrics
			options.DebugWriter = debugWriter

			out, err := run(ctx, acc, options)
			results[i] = out
			if err != nil {
				return fmt.Errorf("%v: %v", acc.Name, err)
			}
			return nil
		})
	}
	err := g.Wait()
	for _, out := range results {
		fmt.Print(out)
	}
	if err != nil {
		level.Error(logger).Log("msg", "session failed", "err", err)
		os.Exit(2)
	}
}

// run drives one session: login, then the requested listing, selection and
// fetch.
func run(ctx context.Context, acc *config.Account, options *imapclient.Options) (string, error) {
	var out strings.Builder

	c, err := acc.Dial(ctx, options)
	if err != nil {
		return "", err
	}
	defer c.Close()

	if err := c.Login(acc.LoginOptions()); err != nil {
		return out.String(), err
	}
	fmt.Fprintf(&out, "[%v] %v\n", acc.Name, strings.Join(c.Caps().Names(), " "))
	for _, alert := range c.Alerts() {
		fmt.Fprintf(&out, "[%v] ALERT: %v\n", acc.Name, alert)
	}

	if listPattern != "" {
		l, err := c.List("", listPattern)
		if err != nil {
			return out.String(), err
		}
		for _, data := range l {
			fmt.Fprintf(&out, "[%v] %v %q %v\n", acc.Name, data.Attrs, string(data.Delim), data.Mailbox)
		}
	}

	if mailbox != "" {
		if err := c.AssureMailboxSelected(mailbox, true); err != nil {
			return out.String(), err
		}
		mbox := c.Mailbox()
		var num uint32
		if mbox.NumMessages != nil {
			num = *mbox.NumMessages
		}
		fmt.Fprintf(&out, "[%v] %v: %v messages\n", acc.Name, mbox.Name, num)

		if fetchSet != "" && num > 0 {
			seqSet, err := imap.ParseSeqSet(fetchSet)
			if err != nil {
				return out.String(), err
			}
			msgs, err := c.Fetch(seqSet,
				imap.FetchItemUID, imap.FetchItemFlags, imap.FetchItemRFC822Size,
				imap.FetchItemHeaderFields("From", "Subject", "Date"))
			if err != nil {
				return out.String(), err
			}
			for _, msg := range msgs {
				var size int64
				if msg.Size != nil {
					size = *msg.Size
				}
				h := mail.Header{Header: message.Header{Header: msg.Header}}
				subject, _ := h.Subject()
				fmt.Fprintf(&out, "[%v] %v uid=%v size=%v flags=%v from=%q subject=%q",
					acc.Name, msg.SeqNum, msg.UID, size, msg.Flags, h.Get("From"), subject)
				if date, err := h.Date(); err == nil {
					fmt.Fprintf(&out, " date=%v", date.Format(time.RFC3339))
				}
				out.WriteString("\n")
			}
		}
	}

	return out.String(), c.Logout()
}
