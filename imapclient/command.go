package imapclient

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// Kind is the kind of a command.
type Kind int

const (
	// KindRaw is a command sent verbatim, with arguments the engine doesn't
	// interpret.
	KindRaw Kind = iota

	KindCapability
	KindNoop
	KindLogout
	KindStartTLS
	KindLogin
	KindAuthenticate

	KindSelect
	KindExamine
	KindCreate
	KindDelete
	KindRename
	KindSubscribe
	KindUnsubscribe
	KindList
	KindLsub
	KindStatus
	KindAppend
	KindNamespace

	KindCheck
	KindClose
	KindExpunge
	KindSearch
	KindFetch
	KindStore
	KindCopy
	KindUIDSearch
	KindUIDFetch
	KindUIDStore
	KindUIDCopy

	KindSetACL
	KindDeleteACL
	KindGetACL
	KindListRights
	KindMyRights
	KindSetAnnotation
	KindGetAnnotation
	KindGetQuotaRoot
	KindGetQuota
	KindSetQuota
)

var kinds = [...]struct {
	verb  string
	state imap.ConnState
}{
	KindRaw:          {"", imap.ConnStateConnected},
	KindCapability:   {"CAPABILITY", imap.ConnStateConnected},
	KindNoop:         {"NOOP", imap.ConnStateConnected},
	KindLogout:       {"LOGOUT", imap.ConnStateConnected},
	KindStartTLS:     {"STARTTLS", imap.ConnStateConnected},
	KindLogin:        {"LOGIN", imap.ConnStateConnected},
	KindAuthenticate: {"AUTHENTICATE", imap.ConnStateConnected},

	KindSelect:      {"SELECT", imap.ConnStateAuthenticated},
	KindExamine:     {"EXAMINE", imap.ConnStateAuthenticated},
	KindCreate:      {"CREATE", imap.ConnStateAuthenticated},
	KindDelete:      {"DELETE", imap.ConnStateAuthenticated},
	KindRename:      {"RENAME", imap.ConnStateAuthenticated},
	KindSubscribe:   {"SUBSCRIBE", imap.ConnStateAuthenticated},
	KindUnsubscribe: {"UNSUBSCRIBE", imap.ConnStateAuthenticated},
	KindList:        {"LIST", imap.ConnStateAuthenticated},
	KindLsub:        {"LSUB", imap.ConnStateAuthenticated},
	KindStatus:      {"STATUS", imap.ConnStateAuthenticated},
	KindAppend:      {"APPEND", imap.ConnStateAuthenticated},
	KindNamespace:   {"NAMESPACE", imap.ConnStateAuthenticated},

	KindCheck:     {"CHECK", imap.ConnStateSelected},
	KindClose:     {"CLOSE", imap.ConnStateSelected},
	KindExpunge:   {"EXPUNGE", imap.ConnStateSelected},
	KindSearch:    {"SEARCH", imap.ConnStateSelected},
	KindFetch:     {"FETCH", imap.ConnStateSelected},
	KindStore:     {"STORE", imap.ConnStateSelected},
	KindCopy:      {"COPY", imap.ConnStateSelected},
	KindUIDSearch: {"UID SEARCH", imap.ConnStateSelected},
	KindUIDFetch:  {"UID FETCH", imap.ConnStateSelected},
	KindUIDStore:  {"UID STORE", imap.ConnStateSelected},
	KindUIDCopy:   {"UID COPY", imap.ConnStateSelected},

	KindSetACL:        {"SETACL", imap.ConnStateAuthenticated},
	KindDeleteACL:     {"DELETEACL", imap.ConnStateAuthenticated},
	KindGetACL:        {"GETACL", imap.ConnStateAuthenticated},
	KindListRights:    {"LISTRIGHTS", imap.ConnStateAuthenticated},
	KindMyRights:      {"MYRIGHTS", imap.ConnStateAuthenticated},
	KindSetAnnotation: {"SETANNOTATION", imap.ConnStateAuthenticated},
	KindGetAnnotation: {"GETANNOTATION", imap.ConnStateAuthenticated},
	KindGetQuotaRoot:  {"GETQUOTAROOT", imap.ConnStateAuthenticated},
	KindGetQuota:      {"GETQUOTA", imap.ConnStateAuthenticated},
	KindSetQuota:      {"SETQUOTA", imap.ConnStateAuthenticated},
}

// Verb returns the command name sent on the wire.
func (k Kind) Verb() string {
	return kinds[k].verb
}

// RequiredState returns the minimum session state the command needs.
func (k Kind) RequiredState() imap.ConnState {
	return kinds[k].state
}

func (k Kind) String() string {
	if k == KindRaw {
		return "raw"
	}
	return k.Verb()
}

// kindByVerb looks up the kind of a verb, e.g. "uid fetch". Unknown verbs
// map to KindRaw.
func kindByVerb(verb string) Kind {
	verb = strings.ToUpper(strings.Join(strings.Fields(verb), " "))
	for k, info := range kinds {
		if k != int(KindRaw) && info.verb == verb {
			return Kind(k)
		}
	}
	return KindRaw
}

// Args is the typed payload of a command. It is encoded once, when the
// command is written.
type Args interface {
	Kind() Kind
	// encodeArgs writes the arguments following the verb, each one preceded
	// by a space.
	encodeArgs(enc *imapwire.Encoder)
}

// RawArgs is a command sent as-is. Args is written verbatim after the verb.
//
// If Verb names a known command, the untagged data it triggers is still
// collected and its state requirements still apply.
type RawArgs struct {
	Verb string
	Args string
}

func (args *RawArgs) Kind() Kind {
	return kindByVerb(args.Verb)
}

func (args *RawArgs) encodeArgs(enc *imapwire.Encoder) {
	if args.Args != "" {
		enc.SP().Text(args.Args)
	}
}

// noArgs is the payload of commands without arguments.
type noArgs Kind

func (args noArgs) Kind() Kind {
	return Kind(args)
}

func (args noArgs) encodeArgs(enc *imapwire.Encoder) {}

// Command is an IMAP command: a tag, a kind with its typed arguments and the
// accumulated result.
//
// A command is pending until its tagged completion line is read. Untagged
// data received meanwhile is attached to it.
type Command struct {
	tag     string
	kind    Kind
	verb    string
	args    Args
	written bool
	sentAt  time.Time

	done bool
	resp imap.StatusResponse
	err  error

	relay    io.Writer
	relayErr error

	caps        imap.CapSet
	mailbox     *imap.MailboxInfo
	fetch       map[uint32]*imap.FetchData
	list        []*imap.ListData
	search      []uint32
	status      *imap.StatusData
	namespace   *imap.NamespaceData
	acl         *imap.GetACLData
	myRights    *imap.MyRightsData
	listRights  *imap.ListRightsData
	quotas      []*imap.QuotaData
	quotaRoot   *imap.QuotaRootData
	annotations []*imap.AnnotationData
	appendData  *imap.AppendData
	copyData    *imap.CopyData
}

// Tag returns the command tag, e.g. "A0001".
func (cmd *Command) Tag() string {
	return cmd.tag
}

// Kind returns the kind of the command.
func (cmd *Command) Kind() Kind {
	return cmd.kind
}

// Verb returns the command name as written on the wire.
func (cmd *Command) Verb() string {
	return cmd.verb
}

// Args returns the command arguments.
func (cmd *Command) Args() Args {
	return cmd.args
}

// Done returns true once the tagged completion was read.
func (cmd *Command) Done() bool {
	return cmd.done
}

// Status returns the completion status: OK, NO or BAD. It is empty while
// the command is pending.
func (cmd *Command) Status() imap.StatusResponseType {
	return cmd.resp.Type
}

// Code returns the response code of the completion, if any.
func (cmd *Command) Code() imap.ResponseCode {
	return cmd.resp.Code
}

// Detail returns the human-readable text of the completion, verbatim.
func (cmd *Command) Detail() string {
	return cmd.resp.Text
}

// Err returns an *imap.Error for NO and BAD completions, or the error that
// prevented the command from being written.
func (cmd *Command) Err() error {
	if cmd.err != nil {
		return cmd.err
	}
	if !cmd.done {
		return nil
	}
	return cmd.resp.Err()
}

// RelayErr returns the first error returned by the relay writer.
func (cmd *Command) RelayErr() error {
	return cmd.relayErr
}

// SetRelay streams message body literals of FETCH responses to w while
// they are read, instead of keeping them in memory. It must be called
// before the responses are drained.
func (cmd *Command) SetRelay(w io.Writer) {
	cmd.relay = w
}

// Capabilities returns the capabilities announced while the command ran.
func (cmd *Command) Capabilities() imap.CapSet {
	return cmd.caps
}

// FetchData returns the cache entry of a message sequence number.
func (cmd *Command) FetchData(seqNum uint32) *imap.FetchData {
	return cmd.fetch[seqNum]
}

// Messages returns the cache entries sorted by sequence number.
func (cmd *Command) Messages() []*imap.FetchData {
	l := make([]*imap.FetchData, 0, len(cmd.fetch))
	for _, data := range cmd.fetch {
		l = append(l, data)
	}
	sort.Slice(l, func(i, j int) bool {
		return l[i].SeqNum < l[j].SeqNum
	})
	return l
}

// List returns the LIST or LSUB responses.
func (cmd *Command) List() []*imap.ListData {
	return cmd.list
}

// SearchResults returns the numbers of the SEARCH responses.
func (cmd *Command) SearchResults() []uint32 {
	return cmd.search
}

// StatusData returns the STATUS response.
func (cmd *Command) StatusData() *imap.StatusData {
	return cmd.status
}

// fetchEntry returns the cache entry of a sequence number, creating it on
// first reference.
func (cmd *Command) fetchEntry(seqNum uint32) *imap.FetchData {
	if data, ok := cmd.fetch[seqNum]; ok {
		return data
	}
	if cmd.fetch == nil {
		cmd.fetch = make(map[uint32]*imap.FetchData)
	}
	data := &imap.FetchData{SeqNum: seqNum}
	cmd.fetch[seqNum] = data
	return data
}

// evict drops the data accumulated by the command.
func (cmd *Command) evict() {
	cmd.fetch = nil
	cmd.list = nil
	cmd.search = nil
	cmd.annotations = nil
	cmd.quotas = nil
	cmd.relay = nil
}
