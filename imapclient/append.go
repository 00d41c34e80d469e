package imapclient

import (
	"bytes"
	"io"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// AppendArgs are the arguments of APPEND. The message is sent as a literal
// of Size bytes read from Body: a synchronizing one unless the server
// supports LITERAL+.
type AppendArgs struct {
	Mailbox string
	Options imap.AppendOptions
	Body    io.Reader
	Size    int64
}

func (args *AppendArgs) Kind() Kind {
	return KindAppend
}

func (args *AppendArgs) encodeArgs(enc *imapwire.Encoder) {
	enc.SP().Mailbox(args.Mailbox).SP()
	if len(args.Options.Flags) > 0 {
		enc.List(len(args.Options.Flags), func(i int) {
			enc.Flag(args.Options.Flags[i])
		}).SP()
	}
	if !args.Options.Time.IsZero() {
		enc.Quoted(args.Options.Time.Format(dateTimeLayout)).SP()
	}
	enc.LiteralFrom(args.Body, args.Size)
}

// Append sends an APPEND command.
//
// The returned data is only populated if the server supports UIDPLUS,
// otherwise it is nil.
//
// A nil options pointer is equivalent to a zero options value.
func (c *Client) Append(mailbox string, msg []byte, options *imap.AppendOptions) (*imap.AppendData, error) {
	args := &AppendArgs{
		Mailbox: mailbox,
		Body:    bytes.NewReader(msg),
		Size:    int64(len(msg)),
	}
	if options != nil {
		args.Options = *options
	}

	var data *imap.AppendData
	err := c.do(args, func(cmd *Command) {
		data = cmd.appendData
	})
	return data, err
}
