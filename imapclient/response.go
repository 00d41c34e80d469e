package imapclient

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// Response is the result of one parse step: *TaggedResponse,
// *ContinuationRequest, *UntaggedResponse or *UnhandledResponse.
type Response interface {
	response()
}

// TaggedResponse is the completion of the in-flight command.
type TaggedResponse struct {
	imap.StatusResponse
	Tag     string
	Command *Command
}

// ContinuationRequest is a "+" response: the server waits for more data.
type ContinuationRequest struct {
	Text string
}

// UntaggedResponse is a "*" response. Kind is the upper-cased response
// name, e.g. "FETCH" or "CAPABILITY". Num is the leading number of
// EXISTS, RECENT, EXPUNGE and FETCH responses.
type UntaggedResponse struct {
	Kind string
	Num  uint32
}

// UnhandledResponse is a line the engine did not understand or did not
// expect. It is also kept in Client.Unhandled.
type UnhandledResponse struct {
	Line string
}

func (*TaggedResponse) response()      {}
func (*ContinuationRequest) response() {}
func (*UntaggedResponse) response()    {}
func (*UnhandledResponse) response()   {}

// desyncError is a response the stream framing survived but that could not
// be attributed or parsed.
type desyncError struct {
	err error
}

func (err *desyncError) Error() string {
	return err.err.Error()
}

// Step reads one response unit and handles it: session state, mailbox
// info and the in-flight command are updated. It blocks until a whole unit
// is available or the response timeout expires.
func (c *Client) Step() (Response, error) {
	if c.busy {
		return nil, ErrQueueBusy
	}
	c.busy = true
	defer func() { c.busy = false }()
	return c.step()
}

func (c *Client) step() (Response, error) {
	if c.t == nil {
		return nil, ErrClosed
	}
	u, err := c.readUnit()
	if err != nil {
		if errors.Is(err, ErrDesync) {
			c.metrics.Desyncs.Add(1)
			level.Error(c.logger).Log("msg", "cannot frame response", "err", err)
			c.metrics.Disconnects.Add(1)
			c.abort()
			return nil, err
		}
		return nil, c.fail(err)
	}

	resp, err := c.handleUnit(u)
	if err == nil {
		c.desync = 0
		return resp, nil
	}
	if _, ok := err.(*desyncError); !ok {
		return nil, err
	}

	line := firstLine(u.buf)
	c.unhandled = append(c.unhandled, line)
	if c.state == imap.ConnStateDisconnected {
		// banner text before the greeting
		return &UnhandledResponse{Line: line}, nil
	}
	c.desync++
	c.metrics.Desyncs.Add(1)
	level.Warn(c.logger).Log("msg", "unexpected response", "line", line, "err", err, "count", c.desync)
	if c.desync >= MaxDesync {
		c.metrics.Disconnects.Add(1)
		c.abort()
		return nil, errors.Wrapf(ErrDesync, "%v (last: %v)", c.host, err)
	}
	return &UnhandledResponse{Line: line}, nil
}

func firstLine(b []byte) string {
	if i := bytes.Index(b, []byte("\r\n")); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// responseUnit is a response line along with its literals.
type responseUnit struct {
	buf     []byte
	relayed map[int]int64
}

// readUnit reads a line and, while it announces a literal, the literal
// bytes and the next line. Line terminators are normalized so that each
// literal header is followed by exactly CRLF.
func (c *Client) readUnit() (*responseUnit, error) {
	u := &responseUnit{}
	for {
		line, err := c.lr.ReadLine(nil, 0)
		if err == imapwire.ErrLineTooLong {
			return nil, errors.Wrapf(ErrDesync, "line longer than %v bytes", imapwire.MaxLineLength)
		} else if err != nil {
			return nil, err
		}
		line = bytes.TrimRight(line, "\r\n")
		u.buf = append(u.buf, line...)

		size, ok, err := literalSize(line)
		if err != nil {
			return nil, err
		} else if !ok {
			return u, nil
		}
		u.buf = append(u.buf, '\r', '\n')

		relay := c.relayFor(u.buf)
		if relay == nil && size > MaxLiteralSize {
			return nil, errors.Wrapf(ErrDesync, "literal of %v bytes is too large", size)
		}
		off := len(u.buf)
		var data []byte
		if relay != nil {
			data, err = c.lr.ReadExact(size, relay, size)
		} else {
			data, err = c.lr.ReadExact(size, nil, 0)
		}
		var relayErr *imapwire.RelayError
		if errors.As(err, &relayErr) {
			if cmd := c.inflight(); cmd != nil && cmd.relayErr == nil {
				cmd.relayErr = relayErr.Err
			}
		} else if err != nil {
			return nil, err
		}
		if relayed := size - int64(len(data)); relayed > 0 {
			if u.relayed == nil {
				u.relayed = make(map[int]int64)
			}
			u.relayed[off] = relayed
		}
		c.metrics.LiteralBytes.Add(float64(size))
		u.buf = append(u.buf, data...)
	}
}

// literalSize parses a trailing "{n}" or "{n+}" literal announcement.
func literalSize(line []byte) (size int64, ok bool, err error) {
	if len(line) == 0 || line[len(line)-1] != '}' {
		return 0, false, nil
	}
	i := bytes.LastIndexByte(line, '{')
	if i < 0 {
		return 0, false, nil
	}
	digits := strings.TrimSuffix(string(line[i+1:len(line)-1]), "+")
	if digits == "" || strings.Trim(digits, "0123456789") != "" {
		return 0, false, nil
	}
	size, err = strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false, errors.Wrapf(ErrDesync, "malformed literal size %q", digits)
	}
	return size, true, nil
}

func (c *Client) handleUnit(u *responseUnit) (Response, error) {
	dec := imapwire.NewDecoder(u.buf)
	for off, n := range u.relayed {
		dec.SetRelayed(off, n)
	}

	if dec.Special('+') {
		var text string
		if dec.SP() {
			dec.Text(&text)
		}
		c.cont = &ContinuationRequest{Text: text}
		return c.cont, nil
	}

	if dec.Special('*') {
		if !dec.ExpectSP() {
			return nil, &desyncError{dec.Err()}
		}
		resp, err := c.readUntagged(dec)
		if err != nil {
			return nil, &desyncError{errors.Wrap(err, "in response-data")}
		}
		return resp, nil
	}

	var tag string
	if !dec.ExpectAtom(&tag) || !dec.ExpectSP() {
		return nil, &desyncError{errors.Wrap(dec.Err(), "in response: cannot read tag")}
	}
	return c.readTagged(tag, dec)
}

func (c *Client) readTagged(tag string, dec *imapwire.Decoder) (Response, error) {
	var typ string
	if !dec.ExpectAtom(&typ) {
		return nil, &desyncError{errors.Wrap(dec.Err(), "in response-tagged")}
	}
	resp := imap.StatusResponse{Type: imap.StatusResponseType(strings.ToUpper(typ))}
	switch resp.Type {
	case imap.StatusResponseTypeOK, imap.StatusResponseTypeNo, imap.StatusResponseTypeBad:
	default:
		return nil, &desyncError{fmt.Errorf("in resp-cond-state: expected OK, NO or BAD status condition, but got %v", typ)}
	}

	cmd := c.inflight()
	if cmd == nil || cmd.tag != tag {
		return nil, &desyncError{fmt.Errorf("received tagged response with unknown tag %q", tag)}
	}

	code, err := c.readRespText(dec, &resp, cmd)
	if err != nil {
		return nil, &desyncError{errors.Wrap(err, "in resp-text")}
	}
	c.applyCode(code, cmd)

	if err := c.complete(cmd, &resp); err != nil {
		return nil, err
	}
	return &TaggedResponse{StatusResponse: resp, Tag: tag, Command: cmd}, nil
}

// respCode is a parsed resp-text-code.
type respCode struct {
	code  imap.ResponseCode
	caps  imap.CapSet
	flags []imap.Flag
	num   uint32
	// APPENDUID and COPYUID
	uidValidity uint32
	appendUID   uint32
	copy        *imap.CopyData
	// text of the response, for ALERT
	text string
}

// readRespText reads an optional response code and the text.
func (c *Client) readRespText(dec *imapwire.Decoder, resp *imap.StatusResponse, cmd *Command) (*respCode, error) {
	var code *respCode
	if dec.SP() && dec.Special('[') {
		code = &respCode{}
		var name string
		if !dec.ExpectAtom(&name) {
			return nil, fmt.Errorf("in resp-text-code: %v", dec.Err())
		}
		code.code = imap.ResponseCode(strings.ToUpper(name))
		if err := readCodeArgs(dec, code); err != nil {
			return nil, fmt.Errorf("in resp-text-code %v: %v", name, err)
		}
		if !dec.ExpectSpecial(']') {
			return nil, dec.Err()
		}
		resp.Code = code.code
		dec.SP()
	}
	dec.Text(&resp.Text)
	if code != nil {
		code.text = resp.Text
	}
	return code, nil
}

func readCodeArgs(dec *imapwire.Decoder, code *respCode) error {
	switch code.code {
	case imap.ResponseCodeCapability:
		caps, err := readCapabilities(dec)
		if err != nil {
			return err
		}
		code.caps = caps
	case imap.ResponseCodePermanentFlags:
		if !dec.ExpectSP() {
			return dec.Err()
		}
		flags, err := internal.ReadFlagList(dec)
		if err != nil {
			return err
		}
		code.flags = flags
	case imap.ResponseCodeUIDNext, imap.ResponseCodeUIDValidity, imap.ResponseCodeUnseen:
		var ok bool
		if !dec.ExpectSP() {
			return dec.Err()
		}
		if code.num, ok = dec.ExpectNumber(); !ok {
			return dec.Err()
		}
	case imap.ResponseCodeAppendUID:
		var ok bool
		if !dec.ExpectSP() {
			return dec.Err()
		}
		if code.uidValidity, ok = dec.ExpectNumber(); !ok || !dec.ExpectSP() {
			return dec.Err()
		}
		if code.appendUID, ok = dec.ExpectNumber(); !ok {
			return dec.Err()
		}
	case imap.ResponseCodeCopyUID:
		data, err := readCopyUID(dec)
		if err != nil {
			return err
		}
		code.copy = data
	default: // [SP 1*<any TEXT-CHAR except "]">]
		if dec.SP() {
			dec.Skip(']')
		}
	}
	return nil
}

// applyCode applies the effects of a response code on the session and the
// in-flight command.
func (c *Client) applyCode(code *respCode, cmd *Command) {
	if code == nil {
		return
	}
	mbox := c.targetMailbox()
	switch code.code {
	case imap.ResponseCodeAlert:
		level.Warn(c.logger).Log("msg", "server alert", "text", code.text)
		c.alerts = append(c.alerts, code.text)
	case imap.ResponseCodeCapability:
		c.setCaps(code.caps)
		if cmd != nil {
			cmd.caps = code.caps
		}
	case imap.ResponseCodePermanentFlags:
		if mbox != nil {
			mbox.PermanentFlags = code.flags
		}
	case imap.ResponseCodeUIDNext:
		if mbox != nil {
			mbox.UIDNext = &code.num
		}
	case imap.ResponseCodeUIDValidity:
		if mbox != nil {
			mbox.UIDValidity = &code.num
		}
	case imap.ResponseCodeUnseen:
		if mbox != nil {
			mbox.FirstUnseen = &code.num
		}
	case imap.ResponseCodeReadOnly:
		if mbox != nil {
			mbox.ReadWrite = false
		}
	case imap.ResponseCodeReadWrite:
		if mbox != nil {
			mbox.ReadWrite = true
		}
	case imap.ResponseCodeAppendUID:
		if cmd != nil {
			cmd.appendData = &imap.AppendData{UID: code.appendUID, UIDValidity: code.uidValidity}
		}
	case imap.ResponseCodeCopyUID:
		if cmd != nil {
			cmd.copyData = code.copy
		}
	}
}

// targetMailbox returns the mailbox info untagged data applies to: the one
// being built by an in-flight SELECT or EXAMINE, or the selected one.
func (c *Client) targetMailbox() *imap.MailboxInfo {
	if cmd := c.inflight(); cmd != nil && cmd.mailbox != nil {
		return cmd.mailbox
	}
	return c.mailbox
}

func (c *Client) readUntagged(dec *imapwire.Decoder) (Response, error) {
	var (
		typ string
		num uint32
	)
	if n, ok := dec.Number(); ok {
		num = n
		if !dec.ExpectSP() {
			return nil, dec.Err()
		}
	}
	if !dec.ExpectAtom(&typ) {
		return nil, fmt.Errorf("cannot read type: %v", dec.Err())
	}
	typ = strings.ToUpper(typ)
	if c.state == imap.ConnStateDisconnected && !isStatusType(typ) {
		return nil, fmt.Errorf("%v before the greeting", typ)
	}
	cmd := c.inflight()

	var err error
	switch typ {
	case "OK", "NO", "BAD", "BYE", "PREAUTH": // resp-cond-state, resp-cond-bye, resp-cond-auth
		err = c.handleStatus(imap.StatusResponseType(typ), dec, cmd)
	case "CAPABILITY":
		err = c.handleCapability(dec, cmd)
	case "FLAGS":
		err = c.handleFlags(dec)
	case "EXISTS", "RECENT", "EXPUNGE":
		c.handleMailboxNum(typ, num)
	case "FETCH":
		err = c.handleFetch(num, dec, cmd)
	case "LIST", "LSUB":
		err = c.handleList(dec, cmd)
	case "SEARCH":
		err = c.handleSearch(dec, cmd)
	case "STATUS":
		err = c.handleStatusData(dec, cmd)
	case "NAMESPACE":
		err = c.handleNamespace(dec, cmd)
	case "ACL":
		err = c.handleACL(dec, cmd)
	case "MYRIGHTS":
		err = c.handleMyRights(dec, cmd)
	case "LISTRIGHTS":
		err = c.handleListRights(dec, cmd)
	case "QUOTA":
		err = c.handleQuota(dec, cmd)
	case "QUOTAROOT":
		err = c.handleQuotaRoot(dec, cmd)
	case "ANNOTATION":
		err = c.handleAnnotation(dec, cmd)
	default:
		level.Debug(c.logger).Log("msg", "ignoring untagged response", "type", typ)
		return &UntaggedResponse{Kind: typ, Num: num}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("in %v: %v", typ, err)
	}
	if !isStatusType(typ) && !dec.ExpectEOF() {
		return nil, fmt.Errorf("in %v: %v", typ, dec.Err())
	}
	return &UntaggedResponse{Kind: typ, Num: num}, nil
}

// isStatusType reports whether an untagged response type is a status
// condition, followed by resp-text.
func isStatusType(typ string) bool {
	switch typ {
	case "OK", "NO", "BAD", "BYE", "PREAUTH":
		return true
	}
	return false
}

func (c *Client) handleStatus(typ imap.StatusResponseType, dec *imapwire.Decoder, cmd *Command) error {
	resp := imap.StatusResponse{Type: typ}
	code, err := c.readRespText(dec, &resp, cmd)
	if err != nil {
		return err
	}

	if c.state == imap.ConnStateDisconnected {
		// greeting
		c.greeting = resp.Text
		switch typ {
		case imap.StatusResponseTypeOK:
			c.state = imap.ConnStateConnected
		case imap.StatusResponseTypePreAuth:
			c.state = imap.ConnStateAuthenticated
		}
	}
	c.applyCode(code, cmd)

	switch {
	case resp.Code == imap.ResponseCodeAlert:
		// logged by applyCode
	case typ == imap.StatusResponseTypeBye:
		level.Info(c.logger).Log("msg", "server closing connection", "text", resp.Text)
	case typ == imap.StatusResponseTypeNo || typ == imap.StatusResponseTypeBad:
		level.Warn(c.logger).Log("msg", "server warning", "status", typ, "text", resp.Text)
	}
	return nil
}

func (c *Client) handleFlags(dec *imapwire.Decoder) error {
	if !dec.ExpectSP() {
		return dec.Err()
	}
	flags, err := internal.ReadFlagList(dec)
	if err != nil {
		return err
	}
	if mbox := c.targetMailbox(); mbox != nil {
		mbox.Flags = flags
	}
	return nil
}

func (c *Client) handleMailboxNum(typ string, num uint32) {
	mbox := c.targetMailbox()
	if mbox == nil {
		return
	}
	switch typ {
	case "EXISTS":
		mbox.NumMessages = &num
	case "RECENT":
		mbox.NumRecent = &num
	case "EXPUNGE":
		if mbox.NumMessages != nil && *mbox.NumMessages > 0 {
			n := *mbox.NumMessages - 1
			mbox.NumMessages = &n
		}
	}
}
