package imapclient

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/textproto"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

const dateTimeLayout = "_2-Jan-2006 15:04:05 -0700"

// FetchArgs are the arguments of FETCH and UID FETCH.
type FetchArgs struct {
	UID    bool
	SeqSet imap.SeqSet
	Items  []imap.FetchItem
}

func (args *FetchArgs) Kind() Kind {
	if args.UID {
		return KindUIDFetch
	}
	return KindFetch
}

func (args *FetchArgs) encodeArgs(enc *imapwire.Encoder) {
	items := args.Items
	// Ensure we request UID as the first data item for UID FETCH, to be safer.
	// We want to get it before any literal.
	if args.UID {
		withUID := []imap.FetchItem{imap.FetchItemUID}
		for _, item := range items {
			if item != imap.FetchItemUID {
				withUID = append(withUID, item)
			}
		}
		items = withUID
	}

	enc.SP().SeqSet(args.SeqSet).SP()
	if len(items) == 1 && isFetchMacro(items[0]) {
		enc.Atom(string(items[0]))
		return
	}
	enc.List(len(items), func(i int) {
		enc.Atom(string(items[i]))
	})
}

func isFetchMacro(item imap.FetchItem) bool {
	switch item {
	case imap.FetchItemAll, imap.FetchItemFast, imap.FetchItemFull:
		return true
	}
	return false
}

// Fetch sends a FETCH command and returns the messages sorted by sequence
// number.
func (c *Client) Fetch(seqSet imap.SeqSet, items ...imap.FetchItem) ([]*imap.FetchData, error) {
	return c.fetch(&FetchArgs{SeqSet: seqSet, Items: items}, nil)
}

// UIDFetch sends a UID FETCH command.
//
// See Fetch.
func (c *Client) UIDFetch(uidSet imap.SeqSet, items ...imap.FetchItem) ([]*imap.FetchData, error) {
	return c.fetch(&FetchArgs{UID: true, SeqSet: uidSet, Items: items}, nil)
}

// FetchTo is like Fetch, but message body sections are streamed to w as
// they are read. FetchData.Relayed records their size.
func (c *Client) FetchTo(args *FetchArgs, w io.Writer) ([]*imap.FetchData, error) {
	return c.fetch(args, w)
}

func (c *Client) fetch(args *FetchArgs, relay io.Writer) ([]*imap.FetchData, error) {
	cmd, err := c.Send(args)
	if err != nil {
		return nil, err
	}
	defer c.CompleteAndRemove(cmd)

	cmd.SetRelay(relay)
	if err := c.wait(cmd); err != nil {
		return nil, err
	}
	if err := cmd.Err(); err != nil {
		return nil, err
	}
	if err := cmd.RelayErr(); err != nil {
		return cmd.Messages(), err
	}
	return cmd.Messages(), nil
}

func (c *Client) handleFetch(seqNum uint32, dec *imapwire.Decoder, cmd *Command) error {
	if !dec.ExpectSP() {
		return dec.Err()
	}

	var data *imap.FetchData
	if cmd != nil {
		data = cmd.fetchEntry(seqNum)
	} else {
		// unilateral flag update
		data = &imap.FetchData{SeqNum: seqNum}
	}

	err := dec.ExpectList(func() error {
		var name string
		if !dec.ExpectFetchAtt(&name) || !dec.ExpectSP() {
			return dec.Err()
		}

		switch key := strings.ToUpper(name); key {
		case "UID":
			uid, ok := dec.ExpectNumber()
			if !ok {
				return dec.Err()
			}
			data.UID = uid
		case "RFC822.SIZE":
			size, ok := dec.ExpectNumber64()
			if !ok {
				return dec.Err()
			}
			data.Size = &size
		case "FLAGS":
			flags, err := internal.ReadFlagList(dec)
			if err != nil {
				return err
			}
			data.Flags = flags
		case "INTERNALDATE":
			t, err := readDateTime(dec)
			if err != nil {
				return err
			}
			data.InternalDate = t
		case "ENVELOPE":
			if !dec.ExpectValue(&data.Envelope) {
				return dec.Err()
			}
		case "BODY", "BODYSTRUCTURE":
			if !dec.ExpectValue(&data.BodyStructure) {
				return dec.Err()
			}
		default:
			if !isSection(key) {
				// skip items we don't keep
				var v string
				if !dec.ExpectValue(&v) {
					return dec.Err()
				}
				return nil
			}
			return readSection(dec, data, key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("in msg-att: %v", err)
	}
	return nil
}

func readDateTime(dec *imapwire.Decoder) (time.Time, error) {
	var s string
	if !dec.Expect(dec.Quoted(&s), "date-time") {
		return time.Time{}, dec.Err()
	}
	t, err := time.Parse(dateTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("in date-time: %v", err)
	}
	return t, err
}

func readSection(dec *imapwire.Decoder, data *imap.FetchData, key string) error {
	var b []byte
	isNil, ok := dec.NStringBytes(&b)
	if !dec.Expect(ok, "nstring") {
		return dec.Err()
	}
	if isNil {
		return nil
	}

	if relayed := dec.Relayed(); relayed > 0 {
		if data.Relayed == nil {
			data.Relayed = make(map[string]int64)
		}
		data.Relayed[key] = relayed
		if len(b) == 0 {
			return nil
		}
	}
	if data.Sections == nil {
		data.Sections = make(map[string][]byte)
	}
	data.Sections[key] = b

	if isHeaderSection(key) {
		return mergeHeader(&data.Header, b)
	}
	return nil
}

// mergeHeader adds the header fields of a header section.
func mergeHeader(h *textproto.Header, b []byte) error {
	if !bytes.HasSuffix(b, []byte("\r\n\r\n")) {
		b = append(append([]byte(nil), b...), "\r\n"...)
	}
	parsed, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(b)))
	if err != nil {
		return fmt.Errorf("in header section: %v", err)
	}
	fields := parsed.Fields()
	for fields.Next() {
		h.Add(fields.Key(), fields.Value())
	}
	return nil
}

// isSection reports whether a FETCH item name carries message contents.
func isSection(key string) bool {
	switch key {
	case "RFC822", "RFC822.HEADER", "RFC822.TEXT":
		return true
	}
	return strings.HasPrefix(key, "BODY[") || strings.HasPrefix(key, "BINARY[")
}

func sectionSpec(key string) string {
	start := strings.IndexByte(key, '[')
	end := strings.LastIndexByte(key, ']')
	if start < 0 || end < start {
		return ""
	}
	return key[start+1 : end]
}

func isHeaderSection(key string) bool {
	if key == "RFC822.HEADER" {
		return true
	}
	return strings.Contains(sectionSpec(key), "HEADER")
}

// isBodySection reports whether a FETCH item name is a message body
// section: its contents can be relayed.
func isBodySection(key string) bool {
	if !isSection(key) || isHeaderSection(key) {
		return false
	}
	return !strings.HasSuffix(sectionSpec(key), "MIME")
}

// relayFor returns the relay of the in-flight command if the literal
// announced at the end of unit is a message body section of a FETCH
// response.
func (c *Client) relayFor(unit []byte) io.Writer {
	cmd := c.inflight()
	if cmd == nil || cmd.relay == nil || !isFetchUnit(unit) {
		return nil
	}
	if !isBodySection(strings.ToUpper(literalItemName(unit))) {
		return nil
	}
	return cmd.relay
}

func isFetchUnit(unit []byte) bool {
	fields := strings.Fields(firstLine(unit))
	return len(fields) >= 3 && fields[0] == "*" && strings.EqualFold(fields[2], "FETCH")
}

// literalItemName returns the FETCH item name preceding the literal header
// that ends unit.
func literalItemName(unit []byte) string {
	s := strings.TrimSuffix(string(unit), "\r\n")
	if i := strings.LastIndexByte(s, '{'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, " ")

	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ']', '>':
			depth++
		case '[', '<':
			depth--
		case ' ', '(':
			if depth == 0 {
				return s[i+1:]
			}
		}
	}
	return s
}
