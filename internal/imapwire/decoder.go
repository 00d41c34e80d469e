package imapwire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emersion/go-imapengine/internal/utf7"
)

// A Decoder reads IMAP data from one response unit.
//
// A response unit is a line with its terminator stripped, plus any literals
// it announces along with the line that follows each literal. Literal
// payloads that were streamed to a relay while reading are not part of the
// unit; SetRelayed records them.
//
// Most methods report whether they consumed a value. Expect* variants latch
// the first error, which Err returns.
type Decoder struct {
	buf     []byte
	pos     int
	err     error
	relayed map[int]int64

	lastRelayed int64
}

// NewDecoder creates a new decoder for a response unit.
func NewDecoder(unit []byte) *Decoder {
	return &Decoder{buf: unit}
}

// SetRelayed records that size bytes of the literal whose payload starts at
// offset off were relayed instead of stored in the unit.
func (dec *Decoder) SetRelayed(off int, size int64) {
	if dec.relayed == nil {
		dec.relayed = make(map[int]int64)
	}
	dec.relayed[off] = size
}

func (dec *Decoder) Err() error {
	return dec.err
}

func (dec *Decoder) returnErr(err error) bool {
	if err == nil {
		return true
	}
	if dec.err == nil {
		dec.err = err
	}
	return false
}

func (dec *Decoder) peek() (byte, bool) {
	if dec.pos >= len(dec.buf) {
		return 0, false
	}
	return dec.buf[dec.pos], true
}

func (dec *Decoder) acceptByte(want byte) bool {
	if got, ok := dec.peek(); !ok || got != want {
		return false
	}
	dec.pos++
	return true
}

// Remaining returns the unread part of the unit.
func (dec *Decoder) Remaining() string {
	return string(dec.buf[dec.pos:])
}

// EOF returns true if the whole unit was consumed.
func (dec *Decoder) EOF() bool {
	return dec.pos >= len(dec.buf)
}

// Peek reports whether the next byte is b, without consuming it.
func (dec *Decoder) Peek(b byte) bool {
	ch, ok := dec.peek()
	return ok && ch == b
}

func (dec *Decoder) Expect(ok bool, name string) bool {
	if !ok {
		err := fmt.Errorf("expected %v", name)
		if ch, ok := dec.peek(); ok {
			err = fmt.Errorf("%v, got %q", err, string(ch))
		} else {
			err = fmt.Errorf("%v, got end of line", err)
		}
		return dec.returnErr(err)
	}
	return true
}

func (dec *Decoder) ExpectEOF() bool {
	return dec.Expect(dec.EOF(), "end of line")
}

func (dec *Decoder) SP() bool {
	return dec.acceptByte(' ')
}

func (dec *Decoder) ExpectSP() bool {
	return dec.Expect(dec.SP(), "SP")
}

func (dec *Decoder) CRLF() bool {
	return dec.acceptByte('\r') && dec.acceptByte('\n')
}

func (dec *Decoder) readWhile(valid func(ch byte) bool) string {
	start := dec.pos
	for dec.pos < len(dec.buf) && valid(dec.buf[dec.pos]) {
		dec.pos++
	}
	return string(dec.buf[start:dec.pos])
}

func (dec *Decoder) Atom(ptr *string) bool {
	s := dec.readWhile(IsAtomChar)
	if s == "" {
		return false
	}
	*ptr = s
	return true
}

func (dec *Decoder) ExpectAtom(ptr *string) bool {
	return dec.Expect(dec.Atom(ptr), "atom")
}

// Func reads an atom and compares it case-insensitively with want. Nothing
// is consumed if it doesn't match.
func (dec *Decoder) Func(want string) bool {
	start := dec.pos
	var s string
	if !dec.Atom(&s) || !strings.EqualFold(s, want) {
		dec.pos = start
		return false
	}
	return true
}

func (dec *Decoder) Special(b byte) bool {
	return dec.acceptByte(b)
}

func (dec *Decoder) ExpectSpecial(b byte) bool {
	return dec.Expect(dec.Special(b), fmt.Sprintf("'%v'", string(b)))
}

// Text reads the rest of the current line.
func (dec *Decoder) Text(ptr *string) bool {
	s := dec.readWhile(func(ch byte) bool { return ch != '\r' && ch != '\n' })
	if s == "" {
		return false
	}
	*ptr = s
	return true
}

// Skip advances to the next untilCh byte, without consuming it.
func (dec *Decoder) Skip(untilCh byte) {
	dec.readWhile(func(ch byte) bool { return ch != untilCh })
}

func (dec *Decoder) Number64() (v int64, ok bool) {
	start := dec.pos
	s := dec.readWhile(func(ch byte) bool { return ch >= '0' && ch <= '9' })
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		dec.pos = start
		return 0, dec.returnErr(fmt.Errorf("imapwire: number %q out of range", s))
	}
	return v, true
}

func (dec *Decoder) ExpectNumber64() (v int64, ok bool) {
	v, ok = dec.Number64()
	dec.Expect(ok, "number64")
	return v, ok
}

func (dec *Decoder) Number() (v uint32, ok bool) {
	start := dec.pos
	s := dec.readWhile(func(ch byte) bool { return ch >= '0' && ch <= '9' })
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		dec.pos = start
		return 0, dec.returnErr(fmt.Errorf("imapwire: number %q out of range", s))
	}
	return uint32(n), true
}

func (dec *Decoder) ExpectNumber() (v uint32, ok bool) {
	v, ok = dec.Number()
	dec.Expect(ok, "number")
	return v, ok
}

func (dec *Decoder) Quoted(ptr *string) bool {
	if !dec.Special('"') {
		return false
	}
	var sb strings.Builder
	for {
		ch, ok := dec.peek()
		if !ok {
			return dec.returnErr(fmt.Errorf("imapwire: unterminated quoted string"))
		}
		dec.pos++
		if ch == '"' {
			break
		}
		if ch == '\\' {
			if ch, ok = dec.peek(); !ok {
				return dec.returnErr(fmt.Errorf("imapwire: unterminated quoted string"))
			}
			dec.pos++
		}
		sb.WriteByte(ch)
	}
	*ptr = sb.String()
	return true
}

func (dec *Decoder) ExpectQuoted(ptr *string) bool {
	return dec.Expect(dec.Quoted(ptr), "quoted string")
}

// literalHeader parses a literal header "{n}" or "{n+}" followed by CRLF.
func (dec *Decoder) literalHeader() (size int64, ok bool) {
	start := dec.pos
	if !dec.Special('{') {
		return 0, false
	}
	size, ok = dec.Number64()
	if !ok {
		dec.pos = start
		return 0, false
	}
	dec.Special('+')
	if !dec.Special('}') || !dec.CRLF() {
		dec.pos = start
		return 0, false
	}
	return size, true
}

// Literal reads a literal. Bytes that were relayed while the unit was read
// are not returned; Relayed reports their count.
func (dec *Decoder) Literal(ptr *[]byte) bool {
	size, ok := dec.literalHeader()
	if !ok {
		return false
	}
	relayed := dec.relayed[dec.pos]
	kept := size - relayed
	if kept < 0 || int64(len(dec.buf)-dec.pos) < kept {
		return dec.returnErr(fmt.Errorf("imapwire: truncated literal"))
	}
	*ptr = dec.buf[dec.pos : dec.pos+int(kept)]
	dec.pos += int(kept)
	dec.lastRelayed = relayed
	return true
}

func (dec *Decoder) ExpectLiteral(ptr *[]byte) bool {
	return dec.Expect(dec.Literal(ptr), "literal")
}

// Relayed returns the number of relayed bytes of the last literal read.
func (dec *Decoder) Relayed() int64 {
	return dec.lastRelayed
}

func (dec *Decoder) String(ptr *string) bool {
	var b []byte
	if dec.Literal(&b) {
		*ptr = string(b)
		return true
	}
	return dec.Quoted(ptr)
}

func (dec *Decoder) ExpectString(ptr *string) bool {
	return dec.Expect(dec.String(ptr), "string")
}

func (dec *Decoder) AString(ptr *string) bool {
	if dec.String(ptr) {
		return true
	}
	s := dec.readWhile(IsAStringChar)
	if s == "" {
		return false
	}
	*ptr = s
	return true
}

func (dec *Decoder) ExpectAString(ptr *string) bool {
	return dec.Expect(dec.AString(ptr), "ASTRING")
}

// NString reads a string or NIL. The returned bool is false for NIL.
func (dec *Decoder) NString(ptr *string) (isNil bool, ok bool) {
	if dec.Func("NIL") {
		return true, true
	}
	return false, dec.String(ptr)
}

// NStringBytes is like NString but keeps literals as bytes.
func (dec *Decoder) NStringBytes(ptr *[]byte) (isNil bool, ok bool) {
	if dec.Func("NIL") {
		return true, true
	}
	dec.lastRelayed = 0
	if dec.Literal(ptr) {
		return false, true
	}
	var s string
	if !dec.Quoted(&s) {
		return false, false
	}
	*ptr = []byte(s)
	return false, true
}

// Mailbox reads a mailbox name and decodes it from modified UTF-7.
func (dec *Decoder) Mailbox(ptr *string) bool {
	var name string
	if !dec.AString(&name) {
		return false
	}
	if strings.EqualFold(name, "INBOX") {
		*ptr = "INBOX"
		return true
	}
	if decoded, err := utf7.Encoding.NewDecoder().String(name); err == nil {
		name = decoded
	}
	*ptr = name
	return true
}

func (dec *Decoder) ExpectMailbox(ptr *string) bool {
	return dec.Expect(dec.Mailbox(ptr), "mailbox")
}

// List reads a parenthesized list, calling f for each element.
func (dec *Decoder) List(f func() error) (isList bool, err error) {
	if !dec.Special('(') {
		return false, nil
	}
	if dec.Special(')') {
		return true, nil
	}
	for {
		if err := f(); err != nil {
			return true, err
		}
		if dec.Special(')') {
			return true, nil
		}
		if !dec.ExpectSP() {
			return true, dec.Err()
		}
	}
}

func (dec *Decoder) ExpectList(f func() error) error {
	isList, err := dec.List(f)
	if err != nil {
		return err
	} else if !dec.Expect(isList, "(") {
		return dec.Err()
	}
	return nil
}

// FetchAtt reads a FETCH data item name, including a bracketed section and
// a partial "<origin>" suffix, e.g. "BODY[HEADER.FIELDS (SUBJECT)]<0>".
func (dec *Decoder) FetchAtt(ptr *string) bool {
	start := dec.pos
	dec.readWhile(func(ch byte) bool { return ch != '[' && IsAtomChar(ch) })
	if dec.pos == start {
		return false
	}
	if dec.Special('[') {
		dec.Skip(']')
		if !dec.ExpectSpecial(']') {
			return false
		}
		if dec.Special('<') {
			dec.Skip('>')
			if !dec.ExpectSpecial('>') {
				return false
			}
		}
	}
	*ptr = string(dec.buf[start:dec.pos])
	return true
}

func (dec *Decoder) ExpectFetchAtt(ptr *string) bool {
	return dec.Expect(dec.FetchAtt(ptr), "fetch attribute")
}

// Value reads any single value (atom, number, string, literal or nested
// list) and returns its raw text. Relayed literal bytes are not included.
func (dec *Decoder) Value(ptr *string) bool {
	start := dec.pos
	if !dec.skipValue() {
		dec.pos = start
		return false
	}
	*ptr = string(dec.buf[start:dec.pos])
	return true
}

func (dec *Decoder) ExpectValue(ptr *string) bool {
	return dec.Expect(dec.Value(ptr), "value")
}

func (dec *Decoder) skipValue() bool {
	ch, ok := dec.peek()
	if !ok {
		return false
	}
	switch ch {
	case '(':
		isList, err := dec.List(func() error {
			if !dec.ExpectValue(new(string)) {
				return dec.Err()
			}
			return nil
		})
		return isList && err == nil
	case '"':
		return dec.Quoted(new(string))
	case '{':
		return dec.Literal(new([]byte))
	case '\\':
		dec.pos++
		if dec.Special('*') {
			return true
		}
		return dec.Atom(new(string))
	default:
		var s string
		return dec.FetchAtt(&s) || dec.AString(&s)
	}
}

// Flag reads a flag, a keyword or "\*".
func (dec *Decoder) Flag(ptr *string) bool {
	isSystem := dec.Special('\\')
	if isSystem && dec.Special('*') {
		*ptr = "\\*" // flag-perm
		return true
	}
	var name string
	if !dec.Atom(&name) {
		if isSystem {
			dec.pos--
		}
		return false
	}
	if isSystem {
		name = "\\" + name
	}
	*ptr = name
	return true
}

func (dec *Decoder) ExpectFlag(ptr *string) bool {
	return dec.Expect(dec.Flag(ptr), "flag")
}
