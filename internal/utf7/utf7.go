// Package utf7 implements the modified UTF-7 encoding defined in RFC 3501
// section 5.1.3, used for mailbox names.
package utf7

import (
	"encoding/base64"
	"errors"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

const (
	min = 0x20 // Minimum self-representing UTF-7 value
	max = 0x7E // Maximum self-representing UTF-7 value
)

var b64Enc = base64.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+,").WithPadding(base64.NoPadding)

// ErrInvalidUTF7 means that a decoder encountered invalid UTF-7.
var ErrInvalidUTF7 = errors.New("utf7: invalid UTF-7")

// Encoding is the modified UTF-7 encoding.
var Encoding encoding.Encoding = utf7Encoding{}

type utf7Encoding struct{}

func (utf7Encoding) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: decoder{}}
}

func (utf7Encoding) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: encoder{}}
}

// Both transformers work on the whole input: mailbox names are short and
// transform.String always hands over the complete string with atEOF set.

type encoder struct{ transform.NopResetter }

func (encoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	if !atEOF && len(src) > 0 {
		return 0, 0, transform.ErrShortSrc
	}
	out := encode(src)
	if len(out) > len(dst) {
		return 0, 0, transform.ErrShortDst
	}
	return copy(dst, out), len(src), nil
}

func encode(src []byte) []byte {
	var (
		out   = make([]byte, 0, len(src))
		units []uint16
	)
	flush := func() {
		if len(units) == 0 {
			return
		}
		b := make([]byte, 0, 2*len(units))
		for _, u := range units {
			b = append(b, byte(u>>8), byte(u))
		}
		out = append(out, '&')
		out = append(out, b64Enc.EncodeToString(b)...)
		out = append(out, '-')
		units = units[:0]
	}
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		src = src[size:]
		if min <= r && r <= max {
			flush()
			out = append(out, byte(r))
			if r == '&' {
				out = append(out, '-')
			}
			continue
		}
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			units = append(units, uint16(r1), uint16(r2))
		} else {
			units = append(units, uint16(r))
		}
	}
	flush()
	return out
}

type decoder struct{ transform.NopResetter }

func (decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	if !atEOF && len(src) > 0 {
		return 0, 0, transform.ErrShortSrc
	}
	out, err := decode(src)
	if err != nil {
		return 0, 0, err
	}
	if len(out) > len(dst) {
		return 0, 0, transform.ErrShortDst
	}
	return copy(dst, out), len(src), nil
}

func decode(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		ch := src[i]
		if ch < min || ch > max {
			return nil, ErrInvalidUTF7
		}
		if ch != '&' {
			out = append(out, ch)
			continue
		}

		end := i + 1
		for end < len(src) && src[end] != '-' {
			end++
		}
		if end == len(src) {
			return nil, ErrInvalidUTF7
		}
		if end == i+1 {
			out = append(out, '&')
			i = end
			continue
		}

		b, err := b64Enc.DecodeString(string(src[i+1 : end]))
		if err != nil || len(b)%2 != 0 {
			return nil, ErrInvalidUTF7
		}
		units := make([]uint16, len(b)/2)
		for j := range units {
			units[j] = uint16(b[2*j])<<8 | uint16(b[2*j+1])
		}
		for _, r := range utf16.Decode(units) {
			if r == utf8.RuneError || (min <= r && r <= max) {
				// printable ASCII must never be base64-encoded
				return nil, ErrInvalidUTF7
			}
			out = utf8.AppendRune(out, r)
		}
		i = end
	}
	return out, nil
}
