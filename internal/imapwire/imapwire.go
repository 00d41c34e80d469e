// Package imapwire implements the IMAP wire protocol.
//
// The IMAP wire protocol is defined in RFC 3501 section 4. The LineReader
// frames the byte stream into lines and literals, the Decoder tokenizes one
// response unit and the Encoder serializes commands.
package imapwire

// IsAtomChar returns true if ch is an ATOM-CHAR.
func IsAtomChar(ch byte) bool {
	switch ch {
	case '(', ')', '{', ' ', '%', '*', '"', '\\', ']':
		return false
	default:
		return !isCTL(ch) && ch <= 0x7F
	}
}

// IsAStringChar returns true if ch is an ASTRING-CHAR: an ATOM-CHAR or a
// resp-special.
func IsAStringChar(ch byte) bool {
	return IsAtomChar(ch) || ch == ']'
}

func isCTL(ch byte) bool {
	return ch < 0x20 || ch == 0x7F
}
