package imap

import (
	"fmt"
	"strconv"
	"strings"
)

// SeqRange is a single seq-number or seq-range value (RFC 3501 ABNF). Zero
// stands for "*", which is safe because seq-number uses the nz-number rule.
type SeqRange struct {
	Start, Stop uint32
}

// Contains returns true if the non-zero number q is in the range. The
// dynamic range "n:*" contains all q >= n.
func (r SeqRange) Contains(q uint32) bool {
	if q == 0 || r.Start == 0 {
		return false
	}
	return r.Start <= q && (r.Stop == 0 || q <= r.Stop)
}

func (r SeqRange) String() string {
	start := formatSeqNum(r.Start)
	if r.Start == r.Stop {
		return start
	}
	return start + ":" + formatSeqNum(r.Stop)
}

func formatSeqNum(n uint32) string {
	if n == 0 {
		return "*"
	}
	return strconv.FormatUint(uint64(n), 10)
}

// SeqSet is a set of message sequence numbers or UIDs (see sequence-set ABNF
// rule). The zero value is an empty set.
type SeqSet []SeqRange

// SeqSetNum returns a new SeqSet containing the numbers. The value 0
// represents "*".
func SeqSetNum(nums ...uint32) SeqSet {
	var s SeqSet
	s.AddNum(nums...)
	return s
}

// SeqSetRange returns a new SeqSet containing the range.
func SeqSetRange(start, stop uint32) SeqSet {
	var s SeqSet
	s.AddRange(start, stop)
	return s
}

// ParseSeqSet parses the IMAP representation of a sequence set.
func ParseSeqSet(set string) (SeqSet, error) {
	if set == "" {
		return nil, fmt.Errorf("imap: empty sequence set")
	}
	var s SeqSet
	for _, v := range strings.Split(set, ",") {
		startStr, stopStr, isRange := strings.Cut(v, ":")
		start, err := parseSeqNum(startStr)
		if err != nil {
			return nil, err
		}
		stop := start
		if isRange {
			if stop, err = parseSeqNum(stopStr); err != nil {
				return nil, err
			}
		}
		s.AddRange(start, stop)
	}
	return s, nil
}

func parseSeqNum(v string) (uint32, error) {
	if v == "*" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("imap: bad sequence number %q", v)
	}
	return uint32(n), nil
}

// AddNum appends numbers to the set.
func (s *SeqSet) AddNum(nums ...uint32) {
	for _, n := range nums {
		*s = append(*s, SeqRange{n, n})
	}
}

// AddRange appends a range to the set. Bounds are swapped as needed so that
// Start <= Stop, "*" always ends the range.
func (s *SeqSet) AddRange(start, stop uint32) {
	if start == 0 || (stop != 0 && stop < start) {
		start, stop = stop, start
	}
	*s = append(*s, SeqRange{start, stop})
}

// Dynamic returns true if the set contains "*" or "n:*" values.
func (s SeqSet) Dynamic() bool {
	for _, r := range s {
		if r.Start == 0 || r.Stop == 0 {
			return true
		}
	}
	return false
}

// Contains returns true if the non-zero number q is contained in the set.
func (s SeqSet) Contains(q uint32) bool {
	for _, r := range s {
		if r.Contains(q) {
			return true
		}
	}
	return false
}

// String returns the IMAP representation of the set.
func (s SeqSet) String() string {
	l := make([]string, len(s))
	for i, r := range s {
		l[i] = r.String()
	}
	return strings.Join(l, ",")
}
