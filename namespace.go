package imap

// NamespaceData is the data returned by the NAMESPACE command.
type NamespaceData struct {
	Personal []NamespaceDescriptor
	Other    []NamespaceDescriptor
	Shared   []NamespaceDescriptor
}

// NamespaceDescriptor describes a namespace.
type NamespaceDescriptor struct {
	Prefix string
	Delim  rune
}

// NamespaceMap maps a namespace prefix to its hierarchy delimiter.
//
// The empty prefix holds the default delimiter.
type NamespaceMap map[string]string

// Add records the descriptors of data in the map.
func (m NamespaceMap) Add(data *NamespaceData) {
	for _, l := range [][]NamespaceDescriptor{data.Personal, data.Other, data.Shared} {
		for _, descr := range l {
			m[descr.Prefix] = delimString(descr.Delim)
		}
	}
}

// Delimiter returns the delimiter of the longest namespace prefix matching
// the mailbox name.
func (m NamespaceMap) Delimiter(mailbox string) (string, bool) {
	var (
		best  string
		found bool
		delim string
	)
	for prefix, d := range m {
		if len(mailbox) < len(prefix) || mailbox[:len(prefix)] != prefix {
			continue
		}
		if !found || len(prefix) > len(best) {
			best, delim, found = prefix, d, true
		}
	}
	return delim, found
}

func delimString(delim rune) string {
	if delim == 0 {
		return ""
	}
	return string(delim)
}
