package imap

// SearchData is the data returned by a SEARCH command.
type SearchData struct {
	// Either sequence numbers or UIDs, depending on the command
	Nums []uint32
}
