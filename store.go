package imap

// StoreFlagsOp is a flag operation: set, add or delete.
type StoreFlagsOp int

const (
	StoreFlagsSet StoreFlagsOp = iota
	StoreFlagsAdd
	StoreFlagsDel
)

// StoreFlags alters message flags.
type StoreFlags struct {
	Op     StoreFlagsOp
	Silent bool
	Flags  []Flag
}

// Item returns the STORE data item name, e.g. "+FLAGS.SILENT".
func (store *StoreFlags) Item() string {
	var s string
	switch store.Op {
	case StoreFlagsAdd:
		s = "+"
	case StoreFlagsDel:
		s = "-"
	}
	s += "FLAGS"
	if store.Silent {
		s += ".SILENT"
	}
	return s
}
