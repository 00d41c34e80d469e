package imap

// Annotation attribute names used with ANNOTATEMORE.
const (
	AnnotationValueShared  = "value.shared"
	AnnotationValuePrivate = "value.priv"
)

// AnnotationData is the data returned by an ANNOTATION response
// (draft-daboo-imap-annotatemore).
type AnnotationData struct {
	Mailbox string
	Entry   string
	// Attributes maps attribute names (e.g. "value.shared") to values. A
	// NIL value is stored as an absent key.
	Attributes map[string]string
}
