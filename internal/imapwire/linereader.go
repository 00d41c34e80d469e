package imapwire

import (
	"io"
	"net"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/emersion/go-imapengine/internal/ringbuf"
)

const (
	// BufferSize is the size of the window of bytes read from the
	// transport but not consumed yet.
	BufferSize = 8192
	// MaxLineLength is the maximum length of a single line, excluding
	// literals. Longer lines mean the stream is no longer frame-aligned.
	MaxLineLength = 1024 * 1024
)

var (
	// ErrConnectionBroken is returned when the peer closed the connection.
	ErrConnectionBroken = errors.New("imapwire: connection broken")
	// ErrTimeout is returned when the server didn't send anything within
	// the response timeout.
	ErrTimeout = errors.New("imapwire: response timeout")
	// ErrLineTooLong is returned for lines above MaxLineLength.
	ErrLineTooLong = errors.New("imapwire: line too long")
)

// RelayError is returned when the relay writer failed. The value was
// still read in full, so the stream stays frame-aligned.
type RelayError struct {
	Err error
}

func (err *RelayError) Error() string {
	return "imapwire: relay failed: " + err.Err.Error()
}

func (err *RelayError) Unwrap() error {
	return err.Err
}

// Source is the byte stream a LineReader pulls from.
type Source interface {
	io.Reader
	SetReadDeadline(t time.Time) error
}

// LineReader reads CRLF-terminated lines and fixed-size literals from a
// Source.
//
// Bytes pulled from the source land in a fixed ring buffer. Each blocking
// wait for more bytes is bounded by Timeout.
type LineReader struct {
	// Timeout bounds each wait for more data. Zero disables it.
	Timeout time.Duration

	src Source
	buf *ringbuf.Buffer
}

// NewLineReader creates a new line reader.
func NewLineReader(src Source, timeout time.Duration) *LineReader {
	return &LineReader{
		Timeout: timeout,
		src:     src,
		buf:     ringbuf.New(BufferSize),
	}
}

// Buffered returns the number of bytes read from the source but not
// consumed yet.
func (lr *LineReader) Buffered() int {
	return lr.buf.Len()
}

func (lr *LineReader) fill() error {
	if lr.Timeout > 0 {
		if err := lr.src.SetReadDeadline(time.Now().Add(lr.Timeout)); err != nil {
			return errors.Wrap(err, "imapwire: failed to set read deadline")
		}
	}
	n, err := lr.buf.Fill(lr.src)
	if n > 0 {
		// A trailing error is reported by the next fill
		return nil
	}
	switch {
	case err == nil, err == io.EOF, errors.Is(err, io.ErrUnexpectedEOF):
		return ErrConnectionBroken
	case isTimeout(err):
		return ErrTimeout
	default:
		return errors.Wrap(err, "imapwire: read failed")
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// relayState forwards the first limit bytes of a value to w.
type relayState struct {
	w     io.Writer
	limit int64
	n     int64
	err   *RelayError
}

// forward relays the prefix of p still within the limit and returns how
// many bytes of p were relayed. A failing sink stops relaying but the
// stream is still consumed, so framing is preserved.
func (rs *relayState) forward(p []byte) int {
	if rs.w == nil || rs.n >= rs.limit {
		return 0
	}
	if int64(len(p)) > rs.limit-rs.n {
		p = p[:rs.limit-rs.n]
	}
	rs.n += int64(len(p))
	if rs.err == nil {
		if _, err := rs.w.Write(p); err != nil {
			rs.err = &RelayError{Err: err}
		}
	}
	return len(p)
}

// ReadLine returns the next line, including its terminator.
//
// If relay is non-nil, the first relayLimit bytes of the line are written
// to it as they are pulled off the buffer, before the line is complete.
func (lr *LineReader) ReadLine(relay io.Writer, relayLimit int) ([]byte, error) {
	rs := relayState{w: relay, limit: int64(relayLimit)}
	var line []byte
	for {
		n := lr.buf.IndexByte('\n') + 1
		done := n > 0
		if !done {
			n = lr.buf.Len()
		}
		if len(line)+n > MaxLineLength {
			return nil, ErrLineTooLong
		}
		if n > 0 {
			start := len(line)
			line = append(line, make([]byte, n)...)
			lr.buf.Read(line[start:])
			rs.forward(line[start:])
		}
		if done {
			if rs.err != nil {
				return line, rs.err
			}
			return line, nil
		}
		if err := lr.fill(); err != nil {
			return nil, err
		}
	}
}

// ReadExact reads exactly n bytes, regardless of line terminators.
//
// If relay is non-nil, the first relayLimit bytes are written to it as they
// arrive and are not retained: the returned slice only holds the bytes past
// the relayed prefix.
func (lr *LineReader) ReadExact(n int64, relay io.Writer, relayLimit int64) ([]byte, error) {
	rs := relayState{w: relay, limit: relayLimit}
	var (
		kept  []byte
		chunk = make([]byte, BufferSize)
	)
	if relay == nil || relayLimit < n {
		keep := n
		if relay != nil && relayLimit > 0 {
			keep -= relayLimit
		}
		kept = make([]byte, 0, keep)
	}
	for remaining := n; remaining > 0; {
		if lr.buf.Len() == 0 {
			if err := lr.fill(); err != nil {
				return nil, err
			}
		}
		p := chunk
		if int64(len(p)) > remaining {
			p = p[:remaining]
		}
		read, _ := lr.buf.Read(p)
		p = p[:read]
		remaining -= int64(read)

		relayed := rs.forward(p)
		kept = append(kept, p[relayed:]...)
	}
	if rs.err != nil {
		return kept, rs.err
	}
	return kept, nil
}
