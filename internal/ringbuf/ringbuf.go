// Package ringbuf implements a fixed-capacity byte ring buffer.
//
// The buffer never grows: bytes read from the transport land directly in
// the backing array and are consumed from the head, so reading a response
// does not allocate per byte.
package ringbuf

import (
	"errors"
	"io"
)

// ErrFull is returned when data doesn't fit in the remaining space.
var ErrFull = errors.New("ringbuf: buffer full")

// Buffer is a fixed-capacity FIFO of bytes.
//
// head is the index of the first unread byte and tail the index where the
// next byte will be written. Both wrap around at the capacity; n
// disambiguates the full and empty cases where head == tail.
type Buffer struct {
	buf  []byte
	head int
	tail int
	n    int
}

// New creates a buffer holding at most size bytes.
func New(size int) *Buffer {
	if size <= 0 {
		panic("ringbuf: non-positive size")
	}
	return &Buffer{buf: make([]byte, size)}
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return b.n
}

// Cap returns the capacity of the buffer.
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// Free returns the number of bytes that can be written.
func (b *Buffer) Free() int {
	return len(b.buf) - b.n
}

// Reset discards all unread bytes.
func (b *Buffer) Reset() {
	b.head, b.tail, b.n = 0, 0, 0
}

// freeRegion returns the contiguous free space starting at tail.
func (b *Buffer) freeRegion() []byte {
	if b.n == len(b.buf) {
		return nil
	}
	if b.tail >= b.head {
		return b.buf[b.tail:]
	}
	return b.buf[b.tail:b.head]
}

func (b *Buffer) advanceTail(n int) {
	b.tail = (b.tail + n) % len(b.buf)
	b.n += n
}

func (b *Buffer) advanceHead(n int) {
	b.head = (b.head + n) % len(b.buf)
	b.n -= n
	if b.n == 0 {
		b.head, b.tail = 0, 0
	}
}

// Fill performs a single Read from r into the free space. It returns
// ErrFull if there is no space left.
func (b *Buffer) Fill(r io.Reader) (int, error) {
	region := b.freeRegion()
	if len(region) == 0 {
		return 0, ErrFull
	}
	n, err := r.Read(region)
	if n < 0 || n > len(region) {
		return 0, errors.New("ringbuf: invalid read count")
	}
	b.advanceTail(n)
	return n, err
}

// Write appends p to the buffer. Either all of p is written or none of it
// and ErrFull is returned.
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) > b.Free() {
		return 0, ErrFull
	}
	written := 0
	for written < len(p) {
		n := copy(b.freeRegion(), p[written:])
		b.advanceTail(n)
		written += n
	}
	return written, nil
}

// Read consumes up to len(p) bytes. It returns io.EOF when the buffer is
// empty.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.n == 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	read := 0
	for read < len(p) && b.n > 0 {
		end := b.head + b.n
		if end > len(b.buf) {
			end = len(b.buf)
		}
		n := copy(p[read:], b.buf[b.head:end])
		b.advanceHead(n)
		read += n
	}
	return read, nil
}

// Discard drops up to n unread bytes and returns how many were dropped.
func (b *Buffer) Discard(n int) int {
	if n > b.n {
		n = b.n
	}
	if n > 0 {
		b.advanceHead(n)
	}
	return n
}

// At returns the unread byte at offset i from the head.
func (b *Buffer) At(i int) byte {
	if i < 0 || i >= b.n {
		panic("ringbuf: index out of range")
	}
	return b.buf[(b.head+i)%len(b.buf)]
}

// IndexByte returns the offset from the head of the first occurrence of c,
// or -1 if c is not buffered.
func (b *Buffer) IndexByte(c byte) int {
	first := b.head + b.n
	if first > len(b.buf) {
		first = len(b.buf)
	}
	for i, ch := range b.buf[b.head:first] {
		if ch == c {
			return i
		}
	}
	wrapped := b.n - (first - b.head)
	for i, ch := range b.buf[:wrapped] {
		if ch == c {
			return first - b.head + i
		}
	}
	return -1
}
