// Package bytestream implements a bounded in-order byte stream with a writer
// side and a reader side. Input may be ended by the writer; the stream reaches
// EOF once input has ended and every written byte has been read.
package bytestream

import (
	"github.com/smallnest/ringbuffer"
)

// ByteStream is a FIFO of bytes that never holds more than its capacity.
// It is not safe for concurrent use.
type ByteStream struct {
	buf      *ringbuffer.RingBuffer
	capacity int
	written  uint64
	read     uint64
	ended    bool
	err      bool
}

// New returns a ByteStream that buffers at most capacity bytes.
func New(capacity int) *ByteStream {
	if capacity < 0 {
		panic("bytestream: negative capacity")
	}
	bs := &ByteStream{capacity: capacity}
	if capacity > 0 {
		bs.buf = ringbuffer.New(capacity)
	}
	return bs
}

// Write appends as much of data as fits and returns the number of bytes
// accepted. Writes after EndInput or after an error are discarded.
func (bs *ByteStream) Write(data []byte) int {
	if bs.ended || bs.err {
		return 0
	}
	n := min(len(data), bs.RemainingCapacity())
	if n == 0 {
		return 0
	}
	n, _ = bs.buf.Write(data[:n])
	bs.written += uint64(n)
	return n
}

// Read removes and returns up to max bytes from the front of the stream.
func (bs *ByteStream) Read(max int) []byte {
	n := min(max, bs.BufferSize())
	if n <= 0 {
		return nil
	}
	out := make([]byte, n)
	n, _ = bs.buf.Read(out)
	bs.read += uint64(n)
	return out[:n]
}

// EndInput signals no more bytes will be written.
func (bs *ByteStream) EndInput() { bs.ended = true }

// InputEnded returns true if the writer ended input.
func (bs *ByteStream) InputEnded() bool { return bs.ended }

// EOF returns true when input has ended and the buffer has been drained.
func (bs *ByteStream) EOF() bool { return bs.ended && bs.BufferEmpty() }

// BytesWritten returns the total number of bytes ever accepted by Write.
func (bs *ByteStream) BytesWritten() uint64 { return bs.written }

// BytesRead returns the total number of bytes ever returned by Read.
func (bs *ByteStream) BytesRead() uint64 { return bs.read }

// BufferSize returns the number of bytes written but not yet read.
func (bs *ByteStream) BufferSize() int {
	if bs.buf == nil {
		return 0
	}
	return bs.buf.Length()
}

// BufferEmpty returns true if there are no buffered bytes.
func (bs *ByteStream) BufferEmpty() bool { return bs.BufferSize() == 0 }

// RemainingCapacity returns how many more bytes Write would accept.
func (bs *ByteStream) RemainingCapacity() int { return bs.capacity - bs.BufferSize() }

// Capacity returns the maximum number of buffered bytes.
func (bs *ByteStream) Capacity() int { return bs.capacity }

// SetError marks the stream as failed. It is used when the owning
// connection is reset.
func (bs *ByteStream) SetError() { bs.err = true }

// Error returns true if the stream was marked as failed.
func (bs *ByteStream) Error() bool { return bs.err }
