package tcp

import (
	"slices"
	"sort"

	"github.com/sponge-net/sponge/bytestream"
)

// chunk is a run of bytes that arrived ahead of the assembled stream.
type chunk struct {
	index uint64
	data  []byte
}

func (c chunk) end() uint64 { return c.index + uint64(len(c.data)) }

// Reassembler puts substrings of a byte stream, each tagged with its stream
// index, back in order and writes them to an output [bytestream.ByteStream].
// Substrings may arrive out of order, overlapping or duplicated.
//
// Bytes held by the output stream plus bytes pending reassembly never exceed
// the capacity given at construction: the acceptance window spans
// [FirstUnassembled, Output().BytesRead()+capacity).
type Reassembler struct {
	output   *bytestream.ByteStream
	capacity int
	// pending is sorted by index and holds no two overlapping chunks.
	pending     []chunk
	unassembled int
	eof         bool
	eofIndex    uint64
}

// NewReassembler returns a Reassembler whose output stream has the given capacity.
func NewReassembler(capacity int) *Reassembler {
	return &Reassembler{
		output:   bytestream.New(capacity),
		capacity: capacity,
	}
}

// PushSubstring accepts data starting at stream index. eof marks data as the
// last substring of the stream. Bytes outside the acceptance window are
// discarded along with an eof whose substring had its tail discarded.
func (r *Reassembler) PushSubstring(data []byte, index uint64, eof bool) {
	if r.output.Error() {
		return
	}
	first := r.FirstUnassembled()
	limit := r.output.BytesRead() + uint64(r.capacity)
	end := index + uint64(len(data))
	if eof && !r.eof && end <= limit && end >= first {
		r.eof = true
		r.eofIndex = end
	}

	start := index
	if start < first {
		if end <= first {
			data = nil
		} else {
			data = data[first-start:]
		}
		start = first
	}
	if end > limit {
		if start >= limit {
			data = nil
		} else {
			data = data[:limit-start]
		}
	}
	if len(data) > 0 {
		r.insert(start, data)
	}
	r.assemble()
}

// insert stores data at index merging it with every pending chunk it overlaps.
func (r *Reassembler) insert(index uint64, data []byte) {
	end := index + uint64(len(data))
	lo := sort.Search(len(r.pending), func(i int) bool { return r.pending[i].end() > index })
	hi := sort.Search(len(r.pending), func(i int) bool { return r.pending[i].index >= end })
	mstart, mend := index, end
	if lo < hi {
		mstart = min(mstart, r.pending[lo].index)
		mend = max(mend, r.pending[hi-1].end())
	}
	merged := make([]byte, mend-mstart)
	if lo < hi {
		lead := r.pending[lo]
		copy(merged[lead.index-mstart:], lead.data)
		last := r.pending[hi-1]
		copy(merged[last.index-mstart:], last.data)
	}
	copy(merged[index-mstart:], data)
	for _, c := range r.pending[lo:hi] {
		r.unassembled -= len(c.data)
	}
	r.unassembled += len(merged)
	r.pending = slices.Replace(r.pending, lo, hi, chunk{index: mstart, data: merged})
}

// assemble writes every chunk contiguous with the assembled stream to the
// output and ends the output once the stream's last byte has been written.
func (r *Reassembler) assemble() {
	for len(r.pending) > 0 && r.pending[0].index == r.FirstUnassembled() {
		c := r.pending[0]
		n := r.output.Write(c.data)
		r.unassembled -= n
		if n < len(c.data) {
			r.pending[0] = chunk{index: c.index + uint64(n), data: c.data[n:]}
			break
		}
		r.pending = slices.Delete(r.pending, 0, 1)
	}
	if r.eof && len(r.pending) == 0 && r.FirstUnassembled() == r.eofIndex && !r.output.InputEnded() {
		r.output.EndInput()
	}
}

// UnassembledBytes returns the number of bytes stored but not yet written to the output.
func (r *Reassembler) UnassembledBytes() int { return r.unassembled }

// Empty returns true if no bytes are pending reassembly.
func (r *Reassembler) Empty() bool { return r.unassembled == 0 }

// FirstUnassembled returns the stream index of the next byte the output expects.
func (r *Reassembler) FirstUnassembled() uint64 { return r.output.BytesWritten() }

// Output returns the reassembled stream.
func (r *Reassembler) Output() *bytestream.ByteStream { return r.output }
