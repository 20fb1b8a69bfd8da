package tcp

import (
	"log/slog"

	"github.com/sponge-net/sponge"
	"github.com/sponge-net/sponge/bytestream"
	"github.com/sponge-net/sponge/internal"
)

// Receiver is the receiving half of a TCP endpoint. It learns the remote ISN
// from the SYN, places segment payloads in the inbound stream through a
// [Reassembler] and computes the ackno and window advertised to the remote.
type Receiver struct {
	reassembler *Reassembler
	capacity    int
	isn         sponge.Value
	synReceived bool
	logger      *slog.Logger
}

// NewReceiver returns a Receiver whose inbound stream holds at most capacity bytes.
func NewReceiver(capacity int) *Receiver {
	return &Receiver{
		reassembler: NewReassembler(capacity),
		capacity:    capacity,
	}
}

// SegmentReceived processes a segment from the remote. A SYN received after
// synchronization and any segment received before it are dropped.
func (r *Receiver) SegmentReceived(seg *sponge.Segment) {
	syn := seg.Flags.HasAny(sponge.FlagSYN)
	switch {
	case syn && r.synReceived:
		r.trace("rcv:drop-dup-syn", slog.Uint64("seg.seq", uint64(seg.Seq)))
		return
	case !syn && !r.synReceived:
		r.trace("rcv:drop-unsynced", slog.Uint64("seg.seq", uint64(seg.Seq)))
		return
	case syn:
		r.synReceived = true
		r.isn = seg.Seq
	}
	if !syn && internal.Enabled(r.logger, internal.LevelTrace) {
		r.traceWindow(seg)
	}
	checkpoint := r.reassembler.Output().BytesWritten()
	abs := sponge.Unwrap(seg.Seq, r.isn, checkpoint)
	if syn {
		// Payload on a SYN starts right after the SYN's sequence number.
		abs++
	} else if abs == 0 {
		r.trace("rcv:drop-isn-reuse", slog.Uint64("seg.seq", uint64(seg.Seq)))
		return
	}
	r.reassembler.PushSubstring(seg.Payload, abs-1, seg.Flags.HasAny(sponge.FlagFIN))
}

// Ackno returns the next wire sequence number expected from the remote. ok is
// false before the SYN has been received.
func (r *Receiver) Ackno() (ackno sponge.Value, ok bool) {
	if !r.synReceived {
		return 0, false
	}
	out := r.reassembler.Output()
	abs := out.BytesWritten() + 1
	if out.InputEnded() {
		abs++
	}
	return sponge.Wrap(abs, r.isn), true
}

// WindowSize returns how many more bytes the inbound stream can take.
func (r *Receiver) WindowSize() int {
	return r.capacity - r.reassembler.Output().BufferSize()
}

// UnassembledBytes returns the number of bytes received out of order and not yet assembled.
func (r *Receiver) UnassembledBytes() int { return r.reassembler.UnassembledBytes() }

// StreamOut returns the inbound stream.
func (r *Receiver) StreamOut() *bytestream.ByteStream { return r.reassembler.Output() }

// ISN returns the remote's initial sequence number. ok is false before the SYN.
func (r *Receiver) ISN() (isn sponge.Value, ok bool) { return r.isn, r.synReceived }

// FinReceived returns true once the remote's FIN has been assembled, that is,
// every byte of the inbound stream has arrived.
func (r *Receiver) FinReceived() bool { return r.reassembler.Output().InputEnded() }

// traceWindow reports segments that the reassembler will discard in full,
// either because they were already acknowledged or because they start past
// the advertised window.
func (r *Receiver) traceWindow(seg *sponge.Segment) {
	ackno, _ := r.Ackno()
	end := sponge.Add(seg.Seq, sponge.Size(seg.LenSeq()))
	switch {
	case seg.LenSeq() > 0 && sponge.LessThanEq(end, ackno):
		r.trace("rcv:duplicate", slog.Uint64("seg.seq", uint64(seg.Seq)), slog.Uint64("ackno", uint64(ackno)))
	case !sponge.InWindow(seg.Seq, ackno, sponge.Size(max(r.WindowSize(), 1))):
		r.trace("rcv:out-of-window", slog.Uint64("seg.seq", uint64(seg.Seq)), slog.Uint64("ackno", uint64(ackno)))
	}
}
