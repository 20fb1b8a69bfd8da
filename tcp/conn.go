package tcp

import (
	"errors"
	"log/slog"
	"math"

	"github.com/sponge-net/sponge"
	"github.com/sponge-net/sponge/bytestream"
)

var (
	// ErrConnClosed is returned when closing a connection that is no longer active.
	ErrConnClosed = errors.New("tcp: connection closed")
)

// Conn is a TCP endpoint composed of a [Sender] and a [Receiver]. It runs the
// connection state machine, stamps outgoing segments with the receiver's
// ackno and window and decides when the connection is done.
//
// Conn does no I/O and keeps no clock of its own: segments are fed with
// SegmentReceived, time is advanced with Tick and outgoing segments are
// drained from SegmentsOut after every call. Conn is not safe for concurrent use.
type Conn struct {
	cfg      Config
	sender   *Sender
	receiver *Receiver
	out      SegmentQueue
	// sinceLastSeg is the milliseconds elapsed since the last segment was received.
	sinceLastSeg uint
	linger       bool
	active       bool
	lastPhase    Phase
	logger       *slog.Logger
}

// NewConn returns an active connection in the LISTEN phase. Call Connect to
// actively open it or feed it a SYN with SegmentReceived.
func NewConn(cfg Config) *Conn {
	cfg = cfg.withDefaults()
	c := &Conn{
		cfg:      cfg,
		sender:   NewSender(cfg),
		receiver: NewReceiver(cfg.RecvCapacity),
		linger:   !cfg.DisableLinger,
		active:   true,
	}
	c.lastPhase = c.Phase()
	return c
}

// SetLogger sets the logger of the connection and its sender and receiver.
// A nil logger disables logging.
func (c *Conn) SetLogger(logger *slog.Logger) {
	c.logger = logger
	c.sender.logger = logger
	c.receiver.logger = logger
}

// Connect sends the SYN to actively open the connection.
func (c *Conn) Connect() {
	c.sender.FillWindow()
	c.flush()
}

// SegmentReceived processes a segment from the remote. Segments that make no
// sense for the current phase are dropped silently.
func (c *Conn) SegmentReceived(seg *sponge.Segment) {
	if !c.active {
		return
	}
	c.sinceLastSeg = 0
	_, synced := c.receiver.Ackno()
	switch {
	case !synced && c.sender.NextSeqnoAbsolute() == 0:
		// LISTEN: only a SYN starts the connection.
		if !seg.Flags.HasAny(sponge.FlagSYN) {
			c.trace("conn:listen-drop", slog.String("seg", seg.String()))
			return
		}
		c.receiver.SegmentReceived(seg)
		c.Connect()
		return

	case !synced && !c.sender.synAcked():
		// SYN-SENT: expect a SYN|ACK acknowledging our SYN or a bare SYN.
		if seg.Flags.HasAny(sponge.FlagRST) {
			if seg.Flags.HasAll(sponge.FlagRST|sponge.FlagACK) && seg.Ack == c.sender.NextSeqno() {
				c.info("conn:rst-rcvd", slog.String("phase", PhaseSynSent.String()))
				c.uncleanShutdown()
			}
			return
		}
		if len(seg.Payload) > 0 || !seg.Flags.HasAny(sponge.FlagSYN) {
			c.trace("conn:synsent-drop", slog.String("seg", seg.String()))
			return
		}
		if !seg.Flags.HasAny(sponge.FlagACK) {
			// Simultaneous open.
			c.receiver.SegmentReceived(seg)
			c.sender.SendEmptySegment()
			c.flush()
			return
		}
	}

	if seg.Flags.HasAny(sponge.FlagRST) {
		c.info("conn:rst-rcvd", slog.String("phase", c.Phase().String()))
		c.uncleanShutdown()
		return
	}
	c.receiver.SegmentReceived(seg)
	if seg.Flags.HasAny(sponge.FlagACK) {
		c.sender.AckReceived(seg.Ack, seg.Win)
	}
	c.sender.FillWindow()
	if c.sender.SegmentsOut().Empty() {
		ackno, ok := c.receiver.Ackno()
		keepalive := ok && seg.LenSeq() == 0 && sponge.Sizeof(seg.Seq, ackno) == 1
		if seg.LenSeq() > 0 || keepalive {
			c.sender.SendEmptySegment()
		}
	}
	c.flush()
}

// Write queues data on the outbound stream and sends what the window allows.
// It returns the number of bytes accepted, which is 0 for an inactive connection.
func (c *Conn) Write(data []byte) int {
	if !c.active {
		return 0
	}
	n := c.sender.StreamIn().Write(data)
	c.sender.FillWindow()
	c.flush()
	return n
}

// EndInputStream ends the outbound stream. The FIN is sent once every
// buffered byte is and the window allows it.
func (c *Conn) EndInputStream() {
	if !c.active {
		return
	}
	c.sender.StreamIn().EndInput()
	c.sender.FillWindow()
	c.flush()
}

// Tick advances the connection's clocks by ms milliseconds. A connection whose
// sender exceeds the retransmission limit is reset.
func (c *Conn) Tick(ms uint) {
	if !c.active {
		return
	}
	c.sinceLastSeg += ms
	c.sender.Tick(ms)
	if c.sender.ConsecutiveRetransmissions() > c.cfg.MaxRetxAttempts {
		c.info("conn:retx-exhausted", slog.Uint64("retx", uint64(c.sender.ConsecutiveRetransmissions())))
		c.sendRST()
		return
	}
	c.flush()
}

// Close aborts an active connection sending an RST to the remote. It returns
// [ErrConnClosed] if the connection is no longer active.
func (c *Conn) Close() error {
	if !c.active {
		return ErrConnClosed
	}
	c.sendRST()
	return nil
}

// Abort is a best-effort Close for teardown paths that cannot handle errors.
func (c *Conn) Abort() {
	if err := c.Close(); err != nil {
		c.logerr("conn:abort", slog.String("err", err.Error()))
	}
}

// flush stamps every segment queued by the sender with the receiver's ackno
// and window and moves it to the connection's outgoing queue.
func (c *Conn) flush() {
	ackno, ok := c.receiver.Ackno()
	win := uint16(min(c.receiver.WindowSize(), math.MaxUint16))
	for {
		seg, more := c.sender.SegmentsOut().Pop()
		if !more {
			break
		}
		if ok {
			seg.Flags |= sponge.FlagACK
			seg.Ack = ackno
		}
		seg.Win = win
		c.trace("conn:out", slog.String("seg", seg.String()))
		c.out.Push(seg)
	}
	if c.receiver.FinReceived() && !c.sender.StreamIn().EOF() {
		// The remote closed first: no need to linger.
		c.linger = false
	}
	if c.cleanShutdownReady() {
		c.active = false
	}
	c.notePhase()
}

// cleanShutdownReady reports whether both streams are finished and
// acknowledged and any lingering is over.
func (c *Conn) cleanShutdownReady() bool {
	return c.receiver.FinReceived() &&
		c.sender.FinSent() && c.sender.BytesInFlight() == 0 &&
		(!c.linger || c.sinceLastSeg >= 10*c.cfg.RTTimeout)
}

// sendRST discards pending segments, queues an RST for the remote and shuts
// the connection down.
func (c *Conn) sendRST() {
	c.sender.SegmentsOut().Clear()
	c.sender.SendEmptySegment()
	seg, _ := c.sender.SegmentsOut().Pop()
	seg.Flags |= sponge.FlagRST
	if ackno, ok := c.receiver.Ackno(); ok {
		seg.Flags |= sponge.FlagACK
		seg.Ack = ackno
	}
	seg.Win = uint16(min(c.receiver.WindowSize(), math.MaxUint16))
	c.info("conn:rst-sent", slog.String("seg", seg.String()))
	c.out.Push(seg)
	c.uncleanShutdown()
}

// uncleanShutdown puts both streams in error and deactivates the connection.
func (c *Conn) uncleanShutdown() {
	c.receiver.StreamOut().SetError()
	c.sender.StreamIn().SetError()
	c.active = false
	c.notePhase()
}

func (c *Conn) notePhase() {
	phase := c.Phase()
	if phase != c.lastPhase {
		c.info("conn:phase", slog.String("old", c.lastPhase.String()), slog.String("new", phase.String()))
		c.lastPhase = phase
	}
}

// Phase returns the connection's state as seen from its sender and receiver.
func (c *Conn) Phase() Phase {
	if !c.active {
		if c.sender.StreamIn().Error() || c.receiver.StreamOut().Error() {
			return PhaseReset
		}
		return PhaseClosed
	}
	s := c.sender
	_, synced := c.receiver.Ackno()
	finRcvd := c.receiver.FinReceived()
	switch {
	case s.NextSeqnoAbsolute() == 0:
		return PhaseListen
	case !s.synAcked():
		if synced {
			return PhaseSynRcvd
		}
		return PhaseSynSent
	case !s.FinSent():
		if finRcvd {
			return PhaseCloseWait
		}
		return PhaseEstablished
	case s.BytesInFlight() > 0:
		switch {
		case !finRcvd:
			return PhaseFinWait1
		case c.linger:
			return PhaseClosing
		}
		return PhaseLastAck
	case !finRcvd:
		return PhaseFinWait2
	}
	return PhaseTimeWait
}

// Active returns false once the connection has finished or was reset.
func (c *Conn) Active() bool { return c.active }

// BytesInFlight returns the sequence numbers sent but not yet acknowledged.
func (c *Conn) BytesInFlight() uint64 { return c.sender.BytesInFlight() }

// RemainingOutboundCapacity returns how many more bytes Write would accept.
func (c *Conn) RemainingOutboundCapacity() int { return c.sender.StreamIn().RemainingCapacity() }

// UnassembledBytes returns the bytes received out of order and not yet assembled.
func (c *Conn) UnassembledBytes() int { return c.receiver.UnassembledBytes() }

// TimeSinceLastSegmentReceived returns milliseconds since the last segment arrived.
func (c *Conn) TimeSinceLastSegmentReceived() uint { return c.sinceLastSeg }

// SegmentsOut returns the queue of segments to be transmitted to the remote.
func (c *Conn) SegmentsOut() *SegmentQueue { return &c.out }

// InboundStream returns the stream of bytes received from the remote.
func (c *Conn) InboundStream() *bytestream.ByteStream { return c.receiver.StreamOut() }
