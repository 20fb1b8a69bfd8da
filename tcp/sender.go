package tcp

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"

	"github.com/sponge-net/sponge"
	"github.com/sponge-net/sponge/bytestream"
)

// SegmentQueue holds segments waiting to be transmitted.
type SegmentQueue = sponge.Queue[sponge.Segment]

// outstanding is a transmitted segment that has not been fully acknowledged.
type outstanding struct {
	abs uint64
	seg sponge.Segment
}

// Sender is the sending half of a TCP endpoint. It reads the outbound stream
// into segments that fit the remote's advertised window, keeps them until
// acknowledged and retransmits the oldest one when the [Timer] expires.
//
// Segments leave the Sender through [Sender.SegmentsOut] with only Seq,
// flags and payload set; the ack and window fields belong to the receiver.
type Sender struct {
	isn        sponge.Value
	stream     *bytestream.ByteStream
	out        SegmentQueue
	unacked    sponge.Queue[outstanding]
	next       uint64
	inflight   uint64
	lastAckno  uint64
	window     uint16
	retx       uint
	timer      Timer
	initialRTO uint
	maxPayload int
	synSent    bool
	finSent    bool
	logger     *slog.Logger
}

// NewSender returns a Sender configured by cfg. Zero fields of cfg take
// their default value.
func NewSender(cfg Config) *Sender {
	cfg = cfg.withDefaults()
	var isn sponge.Value
	if cfg.FixedISN != nil {
		isn = *cfg.FixedISN
	} else {
		isn = randomISN()
	}
	return &Sender{
		isn:        isn,
		stream:     bytestream.New(cfg.SendCapacity),
		initialRTO: cfg.RTTimeout,
		timer:      NewTimer(cfg.RTTimeout),
		maxPayload: cfg.MaxPayloadSize,
		// Until the remote advertises a window assume it can take the SYN.
		window: 1,
	}
}

func randomISN() sponge.Value {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("tcp: reading random ISN: " + err.Error())
	}
	return sponge.Value(binary.BigEndian.Uint32(b[:]))
}

// FillWindow sends as many segments as the remote's window allows. The first
// call sends a bare SYN. Nothing else is sent until the SYN is acknowledged.
// A zero window is probed with a single sequence number.
func (s *Sender) FillWindow() {
	if !s.synSent {
		s.synSent = true
		s.send(sponge.Segment{Header: sponge.Header{Flags: sponge.FlagSYN}})
		return
	}
	if s.next == s.inflight {
		return // SYN not yet acknowledged.
	}
	window := int64(s.window)
	if window == 0 {
		window = 1
	}
	for !s.finSent {
		remaining := window - int64(s.next-s.lastAckno)
		if remaining <= 0 {
			return
		}
		var seg sponge.Segment
		seg.Payload = s.stream.Read(int(min(remaining, int64(s.maxPayload))))
		if s.stream.EOF() && int64(len(seg.Payload)) < remaining {
			seg.Flags |= sponge.FlagFIN
			s.finSent = true
		}
		if seg.LenSeq() == 0 {
			return
		}
		s.send(seg)
	}
}

func (s *Sender) send(seg sponge.Segment) {
	seg.Seq = sponge.Wrap(s.next, s.isn)
	if !s.timer.IsRunning() {
		s.timer.Start()
	}
	s.out.Push(seg)
	s.unacked.Push(outstanding{abs: s.next, seg: seg})
	n := seg.LenSeq()
	s.next += n
	s.inflight += n
	s.trace("snd:send", slog.Uint64("abs", s.next-n), slog.Uint64("len", n), slog.String("flags", seg.Flags.String()))
}

// AckReceived processes an acknowledgment and window advertisement from the
// remote. Acks beyond the next sequence number or behind the oldest
// outstanding segment are ignored.
func (s *Sender) AckReceived(ackno sponge.Value, window uint16) {
	abs := sponge.Unwrap(ackno, s.isn, s.next)
	if abs > s.next {
		s.trace("snd:ack-future", slog.Uint64("ackno", abs), slog.Uint64("next", s.next))
		return
	}
	if front, ok := s.unacked.Front(); ok && abs < front.abs || !ok && abs < s.lastAckno {
		s.trace("snd:ack-stale", slog.Uint64("ackno", abs))
		return
	}
	s.window = window
	if abs > s.lastAckno {
		s.lastAckno = abs
		s.timer.SetRTO(s.initialRTO)
		s.retx = 0
		s.timer.Start()
	}
	for {
		front, ok := s.unacked.Front()
		if !ok || front.abs+front.seg.LenSeq() > abs {
			break
		}
		s.unacked.Pop()
		s.inflight -= front.seg.LenSeq()
	}
	s.FillWindow()
	if s.unacked.Empty() {
		s.timer.Stop()
	}
}

// Tick advances the retransmission timer by ms milliseconds. On expiry the
// oldest outstanding segment is retransmitted and, unless the remote's window
// is zero, the timeout doubles.
func (s *Sender) Tick(ms uint) {
	if !s.timer.IsRunning() {
		return
	}
	s.timer.Tick(ms)
	if !s.timer.IsExpired() {
		return
	}
	front, ok := s.unacked.Front()
	if !ok {
		s.timer.Stop()
		return
	}
	s.out.Push(front.seg)
	if s.window > 0 {
		s.retx++
		s.timer.SetRTO(2 * s.timer.RTO())
	}
	s.debug("snd:retransmit", slog.Uint64("abs", front.abs), slog.Uint64("retx", uint64(s.retx)), slog.Uint64("rto", uint64(s.timer.RTO())))
	s.timer.Start()
}

// SendEmptySegment queues a zero-length segment at the next sequence number.
// It is not tracked for retransmission.
func (s *Sender) SendEmptySegment() {
	s.out.Push(sponge.Segment{Header: sponge.Header{Seq: sponge.Wrap(s.next, s.isn)}})
}

// BytesInFlight returns the sequence numbers sent but not yet acknowledged.
func (s *Sender) BytesInFlight() uint64 { return s.inflight }

// ConsecutiveRetransmissions returns the retransmissions since the last new ack.
func (s *Sender) ConsecutiveRetransmissions() uint { return s.retx }

// NextSeqnoAbsolute returns the absolute sequence number of the next byte to send.
func (s *Sender) NextSeqnoAbsolute() uint64 { return s.next }

// NextSeqno returns the wire sequence number of the next byte to send.
func (s *Sender) NextSeqno() sponge.Value { return sponge.Wrap(s.next, s.isn) }

// StreamIn returns the outbound stream written by the application.
func (s *Sender) StreamIn() *bytestream.ByteStream { return s.stream }

// SegmentsOut returns the queue of segments ready to be transmitted.
func (s *Sender) SegmentsOut() *SegmentQueue { return &s.out }

// ISN returns the local initial sequence number.
func (s *Sender) ISN() sponge.Value { return s.isn }

// FinSent returns true once the FIN has been sent.
func (s *Sender) FinSent() bool { return s.finSent }

// RTO returns the current retransmission timeout in milliseconds.
func (s *Sender) RTO() uint { return s.timer.RTO() }

func (s *Sender) synAcked() bool { return s.next > s.inflight }
