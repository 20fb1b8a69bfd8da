package sponge

import (
	"fmt"
	"strconv"
	"unsafe"
)

// Header is the part of a TCP header the data plane cares about. Options,
// checksum and urgent pointer are handled by the wire codec.
type Header struct {
	SrcPort uint16
	DstPort uint16
	// Seq is the sequence number of the first octet of the segment. If SYN is
	// set it is the initial sequence number (ISN) and the first data octet is ISN+1.
	Seq Value
	// Ack is the next sequence number the sender of the segment expects to
	// receive. Only meaningful when FlagACK is set.
	Ack   Value
	Flags Flags
	// Win is the number of octets the sender of the segment is willing to accept
	// beginning with Ack.
	Win uint16
}

// Segment is a TCP segment: a header and its payload.
type Segment struct {
	Header
	Payload []byte
}

// LenSeq returns the number of sequence numbers occupied by the segment:
// payload length plus one for each of SYN and FIN.
func (seg *Segment) LenSeq() uint64 {
	n := uint64(len(seg.Payload))
	if seg.Flags.HasAny(FlagSYN) {
		n++
	}
	if seg.Flags.HasAny(FlagFIN) {
		n++
	}
	return n
}

// String returns a RFC9293 styled representation of the segment i.e:
//
//	<SEQ=300><ACK=91><DATA=12>[SYN,ACK]
func (seg *Segment) String() string {
	b := appendSegment(make([]byte, 0, 48), seg)
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// StringExchange returns a string representation of a segment exchange over
// a network in RFC9293 styled visualization. invertDir inverts the arrow directions.
// i.e:
//
//	SynSent     --> <SEQ=300><ACK=91>[SYN,ACK]  --> SynRcvd
func StringExchange(seg Segment, A, B fmt.Stringer, invertDir bool) string {
	b := make([]byte, 0, 64)
	dirSep := " --> "
	if invertDir {
		dirSep = " <-- "
	}
	astr := A.String()
	b = append(b, astr...)
	b = pad(b, 11) // Fill up to 11 characters.
	b = append(b, dirSep...)
	b = appendSegment(b, &seg)
	b = pad(b, 44)
	b = append(b, dirSep...)
	b = append(b, B.String()...)
	return unsafe.String(unsafe.SliceData(b), len(b))
}

func appendSegment(buf []byte, seg *Segment) []byte {
	appendVal := func(buf []byte, name string, i uint64) []byte {
		buf = append(buf, '<')
		buf = append(buf, name...)
		buf = append(buf, '=')
		buf = strconv.AppendUint(buf, i, 10)
		return append(buf, '>')
	}
	buf = appendVal(buf, "SEQ", uint64(seg.Seq))
	if seg.Flags.HasAny(FlagACK) {
		buf = appendVal(buf, "ACK", uint64(seg.Ack))
	}
	if len(seg.Payload) > 0 {
		buf = appendVal(buf, "DATA", uint64(len(seg.Payload)))
	}
	return append(buf, seg.Flags.String()...)
}

func pad(b []byte, n int) []byte {
	for len(b) < n {
		b = append(b, ' ')
	}
	return b
}
