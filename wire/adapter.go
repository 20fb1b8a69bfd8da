package wire

import (
	"errors"
	"net/netip"

	"github.com/sponge-net/sponge"
)

var errNoRemote = errors.New("wire: adapter has no remote address")

// Adapter carries the segments of a single connection inside IPv4 datagrams.
// An Adapter with a zero Remote is listening: it accepts the first SYN sent
// to Local and learns Remote from it.
type Adapter struct {
	Local  netip.AddrPort
	Remote netip.AddrPort
	// TTL of outgoing datagrams. Zero means [sponge.DefaultTTL].
	TTL uint8
	id  uint16
}

// Wrap encodes seg in a datagram from Local to Remote.
func (a *Adapter) Wrap(seg *sponge.Segment) (sponge.Datagram, error) {
	if !a.Remote.IsValid() {
		return sponge.Datagram{}, errNoRemote
	}
	payload, err := EncodeSegment(a.Local, a.Remote, seg)
	if err != nil {
		return sponge.Datagram{}, err
	}
	ttl := a.TTL
	if ttl == 0 {
		ttl = sponge.DefaultTTL
	}
	a.id++
	return sponge.Datagram{
		Src:      a.Local.Addr(),
		Dst:      a.Remote.Addr(),
		TTL:      ttl,
		Protocol: sponge.ProtocolTCP,
		ID:       a.id,
		Payload:  payload,
	}, nil
}

// Unwrap decodes the segment carried by d. ok is false when d does not belong
// to the adapter's connection. A non-nil error means d was addressed to the
// connection but could not be decoded.
func (a *Adapter) Unwrap(d *sponge.Datagram) (seg sponge.Segment, ok bool, err error) {
	if d.Protocol != sponge.ProtocolTCP || d.Dst != a.Local.Addr() {
		return seg, false, nil
	}
	seg, err = DecodeSegment(d.Src, d.Dst, d.Payload)
	if err != nil {
		return seg, false, err
	}
	if seg.DstPort != a.Local.Port() {
		return seg, false, nil
	}
	src := netip.AddrPortFrom(d.Src, seg.SrcPort)
	switch {
	case a.Remote.IsValid():
		ok = src == a.Remote
	case seg.Flags.HasAny(sponge.FlagSYN):
		a.Remote = src
		ok = true
	}
	return seg, ok, nil
}
