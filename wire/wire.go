// Package wire encodes and decodes TCP segments and IPv4 datagrams to and
// from their on-the-wire representation.
package wire

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/sponge-net/sponge"
)

var (
	ErrBadChecksum = errors.New("wire: bad checksum")
	ErrNotIPv4     = errors.New("wire: not an IPv4 address or packet")
)

var serializeOpts = gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}

// EncodeSegment returns the TCP header and payload of seg with ports taken
// from src and dst and the checksum computed over the IPv4 pseudo-header.
func EncodeSegment(src, dst netip.AddrPort, seg *sponge.Segment) ([]byte, error) {
	tcp := tcpLayer(seg)
	tcp.SrcPort = layers.TCPPort(src.Port())
	tcp.DstPort = layers.TCPPort(dst.Port())
	if err := setPseudoHeader(tcp, src.Addr(), dst.Addr()); err != nil {
		return nil, err
	}
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, serializeOpts, tcp, gopacket.Payload(seg.Payload))
	if err != nil {
		return nil, fmt.Errorf("wire: encoding segment: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSegment parses b, a TCP header and payload sent from src to dst. The
// checksum is verified over b as received, options and padding included,
// against the IPv4 pseudo-header of src and dst.
func DecodeSegment(src, dst netip.Addr, b []byte) (sponge.Segment, error) {
	if !src.Unmap().Is4() || !dst.Unmap().Is4() {
		return sponge.Segment{}, ErrNotIPv4
	}
	var tcp layers.TCP
	if err := tcp.DecodeFromBytes(b, gopacket.NilDecodeFeedback); err != nil {
		return sponge.Segment{}, fmt.Errorf("wire: decoding segment: %w", err)
	}
	if len(b) > math.MaxUint16 {
		return sponge.Segment{}, fmt.Errorf("wire: decoding segment: %d bytes exceed an IPv4 payload", len(b))
	}
	src4, dst4 := src.Unmap().As4(), dst.Unmap().As4()
	var crc checksum
	crc.Write(src4[:])
	crc.Write(dst4[:])
	crc.AddUint16(uint16(layers.IPProtocolTCP)) // Pads with 0.
	crc.AddUint16(uint16(len(b)))
	crc.Write(b)
	if crc.Sum16() != 0 {
		return sponge.Segment{}, fmt.Errorf("%w: segment checksum %#04x", ErrBadChecksum, tcp.Checksum)
	}
	payload := append([]byte(nil), tcp.Payload...)
	seg := sponge.Segment{
		Header: sponge.Header{
			SrcPort: uint16(tcp.SrcPort),
			DstPort: uint16(tcp.DstPort),
			Seq:     sponge.Value(tcp.Seq),
			Ack:     sponge.Value(tcp.Ack),
			Flags:   flagsOf(&tcp),
			Win:     tcp.Window,
		},
	}
	if len(payload) > 0 {
		seg.Payload = payload
	}
	return seg, nil
}

// EncodeDatagram returns the IPv4 packet for d with its header checksum set.
func EncodeDatagram(d *sponge.Datagram) ([]byte, error) {
	if !d.Src.Unmap().Is4() || !d.Dst.Unmap().Is4() {
		return nil, ErrNotIPv4
	}
	ip := &layers.IPv4{
		Version:  4,
		Id:       d.ID,
		Flags:    layers.IPv4DontFragment,
		TTL:      d.TTL,
		Protocol: layers.IPProtocol(d.Protocol),
		SrcIP:    ipOf(d.Src),
		DstIP:    ipOf(d.Dst),
	}
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, ip, gopacket.Payload(d.Payload)); err != nil {
		return nil, fmt.Errorf("wire: encoding datagram: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDatagram parses an IPv4 packet and verifies its header checksum.
func DecodeDatagram(b []byte) (sponge.Datagram, error) {
	var ip layers.IPv4
	if err := ip.DecodeFromBytes(b, gopacket.NilDecodeFeedback); err != nil {
		return sponge.Datagram{}, fmt.Errorf("wire: decoding datagram: %w", err)
	}
	if ip.Version != 4 {
		return sponge.Datagram{}, ErrNotIPv4
	}
	var crc checksum
	crc.Write(b[:int(ip.IHL)*4])
	if crc.Sum16() != 0 {
		return sponge.Datagram{}, fmt.Errorf("%w: datagram checksum %#04x", ErrBadChecksum, ip.Checksum)
	}
	payload := append([]byte(nil), ip.Payload...)
	src, _ := netip.AddrFromSlice(ip.SrcIP)
	dst, _ := netip.AddrFromSlice(ip.DstIP)
	return sponge.Datagram{
		Src:      src.Unmap(),
		Dst:      dst.Unmap(),
		TTL:      ip.TTL,
		Protocol: uint8(ip.Protocol),
		ID:       ip.Id,
		Payload:  payload,
	}, nil
}

func setPseudoHeader(tcp *layers.TCP, src, dst netip.Addr) error {
	if !src.Unmap().Is4() || !dst.Unmap().Is4() {
		return ErrNotIPv4
	}
	return tcp.SetNetworkLayerForChecksum(&layers.IPv4{
		Version:  4,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    ipOf(src),
		DstIP:    ipOf(dst),
	})
}

func ipOf(addr netip.Addr) net.IP {
	a4 := addr.Unmap().As4()
	return net.IP(a4[:])
}

func tcpLayer(seg *sponge.Segment) *layers.TCP {
	f := seg.Flags
	return &layers.TCP{
		Seq:    uint32(seg.Seq),
		Ack:    uint32(seg.Ack),
		Window: seg.Win,
		FIN:    f.HasAny(sponge.FlagFIN),
		SYN:    f.HasAny(sponge.FlagSYN),
		RST:    f.HasAny(sponge.FlagRST),
		PSH:    f.HasAny(sponge.FlagPSH),
		ACK:    f.HasAny(sponge.FlagACK),
		URG:    f.HasAny(sponge.FlagURG),
		ECE:    f.HasAny(sponge.FlagECE),
		CWR:    f.HasAny(sponge.FlagCWR),
		NS:     f.HasAny(sponge.FlagNS),
	}
}

func flagsOf(tcp *layers.TCP) (f sponge.Flags) {
	set := func(b bool, flag sponge.Flags) {
		if b {
			f |= flag
		}
	}
	set(tcp.FIN, sponge.FlagFIN)
	set(tcp.SYN, sponge.FlagSYN)
	set(tcp.RST, sponge.FlagRST)
	set(tcp.PSH, sponge.FlagPSH)
	set(tcp.ACK, sponge.FlagACK)
	set(tcp.URG, sponge.FlagURG)
	set(tcp.ECE, sponge.FlagECE)
	set(tcp.CWR, sponge.FlagCWR)
	set(tcp.NS, sponge.FlagNS)
	return f
}
