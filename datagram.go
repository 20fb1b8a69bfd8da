package sponge

import (
	"encoding/binary"
	"net/netip"
	"strconv"
)

// IP protocol numbers carried in [Datagram.Protocol].
const (
	ProtocolTCP = 6
	ProtocolUDP = 17
)

// DefaultTTL is the time to live given to datagrams originated by this stack.
const DefaultTTL = 64

// Datagram is an IPv4 datagram. Only the header fields used for forwarding
// and demultiplexing are represented; the wire codec fills in the rest.
type Datagram struct {
	Src netip.Addr
	Dst netip.Addr
	// TTL limits the datagram's lifetime. Each router decrements it by one
	// and drops the datagram when it would reach zero.
	TTL      uint8
	Protocol uint8
	ID       uint16
	Payload  []byte
}

// DstUint32 returns the destination address as a big endian number.
// It returns 0 if the destination is not an IPv4 address.
func (d *Datagram) DstUint32() uint32 {
	return AddrUint32(d.Dst)
}

func (d *Datagram) String() string {
	return d.Src.String() + " -> " + d.Dst.String() + " ttl=" + strconv.Itoa(int(d.TTL)) +
		" proto=" + strconv.Itoa(int(d.Protocol)) + " len=" + strconv.Itoa(len(d.Payload))
}

// AddrUint32 returns addr as a big endian number. Non IPv4 addresses yield 0.
func AddrUint32(addr netip.Addr) uint32 {
	if !addr.Is4() {
		return 0
	}
	a4 := addr.As4()
	return binary.BigEndian.Uint32(a4[:])
}

// AddrFromUint32 is the inverse of [AddrUint32].
func AddrFromUint32(v uint32) netip.Addr {
	var a4 [4]byte
	binary.BigEndian.PutUint32(a4[:], v)
	return netip.AddrFrom4(a4)
}
