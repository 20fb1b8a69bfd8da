package router

import (
	"net/netip"

	"github.com/sponge-net/sponge"
)

// DatagramQueue holds datagrams received by an interface and waiting to be routed.
type DatagramQueue = sponge.Queue[sponge.Datagram]

// Interface is a network interface attached to a [Router].
type Interface interface {
	// SendDatagram transmits d towards nextHop, the address of the next
	// router or of the destination itself when it is directly attached.
	SendDatagram(d sponge.Datagram, nextHop netip.Addr)
	// DatagramsOut returns the datagrams the interface received and that the
	// router has yet to forward.
	DatagramsOut() *DatagramQueue
}

// SentDatagram is a datagram transmitted through a [QueueInterface].
type SentDatagram struct {
	Datagram sponge.Datagram
	NextHop  netip.Addr
}

// QueueInterface is an in-memory [Interface]. Datagrams handed to the router
// are pushed with Receive; forwarded datagrams accumulate in Sent.
type QueueInterface struct {
	Name     string
	inbound  DatagramQueue
	outbound sponge.Queue[SentDatagram]
}

// NewQueueInterface returns an empty QueueInterface named name.
func NewQueueInterface(name string) *QueueInterface {
	return &QueueInterface{Name: name}
}

// Receive queues d to be routed on the next call to [Router.Route].
func (qi *QueueInterface) Receive(d sponge.Datagram) { qi.inbound.Push(d) }

// SendDatagram implements [Interface].
func (qi *QueueInterface) SendDatagram(d sponge.Datagram, nextHop netip.Addr) {
	qi.outbound.Push(SentDatagram{Datagram: d, NextHop: nextHop})
}

// DatagramsOut implements [Interface].
func (qi *QueueInterface) DatagramsOut() *DatagramQueue { return &qi.inbound }

// Sent returns the queue of datagrams sent through the interface.
func (qi *QueueInterface) Sent() *sponge.Queue[SentDatagram] { return &qi.outbound }

func (qi *QueueInterface) String() string { return qi.Name }
