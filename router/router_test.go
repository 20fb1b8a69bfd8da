package router

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/sponge-net/sponge"
)

func prefix(s string) uint32 {
	return sponge.AddrUint32(netip.MustParseAddr(s))
}

func datagram(dst string, ttl uint8) sponge.Datagram {
	return sponge.Datagram{
		Src:      netip.MustParseAddr("172.16.0.1"),
		Dst:      netip.MustParseAddr(dst),
		TTL:      ttl,
		Protocol: sponge.ProtocolTCP,
		Payload:  []byte("payload"),
	}
}

func newTestRouter(t *testing.T) (*Router, *QueueInterface, *QueueInterface) {
	t.Helper()
	r := New(nil)
	if0, if1 := NewQueueInterface("if0"), NewQueueInterface("if1")
	r.AddInterface(if0)
	r.AddInterface(if1)
	if err := r.AddRoute(prefix("10.0.0.0"), 8, netip.MustParseAddr("192.168.0.1"), 0); err != nil {
		t.Fatal(err)
	}
	if err := r.AddRoute(prefix("10.1.0.0"), 16, netip.Addr{}, 1); err != nil {
		t.Fatal(err)
	}
	return r, if0, if1
}

func TestRouterLongestPrefixMatch(t *testing.T) {
	var tests = []struct {
		dst     string
		ttl     uint8
		iface   int // -1 for dropped.
		nextHop string
	}{
		{dst: "10.1.2.3", ttl: 5, iface: 1, nextHop: "10.1.2.3"},
		{dst: "10.1.2.3", ttl: 1, iface: -1},
		{dst: "10.1.2.3", ttl: 0, iface: -1},
		{dst: "10.2.0.9", ttl: 64, iface: 0, nextHop: "192.168.0.1"},
		{dst: "11.0.0.1", ttl: 64, iface: -1},
	}
	for _, test := range tests {
		r, if0, if1 := newTestRouter(t)
		d := datagram(test.dst, test.ttl)
		r.RouteOneDatagram(&d)
		ifaces := []*QueueInterface{if0, if1}
		for i, qi := range ifaces {
			sent := qi.Sent().Drain()
			if i != test.iface {
				if len(sent) != 0 {
					t.Errorf("%s ttl=%d: unexpectedly sent on %s", test.dst, test.ttl, qi)
				}
				continue
			}
			if len(sent) != 1 {
				t.Fatalf("%s ttl=%d: sent %d datagrams on %s", test.dst, test.ttl, len(sent), qi)
			}
			if sent[0].NextHop != netip.MustParseAddr(test.nextHop) {
				t.Errorf("%s: next hop %s, want %s", test.dst, sent[0].NextHop, test.nextHop)
			}
			if sent[0].Datagram.TTL != test.ttl-1 {
				t.Errorf("%s: ttl %d, want %d", test.dst, sent[0].Datagram.TTL, test.ttl-1)
			}
		}
		forwarded, dropped := r.Stats()
		if (test.iface < 0) != (dropped == 1) || forwarded+dropped != 1 {
			t.Errorf("%s ttl=%d: forwarded=%d dropped=%d", test.dst, test.ttl, forwarded, dropped)
		}
	}
}

func TestRouterDefaultRouteAndTieBreak(t *testing.T) {
	r := New(nil)
	if0, if1 := NewQueueInterface("if0"), NewQueueInterface("if1")
	r.AddInterface(if0)
	r.AddInterface(if1)
	r.AddRoute(0, 0, netip.MustParseAddr("1.1.1.1"), 0)
	r.AddRoute(prefix("192.168.0.0"), 24, netip.Addr{}, 0)
	r.AddRoute(prefix("192.168.0.0"), 24, netip.Addr{}, 1)

	d := datagram("8.8.8.8", 10)
	r.RouteOneDatagram(&d)
	if sent := if0.Sent().Drain(); len(sent) != 1 || sent[0].NextHop != netip.MustParseAddr("1.1.1.1") {
		t.Fatalf("default route not used: %v", sent)
	}
	d = datagram("192.168.0.77", 10)
	r.RouteOneDatagram(&d)
	if if0.Sent().Len() != 1 || if1.Sent().Len() != 0 {
		t.Fatal("equal length routes: first installed must win")
	}
}

func TestRouterRoute(t *testing.T) {
	r, if0, if1 := newTestRouter(t)
	if0.Receive(datagram("10.1.0.1", 3))
	if0.Receive(datagram("10.9.0.1", 3))
	if1.Receive(datagram("10.1.0.2", 3))
	r.Route()
	if if0.DatagramsOut().Len() != 0 || if1.DatagramsOut().Len() != 0 {
		t.Fatal("inbound queues not drained")
	}
	sent := if1.Sent().Drain()
	if len(sent) != 2 || sent[0].Datagram.Dst.String() != "10.1.0.1" || sent[1].Datagram.Dst.String() != "10.1.0.2" {
		t.Fatalf("unexpected if1 output %v", sent)
	}
	if if0.Sent().Len() != 1 {
		t.Fatalf("if0 sent %d", if0.Sent().Len())
	}
}

func TestRouterAddRouteErrors(t *testing.T) {
	r := New(nil)
	r.AddInterface(NewQueueInterface("if0"))
	if err := r.AddRoute(0, 33, netip.Addr{}, 0); !errors.Is(err, ErrBadPrefixLength) {
		t.Errorf("got %v, want ErrBadPrefixLength", err)
	}
	if err := r.AddRoute(0, 0, netip.Addr{}, 1); !errors.Is(err, ErrNoInterface) {
		t.Errorf("got %v, want ErrNoInterface", err)
	}
	if err := r.AddRoute(0, 0, netip.MustParseAddr("::1"), 0); err == nil {
		t.Error("accepted IPv6 next hop")
	}
	if len(r.Routes()) != 0 {
		t.Fatal("invalid routes installed")
	}
}

func TestRouteString(t *testing.T) {
	route := Route{Prefix: prefix("10.1.0.0"), PrefixLength: 16, Interface: 1}
	const want = "10.1.0.0/16 => (direct) on interface 1"
	if got := route.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
