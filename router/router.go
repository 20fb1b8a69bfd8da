// Package router implements an IPv4 router that forwards datagrams between
// network interfaces by longest-prefix match on a static routing table.
package router

import (
	"errors"
	"log/slog"
	"net/netip"
	"strconv"

	"github.com/sponge-net/sponge"
	"github.com/sponge-net/sponge/internal"
)

var (
	ErrBadPrefixLength = errors.New("router: prefix length exceeds 32")
	ErrNoInterface     = errors.New("router: interface does not exist")
	errInvalidNextHop  = errors.New("router: next hop is not IPv4")
)

// Route is a forwarding rule. A datagram matches a Route if the high
// PrefixLength bits of its destination equal those of Prefix.
type Route struct {
	Prefix       uint32
	PrefixLength uint8
	// NextHop is the address of the next router. It is the zero Addr when
	// the network is directly attached to the interface.
	NextHop   netip.Addr
	Interface int
}

// Matches reports whether dst falls under the route's prefix.
func (r Route) Matches(dst uint32) bool {
	return r.PrefixLength == 0 || (r.Prefix^dst)>>(32-r.PrefixLength) == 0
}

func (r Route) String() string {
	s := sponge.AddrFromUint32(r.Prefix).String() + "/" + strconv.Itoa(int(r.PrefixLength)) + " => "
	if r.NextHop.IsValid() {
		s += r.NextHop.String()
	} else {
		s += "(direct)"
	}
	return s + " on interface " + strconv.Itoa(r.Interface)
}

// Router forwards datagrams received on its interfaces. It is not safe for
// concurrent use.
type Router struct {
	ifaces []Interface
	routes []Route
	logger *slog.Logger
	// forwarded and dropped count datagrams handled by RouteOneDatagram.
	forwarded uint64
	dropped   uint64
}

// New returns a Router with no interfaces nor routes. logger may be nil.
func New(logger *slog.Logger) *Router {
	return &Router{logger: logger}
}

// AddInterface attaches iface to the router and returns its index.
func (r *Router) AddInterface(iface Interface) int {
	r.ifaces = append(r.ifaces, iface)
	return len(r.ifaces) - 1
}

// Interface returns the interface at index i.
func (r *Router) Interface(i int) Interface { return r.ifaces[i] }

// AddRoute installs a route sending datagrams whose destination matches the
// high prefixLength bits of prefix out the interface at ifaceIndex. nextHop
// is the zero Addr for a directly attached network.
func (r *Router) AddRoute(prefix uint32, prefixLength uint8, nextHop netip.Addr, ifaceIndex int) error {
	if prefixLength > 32 {
		return ErrBadPrefixLength
	}
	if ifaceIndex < 0 || ifaceIndex >= len(r.ifaces) {
		return ErrNoInterface
	}
	if nextHop.IsValid() && !nextHop.Unmap().Is4() {
		return errInvalidNextHop
	}
	route := Route{Prefix: prefix, PrefixLength: prefixLength, NextHop: nextHop.Unmap(), Interface: ifaceIndex}
	r.routes = append(r.routes, route)
	r.debug("router:add-route", slog.String("route", route.String()))
	return nil
}

// Routes returns a copy of the routing table in installation order.
func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// lookup returns the longest prefix route matching dst. Among routes of equal
// prefix length the first installed wins.
func (r *Router) lookup(dst uint32) (Route, bool) {
	best := -1
	for i, route := range r.routes {
		if route.Matches(dst) && (best < 0 || route.PrefixLength > r.routes[best].PrefixLength) {
			best = i
		}
	}
	if best < 0 {
		return Route{}, false
	}
	return r.routes[best], true
}

// RouteOneDatagram forwards d by longest-prefix match and decrements its TTL.
// Datagrams with no matching route or whose TTL would reach zero are dropped.
func (r *Router) RouteOneDatagram(d *sponge.Datagram) {
	route, ok := r.lookup(d.DstUint32())
	if !ok {
		r.drop("router:no-route", d)
		return
	}
	if d.TTL <= 1 {
		r.drop("router:ttl-expired", d)
		return
	}
	d.TTL--
	nextHop := route.NextHop
	if !nextHop.IsValid() {
		nextHop = d.Dst
	}
	r.forwarded++
	r.trace("router:forward", slog.String("dst", d.Dst.String()), slog.String("nexthop", nextHop.String()), slog.Int("iface", route.Interface))
	r.ifaces[route.Interface].SendDatagram(*d, nextHop)
}

// Route drains every interface's inbound queue forwarding each datagram.
func (r *Router) Route() {
	for _, iface := range r.ifaces {
		queue := iface.DatagramsOut()
		for {
			d, ok := queue.Pop()
			if !ok {
				break
			}
			r.RouteOneDatagram(&d)
		}
	}
}

// Stats returns the number of datagrams forwarded and dropped so far.
func (r *Router) Stats() (forwarded, dropped uint64) { return r.forwarded, r.dropped }

func (r *Router) drop(msg string, d *sponge.Datagram) {
	r.dropped++
	r.trace(msg, slog.String("dst", d.Dst.String()), slog.Uint64("ttl", uint64(d.TTL)))
}

func (r *Router) trace(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(r.logger, internal.LevelTrace, msg, attrs...)
}

func (r *Router) debug(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(r.logger, slog.LevelDebug, msg, attrs...)
}
