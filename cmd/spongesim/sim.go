package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/netip"
	"time"

	"github.com/sponge-net/sponge"
	"github.com/sponge-net/sponge/config"
	"github.com/sponge-net/sponge/internal"
	"github.com/sponge-net/sponge/router"
	"github.com/sponge-net/sponge/tcp"
	"github.com/sponge-net/sponge/wire"
)

const (
	defaultClient = "10.0.0.1:40000"
	defaultServer = "10.1.0.1:80"
	defaultBytes  = 100000
	defaultTickMs = 10
	// maxSimulatedMs bounds the simulation when connections never finish.
	maxSimulatedMs = 60 * 60 * 1000
)

var errTimeout = errors.New("simulation did not finish in time")

// endpoint is a connection and the adapter carrying its segments in datagrams.
type endpoint struct {
	conn    *tcp.Conn
	adapter *wire.Adapter
	// iface is the router interface facing the endpoint.
	iface *router.QueueInterface
}

type simulation struct {
	opts           config.SimOptions
	client, server endpoint
	router         *router.Router
	rng            *rand.Rand
	logger         *slog.Logger
	res            result
}

type result struct {
	bytes     int
	elapsedMs uint64
	lost      int
	corrupted int
	rejected  int
	forwarded uint64
	dropped   uint64
}

func newSimulation(file config.File, logger *slog.Logger) (*simulation, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := file.Sim
	if opts.Client == "" {
		opts.Client = defaultClient
	}
	if opts.Server == "" {
		opts.Server = defaultServer
	}
	if opts.Bytes == 0 {
		opts.Bytes = defaultBytes
	}
	if opts.TickMs == 0 {
		opts.TickMs = defaultTickMs
	}
	clientAddr, err := netip.ParseAddrPort(opts.Client)
	if err != nil {
		return nil, fmt.Errorf("client address: %w", err)
	}
	serverAddr, err := netip.ParseAddrPort(opts.Server)
	if err != nil {
		return nil, fmt.Errorf("server address: %w", err)
	}

	s := &simulation{
		opts:   opts,
		router: router.New(logger.With(slog.String("component", "router"))),
		rng:    rand.New(rand.NewSource(opts.Seed)),
		logger: logger,
	}
	s.client = endpoint{
		conn:    tcp.NewConn(file.TCP.Config()),
		adapter: &wire.Adapter{Local: clientAddr, Remote: serverAddr},
		iface:   router.NewQueueInterface("client"),
	}
	s.server = endpoint{
		conn:    tcp.NewConn(file.TCP.Config()),
		adapter: &wire.Adapter{Local: serverAddr},
		iface:   router.NewQueueInterface("server"),
	}
	s.client.conn.SetLogger(logger.With(slog.String("conn", "client")))
	s.server.conn.SetLogger(logger.With(slog.String("conn", "server")))
	s.router.AddInterface(s.client.iface)
	s.router.AddInterface(s.server.iface)

	routes := file.Routes
	if len(routes) == 0 {
		// Directly attach each endpoint's /16 to its interface.
		routes = []config.RouteOptions{
			{Prefix: netip.PrefixFrom(clientAddr.Addr(), 16).Masked().String(), Interface: 0},
			{Prefix: netip.PrefixFrom(serverAddr.Addr(), 16).Masked().String(), Interface: 1},
		}
	}
	for i, ro := range routes {
		r, err := ro.Parse()
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
		err = s.router.AddRoute(sponge.AddrUint32(r.Prefix.Addr()), uint8(r.Prefix.Bits()), r.NextHop, r.Interface)
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
	}
	return s, nil
}

// run transfers opts.Bytes random bytes from client to server, closes both
// connections cleanly and checks the server received exactly what was sent.
func (s *simulation) run() (result, error) {
	payload := make([]byte, s.opts.Bytes)
	s.rng.Read(payload)
	var (
		received     []byte
		written      int
		clientClosed bool
		serverClosed bool
		backoff      = internal.NewBackoff(time.Millisecond, 50*time.Millisecond)
		lastTick     = time.Now()
	)
	s.client.conn.Connect()
	for s.client.conn.Active() || s.server.conn.Active() {
		if s.res.elapsedMs > maxSimulatedMs {
			return s.res, fmt.Errorf("%w: client=%s server=%s", errTimeout, s.client.conn.Phase(), s.server.conn.Phase())
		}
		if written < len(payload) {
			written += s.client.conn.Write(payload[written:])
		} else if !clientClosed {
			s.client.conn.EndInputStream()
			clientClosed = true
		}

		moved := s.transmit(&s.client) + s.transmit(&s.server)
		s.router.Route()
		moved += s.deliver(&s.server) + s.deliver(&s.client)

		received = append(received, s.server.conn.InboundStream().Read(1<<16)...)
		if s.server.conn.InboundStream().EOF() && !serverClosed {
			s.server.conn.EndInputStream()
			serverClosed = true
		}

		ms := s.opts.TickMs
		if s.opts.Realtime {
			if moved > 0 {
				backoff.Hit()
			} else {
				backoff.Miss()
			}
			ms = uint(time.Since(lastTick) / time.Millisecond)
			lastTick = lastTick.Add(time.Duration(ms) * time.Millisecond)
		}
		s.client.conn.Tick(ms)
		s.server.conn.Tick(ms)
		s.res.elapsedMs += uint64(ms)
	}
	s.res.forwarded, s.res.dropped = s.router.Stats()
	s.res.bytes = len(received)
	if s.client.conn.Phase() != tcp.PhaseClosed || s.server.conn.Phase() != tcp.PhaseClosed {
		return s.res, fmt.Errorf("unclean finish: client=%s server=%s", s.client.conn.Phase(), s.server.conn.Phase())
	}
	if !bytes.Equal(received, payload) {
		return s.res, fmt.Errorf("received %d bytes differing from the %d sent", len(received), len(payload))
	}
	return s.res, nil
}

// transmit moves the segments queued by ep's connection onto the link towards
// the router, losing or corrupting some of them.
func (s *simulation) transmit(ep *endpoint) (n int) {
	for _, seg := range ep.conn.SegmentsOut().Drain() {
		n++
		d, err := ep.adapter.Wrap(&seg)
		if err != nil {
			s.logger.Error("sim:wrap", slog.String("err", err.Error()))
			continue
		}
		b, err := wire.EncodeDatagram(&d)
		if err != nil {
			s.logger.Error("sim:encode", slog.String("err", err.Error()))
			continue
		}
		switch p := s.rng.Float64(); {
		case p < s.opts.LossRate:
			s.res.lost++
			continue
		case p < 1.5*s.opts.LossRate:
			s.res.corrupted++
			b[s.rng.Intn(len(b))] ^= 1 << s.rng.Intn(8)
		}
		d, err = wire.DecodeDatagram(b)
		if err != nil {
			s.res.rejected++
			s.logger.Debug("sim:link-reject", slog.String("err", err.Error()))
			continue
		}
		ep.iface.Receive(d)
	}
	return n
}

// deliver hands the datagrams the router sent towards ep to its connection.
func (s *simulation) deliver(ep *endpoint) (n int) {
	for _, sent := range ep.iface.Sent().Drain() {
		n++
		seg, ok, err := ep.adapter.Unwrap(&sent.Datagram)
		if err != nil {
			s.res.rejected++
			s.logger.Debug("sim:unwrap-reject", slog.String("err", err.Error()))
			continue
		}
		if !ok {
			s.logger.Debug("sim:not-for-us", slog.String("dgram", sent.Datagram.String()))
			continue
		}
		ep.conn.SegmentReceived(&seg)
	}
	return n
}
