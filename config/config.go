// Package config loads YAML configuration files describing TCP connection
// parameters, a static routing table, logging and the loopback simulation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sponge-net/sponge"
	"github.com/sponge-net/sponge/internal"
	"github.com/sponge-net/sponge/tcp"
)

var (
	errUnknownLevel = errors.New("config: unknown log level")
	errNotIPv4      = errors.New("config: route is not IPv4")
)

// File is the root of a configuration file.
type File struct {
	TCP    TCPOptions     `yaml:"tcp"`
	Routes []RouteOptions `yaml:"routes"`
	Log    LogOptions     `yaml:"log"`
	Sim    SimOptions     `yaml:"sim"`
}

// TCPOptions mirror [tcp.Config]. Omitted fields take their default.
type TCPOptions struct {
	RecvCapacity    int     `yaml:"recv_capacity"`
	SendCapacity    int     `yaml:"send_capacity"`
	RTTimeout       uint    `yaml:"rt_timeout_ms"`
	MaxRetxAttempts uint    `yaml:"max_retx_attempts"`
	MaxPayloadSize  int     `yaml:"max_payload_size"`
	FixedISN        *uint32 `yaml:"fixed_isn"`
	DisableLinger   bool    `yaml:"disable_linger"`
}

// Config returns the [tcp.Config] described by the options.
func (o TCPOptions) Config() tcp.Config {
	cfg := tcp.Config{
		RecvCapacity:    o.RecvCapacity,
		SendCapacity:    o.SendCapacity,
		RTTimeout:       o.RTTimeout,
		MaxRetxAttempts: o.MaxRetxAttempts,
		MaxPayloadSize:  o.MaxPayloadSize,
		DisableLinger:   o.DisableLinger,
	}
	if o.FixedISN != nil {
		isn := sponge.Value(*o.FixedISN)
		cfg.FixedISN = &isn
	}
	return cfg
}

// RouteOptions describe a static route, i.e:
//
//	- prefix: 10.0.0.0/8
//	  next_hop: 192.168.0.1
//	  interface: 0
type RouteOptions struct {
	Prefix    string `yaml:"prefix"`
	NextHop   string `yaml:"next_hop"`
	Interface int    `yaml:"interface"`
}

// Route is a parsed [RouteOptions].
type Route struct {
	Prefix    netip.Prefix
	NextHop   netip.Addr // Zero when directly attached.
	Interface int
}

// Parse validates the route. The prefix is masked to its length.
func (o RouteOptions) Parse() (Route, error) {
	prefix, err := netip.ParsePrefix(o.Prefix)
	if err != nil {
		return Route{}, fmt.Errorf("config: route prefix: %w", err)
	}
	if !prefix.Addr().Is4() {
		return Route{}, errNotIPv4
	}
	r := Route{Prefix: prefix.Masked(), Interface: o.Interface}
	if o.NextHop != "" {
		r.NextHop, err = netip.ParseAddr(o.NextHop)
		if err != nil {
			return Route{}, fmt.Errorf("config: route next hop: %w", err)
		}
		if !r.NextHop.Is4() {
			return Route{}, errNotIPv4
		}
	}
	return r, nil
}

// LogOptions select the log level: trace, debug, info, warn or error.
type LogOptions struct {
	Level string `yaml:"level"`
}

// ParseLevel returns the slog level named by the options. An empty level is info.
func (o LogOptions) ParseLevel() (slog.Level, error) {
	switch strings.ToLower(o.Level) {
	case "trace":
		return internal.LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w %q", errUnknownLevel, o.Level)
}

// SimOptions parametrize the loopback simulation.
type SimOptions struct {
	Client   string  `yaml:"client"` // Client address and port.
	Server   string  `yaml:"server"` // Server address and port.
	Bytes    int     `yaml:"bytes"`
	LossRate float64 `yaml:"loss_rate"`
	Seed     int64   `yaml:"seed"`
	TickMs   uint    `yaml:"tick_ms"`
	// Realtime paces the simulation with the wall clock.
	Realtime bool `yaml:"realtime"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config: %w", err)
	}
	return Parse(b)
}

// Parse parses a configuration file. Unknown fields are an error.
func Parse(b []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("config: %w", err)
	}
	for i, r := range f.Routes {
		if _, err := r.Parse(); err != nil {
			return File{}, fmt.Errorf("route %d: %w", i, err)
		}
	}
	if _, err := f.Log.ParseLevel(); err != nil {
		return File{}, err
	}
	if f.Sim.LossRate < 0 || f.Sim.LossRate >= 1 {
		return File{}, fmt.Errorf("config: loss rate %v outside [0, 1)", f.Sim.LossRate)
	}
	return f, nil
}
