package config

import (
	"errors"
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/sponge-net/sponge/internal"
	"github.com/sponge-net/sponge/tcp"
)

const sample = `
tcp:
  rt_timeout_ms: 200
  max_retx_attempts: 4
  fixed_isn: 12345
  disable_linger: true
routes:
  - prefix: 10.0.0.0/8
    next_hop: 192.168.0.1
    interface: 0
  - prefix: 10.1.2.3/16
    interface: 1
log:
  level: trace
sim:
  bytes: 4096
  loss_rate: 0.05
  seed: 7
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	cfg := f.TCP.Config()
	if cfg.RTTimeout != 200 || cfg.MaxRetxAttempts != 4 || !cfg.DisableLinger {
		t.Errorf("unexpected tcp config %+v", cfg)
	}
	if cfg.FixedISN == nil || *cfg.FixedISN != 12345 {
		t.Error("fixed ISN not parsed")
	}
	if cfg.RecvCapacity != 0 {
		t.Error("omitted field should be left for defaulting")
	}
	if len(f.Routes) != 2 {
		t.Fatalf("got %d routes", len(f.Routes))
	}
	r0, _ := f.Routes[0].Parse()
	if r0.Prefix != netip.MustParsePrefix("10.0.0.0/8") || r0.NextHop != netip.MustParseAddr("192.168.0.1") {
		t.Errorf("route 0: %+v", r0)
	}
	r1, _ := f.Routes[1].Parse()
	if r1.Prefix != netip.MustParsePrefix("10.1.0.0/16") || r1.NextHop.IsValid() || r1.Interface != 1 {
		t.Errorf("route 1: %+v", r1)
	}
	if lvl, _ := f.Log.ParseLevel(); lvl != internal.LevelTrace {
		t.Errorf("level %v", lvl)
	}
	if f.Sim.Bytes != 4096 || f.Sim.Seed != 7 || f.Sim.LossRate != 0.05 {
		t.Errorf("sim %+v", f.Sim)
	}
}

func TestParseErrors(t *testing.T) {
	var tests = []struct {
		name string
		yaml string
	}{
		{"unknown field", "tcp:\n  bogus: 1\n"},
		{"bad prefix", "routes:\n  - prefix: 10.0.0.0\n"},
		{"ipv6 route", "routes:\n  - prefix: \"::/0\"\n"},
		{"bad next hop", "routes:\n  - prefix: 0.0.0.0/0\n    next_hop: nope\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad loss rate", "sim:\n  loss_rate: 1.5\n"},
	}
	for _, test := range tests {
		if _, err := Parse([]byte(test.yaml)); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if lvl, _ := f.Log.ParseLevel(); lvl != slog.LevelInfo {
		t.Errorf("default level %v", lvl)
	}
	if f.TCP.Config().FixedISN != nil {
		t.Error("unexpected fixed ISN")
	}
	var zero tcp.Config
	if f.TCP.Config() != zero {
		t.Error("empty file should produce a zero tcp.Config")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sponge.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseLevel(t *testing.T) {
	var tests = []struct {
		level string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"trace", internal.LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, test := range tests {
		got, err := LogOptions{Level: test.level}.ParseLevel()
		if err != nil {
			t.Errorf("%q: %s", test.level, err)
		} else if got != test.want {
			t.Errorf("%q: got %v, want %v", test.level, got, test.want)
		}
	}
	if _, err := (LogOptions{Level: "loud"}).ParseLevel(); !errors.Is(err, errUnknownLevel) {
		t.Errorf("unknown level: got err %v", err)
	}
}
