package tcp

import "github.com/sponge-net/sponge"

// Defaults used by [DefaultConfig] and to fill zero [Config] fields.
const (
	DefaultCapacity        = 64000
	DefaultRTTimeout       = 1000 // milliseconds
	DefaultMaxRetxAttempts = 8
	DefaultMaxPayloadSize  = 1000
)

// Config parametrizes a [Sender], [Receiver] and [Conn]. Zero numeric fields
// take their default value.
type Config struct {
	// RecvCapacity bounds the bytes held by the inbound stream and reassembler.
	RecvCapacity int
	// SendCapacity bounds the bytes buffered in the outbound stream.
	SendCapacity int
	// RTTimeout is the initial retransmission timeout in milliseconds.
	RTTimeout uint
	// MaxRetxAttempts is the number of consecutive retransmissions tolerated
	// before the connection is reset.
	MaxRetxAttempts uint
	// MaxPayloadSize caps the payload of a single outgoing segment.
	MaxPayloadSize int
	// FixedISN sets the initial sequence number. A random one is used when nil.
	FixedISN *sponge.Value
	// DisableLinger makes the connection close as soon as both streams are
	// finished instead of waiting 10 RTOs after a clean active close.
	DisableLinger bool
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (cfg Config) withDefaults() Config {
	if cfg.RecvCapacity == 0 {
		cfg.RecvCapacity = DefaultCapacity
	}
	if cfg.SendCapacity == 0 {
		cfg.SendCapacity = DefaultCapacity
	}
	if cfg.RTTimeout == 0 {
		cfg.RTTimeout = DefaultRTTimeout
	}
	if cfg.MaxRetxAttempts == 0 {
		cfg.MaxRetxAttempts = DefaultMaxRetxAttempts
	}
	if cfg.MaxPayloadSize == 0 {
		cfg.MaxPayloadSize = DefaultMaxPayloadSize
	}
	return cfg
}
