package wire

// checksum accumulates the RFC 791 internet checksum: the one's complement of
// the one's complement sum of 16-bit big-endian words. Writes may have odd
// lengths; a trailing byte is paired with the first byte of the next write.
type checksum struct {
	sum     uint64
	odd     bool
	pending byte
}

func (c *checksum) Write(b []byte) {
	if c.odd && len(b) > 0 {
		c.sum += uint64(c.pending)<<8 | uint64(b[0])
		c.odd = false
		b = b[1:]
	}
	for len(b) >= 2 {
		c.sum += uint64(b[0])<<8 | uint64(b[1])
		b = b[2:]
	}
	if len(b) == 1 {
		c.pending = b[0]
		c.odd = true
	}
}

func (c *checksum) AddUint16(v uint16) {
	c.Write([]byte{byte(v >> 8), byte(v)})
}

// Sum16 returns the checksum of everything written. Data that already
// contains its correct checksum field sums to zero.
func (c *checksum) Sum16() uint16 {
	sum := c.sum
	if c.odd {
		sum += uint64(c.pending) << 8
	}
	for sum > 0xffff {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}
