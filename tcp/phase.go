package tcp

// Phase enumerates the states a TCP connection progresses through during its
// lifetime. A connection's Phase is derived from its sender and receiver
// state; see [Conn.Phase].
//
//go:generate stringer -type=Phase -trimprefix=Phase
type Phase uint8

const (
	// CLOSED - the connection finished cleanly or never started.
	PhaseClosed Phase = iota
	// LISTEN - waiting for a connection request from the remote.
	PhaseListen
	// SYN-SENT - waiting for a matching connection request after having sent one.
	PhaseSynSent
	// SYN-RECEIVED - both a connection request was received and one sent,
	// waiting for the acknowledgment of ours.
	PhaseSynRcvd
	// ESTABLISHED - an open connection, the normal state for data transfer.
	PhaseEstablished
	// FIN-WAIT-1 - our FIN is sent and unacknowledged, the remote has not closed.
	PhaseFinWait1
	// FIN-WAIT-2 - our FIN is acknowledged, waiting for the remote's FIN.
	PhaseFinWait2
	// CLOSE-WAIT - the remote closed, waiting for the local application to close.
	PhaseCloseWait
	// CLOSING - both sides sent FIN simultaneously and ours is unacknowledged.
	PhaseClosing
	// LAST-ACK - the remote closed first and our FIN awaits acknowledgment.
	PhaseLastAck
	// TIME-WAIT - both streams finished, lingering so the remote receives our
	// acknowledgment of its FIN.
	PhaseTimeWait
	// RESET - the connection was aborted by an RST sent or received.
	PhaseReset
)

// IsSynchronized returns true if both sides know each other's ISN.
func (p Phase) IsSynchronized() bool {
	return p >= PhaseEstablished && p <= PhaseTimeWait
}
