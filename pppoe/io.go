package pppoe

import (
	"errors"
	"time"
)

// ErrTimeout is returned by Conn.Recv when no frame arrived before the
// read deadline. It is never returned for a signal-interrupted wait: those
// are retried transparently inside the Conn implementation (spec.md §4.C,
// §7 "I/O syscall failures").
var ErrTimeout = errors.New("pppoe: read timeout")

// Conn is the Packet I/O interface external collaborator of spec.md §4.F:
// an already-open raw socket bound to a specific Ethernet interface and
// MAC, supplied by the caller. Discover does not open, close, or bind
// interfaces; it only sends and receives complete Ethernet frames through
// this interface.
type Conn interface {
	// Send transmits a complete Ethernet frame (as produced by
	// Frame.Encode).
	Send(frame []byte) error
	// SetReadDeadline arms the absolute deadline for the next Recv calls,
	// following net.Conn's convention.
	SetReadDeadline(t time.Time) error
	// Recv blocks until one datagram is available or the armed read
	// deadline elapses, returning ErrTimeout in the latter case. A
	// signal-interrupted wait must be retried internally by the
	// implementation rather than surfaced as an error (spec.md §4.C).
	Recv() (frame []byte, err error)
}
