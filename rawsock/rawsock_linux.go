// Package rawsock is the concrete component F of the PPPoE discovery
// core: an AF_PACKET socket bound to a single Ethernet interface and
// ethertype, implementing pppoe.Conn. Grounded on
// KarpelesLab-pppoeproxy/discovery.go's DiscoveryHandler, which opens
// and binds the same kind of socket for the same protocol.
package rawsock

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"github.com/safchain/ethtool"
	"golang.org/x/sys/unix"

	"github.com/gandalfast/pppoedisc/pppoe"
)

// Conn is an AF_PACKET SOCK_RAW socket bound to one interface and
// ethertype. It satisfies pppoe.Conn for the discovery phase, and is
// also used directly by the session phase once EtherType is switched to
// PPPoE Session.
type Conn struct {
	fd      int
	ifIndex int
	ifName  string
	mac     net.HardwareAddr
	logger  *zerolog.Logger
}

// Option configures Conn construction.
type Option func(*options)

type options struct {
	logger *zerolog.Logger
}

// WithLogger attaches a logger used for bind/diagnostic messages.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// htons converts a host-order uint16 to network order, matching the
// convention the teacher's AF_XDP/ethtool paths and
// KarpelesLab-pppoeproxy both rely on for SockaddrLinklayer.Protocol.
func htons(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return uint16(b[0]) | uint16(b[1])<<8
}

// NewConn opens a raw socket on ifaceName bound to ethertype (e.g.
// pppoe.EtherTypePPPoEDiscovery while discovering, then
// pppoe.EtherTypePPPoESession once a session exists).
func NewConn(ifaceName string, ethertype uint16, opts ...Option) (*Conn, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		nop := zerolog.Nop()
		o.logger = &nop
	}

	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("rawsock: interface %q not found: %w", ifaceName, err)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(ethertype)))
	if err != nil {
		return nil, fmt.Errorf("rawsock: socket: %w", err)
	}

	addr := unix.SockaddrLinklayer{
		Protocol: htons(ethertype),
		Ifindex:  iface.Index,
	}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rawsock: bind to %q: %w", ifaceName, err)
	}

	logDriverInfo(o.logger, ifaceName)

	return &Conn{
		fd:      fd,
		ifIndex: iface.Index,
		ifName:  ifaceName,
		mac:     iface.HardwareAddr,
		logger:  o.logger,
	}, nil
}

// LocalMAC returns the bound interface's hardware address.
func (c *Conn) LocalMAC() net.HardwareAddr { return c.mac }

// Send transmits frame (a full Ethernet frame with headers already
// filled in by pppoe.Frame.Encode) out of the bound interface, addressed
// to the destination MAC carried in the frame itself.
func (c *Conn) Send(frame []byte) error {
	if len(frame) < 6 {
		return fmt.Errorf("rawsock: frame too short to extract destination MAC")
	}
	sa := unix.SockaddrLinklayer{
		Protocol: c.boundProtocol(),
		Ifindex:  c.ifIndex,
		Halen:    6,
	}
	copy(sa.Addr[:6], frame[0:6])
	if err := unix.Sendto(c.fd, frame, 0, &sa); err != nil {
		return fmt.Errorf("rawsock: sendto: %w", err)
	}
	return nil
}

// boundProtocol is the sll_protocol value Send passes to Sendto. It is
// always zero rather than the ethertype supplied at NewConn: Sendto on a
// PACKET socket ignores sll_protocol for unicast delivery within the same
// interface.
func (c *Conn) boundProtocol() uint16 { return 0 }

// SetReadDeadline arms a receive timeout via SO_RCVTIMEO, following
// net.Conn's deadline convention (pppoe.Conn, spec.md §4.C).
func (c *Conn) SetReadDeadline(t time.Time) error {
	if t.IsZero() {
		return unix.SetsockoptTimeval(c.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &unix.Timeval{})
	}
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	tv := unix.NsecToTimeval(d.Nanoseconds())
	return unix.SetsockoptTimeval(c.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
}

// Recv blocks for one frame up to the armed SO_RCVTIMEO deadline. A
// signal-interrupted read (EINTR) is retried transparently, matching
// KarpelesLab-pppoeproxy/discovery.go's processPackets loop; an elapsed
// deadline (EAGAIN/EWOULDBLOCK) surfaces as pppoe.ErrTimeout.
func (c *Conn) Recv() ([]byte, error) {
	buf := make([]byte, 2048)
	for {
		n, _, err := unix.Recvfrom(c.fd, buf, 0)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return nil, pppoe.ErrTimeout
			}
			return nil, fmt.Errorf("rawsock: recvfrom: %w", err)
		}
		if n < 14 {
			continue
		}
		return buf[:n], nil
	}
}

// Close releases the underlying socket.
func (c *Conn) Close() error {
	return unix.Close(c.fd)
}

// logDriverInfo logs the NIC driver name via ethtool at info level,
// purely diagnostic: it never affects discovery behavior, only what
// operators see when diagnosing a stuck AC (SPEC_FULL.md §4.J).
func logDriverInfo(logger *zerolog.Logger, ifaceName string) {
	et, err := ethtool.NewEthtool()
	if err != nil {
		logger.Debug().Err(err).Msg("ethtool unavailable, skipping driver diagnostics")
		return
	}
	defer et.Close()

	driver, err := et.DriverName(ifaceName)
	if err != nil {
		logger.Debug().Err(err).Str("interface", ifaceName).Msg("could not read driver name")
		return
	}
	logger.Info().Str("interface", ifaceName).Str("driver", driver).Msg("bound raw socket to interface")
}
