package pppoe

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// PPPoE is a net.PacketConn wrapping a discovered session: it runs
// discovery once via Dial, then carries PPPoE Session frames (ethertype
// 0x8864) for whatever PPP stack is layered on top (see package lcp).
// This is the session-phase counterpart to Context/Discover, which only
// concerns itself with the discovery phase; adapted from
// gandalfast-zouppp/pppoe/pppoe.go's PPPoE type, minus its own
// PADI/PADO/PADR/PADS retry loop, which now lives in Discover.
type PPPoE struct {
	conn   Conn
	ctx    *Context
	info   SessionInfo
	open   bool
	logger *zerolog.Logger
}

// Dial runs Discover to completion over conn and, on success, wraps the
// resulting session in a PPPoE suitable for use as a net.PacketConn.
func Dial(ctx *Context, conn Conn) (*PPPoE, error) {
	outcome, err := Discover(ctx, conn)
	if err != nil {
		return nil, err
	}
	if outcome.Kind != OutcomeKindSession {
		return nil, fmt.Errorf("pppoe: dial: discovery did not reach a session (outcome kind %d)", outcome.Kind)
	}
	return NewPPPoESession(ctx, conn, outcome.Session), nil
}

// NewPPPoESession wraps an already-negotiated session in a PPPoE
// net.PacketConn, for callers that run Discover themselves (e.g. to
// rebind conn to the PPPoE Session ethertype between discovery and
// session phases, which AF_PACKET's protocol filter requires) rather
// than going through Dial.
func NewPPPoESession(ctx *Context, conn Conn, info SessionInfo) *PPPoE {
	return &PPPoE{
		conn:   conn,
		ctx:    ctx,
		info:   info,
		open:   true,
		logger: ctx.Logger,
	}
}

// SetReadDeadline implements net.PacketConn.
func (p *PPPoE) SetReadDeadline(t time.Time) error { return p.conn.SetReadDeadline(t) }

// SetWriteDeadline implements net.PacketConn. Session frame writes are
// not deadline-bound by Conn; provided for interface compliance.
func (p *PPPoE) SetWriteDeadline(t time.Time) error { return nil }

// SetDeadline implements net.PacketConn.
func (p *PPPoE) SetDeadline(t time.Time) error { return p.SetReadDeadline(t) }

// LocalAddr implements net.PacketConn.
func (p *PPPoE) LocalAddr() net.Addr { return &Endpoint{HwAddr: p.ctx.MyMAC, SessionID: p.info.SessionID} }

// Close tears the session down with a PADT, then marks the connection
// closed (spec.md §4.F "send_padt").
func (p *PPPoE) Close() error {
	if !p.open {
		return nil
	}
	p.open = false
	if p.ctx.PADTSender != nil {
		return p.ctx.PADTSender(p.ctx, "session closed")
	}
	return DefaultPADTSender(p.conn)(p.ctx, "session closed")
}

// WriteTo implements net.PacketConn; addr is ignored, frames always go to
// the negotiated peer.
func (p *PPPoE) WriteTo(b []byte, _ net.Addr) (int, error) {
	if !p.open {
		return 0, fmt.Errorf("pppoe: session not open")
	}
	raw := encodeSessionFrame(p.info.PeerMAC, p.ctx.MyMAC, p.info.SessionID, b)
	if err := p.conn.Send(raw); err != nil {
		return 0, fmt.Errorf("pppoe: failed to send session frame: %w", err)
	}
	return len(b), nil
}

// ReadFrom implements net.PacketConn, filtering to session frames from
// the negotiated peer carrying the negotiated session id.
func (p *PPPoE) ReadFrom(buf []byte) (int, net.Addr, error) {
	if !p.open {
		return 0, nil, fmt.Errorf("pppoe: session not open")
	}
	for {
		raw, err := p.conn.Recv()
		if err != nil {
			return 0, nil, fmt.Errorf("pppoe: failed to recv session frame: %w", err)
		}
		src, sid, payload, ok := decodeSessionFrame(raw)
		if !ok {
			continue
		}
		if !src.Equal(p.info.PeerMAC) || sid != p.info.SessionID {
			continue
		}
		n := copy(buf, payload)
		return n, &Endpoint{HwAddr: src, SessionID: sid}, nil
	}
}

// Endpoint is a PPPoE net.Addr: an Ethernet address plus session id.
type Endpoint struct {
	HwAddr    net.HardwareAddr
	SessionID uint16
}

// Network implements net.Addr.
func (e *Endpoint) Network() string { return "pppoe" }

// String implements net.Addr.
func (e *Endpoint) String() string { return fmt.Sprintf("pppoe:%v:%04x", e.HwAddr, e.SessionID) }

// encodeSessionFrame builds a PPPoE Session frame: 14-byte Ethernet
// header (ethertype 0x8864), 6-byte PPPoE header with the negotiated
// session id and code 0x00, followed by the raw PPP payload (no TLVs --
// session data carries PPP frames directly, unlike discovery's TLV
// stream).
func encodeSessionFrame(dst, src net.HardwareAddr, sessionID uint16, payload []byte) []byte {
	buf := make([]byte, etherHdrSize+pppoeHdrSize+len(payload))
	copy(buf[0:6], dst)
	copy(buf[6:12], src)
	binary.BigEndian.PutUint16(buf[12:14], EtherTypePPPoESession)
	buf[14] = vertype
	buf[15] = byte(CodeSession)
	binary.BigEndian.PutUint16(buf[16:18], sessionID)
	binary.BigEndian.PutUint16(buf[18:20], uint16(len(payload)))
	copy(buf[20:], payload)
	return buf
}

func decodeSessionFrame(buf []byte) (src net.HardwareAddr, sessionID uint16, payload []byte, ok bool) {
	if len(buf) < etherHdrSize+pppoeHdrSize {
		return nil, 0, nil, false
	}
	if buf[14] != vertype || buf[15] != byte(CodeSession) {
		return nil, 0, nil, false
	}
	sessionID = binary.BigEndian.Uint16(buf[16:18])
	plen := int(binary.BigEndian.Uint16(buf[18:20]))
	if etherHdrSize+pppoeHdrSize+plen > len(buf) {
		return nil, 0, nil, false
	}
	src = net.HardwareAddr(append([]byte(nil), buf[6:12]...))
	payload = buf[20 : 20+plen]
	return src, sessionID, payload, true
}
