package lcp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gandalfast/pppoedisc/pppoe"
)

// PPPPacket is a PPP frame: protocol number followed by a Serializer's
// opaque payload (RFC 1661 §2).
type PPPPacket struct {
	Proto   PPPProtocolNumber
	Payload Serializer
}

// Serialize into bytes, without copying, and no padding.
func (pppPkt *PPPPacket) Serialize() ([]byte, error) {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(pppPkt.Proto))
	body, err := pppPkt.Payload.Serialize()
	if err != nil {
		return nil, err
	}
	return append(buf, body...), nil
}

// Parse buf into PPPPacket.
func (pppPkt *PPPPacket) Parse(buf []byte) error {
	if len(buf) <= 2 {
		return fmt.Errorf("invalid PPP packet length %d", len(buf))
	}
	pppPkt.Proto = PPPProtocolNumber(binary.BigEndian.Uint16(buf[:2]))
	pppPkt.Payload = NewStaticSerializer(buf[2:])
	return nil
}

// NewPPPPkt returns a new PPPPacket with proto and payload.
func NewPPPPkt(data Serializer, proto PPPProtocolNumber) *PPPPacket {
	r := new(PPPPacket)
	r.Payload = data
	r.Proto = proto
	return r
}

// PPP is the PPP protocol multiplexer: IPv4/IPv6/LCP/IPCP/IPv6CP all run
// over it. Adapted from gandalfast-zouppp/lcp/ppp.go; conn is whatever
// carries PPPoE Session frames (spec.md §4.F's Conn, wrapped by
// pppoe.PPPoE's net.PacketConn implementation) rather than the teacher's
// etherconn.EtherConn, and PPP additionally implements pppoe.MRUSink so
// the discovery core can learn what MRU this stack would like to request
// and clamp it once discovery finishes (spec.md §4.D "MRU finalisation").
type PPP struct {
	relayChanList     map[PPPProtocolNumber]chan []byte
	sendChan          chan []byte
	relayChanListLock *sync.RWMutex
	conn              net.PacketConn
	logger            *zerolog.Logger
	reqID             uint8 // used by sendProtocolRejct

	mruMu    sync.Mutex
	wantMRU  uint16
	allowMRU uint16
}

// NewPPP creates a new PPP protocol instance, using conn as underlying
// transport, l as logger.
func NewPPP(ctx context.Context, conn net.PacketConn, l *zerolog.Logger) *PPP {
	r := new(PPP)
	r.relayChanList = make(map[PPPProtocolNumber]chan []byte)
	r.relayChanListLock = new(sync.RWMutex)
	r.conn = conn
	r.sendChan = make(chan []byte, sendCHanDepth)
	r.logger = l
	r.wantMRU = defaultMRU
	r.allowMRU = defaultMRU
	go r.recv(ctx)
	go r.send(ctx)
	return r
}

// Open is NewPPP plus a log line identifying the session this stack now
// rides on, called once pppoe.Discover returns an OutcomeKindSession
// (spec.md §4.H): unlike the teacher's original Dial, Open never performs
// its own discovery exchange -- that already happened in package pppoe.
func Open(ctx context.Context, session pppoe.SessionInfo, conn net.PacketConn, l *zerolog.Logger) *PPP {
	l.Info().
		Str("peer", session.PeerMAC.String()).
		Uint16("session-id", session.SessionID).
		Uint16("mru", session.MRU).
		Msg("opening PPP session")
	p := NewPPP(ctx, conn, l)
	p.SetMRUCeiling(session.MRU)
	p.sendLCPConfigureRequest()
	return p
}

// SetMRUCeiling implements pppoe.MRUSink: it clamps both the locally
// requested MRU and what this stack will allow a peer to request,
// mirroring discovery.c's lcp_wantoptions[0].mru/lcp_allowoptions[0].mru
// clamp at the end of discovery.
func (ppp *PPP) SetMRUCeiling(mru uint16) {
	ppp.mruMu.Lock()
	defer ppp.mruMu.Unlock()
	if ppp.wantMRU == 0 || mru < ppp.wantMRU {
		ppp.wantMRU = mru
	}
	if ppp.allowMRU == 0 || mru < ppp.allowMRU {
		ppp.allowMRU = mru
	}
}

// RequestedMRU implements pppoe.MRUSink: the smaller of what this stack
// wants to request and what it will allow, so the discovery engine knows
// whether a PPP-Max-Payload tag belongs in PADI/PADR.
func (ppp *PPP) RequestedMRU() uint16 {
	ppp.mruMu.Lock()
	defer ppp.mruMu.Unlock()
	if ppp.wantMRU < ppp.allowMRU {
		return ppp.wantMRU
	}
	return ppp.allowMRU
}

// Register a new protocol to run over ppp; return two byte slice
// channels, send could use to send pkt over ppp, recv is used to recv pkt
// from ppp.
func (ppp *PPP) Register(p PPPProtocolNumber) (send, recv chan []byte) {
	ch := make(chan []byte, relayChanDepth)
	ppp.relayChanListLock.Lock()
	ppp.relayChanList[p] = ch
	ppp.relayChanListLock.Unlock()
	send = ppp.sendChan
	recv = ch
	return
}

// UnRegister the protocol.
func (ppp *PPP) UnRegister(p PPPProtocolNumber) {
	ppp.relayChanListLock.Lock()
	close(ppp.relayChanList[p])
	delete(ppp.relayChanList, p)
	ppp.relayChanListLock.Unlock()
}

// GetLogger returns the logger.
func (ppp *PPP) GetLogger() *zerolog.Logger {
	return ppp.logger
}

func (ppp *PPP) send(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ppp.logger.Info().Msg("ppp send routine stopped")
			return
		case b := <-ppp.sendChan:
			if _, err := ppp.conn.WriteTo(b, nil); err != nil {
				ppp.logger.Warn().Err(err).Msg("failed to send pkt")
			}
		}
	}
}

func (ppp *PPP) recv(ctx context.Context) {
	for {
		buf := make([]byte, MaxPPPMsgSize)
		ppp.conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, _, err := ppp.conn.ReadFrom(buf)

		if err != nil && !errors.Is(err, pppoe.ErrTimeout) {
			ppp.logger.Error().Err(err).Msg("failed to recv")
			return
		} else if err != nil {
			select {
			case <-ctx.Done():
				ppp.logger.Info().Msg("ppp recv routine stopped")
				return
			default:
			}
			continue
		}

		go ppp.relay(buf[:n])
	}
}

// sendProtocolRejct responds to an unregistered protocol number with an
// LCP Protocol-Reject (RFC 1661 §5.7); b is the received unknown-protocol
// packet.
func (ppp *PPP) sendProtocolRejct(b []byte) {
	if len(b) < 2 {
		return
	}
	proto := make([]byte, 2)
	copy(proto, b[:2])
	switch PPPProtocolNumber(binary.BigEndian.Uint16(proto)) {
	case ProtoCHAP, ProtoIPCP, ProtoLCP, ProtoPAP, ProtoIPv6CP, ProtoIPv4, ProtoIPv6:
		return
	}
	pkt := NewPkt(ProtoLCP)
	pkt.Code = CodeProtocolReject
	ppp.reqID++
	pkt.ID = ppp.reqID
	pkt.Payload = append(proto, b...)
	pktbytes, err := NewPPPPkt(pkt, ProtoLCP).Serialize()
	if err == nil {
		ppp.sendChan <- pktbytes
	}
	ppp.logger.Debug().Uint8("id", pkt.ID).Msg("sent protocol reject")
}

func (ppp *PPP) relay(buf []byte) {
	if len(buf) <= 2 {
		return
	}
	proto := PPPProtocolNumber(binary.BigEndian.Uint16(buf[:2]))
	if proto == ProtoLCP {
		ppp.handleLCP(buf[2:])
		return
	}
	ppp.relayChanListLock.RLock()
	defer ppp.relayChanListLock.RUnlock()
	if ch, ok := ppp.relayChanList[proto]; ok {
		ch <- buf[2:]
		return
	}
	go ppp.sendProtocolRejct(buf)
}

// sendLCPConfigureRequest emits an LCP Configure-Request (RFC 1661 §5.1),
// carrying an MRU option whenever wantMRU departs from defaultMRU, so the
// MRU ceiling SetMRUCeiling recorded actually reaches the peer instead of
// staying local bookkeeping.
func (ppp *PPP) sendLCPConfigureRequest() {
	ppp.mruMu.Lock()
	mru := ppp.wantMRU
	ppp.mruMu.Unlock()

	pkt := NewPkt(ProtoLCP)
	pkt.Code = CodeConfigureRequest
	if mru != 0 && mru != defaultMRU {
		pkt.Options = append(pkt.Options, mruOption(mru))
	}
	ppp.reqID++
	pkt.ID = ppp.reqID

	raw, err := NewPPPPkt(pkt, ProtoLCP).Serialize()
	if err != nil {
		ppp.logger.Warn().Err(err).Msg("failed to build LCP Configure-Request")
		return
	}
	ppp.logger.Debug().Uint8("id", pkt.ID).Uint16("mru", mru).Msg("sent LCP Configure-Request")
	ppp.sendChan <- raw
}

// handleLCP answers inbound LCP directly rather than relaying it to a
// registered consumer, since this stack runs no full LCP state machine:
// a Configure-Request's MRU option (RFC 1661 §6.1) tightens allowMRU via
// mruFromOptions and is echoed back in a Configure-Ack; anything else is
// logged and dropped.
func (ppp *PPP) handleLCP(buf []byte) {
	pkt := new(Pkt)
	if err := pkt.Parse(buf); err != nil {
		ppp.logger.Warn().Err(err).Msg("failed to parse LCP packet")
		return
	}

	switch pkt.Code {
	case CodeConfigureRequest:
		if mru, ok := mruFromOptions(pkt.Options); ok {
			ppp.mruMu.Lock()
			if ppp.allowMRU == 0 || mru < ppp.allowMRU {
				ppp.allowMRU = mru
			}
			ppp.mruMu.Unlock()
			ppp.logger.Debug().Uint16("mru", mru).Msg("peer requested MRU via LCP Configure-Request")
		}

		ack := NewPkt(ProtoLCP)
		ack.Code = CodeConfigureAck
		ack.ID = pkt.ID
		ack.Options = pkt.Options
		raw, err := NewPPPPkt(ack, ProtoLCP).Serialize()
		if err != nil {
			ppp.logger.Warn().Err(err).Msg("failed to build LCP Configure-Ack")
			return
		}
		ppp.sendChan <- raw
	case CodeConfigureAck:
		if mru, ok := mruFromOptions(pkt.Options); ok {
			ppp.logger.Debug().Uint16("mru", mru).Msg("peer acknowledged our requested MRU")
		}
	default:
		ppp.logger.Debug().Uint8("code", uint8(pkt.Code)).Msg("ignoring LCP packet outside Configure-Request/Ack")
	}
}
