package pppoe

import "net"

// SessionInfo is the set of values published to the external PPP stack
// once discovery reaches the terminal Session state (spec.md §4.E
// "Session outputs"). No further discovery traffic is generated by the
// core after this point.
type SessionInfo struct {
	// PeerMAC is the AC's Ethernet address.
	PeerMAC net.HardwareAddr
	// SessionID is the negotiated session id, network byte order meaning
	// preserved (spec.md §4.E): callers needing the wire value can encode
	// it directly; this field holds the host-endian uint16.
	SessionID uint16
	// RelayID is the Relay-Session-Id tag captured from the accepted PADO, if any.
	RelayID Tag
	// MRU is the finalized MRU ceiling: 1492 unless a PPP-Max-Payload tag
	// was observed in PADO or PADS, per RFC 4638 (spec.md §4.D "MRU
	// finalisation").
	MRU uint16
}

// SessionInfo extracts the published session outputs from c. It is only
// meaningful once c.State() == "Session".
func (c *Context) SessionInfo() SessionInfo {
	mru := uint16(eth1492MTU)
	if c.seenMaxPayload && c.MRUSink != nil {
		if requested := c.MRUSink.RequestedMRU(); requested > mru {
			mru = requested
		}
	}
	return SessionInfo{
		PeerMAC:   c.PeerMAC,
		SessionID: c.SessionID,
		RelayID:   c.RelayID,
		MRU:       mru,
	}
}
