package pppoe

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Frame is a full wire-format PPPoE discovery frame: the 14-byte Ethernet
// header, the 6-byte PPPoE header, and the TLV payload (spec.md §3
// "Frame", §6 byte layout table).
type Frame struct {
	DstMAC    net.HardwareAddr
	SrcMAC    net.HardwareAddr
	Code      Code
	SessionID uint16
	Tags      Tags
}

// Encode produces the contiguous wire bytes for f: 14 bytes of Ethernet
// header, 6 bytes of PPPoE header, followed by the TLV stream, in that
// order. It fails if any tag would overflow the 1484-byte payload window
// (spec.md §4.A "Encode").
func (f *Frame) Encode() ([]byte, error) {
	if len(f.DstMAC) != 6 || len(f.SrcMAC) != 6 {
		return nil, fmt.Errorf("pppoe: encode: MAC addresses must be 6 bytes")
	}
	payload, err := encodeTags(f.Tags)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, etherHdrSize+pppoeHdrSize+len(payload))
	copy(buf[0:6], f.DstMAC)
	copy(buf[6:12], f.SrcMAC)
	binary.BigEndian.PutUint16(buf[12:14], EtherTypePPPoEDiscovery)

	buf[14] = vertype
	buf[15] = byte(f.Code)
	binary.BigEndian.PutUint16(buf[16:18], f.SessionID)
	binary.BigEndian.PutUint16(buf[18:20], uint16(len(payload)))
	copy(buf[20:], payload)

	return buf, nil
}

// DecodeFrame parses a received buffer into a Frame. It requires at least
// 20 bytes (Ethernet + PPPoE headers) and rejects a frame whose declared
// payload length would run past the end of buf ("Bogus PPPoE length
// field", spec.md §4.A "Decode", §7).
func DecodeFrame(buf []byte) (*Frame, error) {
	if len(buf) < etherHdrSize+pppoeHdrSize {
		return nil, fmt.Errorf("pppoe: decode: frame too short (%d bytes)", len(buf))
	}

	f := &Frame{
		DstMAC: net.HardwareAddr(append([]byte(nil), buf[0:6]...)),
		SrcMAC: net.HardwareAddr(append([]byte(nil), buf[6:12]...)),
	}

	hdr := buf[etherHdrSize:]
	if hdr[0] != vertype {
		return nil, fmt.Errorf("pppoe: decode: unexpected version/type byte 0x%02x", hdr[0])
	}
	f.Code = Code(hdr[1])
	f.SessionID = binary.BigEndian.Uint16(hdr[2:4])
	payloadLen := int(binary.BigEndian.Uint16(hdr[4:6]))

	if payloadLen+etherHdrSize+pppoeHdrSize > len(buf) {
		return nil, fmt.Errorf("pppoe: bogus PPPoE length field (%d)", payloadLen)
	}

	payload := hdr[pppoeHdrSize : pppoeHdrSize+payloadLen]
	tags, err := parseTags(payload)
	if err != nil {
		return nil, err
	}
	f.Tags = tags
	return f, nil
}
