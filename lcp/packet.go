package lcp

import (
	"encoding/binary"
	"fmt"
)

// Option is a single LCP configuration option (RFC 1661 §6): a one-byte
// type, a one-byte length (including this header), and a value.
type Option struct {
	Type  PPPOption
	Value []byte
}

// Serialize returns the wire-format type+length+value bytes for o.
func (o Option) Serialize() ([]byte, error) {
	if len(o.Value) > 0xfd {
		return nil, fmt.Errorf("lcp: option %d value too long: %d bytes", o.Type, len(o.Value))
	}
	buf := make([]byte, 2+len(o.Value))
	buf[0] = byte(o.Type)
	buf[1] = byte(len(buf))
	copy(buf[2:], o.Value)
	return buf, nil
}

// mruOption builds a Maximum-Receive-Unit option carrying mru.
func mruOption(mru uint16) Option {
	v := make([]byte, 2)
	binary.BigEndian.PutUint16(v, mru)
	return Option{Type: OptionMRU, Value: v}
}

// mruFromOptions returns the MRU value carried by the first
// Maximum-Receive-Unit option in opts, if any.
func mruFromOptions(opts []Option) (uint16, bool) {
	for _, o := range opts {
		if o.Type == OptionMRU && len(o.Value) == 2 {
			return binary.BigEndian.Uint16(o.Value), true
		}
	}
	return 0, false
}

// Pkt is an LCP packet: Code, ID, and either a flat Options list
// (Configure-Request/Ack/Nak/Reject) or an opaque Payload (everything
// else, including the Protocol-Reject payload built by sendProtocolRejct).
type Pkt struct {
	Code    CodeType
	ID      uint8
	Options []Option
	Payload []byte
}

// NewPkt builds an empty LCP packet of the given protocol; proto is
// accepted for symmetry with NewPPPPkt's call site but LCP packets always
// carry ProtoLCP on the wire -- kept so callers read naturally as
// "a new packet, for this protocol".
func NewPkt(proto PPPProtocolNumber) *Pkt {
	return &Pkt{}
}

// Serialize implements Serializer.
func (p *Pkt) Serialize() ([]byte, error) {
	var body []byte
	if len(p.Options) > 0 {
		for _, o := range p.Options {
			raw, err := o.Serialize()
			if err != nil {
				return nil, err
			}
			body = append(body, raw...)
		}
	} else {
		body = p.Payload
	}

	buf := make([]byte, 4+len(body))
	buf[0] = byte(p.Code)
	buf[1] = p.ID
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(buf)))
	copy(buf[4:], body)
	return buf, nil
}

// Parse implements Serializer.
func (p *Pkt) Parse(buf []byte) error {
	if len(buf) < 4 {
		return fmt.Errorf("lcp: packet too short (%d bytes)", len(buf))
	}
	p.Code = CodeType(buf[0])
	p.ID = buf[1]
	length := int(binary.BigEndian.Uint16(buf[2:4]))
	if length > len(buf) {
		return fmt.Errorf("lcp: packet declares length %d, only %d bytes available", length, len(buf))
	}
	body := buf[4:length]

	switch p.Code {
	case CodeConfigureRequest, CodeConfigureAck, CodeConfigureNak, CodeConfigureReject:
		opts, err := parseOptions(body)
		if err != nil {
			return err
		}
		p.Options = opts
	default:
		p.Payload = body
	}
	return nil
}

func parseOptions(buf []byte) ([]Option, error) {
	var out []Option
	cursor := 0
	for cursor < len(buf) {
		if cursor+2 > len(buf) {
			return nil, fmt.Errorf("lcp: truncated option header at offset %d", cursor)
		}
		optType := PPPOption(buf[cursor])
		optLen := int(buf[cursor+1])
		if optLen < 2 || cursor+optLen > len(buf) {
			return nil, fmt.Errorf("lcp: option %d declares invalid length %d", optType, optLen)
		}
		out = append(out, Option{Type: optType, Value: append([]byte(nil), buf[cursor+2:cursor+optLen]...)})
		cursor += optLen
	}
	return out, nil
}
