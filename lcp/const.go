package lcp

import "time"

// PPPProtocolNumber is the two-byte protocol field carried at the front
// of every PPP frame (RFC 1661 §2), used to multiplex LCP/IPCP/IPv6CP and
// the network-layer protocols over a single PPPoE session.
type PPPProtocolNumber uint16

// Protocol numbers relevant to a PPPoE client's PPP stack.
const (
	ProtoIPv4   PPPProtocolNumber = 0x0021
	ProtoIPv6   PPPProtocolNumber = 0x0057
	ProtoIPCP   PPPProtocolNumber = 0x8021
	ProtoIPv6CP PPPProtocolNumber = 0x8057
	ProtoLCP    PPPProtocolNumber = 0xc021
	ProtoPAP    PPPProtocolNumber = 0xc023
	ProtoCHAP   PPPProtocolNumber = 0xc223
)

// CodeType is an LCP packet's code field (RFC 1661 §5).
type CodeType uint8

// LCP codes.
const (
	CodeConfigureRequest CodeType = 1
	CodeConfigureAck     CodeType = 2
	CodeConfigureNak     CodeType = 3
	CodeConfigureReject  CodeType = 4
	CodeTerminateRequest CodeType = 5
	CodeTerminateAck     CodeType = 6
	CodeCodeReject       CodeType = 7
	CodeProtocolReject   CodeType = 8
	CodeEchoRequest      CodeType = 9
	CodeEchoReply        CodeType = 10
	CodeDiscardRequest   CodeType = 11
)

// LCP configuration option types (RFC 1661 §6).
const (
	OptionMRU PPPOption = 1
)

// PPPOption is an LCP configuration option's type field.
type PPPOption uint8

const (
	relayChanDepth = 128
	sendCHanDepth  = 128
	// MaxPPPMsgSize is the largest PPP frame this stack will ever build or accept.
	MaxPPPMsgSize = 1500
	// readTimeout bounds each read so the recv loop can observe ctx.Done
	// between blocking reads (adapted from gandalfast-zouppp/lcp/ppp.go's
	// unexported constant of the same name).
	readTimeout = 3 * time.Second

	// defaultMRU is what this stack asks for absent any RFC 4638 signal
	// from the discovery phase.
	defaultMRU = 1492
)
