package pppoe

import "time"

// Code is a PPPoE discovery packet code.
type Code byte

// Discovery codes defined by RFC 2516.
const (
	CodePADI    Code = 0x09
	CodePADO    Code = 0x07
	CodePADR    Code = 0x19
	CodePADS    Code = 0x65
	CodePADT    Code = 0xa7
	CodeSession Code = 0x00
)

func (c Code) String() string {
	switch c {
	case CodePADI:
		return "PADI"
	case CodePADO:
		return "PADO"
	case CodePADR:
		return "PADR"
	case CodePADS:
		return "PADS"
	case CodePADT:
		return "PADT"
	case CodeSession:
		return "Session"
	default:
		return "Unknown"
	}
}

// TagType is the type field of a PPPoE TLV tag.
type TagType uint16

// Tag types relevant to the discovery core.
const (
	TagTypeServiceName      TagType = 0x0101
	TagTypeACName           TagType = 0x0102
	TagTypeHostUniq         TagType = 0x0103
	TagTypeACCookie         TagType = 0x0104
	TagTypeVendorSpecific   TagType = 0x0105
	TagTypeRelaySessionID   TagType = 0x0110
	TagTypePPPMaxPayload    TagType = 0x0120
	TagTypeServiceNameError TagType = 0x0201
	TagTypeACSystemError    TagType = 0x0202
	TagTypeGenericError     TagType = 0x0203
)

func (t TagType) String() string {
	switch t {
	case TagTypeServiceName:
		return "Service-Name"
	case TagTypeACName:
		return "AC-Name"
	case TagTypeHostUniq:
		return "Host-Uniq"
	case TagTypeACCookie:
		return "AC-Cookie"
	case TagTypeVendorSpecific:
		return "Vendor-Specific"
	case TagTypeRelaySessionID:
		return "Relay-Session-Id"
	case TagTypePPPMaxPayload:
		return "PPP-Max-Payload"
	case TagTypeServiceNameError:
		return "Service-Name-Error"
	case TagTypeACSystemError:
		return "AC-System-Error"
	case TagTypeGenericError:
		return "Generic-Error"
	default:
		return "Unknown"
	}
}

const (
	// EtherTypePPPoEDiscovery is the Ethertype for PPPoE Discovery frames.
	EtherTypePPPoEDiscovery = 0x8863
	// EtherTypePPPoESession is the Ethertype for PPPoE Session frames.
	EtherTypePPPoESession = 0x8864

	// etherHdrSize is the size of the Ethernet header prefix of a Frame.
	etherHdrSize = 14
	// pppoeHdrSize is the size of the PPPoE discovery header.
	pppoeHdrSize = 6
	// tagHdrSize is the size of a TLV's type+length prefix.
	tagHdrSize = 4
	// maxPayloadSize is the maximum payload window per RFC 2516 (1484 bytes:
	// 1500 Ethernet MTU minus the 6-byte PPPoE header minus the 10-byte gap
	// rp-pppoe reserves, mirrored verbatim from discovery.c's packet layout).
	maxPayloadSize = 1484
	// maxFrameSize is the largest frame Encode will ever produce; DecodeFrame
	// does not check it.
	maxFrameSize = etherHdrSize + pppoeHdrSize + maxPayloadSize

	// vertype is the PPPoE version(4)|type(4) byte, always 0x11.
	vertype = 0x11

	// eth1492MTU is the RFC 4638 MRU ceiling applied absent a negotiated
	// PPP-Max-Payload tag.
	eth1492MTU = 1492

	// serviceNameSentinel is the magic string the original C client
	// compared against to omit the Service-Name tag (spec.md §3, §9).
	// Nothing in this package compares against it: a Service-Name equal to
	// it is sent verbatim, and only OmitServiceName leaves the tag out.
	serviceNameSentinel = "NO-SERVICE-NAME-NON-RFC-COMPLIANT"
)

// BroadcastMAC is the Ethernet broadcast address.
var BroadcastMAC = [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Defaults for Context configuration knobs (spec.md §3).
const (
	// DefaultTimeout is the default per-phase discovery timeout.
	DefaultTimeout = 5 * time.Second
	// DefaultMaxAttempts is the default retry count per phase before
	// surfacing a timeout (non-persistent mode) or restarting (persistent).
	DefaultMaxAttempts = 3
	// maxBackoff caps the exponential timeout doubling (spec.md §9, Open
	// Questions: "choose a ceiling... to avoid pathological waits").
	maxBackoff = 60 * time.Second
)
