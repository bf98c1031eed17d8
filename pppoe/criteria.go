package pppoe

import "bytes"

// padoCriteria mirrors the original's struct PacketCriteria: the
// scratch state accumulated while walking a single PADO's tags
// (spec.md §4.B step 6 "Identity match").
type padoCriteria struct {
	seenACName      bool
	seenServiceName bool
	acNameOK        bool
	serviceNameOK   bool
	acName          string
	serviceName     string
	cookie          Tag
	relayID         Tag
	gotError        bool
	errTag          TagType
	errValue        string
}

// forMe implements spec.md §4.B step 1: drop unless the frame's
// destination MAC equals my_mac exactly.
func forMe(ctx *Context, f *Frame) bool {
	return bytes.Equal(f.DstMAC, ctx.MyMAC)
}

// hostUniqOK implements spec.md §4.B step 2: if Host-Uniq is configured,
// the frame must carry an exact-match Host-Uniq tag.
func hostUniqOK(ctx *Context, f *Frame) bool {
	if len(ctx.HostUniq) == 0 {
		return true
	}
	for _, t := range f.Tags.Get(TagTypeHostUniq) {
		if bytes.Equal(t.Value(), ctx.HostUniq) {
			return true
		}
	}
	return false
}

// fromExpectedPeer implements spec.md §4.B step 3, applicable to PADS only:
// drop unless the source MAC equals the peer MAC captured from the
// accepted PADO.
func fromExpectedPeer(ctx *Context, f *Frame) bool {
	return bytes.Equal(f.SrcMAC, ctx.PeerMAC)
}

// isBroadcastSource implements spec.md §4.B step 5: a malformed AC replying
// from the broadcast MAC.
func isBroadcastSource(f *Frame) bool {
	return bytes.Equal(f.SrcMAC, BroadcastMAC[:])
}

// errorTagValue returns (type, value, true) if t is one of the three
// fatal-unless-probing error tags (spec.md §3 "Known types", §4.B step 7).
func errorTagValue(t Tag) (TagType, string, bool) {
	switch t.Type() {
	case TagTypeServiceNameError, TagTypeACSystemError, TagTypeGenericError:
		return t.Type(), string(t.Value()), true
	}
	return 0, "", false
}

// evaluatePADO walks f's tags and fills in a padoCriteria per spec.md
// §4.B steps 6-7: AC-Name/Service-Name presence and filter match, cookie
// and relay-id capture, and error-tag detection.
func evaluatePADO(ctx *Context, f *Frame) *padoCriteria {
	pc := &padoCriteria{
		acNameOK:      ctx.ACName == "",
		serviceNameOK: ctx.ServiceName.omit || ctx.ServiceName.value == "",
	}
	for _, t := range f.Tags {
		switch t.Type() {
		case TagTypeACName:
			pc.seenACName = true
			pc.acName = string(t.Value())
			if ctx.ACName != "" && pc.acName == ctx.ACName {
				pc.acNameOK = true
			}
		case TagTypeServiceName:
			pc.seenServiceName = true
			pc.serviceName = string(t.Value())
			if !ctx.ServiceName.omit && ctx.ServiceName.value != "" && pc.serviceName == ctx.ServiceName.value {
				pc.serviceNameOK = true
			}
		case TagTypeACCookie:
			pc.cookie = t
		case TagTypeRelaySessionID:
			pc.relayID = t
		default:
			if typ, val, isErr := errorTagValue(t); isErr {
				pc.gotError = true
				pc.errTag = typ
				pc.errValue = val
			}
		}
	}
	return pc
}

// padsError reports whether f (an accepted PADS frame) carries any of the
// three error tags (spec.md §4.B step 7, applied in waitForPADS).
func padsError(f *Frame) (TagType, string, bool) {
	for _, t := range f.Tags {
		if typ, val, isErr := errorTagValue(t); isErr {
			return typ, val, true
		}
	}
	return 0, "", false
}
