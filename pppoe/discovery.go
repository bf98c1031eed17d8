package pppoe

import (
	"fmt"
	"time"
)

// verdict is what a completed PADR/PADS phase attempt reports to the
// outer driver loop in Discover. It replaces the original C
// implementation's "goto SEND_PADI" (spec.md §9 "Label-based control
// flow") with an explicit two-level state machine.
type verdict int

const (
	verdictSession verdict = iota
	verdictRestartDiscovery
	verdictTimeout
	verdictFatal
)

// Discover performs the PPPoE discovery phase of spec.md §4.D: it
// orchestrates PADI/PADR issuance and PADO/PADS reception against ctx and
// conn, mutating ctx in place and returning a typed Outcome. Discover
// never terminates the process itself (spec.md §9 "Process-terminating
// paths"); the caller translates Outcome into an exit code, including for
// probe mode and the kill-session shortcut.
//
// ctx.discoveryState must be Initial on entry; a second call on the same
// Context is undefined (spec.md §5).
func Discover(ctx *Context, conn Conn) (Outcome, error) {
	if ctx.SkipDiscovery {
		ctx.discoveryState = stateSession
		if ctx.KillSession {
			if ctx.PADTSender == nil {
				return Outcome{}, fmt.Errorf("pppoe: kill-session requested but no PADTSender configured")
			}
			if err := ctx.PADTSender(ctx, "session killed manually"); err != nil {
				return Outcome{}, err
			}
		}
		return Outcome{Kind: OutcomeKindSession, Session: ctx.SessionInfo()}, nil
	}

	for {
		v, err := padiPhase(ctx, conn)
		if err != nil {
			return Outcome{}, err
		}
		if ctx.PrintACNames {
			return Outcome{Kind: OutcomeKindProbeDone, ProbeFound: ctx.numPADOs}, nil
		}
		switch v {
		case verdictFatal:
			return Outcome{Kind: OutcomeKindFatal, Reason: "error tag in PADO"}, nil
		case verdictTimeout:
			return Outcome{Kind: OutcomeKindTimeout, Phase: "PADO"}, nil
		}

		v, err = padrPhase(ctx, conn)
		if err != nil {
			return Outcome{}, err
		}
		switch v {
		case verdictRestartDiscovery:
			ctx.discoveryState = stateInitial
			ctx.PeerMAC = make([]byte, 6)
			continue
		case verdictFatal:
			return Outcome{Kind: OutcomeKindFatal, Reason: "error tag in PADS"}, nil
		case verdictTimeout:
			return Outcome{Kind: OutcomeKindTimeout, Phase: "PADS"}, nil
		}

		finalizeMRU(ctx)
		ctx.discoveryState = stateSession
		return Outcome{Kind: OutcomeKindSession, Session: ctx.SessionInfo()}, nil
	}
}

// padiPhase runs the outer PADI/PADO loop of spec.md §4.D. It returns
// verdictSession once ctx.discoveryState == stateReceivedPADO (or, in
// probe mode, once the probe window has closed), verdictTimeout if
// max_attempts is exhausted without persist, or verdictFatal if a
// non-probe PADO carried an error tag and persist is not set.
func padiPhase(ctx *Context, conn Conn) (verdict, error) {
	attempts := 0
	timeout := ctx.DiscoveryTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	for {
		attempts++
		if attempts > ctx.MaxAttempts {
			ctx.Logger.Error().Msg("timeout waiting for PADO packets")
			if ctx.Persist {
				attempts = 0
				timeout = ctx.DiscoveryTimeout
			} else {
				return verdictTimeout, nil
			}
		}

		if err := sendPADI(ctx, conn); err != nil {
			return 0, err
		}
		ctx.discoveryState = stateSentPADI

		v, err := waitForPADO(ctx, conn, timeout)
		if err != nil {
			return 0, err
		}
		if v == verdictFatal {
			return verdictFatal, nil
		}

		// Exponential backoff, except in probe mode (spec.md §4.D step 4,
		// §8 property 7); capped so persistent mode can't wait forever
		// between attempts (spec.md §9 Open Questions).
		if !ctx.PrintACNames {
			timeout *= 2
			if timeout > maxBackoff {
				timeout = maxBackoff
			}
		}

		if ctx.PrintACNames && ctx.numPADOs > 0 {
			return verdictSession, nil
		}
		if ctx.discoveryState == stateReceivedPADO {
			return verdictSession, nil
		}
	}
}

// waitForPADO runs one receive window of the PADI phase, applying
// spec.md §4.B's filtering in order and spec.md §4.D's per-frame handling
// (cookie/relay-id capture, probe-mode printing vs. commit-on-first-match).
func waitForPADO(ctx *Context, conn Conn, timeout time.Duration) (verdict, error) {
	deadline := time.Now().Add(timeout)

	for {
		f, ok, err := recvUntil(ctx, conn, deadline, func(f *Frame) bool {
			if !forMe(ctx, f) {
				return false
			}
			if !hostUniqOK(ctx, f) {
				return false
			}
			if f.Code != CodePADO {
				return false
			}
			if isBroadcastSource(f) {
				ctx.Logger.Warn().Msg("ignoring PADO packet from broadcast MAC address")
				return false
			}
			return true
		})
		if err != nil {
			return 0, err
		}
		if !ok {
			return verdictTimeout, nil
		}

		pc := evaluatePADO(ctx, f)

		if pc.gotError {
			if ctx.PrintACNames {
				ctx.Logger.Info().Str("tag", pc.errTag.String()).Str("value", pc.errValue).Msg("AC reported an error in probe mode")
			} else {
				ctx.Logger.Error().Str("tag", pc.errTag.String()).Str("value", pc.errValue).Msg("error in PADO packet")
				if !ctx.Persist {
					return verdictFatal, nil
				}
				continue
			}
		}

		if !pc.seenACName {
			ctx.Logger.Warn().Msg("ignoring PADO packet with no AC-Name tag")
			continue
		}
		if !pc.seenServiceName {
			ctx.Logger.Warn().Msg("ignoring PADO packet with no Service-Name tag")
			continue
		}

		ctx.numPADOs++

		if pc.cookie != nil {
			ctx.Cookie = pc.cookie
		}
		if pc.relayID != nil {
			ctx.RelayID = pc.relayID
		}
		if mru, ok := maxPayloadFromTags(f.Tags); ok {
			ctx.seenMaxPayload = true
			_ = mru
		}

		if ctx.PrintACNames {
			ctx.Logger.Info().
				Str("ac-name", pc.acName).
				Str("service-name", pc.serviceName).
				Str("cookie", hexPreview(pc.cookie)).
				Str("relay-id", hexPreview(pc.relayID)).
				Str("ac-mac", f.SrcMAC.String()).
				Msg("PADO received")
			// Probe mode collects until the deadline expires; it never
			// breaks out on the first match (spec.md §4.D step 3, §9 Open
			// Questions).
			continue
		}

		if pc.acNameOK && pc.serviceNameOK {
			ctx.PeerMAC = f.SrcMAC
			ctx.discoveryState = stateReceivedPADO
			return verdictSession, nil
		}
	}
}

// padrPhase runs the inner PADR/PADS loop of spec.md §4.D.
func padrPhase(ctx *Context, conn Conn) (verdict, error) {
	attempts := 0
	timeout := ctx.DiscoveryTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	for {
		attempts++
		if attempts > ctx.MaxAttempts {
			ctx.Logger.Error().Msg("timeout waiting for PADS packets")
			if ctx.Persist {
				return verdictRestartDiscovery, nil
			}
			return verdictTimeout, nil
		}

		if err := sendPADR(ctx, conn); err != nil {
			return 0, err
		}
		ctx.discoveryState = stateSentPADR

		v, err := waitForPADS(ctx, conn, timeout)
		if err != nil {
			return 0, err
		}
		if v != verdictTimeout {
			return v, nil
		}

		timeout *= 2
		if timeout > maxBackoff {
			timeout = maxBackoff
		}
	}
}

// waitForPADS runs one receive window of the PADR phase. A PADS carrying
// an error tag is logged and dropped without resending PADR: the same
// window keeps listening until its deadline, matching the original's
// waitForPADS do-while loop rather than bouncing control back to
// padrPhase for an immediate retransmit.
func waitForPADS(ctx *Context, conn Conn, timeout time.Duration) (verdict, error) {
	deadline := time.Now().Add(timeout)

	for {
		f, ok, err := recvUntil(ctx, conn, deadline, func(f *Frame) bool {
			if !fromExpectedPeer(ctx, f) {
				return false
			}
			if !forMe(ctx, f) {
				return false
			}
			if !hostUniqOK(ctx, f) {
				return false
			}
			return f.Code == CodePADS
		})
		if err != nil {
			return 0, err
		}
		if !ok {
			return verdictTimeout, nil
		}

		if typ, val, isErr := padsError(f); isErr {
			ctx.Logger.Error().Str("tag", typ.String()).Str("value", val).Msg("error in PADS packet")
			continue
		}
		if mru, ok := maxPayloadFromTags(f.Tags); ok {
			ctx.seenMaxPayload = true
			_ = mru
		}

		ctx.SessionID = f.SessionID
		ctx.Logger.Info().Uint16("session-id", ctx.SessionID).Msg("PPP session established")
		if ctx.SessionID == 0 || ctx.SessionID == 0xFFFF {
			ctx.Logger.Warn().Uint16("session-id", ctx.SessionID).Msg("AC used a reserved session value -- violates RFC 2516")
		}
		ctx.discoveryState = stateSession
		return verdictSession, nil
	}
}

// finalizeMRU implements spec.md §4.D "MRU finalisation": absent any
// PPP-Max-Payload tag in PADO or PADS, the embedded PPP stack's MRU is
// clamped to 1492 per RFC 4638.
func finalizeMRU(ctx *Context) {
	if ctx.MRUSink == nil {
		return
	}
	if !ctx.seenMaxPayload {
		ctx.MRUSink.SetMRUCeiling(eth1492MTU)
	}
}

// maxPayloadFromTags extracts the PPP-Max-Payload tag's MRU value, if
// present (spec.md §3 "Tag (TLV)" table entry 0x0120).
func maxPayloadFromTags(tags Tags) (uint16, bool) {
	t := tags.First(TagTypePPPMaxPayload)
	if t == nil {
		return 0, false
	}
	v := t.Value()
	if len(v) != 2 {
		return 0, false
	}
	return uint16(v[0])<<8 | uint16(v[1]), true
}

// hexPreview renders the first 20 bytes of a tag's value as hex, with a
// trailing ellipsis if truncated, matching the original's cookie/relay-id
// probe-mode printing (spec.md §4.D step 3).
func hexPreview(t Tag) string {
	if t == nil {
		return ""
	}
	v := t.Value()
	n := len(v)
	trunc := n > 20
	if trunc {
		n = 20
	}
	out := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, hexDigits[v[i]>>4], hexDigits[v[i]&0xf])
	}
	if trunc {
		out = append(out, []byte("...")...)
	}
	return string(out)
}

var hexDigits = []byte("0123456789abcdef")
