package pppoe

import (
	"net"
	"time"

	"github.com/rs/zerolog"
)

// discoveryState is one of the five states in spec.md §3 "discovery_state".
type discoveryState int

const (
	stateInitial discoveryState = iota
	stateSentPADI
	stateReceivedPADO
	stateSentPADR
	stateSession
)

func (s discoveryState) String() string {
	switch s {
	case stateInitial:
		return "Initial"
	case stateSentPADI:
		return "SentPADI"
	case stateReceivedPADO:
		return "ReceivedPADO"
	case stateSentPADR:
		return "SentPADR"
	case stateSession:
		return "Session"
	default:
		return "Unknown"
	}
}

// ServiceName identifies how the Service-Name tag should be emitted in
// PADI: either as a specific filter/selector string, "any" (empty value,
// tag still present), or omitted entirely for ACs that reject an empty
// tag (spec.md §3, §9 "Sentinel values").
type ServiceName struct {
	omit  bool
	value string
}

// AnyServiceName accepts any AC and emits an empty Service-Name tag.
func AnyServiceName() ServiceName { return ServiceName{} }

// NamedServiceName filters on a specific service and emits it verbatim.
func NamedServiceName(name string) ServiceName { return ServiceName{value: name} }

// OmitServiceName omits the Service-Name tag from PADI entirely, for ACs
// that are not RFC 2516 compliant and reject an empty tag. This replaces
// the original's magic string comparison against
// "NO-SERVICE-NAME-NON-RFC-COMPLIANT" with an explicit configuration
// variant (spec.md §9 "Sentinel values").
func OmitServiceName() ServiceName { return ServiceName{omit: true} }

// MRUSink is the interface boundary by which Discover reports the
// negotiated MRU ceiling to whatever PPP stack is embedded alongside the
// discovery core (spec.md §9 "Embedded vs standalone build").
type MRUSink interface {
	// SetMRUCeiling clamps the sink's advertised/requested MRU to at most mru.
	SetMRUCeiling(mru uint16)
	// RequestedMRU returns the MRU the sink would like to request, used to
	// decide whether a PPP-Max-Payload tag belongs in PADI/PADR.
	RequestedMRU() uint16
}

// PADTSender emits a PADT packet for the session described by ctx, with
// reason as the human-readable cause (spec.md §4.F).
type PADTSender func(ctx *Context, reason string) error

// Context is the mutable per-attempt discovery context (spec.md §3
// "Connection context"). It is created by external setup, mutated only by
// Discover, and consumed by the PPP stack afterwards.
type Context struct {
	// MyMAC is fixed for the lifetime of the context.
	MyMAC net.HardwareAddr
	// PeerMAC is zero until a PADO is accepted, then immutable.
	PeerMAC net.HardwareAddr

	// ServiceName/ACName are optional configured filters. An empty ACName
	// means "accept any AC-Name"; ServiceName additionally distinguishes
	// "any" from "omit the tag" (see ServiceName).
	ServiceName ServiceName
	ACName      string

	// HostUniq, if non-empty, must be echoed verbatim by every accepted frame.
	HostUniq []byte

	// Cookie and RelayID are captured from the accepted PADO and echoed
	// verbatim in PADR.
	Cookie  Tag
	RelayID Tag

	// SessionID is valid only once discoveryState == stateSession.
	SessionID uint16

	discoveryState discoveryState
	numPADOs       int
	seenMaxPayload bool

	// DiscoveryTimeout is the initial per-phase timeout (spec.md §3).
	DiscoveryTimeout time.Duration
	// MaxAttempts is the retry count per phase before the phase is
	// considered exhausted (spec.md §3).
	MaxAttempts int
	// PrintACNames puts the engine into probe mode (spec.md §4.D).
	PrintACNames bool
	// Persist makes phase exhaustion retry forever instead of failing.
	Persist bool
	// SkipDiscovery transitions straight to Session, optionally issuing a
	// PADT if KillSession is also set (spec.md §4.D entry precondition).
	SkipDiscovery bool
	// KillSession, combined with SkipDiscovery, tears down a session
	// instead of negotiating one.
	KillSession bool

	// MRUSink, if set, receives the RFC 4638 MRU ceiling decision and is
	// consulted for the locally-requested MRU advertised in PADI/PADR.
	MRUSink MRUSink
	// PADTSender emits PADT for the kill-session shortcut. Required when
	// KillSession is set.
	PADTSender PADTSender

	// Logger receives every diagnostic the core emits. Defaults to a
	// disabled logger if nil when Discover starts.
	Logger *zerolog.Logger
}

// Modifier configures a Context at construction time, following the
// functional-options convention of gandalfast-zouppp/pppoe.Modifier.
type Modifier func(*Context)

// WithServiceName sets the Service-Name filter/selector.
func WithServiceName(s ServiceName) Modifier {
	return func(c *Context) { c.ServiceName = s }
}

// WithACName sets the AC-Name filter.
func WithACName(name string) Modifier {
	return func(c *Context) { c.ACName = name }
}

// WithHostUniq sets the Host-Uniq demultiplexer value.
func WithHostUniq(v []byte) Modifier {
	return func(c *Context) { c.HostUniq = v }
}

// WithTimeout overrides the default per-phase timeout.
func WithTimeout(d time.Duration) Modifier {
	return func(c *Context) { c.DiscoveryTimeout = d }
}

// WithMaxAttempts overrides the default retry count per phase.
func WithMaxAttempts(n int) Modifier {
	return func(c *Context) { c.MaxAttempts = n }
}

// WithProbeMode enables probe mode (print AC names and exit).
func WithProbeMode(enabled bool) Modifier {
	return func(c *Context) { c.PrintACNames = enabled }
}

// WithPersist enables persistent (infinite retry) mode.
func WithPersist(enabled bool) Modifier {
	return func(c *Context) { c.Persist = enabled }
}

// WithSkipDiscovery skips straight to the Session state.
func WithSkipDiscovery(skip bool) Modifier {
	return func(c *Context) { c.SkipDiscovery = skip }
}

// WithKillSession, combined with WithSkipDiscovery, tears a session down.
func WithKillSession(kill bool) Modifier {
	return func(c *Context) { c.KillSession = kill }
}

// WithMRUSink attaches the embedded PPP stack's MRU negotiation callback.
func WithMRUSink(sink MRUSink) Modifier {
	return func(c *Context) { c.MRUSink = sink }
}

// WithPADTSender attaches the PADT emission collaborator.
func WithPADTSender(sender PADTSender) Modifier {
	return func(c *Context) { c.PADTSender = sender }
}

// WithLogger attaches a logger.
func WithLogger(l *zerolog.Logger) Modifier {
	return func(c *Context) { c.Logger = l }
}

// NewContext builds a Context for the given local MAC, applying any
// Modifiers over the spec.md §3 defaults.
func NewContext(myMAC net.HardwareAddr, opts ...Modifier) *Context {
	c := &Context{
		MyMAC:            myMAC,
		PeerMAC:          make(net.HardwareAddr, 6),
		DiscoveryTimeout: DefaultTimeout,
		MaxAttempts:      DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		disabled := zerolog.Nop()
		c.Logger = &disabled
	}
	return c
}

// State returns the context's current discovery state, for tests and
// diagnostics.
func (c *Context) State() string { return c.discoveryState.String() }
