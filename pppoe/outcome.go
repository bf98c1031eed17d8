package pppoe

// Outcome is the typed result of Discover, replacing the original C
// implementation's direct exit() calls from deep inside the state machine
// and its tag parsers (spec.md §9 "Process-terminating paths"). The
// caller (e.g. cmd/pppoedisc's main) is responsible for translating an
// Outcome into a process exit code; Discover itself never terminates the
// process.
type Outcome struct {
	// Kind discriminates which of the fields below are meaningful.
	Kind OutcomeKind
	// Session is populated when Kind == OutcomeKindSession.
	Session SessionInfo
	// ProbeFound is populated when Kind == OutcomeKindProbeDone: the
	// number of matching PADOs observed before the probe deadline.
	ProbeFound int
	// Phase is populated when Kind == OutcomeKindTimeout: "PADO" or "PADS".
	Phase string
	// Reason is populated when Kind == OutcomeKindFatal.
	Reason string
}

// OutcomeKind discriminates the variants of Outcome.
type OutcomeKind int

const (
	// OutcomeKindSession means discovery completed and Session is valid.
	OutcomeKindSession OutcomeKind = iota
	// OutcomeKindProbeDone means probe mode ran to its deadline; ProbeFound
	// holds how many ACs answered. Zero is failure, non-zero is success,
	// mirroring the original's exit(EXIT_SUCCESS/FAILURE) on numPADOs.
	OutcomeKindProbeDone
	// OutcomeKindTimeout means the PADI or PADR phase was exhausted
	// without persist set. Phase names which phase timed out.
	OutcomeKindTimeout
	// OutcomeKindFatal means a protocol error tag was seen in non-persist
	// mode (spec.md §7 "Protocol errors").
	OutcomeKindFatal
)
