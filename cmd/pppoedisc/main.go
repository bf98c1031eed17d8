// Command pppoedisc runs the client-side PPPoE discovery stage against a
// configured interface: it sends PADI, waits for a matching PADO, and
// negotiates a session with PADR/PADS, per RFC 2516 as extended by RFC
// 4638. Discovery proper lives in package pppoe; this command owns
// configuration, logging, the raw socket, and exit codes.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"github.com/gandalfast/pppoedisc/datapath"
	"github.com/gandalfast/pppoedisc/lcp"
	"github.com/gandalfast/pppoedisc/pppoe"
	"github.com/gandalfast/pppoedisc/rawsock"
)

// Exit codes, following spec.md §6 "Invocation surface": a session maps
// to success, probe mode maps to whether any AC answered, and every
// failure path gets a distinct non-zero code so wrapper scripts can tell
// them apart.
const (
	exitOK             = 0
	exitNoSessionFound = 1
	exitTimeout        = 2
	exitFatalError     = 3
	exitUsageError     = 4
)

func main() {
	os.Exit(run())
}

// resolvedConfig is what actually drives a run, after merging a
// fileConfig (if -config was given) with command-line flags. Flags win
// whenever both a file and a flag set the same string or numeric knob
// (spec.md §4.G). A boolean knob is on if either the file or its flag
// turns it on; a flag cannot switch off a knob the file turned on.
type resolvedConfig struct {
	Iface         string
	ServiceName   string
	OmitService   bool
	ACName        string
	HostUniq      []byte
	Timeout       time.Duration
	MaxAttempts   int
	Persist       bool
	PrintACNames  bool
	SkipDiscovery bool
	KillSession   bool
	Debug         bool
}

func run() int {
	var (
		iface         = flag.String("iface", "", "network interface to discover over (required)")
		configPath    = flag.String("config", "", "optional TOML config file")
		serviceName   = flag.String("service-name", "", "Service-Name to request; empty means any")
		omitService   = flag.Bool("omit-service-name", false, "omit the Service-Name tag entirely (non-RFC-compliant ACs)")
		acName        = flag.String("ac-name", "", "only accept POs from this Access Concentrator")
		hostUniqHex   = flag.String("host-uniq", "", "hex-encoded Host-Uniq value to echo and demultiplex on")
		timeout       = flag.Duration("timeout", 0, "initial per-phase discovery timeout")
		maxAttempts   = flag.Int("max-attempts", 0, "retry attempts per phase before giving up")
		persist       = flag.Bool("persist", false, "retry forever instead of failing after max-attempts")
		printACNames  = flag.Bool("print-ac-names", false, "probe mode: print every matching PADO and exit")
		skipDiscovery = flag.Bool("skip-discovery", false, "skip straight to Session, for an out-of-band session id")
		killSession   = flag.Bool("kill-session", false, "combined with -skip-discovery, send PADT and exit")
		debug         = flag.Bool("debug", false, "enable debug logging")
		withPPP       = flag.Bool("start-ppp", false, "after discovery, start the PPP/LCP stack and a TUN interface")
		tunName       = flag.String("tun-name", "", "TUN interface name for -start-ppp (required with -start-ppp)")
	)
	flag.Parse()

	// PPPOEDISC_CONFIG is a fallback for -config when the flag is
	// omitted, following the environment-variable-as-flag-default
	// convention (SPEC_FULL.md §6 "Environment").
	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = os.Getenv("PPPOEDISC_CONFIG")
	}

	var fc fileConfig
	if cfgPath != "" {
		loaded, err := loadFileConfig(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pppoedisc: %v\n", err)
			return exitUsageError
		}
		fc = *loaded
	}

	cfg := resolvedConfig{
		Iface:         fc.Iface,
		ServiceName:   fc.ServiceName,
		ACName:        fc.ACName,
		HostUniq:      fc.HostUniq,
		Timeout:       fc.Timeout,
		MaxAttempts:   fc.MaxAttempts,
		Persist:       fc.Persist,
		PrintACNames:  fc.PrintACNames,
		SkipDiscovery: fc.SkipDiscovery,
		KillSession:   fc.KillSession,
		Debug:         fc.Debug,
	}

	if *iface != "" {
		cfg.Iface = *iface
	}
	if flagSet("service-name") {
		cfg.ServiceName = *serviceName
	}
	cfg.OmitService = *omitService
	if *acName != "" {
		cfg.ACName = *acName
	}
	if *hostUniqHex != "" {
		decoded, err := hex.DecodeString(*hostUniqHex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pppoedisc: invalid -host-uniq: %v\n", err)
			return exitUsageError
		}
		cfg.HostUniq = decoded
	}
	if *timeout != 0 {
		cfg.Timeout = *timeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = pppoe.DefaultTimeout
	}
	if *maxAttempts != 0 {
		cfg.MaxAttempts = *maxAttempts
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = pppoe.DefaultMaxAttempts
	}
	cfg.Persist = cfg.Persist || *persist
	cfg.PrintACNames = cfg.PrintACNames || *printACNames
	cfg.SkipDiscovery = cfg.SkipDiscovery || *skipDiscovery
	cfg.KillSession = cfg.KillSession || *killSession
	cfg.Debug = cfg.Debug || *debug

	if cfg.Iface == "" {
		fmt.Fprintln(os.Stderr, "pppoedisc: -iface is required")
		return exitUsageError
	}

	logger := newLogger(cfg.Debug)

	iff, err := net.InterfaceByName(cfg.Iface)
	if err != nil {
		logger.Error().Err(err).Str("interface", cfg.Iface).Msg("interface not found")
		return exitUsageError
	}

	conn, err := rawsock.NewConn(cfg.Iface, pppoe.EtherTypePPPoEDiscovery, rawsock.WithLogger(&logger))
	if err != nil {
		logger.Error().Err(err).Msg("failed to open raw socket")
		return exitFatalError
	}
	defer conn.Close()

	svcName := pppoe.AnyServiceName()
	switch {
	case cfg.OmitService:
		svcName = pppoe.OmitServiceName()
	case cfg.ServiceName != "":
		svcName = pppoe.NamedServiceName(cfg.ServiceName)
	}

	discCtx := pppoe.NewContext(iff.HardwareAddr,
		pppoe.WithServiceName(svcName),
		pppoe.WithACName(cfg.ACName),
		pppoe.WithHostUniq(cfg.HostUniq),
		pppoe.WithTimeout(cfg.Timeout),
		pppoe.WithMaxAttempts(cfg.MaxAttempts),
		pppoe.WithPersist(cfg.Persist),
		pppoe.WithProbeMode(cfg.PrintACNames),
		pppoe.WithSkipDiscovery(cfg.SkipDiscovery),
		pppoe.WithKillSession(cfg.KillSession),
		pppoe.WithPADTSender(pppoe.DefaultPADTSender(conn)),
		pppoe.WithLogger(&logger),
	)

	outcome, err := pppoe.Discover(discCtx, conn)
	if err != nil {
		logger.Error().Err(err).Msg("discovery failed")
		return exitFatalError
	}

	switch outcome.Kind {
	case pppoe.OutcomeKindProbeDone:
		logger.Info().Int("found", outcome.ProbeFound).Msg("probe complete")
		if outcome.ProbeFound == 0 {
			return exitNoSessionFound
		}
		return exitOK
	case pppoe.OutcomeKindTimeout:
		logger.Error().Str("phase", outcome.Phase).Msg("discovery timed out")
		return exitTimeout
	case pppoe.OutcomeKindFatal:
		logger.Error().Str("reason", outcome.Reason).Msg("discovery failed")
		return exitFatalError
	}

	logger.Info().
		Str("peer", outcome.Session.PeerMAC.String()).
		Uint16("session-id", outcome.Session.SessionID).
		Uint16("mru", outcome.Session.MRU).
		Msg("PPPoE session established")

	if cfg.KillSession || !*withPPP {
		return exitOK
	}

	// AF_PACKET filters incoming frames by the ethertype a socket was
	// bound with, so session traffic (0x8864) needs its own socket: the
	// discovery socket stays bound to 0x8863 for as long as PADT might
	// still need to go out over it.
	sessConn, err := rawsock.NewConn(cfg.Iface, pppoe.EtherTypePPPoESession, rawsock.WithLogger(&logger))
	if err != nil {
		logger.Error().Err(err).Msg("failed to open session socket")
		return exitFatalError
	}
	defer sessConn.Close()

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionPC := pppoe.NewPPPoESession(discCtx, sessConn, outcome.Session)
	ppp := lcp.Open(runCtx, outcome.Session, sessionPC, &logger)

	if _, err := datapath.NewTUNIf(runCtx, ppp, *tunName, nil, outcome.Session.MRU); err != nil {
		logger.Error().Err(err).Msg("failed to create TUN interface")
		return exitFatalError
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	<-sigs
	return exitOK
}

// flagSet reports whether name was explicitly passed on the command
// line, distinguishing an intentional empty string from "not set".
func flagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// newLogger builds a zerolog logger writing human-readable console
// output, at debug level when requested (spec.md §4.G logging).
func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
