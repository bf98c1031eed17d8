package pppoe

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeConn is a scripted pppoe.Conn for the end-to-end scenarios of
// spec.md §8 (S1-S6). Each call to Recv pops the next programmed raw
// frame; once the script is exhausted, Recv reports ErrTimeout, exactly
// as a real socket would once its read deadline elapses.
type fakeConn struct {
	script [][]byte
	sent   [][]byte
}

func (f *fakeConn) Send(frame []byte) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakeConn) SetReadDeadline(t time.Time) error { return nil }

// Recv pops the next scripted frame. A nil entry stands for "nothing
// arrives in this window" and is consumed without being returned, letting
// a test force exactly one receive window to time out without starving
// the windows that follow it.
func (f *fakeConn) Recv() ([]byte, error) {
	if len(f.script) == 0 {
		return nil, ErrTimeout
	}
	next := f.script[0]
	f.script = f.script[1:]
	if next == nil {
		return nil, ErrTimeout
	}
	return next, nil
}

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func buildPADO(dst, src []byte, acName, serviceName string, cookie []byte) []byte {
	f := &Frame{
		DstMAC: dst,
		SrcMAC: src,
		Code:   CodePADO,
		Tags: Tags{
			NewTagString(TagTypeACName, acName),
			NewTagString(TagTypeServiceName, serviceName),
		},
	}
	if cookie != nil {
		f.Tags = append(f.Tags, NewTagBytes(TagTypeACCookie, cookie))
	}
	raw, err := f.Encode()
	if err != nil {
		panic(err)
	}
	return raw
}

func buildPADOWithHostUniq(dst, src []byte, acName, serviceName string, hostUniq []byte) []byte {
	f := &Frame{
		DstMAC: dst,
		SrcMAC: src,
		Code:   CodePADO,
		Tags: Tags{
			NewTagString(TagTypeACName, acName),
			NewTagString(TagTypeServiceName, serviceName),
		},
	}
	if hostUniq != nil {
		f.Tags = append(f.Tags, NewTagBytes(TagTypeHostUniq, hostUniq))
	}
	raw, err := f.Encode()
	if err != nil {
		panic(err)
	}
	return raw
}

func buildPADS(dst, src []byte, sessionID uint16) []byte {
	f := &Frame{
		DstMAC:    dst,
		SrcMAC:    src,
		Code:      CodePADS,
		SessionID: sessionID,
		Tags:      Tags{NewTagString(TagTypeServiceName, "")},
	}
	raw, err := f.Encode()
	if err != nil {
		panic(err)
	}
	return raw
}

func buildPADOWithError(dst, src []byte, errTag TagType, msg string) []byte {
	f := &Frame{
		DstMAC: dst,
		SrcMAC: src,
		Code:   CodePADO,
		Tags: Tags{
			NewTagString(TagTypeACName, "isp"),
			NewTagString(TagTypeServiceName, ""),
			NewTagString(errTag, msg),
		},
	}
	raw, err := f.Encode()
	if err != nil {
		panic(err)
	}
	return raw
}

// S1: Successful discovery, no filters.
func TestDiscoverS1SuccessNoFilters(t *testing.T) {
	myMAC := mustMAC("02:00:00:00:00:01")
	peerMAC := mustMAC("02:00:00:00:00:02")

	conn := &fakeConn{script: [][]byte{
		buildPADO(myMAC, peerMAC, "isp", "", []byte{0xde, 0xad, 0xbe, 0xef}),
		buildPADS(myMAC, peerMAC, 0x0042),
	}}

	ctx := NewContext(myMAC, WithLogger(testLogger()))
	outcome, err := Discover(ctx, conn)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if outcome.Kind != OutcomeKindSession {
		t.Fatalf("outcome kind = %v, want OutcomeKindSession", outcome.Kind)
	}
	if ctx.State() != "Session" {
		t.Errorf("state = %v, want Session", ctx.State())
	}
	if outcome.Session.SessionID != 0x0042 {
		t.Errorf("SessionID = %#x, want 0x42", outcome.Session.SessionID)
	}
	if ctx.PeerMAC.String() != peerMAC.String() {
		t.Errorf("PeerMAC = %v, want %v", ctx.PeerMAC, peerMAC)
	}

	// PADR must carry the AC-Cookie verbatim (spec.md §8 property 4).
	padr, err := DecodeFrame(conn.sent[1])
	if err != nil {
		t.Fatalf("decode sent PADR: %v", err)
	}
	if padr.Code != CodePADR {
		t.Fatalf("second sent frame code = %v, want PADR", padr.Code)
	}
	cookie := padr.Tags.First(TagTypeACCookie)
	if cookie == nil {
		t.Fatal("PADR missing AC-Cookie tag")
	}
	if string(cookie.Value()) != "\xde\xad\xbe\xef" {
		t.Errorf("PADR cookie = %x, want deadbeef", cookie.Value())
	}
}

// S2: Host-Uniq demultiplexing.
func TestDiscoverS2HostUniqDemux(t *testing.T) {
	myMAC := mustMAC("02:00:00:00:00:01")
	peerMAC := mustMAC("02:00:00:00:00:02")

	// The PADS must echo Host-Uniq too, or waitForPADS drops it.
	padsFrame := &Frame{
		DstMAC:    myMAC,
		SrcMAC:    peerMAC,
		Code:      CodePADS,
		SessionID: 0x0042,
		Tags:      Tags{NewTagString(TagTypeServiceName, ""), NewTagBytes(TagTypeHostUniq, []byte("abc"))},
	}
	pads, err := padsFrame.Encode()
	if err != nil {
		t.Fatalf("encode PADS: %v", err)
	}

	conn := &fakeConn{script: [][]byte{
		buildPADOWithHostUniq(myMAC, peerMAC, "isp", "", nil),            // no Host-Uniq: dropped
		buildPADOWithHostUniq(myMAC, peerMAC, "isp", "", []byte("abd")),  // wrong value: dropped
		buildPADOWithHostUniq(myMAC, peerMAC, "isp", "", []byte("abc")), // accepted
		pads,
	}}

	ctx := NewContext(myMAC, WithHostUniq([]byte("abc")), WithLogger(testLogger()))
	outcome, err := Discover(ctx, conn)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if outcome.Kind != OutcomeKindSession {
		t.Fatalf("outcome kind = %v, want OutcomeKindSession", outcome.Kind)
	}
}

// S4: Probe mode collects every matching PADO until the deadline, reports
// how many answered, and never sends a PADR.
func TestDiscoverS4ProbeMode(t *testing.T) {
	myMAC := mustMAC("02:00:00:00:00:01")
	peer1 := mustMAC("02:00:00:00:00:02")
	peer2 := mustMAC("02:00:00:00:00:03")

	conn := &fakeConn{script: [][]byte{
		buildPADO(myMAC, peer1, "isp-a", "", nil),
		buildPADO(myMAC, peer2, "isp-b", "", nil),
	}}

	ctx := NewContext(myMAC, WithProbeMode(true), WithTimeout(2*time.Second), WithLogger(testLogger()))
	outcome, err := Discover(ctx, conn)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if outcome.Kind != OutcomeKindProbeDone {
		t.Fatalf("outcome kind = %v, want OutcomeKindProbeDone", outcome.Kind)
	}
	if outcome.ProbeFound != 2 {
		t.Errorf("ProbeFound = %d, want 2", outcome.ProbeFound)
	}
	// Probe mode never sends a PADR.
	for _, raw := range conn.sent {
		f, err := DecodeFrame(raw)
		if err != nil {
			t.Fatalf("decode sent frame: %v", err)
		}
		if f.Code == CodePADR {
			t.Errorf("probe mode sent a PADR, should never")
		}
	}
}

// S5: RFC-violating session id is still accepted, with a warning.
func TestDiscoverS5RFCViolatingSessionID(t *testing.T) {
	myMAC := mustMAC("02:00:00:00:00:01")
	peerMAC := mustMAC("02:00:00:00:00:02")

	conn := &fakeConn{script: [][]byte{
		buildPADO(myMAC, peerMAC, "isp", "", nil),
		buildPADS(myMAC, peerMAC, 0xFFFF),
	}}

	ctx := NewContext(myMAC, WithLogger(testLogger()))
	outcome, err := Discover(ctx, conn)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if outcome.Kind != OutcomeKindSession {
		t.Fatalf("outcome kind = %v, want OutcomeKindSession", outcome.Kind)
	}
	if outcome.Session.SessionID != 0xFFFF {
		t.Errorf("SessionID = %#x, want 0xffff", outcome.Session.SessionID)
	}
}

// S6: error tag in PADO, non-persistent, is fatal.
func TestDiscoverS6ErrorTagNonPersistent(t *testing.T) {
	myMAC := mustMAC("02:00:00:00:00:01")
	peerMAC := mustMAC("02:00:00:00:00:02")

	conn := &fakeConn{script: [][]byte{
		buildPADOWithError(myMAC, peerMAC, TagTypeACSystemError, "busy"),
	}}

	ctx := NewContext(myMAC, WithPersist(false), WithLogger(testLogger()))
	outcome, err := Discover(ctx, conn)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if outcome.Kind != OutcomeKindFatal {
		t.Fatalf("outcome kind = %v, want OutcomeKindFatal", outcome.Kind)
	}
}

// spec.md §8 property 5: max_attempts exhaustion without persist returns
// without a session, and no PADR is ever sent.
func TestDiscoverTimeoutNoPersistNoPADR(t *testing.T) {
	myMAC := mustMAC("02:00:00:00:00:01")

	conn := &fakeConn{} // never answers
	ctx := NewContext(myMAC,
		WithMaxAttempts(2),
		WithTimeout(time.Millisecond),
		WithLogger(testLogger()))

	outcome, err := Discover(ctx, conn)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if outcome.Kind != OutcomeKindTimeout {
		t.Fatalf("outcome kind = %v, want OutcomeKindTimeout", outcome.Kind)
	}
	if outcome.Phase != "PADO" {
		t.Errorf("Phase = %q, want PADO", outcome.Phase)
	}
	for _, raw := range conn.sent {
		f, _ := DecodeFrame(raw)
		if f != nil && f.Code == CodePADR {
			t.Error("sent a PADR despite never receiving a PADO")
		}
	}
}

// spec.md §8 property 6: persistent mode reverts to Initial and restarts
// PADI from scratch after PADS-phase exhaustion, rather than failing.
func TestDiscoverPersistentRestartsAfterPADSExhaustion(t *testing.T) {
	myMAC := mustMAC("02:00:00:00:00:01")
	peerMAC := mustMAC("02:00:00:00:00:02")

	conn := &fakeConn{script: [][]byte{
		buildPADO(myMAC, peerMAC, "isp", "", nil),
		nil, // no PADS arrives: PADR phase exhausts and restarts discovery
		buildPADO(myMAC, peerMAC, "isp", "", nil),
		buildPADS(myMAC, peerMAC, 0x0077),
	}}

	ctx := NewContext(myMAC,
		WithPersist(true),
		WithMaxAttempts(1),
		WithTimeout(time.Millisecond),
		WithLogger(testLogger()))

	outcome, err := Discover(ctx, conn)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if outcome.Kind != OutcomeKindSession {
		t.Fatalf("outcome kind = %v, want OutcomeKindSession", outcome.Kind)
	}
	if outcome.Session.SessionID != 0x0077 {
		t.Errorf("SessionID = %#x, want 0x77", outcome.Session.SessionID)
	}
}

// spec.md §4.D entry precondition: SkipDiscovery short-circuits straight
// to Session.
func TestDiscoverSkipDiscovery(t *testing.T) {
	myMAC := mustMAC("02:00:00:00:00:01")
	ctx := NewContext(myMAC, WithSkipDiscovery(true), WithLogger(testLogger()))
	outcome, err := Discover(ctx, &fakeConn{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if outcome.Kind != OutcomeKindSession {
		t.Fatalf("outcome kind = %v, want OutcomeKindSession", outcome.Kind)
	}
}

// SkipDiscovery + KillSession sends a PADT through the configured sender.
func TestDiscoverSkipDiscoveryKillSession(t *testing.T) {
	myMAC := mustMAC("02:00:00:00:00:01")
	conn := &fakeConn{}
	var sentReason string
	ctx := NewContext(myMAC,
		WithSkipDiscovery(true),
		WithKillSession(true),
		WithPADTSender(func(c *Context, reason string) error {
			sentReason = reason
			return nil
		}),
		WithLogger(testLogger()))

	outcome, err := Discover(ctx, conn)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if outcome.Kind != OutcomeKindSession {
		t.Fatalf("outcome kind = %v, want OutcomeKindSession", outcome.Kind)
	}
	if sentReason == "" {
		t.Error("PADTSender was never invoked")
	}
}
