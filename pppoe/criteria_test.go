package pppoe

import "testing"

// TestForMe mirrors original_source/discovery.c's packetIsForMe: only the
// exact destination MAC is accepted.
func TestForMe(t *testing.T) {
	ctx := NewContext(mustMAC("02:00:00:00:00:01"), WithLogger(testLogger()))

	f := &Frame{DstMAC: mustMAC("02:00:00:00:00:01"), SrcMAC: mustMAC("02:00:00:00:00:02")}
	if !forMe(ctx, f) {
		t.Error("forMe = false for matching dest MAC, want true")
	}

	f.DstMAC = mustMAC("02:00:00:00:00:99")
	if forMe(ctx, f) {
		t.Error("forMe = true for mismatched dest MAC, want false")
	}
}

func TestHostUniqOK(t *testing.T) {
	ctx := NewContext(mustMAC("02:00:00:00:00:01"), WithLogger(testLogger()))

	// No Host-Uniq configured: every frame passes.
	f := &Frame{Tags: Tags{}}
	if !hostUniqOK(ctx, f) {
		t.Error("hostUniqOK = false with no configured Host-Uniq, want true")
	}

	ctx.HostUniq = []byte("xyz")
	if hostUniqOK(ctx, f) {
		t.Error("hostUniqOK = true for frame missing the tag, want false")
	}

	f.Tags = Tags{NewTagBytes(TagTypeHostUniq, []byte("abc"))}
	if hostUniqOK(ctx, f) {
		t.Error("hostUniqOK = true for mismatched value, want false")
	}

	f.Tags = Tags{NewTagBytes(TagTypeHostUniq, []byte("xyz"))}
	if !hostUniqOK(ctx, f) {
		t.Error("hostUniqOK = false for matching value, want true")
	}
}

func TestFromExpectedPeer(t *testing.T) {
	ctx := NewContext(mustMAC("02:00:00:00:00:01"), WithLogger(testLogger()))
	ctx.PeerMAC = mustMAC("02:00:00:00:00:02")

	f := &Frame{SrcMAC: mustMAC("02:00:00:00:00:02")}
	if !fromExpectedPeer(ctx, f) {
		t.Error("fromExpectedPeer = false for the negotiated peer, want true")
	}

	f.SrcMAC = mustMAC("02:00:00:00:00:03")
	if fromExpectedPeer(ctx, f) {
		t.Error("fromExpectedPeer = true for an impostor peer, want false")
	}
}

func TestIsBroadcastSource(t *testing.T) {
	f := &Frame{SrcMAC: BroadcastMAC[:]}
	if !isBroadcastSource(f) {
		t.Error("isBroadcastSource = false for the broadcast MAC, want true")
	}
	f.SrcMAC = mustMAC("02:00:00:00:00:02")
	if isBroadcastSource(f) {
		t.Error("isBroadcastSource = true for a unicast MAC, want false")
	}
}

// TestEvaluatePADO mirrors original_source/discovery.c's parsePADOTags:
// AC-Name/Service-Name presence and filter match, cookie/relay-id capture,
// error-tag detection.
func TestEvaluatePADO(t *testing.T) {
	tests := []struct {
		desc          string
		ctxACName     string
		ctxService    ServiceName
		tags          Tags
		wantACNameOK  bool
		wantSvcOK     bool
		wantSeenAC    bool
		wantSeenSvc   bool
		wantGotError  bool
	}{
		{
			desc:         "no filters configured, any AC/service accepted",
			tags:         Tags{NewTagString(TagTypeACName, "isp"), NewTagString(TagTypeServiceName, "")},
			wantACNameOK: true, wantSvcOK: true, wantSeenAC: true, wantSeenSvc: true,
		},
		{
			desc:         "AC-Name filter matches",
			ctxACName:    "isp",
			tags:         Tags{NewTagString(TagTypeACName, "isp"), NewTagString(TagTypeServiceName, "")},
			wantACNameOK: true, wantSvcOK: true, wantSeenAC: true, wantSeenSvc: true,
		},
		{
			desc:         "AC-Name filter misses",
			ctxACName:    "other-isp",
			tags:         Tags{NewTagString(TagTypeACName, "isp"), NewTagString(TagTypeServiceName, "")},
			wantACNameOK: false, wantSvcOK: true, wantSeenAC: true, wantSeenSvc: true,
		},
		{
			desc:       "Service-Name filter misses",
			ctxService: NamedServiceName("gold"),
			tags:       Tags{NewTagString(TagTypeACName, "isp"), NewTagString(TagTypeServiceName, "silver")},
			wantACNameOK: true, wantSvcOK: false, wantSeenAC: true, wantSeenSvc: true,
		},
		{
			desc:         "error tag detected",
			tags:         Tags{NewTagString(TagTypeACName, "isp"), NewTagString(TagTypeServiceName, ""), NewTagString(TagTypeServiceNameError, "no such service")},
			wantACNameOK: true, wantSvcOK: true, wantSeenAC: true, wantSeenSvc: true, wantGotError: true,
		},
		{
			desc: "missing AC-Name and Service-Name tags",
			tags: Tags{},
			wantACNameOK: true, wantSvcOK: true,
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			ctx := NewContext(mustMAC("02:00:00:00:00:01"),
				WithACName(test.ctxACName),
				WithServiceName(test.ctxService),
				WithLogger(testLogger()))
			f := &Frame{Tags: test.tags}
			pc := evaluatePADO(ctx, f)

			if pc.acNameOK != test.wantACNameOK {
				t.Errorf("acNameOK = %v, want %v", pc.acNameOK, test.wantACNameOK)
			}
			if pc.serviceNameOK != test.wantSvcOK {
				t.Errorf("serviceNameOK = %v, want %v", pc.serviceNameOK, test.wantSvcOK)
			}
			if pc.seenACName != test.wantSeenAC {
				t.Errorf("seenACName = %v, want %v", pc.seenACName, test.wantSeenAC)
			}
			if pc.seenServiceName != test.wantSeenSvc {
				t.Errorf("seenServiceName = %v, want %v", pc.seenServiceName, test.wantSeenSvc)
			}
			if pc.gotError != test.wantGotError {
				t.Errorf("gotError = %v, want %v", pc.gotError, test.wantGotError)
			}
		})
	}
}

func TestEvaluatePADOCapturesCookieAndRelayID(t *testing.T) {
	ctx := NewContext(mustMAC("02:00:00:00:00:01"), WithLogger(testLogger()))
	f := &Frame{Tags: Tags{
		NewTagString(TagTypeACName, "isp"),
		NewTagString(TagTypeServiceName, ""),
		NewTagBytes(TagTypeACCookie, []byte{0x01, 0x02}),
		NewTagBytes(TagTypeRelaySessionID, []byte{0x03, 0x04}),
	}}
	pc := evaluatePADO(ctx, f)
	if pc.cookie == nil {
		t.Fatal("cookie not captured")
	}
	if pc.relayID == nil {
		t.Fatal("relay id not captured")
	}
}

func TestPadsError(t *testing.T) {
	f := &Frame{Tags: Tags{NewTagString(TagTypeServiceName, "")}}
	if _, _, isErr := padsError(f); isErr {
		t.Error("padsError = true for a clean PADS, want false")
	}

	f.Tags = append(f.Tags, NewTagString(TagTypeACSystemError, "overloaded"))
	typ, val, isErr := padsError(f)
	if !isErr {
		t.Fatal("padsError = false with an AC-System-Error tag present, want true")
	}
	if typ != TagTypeACSystemError || val != "overloaded" {
		t.Errorf("padsError = (%v, %q), want (AC-System-Error, \"overloaded\")", typ, val)
	}
}
