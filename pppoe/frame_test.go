package pppoe

import (
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustMAC(s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return mac
}

// TestFrameRoundTrip exercises spec.md §8 property 1 and 2: every
// encoded frame's length and payload-length field match the sum of its
// tags, and decoding recovers exactly the tags that were encoded, in
// order, byte for byte. Grounded on danderson-goppp/pppoe/discovery_test.go's
// parse/unparse table style.
func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		desc string
		f    *Frame
	}{
		{
			desc: "PADI empty service name",
			f: &Frame{
				DstMAC: BroadcastMAC[:],
				SrcMAC: mustMAC("02:00:00:00:00:01"),
				Code:   CodePADI,
				Tags:   Tags{NewTagString(TagTypeServiceName, "")},
			},
		},
		{
			desc: "PADO with AC-Name, Service-Name and cookie",
			f: &Frame{
				DstMAC: mustMAC("02:00:00:00:00:01"),
				SrcMAC: mustMAC("02:00:00:00:00:02"),
				Code:   CodePADO,
				Tags: Tags{
					NewTagString(TagTypeACName, "isp"),
					NewTagString(TagTypeServiceName, ""),
					NewTagBytes(TagTypeACCookie, []byte{0xde, 0xad, 0xbe, 0xef}),
				},
			},
		},
		{
			desc: "PADS with session id",
			f: &Frame{
				DstMAC:    mustMAC("02:00:00:00:00:02"),
				SrcMAC:    mustMAC("02:00:00:00:00:01"),
				Code:      CodePADS,
				SessionID: 0x0042,
				Tags:      Tags{NewTagString(TagTypeServiceName, "")},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			raw, err := test.f.Encode()
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}

			wantTagBytes := 0
			for _, tag := range test.f.Tags {
				ser, _ := tag.Serialize()
				wantTagBytes += len(ser)
			}
			if got, want := len(raw), etherHdrSize+pppoeHdrSize+wantTagBytes; got != want {
				t.Fatalf("len(raw) = %d, want %d", got, want)
			}

			got, err := DecodeFrame(raw)
			if err != nil {
				t.Fatalf("DecodeFrame: %v", err)
			}

			if diff := cmp.Diff(test.f.DstMAC, got.DstMAC); diff != "" {
				t.Errorf("DstMAC mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.f.SrcMAC, got.SrcMAC); diff != "" {
				t.Errorf("SrcMAC mismatch (-want +got):\n%s", diff)
			}
			if got.Code != test.f.Code {
				t.Errorf("Code = %v, want %v", got.Code, test.f.Code)
			}
			if got.SessionID != test.f.SessionID {
				t.Errorf("SessionID = %#x, want %#x", got.SessionID, test.f.SessionID)
			}
			if len(got.Tags) != len(test.f.Tags) {
				t.Fatalf("got %d tags, want %d", len(got.Tags), len(test.f.Tags))
			}
			for i := range test.f.Tags {
				if got.Tags[i].Type() != test.f.Tags[i].Type() {
					t.Errorf("tag[%d].Type() = %v, want %v", i, got.Tags[i].Type(), test.f.Tags[i].Type())
				}
				if diff := cmp.Diff(test.f.Tags[i].Value(), got.Tags[i].Value()); diff != "" {
					t.Errorf("tag[%d] value mismatch (-want +got):\n%s", i, diff)
				}
			}
		})
	}
}

func TestDecodeFrameRejectsBogusLength(t *testing.T) {
	f := &Frame{
		DstMAC: BroadcastMAC[:],
		SrcMAC: mustMAC("02:00:00:00:00:01"),
		Code:   CodePADI,
		Tags:   Tags{NewTagString(TagTypeServiceName, "")},
	}
	raw, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Truncate the frame so the declared payload length overruns the
	// buffer (spec.md §4.A "Bogus PPPoE length field").
	truncated := raw[:len(raw)-2]
	if _, err := DecodeFrame(truncated); err == nil {
		t.Fatal("DecodeFrame succeeded on truncated frame, want error")
	}
}

func TestDecodeFrameRejectsOverrunningTag(t *testing.T) {
	f := &Frame{
		DstMAC: BroadcastMAC[:],
		SrcMAC: mustMAC("02:00:00:00:00:01"),
		Code:   CodePADI,
		Tags:   Tags{NewTagString(TagTypeServiceName, "")},
	}
	raw, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Inflate the tag's declared length field (offset 22-23: the
	// Service-Name tag's length) so it walks past the declared payload end.
	raw[23] = 0xff
	if _, err := DecodeFrame(raw); err == nil {
		t.Fatal("DecodeFrame succeeded on overrunning tag, want error")
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	f := &Frame{
		DstMAC: BroadcastMAC[:],
		SrcMAC: mustMAC("02:00:00:00:00:01"),
		Code:   CodePADI,
		Tags:   Tags{NewTagBytes(TagTypeVendorSpecific, make([]byte, maxPayloadSize+1))},
	}
	if _, err := f.Encode(); err == nil {
		t.Fatal("Encode succeeded on oversized payload, want error")
	}
}
