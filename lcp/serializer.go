package lcp

// Serializer is anything that can be flattened into PPP wire bytes and
// reconstituted from them, used for both LCP packets and opaque
// passthrough payloads relayed to registered consumers.
type Serializer interface {
	Serialize() ([]byte, error)
	Parse(buf []byte) error
}

// StaticSerializer wraps an already-encoded byte slice, used for
// consumers (IPCP, IPv6CP, or the network-layer protocols themselves)
// that do their own framing above PPP.
type StaticSerializer struct {
	buf []byte
}

// NewStaticSerializer wraps buf without copying.
func NewStaticSerializer(buf []byte) *StaticSerializer {
	return &StaticSerializer{buf: buf}
}

// Serialize implements Serializer.
func (s *StaticSerializer) Serialize() ([]byte, error) { return s.buf, nil }

// Parse implements Serializer.
func (s *StaticSerializer) Parse(buf []byte) error {
	s.buf = buf
	return nil
}
