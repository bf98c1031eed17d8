package pppoe

import (
	"encoding/binary"
	"fmt"
)

// Tag is a single PPPoE TLV (spec.md §3 "Tag (TLV)").
type Tag interface {
	// Type returns the tag's 16-bit type.
	Type() TagType
	// Value returns the tag's opaque payload bytes.
	Value() []byte
	// Serialize returns the wire-format type+length+value bytes for this tag.
	Serialize() ([]byte, error)
}

// TagByteSlice is a Tag whose value is an arbitrary byte slice, used for
// opaque tags like Host-Uniq, AC-Cookie and Relay-Session-Id that must be
// echoed back verbatim.
type TagByteSlice struct {
	TagType TagType
	Value_  []byte
}

// Type implements Tag.
func (t *TagByteSlice) Type() TagType { return t.TagType }

// Value implements Tag.
func (t *TagByteSlice) Value() []byte { return t.Value_ }

// Serialize implements Tag.
func (t *TagByteSlice) Serialize() ([]byte, error) {
	if len(t.Value_) > 0xffff {
		return nil, fmt.Errorf("tag %v value too long: %d bytes", t.TagType, len(t.Value_))
	}
	buf := make([]byte, tagHdrSize+len(t.Value_))
	binary.BigEndian.PutUint16(buf[0:2], uint16(t.TagType))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(t.Value_)))
	copy(buf[4:], t.Value_)
	return buf, nil
}

// TagString is a Tag whose value is human-readable text, e.g. Service-Name
// or AC-Name. It embeds a TagByteSlice for wire encoding and adds a String
// accessor for logging/probe-mode printing.
type TagString struct {
	*TagByteSlice
}

// NewTagString builds a text tag of the given type.
func NewTagString(t TagType, s string) *TagString {
	return &TagString{TagByteSlice: &TagByteSlice{TagType: t, Value_: []byte(s)}}
}

// String returns the tag's value interpreted as text.
func (t *TagString) String() string { return string(t.Value_) }

// NewTagBytes builds an opaque tag of the given type.
func NewTagBytes(t TagType, v []byte) *TagByteSlice {
	return &TagByteSlice{TagType: t, Value_: v}
}

// NewTagUint16 builds a two-byte big-endian value tag, used for
// PPP-Max-Payload.
func NewTagUint16(t TagType, v uint16) *TagByteSlice {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, v)
	return &TagByteSlice{TagType: t, Value_: buf}
}

// Tags is an ordered list of Tag, preserving encounter/caller order as
// required by spec.md §8 property 2 (round-trip fidelity).
type Tags []Tag

// Get returns every tag of type t, in order.
func (ts Tags) Get(t TagType) []Tag {
	var out []Tag
	for _, tag := range ts {
		if tag.Type() == t {
			out = append(out, tag)
		}
	}
	return out
}

// First returns the first tag of type t, or nil.
func (ts Tags) First(t TagType) Tag {
	for _, tag := range ts {
		if tag.Type() == t {
			return tag
		}
	}
	return nil
}

// encodeTags serializes tags in order into a contiguous TLV stream,
// rejecting the whole frame if it would overflow the 1484-byte payload
// window (spec.md §4.A "Encode").
func encodeTags(tags Tags) ([]byte, error) {
	buf := make([]byte, 0, 64)
	for _, t := range tags {
		raw, err := t.Serialize()
		if err != nil {
			return nil, err
		}
		if len(buf)+len(raw) > maxPayloadSize {
			return nil, fmt.Errorf("pppoe: frame too large: tag %v would exceed %d-byte payload window", t.Type(), maxPayloadSize)
		}
		buf = append(buf, raw...)
	}
	return buf, nil
}

// tagVisitor is invoked once per TLV encountered during decode, in order,
// exactly as spec.md §4.A "Decode" describes.
type tagVisitor func(tagType TagType, value []byte) error

// decodeTags walks a TLV stream strictly within its declared length,
// invoking visit for each (type, value) tuple in order. It rejects a
// stream where a TLV's declared length would extend past the end of the
// stream (spec.md §4.A "Decode").
func decodeTags(payload []byte, visit tagVisitor) error {
	cursor := 0
	for cursor < len(payload) {
		if cursor+tagHdrSize > len(payload) {
			return fmt.Errorf("pppoe: truncated tag header at offset %d", cursor)
		}
		tagType := TagType(binary.BigEndian.Uint16(payload[cursor : cursor+2]))
		tagLen := int(binary.BigEndian.Uint16(payload[cursor+2 : cursor+4]))
		start := cursor + tagHdrSize
		end := start + tagLen
		if end > len(payload) {
			return fmt.Errorf("pppoe: tag %v declares length %d, walks past end of payload", tagType, tagLen)
		}
		if err := visit(tagType, payload[start:end]); err != nil {
			return err
		}
		cursor = end
	}
	return nil
}

// parseTags decodes the entire TLV stream into an ordered Tags slice of
// TagByteSlice values, used where callers want the whole collection
// rather than a streaming visitor (e.g. PADR tag copy-forward, probe mode
// printing).
func parseTags(payload []byte) (Tags, error) {
	var out Tags
	err := decodeTags(payload, func(tagType TagType, value []byte) error {
		cp := make([]byte, len(value))
		copy(cp, value)
		out = append(out, &TagByteSlice{TagType: tagType, Value_: cp})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
