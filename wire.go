package tagv

import (
	"encoding/binary"
	"fmt"
)

// WireBytes serializes the value for transmission or storage:
// a u32 little-endian payload length, the payload bytes, then the type
// path, one byte per tag, outermost first. The path trailing the
// payload is load-bearing: a reader that already knows the type can
// bound the payload from the prefix alone, while a generic reader
// walks the trailing tags to self-describe the value.
func (v TaggedValue) WireBytes() []byte {
	return AppendWire(make([]byte, 0, lengthPrefixSize+len(v.Payload)+len(v.Path)), v)
}

// AppendWire appends the wire form of v to dst and returns the
// extended slice.
func AppendWire(dst []byte, v TaggedValue) []byte {
	dst = appendU32(dst, uint32(len(v.Payload)))
	dst = append(dst, v.Payload...)
	for _, t := range v.Path {
		dst = append(dst, byte(t))
	}
	return dst
}

// ParseWire splits wire bytes back into a TaggedValue. It checks the
// length prefix against the available bytes, requires a well-formed
// type path after the payload and rejects trailing or missing bytes.
// The payload itself is not decoded; see DecodeValue.
func ParseWire(b []byte) (TaggedValue, error) {
	if len(b) < lengthPrefixSize {
		return TaggedValue{}, fmt.Errorf("wire length prefix missing: %w", ErrTruncated)
	}
	n := binary.LittleEndian.Uint32(b[:lengthPrefixSize])
	rest := b[lengthPrefixSize:]
	if uint64(len(rest)) < uint64(n) {
		return TaggedValue{}, fmt.Errorf("wire payload needs %d bytes, have %d: %w", n, len(rest), ErrTruncated)
	}
	pathBytes := rest[n:]
	if len(pathBytes) == 0 {
		return TaggedValue{}, fmt.Errorf("wire type path missing: %w", ErrTruncated)
	}
	path := make([]Tag, len(pathBytes))
	for i, c := range pathBytes {
		path[i] = Tag(c)
	}
	if err := ValidatePath(path); err != nil {
		return TaggedValue{}, fmt.Errorf("wire type path: %w", err)
	}
	return TaggedValue{
		Payload: append([]byte{}, rest[:n]...),
		Path:    path,
	}, nil
}
