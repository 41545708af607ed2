package tagv

import (
	"encoding/binary"

	"github.com/delaneyj/toolbelt/bytebufferpool"
)

// Option and Result payloads open with a single flag byte.
const (
	optionAbsent  byte = 0
	optionPresent byte = 1
	resultErr     byte = 0
	resultOk      byte = 1
)

// lengthPrefixSize is the width of every count and length prefix in the
// format: a 32-bit little-endian unsigned integer.
const lengthPrefixSize = 4

func writeU32(buf *bytebufferpool.ByteBuffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeI32(buf *bytebufferpool.ByteBuffer, v int32) {
	writeU32(buf, uint32(v))
}

// writeString writes the canonical string encoding: a u32 length prefix
// followed by the UTF-8 bytes.
func writeString(buf *bytebufferpool.ByteBuffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

// capturePayload copies the pooled buffer contents into a fresh slice.
// Factories hand that slice to an immutable TaggedValue, so the pooled
// buffer must never escape.
func capturePayload(buf *bytebufferpool.ByteBuffer) []byte {
	return append([]byte{}, buf.Bytes()...)
}

func appendU32(dst []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(dst, tmp[:]...)
}

func appendU64(dst []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(dst, tmp[:]...)
}

func appendString(dst []byte, s string) []byte {
	dst = appendU32(dst, uint32(len(s)))
	return append(dst, s...)
}
