package tagv

import (
	"fmt"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

var (
	benchStrings []string
	benchWire    []byte
	benchCBOR    []byte
)

var (
	sinkBytes   []byte
	sinkValue   TaggedValue
	sinkDecoded Decoded
)

func init() {
	benchStrings = make([]string, 64)
	for i := range benchStrings {
		benchStrings[i] = fmt.Sprintf("named-key-%d", i)
	}
	benchWire = FromStringList(benchStrings).WireBytes()
	enc, err := cbor.Marshal(benchStrings)
	if err != nil {
		panic(err)
	}
	benchCBOR = enc
}

func BenchmarkEncodeStringList(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(benchWire)))
	for i := 0; i < b.N; i++ {
		sinkBytes = FromStringList(benchStrings).WireBytes()
	}
}

func BenchmarkEncodeStringListCBOR(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(benchCBOR)))
	for i := 0; i < b.N; i++ {
		enc, err := cbor.Marshal(benchStrings)
		if err != nil {
			b.Fatal(err)
		}
		sinkBytes = enc
	}
}

func BenchmarkDecodeStringList(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(benchWire)))
	for i := 0; i < b.N; i++ {
		v, err := ParseWire(benchWire)
		if err != nil {
			b.Fatal(err)
		}
		d, err := DecodeValue(v)
		if err != nil {
			b.Fatal(err)
		}
		sinkDecoded = d
	}
}

func BenchmarkDecodeStringListCBOR(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(benchCBOR)))
	for i := 0; i < b.N; i++ {
		var out []string
		if err := cbor.Unmarshal(benchCBOR, &out); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeU512(b *testing.B) {
	u512, err := U512FromDecimal("123456789012345678901234567890123456789")
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		sinkBytes = FromU512(u512).WireBytes()
	}
}

func BenchmarkParseWire(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(benchWire)))
	for i := 0; i < b.N; i++ {
		v, err := ParseWire(benchWire)
		if err != nil {
			b.Fatal(err)
		}
		sinkValue = v
	}
}

func BenchmarkToJSON(b *testing.B) {
	v := FromStringList(benchStrings)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		out, err := ToJSON(v)
		if err != nil {
			b.Fatal(err)
		}
		sinkBytes = []byte(out)
	}
}
