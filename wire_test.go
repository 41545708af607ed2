package tagv

import (
	"bytes"
	"errors"
	"testing"
)

// Every factory output must survive ParseWire, DecodeValue and
// Reencode byte-for-byte.
func TestWireRoundTrip(t *testing.T) {
	for name, v := range sampleValues() {
		t.Run(name, func(t *testing.T) {
			parsed, err := ParseWire(v.WireBytes())
			if err != nil {
				t.Fatalf("ParseWire: %v", err)
			}
			if !parsed.Equal(v) {
				t.Fatalf("ParseWire = %+v, want %+v", parsed, v)
			}
			d, err := DecodeValue(parsed)
			if err != nil {
				t.Fatalf("DecodeValue: %v", err)
			}
			re, err := Reencode(d)
			if err != nil {
				t.Fatalf("Reencode: %v", err)
			}
			if !re.Equal(v) {
				t.Fatalf("Reencode = %x/%v, want %x/%v", re.Payload, re.Path, v.Payload, v.Path)
			}
		})
	}
}

func TestDecodedShapes(t *testing.T) {
	u512, _ := U512FromDecimal("99999999999999999999")
	d, err := DecodeValue(FromU512(u512))
	if err != nil {
		t.Fatal(err)
	}
	if d.Big.String() != "99999999999999999999" {
		t.Errorf("u512 = %s", d.Big)
	}

	d, err = DecodeValue(FromStringList([]string{"", "héllo"}))
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Elems) != 2 || d.Elems[0].Str != "" || d.Elems[1].Str != "héllo" {
		t.Errorf("string list = %+v", d.Elems)
	}

	d, err = DecodeValue(FromOption(nil, TagString))
	if err != nil {
		t.Fatal(err)
	}
	if d.Present || len(d.Elems) != 0 {
		t.Errorf("absent option = %+v", d)
	}

	inner := FromStringList([]string{"x"})
	d, err = DecodeValue(FromOption(&inner, TagList, TagString))
	if err != nil {
		t.Fatal(err)
	}
	if !d.Present || d.Elems[0].Elems[0].Str != "x" {
		t.Errorf("nested option = %+v", d)
	}

	d, err = DecodeValue(FromTuple3(FromBool(true), FromU8(9), FromUnit()))
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Elems) != 3 || !d.Elems[0].Bool || d.Elems[1].U8 != 9 || d.Elems[2].Tag() != TagUnit {
		t.Errorf("tuple3 = %+v", d.Elems)
	}

	d, err = DecodeValue(FromBytes([]byte{5, 6, 7}))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(d.Bytes, []byte{5, 6, 7}) {
		t.Errorf("fixed_list<u8> = %x", d.Bytes)
	}
}

func TestParseWireRejections(t *testing.T) {
	good := FromI32(-1).WireBytes()

	cases := map[string][]byte{
		"empty":             nil,
		"short prefix":      good[:3],
		"payload truncated": good[:6],
		"path missing":      good[:8],
		"bad tag":           append(append([]byte{}, good...), 0xEE),
		"incomplete path":   {0, 0, 0, 0, byte(TagOption)},
	}
	for name, in := range cases {
		if _, err := ParseWire(in); err == nil {
			t.Errorf("%s: ParseWire should fail", name)
		}
	}

	if _, err := ParseWire(good[:6]); !errors.Is(err, ErrTruncated) {
		t.Errorf("truncated payload error = %v, want ErrTruncated", err)
	}
}

func TestDecodeValueRejections(t *testing.T) {
	cases := map[string]TaggedValue{
		"string truncated":    {Payload: []byte{5, 0, 0, 0, 'a'}, Path: []Tag{TagString}},
		"string bad utf8":     {Payload: []byte{1, 0, 0, 0, 0xFF}, Path: []Tag{TagString}},
		"bool bad byte":       {Payload: []byte{2}, Path: []Tag{TagBool}},
		"bool trailing":       {Payload: []byte{1, 0}, Path: []Tag{TagBool}},
		"unit nonempty":       {Payload: []byte{0}, Path: []Tag{TagUnit}},
		"i32 short":           {Payload: []byte{1, 2}, Path: []Tag{TagI32}},
		"option bad flag":     {Payload: []byte{7}, Path: []Tag{TagOption, TagU8}},
		"option absent extra": {Payload: []byte{0, 1}, Path: []Tag{TagOption, TagU8}},
		"result bad flag":     {Payload: []byte{9, 0}, Path: []Tag{TagResult, TagU8, TagU8}},
		"list count too big":  {Payload: []byte{0xFF, 0xFF, 0xFF, 0xFF}, Path: []Tag{TagList, TagU64}},
		"map count too big":   {Payload: []byte{0xFF, 0xFF, 0xFF, 0x7F}, Path: []Tag{TagMap, TagString, TagKey}},
		"empty path":          {Payload: []byte{0}, Path: nil},
		"unknown tag":         {Payload: []byte{0}, Path: []Tag{Tag(40)}},
	}
	for name, v := range cases {
		if _, err := DecodeValue(v); err == nil {
			t.Errorf("%s: DecodeValue should fail", name)
		}
	}
}

func TestZeroWidthListGuard(t *testing.T) {
	// A unit list's payload is just its count; absurd counts are
	// rejected rather than materialized.
	small := TaggedValue{Payload: []byte{3, 0, 0, 0}, Path: []Tag{TagList, TagUnit}}
	d, err := DecodeValue(small)
	if err != nil {
		t.Fatalf("small unit list: %v", err)
	}
	if len(d.Elems) != 3 {
		t.Fatalf("unit list decoded %d elements", len(d.Elems))
	}

	huge := TaggedValue{Payload: []byte{0, 0, 0, 0x10}, Path: []Tag{TagList, TagUnit}}
	if _, err := DecodeValue(huge); err == nil {
		t.Error("huge unit list should be rejected")
	}
}

func TestFixedListTailOnly(t *testing.T) {
	// fixed_list extends to the end of the payload, so a non-u8
	// element list decodes element by element until exhaustion.
	v := TaggedValue{
		Payload: append(appendU32(nil, 1), appendU32(nil, 2)...),
		Path:    []Tag{TagFixedList, TagU32},
	}
	d, err := DecodeValue(v)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Elems) != 2 || d.Elems[0].U32 != 1 || d.Elems[1].U32 != 2 {
		t.Fatalf("fixed_list<u32> = %+v", d.Elems)
	}

	zero := TaggedValue{Payload: []byte{1}, Path: []Tag{TagFixedList, TagUnit}}
	if _, err := DecodeValue(zero); err == nil {
		t.Error("fixed_list of zero-width elements should be rejected")
	}
}

func TestAppendWire(t *testing.T) {
	v := FromString("ab")
	prefix := []byte{0xAA, 0xBB}
	out := AppendWire(append([]byte{}, prefix...), v)
	if !bytes.Equal(out[:2], prefix) {
		t.Fatal("AppendWire clobbered prefix")
	}
	if !bytes.Equal(out[2:], v.WireBytes()) {
		t.Fatal("AppendWire output differs from WireBytes")
	}
}

func TestParseWireCopiesPayload(t *testing.T) {
	wire := FromString("abc").WireBytes()
	v, err := ParseWire(wire)
	if err != nil {
		t.Fatal(err)
	}
	wire[5] = 'X'
	d, err := DecodeValue(v)
	if err != nil {
		t.Fatal(err)
	}
	if d.Str != "abc" {
		t.Errorf("parsed value aliases input buffer: %q", d.Str)
	}
}

func TestOversizedTypePathRejected(t *testing.T) {
	// A wire input can nest constructors as deep as its trailing path
	// is long; the validator bounds that depth instead of recursing
	// through millions of option tags.
	wire := []byte{1, 0, 0, 0, 0}
	for i := 0; i < 20000; i++ {
		wire = append(wire, byte(TagOption))
	}
	wire = append(wire, byte(TagBool))
	if _, err := ParseWire(wire); err == nil {
		t.Fatal("oversized type path should be rejected")
	}

	deep := make([]Tag, maxPathLen+1)
	for i := range deep {
		deep[i] = TagOption
	}
	deep[len(deep)-1] = TagBool
	if err := ValidatePath(deep); err == nil {
		t.Error("ValidatePath should reject a path beyond maxPathLen")
	}
}

func TestCountsAboveMaxInt32(t *testing.T) {
	// Counts and lengths are compared as unsigned values so that a
	// high bit cannot wrap to a negative int on 32-bit platforms.
	cases := map[string]TaggedValue{
		"list count 2^31": {Payload: []byte{0, 0, 0, 0x80, 1, 2}, Path: []Tag{TagList, TagU8}},
		"map count 2^31":  {Payload: []byte{0, 0, 0, 0x80}, Path: []Tag{TagMap, TagString, TagKey}},
		"string len 2^31": {Payload: []byte{0, 0, 0, 0x80, 'a'}, Path: []Tag{TagString}},
		"unit list 2^31":  {Payload: []byte{0, 0, 0, 0x80}, Path: []Tag{TagList, TagUnit}},
	}
	for name, v := range cases {
		if _, err := DecodeValue(v); err == nil {
			t.Errorf("%s: DecodeValue should fail", name)
		}
	}

	wire := []byte{0, 0, 0, 0x80, 1, 2, 3, byte(TagU8)}
	if _, err := ParseWire(wire); !errors.Is(err, ErrTruncated) {
		t.Errorf("wire prefix 2^31 error = %v, want ErrTruncated", err)
	}
}

func TestInvalidUTF8RejectedAtDecode(t *testing.T) {
	// The string factories trust their input; bytes outside UTF-8 are
	// caught by the decoder instead.
	if _, err := DecodeValue(FromString("\xff")); err == nil {
		t.Error("invalid UTF-8 string should fail to decode")
	}
	v := FromStringList([]string{"ok", "\xc3\x28"})
	parsed, err := ParseWire(v.WireBytes())
	if err != nil {
		t.Fatalf("ParseWire: %v", err)
	}
	if _, err := DecodeValue(parsed); err == nil {
		t.Error("invalid UTF-8 list element should fail to decode")
	}
}
