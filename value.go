package tagv

import (
	"fmt"
	"slices"
	"strings"

	"github.com/delaneyj/toolbelt/bytebufferpool"
)

// TaggedValue pairs an encoded payload with the type path describing
// its shape, outermost constructor first. Values are immutable once
// built: factories allocate fresh slices and nothing mutates them.
type TaggedValue struct {
	Payload []byte
	Path    []Tag
}

// ConsistencyChecks enables an opt-in debug assertion in FromOption:
// when the wrapped value is present, its actual type path is compared
// against the caller-supplied element path and a mismatch panics. The
// wire format carries the caller-supplied path either way.
var ConsistencyChecks = false

// PathString renders the value's type path, e.g. "option<u512>".
func (v TaggedValue) PathString() string {
	return FormatPath(v.Path)
}

// Clone returns a deep copy of the value.
func (v TaggedValue) Clone() TaggedValue {
	return TaggedValue{
		Payload: append([]byte{}, v.Payload...),
		Path:    append([]Tag{}, v.Path...),
	}
}

// Equal reports payload and path equality.
func (v TaggedValue) Equal(o TaggedValue) bool {
	return slices.Equal(v.Payload, o.Payload) && slices.Equal(v.Path, o.Path)
}

// FromBool encodes a boolean as a single 0/1 byte.
func FromBool(v bool) TaggedValue {
	p := []byte{0}
	if v {
		p[0] = 1
	}
	return TaggedValue{Payload: p, Path: []Tag{TagBool}}
}

// FromI32 encodes a signed 32-bit integer, little-endian.
func FromI32(v int32) TaggedValue {
	return TaggedValue{Payload: appendU32(nil, uint32(v)), Path: []Tag{TagI32}}
}

// FromI64 encodes a signed 64-bit integer, little-endian.
func FromI64(v int64) TaggedValue {
	return TaggedValue{Payload: appendU64(nil, uint64(v)), Path: []Tag{TagI64}}
}

// FromU8 encodes an unsigned 8-bit integer.
func FromU8(v uint8) TaggedValue {
	return TaggedValue{Payload: []byte{v}, Path: []Tag{TagU8}}
}

// FromU32 encodes an unsigned 32-bit integer, little-endian.
func FromU32(v uint32) TaggedValue {
	return TaggedValue{Payload: appendU32(nil, v), Path: []Tag{TagU32}}
}

// FromU64 encodes an unsigned 64-bit integer, little-endian.
func FromU64(v uint64) TaggedValue {
	return TaggedValue{Payload: appendU64(nil, v), Path: []Tag{TagU64}}
}

// FromU128 encodes a 128-bit unsigned integer in its canonical
// count-prefixed little-endian form.
func FromU128(v U128) TaggedValue {
	n := v.Int()
	return TaggedValue{Payload: appendBig(nil, n), Path: []Tag{TagU128}}
}

// FromU256 encodes a 256-bit unsigned integer.
func FromU256(v U256) TaggedValue {
	n := v.Int()
	return TaggedValue{Payload: appendBig(nil, n), Path: []Tag{TagU256}}
}

// FromU512 encodes a 512-bit unsigned integer.
func FromU512(v U512) TaggedValue {
	n := v.Int()
	return TaggedValue{Payload: appendBig(nil, n), Path: []Tag{TagU512}}
}

// FromUnit encodes the unit value: an empty payload.
func FromUnit() TaggedValue {
	return TaggedValue{Payload: []byte{}, Path: []Tag{TagUnit}}
}

// FromString encodes UTF-8 text with a u32 length prefix. s must be
// valid UTF-8: the bytes are emitted as-is, and DecodeValue rejects a
// string payload that is not valid UTF-8.
func FromString(s string) TaggedValue {
	return TaggedValue{Payload: appendString(nil, s), Path: []Tag{TagString}}
}

// FromKey encodes a global-state key in its canonical form.
func FromKey(k Key) TaggedValue {
	return TaggedValue{Payload: appendKey(nil, k), Path: []Tag{TagKey}}
}

// FromURef encodes an unforgeable reference in its canonical form.
func FromURef(u URef) TaggedValue {
	return TaggedValue{Payload: appendURef(nil, u), Path: []Tag{TagURef}}
}

// FromStringList encodes a sequence of strings: a u32 element count
// followed by each element's length-prefixed encoding. The type path is
// [list, string] for every input, the empty list included. Every
// element must be valid UTF-8, as for FromString.
func FromStringList(ss []string) TaggedValue {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	writeU32(buf, uint32(len(ss)))
	for _, s := range ss {
		writeString(buf, s)
	}
	return TaggedValue{Payload: capturePayload(buf), Path: []Tag{TagList, TagString}}
}

// FromI32List encodes a sequence of signed 32-bit integers: a u32
// element count followed by the 4-byte little-endian elements.
func FromI32List(vs []int32) TaggedValue {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	writeU32(buf, uint32(len(vs)))
	for _, v := range vs {
		writeI32(buf, v)
	}
	return TaggedValue{Payload: capturePayload(buf), Path: []Tag{TagList, TagI32}}
}

// FromBytes encodes a byte blob as a fixed-length list of u8. The
// payload is the raw bytes with no count prefix; the extent comes from
// the enclosing wire length prefix.
func FromBytes(b []byte) TaggedValue {
	return TaggedValue{
		Payload: append([]byte{}, b...),
		Path:    []Tag{TagFixedList, TagU8},
	}
}

// FromOption encodes an optional value. A nil inner value encodes as
// the absent flag alone; a present value encodes as the present flag
// followed by the inner payload. The caller supplies the element type
// path, since an absent value carries no shape of its own; the factory
// trusts it (see ConsistencyChecks).
func FromOption(inner *TaggedValue, elemPath ...Tag) TaggedValue {
	path := append([]Tag{TagOption}, elemPath...)
	if inner == nil {
		return TaggedValue{Payload: []byte{optionAbsent}, Path: path}
	}
	if ConsistencyChecks && !slices.Equal(inner.Path, elemPath) {
		panic(fmt.Sprintf("tagv: option element path %s does not match wrapped value %s",
			FormatPath(elemPath), inner.PathString()))
	}
	p := make([]byte, 0, 1+len(inner.Payload))
	p = append(p, optionPresent)
	p = append(p, inner.Payload...)
	return TaggedValue{Payload: p, Path: path}
}

// FromResult encodes a success/failure wrapper: a flag byte (1 for ok,
// 0 for err) followed by the payload of whichever branch was taken. The
// caller supplies both branch type paths; only one branch has a value.
func FromResult(ok bool, inner TaggedValue, okPath, errPath []Tag) TaggedValue {
	path := make([]Tag, 0, 1+len(okPath)+len(errPath))
	path = append(path, TagResult)
	path = append(path, okPath...)
	path = append(path, errPath...)
	flag := resultErr
	if ok {
		flag = resultOk
	}
	p := make([]byte, 0, 1+len(inner.Payload))
	p = append(p, flag)
	p = append(p, inner.Payload...)
	return TaggedValue{Payload: p, Path: path}
}

// FromTuple1 wraps a single value as a one-element tuple.
func FromTuple1(a TaggedValue) TaggedValue {
	return fromTuple(TagTuple1, a)
}

// FromTuple2 concatenates two values as a pair.
func FromTuple2(a, b TaggedValue) TaggedValue {
	return fromTuple(TagTuple2, a, b)
}

// FromTuple3 concatenates three values as a triple.
func FromTuple3(a, b, c TaggedValue) TaggedValue {
	return fromTuple(TagTuple3, a, b, c)
}

func fromTuple(t Tag, elems ...TaggedValue) TaggedValue {
	path := []Tag{t}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	for _, e := range elems {
		path = append(path, e.Path...)
		buf.Write(e.Payload)
	}
	return TaggedValue{Payload: capturePayload(buf), Path: path}
}

// FromStringKeyMap encodes a string-to-key mapping: a u32 entry count
// followed by each entry's length-prefixed key string and Key encoding.
// Entries are sorted bytewise by map key so equal maps always encode
// identically. Map keys must be valid UTF-8, as for FromString.
func FromStringKeyMap(m map[string]Key) TaggedValue {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.SortFunc(names, strings.Compare)
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	writeU32(buf, uint32(len(names)))
	for _, name := range names {
		writeString(buf, name)
		buf.Write(appendKey(nil, m[name]))
	}
	return TaggedValue{Payload: capturePayload(buf), Path: []Tag{TagMap, TagString, TagKey}}
}

// FromAny wraps opaque bytes with the type-erased tag. The payload is
// carried verbatim; decoders surface it as raw bytes.
func FromAny(b []byte) TaggedValue {
	return TaggedValue{Payload: append([]byte{}, b...), Path: []Tag{TagAny}}
}
