package tagv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"
)

// Decode failure sentinels; wrapped with context by the decoders.
var (
	ErrTruncated     = errors.New("truncated input")
	ErrTrailingBytes = errors.New("trailing bytes after value")
)

// Decoded is a structural view of a payload under its type path, one
// node per value. The Path field holds the node's own complete type
// path, so a Decoded tree can be re-encoded without outside context.
type Decoded struct {
	Path []Tag

	Bool  bool
	I32   int32
	I64   int64
	U8    uint8
	U32   uint32
	U64   uint64
	Big   *big.Int // u128, u256, u512
	Str   string
	Key   Key
	Ref   URef
	Bytes []byte // fixed_list<u8> and any

	Present bool      // option
	Ok      bool      // result
	Elems   []Decoded // list, fixed_list, tuples, present option, taken result branch
	Entries []MapEntry
}

// MapEntry is one key/value pair of a decoded map.
type MapEntry struct {
	Key   Decoded
	Value Decoded
}

// Tag returns the node's outermost tag.
func (d Decoded) Tag() Tag {
	return d.Path[0]
}

// DecodeValue decodes the payload of v under its type path. The whole
// payload must be consumed; truncated or over-long payloads and
// malformed paths are rejected.
func DecodeValue(v TaggedValue) (Decoded, error) {
	if err := ValidatePath(v.Path); err != nil {
		return Decoded{}, err
	}
	d, n, err := decodeBody(v.Payload, v.Path)
	if err != nil {
		return Decoded{}, err
	}
	if n != len(v.Payload) {
		return Decoded{}, fmt.Errorf("%d byte(s) left after %s payload: %w",
			len(v.Payload)-n, v.PathString(), ErrTrailingBytes)
	}
	return d, nil
}

// decodeBody decodes one value of the given type from the front of b
// and returns it with the byte count consumed. The path must already
// be validated. fixed_list and any have no count of their own and
// consume the remainder of b, so they only decode in tail position.
func decodeBody(b []byte, path []Tag) (Decoded, int, error) {
	d := Decoded{Path: path}
	switch path[0] {
	case TagBool:
		if len(b) < 1 {
			return Decoded{}, 0, fmt.Errorf("bool payload: %w", ErrTruncated)
		}
		switch b[0] {
		case 0:
			d.Bool = false
		case 1:
			d.Bool = true
		default:
			return Decoded{}, 0, fmt.Errorf("invalid bool byte %d", b[0])
		}
		return d, 1, nil
	case TagI32:
		if len(b) < 4 {
			return Decoded{}, 0, fmt.Errorf("i32 payload: %w", ErrTruncated)
		}
		d.I32 = int32(binary.LittleEndian.Uint32(b))
		return d, 4, nil
	case TagI64:
		if len(b) < 8 {
			return Decoded{}, 0, fmt.Errorf("i64 payload: %w", ErrTruncated)
		}
		d.I64 = int64(binary.LittleEndian.Uint64(b))
		return d, 8, nil
	case TagU8:
		if len(b) < 1 {
			return Decoded{}, 0, fmt.Errorf("u8 payload: %w", ErrTruncated)
		}
		d.U8 = b[0]
		return d, 1, nil
	case TagU32:
		if len(b) < 4 {
			return Decoded{}, 0, fmt.Errorf("u32 payload: %w", ErrTruncated)
		}
		d.U32 = binary.LittleEndian.Uint32(b)
		return d, 4, nil
	case TagU64:
		if len(b) < 8 {
			return Decoded{}, 0, fmt.Errorf("u64 payload: %w", ErrTruncated)
		}
		d.U64 = binary.LittleEndian.Uint64(b)
		return d, 8, nil
	case TagU128, TagU256, TagU512:
		bits := 128
		switch path[0] {
		case TagU256:
			bits = 256
		case TagU512:
			bits = 512
		}
		n, consumed, err := decodeBig(b, bits)
		if err != nil {
			return Decoded{}, 0, err
		}
		d.Big = n
		return d, consumed, nil
	case TagUnit:
		return d, 0, nil
	case TagString:
		if len(b) < lengthPrefixSize {
			return Decoded{}, 0, fmt.Errorf("string length prefix: %w", ErrTruncated)
		}
		n := binary.LittleEndian.Uint32(b)
		if uint64(len(b)-lengthPrefixSize) < uint64(n) {
			return Decoded{}, 0, fmt.Errorf("string needs %d bytes: %w", n, ErrTruncated)
		}
		raw := b[lengthPrefixSize : lengthPrefixSize+int(n)]
		if !utf8.Valid(raw) {
			return Decoded{}, 0, fmt.Errorf("string payload is not valid UTF-8")
		}
		d.Str = string(raw)
		return d, lengthPrefixSize + int(n), nil
	case TagKey:
		k, n, err := decodeKey(b)
		if err != nil {
			return Decoded{}, 0, err
		}
		d.Key = k
		return d, n, nil
	case TagURef:
		u, n, err := decodeURef(b)
		if err != nil {
			return Decoded{}, 0, err
		}
		d.Ref = u
		return d, n, nil
	case TagOption:
		if len(b) < 1 {
			return Decoded{}, 0, fmt.Errorf("option flag: %w", ErrTruncated)
		}
		switch b[0] {
		case optionAbsent:
			return d, 1, nil
		case optionPresent:
			inner, n, err := decodeBody(b[1:], path[1:])
			if err != nil {
				return Decoded{}, 0, err
			}
			d.Present = true
			d.Elems = []Decoded{inner}
			return d, 1 + n, nil
		default:
			return Decoded{}, 0, fmt.Errorf("invalid option flag %d", b[0])
		}
	case TagList:
		if len(b) < lengthPrefixSize {
			return Decoded{}, 0, fmt.Errorf("list count: %w", ErrTruncated)
		}
		raw := binary.LittleEndian.Uint32(b)
		consumed := lengthPrefixSize
		if err := checkElemCount(raw, len(b)-consumed, minEncodedLen(path[1:])); err != nil {
			return Decoded{}, 0, fmt.Errorf("list: %w", err)
		}
		count := int(raw)
		elems := make([]Decoded, 0, min(count, 64))
		for i := 0; i < count; i++ {
			e, n, err := decodeBody(b[consumed:], path[1:])
			if err != nil {
				return Decoded{}, 0, fmt.Errorf("list element %d: %w", i, err)
			}
			elems = append(elems, e)
			consumed += n
		}
		d.Elems = elems
		return d, consumed, nil
	case TagFixedList:
		if path[1] == TagU8 {
			d.Bytes = append([]byte{}, b...)
			return d, len(b), nil
		}
		consumed := 0
		var elems []Decoded
		for consumed < len(b) {
			e, n, err := decodeBody(b[consumed:], path[1:])
			if err != nil {
				return Decoded{}, 0, fmt.Errorf("fixed_list element %d: %w", len(elems), err)
			}
			if n == 0 {
				return Decoded{}, 0, fmt.Errorf("fixed_list of zero-width element %s", FormatPath(path[1:]))
			}
			elems = append(elems, e)
			consumed += n
		}
		d.Elems = elems
		return d, consumed, nil
	case TagResult:
		if len(b) < 1 {
			return Decoded{}, 0, fmt.Errorf("result flag: %w", ErrTruncated)
		}
		okLen, err := pathLen(path[1:])
		if err != nil {
			return Decoded{}, 0, err
		}
		branch := path[1 : 1+okLen]
		switch b[0] {
		case resultOk:
			d.Ok = true
		case resultErr:
			branch = path[1+okLen:]
		default:
			return Decoded{}, 0, fmt.Errorf("invalid result flag %d", b[0])
		}
		inner, n, err := decodeBody(b[1:], branch)
		if err != nil {
			return Decoded{}, 0, err
		}
		d.Elems = []Decoded{inner}
		return d, 1 + n, nil
	case TagMap:
		if len(b) < lengthPrefixSize {
			return Decoded{}, 0, fmt.Errorf("map count: %w", ErrTruncated)
		}
		raw := binary.LittleEndian.Uint32(b)
		keyLen, err := pathLen(path[1:])
		if err != nil {
			return Decoded{}, 0, err
		}
		keyPath := path[1 : 1+keyLen]
		valPath := path[1+keyLen:]
		consumed := lengthPrefixSize
		if err := checkElemCount(raw, len(b)-consumed, minEncodedLen(keyPath)+minEncodedLen(valPath)); err != nil {
			return Decoded{}, 0, fmt.Errorf("map: %w", err)
		}
		count := int(raw)
		entries := make([]MapEntry, 0, min(count, 64))
		for i := 0; i < count; i++ {
			k, n, err := decodeBody(b[consumed:], keyPath)
			if err != nil {
				return Decoded{}, 0, fmt.Errorf("map key %d: %w", i, err)
			}
			consumed += n
			v, n, err := decodeBody(b[consumed:], valPath)
			if err != nil {
				return Decoded{}, 0, fmt.Errorf("map value %d: %w", i, err)
			}
			consumed += n
			entries = append(entries, MapEntry{Key: k, Value: v})
		}
		d.Entries = entries
		return d, consumed, nil
	case TagTuple1, TagTuple2, TagTuple3:
		arity := path[0].ParamCount()
		rest := path[1:]
		consumed := 0
		elems := make([]Decoded, 0, arity)
		for i := 0; i < arity; i++ {
			elemLen, err := pathLen(rest)
			if err != nil {
				return Decoded{}, 0, err
			}
			e, n, err := decodeBody(b[consumed:], rest[:elemLen])
			if err != nil {
				return Decoded{}, 0, fmt.Errorf("tuple element %d: %w", i, err)
			}
			elems = append(elems, e)
			consumed += n
			rest = rest[elemLen:]
		}
		d.Elems = elems
		return d, consumed, nil
	case TagAny:
		d.Bytes = append([]byte{}, b...)
		return d, len(b), nil
	default:
		return Decoded{}, 0, fmt.Errorf("invalid tag %d in type path", uint8(path[0]))
	}
}

// maxZeroWidthElems bounds collections of zero-width elements (unit
// and nestings of it), whose counts are otherwise unconstrained by the
// available payload bytes.
const maxZeroWidthElems = 1 << 16

// checkElemCount rejects element counts that cannot possibly fit the
// remaining payload, before anything is allocated for them. The count
// stays uint32 until this check passes so that values above MaxInt32
// cannot wrap on 32-bit platforms.
func checkElemCount(count uint32, remaining, minElemLen int) error {
	if minElemLen == 0 {
		if count > maxZeroWidthElems {
			return fmt.Errorf("%d zero-width elements exceeds limit %d", count, maxZeroWidthElems)
		}
		return nil
	}
	if uint64(count) > uint64(remaining)/uint64(minElemLen) {
		return fmt.Errorf("%d element(s) cannot fit %d payload byte(s): %w", count, remaining, ErrTruncated)
	}
	return nil
}

// minEncodedLen returns the smallest payload a value of the given
// (already validated) type can occupy.
func minEncodedLen(path []Tag) int {
	switch path[0] {
	case TagUnit, TagFixedList, TagAny:
		return 0
	case TagBool, TagU8, TagU128, TagU256, TagU512, TagOption, TagResult:
		return 1
	case TagI32, TagU32, TagString, TagList, TagMap:
		return 4
	case TagI64, TagU64:
		return 8
	case TagKey, TagURef:
		return AddrLen + 1
	case TagTuple1, TagTuple2, TagTuple3:
		total := 0
		rest := path[1:]
		for i := 0; i < path[0].ParamCount(); i++ {
			n, err := pathLen(rest)
			if err != nil {
				return 0
			}
			total += minEncodedLen(rest[:n])
			rest = rest[n:]
		}
		return total
	default:
		return 0
	}
}

// Reencode rebuilds a TaggedValue from a decoded tree. For any v that
// DecodeValue accepts, Reencode(DecodeValue(v)) reproduces v
// byte-for-byte.
func Reencode(d Decoded) (TaggedValue, error) {
	if err := ValidatePath(d.Path); err != nil {
		return TaggedValue{}, err
	}
	p, err := appendDecoded(nil, d)
	if err != nil {
		return TaggedValue{}, err
	}
	if p == nil {
		p = []byte{}
	}
	return TaggedValue{Payload: p, Path: append([]Tag{}, d.Path...)}, nil
}

func appendDecoded(dst []byte, d Decoded) ([]byte, error) {
	switch d.Path[0] {
	case TagBool:
		if d.Bool {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case TagI32:
		return appendU32(dst, uint32(d.I32)), nil
	case TagI64:
		return appendU64(dst, uint64(d.I64)), nil
	case TagU8:
		return append(dst, d.U8), nil
	case TagU32:
		return appendU32(dst, d.U32), nil
	case TagU64:
		return appendU64(dst, d.U64), nil
	case TagU128, TagU256, TagU512:
		if d.Big == nil {
			return nil, fmt.Errorf("%s node has no value", d.Tag())
		}
		return appendBig(dst, d.Big), nil
	case TagUnit:
		return dst, nil
	case TagString:
		return appendString(dst, d.Str), nil
	case TagKey:
		return appendKey(dst, d.Key), nil
	case TagURef:
		return appendURef(dst, d.Ref), nil
	case TagOption:
		if !d.Present {
			return append(dst, optionAbsent), nil
		}
		if len(d.Elems) != 1 {
			return nil, fmt.Errorf("present option has %d inner values", len(d.Elems))
		}
		return appendDecoded(append(dst, optionPresent), d.Elems[0])
	case TagList:
		dst = appendU32(dst, uint32(len(d.Elems)))
		for _, e := range d.Elems {
			var err error
			if dst, err = appendDecoded(dst, e); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case TagFixedList:
		if d.Path[1] == TagU8 {
			return append(dst, d.Bytes...), nil
		}
		for _, e := range d.Elems {
			var err error
			if dst, err = appendDecoded(dst, e); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case TagResult:
		if len(d.Elems) != 1 {
			return nil, fmt.Errorf("result has %d inner values", len(d.Elems))
		}
		flag := resultErr
		if d.Ok {
			flag = resultOk
		}
		return appendDecoded(append(dst, flag), d.Elems[0])
	case TagMap:
		dst = appendU32(dst, uint32(len(d.Entries)))
		for _, e := range d.Entries {
			var err error
			if dst, err = appendDecoded(dst, e.Key); err != nil {
				return nil, err
			}
			if dst, err = appendDecoded(dst, e.Value); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case TagTuple1, TagTuple2, TagTuple3:
		if len(d.Elems) != d.Path[0].ParamCount() {
			return nil, fmt.Errorf("%s has %d elements", d.Tag(), len(d.Elems))
		}
		for _, e := range d.Elems {
			var err error
			if dst, err = appendDecoded(dst, e); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case TagAny:
		return append(dst, d.Bytes...), nil
	default:
		return nil, fmt.Errorf("invalid tag %d in type path", uint8(d.Path[0]))
	}
}
