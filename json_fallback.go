package tagv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

// fromJSONStdlib is the encoding/json path used when the CPU lacks the
// SIMD support simdjson-go needs. Same JSON form, same results.
func fromJSONStdlib(data []byte) (TaggedValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return TaggedValue{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return TaggedValue{}, fmt.Errorf("invalid character after top-level value")
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return TaggedValue{}, fmt.Errorf("expected top-level object, got %T", root)
	}
	if len(obj) != 2 {
		return TaggedValue{}, fmt.Errorf(`json form requires exactly "type" and "value" fields`)
	}
	pathStr, ok := obj["type"].(string)
	if !ok {
		return TaggedValue{}, fmt.Errorf(`json form requires a string "type" field`)
	}
	raw, ok := obj["value"]
	if !ok {
		return TaggedValue{}, fmt.Errorf(`json form requires a "value" field`)
	}
	path, err := ParsePath(pathStr)
	if err != nil {
		return TaggedValue{}, err
	}
	d, err := decodedFromAny(raw, path)
	if err != nil {
		return TaggedValue{}, err
	}
	return Reencode(d)
}

func jsonInt(v any) (int64, error) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
	return strconv.ParseInt(num.String(), 10, 64)
}

func decodedFromAny(v any, path []Tag) (Decoded, error) {
	d := Decoded{Path: path}
	switch path[0] {
	case TagBool:
		b, ok := v.(bool)
		if !ok {
			return Decoded{}, fmt.Errorf("expected a bool, got %T", v)
		}
		d.Bool = b
	case TagI32:
		n, err := jsonInt(v)
		if err != nil {
			return Decoded{}, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return Decoded{}, fmt.Errorf("%d out of i32 range", n)
		}
		d.I32 = int32(n)
	case TagI64:
		n, err := jsonInt(v)
		if err != nil {
			return Decoded{}, err
		}
		d.I64 = n
	case TagU8:
		n, err := jsonInt(v)
		if err != nil {
			return Decoded{}, err
		}
		if n < 0 || n > math.MaxUint8 {
			return Decoded{}, fmt.Errorf("%d out of u8 range", n)
		}
		d.U8 = uint8(n)
	case TagU32:
		n, err := jsonInt(v)
		if err != nil {
			return Decoded{}, err
		}
		if n < 0 || n > math.MaxUint32 {
			return Decoded{}, fmt.Errorf("%d out of u32 range", n)
		}
		d.U32 = uint32(n)
	case TagU64:
		num, ok := v.(json.Number)
		if !ok {
			return Decoded{}, fmt.Errorf("expected a number, got %T", v)
		}
		n, err := strconv.ParseUint(num.String(), 10, 64)
		if err != nil {
			return Decoded{}, err
		}
		d.U64 = n
	case TagU128, TagU256, TagU512:
		s, ok := v.(string)
		if !ok {
			return Decoded{}, fmt.Errorf("%s expects a decimal string, got %T", path[0], v)
		}
		n, err := parseBigForTag(path[0], s)
		if err != nil {
			return Decoded{}, err
		}
		d.Big = n
	case TagUnit:
		if v != nil {
			return Decoded{}, fmt.Errorf("unit expects null, got %T", v)
		}
	case TagString:
		s, ok := v.(string)
		if !ok {
			return Decoded{}, fmt.Errorf("expected a string, got %T", v)
		}
		d.Str = s
	case TagKey:
		s, ok := v.(string)
		if !ok {
			return Decoded{}, fmt.Errorf("expected a key string, got %T", v)
		}
		k, err := parseKeyString(s)
		if err != nil {
			return Decoded{}, err
		}
		d.Key = k
	case TagURef:
		s, ok := v.(string)
		if !ok {
			return Decoded{}, fmt.Errorf("expected a uref string, got %T", v)
		}
		u, err := parseURefString(s)
		if err != nil {
			return Decoded{}, err
		}
		d.Ref = u
	case TagOption:
		if v == nil {
			return d, nil
		}
		inner, err := singleFieldFromAny(v, "some", path[1:])
		if err != nil {
			return Decoded{}, err
		}
		d.Present = true
		d.Elems = []Decoded{inner}
	case TagList:
		elems, err := elemsFromAny(v, path[1:])
		if err != nil {
			return Decoded{}, err
		}
		d.Elems = elems
	case TagFixedList:
		if path[1] == TagU8 {
			s, ok := v.(string)
			if !ok {
				return Decoded{}, fmt.Errorf("expected a b64 string, got %T", v)
			}
			raw, err := parseB64(s)
			if err != nil {
				return Decoded{}, err
			}
			d.Bytes = raw
			return d, nil
		}
		elems, err := elemsFromAny(v, path[1:])
		if err != nil {
			return Decoded{}, err
		}
		d.Elems = elems
	case TagResult:
		okLen, err := pathLen(path[1:])
		if err != nil {
			return Decoded{}, err
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return Decoded{}, fmt.Errorf(`result expects {"ok": ...} or {"err": ...}`)
		}
		field, branch := "err", path[1+okLen:]
		if _, isOk := obj["ok"]; isOk {
			field, branch = "ok", path[1:1+okLen]
			d.Ok = true
		} else if _, isErr := obj["err"]; !isErr {
			return Decoded{}, fmt.Errorf(`result expects {"ok": ...} or {"err": ...}`)
		}
		inner, err := singleFieldFromAny(v, field, branch)
		if err != nil {
			return Decoded{}, err
		}
		d.Elems = []Decoded{inner}
	case TagMap:
		entries, err := entriesFromAny(v, path[1:])
		if err != nil {
			return Decoded{}, err
		}
		d.Entries = entries
	case TagTuple1, TagTuple2, TagTuple3:
		arr, ok := v.([]any)
		if !ok {
			return Decoded{}, fmt.Errorf("tuple expects an array, got %T", v)
		}
		arity := path[0].ParamCount()
		if len(arr) != arity {
			return Decoded{}, fmt.Errorf("tuple expects %d elements, got %d", arity, len(arr))
		}
		rest := path[1:]
		elems := make([]Decoded, 0, arity)
		for i, raw := range arr {
			n, err := pathLen(rest)
			if err != nil {
				return Decoded{}, err
			}
			e, err := decodedFromAny(raw, rest[:n])
			if err != nil {
				return Decoded{}, fmt.Errorf("tuple element %d: %w", i, err)
			}
			elems = append(elems, e)
			rest = rest[n:]
		}
		d.Elems = elems
	case TagAny:
		s, ok := v.(string)
		if !ok {
			return Decoded{}, fmt.Errorf("expected a b64 string, got %T", v)
		}
		raw, err := parseB64(s)
		if err != nil {
			return Decoded{}, err
		}
		d.Bytes = raw
	default:
		return Decoded{}, fmt.Errorf("invalid tag %d in type path", uint8(path[0]))
	}
	return d, nil
}

func singleFieldFromAny(v any, name string, path []Tag) (Decoded, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Decoded{}, fmt.Errorf("expected a wrapper object, got %T", v)
	}
	inner, ok := obj[name]
	if !ok || len(obj) != 1 {
		return Decoded{}, fmt.Errorf("expected an object with the single field %q", name)
	}
	return decodedFromAny(inner, path)
}

func elemsFromAny(v any, elemPath []Tag) ([]Decoded, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array, got %T", v)
	}
	elems := make([]Decoded, 0, len(arr))
	for i, raw := range arr {
		e, err := decodedFromAny(raw, elemPath)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		elems = append(elems, e)
	}
	return elems, nil
}

func entriesFromAny(v any, rest []Tag) ([]MapEntry, error) {
	keyLen, err := pathLen(rest)
	if err != nil {
		return nil, err
	}
	keyPath := rest[:keyLen]
	valPath := rest[keyLen:]
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("map expects an array of entries, got %T", v)
	}
	entries := make([]MapEntry, 0, len(arr))
	for i, raw := range arr {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("map entry %d: expected object", i)
		}
		rawKey, okKey := obj["key"]
		rawVal, okVal := obj["value"]
		if !okKey || !okVal || len(obj) != 2 {
			return nil, fmt.Errorf(`map entry %d: needs "key" and "value"`, i)
		}
		var entry MapEntry
		if entry.Key, err = decodedFromAny(rawKey, keyPath); err != nil {
			return nil, fmt.Errorf("map entry %d: %w", i, err)
		}
		if entry.Value, err = decodedFromAny(rawVal, valPath); err != nil {
			return nil, fmt.Errorf("map entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
