package tagv

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/minio/simdjson-go"
)

// The JSON form is tooling-facing, not part of the wire contract:
// {"type": "<path>", "value": <value>} with big integers as decimal
// strings, byte blobs as "b64:"-prefixed base64, keys and urefs in
// their string forms, present options as {"some": ...} and results as
// {"ok": ...} or {"err": ...}.

// ToJSON renders a tagged value in the JSON form. The payload is
// decoded under the value's type path, so malformed payloads are
// rejected here.
func ToJSON(v TaggedValue) (string, error) {
	d, err := DecodeValue(v)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(`{"type":`)
	writeJSONString(&sb, v.PathString())
	sb.WriteString(`,"value":`)
	if err := writeJSONDecoded(&sb, d); err != nil {
		return "", err
	}
	sb.WriteByte('}')
	return sb.String(), nil
}

// writeJSONString appends a JSON string literal without HTML escaping,
// so type strings like "list<string>" stay readable.
func writeJSONString(sb *strings.Builder, s string) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// Encoding a string cannot fail; keep the writer total.
		buf.Reset()
		buf.WriteString(`""`)
	}
	sb.Write(bytes.TrimRight(buf.Bytes(), "\n"))
}

func writeJSONBytes(sb *strings.Builder, b []byte) {
	sb.WriteString(`"b64:`)
	sb.WriteString(base64.StdEncoding.EncodeToString(b))
	sb.WriteByte('"')
}

func writeJSONDecoded(sb *strings.Builder, d Decoded) error {
	switch d.Tag() {
	case TagBool:
		if d.Bool {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case TagI32:
		sb.WriteString(strconv.FormatInt(int64(d.I32), 10))
	case TagI64:
		sb.WriteString(strconv.FormatInt(d.I64, 10))
	case TagU8:
		sb.WriteString(strconv.FormatUint(uint64(d.U8), 10))
	case TagU32:
		sb.WriteString(strconv.FormatUint(uint64(d.U32), 10))
	case TagU64:
		sb.WriteString(strconv.FormatUint(d.U64, 10))
	case TagU128, TagU256, TagU512:
		writeJSONString(sb, d.Big.String())
	case TagUnit:
		sb.WriteString("null")
	case TagString:
		writeJSONString(sb, d.Str)
	case TagKey:
		writeJSONString(sb, d.Key.String())
	case TagURef:
		writeJSONString(sb, d.Ref.String())
	case TagOption:
		if !d.Present {
			sb.WriteString("null")
			return nil
		}
		sb.WriteString(`{"some":`)
		if err := writeJSONDecoded(sb, d.Elems[0]); err != nil {
			return err
		}
		sb.WriteByte('}')
	case TagList:
		return writeJSONElems(sb, d.Elems)
	case TagFixedList:
		if d.Path[1] == TagU8 {
			writeJSONBytes(sb, d.Bytes)
			return nil
		}
		return writeJSONElems(sb, d.Elems)
	case TagResult:
		if d.Ok {
			sb.WriteString(`{"ok":`)
		} else {
			sb.WriteString(`{"err":`)
		}
		if err := writeJSONDecoded(sb, d.Elems[0]); err != nil {
			return err
		}
		sb.WriteByte('}')
	case TagMap:
		sb.WriteByte('[')
		for i, e := range d.Entries {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(`{"key":`)
			if err := writeJSONDecoded(sb, e.Key); err != nil {
				return err
			}
			sb.WriteString(`,"value":`)
			if err := writeJSONDecoded(sb, e.Value); err != nil {
				return err
			}
			sb.WriteByte('}')
		}
		sb.WriteByte(']')
	case TagTuple1, TagTuple2, TagTuple3:
		return writeJSONElems(sb, d.Elems)
	case TagAny:
		writeJSONBytes(sb, d.Bytes)
	default:
		return fmt.Errorf("invalid tag %d in type path", uint8(d.Tag()))
	}
	return nil
}

func writeJSONElems(sb *strings.Builder, elems []Decoded) error {
	sb.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			sb.WriteByte(',')
		}
		if err := writeJSONDecoded(sb, e); err != nil {
			return err
		}
	}
	sb.WriteByte(']')
	return nil
}

// FromJSON parses the JSON form back into a TaggedValue. Parsing uses
// simdjson-go where the CPU supports it and falls back to
// encoding/json elsewhere.
func FromJSON(data []byte) (TaggedValue, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return TaggedValue{}, fmt.Errorf("json input is empty")
	}
	if !simdjson.SupportedCPU() {
		return fromJSONStdlib(data)
	}
	parsed, err := simdjson.Parse(data, nil)
	if err != nil {
		return TaggedValue{}, err
	}
	it := parsed.Iter()
	if it.Advance() != simdjson.TypeRoot {
		return TaggedValue{}, fmt.Errorf("json root not found")
	}
	typ, root, err := it.Root(nil)
	if err != nil {
		return TaggedValue{}, err
	}
	if typ != simdjson.TypeObject {
		return TaggedValue{}, fmt.Errorf("expected top-level object, got %v", typ)
	}
	obj, err := root.Object(nil)
	if err != nil {
		return TaggedValue{}, err
	}
	var pathStr string
	var havePath, haveValue bool
	var valueIter simdjson.Iter
	var fieldErr error
	err = obj.ForEach(func(key []byte, elem simdjson.Iter) {
		if fieldErr != nil {
			return
		}
		switch string(key) {
		case "type":
			s, err := elem.String()
			if err != nil {
				fieldErr = err
				return
			}
			pathStr = s
			havePath = true
		case "value":
			valueIter = elem
			haveValue = true
		default:
			fieldErr = fmt.Errorf("unknown field %q", key)
		}
	}, nil)
	if err != nil {
		return TaggedValue{}, err
	}
	if fieldErr != nil {
		return TaggedValue{}, fieldErr
	}
	if !havePath || !haveValue {
		return TaggedValue{}, fmt.Errorf(`json form requires "type" and "value" fields`)
	}
	path, err := ParsePath(pathStr)
	if err != nil {
		return TaggedValue{}, err
	}
	d, err := decodedFromJSONIter(valueIter.Type(), &valueIter, path)
	if err != nil {
		return TaggedValue{}, err
	}
	return Reencode(d)
}

func decodedFromJSONIter(typ simdjson.Type, it *simdjson.Iter, path []Tag) (Decoded, error) {
	d := Decoded{Path: path}
	switch path[0] {
	case TagBool:
		v, err := it.Bool()
		if err != nil {
			return Decoded{}, err
		}
		d.Bool = v
	case TagI32:
		v, err := it.Int()
		if err != nil {
			return Decoded{}, err
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return Decoded{}, fmt.Errorf("%d out of i32 range", v)
		}
		d.I32 = int32(v)
	case TagI64:
		v, err := it.Int()
		if err != nil {
			return Decoded{}, err
		}
		d.I64 = v
	case TagU8:
		v, err := it.Int()
		if err != nil {
			return Decoded{}, err
		}
		if v < 0 || v > math.MaxUint8 {
			return Decoded{}, fmt.Errorf("%d out of u8 range", v)
		}
		d.U8 = uint8(v)
	case TagU32:
		v, err := it.Int()
		if err != nil {
			return Decoded{}, err
		}
		if v < 0 || v > math.MaxUint32 {
			return Decoded{}, fmt.Errorf("%d out of u32 range", v)
		}
		d.U32 = uint32(v)
	case TagU64:
		switch typ {
		case simdjson.TypeUint:
			v, err := it.Uint()
			if err != nil {
				return Decoded{}, err
			}
			d.U64 = v
		case simdjson.TypeInt:
			v, err := it.Int()
			if err != nil {
				return Decoded{}, err
			}
			if v < 0 {
				return Decoded{}, fmt.Errorf("%d out of u64 range", v)
			}
			d.U64 = uint64(v)
		default:
			return Decoded{}, fmt.Errorf("u64 expects a number, got %v", typ)
		}
	case TagU128, TagU256, TagU512:
		s, err := it.String()
		if err != nil {
			return Decoded{}, fmt.Errorf("%s expects a decimal string: %w", path[0], err)
		}
		n, err := parseBigForTag(path[0], s)
		if err != nil {
			return Decoded{}, err
		}
		d.Big = n
	case TagUnit:
		if typ != simdjson.TypeNull {
			return Decoded{}, fmt.Errorf("unit expects null, got %v", typ)
		}
	case TagString:
		s, err := it.String()
		if err != nil {
			return Decoded{}, err
		}
		d.Str = s
	case TagKey:
		s, err := it.String()
		if err != nil {
			return Decoded{}, err
		}
		k, err := parseKeyString(s)
		if err != nil {
			return Decoded{}, err
		}
		d.Key = k
	case TagURef:
		s, err := it.String()
		if err != nil {
			return Decoded{}, err
		}
		u, err := parseURefString(s)
		if err != nil {
			return Decoded{}, err
		}
		d.Ref = u
	case TagOption:
		if typ == simdjson.TypeNull {
			return d, nil
		}
		inner, err := singleFieldFromJSONIter(it, "some", path[1:])
		if err != nil {
			return Decoded{}, err
		}
		d.Present = true
		d.Elems = []Decoded{inner}
	case TagList:
		elems, err := elemsFromJSONIter(it, path[1:])
		if err != nil {
			return Decoded{}, err
		}
		d.Elems = elems
	case TagFixedList:
		if path[1] == TagU8 {
			s, err := it.String()
			if err != nil {
				return Decoded{}, err
			}
			raw, err := parseB64(s)
			if err != nil {
				return Decoded{}, err
			}
			d.Bytes = raw
			return d, nil
		}
		elems, err := elemsFromJSONIter(it, path[1:])
		if err != nil {
			return Decoded{}, err
		}
		d.Elems = elems
	case TagResult:
		okLen, err := pathLen(path[1:])
		if err != nil {
			return Decoded{}, err
		}
		peek := *it
		obj, err := peek.Object(nil)
		if err != nil {
			return Decoded{}, fmt.Errorf(`result expects {"ok": ...} or {"err": ...}`)
		}
		var field string
		err = obj.ForEach(func(key []byte, _ simdjson.Iter) {
			if field == "" {
				field = string(key)
			}
		}, nil)
		if err != nil {
			return Decoded{}, err
		}
		branch := path[1+okLen:]
		switch field {
		case "ok":
			d.Ok = true
			branch = path[1 : 1+okLen]
		case "err":
		default:
			return Decoded{}, fmt.Errorf(`result expects {"ok": ...} or {"err": ...}`)
		}
		inner, err := singleFieldFromJSONIter(it, field, branch)
		if err != nil {
			return Decoded{}, err
		}
		d.Elems = []Decoded{inner}
	case TagMap:
		entries, err := entriesFromJSONIter(it, path[1:])
		if err != nil {
			return Decoded{}, err
		}
		d.Entries = entries
	case TagTuple1, TagTuple2, TagTuple3:
		elems, err := tupleElemsFromJSONIter(it, path[0].ParamCount(), path[1:])
		if err != nil {
			return Decoded{}, err
		}
		d.Elems = elems
	case TagAny:
		s, err := it.String()
		if err != nil {
			return Decoded{}, err
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

// singleFieldFromJSONIter decodes a {"<name>": <value>} wrapper object.
func singleFieldFromJSONIter(it *simdjson.Iter, name string, path []Tag) (Decoded, error) {
	obj, err := it.Object(nil)
	if err != nil {
		return Decoded{}, err
	}
	var inner Decoded
	var found bool
	var innerErr error
	err = obj.ForEach(func(key []byte, elem simdjson.Iter) {
		if innerErr != nil {
			return
		}
		if string(key) != name {
			innerErr = fmt.Errorf("unexpected field %q, want %q", key, name)
			return
		}
		inner, innerErr = decodedFromJSONIter(elem.Type(), &elem, path)
		found = true
	}, nil)
	if err != nil {
		return Decoded{}, err
	}
	if innerErr != nil {
		return Decoded{}, innerErr
	}
	if !found {
		return Decoded{}, fmt.Errorf("missing field %q", name)
	}
	return inner, nil
}

func elemsFromJSONIter(it *simdjson.Iter, elemPath []Tag) ([]Decoded, error) {
	arr, err := it.Array(nil)
	if err != nil {
		return nil, err
	}
	var elems []Decoded
	iter := arr.Iter()
	for {
		t := iter.Advance()
		if t == simdjson.TypeNone {
			break
		}
		elem := iter
		e, err := decodedFromJSONIter(t, &elem, elemPath)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", len(elems), err)
		}
		elems = append(elems, e)
	}
	return elems, nil
}

func tupleElemsFromJSONIter(it *simdjson.Iter, arity int, rest []Tag) ([]Decoded, error) {
	arr, err := it.Array(nil)
	if err != nil {
		return nil, err
	}
	elems := make([]Decoded, 0, arity)
	iter := arr.Iter()
	for i := 0; i < arity; i++ {
		t := iter.Advance()
		if t == simdjson.TypeNone {
			return nil, fmt.Errorf("tuple expects %d elements, got %d", arity, i)
		}
		n, err := pathLen(rest)
		if err != nil {
			return nil, err
		}
		elem := iter
		e, err := decodedFromJSONIter(t, &elem, rest[:n])
		if err != nil {
			return nil, fmt.Errorf("tuple element %d: %w", i, err)
		}
		elems = append(elems, e)
		rest = rest[n:]
	}
	if iter.Advance() != simdjson.TypeNone {
		return nil, fmt.Errorf("tuple has more than %d elements", arity)
	}
	return elems, nil
}

func entriesFromJSONIter(it *simdjson.Iter, rest []Tag) ([]MapEntry, error) {
	keyLen, err := pathLen(rest)
	if err != nil {
		return nil, err
	}
	keyPath := rest[:keyLen]
	valPath := rest[keyLen:]
	arr, err := it.Array(nil)
	if err != nil {
		return nil, err
	}
	var entries []MapEntry
	iter := arr.Iter()
	for {
		t := iter.Advance()
		if t == simdjson.TypeNone {
			break
		}
		if t != simdjson.TypeObject {
			return nil, fmt.Errorf("map entry %d: expected object", len(entries))
		}
		elem := iter
		obj, err := elem.Object(nil)
		if err != nil {
			return nil, err
		}
		var entry MapEntry
		var haveKey, haveVal bool
		var entryErr error
		err = obj.ForEach(func(key []byte, field simdjson.Iter) {
			if entryErr != nil {
				return
			}
			switch string(key) {
			case "key":
				entry.Key, entryErr = decodedFromJSONIter(field.Type(), &field, keyPath)
				haveKey = true
			case "value":
				entry.Value, entryErr = decodedFromJSONIter(field.Type(), &field, valPath)
				haveVal = true
			default:
				entryErr = fmt.Errorf("unknown map entry field %q", key)
			}
		}, nil)
		if err != nil {
			return nil, err
		}
		if entryErr != nil {
			return nil, fmt.Errorf("map entry %d: %w", len(entries), entryErr)
		}
		if !haveKey || !haveVal {
			return nil, fmt.Errorf(`map entry %d: needs "key" and "value"`, len(entries))
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseBigForTag(t Tag, s string) (*big.Int, error) {
	switch t {
	case TagU128:
		v, err := U128FromDecimal(s)
		if err != nil {
			return nil, err
		}
		return v.Int(), nil
	case TagU256:
		v, err := U256FromDecimal(s)
		if err != nil {
			return nil, err
		}
		return v.Int(), nil
	default:
		v, err := U512FromDecimal(s)
		if err != nil {
			return nil, err
		}
		return v.Int(), nil
	}
}

func parseB64(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "b64:") {
		return nil, fmt.Errorf(`byte strings use the "b64:" prefix`)
	}
	return base64.StdEncoding.DecodeString(s[4:])
}

func parseAddr(s string) ([AddrLen]byte, error) {
	var addr [AddrLen]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return addr, fmt.Errorf("invalid address hex: %w", err)
	}
	if len(raw) != AddrLen {
		return addr, fmt.Errorf("address is %d bytes, want %d", len(raw), AddrLen)
	}
	copy(addr[:], raw)
	return addr, nil
}

func parseKeyString(s string) (Key, error) {
	if strings.HasPrefix(s, "uref:") {
		u, err := parseURefString(s)
		if err != nil {
			return Key{}, err
		}
		return URefKey(u), nil
	}
	kind, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Key{}, fmt.Errorf("key string %q has no kind prefix", s)
	}
	addr, err := parseAddr(rest)
	if err != nil {
		return Key{}, err
	}
	switch kind {
	case "account":
		return AccountKey(addr), nil
	case "hash":
		return HashKey(addr), nil
	case "local":
		return LocalKey(addr), nil
	default:
		return Key{}, fmt.Errorf("unknown key kind %q", kind)
	}
}

func parseURefString(s string) (URef, error) {
	rest, ok := strings.CutPrefix(s, "uref:")
	if !ok {
		return URef{}, fmt.Errorf(`uref string %q missing "uref:" prefix`, s)
	}
	hexPart, rightsPart, hasRights := strings.Cut(rest, ":")
	addr, err := parseAddr(hexPart)
	if err != nil {
		return URef{}, err
	}
	if !hasRights {
		return URef{Addr: addr}, nil
	}
	rights, err := accessRightsFromName(rightsPart)
	if err != nil {
		return URef{}, err
	}
	return NewURef(addr, rights), nil
}
