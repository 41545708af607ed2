package tagv

import (
	"fmt"
	"strings"
)

// Tag identifies a primitive type or a type constructor. Tag values are
// part of the wire contract and are never renumbered.
type Tag uint8

const (
	TagBool      Tag = 0
	TagI32       Tag = 1
	TagI64       Tag = 2
	TagU8        Tag = 3
	TagU32       Tag = 4
	TagU64       Tag = 5
	TagU128      Tag = 6
	TagU256      Tag = 7
	TagU512      Tag = 8
	TagUnit      Tag = 9
	TagString    Tag = 10
	TagKey       Tag = 11
	TagURef      Tag = 12
	TagOption    Tag = 13
	TagList      Tag = 14
	TagFixedList Tag = 15
	TagResult    Tag = 16
	TagMap       Tag = 17
	TagTuple1    Tag = 18
	TagTuple2    Tag = 19
	TagTuple3    Tag = 20
	TagAny       Tag = 21
)

var tagNames = [...]string{
	TagBool:      "bool",
	TagI32:       "i32",
	TagI64:       "i64",
	TagU8:        "u8",
	TagU32:       "u32",
	TagU64:       "u64",
	TagU128:      "u128",
	TagU256:      "u256",
	TagU512:      "u512",
	TagUnit:      "unit",
	TagString:    "string",
	TagKey:       "key",
	TagURef:      "uref",
	TagOption:    "option",
	TagList:      "list",
	TagFixedList: "fixed_list",
	TagResult:    "result",
	TagMap:       "map",
	TagTuple1:    "tuple1",
	TagTuple2:    "tuple2",
	TagTuple3:    "tuple3",
	TagAny:       "any",
}

// Valid reports whether t is a registered tag value.
func (t Tag) Valid() bool {
	return int(t) < len(tagNames)
}

// String returns the stable lowercase name of the tag.
func (t Tag) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
	return tagNames[t]
}

// ParamCount returns how many element types the tag expects after it in
// a type path. Primitives and Any take none.
func (t Tag) ParamCount() int {
	switch t {
	case TagOption, TagList, TagFixedList, TagTuple1:
		return 1
	case TagResult, TagMap, TagTuple2:
		return 2
	case TagTuple3:
		return 3
	default:
		return 0
	}
}

// IsConstructor reports whether t takes at least one element type.
func (t Tag) IsConstructor() bool {
	return t.ParamCount() > 0
}

// TagFromName returns the tag with the given name.
func TagFromName(name string) (Tag, error) {
	for i, n := range tagNames {
		if n == name {
			return Tag(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tag name %q", name)
}

// maxPathLen bounds how many tags a type path may carry. Real paths
// are a handful of tags; the bound keeps hostile wire input from
// driving the recursive validator arbitrarily deep.
const maxPathLen = 1024

// pathLen returns the number of tags consumed by the complete type
// starting at path[0], recursing through constructor parameters.
func pathLen(path []Tag) (int, error) {
	if len(path) == 0 {
		return 0, fmt.Errorf("empty type path")
	}
	if len(path) > maxPathLen {
		return 0, fmt.Errorf("type path of %d tags exceeds limit %d", len(path), maxPathLen)
	}
	t := path[0]
	if !t.Valid() {
		return 0, fmt.Errorf("invalid tag %d in type path", uint8(t))
	}
	n := 1
	for i := 0; i < t.ParamCount(); i++ {
		m, err := pathLen(path[n:])
		if err != nil {
			return 0, fmt.Errorf("%s element %d: %w", t, i, err)
		}
		n += m
	}
	return n, nil
}

// ValidatePath checks that path is a single complete, well-formed type:
// non-empty, every tag registered, and constructor arities satisfied
// with no tags left over.
func ValidatePath(path []Tag) error {
	_, err := StructurePath(path)
	return err
}

// TypePath is the structured form of a flat tag sequence: a tag and its
// parameter types, nested. The wire carries the flat form; the
// structured form makes constructor arity part of the shape rather
// than a convention over a byte slice.
type TypePath struct {
	Tag    Tag
	Params []TypePath
}

// StructurePath parses a flat tag sequence into its structured form.
// Incomplete constructors, leftover tags and paths beyond maxPathLen
// are errors.
func StructurePath(path []Tag) (TypePath, error) {
	if len(path) > maxPathLen {
		return TypePath{}, fmt.Errorf("type path of %d tags exceeds limit %d", len(path), maxPathLen)
	}
	p, rest, err := structureOne(path)
	if err != nil {
		return TypePath{}, err
	}
	if len(rest) != 0 {
		return TypePath{}, fmt.Errorf("type path has %d extra tags", len(rest))
	}
	return p, nil
}

func structureOne(path []Tag) (TypePath, []Tag, error) {
	if len(path) == 0 {
		return TypePath{}, nil, fmt.Errorf("empty type path")
	}
	t := path[0]
	if !t.Valid() {
		return TypePath{}, nil, fmt.Errorf("invalid tag %d in type path", uint8(t))
	}
	p := TypePath{Tag: t}
	rest := path[1:]
	for i := 0; i < t.ParamCount(); i++ {
		sub, r, err := structureOne(rest)
		if err != nil {
			return TypePath{}, nil, fmt.Errorf("%s element %d: %w", t, i, err)
		}
		p.Params = append(p.Params, sub)
		rest = r
	}
	return p, rest, nil
}

// Tags flattens the structured form back to wire order.
func (p TypePath) Tags() []Tag {
	return p.appendTags(nil)
}

func (p TypePath) appendTags(dst []Tag) []Tag {
	dst = append(dst, p.Tag)
	for _, sub := range p.Params {
		dst = sub.appendTags(dst)
	}
	return dst
}

func (p TypePath) String() string {
	return FormatPath(p.Tags())
}

// FormatPath renders a type path in angle-bracket notation,
// e.g. "list<string>" or "map<string,key>".
func FormatPath(path []Tag) string {
	var sb strings.Builder
	writePathString(&sb, path)
	return sb.String()
}

func writePathString(sb *strings.Builder, path []Tag) []Tag {
	if len(path) == 0 {
		return nil
	}
	t := path[0]
	sb.WriteString(t.String())
	rest := path[1:]
	if pc := t.ParamCount(); pc > 0 {
		sb.WriteByte('<')
		for i := 0; i < pc; i++ {
			if i > 0 {
				sb.WriteByte(',')
			}
			rest = writePathString(sb, rest)
		}
		sb.WriteByte('>')
	}
	return rest
}

// ParsePath parses the angle-bracket notation produced by FormatPath.
func ParsePath(s string) ([]Tag, error) {
	path, rest, err := parsePathPart(strings.TrimSpace(s), 0)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("trailing input %q after type", rest)
	}
	return path, nil
}

func parsePathPart(s string, depth int) ([]Tag, string, error) {
	if depth >= maxPathLen {
		return nil, "", fmt.Errorf("type nesting exceeds limit %d", maxPathLen)
	}
	end := len(s)
	for i := 0; i < len(s); i++ {
		if s[i] == '<' || s[i] == ',' || s[i] == '>' {
			end = i
			break
		}
	}
	name := strings.TrimSpace(s[:end])
	t, err := TagFromName(name)
	if err != nil {
		return nil, "", err
	}
	path := []Tag{t}
	rest := s[end:]
	pc := t.ParamCount()
	if pc == 0 {
		return path, rest, nil
	}
	if !strings.HasPrefix(rest, "<") {
		return nil, "", fmt.Errorf("%s requires %d element type(s)", t, pc)
	}
	rest = rest[1:]
	for i := 0; i < pc; i++ {
		if i > 0 {
			rest = strings.TrimSpace(rest)
			if !strings.HasPrefix(rest, ",") {
				return nil, "", fmt.Errorf("%s expects %d element types", t, pc)
			}
			rest = rest[1:]
		}
		var sub []Tag
		sub, rest, err = parsePathPart(strings.TrimSpace(rest), depth+1)
		if err != nil {
			return nil, "", err
		}
		path = append(path, sub...)
	}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, ">") {
		return nil, "", fmt.Errorf("unclosed element list for %s", t)
	}
	return path, rest[1:], nil
}
