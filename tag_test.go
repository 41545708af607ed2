package tagv

import (
	"slices"
	"strings"
	"testing"
)

// Tag byte values are an external wire contract; this table is the
// contract, not a mirror of the constants.
func TestTagValuesArePinned(t *testing.T) {
	pinned := []struct {
		tag  Tag
		want uint8
		name string
	}{
		{TagBool, 0, "bool"},
		{TagI32, 1, "i32"},
		{TagI64, 2, "i64"},
		{TagU8, 3, "u8"},
		{TagU32, 4, "u32"},
		{TagU64, 5, "u64"},
		{TagU128, 6, "u128"},
		{TagU256, 7, "u256"},
		{TagU512, 8, "u512"},
		{TagUnit, 9, "unit"},
		{TagString, 10, "string"},
		{TagKey, 11, "key"},
		{TagURef, 12, "uref"},
		{TagOption, 13, "option"},
		{TagList, 14, "list"},
		{TagFixedList, 15, "fixed_list"},
		{TagResult, 16, "result"},
		{TagMap, 17, "map"},
		{TagTuple1, 18, "tuple1"},
		{TagTuple2, 19, "tuple2"},
		{TagTuple3, 20, "tuple3"},
		{TagAny, 21, "any"},
	}
	if len(pinned) != 22 {
		t.Fatalf("registry should hold 22 tags, table has %d", len(pinned))
	}
	for _, tc := range pinned {
		if uint8(tc.tag) != tc.want {
			t.Errorf("%s = %d, want %d", tc.name, uint8(tc.tag), tc.want)
		}
		if tc.tag.String() != tc.name {
			t.Errorf("tag %d name = %q, want %q", tc.want, tc.tag.String(), tc.name)
		}
		got, err := TagFromName(tc.name)
		if err != nil {
			t.Errorf("TagFromName(%q): %v", tc.name, err)
		} else if got != tc.tag {
			t.Errorf("TagFromName(%q) = %d, want %d", tc.name, uint8(got), tc.want)
		}
	}
	if Tag(22).Valid() {
		t.Error("tag 22 should not be valid")
	}
	if _, err := TagFromName("float"); err == nil {
		t.Error("TagFromName should reject unknown names")
	}
}

func TestParamCount(t *testing.T) {
	cases := []struct {
		tag  Tag
		want int
	}{
		{TagBool, 0}, {TagU512, 0}, {TagString, 0}, {TagAny, 0},
		{TagOption, 1}, {TagList, 1}, {TagFixedList, 1}, {TagTuple1, 1},
		{TagResult, 2}, {TagMap, 2}, {TagTuple2, 2},
		{TagTuple3, 3},
	}
	for _, tc := range cases {
		if got := tc.tag.ParamCount(); got != tc.want {
			t.Errorf("%s.ParamCount() = %d, want %d", tc.tag, got, tc.want)
		}
		if tc.tag.IsConstructor() != (tc.want > 0) {
			t.Errorf("%s.IsConstructor() inconsistent with arity", tc.tag)
		}
	}
}

func TestValidatePath(t *testing.T) {
	good := [][]Tag{
		{TagBool},
		{TagU512},
		{TagList, TagString},
		{TagOption, TagU512},
		{TagOption, TagList, TagString},
		{TagList, TagList, TagI32},
		{TagFixedList, TagU8},
		{TagResult, TagU64, TagString},
		{TagMap, TagString, TagKey},
		{TagTuple1, TagBool},
		{TagTuple2, TagI32, TagString},
		{TagTuple3, TagI32, TagOption, TagU8, TagString},
		{TagAny},
	}
	for _, path := range good {
		if err := ValidatePath(path); err != nil {
			t.Errorf("ValidatePath(%v): %v", path, err)
		}
	}

	bad := [][]Tag{
		nil,
		{},
		{TagOption},
		{TagList},
		{TagResult, TagU64},
		{TagMap, TagString},
		{TagTuple3, TagI32, TagI32},
		{TagBool, TagBool},
		{TagList, TagString, TagString},
		{Tag(22)},
		{TagList, Tag(99)},
	}
	for _, path := range bad {
		if err := ValidatePath(path); err == nil {
			t.Errorf("ValidatePath(%v) should fail", path)
		}
	}
}

func TestFormatAndParsePath(t *testing.T) {
	cases := []struct {
		path []Tag
		want string
	}{
		{[]Tag{TagI32}, "i32"},
		{[]Tag{TagList, TagString}, "list<string>"},
		{[]Tag{TagOption, TagU512}, "option<u512>"},
		{[]Tag{TagOption, TagList, TagString}, "option<list<string>>"},
		{[]Tag{TagMap, TagString, TagKey}, "map<string,key>"},
		{[]Tag{TagResult, TagU64, TagString}, "result<u64,string>"},
		{[]Tag{TagTuple3, TagI32, TagBool, TagString}, "tuple3<i32,bool,string>"},
		{[]Tag{TagFixedList, TagU8}, "fixed_list<u8>"},
	}
	for _, tc := range cases {
		if got := FormatPath(tc.path); got != tc.want {
			t.Errorf("FormatPath(%v) = %q, want %q", tc.path, got, tc.want)
		}
		parsed, err := ParsePath(tc.want)
		if err != nil {
			t.Errorf("ParsePath(%q): %v", tc.want, err)
			continue
		}
		if FormatPath(parsed) != tc.want {
			t.Errorf("ParsePath(%q) round trip = %q", tc.want, FormatPath(parsed))
		}
	}

	for _, s := range []string{
		"", "option", "option<", "option<u512", "list<string>>",
		"map<string>", "float", "list<string> x",
	} {
		if _, err := ParsePath(s); err == nil {
			t.Errorf("ParsePath(%q) should fail", s)
		}
	}
}

func TestStructurePath(t *testing.T) {
	flat := []Tag{TagMap, TagString, TagOption, TagList, TagKey}
	p, err := StructurePath(flat)
	if err != nil {
		t.Fatal(err)
	}
	if p.Tag != TagMap || len(p.Params) != 2 {
		t.Fatalf("structured root = %+v", p)
	}
	if p.Params[1].Tag != TagOption || p.Params[1].Params[0].Tag != TagList {
		t.Fatalf("structured value type = %+v", p.Params[1])
	}
	if got := p.Tags(); !slices.Equal(got, flat) {
		t.Errorf("Tags() = %v, want %v", got, flat)
	}
	if p.String() != "map<string,option<list<key>>>" {
		t.Errorf("String() = %q", p.String())
	}

	for _, bad := range [][]Tag{
		nil,
		{TagOption},
		{TagString, TagString},
		{TagResult, TagU64},
		{Tag(99)},
	} {
		if _, err := StructurePath(bad); err == nil {
			t.Errorf("StructurePath(%v) should fail", bad)
		}
	}
}

func TestParsePathNestingBound(t *testing.T) {
	deep := strings.Repeat("option<", 5000) + "bool" + strings.Repeat(">", 5000)
	if _, err := ParsePath(deep); err == nil {
		t.Fatal("deeply nested path notation should be rejected")
	}
}
