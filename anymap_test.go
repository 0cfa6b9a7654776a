package tracemap

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gopherjs/tracemap/internal/testingx"
)

func leafMap(source, name string, mappings [][]Segment) *DecodedSourceMap {
	return &DecodedSourceMap{
		Version:  3,
		Sources:  []string{source},
		Names:    []string{name},
		Mappings: mappings,
	}
}

func TestFlattenNestedSections(t *testing.T) {
	// Two leaves inside a nested sectioned map, offset (1,1)+(0,1) and
	// (1,1)+(0,2), each contributing a single mapped segment.
	inner := &SectionedSourceMap{
		Version: 3,
		Sections: []Section{
			{Offset: SectionOffset{Line: 0, Column: 1}, Map: leafMap("a.js", "a", [][]Segment{{{0, 0, 0, 0, 0}}})},
			{Offset: SectionOffset{Line: 0, Column: 2}, Map: leafMap("b.js", "b", [][]Segment{{{0, 0, 0, 0, 0}}})},
		},
	}
	outer := &SectionedSourceMap{
		Version: 3,
		File:    "bundle.js",
		Sections: []Section{
			{Offset: SectionOffset{Line: 1, Column: 1}, Map: inner},
		},
	}

	m := testingx.Must[*TraceMap](t)(Flatten(outer, ""))

	decoded := testingx.Must[[][]Segment](t)(m.DecodedMappings())
	want := [][]Segment{
		{},
		{{2, 0, 0, 0, 0}, {3, 1, 0, 0, 1}},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("flattened mappings diff (-want,+got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.js", "b.js"}, m.Sources); diff != "" {
		t.Errorf("flattened sources diff (-want,+got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, m.Names); diff != "" {
		t.Errorf("flattened names diff (-want,+got):\n%s", diff)
	}
	if m.File != "bundle.js" {
		t.Errorf("Got: File = %q. Want: %q.", m.File, "bundle.js")
	}
}

// A section may not spill into the territory of the next one: segments at
// or past the next sibling's offset are discarded.
func TestFlattenTruncatesAtNextSection(t *testing.T) {
	sectioned := &SectionedSourceMap{
		Version: 3,
		Sections: []Section{
			{
				Offset: SectionOffset{Line: 0, Column: 0},
				Map: leafMap("a.js", "a", [][]Segment{
					{{0, 0, 0, 0}, {5, 0, 0, 5}},   // column 5 is at the next offset
					{{0, 0, 1, 0}},                 // entire row past the next offset
				}),
			},
			{
				Offset: SectionOffset{Line: 0, Column: 5},
				Map:    leafMap("b.js", "b", [][]Segment{{{0, 0, 0, 0}}}),
			},
		},
	}

	m := testingx.Must[*TraceMap](t)(Flatten(sectioned, ""))
	decoded := testingx.Must[[][]Segment](t)(m.DecodedMappings())
	want := [][]Segment{
		{{0, 0, 0, 0}, {5, 1, 0, 0}},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("truncated mappings diff (-want,+got):\n%s", diff)
	}
}

// The same source appearing in several sections collapses into one
// sources entry, and its first content wins.
func TestFlattenDeduplicatesSources(t *testing.T) {
	content := "shared text"
	first := leafMap("shared.js", "x", [][]Segment{{{0, 0, 0, 0}}})
	first.SourcesContent = []*string{&content}
	second := leafMap("shared.js", "x", [][]Segment{{{0, 0, 1, 0}}})

	sectioned := &SectionedSourceMap{
		Version: 3,
		Sections: []Section{
			{Offset: SectionOffset{Line: 0, Column: 0}, Map: first},
			{Offset: SectionOffset{Line: 1, Column: 0}, Map: second},
		},
	}

	m := testingx.Must[*TraceMap](t)(Flatten(sectioned, ""))
	if diff := cmp.Diff([]string{"shared.js"}, m.Sources); diff != "" {
		t.Errorf("sources diff (-want,+got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x"}, m.Names); diff != "" {
		t.Errorf("names diff (-want,+got):\n%s", diff)
	}
	if got := m.SourceContentFor("shared.js"); got == nil || *got != content {
		t.Errorf("Got: SourceContentFor(shared.js) = %v. Want: the first section's content.", got)
	}

	decoded := testingx.Must[[][]Segment](t)(m.DecodedMappings())
	want := [][]Segment{
		{{0, 0, 0, 0}},
		{{0, 0, 1, 0}},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("mappings diff (-want,+got):\n%s", diff)
	}
}

// Sectioned JSON goes through the same flattening on New.
func TestNewSectionedJSON(t *testing.T) {
	m := testingx.Must[*TraceMap](t)(New([]byte(`{
		"version": 3,
		"sections": [
			{"offset": {"line": 0, "column": 0}, "map": {
				"version": 3, "sources": ["x.js"], "names": [], "mappings": "AAAA"
			}},
			{"offset": {"line": 1, "column": 4}, "map": {
				"version": 3, "sources": ["y.js"], "names": [], "mappings": "AAAA"
			}}
		]
	}`), ""))

	decoded := testingx.Must[[][]Segment](t)(m.DecodedMappings())
	want := [][]Segment{
		{{0, 0, 0, 0}},
		{{4, 1, 0, 0}},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("mappings diff (-want,+got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x.js", "y.js"}, m.Sources); diff != "" {
		t.Errorf("sources diff (-want,+got):\n%s", diff)
	}
}
