package vlq_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/neelance/sourcemap"

	"github.com/gopherjs/tracemap/internal/vlq"
)

// The codec must agree with the established consumer implementation on
// what an encoded mappings string means. neelance/sourcemap reports
// 1-based lines in both axes, so the comparison shifts ours up by one.
func TestDecodeAgainstReferenceConsumer(t *testing.T) {
	decoded := [][]vlq.Segment{
		{{0, 0, 0, 0}, {9, 0, 0, 9, 0}, {12, 0, 0, 0}, {13, 0, 0, 13, 1}},
		{},
		{{4, 0, 1, 2}, {10, 0, 1, 8, 2}},
	}
	encoded := vlq.Encode(decoded)

	ref, err := sourcemap.ReadFrom(strings.NewReader(`{
		"version": 3,
		"sources": ["input.js"],
		"names": ["foo", "bar", "Error"],
		"mappings": "` + encoded + `"
	}`))
	if err != nil {
		t.Fatalf("Got: parsing reference map returned error: %s. Want: no error.", err)
	}

	names := []string{"foo", "bar", "Error"}
	var want []sourcemap.Mapping
	for line, segments := range decoded {
		for _, seg := range segments {
			m := sourcemap.Mapping{
				GeneratedLine:   line + 1,
				GeneratedColumn: int(seg[vlq.GenColumn]),
			}
			if len(seg) > 1 {
				m.OriginalFile = "input.js"
				// The reference decoder never shifts its
				// running line counter to 0-based.
				m.OriginalLine = int(seg[vlq.SourceLine]) + 1
				m.OriginalColumn = int(seg[vlq.SourceColumn])
			}
			if len(seg) == 5 {
				m.OriginalName = names[seg[vlq.NamesIndex]]
			}
			want = append(want, m)
		}
	}

	var got []sourcemap.Mapping
	for _, m := range ref.DecodedMappings() {
		got = append(got, *m)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reference consumer decoded diff (-want,+got):\n%s", diff)
	}
}
