package vlq

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fixture is a two-line map exercising 4- and 5-field segments, negative
// deltas and cross-line delta state.
var (
	fixtureEncoded = "AAAA,SAASA,GAAT,CAAaC,GAAb,EAAiC;AACjC,MAAM,EAAED,IAAME,IAAJ,GAAa"
	fixtureDecoded = [][]Segment{
		{{0, 0, 0, 0}, {9, 0, 0, 9, 0}, {12, 0, 0, 0}, {13, 0, 0, 13, 1}, {16, 0, 0, 0}, {18, 0, 0, 33}},
		{{0, 0, 1, 0}, {6, 0, 1, 6}, {8, 0, 1, 8, 0}, {12, 0, 1, 14, 2}, {16, 0, 1, 10}, {19, 0, 1, 23}},
	}
)

func TestDecode(t *testing.T) {
	tests := []struct {
		descr    string
		mappings string
		want     [][]Segment
	}{{
		descr:    "single segment",
		mappings: "AAAA",
		want:     [][]Segment{{{0, 0, 0, 0}}},
	}, {
		descr:    "empty input",
		mappings: "",
		want:     [][]Segment{{}},
	}, {
		descr:    "trailing semicolons make empty lines",
		mappings: ";;;",
		want:     [][]Segment{{}, {}, {}, {}},
	}, {
		descr:    "unmapped segment",
		mappings: "A",
		want:     [][]Segment{{{0}}},
	}, {
		descr:    "full fixture",
		mappings: fixtureEncoded,
		want:     fixtureDecoded,
	}, {
		descr:    "generated column resets per line, other state persists",
		mappings: "ACkBe;AAAA",
		want: [][]Segment{
			{{0, 1, 18, 15}},
			{{0, 1, 18, 15}},
		},
	}, {
		descr:    "unsorted line is sorted on decode",
		mappings: "CAAC,DAAD",
		want:     [][]Segment{{{0, 0, 0, 0}, {1, 0, 0, 1}}},
	}, {
		descr:    "sentinel minimum value",
		mappings: "B",
		want:     [][]Segment{{{-0x80000000}}},
	}}

	for _, test := range tests {
		t.Run(test.descr, func(t *testing.T) {
			got, err := Decode(test.mappings)
			if err != nil {
				t.Fatalf("Got: Decode(%q) returned error: %s. Want: no error.", test.mappings, err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Decode(%q) returned diff (-want,+got):\n%s", test.mappings, diff)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		descr    string
		mappings string
		reason   string
	}{{
		descr:    "invalid character",
		mappings: "AA!A",
		reason:   "invalid base64 character",
	}, {
		descr:    "dangling continuation bit",
		mappings: "g",
		reason:   "unexpected end of input",
	}, {
		descr:    "continuation bit before separator",
		mappings: "Ag;AAAA",
		reason:   "invalid base64 character",
	}, {
		descr:    "two-field segment",
		mappings: "AA",
		reason:   "expected 1, 4 or 5",
	}, {
		descr:    "three-field segment",
		mappings: "AAA,AAAA",
		reason:   "expected 1, 4 or 5",
	}, {
		descr:    "six-field segment",
		mappings: "AAAAAA",
		reason:   "more than 5 fields",
	}}

	for _, test := range tests {
		t.Run(test.descr, func(t *testing.T) {
			_, err := Decode(test.mappings)
			if err == nil {
				t.Fatalf("Got: Decode(%q) succeeded. Want: a malformed mappings error.", test.mappings)
			}
			var malformed *MalformedMappingsError
			if !errors.As(err, &malformed) {
				t.Fatalf("Got: error of type %T. Want: *MalformedMappingsError.", err)
			}
			if !strings.Contains(err.Error(), test.reason) {
				t.Errorf("Got error: %s. Want it to contain: %q.", err, test.reason)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		descr   string
		decoded [][]Segment
		want    string
	}{{
		descr:   "single segment",
		decoded: [][]Segment{{{0, 0, 0, 0}}},
		want:    "AAAA",
	}, {
		descr:   "empty lines",
		decoded: [][]Segment{{}, {}, {}, {}},
		want:    ";;;",
	}, {
		descr:   "full fixture",
		decoded: fixtureDecoded,
		want:    fixtureEncoded,
	}, {
		descr:   "sentinel minimum value",
		decoded: [][]Segment{{{-0x80000000}}},
		want:    "B",
	}, {
		descr:   "multi-character integers",
		decoded: [][]Segment{{{0, 0, 0, 1000}}},
		want:    "AAAw+B",
	}}

	for _, test := range tests {
		t.Run(test.descr, func(t *testing.T) {
			got := Encode(test.decoded)
			if got != test.want {
				t.Errorf("Got: Encode() = %q. Want: %q.", got, test.want)
			}
		})
	}
}

// Decoding an encoded map and encoding it again must reproduce the exact
// input for sorted maps.
func TestRoundTrip(t *testing.T) {
	for _, mappings := range []string{
		"AAAA",
		";;;",
		fixtureEncoded,
		"A,C,E;;IACA",
	} {
		decoded, err := Decode(mappings)
		if err != nil {
			t.Fatalf("Got: Decode(%q) returned error: %s. Want: no error.", mappings, err)
		}
		if got := Encode(decoded); got != mappings {
			t.Errorf("Got: Encode(Decode(%q)) = %q. Want: the input unchanged.", mappings, got)
		}
	}
}
