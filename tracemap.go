package tracemap

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/gopherjs/tracemap/internal/urlx"
	"github.com/gopherjs/tracemap/internal/vlq"
)

// SourceMapV3 is the standard source map JSON envelope with the mappings
// field in its encoded VLQ form.
type SourceMapV3 struct {
	Version        int       `json:"version"`
	File           string    `json:"file,omitempty"`
	SourceRoot     string    `json:"sourceRoot,omitempty"`
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent,omitempty"`
	Names          []string  `json:"names"`
	Mappings       string    `json:"mappings"`
}

// DecodedSourceMap is the same envelope with the mappings already decoded
// into segment rows.
type DecodedSourceMap struct {
	Version        int
	File           string
	SourceRoot     string
	Sources        []string
	SourcesContent []*string
	Names          []string
	Mappings       [][]Segment
}

// SectionOffset is the generated position at which a section's map is
// spliced into the composite output.
type SectionOffset struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Section is one entry of a sectioned (index) source map. Map holds any
// supported source map input, including another sectioned map.
type Section struct {
	Offset SectionOffset
	Map    any
}

// SectionedSourceMap is a version 3 index map: no mappings of its own,
// just offset child maps.
type SectionedSourceMap struct {
	Version  int
	File     string
	Sections []Section
}

// TraceMap answers position queries against a single source map. It keeps
// the mappings in whichever form it was constructed with and converts
// lazily on first use. Instances are immutable after construction, but the
// lazy caches make concurrent use of one instance unsafe.
type TraceMap struct {
	Version        int
	File           string
	SourceRoot     string
	Sources        []string
	SourcesContent []*string
	Names          []string

	resolvedSources []string

	encoded    string
	hasEncoded bool
	decoded    [][]Segment
	decodedErr error

	decodedMemo   memoState
	bySources     [][][]Segment
	bySourceMemos []memoState
}

// New parses raw source map JSON. Sectioned maps (a "sections" key
// instead of "mappings") are flattened into a single map. mapURL is the
// URL the map itself was fetched from and participates in source
// resolution; it may be empty.
func New(data []byte, mapURL string) (*TraceMap, error) {
	if gjson.GetBytes(data, "sections").Exists() {
		return Flatten(json.RawMessage(data), mapURL)
	}
	var m SourceMapV3
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing source map JSON: %w", err)
	}
	if m.Version != 3 {
		return nil, fmt.Errorf("unsupported source map version %d", m.Version)
	}
	return NewEncoded(&m, mapURL), nil
}

// Parse accepts any supported source map input: raw JSON ([]byte, string
// or json.RawMessage), *SourceMapV3, *DecodedSourceMap,
// *SectionedSourceMap or an existing *TraceMap.
func Parse(input any, mapURL string) (*TraceMap, error) {
	leaf, sectioned, err := parseInput(input, mapURL)
	if err != nil {
		return nil, err
	}
	if sectioned != nil {
		return Flatten(sectioned, mapURL)
	}
	return leaf, nil
}

// NewEncoded wraps an already-parsed standard envelope. The mappings
// string is decoded on first query.
func NewEncoded(m *SourceMapV3, mapURL string) *TraceMap {
	t := &TraceMap{
		Version:        3,
		File:           m.File,
		SourceRoot:     m.SourceRoot,
		Sources:        m.Sources,
		SourcesContent: m.SourcesContent,
		Names:          m.Names,
		encoded:        m.Mappings,
		hasEncoded:     true,
		decodedMemo:    newMemo(),
	}
	t.resolveSources(mapURL)
	return t
}

// NewDecoded wraps a programmatically built decoded envelope. Rows are
// checked for sortedness; out-of-order rows are copied and stably sorted,
// leaving the caller's slices untouched.
func NewDecoded(m *DecodedSourceMap, mapURL string) *TraceMap {
	return newDecoded(m, mapURL, false)
}

// PresortedDecoded is NewDecoded for input known to be sorted; the sort
// check is skipped and the mappings are used as-is.
func PresortedDecoded(m *DecodedSourceMap, mapURL string) *TraceMap {
	return newDecoded(m, mapURL, true)
}

func newDecoded(m *DecodedSourceMap, mapURL string, presorted bool) *TraceMap {
	mappings := m.Mappings
	if mappings == nil {
		mappings = [][]Segment{}
	}
	if !presorted {
		mappings = maybeSort(mappings, false)
	}
	t := &TraceMap{
		Version:        3,
		File:           m.File,
		SourceRoot:     m.SourceRoot,
		Sources:        m.Sources,
		SourcesContent: m.SourcesContent,
		Names:          m.Names,
		decoded:        mappings,
		decodedMemo:    newMemo(),
	}
	t.resolveSources(mapURL)
	return t
}

func (m *TraceMap) resolveSources(mapURL string) {
	base := resolveAgainst(m.SourceRoot, urlx.StripFilename(mapURL))
	m.resolvedSources = make([]string, len(m.Sources))
	for i, source := range m.Sources {
		m.resolvedSources[i] = resolveAgainst(source, base)
	}
}

// resolveAgainst treats base as a directory: resolution strips the final
// component of a base otherwise.
func resolveAgainst(input, base string) string {
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return urlx.Resolve(input, base)
}

// ResolvedSources returns each source URL resolved against the map's
// sourceRoot and the map URL. The slice is shared; callers must not
// modify it.
func (m *TraceMap) ResolvedSources() []string {
	return m.resolvedSources
}

// DecodedMappings returns the mappings as segment rows, decoding the VLQ
// string on first call. The result is shared with the TraceMap and must
// be treated as read-only.
func (m *TraceMap) DecodedMappings() ([][]Segment, error) {
	if m.decoded == nil && m.decodedErr == nil {
		m.decoded, m.decodedErr = vlq.Decode(m.encoded)
	}
	return m.decoded, m.decodedErr
}

// EncodedMappings returns the mappings as a VLQ string, encoding the
// decoded rows on first call if the map was built from decoded input.
func (m *TraceMap) EncodedMappings() string {
	if !m.hasEncoded {
		m.encoded = vlq.Encode(m.decoded)
		m.hasEncoded = true
	}
	return m.encoded
}

// SourceContentFor returns the embedded content of a source, matched
// first against the raw sources list and then against the resolved one,
// or nil if the map carries no content for it.
func (m *TraceMap) SourceContentFor(source string) *string {
	if m.SourcesContent == nil {
		return nil
	}
	index := indexOfString(m.Sources, source)
	if index == -1 {
		index = indexOfString(m.resolvedSources, source)
	}
	if index == -1 || index >= len(m.SourcesContent) {
		return nil
	}
	return m.SourcesContent[index]
}

// DecodedMap returns a fresh envelope with decoded mappings. The rows are
// shared with the TraceMap.
func (m *TraceMap) DecodedMap() (*DecodedSourceMap, error) {
	decoded, err := m.DecodedMappings()
	if err != nil {
		return nil, err
	}
	return &DecodedSourceMap{
		Version:        3,
		File:           m.File,
		SourceRoot:     m.SourceRoot,
		Sources:        m.Sources,
		SourcesContent: m.SourcesContent,
		Names:          m.Names,
		Mappings:       decoded,
	}, nil
}

// EncodedMap returns a fresh envelope with VLQ-encoded mappings, suitable
// for JSON serialization.
func (m *TraceMap) EncodedMap() *SourceMapV3 {
	return &SourceMapV3{
		Version:        3,
		File:           m.File,
		SourceRoot:     m.SourceRoot,
		Sources:        m.Sources,
		SourcesContent: m.SourcesContent,
		Names:          m.Names,
		Mappings:       m.EncodedMappings(),
	}
}

func indexOfString(haystack []string, needle string) int {
	for i, s := range haystack {
		if s == needle {
			return i
		}
	}
	return -1
}

func parseInput(input any, mapURL string) (*TraceMap, *SectionedSourceMap, error) {
	switch v := input.(type) {
	case *TraceMap:
		return v, nil, nil
	case *SourceMapV3:
		return NewEncoded(v, mapURL), nil, nil
	case *DecodedSourceMap:
		return NewDecoded(v, mapURL), nil, nil
	case *SectionedSourceMap:
		return nil, v, nil
	case json.RawMessage:
		return parseInputJSON(v, mapURL)
	case []byte:
		return parseInputJSON(v, mapURL)
	case string:
		return parseInputJSON([]byte(v), mapURL)
	case nil:
		return nil, nil, fmt.Errorf("nil source map input")
	default:
		return nil, nil, fmt.Errorf("unsupported source map input type %T", input)
	}
}

func parseInputJSON(data []byte, mapURL string) (*TraceMap, *SectionedSourceMap, error) {
	if !gjson.GetBytes(data, "sections").Exists() {
		t, err := New(data, mapURL)
		return t, nil, err
	}
	var raw struct {
		Version  int    `json:"version"`
		File     string `json:"file"`
		Sections []struct {
			Offset SectionOffset   `json:"offset"`
			Map    json.RawMessage `json:"map"`
		} `json:"sections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parsing sectioned source map JSON: %w", err)
	}
	if raw.Version != 3 {
		return nil, nil, fmt.Errorf("unsupported source map version %d", raw.Version)
	}
	s := &SectionedSourceMap{Version: raw.Version, File: raw.File}
	for _, sec := range raw.Sections {
		s.Sections = append(s.Sections, Section{Offset: sec.Offset, Map: sec.Map})
	}
	return nil, s, nil
}
