package tracemap

import (
	"math"

	"github.com/gopherjs/tracemap/internal/uniq"
)

// Flatten turns a sectioned source map into a single TraceMap by splicing
// every leaf map at its accumulated offset. Plain (non-sectioned) input is
// wrapped directly. Sources and names are deduplicated in section
// traversal order; sections truncate their predecessor, so a segment that
// would land at or past the next sibling's offset is discarded.
func Flatten(input any, mapURL string) (*TraceMap, error) {
	leaf, sectioned, err := parseInput(input, mapURL)
	if err != nil {
		return nil, err
	}
	if leaf != nil {
		return leaf, nil
	}

	f := &flattener{
		mapURL:  mapURL,
		sources: uniq.New(),
		names:   uniq.New(),
	}
	if err := f.recurse(sectioned, 0, 0, math.MaxInt, math.MaxInt); err != nil {
		return nil, err
	}

	joined := &DecodedSourceMap{
		Version:        3,
		File:           sectioned.File,
		Sources:        f.sources.Array(),
		SourcesContent: f.contents,
		Names:          f.names.Array(),
		Mappings:       f.mappings,
	}
	// Section order yields sorted rows, no need to re-check.
	return PresortedDecoded(joined, mapURL), nil
}

type flattener struct {
	mapURL   string
	mappings [][]Segment
	sources  *uniq.Set
	contents []*string
	names    *uniq.Set
}

func (f *flattener) recurse(input *SectionedSourceMap, lineOffset, columnOffset, stopLine, stopColumn int) error {
	for i, section := range input.Sections {
		sl, sc := stopLine, stopColumn
		if i+1 < len(input.Sections) {
			next := input.Sections[i+1].Offset
			if nl := lineOffset + next.Line; nl < sl {
				sl = nl
				sc = columnOffset + next.Column
			} else if nl == sl {
				if nc := columnOffset + next.Column; nc < sc {
					sc = nc
				}
			}
		}
		err := f.addSection(section.Map, lineOffset+section.Offset.Line, columnOffset+section.Offset.Column, sl, sc)
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *flattener) addSection(input any, lineOffset, columnOffset, stopLine, stopColumn int) error {
	leaf, sectioned, err := parseInput(input, f.mapURL)
	if err != nil {
		return err
	}
	if sectioned != nil {
		return f.recurse(sectioned, lineOffset, columnOffset, stopLine, stopColumn)
	}

	decoded, err := leaf.DecodedMappings()
	if err != nil {
		return err
	}

	// Rewrite the leaf's source and name indices into the accumulated
	// tables. The first occurrence of a source wins its content slot.
	resolved := leaf.ResolvedSources()
	sourceIndexes := make([]int32, len(resolved))
	for i, source := range resolved {
		index, added := f.sources.Put(source)
		sourceIndexes[i] = int32(index)
		if added {
			var content *string
			if i < len(leaf.SourcesContent) {
				content = leaf.SourcesContent[i]
			}
			f.contents = append(f.contents, content)
		}
	}
	nameIndexes := make([]int32, len(leaf.Names))
	for i, name := range leaf.Names {
		index, _ := f.names.Put(name)
		nameIndexes[i] = int32(index)
	}

	for i, line := range decoded {
		lineI := lineOffset + i
		if lineI > stopLine {
			return nil
		}
		out := f.line(lineI)
		// Only the first row of a section is shifted by the column
		// offset; subsequent rows start at their own column 0.
		cOffset := 0
		if i == 0 {
			cOffset = columnOffset
		}
		for _, seg := range line {
			column := cOffset + int(seg[GenColumn])
			if lineI == stopLine && column >= stopColumn {
				return nil
			}
			switch len(seg) {
			case 1:
				*out = append(*out, Segment{int32(column)})
			case 4:
				*out = append(*out, Segment{int32(column), sourceIndexes[seg[SourcesIndex]], seg[SourceLine], seg[SourceColumn]})
			default:
				*out = append(*out, Segment{int32(column), sourceIndexes[seg[SourcesIndex]], seg[SourceLine], seg[SourceColumn], nameIndexes[seg[NamesIndex]]})
			}
		}
	}
	return nil
}

func (f *flattener) line(i int) *[]Segment {
	for i >= len(f.mappings) {
		f.mappings = append(f.mappings, []Segment{})
	}
	return &f.mappings[i]
}
