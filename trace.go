package tracemap

import "fmt"

// Needle is a generated position to look up: 1-based line, 0-based
// column. A zero Bias means GreatestLowerBound.
type Needle struct {
	Line   int
	Column int
	Bias   Bias
}

// SourceNeedle is an original position to look up in a specific source.
// Line is 1-based, Column 0-based.
type SourceNeedle struct {
	Source string
	Line   int
	Column int
	Bias   Bias
}

// OriginalPosition is the result of a generated→original query. Line is
// 1-based, Column 0-based. Name is empty when the mapping carries none.
type OriginalPosition struct {
	Source string
	Line   int
	Column int
	Name   string
}

// GeneratedPosition is the result of an original→generated query. Line is
// 1-based, Column 0-based.
type GeneratedPosition struct {
	Line   int
	Column int
}

// Mapping is one entry handed to the EachMapping callback. Generated and
// original lines are 1-based; OriginalLine is 0 and OriginalFile empty for
// unmapped segments.
type Mapping struct {
	GeneratedLine   int
	GeneratedColumn int
	OriginalFile    string
	OriginalLine    int
	OriginalColumn  int
	OriginalName    string
}

func checkCoordinates(line, column int) {
	if line < 1 {
		panic(fmt.Sprintf("invalid line %d: lines start at line 1", line))
	}
	if column < 0 {
		panic(fmt.Sprintf("invalid column %d: columns start at column 0", column))
	}
}

// TraceSegment returns the segment matching a 0-based generated position
// under the default GreatestLowerBound bias, or nil if the position
// precedes every mapping on its line or the line is out of range.
func (m *TraceMap) TraceSegment(line, column int) (Segment, error) {
	decoded, err := m.DecodedMappings()
	if err != nil {
		return nil, err
	}
	if line < 0 || line >= len(decoded) {
		return nil, nil
	}
	segments := decoded[line]
	index, _ := traceSegmentInternal(segments, &m.decodedMemo, line, int32(column), GreatestLowerBound)
	if index == -1 {
		return nil, nil
	}
	return segments[index], nil
}

// OriginalPositionFor maps a generated position back to the original
// source. A nil result means no mapping exists there: the line is out of
// range, the column precedes every mapping under the bias, or the matched
// segment is unmapped. Panics if needle.Line < 1 or needle.Column < 0.
func (m *TraceMap) OriginalPositionFor(needle Needle) (*OriginalPosition, error) {
	checkCoordinates(needle.Line, needle.Column)
	line := needle.Line - 1

	decoded, err := m.DecodedMappings()
	if err != nil {
		return nil, err
	}
	if line >= len(decoded) {
		return nil, nil
	}
	segments := decoded[line]
	index, _ := traceSegmentInternal(segments, &m.decodedMemo, line, int32(needle.Column), needle.Bias.orDefault())
	if index == -1 {
		return nil, nil
	}
	seg := segments[index]
	if len(seg) == 1 {
		return nil, nil
	}
	pos := &OriginalPosition{
		Source: m.resolvedSources[seg[SourcesIndex]],
		Line:   int(seg[SourceLine]) + 1,
		Column: int(seg[SourceColumn]),
	}
	if len(seg) == 5 {
		pos.Name = m.Names[seg[NamesIndex]]
	}
	return pos, nil
}

// GeneratedPositionFor maps an original position to the generated file. A
// nil result means the source is unknown to this map or no mapping exists
// at the position under the bias. Panics on invalid coordinates.
func (m *TraceMap) GeneratedPositionFor(needle SourceNeedle) (*GeneratedPosition, error) {
	segments, memo, err := m.reverseRow(needle)
	if err != nil || segments == nil {
		return nil, err
	}
	index, _ := traceSegmentInternal(segments, memo, needle.Line-1, int32(needle.Column), needle.Bias.orDefault())
	if index == -1 {
		return nil, nil
	}
	seg := segments[index]
	return &GeneratedPosition{Line: int(seg[revGeneratedLine]) + 1, Column: int(seg[revGeneratedColumn])}, nil
}

// AllGeneratedPositionsFor returns every generated position produced from
// the matched original column band, in insertion order. Panics on invalid
// coordinates.
func (m *TraceMap) AllGeneratedPositionsFor(needle SourceNeedle) ([]GeneratedPosition, error) {
	segments, memo, err := m.reverseRow(needle)
	if err != nil || segments == nil {
		return nil, err
	}
	return sliceGeneratedPositions(segments, memo, needle.Line-1, int32(needle.Column), needle.Bias.orDefault()), nil
}

// reverseRow locates the by-source row for a needle, building the reverse
// index on first use. A nil row (without error) means "no result".
func (m *TraceMap) reverseRow(needle SourceNeedle) ([]Segment, *memoState, error) {
	checkCoordinates(needle.Line, needle.Column)
	line := needle.Line - 1

	sourceIndex := indexOfString(m.Sources, needle.Source)
	if sourceIndex == -1 {
		sourceIndex = indexOfString(m.resolvedSources, needle.Source)
	}
	if sourceIndex == -1 {
		return nil, nil, nil
	}

	if m.bySources == nil {
		decoded, err := m.DecodedMappings()
		if err != nil {
			return nil, nil, err
		}
		m.bySourceMemos = make([]memoState, len(m.Sources))
		for i := range m.bySourceMemos {
			m.bySourceMemos[i] = newMemo()
		}
		m.bySources = buildBySources(decoded, m.bySourceMemos)
	}

	rows := m.bySources[sourceIndex]
	if line >= len(rows) || rows[line] == nil {
		return nil, nil, nil
	}
	return rows[line], &m.bySourceMemos[sourceIndex], nil
}

func sliceGeneratedPositions(segments []Segment, memo *memoState, key int, column int32, bias Bias) []GeneratedPosition {
	min, found := traceSegmentInternal(segments, memo, key, column, GreatestLowerBound)

	// The search matched the first (insertion-order) segment at the
	// column; widen to the whole band of that column. When the search
	// missed, the bias decides which adjacent column becomes the band.
	if !found && bias == LeastUpperBound {
		min++
	}
	if min == -1 || min == len(segments) {
		return nil
	}

	matched := column
	if !found {
		matched = segments[min][revOriginalColumn]
		min = lowerBound(segments, matched, min)
	}
	max := upperBound(segments, matched, min)

	result := make([]GeneratedPosition, 0, max-min+1)
	for ; min <= max; min++ {
		seg := segments[min]
		result = append(result, GeneratedPosition{Line: int(seg[revGeneratedLine]) + 1, Column: int(seg[revGeneratedColumn])})
	}
	return result
}

// EachMapping invokes cb once per segment in generated order.
func (m *TraceMap) EachMapping(cb func(Mapping)) error {
	decoded, err := m.DecodedMappings()
	if err != nil {
		return err
	}
	for i, line := range decoded {
		for _, seg := range line {
			mapping := Mapping{
				GeneratedLine:   i + 1,
				GeneratedColumn: int(seg[GenColumn]),
			}
			if len(seg) > 1 {
				mapping.OriginalFile = m.resolvedSources[seg[SourcesIndex]]
				mapping.OriginalLine = int(seg[SourceLine]) + 1
				mapping.OriginalColumn = int(seg[SourceColumn])
			}
			if len(seg) == 5 {
				mapping.OriginalName = m.Names[seg[NamesIndex]]
			}
			cb(mapping)
		}
	}
	return nil
}
