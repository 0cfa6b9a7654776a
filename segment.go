package tracemap

import "github.com/gopherjs/tracemap/internal/vlq"

// Segment is a single decoded mapping entry, re-exported from the codec.
// Its length is 1 (unmapped), 4 (mapped) or 5 (mapped with a name).
type Segment = vlq.Segment

// Field indices into a forward Segment.
const (
	GenColumn    = vlq.GenColumn
	SourcesIndex = vlq.SourcesIndex
	SourceLine   = vlq.SourceLine
	SourceColumn = vlq.SourceColumn
	NamesIndex   = vlq.NamesIndex
)

// Field indices into a reverse segment of the by-source index.
const (
	revOriginalColumn  = 0
	revGeneratedLine   = 1
	revGeneratedColumn = 2
)

// Bias selects which neighbor wins when a queried column falls between two
// mapped columns.
type Bias int

const (
	// GreatestLowerBound matches the closest segment at or before the
	// queried column. This is the default.
	GreatestLowerBound Bias = 1
	// LeastUpperBound matches the closest segment at or after the
	// queried column.
	LeastUpperBound Bias = -1
)

func (b Bias) orDefault() Bias {
	if b == 0 {
		return GreatestLowerBound
	}
	return b
}
