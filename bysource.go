package tracemap

// buildBySources inverts a decoded forward map into per-source rows of
// reverse segments [origCol, genLine, genCol], indexed by original line
// and sorted by original column. Original lines without any mapping stay
// nil. Several forward segments may target the same original position;
// all of them are kept, in insertion order.
//
// Insertion reuses the memoized search: maps list segments of one source
// line close together, so the memo turns the sort-insert into near-append.
func buildBySources(decoded [][]Segment, memos []memoState) [][][]Segment {
	sources := make([][][]Segment, len(memos))
	for genLine, line := range decoded {
		for _, seg := range line {
			if len(seg) == 1 {
				continue
			}
			sourceIndex := seg[SourcesIndex]
			originalLine := int(seg[SourceLine])
			originalColumn := seg[SourceColumn]

			rows := sources[sourceIndex]
			for originalLine >= len(rows) {
				rows = append(rows, nil)
			}
			sources[sourceIndex] = rows

			memo := &memos[sourceIndex]
			index, _ := memoizedBinarySearch(rows[originalLine], originalColumn, memo, originalLine)
			index = upperBound(rows[originalLine], originalColumn, index) + 1
			memo.lastIndex = index
			rows[originalLine] = insertSegment(rows[originalLine], index,
				Segment{originalColumn, int32(genLine), seg[GenColumn]})
		}
	}
	return sources
}

func insertSegment(segments []Segment, index int, seg Segment) []Segment {
	segments = append(segments, nil)
	copy(segments[index+1:], segments[index:])
	segments[index] = seg
	return segments
}
