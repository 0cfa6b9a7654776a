// Package remap composes a chain of source maps into one. The input map's
// sources are often themselves generated files with maps of their own; a
// user-supplied loader provides the map for each source (or reports it as
// an original), and the composition traces every mapping down the chain so
// the flattened result points straight at the ultimate originals.
package remap

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/gopherjs/tracemap"
	"github.com/gopherjs/tracemap/internal/uniq"
)

// SourceContext is handed to the loader alongside each source file name.
// The loader may rewrite Source to rename the file in the output, and may
// set Content to attach original source text to a leaf.
type SourceContext struct {
	// Importer is the resolved name of the map that referenced this
	// source; empty for sources of the root map.
	Importer string
	// Depth is the nesting level, starting at 1 for the root's sources.
	Depth int
	// Source is the resolved source name. Mutable.
	Source string
	// Content is the original text to record for a leaf. Mutable; when
	// nil, the parent map's sourcesContent entry is used.
	Content *string
}

// Loader supplies the source map that produced a given source file, or nil
// if the file is an original. It is called exactly once per source at each
// nesting level, in traversal order, and must be synchronous.
type Loader func(file string, ctx *SourceContext) (*tracemap.TraceMap, error)

// Options adjust the composed output.
type Options struct {
	// ExcludeContent omits sourcesContent from the output entirely.
	ExcludeContent bool
}

// InvalidMapError reports a map in the chain whose mapping points at a
// line its child map does not have.
type InvalidMapError struct {
	Source string
	Line   int
}

func (e *InvalidMapError) Error() string {
	return fmt.Sprintf("a mapping points to invalid line %d of the source map of %q", e.Line, e.Source)
}

// Remap flattens the chain rooted at input into a single encoded source
// map. input accepts everything tracemap.Parse does.
func Remap(input any, loader Loader, opts Options) (*tracemap.SourceMapV3, error) {
	decoded, err := RemapDecoded(input, loader, opts)
	if err != nil {
		return nil, err
	}
	return tracemap.PresortedDecoded(decoded, "").EncodedMap(), nil
}

// RemapDecoded is Remap without the final VLQ encoding step.
func RemapDecoded(input any, loader Loader, opts Options) (*tracemap.DecodedSourceMap, error) {
	root, err := tracemap.Parse(input, "")
	if err != nil {
		return nil, err
	}
	tree, err := build(root, loader, "", 0)
	if err != nil {
		return nil, err
	}
	return tree.traceMappings(opts.ExcludeContent)
}

// node is either a graph node (map set, children per source) or an
// original leaf (map nil, holding just the file name and content).
type node struct {
	source   string
	srcMap   *tracemap.TraceMap
	children []*node
	content  *string
}

// build loads the map chain depth-first. Sources are resolved against the
// parent's sourceRoot before the loader sees them.
func build(m *tracemap.TraceMap, loader Loader, importer string, depth int) (*node, error) {
	resolved := m.ResolvedSources()
	children := make([]*node, len(resolved))
	for i, sourceFile := range resolved {
		ctx := &SourceContext{Importer: importer, Depth: depth + 1, Source: sourceFile}
		childMap, err := loader(ctx.Source, ctx)
		if err != nil {
			return nil, fmt.Errorf("loading map of %q: %w", ctx.Source, err)
		}

		if childMap != nil {
			log.Debugf("remap: source %q has a map of its own, descending", ctx.Source)
			child, err := build(childMap, loader, ctx.Source, depth+1)
			if err != nil {
				return nil, err
			}
			children[i] = child
			continue
		}

		log.Debugf("remap: source %q is an original", ctx.Source)
		content := ctx.Content
		if content == nil && i < len(m.SourcesContent) {
			content = m.SourcesContent[i]
		}
		children[i] = &node{source: ctx.Source, content: content}
	}
	return &node{source: importer, srcMap: m, children: children}, nil
}

// traced is the outcome of following one mapping down to the bottom of
// the chain. leaf is false when the trace ended at an unmapped segment,
// making the generated position sourceless.
type traced struct {
	leaf    bool
	source  string
	line    int32
	column  int32
	name    string
	content *string
}

// trace follows (line, column) through this node. The bool result is
// false when a map in the chain simply has no segment at the position, in
// which case the mapping is dropped from the output.
func (n *node) trace(line, column int32, name string) (traced, bool, error) {
	if n.srcMap == nil {
		return traced{leaf: true, source: n.source, line: line, column: column, name: name, content: n.content}, true, nil
	}

	decoded, err := n.srcMap.DecodedMappings()
	if err != nil {
		return traced{}, false, err
	}
	if int(line) >= len(decoded) {
		return traced{}, false, &InvalidMapError{Source: n.source, Line: int(line)}
	}
	seg, err := n.srcMap.TraceSegment(int(line), int(column))
	if err != nil {
		return traced{}, false, err
	}
	if seg == nil {
		return traced{}, false, nil
	}
	if len(seg) == 1 {
		return traced{}, true, nil
	}
	// A name found deeper in the chain wins over the incoming one.
	if len(seg) == 5 {
		name = n.srcMap.Names[seg[tracemap.NamesIndex]]
	}
	return n.children[seg[tracemap.SourcesIndex]].trace(seg[tracemap.SourceLine], seg[tracemap.SourceColumn], name)
}

func (n *node) traceMappings(excludeContent bool) (*tracemap.DecodedSourceMap, error) {
	root := n.srcMap
	rootDecoded, err := root.DecodedMappings()
	if err != nil {
		return nil, err
	}

	sources := uniq.New()
	names := uniq.New()
	var contents []*string
	mappings := make([][]tracemap.Segment, 0, len(rootDecoded))

	for _, line := range rootDecoded {
		out := []tracemap.Segment{}
		for _, seg := range line {
			genCol := seg[tracemap.GenColumn]

			result := traced{}
			if len(seg) > 1 {
				name := ""
				if len(seg) == 5 {
					name = root.Names[seg[tracemap.NamesIndex]]
				}
				var ok bool
				result, ok, err = n.children[seg[tracemap.SourcesIndex]].trace(seg[tracemap.SourceLine], seg[tracemap.SourceColumn], name)
				if err != nil {
					return nil, err
				}
				if !ok {
					// The chain leads nowhere; drop the mapping.
					continue
				}
			}

			var newSeg tracemap.Segment
			if !result.leaf {
				newSeg = tracemap.Segment{genCol}
			} else {
				sourceIndex, added := sources.Put(result.source)
				if added {
					contents = append(contents, result.content)
				}
				if result.name != "" {
					nameIndex, _ := names.Put(result.name)
					newSeg = tracemap.Segment{genCol, int32(sourceIndex), result.line, result.column, int32(nameIndex)}
				} else {
					newSeg = tracemap.Segment{genCol, int32(sourceIndex), result.line, result.column}
				}
			}
			out = appendSegment(out, newSeg)
		}
		mappings = append(mappings, out)
	}

	composed := &tracemap.DecodedSourceMap{
		Version:  3,
		File:     root.File,
		Sources:  sources.Array(),
		Names:    names.Array(),
		Mappings: mappings,
	}
	if !excludeContent {
		composed.SourcesContent = contents
	}
	return composed, nil
}

// appendSegment skips a segment identical to the one preceding it, which
// composition produces when several input mappings collapse onto the same
// traced position.
func appendSegment(line []tracemap.Segment, seg tracemap.Segment) []tracemap.Segment {
	if len(line) > 0 {
		last := line[len(line)-1]
		if len(last) == len(seg) {
			same := true
			for i := range seg {
				if last[i] != seg[i] {
					same = false
					break
				}
			}
			if same {
				return line
			}
		}
	}
	return append(line, seg)
}
