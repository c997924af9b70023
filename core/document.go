// Package core contains the pure, language-agnostic data structures that
// the rest of syngraph is built on: the Document (C1), byte ranges and
// positions, and diagnostics. Nothing here depends on a schema or on the
// capability set; a Document knows only about text, tree-sitter's CST,
// and how to convert between offsets and positions.
package core

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Range is a half-open byte interval [Start, End) into a Document's source.
type Range struct {
	Start uint32
	End   uint32
}

// Contains reports whether r fully contains other (r.Start <= other.Start
// && other.End <= r.End).
func (r Range) Contains(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Len returns the width of the range in bytes.
func (r Range) Len() uint32 { return r.End - r.Start }

// Position is a zero-based line/column pair, column counted in bytes.
type Position struct {
	Line   uint32
	Column uint32
}

// Document holds the source text and the current CST for one file, plus a
// positional index kept in sync with both. It is mutated only through
// ApplyEdit; everything else is a read.
type Document struct {
	URI    string
	source []byte
	tree   *sitter.Tree
	parser *sitter.Parser
	lang   *sitter.Language

	// lineStarts[i] is the byte offset of the first byte of line i.
	lineStarts []uint32
}

// NewDocument parses src for the first time and returns a ready Document.
func NewDocument(ctx context.Context, uri string, src []byte, lang *sitter.Language) (*Document, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", uri, err)
	}

	d := &Document{
		URI:    uri,
		source: src,
		tree:   tree,
		parser: parser,
		lang:   lang,
	}
	d.reindexLines()
	return d, nil
}

// Source returns the full document text. Callers must not mutate it.
func (d *Document) Source() []byte { return d.source }

// Tree returns the current CST root node.
func (d *Document) Tree() *sitter.Tree { return d.tree }

// RootNode is a convenience accessor for Tree().RootNode().
func (d *Document) RootNode() *sitter.Node { return d.tree.RootNode() }

// Slice returns the source text covered by r, or ("", false) if r is out of
// bounds. Per §4.1 this never panics.
func (d *Document) Slice(r Range) (string, bool) {
	if r.Start > r.End || int(r.End) > len(d.source) {
		return "", false
	}
	return string(d.source[r.Start:r.End]), true
}

// reindexLines rebuilds the line-start table from scratch. Called by
// NewDocument and again by ApplyEdit after every edit (see edit.go).
func (d *Document) reindexLines() {
	starts := make([]uint32, 1, 64)
	starts[0] = 0
	for i, b := range d.source {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	d.lineStarts = starts
}

// PositionFor converts a byte offset to a line/column position, or
// (Position{}, false) if the offset is out of range.
func (d *Document) PositionFor(offset uint32) (Position, bool) {
	if int(offset) > len(d.source) {
		return Position{}, false
	}
	line := upperBound(d.lineStarts, offset) - 1
	return Position{Line: uint32(line), Column: offset - d.lineStarts[line]}, true
}

// OffsetFor converts a line/column position to a byte offset, or (0, false)
// if the position does not exist in the document.
func (d *Document) OffsetFor(pos Position) (uint32, bool) {
	if int(pos.Line) >= len(d.lineStarts) {
		return 0, false
	}
	lineStart := d.lineStarts[pos.Line]
	var lineEnd uint32
	if int(pos.Line)+1 < len(d.lineStarts) {
		lineEnd = d.lineStarts[pos.Line+1]
	} else {
		lineEnd = uint32(len(d.source))
	}
	offset := lineStart + pos.Column
	if offset > lineEnd {
		return 0, false
	}
	return offset, true
}

// upperBound returns the index of the first element in sorted starts that
// is strictly greater than offset.
func upperBound(starts []uint32, offset uint32) int {
	lo, hi := 0, len(starts)
	for lo < hi {
		mid := (lo + hi) / 2
		if starts[mid] <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Close releases the parser and tree resources held by the document.
func (d *Document) Close() {
	if d.tree != nil {
		d.tree.Close()
	}
	if d.parser != nil {
		d.parser.Close()
	}
}
