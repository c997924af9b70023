package core

import (
	"bytes"
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// TextEdit is the textual change the host wants applied to a Document,
// expressed in raw byte offsets against the *current* source (before the
// edit is applied).
type TextEdit struct {
	StartByte    uint32
	OldEndByte   uint32
	NewText      []byte
}

// Edit is the applied-edit descriptor the Incremental Updater (C8) consumes:
// the byte triple plus the whitespace-only flag required by §6's Text
// buffer adapter contract.
type Edit struct {
	StartByte       uint32
	OldEndByte      uint32
	NewEndByte      uint32
	WhitespaceOnly  bool
}

// Delta is the signed byte-length change of the edit (NewEndByte - OldEndByte).
func (e Edit) Delta() int64 { return int64(e.NewEndByte) - int64(e.OldEndByte) }

// IsNoop reports whether the edit has zero width on both sides, per §4.8
// step 1 / §8 property 4.
func (e Edit) IsNoop() bool {
	return e.StartByte == e.OldEndByte && e.OldEndByte == e.NewEndByte
}

// ApplyEdit splices TextEdit into the document, reparses incrementally, and
// returns the Edit descriptor the updater needs. The CST edit is applied
// before the text is replaced in the tree-sitter sense: tree-sitter wants
// the *old* tree told about the edit, then reparsed against the *new*
// bytes, so we compute points against the pre-edit source first.
func (d *Document) ApplyEdit(ctx context.Context, te TextEdit) (Edit, error) {
	if te.StartByte > te.OldEndByte || int(te.OldEndByte) > len(d.source) {
		return Edit{}, fmt.Errorf("text edit out of range: start=%d oldEnd=%d len=%d", te.StartByte, te.OldEndByte, len(d.source))
	}

	oldSource := d.source
	startPoint := pointFor(oldSource, te.StartByte)
	oldEndPoint := pointFor(oldSource, te.OldEndByte)

	newSource := Splice(oldSource, te.StartByte, te.OldEndByte, te.NewText)
	newEndByte := te.StartByte + uint32(len(te.NewText))
	newEndPoint := pointFor(newSource, newEndByte)

	whitespaceOnly := isWhitespaceOnlyEdit(oldSource[te.StartByte:te.OldEndByte], te.NewText)

	d.tree.Edit(sitter.EditInput{
		StartIndex:  te.StartByte,
		OldEndIndex: te.OldEndByte,
		NewEndIndex: newEndByte,
		StartPoint:  startPoint,
		OldEndPoint: oldEndPoint,
		NewEndPoint: newEndPoint,
	})

	newTree, err := d.parser.ParseCtx(ctx, d.tree, newSource)
	if err != nil {
		return Edit{}, fmt.Errorf("incremental reparse of %s: %w", d.URI, err)
	}

	d.tree.Close()
	d.tree = newTree
	d.source = newSource
	d.reindexLines()

	return Edit{
		StartByte:      te.StartByte,
		OldEndByte:     te.OldEndByte,
		NewEndByte:     newEndByte,
		WhitespaceOnly: whitespaceOnly,
	}, nil
}

// Splice returns a new byte slice with src[start:end] replaced by repl.
func Splice(src []byte, start, end uint32, repl []byte) []byte {
	out := make([]byte, 0, len(src)-int(end-start)+len(repl))
	out = append(out, src[:start]...)
	out = append(out, repl...)
	out = append(out, src[end:]...)
	return out
}

func isWhitespaceOnlyEdit(old, new []byte) bool {
	return isAllWhitespace(old) && isAllWhitespace(new)
}

func isAllWhitespace(b []byte) bool {
	return len(bytes.TrimSpace(b)) == 0
}

// pointFor computes the tree-sitter Point (row/column) for offset within src.
func pointFor(src []byte, offset uint32) sitter.Point {
	var row, col uint32
	for i := uint32(0); i < offset && int(i) < len(src); i++ {
		if src[i] == '\n' {
			row++
			col = 0
		} else {
			col++
		}
	}
	return sitter.Point{Row: row, Column: col}
}
