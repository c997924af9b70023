// Package dispatch implements Capability Dispatch (C9): the public, LSP-
// shaped entry points a host calls against a live AST root. Every operation
// here is stateless over the core. The position-based ones resolve a target
// symbol via find_at_offset and then invoke whichever capability interface
// that symbol's concrete type implements, falling through to each
// capability's documented default when it doesn't; the whole-document ones
// start from root instead.
package dispatch

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/syngraph/core"
	"github.com/oxhq/syngraph/internal/capability"
	"github.com/oxhq/syngraph/internal/symbol"
)

// noWorkspaceDiag is returned (as a core.Diagnostic, not a Go error -- §4.9
// "missing workspace -> diagnostic error surfaced to the caller") when root
// is nil.
var noWorkspaceDiag = core.Diagnostic{Severity: core.SeverityError, Message: "no document loaded for this request"}

// FindAtOffset resolves the deepest symbol covering offset, the operation
// every other dispatch call in this package builds on.
func FindAtOffset(root symbol.Node, offset uint32) (symbol.Node, bool) {
	if root == nil {
		return nil, false
	}
	if f, ok := root.(capability.OffsetFinder); ok {
		return f.FindAtOffset(offset)
	}
	return capability.DefaultFindAtOffset(root, offset)
}

// DocumentSymbols asks root for the outline of its subtree. Only root is
// consulted: if root does not implement DocumentSymboler the result is
// empty, and descendants are not visited here.
func DocumentSymbols(root symbol.Node) ([]capability.DocumentSymbolEntry, *core.Diagnostic) {
	if root == nil {
		return nil, &noWorkspaceDiag
	}
	if ds, ok := root.(capability.DocumentSymboler); ok {
		return ds.DocumentSymbols(), nil
	}
	return nil, nil
}

// Hover resolves the symbol at offset and asks for its hover content.
func Hover(root symbol.Node, offset uint32) (capability.Hover, bool, *core.Diagnostic) {
	if root == nil {
		return capability.Hover{}, false, &noWorkspaceDiag
	}
	sym, ok := FindAtOffset(root, offset)
	if !ok {
		return capability.Hover{}, false, nil
	}
	h, ok := sym.(capability.Hoverer)
	if !ok {
		return capability.Hover{}, false, nil
	}
	content, found := h.Hover(offset)
	return content, found, nil
}

// SemanticTokens appends every SemanticTokenAppender's tokens in the
// subtree to a single flattened stream. within, if non-nil, restricts
// collection to symbols whose range lies inside it or encloses it; a symbol
// that only partly overlaps within is skipped. nil means the whole document.
func SemanticTokens(root symbol.Node, within *core.Range) ([]capability.SemanticToken, *core.Diagnostic) {
	if root == nil {
		return nil, &noWorkspaceDiag
	}
	var tokens []capability.SemanticToken
	appendTokens(root, within, &tokens)
	return tokens, nil
}

func appendTokens(node symbol.Node, within *core.Range, tokens *[]capability.SemanticToken) {
	if within != nil && !within.Contains(node.SymbolCell().Range()) && !node.SymbolCell().Range().Contains(*within) {
		return
	}
	if a, ok := node.(capability.SemanticTokenAppender); ok {
		a.AppendSemanticTokens(tokens)
		return
	}
	for _, child := range capability.Children(node) {
		appendTokens(child, within, tokens)
	}
}

// InlayHints appends every InlayHintAppender's hints that fall within the
// requested range.
func InlayHints(root symbol.Node, within core.Range) ([]capability.InlayHint, *core.Diagnostic) {
	if root == nil {
		return nil, &noWorkspaceDiag
	}
	var hints []capability.InlayHint
	appendInlayHints(root, within, &hints)
	return hints, nil
}

func appendInlayHints(node symbol.Node, within core.Range, hints *[]capability.InlayHint) {
	if !within.Contains(node.SymbolCell().Range()) && !node.SymbolCell().Range().Contains(within) {
		return
	}
	if a, ok := node.(capability.InlayHintAppender); ok {
		a.AppendInlayHints(within, hints)
	}
	for _, child := range capability.Children(node) {
		appendInlayHints(child, within, hints)
	}
}

// CodeLens appends every CodeLensAppender's lenses in the whole document.
func CodeLens(root symbol.Node) ([]capability.CodeLens, *core.Diagnostic) {
	if root == nil {
		return nil, &noWorkspaceDiag
	}
	var lenses []capability.CodeLens
	appendCodeLens(root, &lenses)
	return lenses, nil
}

func appendCodeLens(node symbol.Node, lenses *[]capability.CodeLens) {
	if a, ok := node.(capability.CodeLensAppender); ok {
		a.AppendCodeLens(lenses)
	}
	for _, child := range capability.Children(node) {
		appendCodeLens(child, lenses)
	}
}

// Completion resolves the symbol at ctx.Offset and asks for completion
// proposals valid there.
func Completion(root symbol.Node, ctx capability.CompletionContext) ([]capability.CompletionItem, *core.Diagnostic) {
	if root == nil {
		return nil, &noWorkspaceDiag
	}
	sym, ok := FindAtOffset(root, ctx.Offset)
	if !ok {
		return nil, nil
	}
	c, ok := sym.(capability.Completer)
	if !ok {
		return nil, nil
	}
	return c.CompletionItems(ctx), nil
}

// GoToDefinition resolves the symbol at offset and asks for its definition
// location.
func GoToDefinition(root symbol.Node, offset uint32) (capability.Location, bool, *core.Diagnostic) {
	if root == nil {
		return capability.Location{}, false, &noWorkspaceDiag
	}
	sym, ok := FindAtOffset(root, offset)
	if !ok {
		return capability.Location{}, false, nil
	}
	d, ok := sym.(capability.Definer)
	if !ok {
		return capability.Location{}, false, nil
	}
	loc, found := d.GoToDefinition()
	return loc, found, nil
}

// GoToDeclaration is GoToDefinition's analogue for declarations.
func GoToDeclaration(root symbol.Node, offset uint32) (capability.Location, bool, *core.Diagnostic) {
	if root == nil {
		return capability.Location{}, false, &noWorkspaceDiag
	}
	sym, ok := FindAtOffset(root, offset)
	if !ok {
		return capability.Location{}, false, nil
	}
	d, ok := sym.(capability.Declarer)
	if !ok {
		return capability.Location{}, false, nil
	}
	loc, found := d.GoToDeclaration()
	return loc, found, nil
}

// SelectionRange is one nested selection-range frame, widening outward
// from the innermost CST node at a position to its enclosing named
// ancestors -- computed straight from the CST, not from the AST, per
// §4.9's explicit note.
type SelectionRange struct {
	Range  core.Range
	Parent *SelectionRange
}

// SelectionRanges computes the nested named-ancestor chain for each
// requested position against root's current CST.
func SelectionRanges(root *sitter.Node, offsets []uint32) []SelectionRange {
	out := make([]SelectionRange, 0, len(offsets))
	for _, offset := range offsets {
		out = append(out, selectionRangeAt(root, offset))
	}
	return out
}

func selectionRangeAt(root *sitter.Node, offset uint32) SelectionRange {
	node := root.NamedDescendantForByteRange(offset, offset)
	if node == nil {
		return SelectionRange{Range: core.Range{Start: root.StartByte(), End: root.EndByte()}}
	}

	var frames []core.Range
	for n := node; n != nil; n = n.Parent() {
		if !n.IsNamed() {
			continue
		}
		frames = append(frames, core.Range{Start: n.StartByte(), End: n.EndByte()})
	}
	if len(frames) == 0 {
		return SelectionRange{Range: core.Range{Start: node.StartByte(), End: node.EndByte()}}
	}

	var chain *SelectionRange
	for i := len(frames) - 1; i >= 0; i-- {
		chain = &SelectionRange{Range: frames[i], Parent: chain}
	}
	return *chain
}
