// Package capability declares the fixed, closed set of per-node behaviors
// (C3) that the rest of syngraph dispatches through uniformly. A schema-
// generated node type implements whichever of these interfaces its
// capability opt-ins (§4.4) require; everything else is handled by the
// "default" behavior documented on each interface.
package capability

import (
	"github.com/oxhq/syngraph/core"
	"github.com/oxhq/syngraph/internal/symbol"
)

// DocumentSymbolEntry is one outline entry produced by DocumentSymbols, nested
// to mirror the AST shape (§4.3 "document_symbols").
type DocumentSymbolEntry struct {
	Name     string
	Kind     string
	Range    core.Range
	Selected core.Range
	Children []DocumentSymbolEntry
}

// DocumentSymboler produces zero or more nested outline entries for the
// symbol's subtree.
type DocumentSymboler interface {
	DocumentSymbols() []DocumentSymbolEntry
}

// Hover is the content returned for a cursor position.
type Hover struct {
	Contents string
	Range    core.Range
}

// Hoverer produces hover content for a position within the symbol, or
// (Hover{}, false) when there is nothing to show.
type Hoverer interface {
	Hover(offset uint32) (Hover, bool)
}

// SemanticToken is one (range, type, modifiers) tuple in LSP's flattened
// semantic-tokens encoding.
type SemanticToken struct {
	Range     core.Range
	TypeIndex uint32
	Modifiers uint32
}

// SemanticTokenAppender appends this symbol's tokens (and, by convention,
// recurses into children) to the builder's running token list.
type SemanticTokenAppender interface {
	AppendSemanticTokens(tokens *[]SemanticToken)
}

// InlayHint is a typed, positioned annotation.
type InlayHint struct {
	Position core.Position
	Label    string
	Kind     string
}

// InlayHintAppender appends hints for this symbol (and its subtree) that
// fall within the requested range.
type InlayHintAppender interface {
	AppendInlayHints(within core.Range, hints *[]InlayHint)
}

// CodeLens is an actionable annotation anchored at a range.
type CodeLens struct {
	Range core.Range
	Title string
	Args  map[string]string
}

// CodeLensAppender appends lenses for this symbol's subtree.
type CodeLensAppender interface {
	AppendCodeLens(lenses *[]CodeLens)
}

// CompletionItem is a single completion proposal.
type CompletionItem struct {
	Label  string
	Kind   string
	Detail string
}

// CompletionContext carries the trigger character (if any) and cursor
// offset for a completion request.
type CompletionContext struct {
	Offset  uint32
	Trigger string
}

// Completer produces completion proposals valid at ctx.
type Completer interface {
	CompletionItems(ctx CompletionContext) []CompletionItem
}

// Location points at a range within a document, the LSP go-to-* return
// shape.
type Location struct {
	DocumentURI string
	Range       core.Range
}

// Definer and Declarer return the definition/declaration location for a
// symbol, typically by following its resolved reference target.
type Definer interface {
	GoToDefinition() (Location, bool)
}

type Declarer interface {
	GoToDeclaration() (Location, bool)
}

// Reference marks a node whose primary role is to resolve to another
// symbol. Spelling is the identifier text the default lookup algorithm
// (internal/resolve) searches for in enclosing scopes; resolution itself
// happens against the Cell graph (target/referrers), not through this
// interface, so Reference only needs to say "I am one" and "here is my
// text".
type Reference interface {
	IsReference() bool
	Spelling() string
}

// CustomReferenceResolver lets a node override the default scope-walk
// algorithm entirely (the "user-provided" opt-in of §4.4). When present,
// the resolver queue calls it instead of the default identifier lookup.
type CustomReferenceResolver interface {
	ResolveReference() (target symbol.Node, outcome ResolveOutcome, diag *core.Diagnostic)
}

// ResolveOutcome is the three-way result §4.7 requires from both
// reference resolution and checks.
type ResolveOutcome int

const (
	ResolveFound ResolveOutcome = iota
	ResolveNotYet
	ResolveError
)

// Checker runs a semantic validation that may push diagnostics and may
// need to be retried (§4.7 "Check").
type Checker interface {
	Check(sink *core.DiagnosticSink) ResolveOutcome
}

// Scoper exposes the byte ranges within which identifier lookup is valid
// for this symbol, used both by the default reference resolution walk
// (§4.7) and by completion.
type Scoper interface {
	ScopeRanges() []core.Range
}

// CommentAttacher associates a preceding comment with this symbol.
type CommentAttacher interface {
	IsComment() bool
	AttachComment(text string, rng core.Range)
	CommentText() (string, bool)
}

// OffsetFinder descends to the deepest symbol in this subtree that covers
// offset, or returns (nil, false) if offset is outside the symbol's range.
type OffsetFinder interface {
	FindAtOffset(offset uint32) (symbol.Node, bool)
}

// Children returns node's declared strong children via the generated
// Children() []symbol.Node hook every composite node type exposes, or nil
// for a leaf.
func Children(node symbol.Node) []symbol.Node {
	if composite, ok := node.(interface{ Children() []symbol.Node }); ok {
		return composite.Children()
	}
	return nil
}

// DefaultFindAtOffset is the schema-agnostic find_at_offset fallback (§4.3,
// §4.9): if node's range covers offset, try each declared child for a
// deeper match, preferring a child's own OffsetFinder implementation and
// otherwise recursing generically; absent any covering child, node itself
// is the answer. Concrete composite node types typically implement
// FindAtOffset by calling straight through to this.
func DefaultFindAtOffset(node symbol.Node, offset uint32) (symbol.Node, bool) {
	rng := node.SymbolCell().Range()
	covers := rng.Start <= offset && (offset < rng.End || (rng.Len() == 0 && offset == rng.Start))
	if !covers {
		return nil, false
	}
	for _, child := range Children(node) {
		if f, ok := child.(OffsetFinder); ok {
			if found, ok := f.FindAtOffset(offset); ok {
				return found, true
			}
			continue
		}
		if found, ok := DefaultFindAtOffset(child, offset); ok {
			return found, true
		}
	}
	return node, true
}

// DynamicSwapper lets a subtree participate in incremental updates (§4.8
// step 4): CanSwap reports whether this symbol (or, recursively, one of
// its fields) is the smallest subtree fully containing the edit. A
// generated composite type implements this by first asking each of its
// swappable fields, and only reporting itself if none of them do -- so the
// deepest containing subtree always wins.
type DynamicSwapper interface {
	CanSwap(edit core.Edit) (symbol.Node, bool)
}

// Splicer lets the Incremental Updater replace one direct child of a
// composite node in place once a deeper subtree has been rebuilt in
// isolation (§4.8 step 4, "spliced in place of the old one"). old is
// identified by symbol ID; SpliceChild reports false if old is not
// currently one of this node's children (a programmer/invariant error the
// updater treats as a swap failure, falling back to full reparse).
type Splicer interface {
	SpliceChild(old symbol.Node, replacement symbol.Node) bool
}

// ForwardHover implements the "default-for-reference" rule of §4.3: if a
// node is a Reference with a live target that itself is a Hoverer, forward
// the call; otherwise report nothing. Concrete reference node types that
// want this behavior call it from their own Hover method.
func ForwardHover(ref Reference, target symbol.Node, offset uint32) (Hover, bool) {
	if target == nil {
		return Hover{}, false
	}
	if h, ok := target.(Hoverer); ok {
		return h.Hover(offset)
	}
	return Hover{}, false
}

// ForwardDefinition is ForwardHover's analogue for GoToDefinition.
func ForwardDefinition(target symbol.Node) (Location, bool) {
	if target == nil {
		return Location{}, false
	}
	if d, ok := target.(Definer); ok {
		return d.GoToDefinition()
	}
	return Location{}, false
}

// ForwardDeclaration is ForwardHover's analogue for GoToDeclaration.
func ForwardDeclaration(target symbol.Node) (Location, bool) {
	if target == nil {
		return Location{}, false
	}
	if d, ok := target.(Declarer); ok {
		return d.GoToDeclaration()
	}
	return Location{}, false
}
