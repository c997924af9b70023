// Package incremental implements the Incremental Updater (C8): it takes the
// ordered list of text edits already applied to a Document and brings the
// typed AST back into sync with the new CST, preferring the cheapest
// strategy that still produces a correct tree: range shift alone, a
// localized dynamic swap, or -- as a last resort -- a full rebuild.
package incremental

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/oxhq/syngraph/core"
	"github.com/oxhq/syngraph/internal/build"
	"github.com/oxhq/syngraph/internal/capability"
	"github.com/oxhq/syngraph/internal/resolve"
	"github.com/oxhq/syngraph/internal/schema"
	"github.com/oxhq/syngraph/internal/symbol"
)

// State names the per-edit outcome of the state machine described in §4.8:
// Stable -> {Shifted | Swapped | Reparsed | Broken} -> Stable-after-resolve.
type State int

const (
	Shifted State = iota
	Swapped
	Reparsed
	Broken
)

func (s State) String() string {
	switch s {
	case Shifted:
		return "shifted"
	case Swapped:
		return "swapped"
	case Reparsed:
		return "reparsed"
	case Broken:
		return "broken"
	default:
		return "unknown"
	}
}

// Result reports what happened for one applied edit.
type Result struct {
	State State
}

// Updater owns one document's live AST root and drives it through edits.
// It is not safe for concurrent ApplyEdits calls on the same Updater; the
// host is expected to serialize edits per document, matching §5's
// "document-scoped serialization" rule for structural writes.
type Updater struct {
	Document *core.Document
	Query    *sitter.Query
	Registry *schema.Registry
	Lowerer  *build.Lowerer
	Driver   *resolve.Driver
	Log      *zap.SugaredLogger

	root symbol.Node
}

// NewUpdater wraps an already-built AST root for incremental maintenance.
func NewUpdater(doc *core.Document, query *sitter.Query, reg *schema.Registry, lw *build.Lowerer, driver *resolve.Driver, root symbol.Node, log *zap.SugaredLogger) *Updater {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Updater{Document: doc, Query: query, Registry: reg, Lowerer: lw, Driver: driver, root: root, Log: log}
}

// Root returns the current AST root, which may have been replaced wholesale
// by a prior ApplyEdits call (Reparsed state).
func (u *Updater) Root() symbol.Node { return u.root }

// ApplyEdits processes edits in order against the already-reparsed Document
// (ApplyEdit on core.Document must have run for each edit beforehand, per
// §4.8's input contract), then drains both resolver queues once. lookup is
// the reference-resolution algorithm to retry against the post-edit tree,
// typically resolve.DefaultLookup(u.Document).
func (u *Updater) ApplyEdits(ctx context.Context, edits []core.Edit, lookup resolve.Lookup) []Result {
	results := make([]Result, 0, len(edits))
	for _, edit := range edits {
		if edit.IsNoop() {
			continue
		}
		results = append(results, u.applyOne(ctx, edit))
	}

	if u.Driver != nil {
		u.Driver.DrainChecks()
		if lookup != nil {
			u.Driver.DrainReferences(u.root, lookup)
		}
	}

	return results
}

func (u *Updater) applyOne(ctx context.Context, edit core.Edit) Result {
	delta := edit.Delta()
	shiftFrom(u.root, edit.StartByte, edit.OldEndByte, delta)

	spanning := u.Document.RootNode().NamedDescendantForByteRange(edit.StartByte, edit.NewEndByte)

	if spanning == nil {
		return u.reparse(ctx)
	}

	if parent := spanning.Parent(); parent != nil && parent.IsError() {
		u.Log.Warnw("incremental update hit an error node; leaving structure pending", "start", edit.StartByte, "newEnd", edit.NewEndByte)
		return Result{State: Broken}
	}

	if spanning.IsExtra() || edit.WhitespaceOnly {
		return Result{State: Shifted}
	}

	if result, ok := u.trySwap(edit); ok {
		return result
	}

	return u.reparse(ctx)
}

// shiftFrom walks node's strong subtree, applying the standard tree-sitter
// point-edit adjustment to every range (§4.8 step 2): a point before the
// edit is untouched, a point inside the edited span clamps to startByte,
// and a point at or past the edit's old end shifts by delta. Start and End
// are adjusted independently, so an ancestor whose range merely straddles
// the edit (Start before it, End at or past oldEndByte) still gets its End
// advanced even though its Start does not move -- otherwise containment
// (§3 invariant 1) breaks for every ancestor above the edited node, since
// containment guarantees Start <= edit.StartByte for all of them.
//
// It always recurses into children even when the node itself didn't shift,
// since a child's range can still move while an ancestor's does not.
func shiftFrom(node symbol.Node, startByte, oldEndByte uint32, delta int64) {
	if node == nil {
		return
	}
	cell := node.SymbolCell()
	rng := cell.Range()
	cell.SetRange(core.Range{
		Start: shiftPoint(rng.Start, startByte, oldEndByte, delta),
		End:   shiftPoint(rng.End, startByte, oldEndByte, delta),
	})
	for _, child := range capability.Children(node) {
		shiftFrom(child, startByte, oldEndByte, delta)
	}
}

// shiftPoint adjusts a single byte offset for an edit spanning
// [startByte, oldEndByte) that becomes delta bytes longer (or shorter).
func shiftPoint(p, startByte, oldEndByte uint32, delta int64) uint32 {
	switch {
	case p < startByte:
		return p
	case p < oldEndByte:
		return startByte
	default:
		shifted := int64(p) + delta
		if shifted < int64(startByte) {
			return startByte
		}
		return uint32(shifted)
	}
}

// trySwap attempts §4.8 step 4: ask the root for the deepest subtree that
// fully contains edit, rebuild just that subtree, and splice it into its
// parent. Reports ok=false when nothing declares itself swappable, or when
// the rebuild/splice fails for any reason -- in both cases the caller falls
// back to a full reparse.
func (u *Updater) trySwap(edit core.Edit) (Result, bool) {
	swapper, ok := u.root.(capability.DynamicSwapper)
	if !ok {
		return Result{}, false
	}
	target, ok := swapper.CanSwap(edit)
	if !ok || target == nil {
		return Result{}, false
	}

	rng := target.SymbolCell().Range()
	pending, diags := build.BuildPendingInRange(u.Document, u.Query, u.Registry, rng)
	if pending == nil {
		return Result{}, false
	}
	for _, d := range diags {
		u.Driver.Sink.Add(d)
	}

	replacement, lowerDiags := u.Lowerer.Lower(pending)
	for _, d := range lowerDiags {
		u.Driver.Sink.Add(d)
	}
	if replacement == nil {
		return Result{}, false
	}

	if target == u.root {
		u.root = replacement
		u.Log.Debugw("dynamic swap replaced the document root", "type", replacement.SymbolCell().TypeName())
		return Result{State: Swapped}, true
	}

	parentNode, hasParent := target.SymbolCell().ParentNode()
	if !hasParent {
		return Result{}, false
	}
	splicer, ok := parentNode.(capability.Splicer)
	if !ok {
		return Result{}, false
	}
	if !splicer.SpliceChild(target, replacement) {
		return Result{}, false
	}
	replacement.SymbolCell().SetParent(parentNode.SymbolCell())

	u.Log.Debugw("dynamic swap replaced subtree", "type", replacement.SymbolCell().TypeName(), "range", rng)
	return Result{State: Swapped}, true
}

// reparse rebuilds the whole document's typed AST from the current CST
// (§4.8 step 5). This is a rebuild of the Pending/Lowering pipeline only:
// tree-sitter's own incremental reparse already ran when the text edit was
// applied to the Document.
func (u *Updater) reparse(ctx context.Context) Result {
	pending, diags := build.BuildPending(ctx, u.Document, u.Query, u.Registry)
	for _, d := range diags {
		u.Driver.Sink.Add(d)
	}
	if pending == nil {
		return Result{State: Broken}
	}
	root, lowerDiags := u.Lowerer.Lower(pending)
	for _, d := range lowerDiags {
		u.Driver.Sink.Add(d)
	}
	if root == nil {
		return Result{State: Broken}
	}
	u.root = root
	return Result{State: Reparsed}
}
