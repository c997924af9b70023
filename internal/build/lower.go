package build

import (
	"sync/atomic"

	"github.com/oxhq/syngraph/core"
	"github.com/oxhq/syngraph/internal/capability"
	"github.com/oxhq/syngraph/internal/resolve"
	"github.com/oxhq/syngraph/internal/schema"
	"github.com/oxhq/syngraph/internal/symbol"
)

// IDs hands out process-unique symbol identities. One IDs value is shared
// by every build/lower/incremental-update pass for a given workspace so
// IDs never collide across documents.
type IDs struct{ next atomic.Uint64 }

// NewIDs creates a fresh identity generator.
func NewIDs() *IDs { return &IDs{} }

func (g *IDs) next1() uint64 { return g.next.Add(1) }

// Lowerer turns a Pending tree into the final typed AST (C6). It owns the
// IDs generator and the two resolver queues new check/reference-capable
// symbols are enqueued into.
type Lowerer struct {
	IDs        *IDs
	Checks     *resolve.Queue
	References *resolve.Queue
	Document   *core.Document
}

// Lower recursively validates and lowers pending, returning the final
// symbol and any diagnostics pinned to the offending captures. A failed
// subtree yields a diagnostic and a nil node; the caller (typically a
// `many` or `optional` field owner) simply omits that child rather than
// aborting the whole build (§4.6 "partial success is permitted").
func (lw *Lowerer) Lower(pending *Pending) (symbol.Node, []core.Diagnostic) {
	var diags []core.Diagnostic
	node, _ := lw.lower(pending, &diags)
	return node, diags
}

func (lw *Lowerer) lower(pending *Pending, diags *[]core.Diagnostic) (symbol.Node, bool) {
	s := pending.Schema

	for _, f := range s.Fields {
		switch f.Kind {
		case schema.FieldSingle:
			child, ok := pending.Single(f.Name)
			if !ok {
				*diags = append(*diags, core.Diagnostic{
					Range:    pending.Range,
					Severity: core.SeverityError,
					Message:  "missing mandatory field '" + f.Name + "' on '" + pending.TypeName + "'",
				})
				return nil, false
			}
			if !lw.validateType(f, child, diags) {
				return nil, false
			}
		case schema.FieldOptional:
			if child, ok := pending.Optional(f.Name); ok {
				if !lw.validateType(f, child, diags) {
					return nil, false
				}
			}
		case schema.FieldMany:
			for _, child := range pending.Many(f.Name) {
				lw.validateType(f, child, diags)
			}
		}
	}

	fields := schema.NewLoweredFields(pending.Range, func() string {
		text, _ := lw.Document.Slice(pending.Range)
		return text
	})

	for _, f := range s.Fields {
		switch f.Kind {
		case schema.FieldSingle:
			child, _ := pending.Single(f.Name)
			loweredChild, ok := lw.lower(child, diags)
			if !ok {
				return nil, false
			}
			fields.SetSingle(f.Name, loweredChild)
		case schema.FieldOptional:
			if child, ok := pending.Optional(f.Name); ok {
				if loweredChild, ok := lw.lower(child, diags); ok {
					fields.SetOptional(f.Name, loweredChild)
				}
			}
		case schema.FieldMany:
			for _, child := range pending.Many(f.Name) {
				if loweredChild, ok := lw.lower(child, diags); ok {
					fields.AppendMany(f.Name, loweredChild)
				}
			}
		}
	}

	id := lw.IDs.next1()
	node, err := s.Construct(id, lw.Document.URI, fields)
	if err != nil {
		*diags = append(*diags, core.Diagnostic{
			Range:    pending.Range,
			Severity: core.SeverityError,
			Message:  "constructing '" + pending.TypeName + "': " + err.Error(),
		})
		return nil, false
	}

	node.SymbolCell().SetOwner(node)
	injectParent(node)
	lw.enqueue(node, s)

	return node, true
}

func (lw *Lowerer) validateType(f schema.FieldSchema, child *Pending, diags *[]core.Diagnostic) bool {
	if f.Type.Accepts(child.TypeName) {
		return true
	}
	*diags = append(*diags, core.Diagnostic{
		Range:    child.Range,
		Severity: core.SeverityError,
		Message:  "field '" + f.Name + "' does not accept node type '" + child.TypeName + "'",
	})
	return false
}

// injectParent walks node's declared children (via the capability hook
// every generated node exposes) and sets their parent weak-ref. Concrete
// node types implement symbol.Node and, for composite nodes, Children();
// leaf nodes simply have none.
func injectParent(node symbol.Node) {
	cell := node.SymbolCell()
	for _, child := range capability.Children(node) {
		child.SymbolCell().SetParent(cell)
	}
}

// enqueue pushes node onto the check/reference queues if its schema opted
// into those capabilities, per §4.6 ("a weak reference to it is pushed to
// the corresponding resolver queue").
func (lw *Lowerer) enqueue(node symbol.Node, s schema.NodeSchema) {
	if _, ok := s.Capabilities[schema.CapCheck]; ok {
		if _, ok := node.(capability.Checker); ok {
			lw.Checks.Push(node.SymbolCell().Weak())
		}
	}
	if _, ok := s.Capabilities[schema.CapReference]; ok {
		if _, ok := node.(capability.Reference); ok {
			lw.References.Push(node.SymbolCell().Weak())
		}
	}
}
