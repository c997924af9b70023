// Package build implements the Pending Builder Tree (C5) and Lowering /
// TryFrom (C6): it walks a Tree-sitter query's captures in source order,
// assembles a transient Pending tree shaped by the schema, then validates
// and lowers it into the final Symbol-cored AST.
package build

import (
	"context"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/syngraph/core"
	"github.com/oxhq/syngraph/internal/schema"
)

// Pending is the transient, build-time placeholder for a symbol: it owns
// its unlowered children strongly and is discarded once Lowering produces
// the final typed node (§3 "Pending symbol").
type Pending struct {
	TypeName string
	Capture  string
	Range    core.Range
	Schema   schema.NodeSchema

	slots map[string]*pendingSlot

	// orphans are captures that matched no declared field slot on this
	// node; each one also produced a diagnostic. Lowering never consults
	// them.
	orphans []*Pending
}

type pendingSlot struct {
	field  schema.FieldSchema
	single *Pending
	many   []*Pending
	filled bool
}

func newPending(typeName, capture string, rng core.Range, s schema.NodeSchema) *Pending {
	p := &Pending{
		TypeName: typeName,
		Capture:  capture,
		Range:    rng,
		Schema:   s,
		slots:    make(map[string]*pendingSlot, len(s.Fields)),
	}
	for _, f := range s.Fields {
		p.slots[f.Name] = &pendingSlot{field: f}
	}
	return p
}

// capture is one raw (name, range) pair read off a query match, before it
// is resolved against the schema.
type capture struct {
	name  string
	rng   core.Range
	order int // original emission order, for stable tie-breaking
}

// BuildPending runs query against doc's current CST and assembles the
// Pending tree described in §4.5. It returns the root Pending (nil if the
// query produced no captures at all) and any structural diagnostics
// accumulated along the way.
func BuildPending(ctx context.Context, doc *core.Document, query *sitter.Query, reg *schema.Registry) (*Pending, []core.Diagnostic) {
	return buildPendingOver(doc.RootNode(), doc, query, reg)
}

// BuildPendingInRange is BuildPending restricted to the smallest CST node
// spanning rng, used by the Incremental Updater's dynamic-swap step (§4.8
// step 4) to rebuild a single subtree in isolation rather than the whole
// document.
func BuildPendingInRange(doc *core.Document, query *sitter.Query, reg *schema.Registry, rng core.Range) (*Pending, []core.Diagnostic) {
	scope := doc.RootNode().NamedDescendantForByteRange(rng.Start, rng.End)
	if scope == nil {
		return nil, nil
	}
	return buildPendingOver(scope, doc, query, reg)
}

func buildPendingOver(scope *sitter.Node, doc *core.Document, query *sitter.Query, reg *schema.Registry) (*Pending, []core.Diagnostic) {
	var diags []core.Diagnostic

	captures := collectCaptures(query, scope, doc.Source())
	if len(captures) == 0 {
		return nil, diags
	}

	sort.SliceStable(captures, func(i, j int) bool {
		if captures[i].rng.Start != captures[j].rng.Start {
			return captures[i].rng.Start < captures[j].rng.Start
		}
		// Longer ranges first when start bytes tie.
		return captures[i].rng.Len() > captures[j].rng.Len()
	})

	var stack []*Pending
	var root *Pending

	attach := func(finished *Pending) {
		if len(stack) == 0 {
			if root == nil {
				root = finished
			} else {
				diags = append(diags, core.Diagnostic{
					Range:    finished.Range,
					Severity: core.SeverityError,
					Message:  "multiple top-level root captures; keeping the first",
				})
			}
			return
		}
		parent := stack[len(stack)-1]
		field, ok := parent.Schema.FieldByCapture(finished.Capture)
		if !ok {
			diags = append(diags, core.Diagnostic{
				Range:    finished.Range,
				Severity: core.SeverityError,
				Message:  "capture '" + finished.Capture + "' matches no declared child slot on '" + parent.TypeName + "'",
			})
			parent.orphans = append(parent.orphans, finished)
			return
		}
		if finished.Range.Len() == 0 && !field.AllowZeroWidth {
			diags = append(diags, core.Diagnostic{
				Range:    finished.Range,
				Severity: core.SeverityError,
				Message:  "zero-width capture not permitted for field '" + field.Name + "'",
			})
			return
		}
		slot := parent.slots[field.Name]
		switch field.Kind {
		case schema.FieldSingle:
			if slot.filled {
				diags = append(diags, core.Diagnostic{
					Range:    finished.Range,
					Severity: core.SeverityError,
					Message:  "field '" + field.Name + "' already filled on '" + parent.TypeName + "'",
				})
				return
			}
			slot.single = finished
			slot.filled = true
		case schema.FieldOptional:
			if slot.filled {
				diags = append(diags, core.Diagnostic{
					Range:    finished.Range,
					Severity: core.SeverityError,
					Message:  "optional field '" + field.Name + "' already filled on '" + parent.TypeName + "'",
				})
				return
			}
			slot.single = finished
			slot.filled = true
		case schema.FieldMany:
			slot.many = append(slot.many, finished)
			slot.filled = true
		}
	}

	for _, c := range captures {
		s, ok := reg.ByCapture(c.name)
		if !ok {
			diags = append(diags, core.Diagnostic{
				Range:    c.rng,
				Severity: core.SeverityError,
				Message:  "capture '" + c.name + "' has no registered node schema",
			})
			continue
		}
		node := newPending(s.TypeName, c.name, c.rng, s)

		for len(stack) > 0 && !stack[len(stack)-1].Range.Contains(node.Range) {
			finished := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			attach(finished)
		}
		stack = append(stack, node)
	}

	for len(stack) > 0 {
		finished := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		attach(finished)
	}

	return root, diags
}

// collectCaptures executes query over scope and flattens every match's
// captures into source-ordered (name, range) pairs, applying predicate
// filtering as go-tree-sitter's cursor requires.
func collectCaptures(query *sitter.Query, scope *sitter.Node, src []byte) []capture {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, scope)

	var out []capture
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, src)
		for _, c := range match.Captures {
			name := query.CaptureNameForId(c.Index)
			out = append(out, capture{
				name: name,
				rng:  core.Range{Start: c.Node.StartByte(), End: c.Node.EndByte()},
				order: len(out),
			})
		}
	}
	return out
}

// Single returns the lowered-ready pending child of a `single` field.
func (p *Pending) Single(name string) (*Pending, bool) {
	slot, ok := p.slots[name]
	if !ok || !slot.filled {
		return nil, false
	}
	return slot.single, true
}

// Optional returns the pending child of an `optional` field, if filled.
func (p *Pending) Optional(name string) (*Pending, bool) {
	slot, ok := p.slots[name]
	if !ok || !slot.filled {
		return nil, false
	}
	return slot.single, true
}

// Many returns the pending children of a `many` field, in source order.
func (p *Pending) Many(name string) []*Pending {
	slot, ok := p.slots[name]
	if !ok {
		return nil
	}
	return slot.many
}

// FieldFilled reports whether the named field slot was filled at all.
func (p *Pending) FieldFilled(name string) bool {
	slot, ok := p.slots[name]
	return ok && slot.filled
}
