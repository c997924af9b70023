// Package symbol implements the Symbol Core (C2): the shared, interior
// mutable AST cell every node type embeds. A Cell owns its range, its
// document identity, and the three back-edge families the spec requires —
// parent, referrers, target — all weak so that strong ownership stays a
// tree (§3 invariant 3).
package symbol

import (
	"sync"
	"weak"

	"github.com/oxhq/syngraph/core"
)

// Node is the uniform handle capability dispatch and the resolver queues
// operate on: anything with a Cell. Concrete schema-generated node types
// satisfy this by holding a *Cell and returning it from SymbolCell.
type Node interface {
	SymbolCell() *Cell
}

// Cell is the universal AST cell described in spec.md §3. Each field access
// goes through the reader/writer discipline of §5: readers may run
// concurrently, writers are exclusive per cell, and the framework never
// holds a write lock on one cell while acquiring a lock on another (see
// internal/resolve for the one place that needs two cells at once).
type Cell struct {
	mu sync.RWMutex

	id       uint64
	typeName string
	rng      core.Range
	doc      string // owning document URI; immutable per symbol

	parent    weak.Pointer[Cell]
	hasParent bool

	referrers map[uint64]weak.Pointer[Cell]

	target    weak.Pointer[Cell]
	hasTarget bool

	// self is a weak pointer to this very cell, handed out to children as
	// their parent and to resolved targets as a referrer. It is populated
	// by New and never mutated afterwards.
	self weak.Pointer[Cell]

	// owner is the concrete, capability-implementing node value that
	// embeds this Cell. It is set once, immediately after construction
	// (see internal/build.Lower), so that graph traversal (Parent,
	// Target, Referrers) can hand back something capability dispatch can
	// type-assert against instead of a bare Cell.
	owner Node
}

// New allocates a Cell for a node of the given schema type name, covering
// range rng in document doc. The caller is responsible for keeping the
// returned *Cell strongly reachable (normally: owned by its parent's
// field slot, or by the root holder).
func New(id uint64, typeName string, doc string, rng core.Range) *Cell {
	c := &Cell{
		id:        id,
		typeName:  typeName,
		doc:       doc,
		rng:       rng,
		referrers: make(map[uint64]weak.Pointer[Cell]),
	}
	c.self = weak.Make(c)
	return c
}

// SetOwner records the concrete node value that embeds this Cell. Called
// exactly once, right after construction.
func (c *Cell) SetOwner(n Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owner = n
}

// Owner returns the concrete node value capability dispatch type-asserts
// against.
func (c *Cell) Owner() Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.owner
}

// ParentNode is Parent() followed by Owner(), the usual way callers walk
// upward looking for a capability implementation.
func (c *Cell) ParentNode() (Node, bool) {
	p, ok := c.Parent()
	if !ok {
		return nil, false
	}
	return p.Owner(), true
}

// TargetNode is Target() followed by Owner().
func (c *Cell) TargetNode() (Node, bool) {
	t, ok := c.Target()
	if !ok {
		return nil, false
	}
	return t.Owner(), true
}

// ReferrerNodes is Referrers() followed by Owner() on each live referrer.
func (c *Cell) ReferrerNodes() []Node {
	cells := c.Referrers()
	out := make([]Node, 0, len(cells))
	for _, rc := range cells {
		if o := rc.Owner(); o != nil {
			out = append(out, o)
		}
	}
	return out
}

// ID returns the symbol's identity, stable for its lifetime.
func (c *Cell) ID() uint64 { return c.id }

// TypeName returns the schema-declared node type name.
func (c *Cell) TypeName() string { return c.typeName }

// Document returns the owning document's URI.
func (c *Cell) Document() string { return c.doc }

// Weak returns a weak handle to this cell, suitable for storing as someone
// else's parent/referrer/target edge.
func (c *Cell) Weak() weak.Pointer[Cell] { return c.self }

// Range returns the symbol's current byte range.
func (c *Cell) Range() core.Range {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rng
}

// SetRangeShift adds delta to both endpoints of the range; delta may be
// negative, and an endpoint that would go below zero is clamped to zero.
func (c *Cell) SetRangeShift(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rng.Start = shiftOffset(c.rng.Start, delta)
	c.rng.End = shiftOffset(c.rng.End, delta)
}

// SetRange overwrites the range outright. The Incremental Updater's
// range-shift pass (§4.8 step 2) uses it, since it adjusts Start and End
// independently.
func (c *Cell) SetRange(r core.Range) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rng = r
}

func shiftOffset(offset uint32, delta int64) uint32 {
	shifted := int64(offset) + delta
	if shifted < 0 {
		return 0
	}
	return uint32(shifted)
}

// Parent upgrades the weak parent edge. Returns (nil, false) if there is no
// parent (symbol is the root) or if the parent has been dropped.
func (c *Cell) Parent() (*Cell, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasParent {
		return nil, false
	}
	p := c.parent.Value()
	return p, p != nil
}

// SetParent injects the parent weak-ref, done immediately after
// construction per §4.6 ("the new symbol's parent weak-ref is injected
// into every direct child").
func (c *Cell) SetParent(parent *Cell) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parent = parent.Weak()
	c.hasParent = true
}

// Target upgrades the weak target edge of a reference symbol. Returns
// (nil, false) if this symbol has never resolved, or its target died.
func (c *Cell) Target() (*Cell, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasTarget {
		return nil, false
	}
	t := c.target.Value()
	return t, t != nil
}

// SetTarget records the resolved target on a reference symbol. Per the
// lock-ordering rule in §5, the caller must not be holding c's lock when
// it then calls target.AddReferrer(c) — SetTarget only ever touches c.
func (c *Cell) SetTarget(target *Cell) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target.Weak()
	c.hasTarget = true
}

// ClearTarget drops a previously resolved target, used when a reference's
// subtree is swapped or reparsed and must re-enter the resolver queue.
func (c *Cell) ClearTarget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasTarget = false
	c.target = weak.Pointer[Cell]{}
}

// AddReferrer records that referrer resolved to this symbol. Acquired as
// its own brief write lock, never nested under the referrer's lock (§5).
func (c *Cell) AddReferrer(referrer *Cell) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.referrers[referrer.id] = referrer.Weak()
}

// RemoveReferrer drops a referrer entry, used when a reference symbol is
// replaced during a swap and must detach from its old target before
// re-resolving.
func (c *Cell) RemoveReferrer(referrerID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.referrers, referrerID)
}

// Referrers returns the currently-live referrer cells. Dead weak handles
// are filtered out per §3 invariant 3 ("dangling weaks MUST be filtered by
// consumers") rather than eagerly removed from the map.
func (c *Cell) Referrers() []*Cell {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Cell, 0, len(c.referrers))
	for _, w := range c.referrers {
		if live := w.Value(); live != nil {
			out = append(out, live)
		}
	}
	return out
}
