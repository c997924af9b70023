package capability_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/syngraph/core"
	"github.com/oxhq/syngraph/internal/capability"
	"github.com/oxhq/syngraph/internal/symbol"
)

// leaf has no Children(); composite declares two.
type leaf struct{ cell *symbol.Cell }

func (l *leaf) SymbolCell() *symbol.Cell { return l.cell }

type composite struct {
	cell     *symbol.Cell
	children []symbol.Node
}

func (c *composite) SymbolCell() *symbol.Cell  { return c.cell }
func (c *composite) Children() []symbol.Node   { return c.children }

func newLeaf(id uint64, rng core.Range) *leaf {
	l := &leaf{}
	l.cell = symbol.New(id, "leaf", "doc.py", rng)
	l.cell.SetOwner(l)
	return l
}

func TestChildrenReturnsNilForLeaf(t *testing.T) {
	l := newLeaf(1, core.Range{})
	require.Nil(t, capability.Children(l))
}

func TestChildrenReturnsDeclaredChildren(t *testing.T) {
	a := newLeaf(1, core.Range{Start: 0, End: 5})
	b := newLeaf(2, core.Range{Start: 5, End: 10})
	c := &composite{children: []symbol.Node{a, b}}
	c.cell = symbol.New(3, "composite", "doc.py", core.Range{Start: 0, End: 10})
	c.cell.SetOwner(c)

	got := capability.Children(c)
	require.Equal(t, []symbol.Node{a, b}, got)
}

func TestDefaultFindAtOffsetDescendsToDeepestMatch(t *testing.T) {
	a := newLeaf(1, core.Range{Start: 0, End: 5})
	b := newLeaf(2, core.Range{Start: 5, End: 10})
	c := &composite{children: []symbol.Node{a, b}}
	c.cell = symbol.New(3, "composite", "doc.py", core.Range{Start: 0, End: 10})
	c.cell.SetOwner(c)

	found, ok := capability.DefaultFindAtOffset(c, 7)
	require.True(t, ok)
	require.Same(t, b, found)

	found, ok = capability.DefaultFindAtOffset(c, 2)
	require.True(t, ok)
	require.Same(t, a, found)
}

func TestDefaultFindAtOffsetOutOfRange(t *testing.T) {
	a := newLeaf(1, core.Range{Start: 0, End: 5})
	_, ok := capability.DefaultFindAtOffset(a, 99)
	require.False(t, ok)
}

func TestDefaultFindAtOffsetFallsBackToSelfWhenNoChildCovers(t *testing.T) {
	c := &composite{children: nil}
	c.cell = symbol.New(1, "composite", "doc.py", core.Range{Start: 0, End: 10})
	c.cell.SetOwner(c)

	found, ok := capability.DefaultFindAtOffset(c, 4)
	require.True(t, ok)
	require.Same(t, c, found)
}

func TestForwardHoverWithNilTarget(t *testing.T) {
	h, ok := capability.ForwardHover(nil, nil, 0)
	require.False(t, ok)
	require.Equal(t, capability.Hover{}, h)
}

type hoverTarget struct{ cell *symbol.Cell }

func (h *hoverTarget) SymbolCell() *symbol.Cell { return h.cell }
func (h *hoverTarget) Hover(offset uint32) (capability.Hover, bool) {
	return capability.Hover{Contents: "docs"}, true
}

func TestForwardHoverForwardsToTarget(t *testing.T) {
	target := &hoverTarget{cell: symbol.New(1, "function.name", "doc.py", core.Range{})}
	h, ok := capability.ForwardHover(nil, target, 0)
	require.True(t, ok)
	require.Equal(t, "docs", h.Contents)
}
