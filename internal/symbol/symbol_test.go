package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/syngraph/core"
	"github.com/oxhq/syngraph/internal/symbol"
)

func TestNewCellBasics(t *testing.T) {
	c := symbol.New(1, "function", "doc.py", core.Range{Start: 0, End: 10})
	require.Equal(t, uint64(1), c.ID())
	require.Equal(t, "function", c.TypeName())
	require.Equal(t, "doc.py", c.Document())
	require.Equal(t, core.Range{Start: 0, End: 10}, c.Range())
}

func TestCellOwner(t *testing.T) {
	c := symbol.New(1, "function", "doc.py", core.Range{})
	require.Nil(t, c.Owner())

	owner := &fakeNode{cell: c}
	c.SetOwner(owner)
	require.Equal(t, symbol.Node(owner), c.Owner())
}

func TestCellParentEdge(t *testing.T) {
	parent := symbol.New(1, "module", "doc.py", core.Range{Start: 0, End: 100})
	child := symbol.New(2, "function", "doc.py", core.Range{Start: 0, End: 20})

	_, ok := child.Parent()
	require.False(t, ok)

	child.SetParent(parent)
	got, ok := child.Parent()
	require.True(t, ok)
	require.Equal(t, parent, got)

	parent.SetOwner(&fakeNode{cell: parent})
	parentNode, ok := child.ParentNode()
	require.True(t, ok)
	require.Equal(t, parent, parentNode.SymbolCell())
}

func TestCellTargetAndReferrers(t *testing.T) {
	ref := symbol.New(1, "reference", "doc.py", core.Range{})
	target := symbol.New(2, "function.name", "doc.py", core.Range{})

	_, ok := ref.Target()
	require.False(t, ok)

	ref.SetTarget(target)
	got, ok := ref.Target()
	require.True(t, ok)
	require.Equal(t, target, got)

	target.AddReferrer(ref)
	referrers := target.Referrers()
	require.Len(t, referrers, 1)
	require.Equal(t, ref, referrers[0])

	target.RemoveReferrer(ref.ID())
	require.Empty(t, target.Referrers())

	ref.ClearTarget()
	_, ok = ref.Target()
	require.False(t, ok)
}

func TestCellRangeShift(t *testing.T) {
	c := symbol.New(1, "function", "doc.py", core.Range{Start: 10, End: 20})
	c.SetRangeShift(5)
	require.Equal(t, core.Range{Start: 15, End: 25}, c.Range())

	c.SetRangeShift(-100)
	require.Equal(t, core.Range{Start: 0, End: 0}, c.Range())
}

func TestCellSetRange(t *testing.T) {
	c := symbol.New(1, "function", "doc.py", core.Range{Start: 0, End: 5})
	c.SetRange(core.Range{Start: 3, End: 9})
	require.Equal(t, core.Range{Start: 3, End: 9}, c.Range())
}

func TestReferrerNodesSkipsOwnerless(t *testing.T) {
	target := symbol.New(1, "function.name", "doc.py", core.Range{})
	ref := symbol.New(2, "reference", "doc.py", core.Range{})
	target.AddReferrer(ref)

	// ref has no owner set yet: ReferrerNodes must skip it rather than
	// return a nil Node.
	require.Empty(t, target.ReferrerNodes())

	ref.SetOwner(&fakeNode{cell: ref})
	require.Len(t, target.ReferrerNodes(), 1)
}

type fakeNode struct{ cell *symbol.Cell }

func (f *fakeNode) SymbolCell() *symbol.Cell { return f.cell }
