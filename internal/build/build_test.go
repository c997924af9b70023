package build_test

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	python "github.com/smacker/go-tree-sitter/python"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/syngraph/core"
	"github.com/oxhq/syngraph/internal/build"
	"github.com/oxhq/syngraph/internal/resolve"
	"github.com/oxhq/syngraph/internal/schema"
	"github.com/oxhq/syngraph/internal/symbol"
)

// nameNode and moduleNode are a minimal two-level schema (module containing
// named functions) used to exercise the Pending Builder and Lowering in
// isolation from the full examples/toylang schema.
type nameNode struct {
	cell *symbol.Cell
	Text string
}

func (n *nameNode) SymbolCell() *symbol.Cell { return n.cell }

type moduleNode struct {
	cell  *symbol.Cell
	Names []*nameNode
}

func (m *moduleNode) SymbolCell() *symbol.Cell { return m.cell }
func (m *moduleNode) Children() []symbol.Node {
	out := make([]symbol.Node, 0, len(m.Names))
	for _, n := range m.Names {
		out = append(out, n)
	}
	return out
}

func newTestRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	reg.Register(schema.NodeSchema{
		TypeName:  "name",
		QueryName: "fn.name",
		Construct: func(id uint64, doc string, fields *schema.LoweredFields) (symbol.Node, error) {
			n := &nameNode{Text: fields.Text()}
			n.cell = symbol.New(id, "name", doc, fields.Range)
			return n, nil
		},
	})
	reg.Register(schema.NodeSchema{
		TypeName:  "module",
		QueryName: "module",
		Fields: []schema.FieldSchema{
			{Name: "names", Capture: "fn.name", Kind: schema.FieldMany, Type: schema.Concrete("name")},
		},
		Construct: func(id uint64, doc string, fields *schema.LoweredFields) (symbol.Node, error) {
			nodes := fields.Many("names")
			names := make([]*nameNode, 0, len(nodes))
			for _, n := range nodes {
				names = append(names, n.(*nameNode))
			}
			m := &moduleNode{Names: names}
			m.cell = symbol.New(id, "module", doc, fields.Range)
			return m, nil
		},
	})
	errs := reg.Compile()
	require.Empty(t, errs)
	return reg
}

func testQuery(t *testing.T) *sitter.Query {
	t.Helper()
	q, err := sitter.NewQuery([]byte(`
(module) @module
(function_definition name: (identifier) @fn.name)
`), python.GetLanguage())
	require.NoError(t, err)
	return q
}

func testDoc(t *testing.T, src string) *core.Document {
	t.Helper()
	doc, err := core.NewDocument(context.Background(), "test.py", []byte(src), python.GetLanguage())
	require.NoError(t, err)
	t.Cleanup(doc.Close)
	return doc
}

func TestBuildPendingAssemblesNestedTree(t *testing.T) {
	doc := testDoc(t, "def foo():\n    pass\ndef bar():\n    pass\n")
	reg := newTestRegistry(t)
	query := testQuery(t)

	pending, diags := build.BuildPending(context.Background(), doc, query, reg)
	require.Empty(t, diags)
	require.NotNil(t, pending)
	require.Equal(t, "module", pending.TypeName)
	require.Len(t, pending.Many("names"), 2)
}

func TestBuildPendingInRangeScopesToSubtree(t *testing.T) {
	doc := testDoc(t, "def foo():\n    pass\n")
	reg := newTestRegistry(t)
	query := testQuery(t)

	full, _ := build.BuildPending(context.Background(), doc, query, reg)
	require.NotNil(t, full)

	scoped, diags := build.BuildPendingInRange(doc, query, reg, core.Range{Start: 0, End: uint32(len(doc.Source()))})
	require.Empty(t, diags)
	require.NotNil(t, scoped)
}

func TestLowerProducesTypedASTAndEnqueuesNothingWithoutOptIns(t *testing.T) {
	doc := testDoc(t, "def foo():\n    pass\ndef bar():\n    pass\n")
	reg := newTestRegistry(t)
	query := testQuery(t)

	pending, diags := build.BuildPending(context.Background(), doc, query, reg)
	require.Empty(t, diags)

	lw := &build.Lowerer{
		IDs:        build.NewIDs(),
		Checks:     resolve.NewQueue(),
		References: resolve.NewQueue(),
		Document:   doc,
	}
	root, lowerDiags := lw.Lower(pending)
	require.Empty(t, lowerDiags)

	module, ok := root.(*moduleNode)
	require.True(t, ok)
	require.Len(t, module.Names, 2)
	require.Equal(t, "foo", module.Names[0].Text)
	require.Equal(t, "bar", module.Names[1].Text)

	require.Equal(t, 0, lw.Checks.Len())
	require.Equal(t, 0, lw.References.Len())
}

func TestLowerSetsParentBackEdges(t *testing.T) {
	doc := testDoc(t, "def foo():\n    pass\n")
	reg := newTestRegistry(t)
	query := testQuery(t)

	pending, _ := build.BuildPending(context.Background(), doc, query, reg)
	lw := &build.Lowerer{IDs: build.NewIDs(), Checks: resolve.NewQueue(), References: resolve.NewQueue(), Document: doc}
	root, _ := lw.Lower(pending)

	module := root.(*moduleNode)
	parent, ok := module.Names[0].SymbolCell().Parent()
	require.True(t, ok)
	require.Equal(t, module.SymbolCell(), parent)
}

func TestBuildPendingFlagsUnknownCapture(t *testing.T) {
	doc := testDoc(t, "class Foo: pass\n")
	reg := schema.NewRegistry()
	reg.Register(schema.NodeSchema{
		TypeName:  "module",
		QueryName: "module",
		Construct: func(id uint64, doc string, fields *schema.LoweredFields) (symbol.Node, error) {
			m := &moduleNode{}
			m.cell = symbol.New(id, "module", doc, fields.Range)
			return m, nil
		},
	})
	require.Empty(t, reg.Compile())

	query, err := sitter.NewQuery([]byte(`(class_definition) @class`), python.GetLanguage())
	require.NoError(t, err)

	_, diags := build.BuildPending(context.Background(), doc, query, reg)
	require.NotEmpty(t, diags)
}
