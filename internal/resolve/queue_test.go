package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/syngraph/core"
	"github.com/oxhq/syngraph/internal/resolve"
	"github.com/oxhq/syngraph/internal/symbol"
)

func TestQueuePushLenContains(t *testing.T) {
	q := resolve.NewQueue()
	require.Equal(t, 0, q.Len())

	c := symbol.New(1, "leaf", "doc.py", core.Range{})
	q.Push(c.Weak())
	require.Equal(t, 1, q.Len())
	require.True(t, q.Contains(1))
	require.False(t, q.Contains(2))
}
