package core_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/syngraph/core"
)

func TestDiagnosticSinkAddAndAll(t *testing.T) {
	var sink core.DiagnosticSink
	sink.Add(core.Diagnostic{Range: core.Range{Start: 0, End: 1}, Severity: core.SeverityError, Message: "boom"})
	sink.Addf(core.Range{Start: 2, End: 3}, core.SeverityWarning, "bad value %d", 42)

	all := sink.All()
	require.Len(t, all, 2)
	require.Equal(t, "boom", all[0].Message)
	require.Equal(t, "bad value 42", all[1].Message)
	require.Equal(t, core.SeverityWarning, all[1].Severity)
}

func TestDiagnosticSinkReset(t *testing.T) {
	var sink core.DiagnosticSink
	sink.Add(core.Diagnostic{Message: "x"})
	sink.Reset()
	require.Empty(t, sink.All())
}
