package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/syngraph/core"
)

func TestFrameworkErrorMessage(t *testing.T) {
	err := core.FrameworkError{Code: core.ErrCodeSchemaConflict, Message: "schema conflict"}
	require.Equal(t, "schema conflict", err.Error())

	err.Detail = "capture 'x' already used"
	require.Equal(t, "schema conflict: capture 'x' already used", err.Error())
}

func TestWrapWithAndWithoutInner(t *testing.T) {
	wrapped := core.Wrap(core.ErrCodeBuild, "build failed", errors.New("underlying"))
	require.EqualError(t, wrapped, "build failed: underlying")

	bare := core.Wrap(core.ErrCodeBuild, "build failed", nil)
	require.EqualError(t, bare, "build failed")
}
