package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	old := version
	t.Cleanup(func() { version = old })

	Set("")
	require.True(t, strings.HasPrefix(Version(), "dev"))

	Set("v0.3.0")
	require.Equal(t, "v0.3.0", Version())
}
