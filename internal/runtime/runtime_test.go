package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/fuelprice/config"
)

func TestNewLimits_Defaults(t *testing.T) {
	limits := NewLimits(0, -1)
	require.Equal(t, config.DefaultMaxConcurrentRequests, limits.MaxConcurrentRequests)
	require.Equal(t, config.DefaultMaxOpenDatasets, limits.MaxOpenDatasets)
	require.Equal(t, config.DefaultMaxParallelPasses, limits.MaxParallelPasses)
}

func TestLimits_PageSize(t *testing.T) {
	limits := NewLimits(1, 1)
	require.Equal(t, config.DefaultPageSize, limits.PageSize(0))
	require.Equal(t, 7, limits.PageSize(7))
	require.Equal(t, config.MaxPageSize, limits.PageSize(config.MaxPageSize+1))
}

func TestControllerAcquireRelease(t *testing.T) {
	limits := NewLimits(1, 1)
	controller := NewController(limits)

	require.Equal(t, limits, controller.LimitsSnapshot())

	require.NoError(t, controller.AcquireRequest(context.Background()))
	controller.ReleaseRequest()

	require.NoError(t, controller.AcquireDataset(context.Background()))
	require.False(t, controller.TryAcquireDataset())
	controller.ReleaseDataset()
	require.True(t, controller.TryAcquireDataset())
	controller.ReleaseDataset()
}
