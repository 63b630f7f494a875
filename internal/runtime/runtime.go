package runtime

import (
	"context"
	"time"

	"github.com/vinodismyname/fuelprice/config"
	"golang.org/x/sync/semaphore"
)

// Limits holds the guardrails shared by the MCP server and the dataset cache.
type Limits struct {
	// Concurrency caps
	MaxConcurrentRequests int
	MaxOpenDatasets       int
	MaxParallelPasses     int

	// Result paging
	DefaultPageSize int
	MaxPageSize     int

	// Timeouts
	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
}

// NewLimits fills unset caps from config defaults.
func NewLimits(maxConcurrentRequests, maxOpenDatasets int) Limits {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if maxOpenDatasets <= 0 {
		maxOpenDatasets = config.DefaultMaxOpenDatasets
	}

	return Limits{
		MaxConcurrentRequests: maxConcurrentRequests,
		MaxOpenDatasets:       maxOpenDatasets,
		MaxParallelPasses:     config.DefaultMaxParallelPasses,
		DefaultPageSize:       config.DefaultPageSize,
		MaxPageSize:           config.MaxPageSize,
		OperationTimeout:      config.DefaultOperationTimeout,
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
	}
}

// PageSize clamps a requested page size into [1, MaxPageSize], using
// DefaultPageSize when requested is not positive.
func (l Limits) PageSize(requested int) int {
	switch {
	case requested <= 0:
		return l.DefaultPageSize
	case requested > l.MaxPageSize:
		return l.MaxPageSize
	}
	return requested
}

// Controller owns the request and dataset semaphores.
type Controller struct {
	limits           Limits
	requestSemaphore *semaphore.Weighted
	datasetSemaphore *semaphore.Weighted
}

// NewController constructs a Controller backed by weighted semaphores.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:           limits,
		requestSemaphore: semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
		datasetSemaphore: semaphore.NewWeighted(int64(limits.MaxOpenDatasets)),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSemaphore.Acquire(ctx, 1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSemaphore.Release(1)
}

// AcquireDataset reserves a loaded dataset slot.
func (c *Controller) AcquireDataset(ctx context.Context) error {
	return c.datasetSemaphore.Acquire(ctx, 1)
}

// TryAcquireDataset reserves a slot without waiting.
func (c *Controller) TryAcquireDataset() bool {
	return c.datasetSemaphore.TryAcquire(1)
}

// ReleaseDataset frees a loaded dataset slot.
func (c *Controller) ReleaseDataset() {
	c.datasetSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}
