package config

import "time"

// Default inputs and guardrails for the fuel-price survey analyser.
// They are referenced by cmd/fuelprice, internal/runtime and internal/datasets.

const (
	// Input
	DefaultInputPath = "SEMANAL_MUNICIPIOS-2019.csv"
	DefaultTopN      = 5
)

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxOpenDatasets       = 4
	DefaultMaxParallelPasses     = 4

	// Paging of result tables served over MCP
	DefaultPageSize = 200
	MaxPageSize     = 2_000
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second

	// Loaded dataset cache
	DefaultDatasetIdleTTL       = 15 * time.Minute
	DefaultDatasetCleanupPeriod = time.Minute
)

const (
	// Environment
	EnvAllowedDirs  = "FUELPRICE_ALLOWED_DIRS"
	EnvEnableWrites = "FUELPRICE_ENABLE_WRITES"
)
