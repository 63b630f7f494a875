package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// Hooks logs server lifecycle and pipeline events and keeps per-pass
// counters for the tools that report them.
type Hooks struct {
	logger zerolog.Logger

	mu     sync.Mutex
	passes map[string]PassStats
}

// PassStats accumulates timings of one aggregation pass.
type PassStats struct {
	Runs    int           `json:"runs"`
	Groups  int           `json:"groups"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// NewHooks constructs a Hooks instance with the provided logger.
func NewHooks(logger zerolog.Logger) *Hooks {
	return &Hooks{logger: logger, passes: map[string]PassStats{}}
}

// OnPass records one completed aggregation pass. Safe for concurrent use;
// its signature matches aggregate.PassObserver.
func (h *Hooks) OnPass(pass string, groups int, elapsed time.Duration) {
	h.mu.Lock()
	s := h.passes[pass]
	s.Runs++
	s.Groups = groups
	s.Elapsed += elapsed
	h.passes[pass] = s
	h.mu.Unlock()

	h.logger.Debug().Str("pass", pass).Int("groups", groups).Dur("elapsed", elapsed).Msg("pass completed")
}

// Passes returns a copy of the accumulated pass statistics.
func (h *Hooks) Passes() map[string]PassStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]PassStats, len(h.passes))
	for k, v := range h.passes {
		out[k] = v
	}
	return out
}

// OnToolCall logs tool invocations and their outcomes.
func (h *Hooks) OnToolCall(tool string, duration time.Duration, failed bool) {
	if failed {
		h.logger.Warn().Str("tool", tool).Dur("duration", duration).Msg("tool call returned error")
		return
	}
	h.logger.Info().Str("tool", tool).Dur("duration", duration).Msg("tool call completed")
}

// Server builds the mcp-go session and error hooks. Tool calls are timed by
// ToolMiddleware instead.
func (h *Hooks) Server() *server.Hooks {
	hooks := &server.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		h.logger.Info().Str("session_id", session.SessionID()).Msg("session registered")
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		h.logger.Info().Str("session_id", session.SessionID()).Msg("session unregistered")
	})
	hooks.AddAfterListTools(func(ctx context.Context, id any, req *mcp.ListToolsRequest, res *mcp.ListToolsResult) {
		h.logger.Info().Int("tools", len(res.Tools)).Msg("list_tools served")
	})
	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		h.logger.Error().Str("method", string(method)).Err(err).Msg("request error")
	})
	return hooks
}

// ToolMiddleware times each tool call and reports it through OnToolCall.
func (h *Hooks) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		started := time.Now()
		res, err := next(ctx, req)
		h.OnToolCall(req.Params.Name, time.Since(started), err != nil || (res != nil && res.IsError))
		return res, err
	}
}
