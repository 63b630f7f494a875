package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/vinodismyname/fuelprice/pkg/mcperr"
)

// Middleware bounds tool call concurrency and duration using a Controller.
type Middleware struct {
	ctrl *Controller
}

// NewMiddleware constructs a Middleware bound to the provided Controller.
func NewMiddleware(ctrl *Controller) *Middleware {
	return &Middleware{ctrl: ctrl}
}

// ToolMiddleware wraps next so that each call holds a request slot and runs
// under the operation timeout. Saturation and deadlines become tool errors.
func (m *Middleware) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limits := m.ctrl.limits

		acquireCtx := ctx
		if limits.AcquireRequestTimeout > 0 {
			var cancel context.CancelFunc
			acquireCtx, cancel = context.WithTimeout(ctx, limits.AcquireRequestTimeout)
			defer cancel()
		}
		if err := m.ctrl.AcquireRequest(acquireCtx); err != nil {
			return mcperr.New(mcperr.BusyResource,
				fmt.Sprintf("concurrent request limit reached (max=%d)", limits.MaxConcurrentRequests)), nil
		}
		defer m.ctrl.ReleaseRequest()

		callCtx := ctx
		cancel := func() {}
		if limits.OperationTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, limits.OperationTimeout)
		}
		defer cancel()

		res, err := next(callCtx, req)
		if errors.Is(err, context.DeadlineExceeded) || (err == nil && res == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded)) {
			return mcperr.New(mcperr.Timeout, ""), nil
		}
		return res, err
	}
}
