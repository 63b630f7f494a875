package registry

import (
	"context"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"
	"github.com/vinodismyname/fuelprice/config"
)

// WriteToolFilter hides tools that create files unless writes are enabled
// with FUELPRICE_ENABLE_WRITES.
type WriteToolFilter struct {
	allowWrites bool
}

// NewWriteToolFilter constructs a filter with an explicit setting.
func NewWriteToolFilter(allowWrites bool) *WriteToolFilter {
	return &WriteToolFilter{allowWrites: allowWrites}
}

// NewWriteToolFilterFromEnv enables writes for "1", "true" or "yes".
func NewWriteToolFilterFromEnv() *WriteToolFilter {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(config.EnvEnableWrites)))
	return NewWriteToolFilter(v == "1" || v == "true" || v == "yes")
}

// AllowWrites reports whether write tools are exposed.
func (f *WriteToolFilter) AllowWrites() bool { return f.allowWrites }

// FilterTools drops export_ tools from discovery when writes are disabled.
func (f *WriteToolFilter) FilterTools(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	if f.allowWrites {
		return tools
	}
	return lo.Reject(tools, func(t mcp.Tool, _ int) bool { return isWriteTool(t.Name) })
}

func isWriteTool(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "export_")
}
