package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/vinodismyname/fuelprice/config"
	"github.com/vinodismyname/fuelprice/internal/datasets"
	"github.com/vinodismyname/fuelprice/internal/registry"
	"github.com/vinodismyname/fuelprice/internal/runtime"
	"github.com/vinodismyname/fuelprice/internal/security"
	"github.com/vinodismyname/fuelprice/internal/telemetry"
	"github.com/vinodismyname/fuelprice/pkg/version"
)

type serveCmd struct {
	useStdio        bool
	envFile         string
	shutdownTimeout time.Duration
	maxRequests     int
	maxDatasets     int
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the survey tools as an MCP server" }
func (*serveCmd) Usage() string {
	return `fuelprice serve -stdio [-env-file <file>] [-max-requests n] [-max-datasets n]

  Serves load_survey, monthly_city_average, regional_average,
  monthly_dispersion, top_spread and close_survey over MCP. Survey files
  must live under ` + config.EnvAllowedDirs + `. export_workbook is listed only
  when ` + config.EnvEnableWrites + `=true.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.useStdio, "stdio", false, "run server over stdio transport")
	f.StringVar(&c.envFile, "env-file", "", "dotenv file with FUELPRICE_* settings; set variables win")
	f.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 5*time.Second, "graceful shutdown timeout")
	f.IntVar(&c.maxRequests, "max-requests", config.DefaultMaxConcurrentRequests, "concurrent tool calls")
	f.IntVar(&c.maxDatasets, "max-datasets", config.DefaultMaxOpenDatasets, "loaded datasets")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stderr).
		Level(zerolog.Ctx(ctx).GetLevel()).
		With().Timestamp().Str("service", "fuelprice-mcp").Logger()
	ctx = logger.WithContext(ctx)

	if !c.useStdio {
		fmt.Fprintln(os.Stderr, "no transport selected; use -stdio to run over stdio")
		return subcommands.ExitUsageError
	}

	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil {
			logger.Error().Err(err).Str("path", c.envFile).Msg("failed to load env file")
			return subcommands.ExitFailure
		}
	}

	secMgr, err := security.NewManagerFromEnv()
	if err != nil {
		logger.Error().Err(err).Msg("security: failed to initialize manager from env")
		return subcommands.ExitFailure
	}
	if err := secMgr.ValidateConfig(); err != nil {
		logger.Error().Err(err).Msg("security: invalid allow-list configuration")
		return subcommands.ExitFailure
	}
	logger.Info().Strs("allowed_dirs", secMgr.AllowedDirectories()).Msg("security allow-list configured")

	limits := runtime.NewLimits(c.maxRequests, c.maxDatasets)
	ctrl := runtime.NewController(limits)
	hooks := telemetry.NewHooks(logger)

	mgr := datasets.NewManager(config.DefaultDatasetIdleTTL, config.DefaultDatasetCleanupPeriod,
		datasets.WithGate(ctrl),
		datasets.WithSlotWait(limits.AcquireRequestTimeout),
		datasets.WithValidator(secMgr),
	)
	mgr.Start()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
		defer cancel()
		if err := mgr.Close(sctx); err != nil {
			logger.Warn().Err(err).Msg("dataset cache did not close cleanly")
		}
	}()

	writeFilter := registry.NewWriteToolFilterFromEnv()
	srv := server.NewMCPServer(
		"Fuel Price Survey Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(hooks.Server()),
		server.WithToolHandlerMiddleware(hooks.ToolMiddleware),
		server.WithToolHandlerMiddleware(runtime.NewMiddleware(ctrl).ToolMiddleware),
		server.WithToolFilter(func(ctx context.Context, tools []mcp.Tool) []mcp.Tool { return writeFilter.FilterTools(ctx, tools) }),
	)

	toolRegistry := registry.New()
	registry.RegisterSurveyTools(srv, toolRegistry, registry.Deps{
		Datasets:    mgr,
		Writes:      secMgr,
		AllowWrites: writeFilter.AllowWrites(),
		Limits:      limits,
		Observe:     hooks.OnPass,
	})

	logger.Info().
		Str("version", version.Version()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_open_datasets", limits.MaxOpenDatasets).
		Bool("writes_enabled", writeFilter.AllowWrites()).
		Msg("server bootstrap configured")

	err = server.ServeStdio(srv, server.WithStdioContextFunc(func(sctx context.Context) context.Context {
		return logger.WithContext(sctx)
	}))
	if err != nil {
		// stdout belongs to the transport
		logger.Error().Err(err).Msg("server error")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
