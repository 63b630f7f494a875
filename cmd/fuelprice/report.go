package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/vinodismyname/fuelprice/config"
	"github.com/vinodismyname/fuelprice/internal/report"
)

type reportCmd struct {
	analysisFlags
	plain bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print every result set of the survey" }
func (*reportCmd) Usage() string {
	return `fuelprice report [-input <file>] [-top n] [-plain] [-weighted]

  Prints monthly city averages, state and region averages, monthly
  dispersion and the top price spreads per product as markdown tables.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "input", config.DefaultInputPath, "survey CSV file")
	f.IntVar(&c.top, "top", config.DefaultTopN, "cities per product in the spread ranking")
	f.BoolVar(&c.plain, "plain", false, "print raw markdown instead of rendering it")
	f.BoolVar(&c.weighted, "weighted", false, "also print station-weighted monthly averages")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.top < 1 {
		zerolog.Ctx(ctx).Error().Int("top", c.top).Msg("-top must be at least 1")
		return subcommands.ExitUsageError
	}
	rep, err := analyse(ctx, c.analysisFlags)
	if err != nil {
		return failure(ctx, err)
	}
	if err := report.Render(os.Stdout, report.Markdown(rep), c.plain); err != nil {
		return failure(ctx, err)
	}
	return subcommands.ExitSuccess
}
