package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/vinodismyname/fuelprice/config"
	"github.com/vinodismyname/fuelprice/internal/export"
	"github.com/vinodismyname/fuelprice/pkg/validation"
)

type exportCmd struct {
	analysisFlags
	xlsx   string
	sqlite string
}

// exportTargets is validated with the shared validator.
type exportTargets struct {
	XLSX   string `json:"xlsx" validate:"omitempty,endswith=.xlsx"`
	SQLite string `json:"sqlite" validate:"omitempty,exportpath"`
	Top    int    `json:"top" validate:"min=1"`
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write every result set to xlsx and/or sqlite" }
func (*exportCmd) Usage() string {
	return `fuelprice export [-input <file>] [-top n] [-weighted] [-xlsx <file.xlsx>] [-sqlite <file.db>]

  Writes one sheet (xlsx) or one table (sqlite) per result set. At least
  one of -xlsx and -sqlite is required.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "input", config.DefaultInputPath, "survey CSV file")
	f.IntVar(&c.top, "top", config.DefaultTopN, "cities per product in the spread ranking")
	f.BoolVar(&c.weighted, "weighted", false, "include station-weighted monthly averages")
	f.StringVar(&c.xlsx, "xlsx", "", "workbook to write")
	f.StringVar(&c.sqlite, "sqlite", "", "sqlite database to write")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger := zerolog.Ctx(ctx)
	if c.xlsx == "" && c.sqlite == "" {
		logger.Error().Msg("nothing to export: set -xlsx and/or -sqlite")
		f.Usage()
		return subcommands.ExitUsageError
	}
	if msg := validation.ValidateStruct(exportTargets{XLSX: c.xlsx, SQLite: c.sqlite, Top: c.top}); msg != "" {
		logger.Error().Msg(msg)
		return subcommands.ExitUsageError
	}

	rep, err := analyse(ctx, c.analysisFlags)
	if err != nil {
		return failure(ctx, err)
	}
	if c.xlsx != "" {
		if err := export.WriteXLSX(c.xlsx, rep); err != nil {
			return failure(ctx, err)
		}
		logger.Info().Str("path", c.xlsx).Msg("workbook written")
	}
	if c.sqlite != "" {
		if err := export.WriteSQLite(ctx, c.sqlite, rep); err != nil {
			return failure(ctx, err)
		}
		logger.Info().Str("path", c.sqlite).Msg("database written")
	}
	return subcommands.ExitSuccess
}
