// Command fuelprice analyses the weekly municipal fuel-price survey.
//
// Without arguments it reads SEMANAL_MUNICIPIOS-2019.csv from the working
// directory and prints every result set, like "fuelprice report".
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&reportCmd{}, "analysis")
	commander.Register(&exportCmd{}, "analysis")
	commander.Register(&serveCmd{}, "server")
	commander.Register(&versionCmd{}, "")

	flag.Parse()

	logger := consoleLogger(*verbose)
	ctx, stop := signal.NotifyContext(logger.WithContext(context.Background()), os.Interrupt)
	defer stop()

	var status subcommands.ExitStatus
	if flag.NArg() == 0 {
		status = runDefault(ctx)
	} else {
		status = commander.Execute(ctx)
	}
	stop()
	os.Exit(int(status))
}

// consoleLogger writes human-readable logs to stderr; stdout carries the report.
func consoleLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
}

// runDefault runs the report subcommand with its default flags.
func runDefault(ctx context.Context) subcommands.ExitStatus {
	cmd := &reportCmd{}
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	return cmd.Execute(ctx, fs)
}
