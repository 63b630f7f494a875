package aggregate

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/vinodismyname/fuelprice/config"
	"github.com/vinodismyname/fuelprice/internal/survey"
	"golang.org/x/sync/errgroup"
)

// Report bundles every result set of one run.
type Report struct {
	MonthlyAverages []MonthlyCityAverage  `json:"monthly_averages"`
	MonthlyWeighted []MonthlyCityWeighted `json:"monthly_weighted,omitempty"`
	StateAverages   []StateAverage        `json:"state_averages"`
	RegionAverages  []RegionAverage       `json:"region_averages"`
	Variances       []MonthlyVariance     `json:"variances"`
	Ranges          []MonthlyRange        `json:"ranges"`
	TopSpreads      []ProductRanking      `json:"top_spreads"`
	TopN            int                   `json:"top_n"`
}

// PassObserver is notified after each pass completes. It may be called
// from several goroutines at once.
type PassObserver func(pass string, groups int, elapsed time.Duration)

// Options tunes Run. Zero values fall back to config defaults.
type Options struct {
	TopN        int
	MaxParallel int
	Weighted    bool // also compute MonthlyCityWeightedAverages
	Observe     PassObserver
}

// Run executes every pass over rows concurrently. Passes only read rows and
// each writes its own Report field.
func Run(ctx context.Context, rows []survey.Normalized, opts Options) (*Report, error) {
	if opts.TopN <= 0 {
		opts.TopN = config.DefaultTopN
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = config.DefaultMaxParallelPasses
	}
	logger := zerolog.Ctx(ctx)
	rep := &Report{TopN: opts.TopN}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxParallel)

	pass := func(name string, fn func() int) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			n := fn()
			elapsed := time.Since(start)
			logger.Debug().Str("pass", name).Int("groups", n).Dur("elapsed", elapsed).Msg("aggregation pass completed")
			if opts.Observe != nil {
				opts.Observe(name, n, elapsed)
			}
			return nil
		})
	}

	pass("monthly_average", func() int {
		rep.MonthlyAverages = MonthlyCityAverages(rows)
		return len(rep.MonthlyAverages)
	})
	if opts.Weighted {
		pass("monthly_weighted", func() int {
			rep.MonthlyWeighted = MonthlyCityWeightedAverages(rows)
			return len(rep.MonthlyWeighted)
		})
	}
	pass("state_average", func() int {
		rep.StateAverages = StateAverages(rows)
		return len(rep.StateAverages)
	})
	pass("region_average", func() int {
		rep.RegionAverages = RegionAverages(rows)
		return len(rep.RegionAverages)
	})
	pass("monthly_variance", func() int {
		rep.Variances = MonthlyVariances(rows)
		return len(rep.Variances)
	})
	pass("monthly_range", func() int {
		rep.Ranges = MonthlyRanges(rows)
		return len(rep.Ranges)
	})
	pass("top_spread", func() int {
		rep.TopSpreads = TopSpreads(rows, opts.TopN)
		return len(rep.TopSpreads)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rep, nil
}
