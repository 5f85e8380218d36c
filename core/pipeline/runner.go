package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gaurav-prasanna/sitetrans/core"
)

// RunOptions control a batch run.
type RunOptions struct {
	Workers int
	DryRun  bool
}

// ErrAborted is returned when a run stops before every URL was processed.
var ErrAborted = errors.New("run aborted")

type job struct {
	index int
	url   string
}

// Run processes urls with a pool of workers and aggregates their outcomes
// into a report. Workers send outcomes over a channel; the calling
// goroutine is the only one that touches the report.
//
// A permanent backend error stops dispatch and is returned together with
// the partial report. Cancelling ctx does the same. The failed-URL
// manifest is written whenever at least one URL failed or was never
// reached.
func (p *Pipeline) Run(ctx context.Context, urls []string, opts RunOptions) (*core.RunReport, error) {
	report := &core.RunReport{
		RunID:      uuid.NewString(),
		SourceLang: p.src,
		TargetLang: p.dst,
		DryRun:     opts.DryRun,
		StartedAt:  time.Now().UTC(),
		Total:      len(urls),
	}
	workers := max(1, min(opts.Workers, len(urls)))

	log := p.log.With().Str("run_id", report.RunID).Logger()
	log.Info().
		Int("urls", len(urls)).
		Int("workers", workers).
		Bool("dry_run", opts.DryRun).
		Msg("run started")

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job)
	results := make(chan core.Outcome)

	g.Go(func() error {
		defer close(jobs)
		for i, u := range urls {
			if gctx.Err() != nil {
				return nil
			}
			select {
			case jobs <- job{index: i, url: u}:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for j := range jobs {
				o := p.ProcessURL(gctx, j.url, opts.DryRun)
				o.Index = j.index
				results <- o
				if o.Status == core.StatusFailed && core.IsPermanent(o.Err) {
					return o.Err
				}
			}
			return nil
		})
	}

	var fatal error
	go func() {
		fatal = g.Wait()
		close(results)
	}()

	for o := range results {
		report.Record(o)
		ev := log.Info()
		if o.Status == core.StatusFailed {
			ev = log.Warn().Str("reason", o.Reason)
		}
		ev.Str("url", o.URL).
			Str("status", string(o.Status)).
			Str("stage", string(o.Stage)).
			Dur("took", o.Duration).
			Int("done", report.Processed).
			Int("total", report.Total).
			Msg("url finished")
	}

	sort.SliceStable(report.Outcomes, func(i, k int) bool {
		return report.Outcomes[i].Index < report.Outcomes[k].Index
	})
	report.NotProcessed = undispatched(urls, report.Outcomes)
	report.FinishedAt = time.Now().UTC()

	if fatal == nil && ctx.Err() != nil && report.Processed < report.Total {
		fatal = fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
	}
	report.Aborted = fatal != nil

	if report.Failed > 0 || len(report.NotProcessed) > 0 {
		path, err := p.writer.WriteManifest(report.Failures(), report.NotProcessed, report.FinishedAt)
		if err != nil {
			log.Error().Err(err).Msg("writing failed-URL manifest")
			if fatal == nil {
				fatal = err
			}
		} else {
			report.ManifestPath = path
		}
	}

	log.Info().
		Int("processed", report.Processed).
		Int("success", report.Success).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Int("not_processed", len(report.NotProcessed)).
		Bool("aborted", report.Aborted).
		Msg("run finished")

	return report, fatal
}

// undispatched lists the urls that have no outcome.
func undispatched(urls []string, outcomes []core.Outcome) []string {
	seen := make([]bool, len(urls))
	for _, o := range outcomes {
		if o.Index >= 0 && o.Index < len(seen) {
			seen[o.Index] = true
		}
	}
	var out []string
	for i, u := range urls {
		if !seen[i] {
			out = append(out, u)
		}
	}
	return out
}
