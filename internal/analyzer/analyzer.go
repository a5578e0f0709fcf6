package analyzer

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/gammazero/workerpool"
	"github.com/samber/lo"

	"github.com/HMasataka/avgap/internal/ingest"
	"github.com/HMasataka/avgap/internal/runstore"
	"github.com/HMasataka/avgap/payload/analyze"
	"github.com/HMasataka/avgap/pkg/gap"
)

type Options struct {
	MaxWorkers          int
	SlackMinutes        int
	SeriesJumpThreshold int64
	ProgressInterval    time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxWorkers:          4,
		SlackMinutes:        gap.DefaultSlackMinutes,
		SeriesJumpThreshold: gap.DefaultSeriesJumpThreshold,
		ProgressInterval:    250 * time.Millisecond,
	}
}

type Service struct {
	pool    *workerpool.WorkerPool
	store   *runstore.Store
	options Options
}

func NewService(store *runstore.Store, options Options) *Service {
	if options.MaxWorkers < 1 {
		options.MaxWorkers = 1
	}

	return &Service{
		pool:    workerpool.New(options.MaxWorkers),
		store:   store,
		options: options,
	}
}

func (s *Service) Store() *runstore.Store {
	return s.store
}

// Stop waits for queued analyses to drain.
func (s *Service) Stop() {
	s.pool.StopWait()
}

// Analyze runs one analysis on the worker pool and blocks until it
// finishes. progress may be nil; events are rate limited except the
// terminal one.
func (s *Service) Analyze(ctx context.Context, req *analyze.Request, progress func(analyze.Progress)) (*analyze.Result, error) {
	type outcome struct {
		res *analyze.Result
		err error
	}

	done := make(chan outcome, 1)

	s.pool.Submit(func() {
		res, err := s.run(ctx, req, progress)
		done <- outcome{res: res, err: err}
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		return out.res, out.err
	}
}

func (s *Service) run(ctx context.Context, req *analyze.Request, progress func(analyze.Progress)) (*analyze.Result, error) {
	started := time.Now()

	runID, err := runstore.NewID()
	if err != nil {
		return nil, err
	}

	if progress != nil {
		progress(analyze.Progress{RunID: runID, Stage: analyze.StageParsing})
	}

	receiptRows, err := ingest.ReadReceipts(strings.NewReader(req.RefuelData))
	if err != nil {
		return nil, err
	}

	scheduleRows, err := ingest.ReadSchedule(strings.NewReader(req.ScheduleData))
	if err != nil {
		return nil, err
	}

	opts := s.gapOptions(req)

	receipts, stats := gap.ParseReceiptRows(receiptRows, opts.IgnorePrefixes)
	schedule := gap.ParseScheduleRows(scheduleRows)

	var mu sync.Mutex
	var latest gap.Update
	var finished bool

	if progress != nil {
		debounced := debounce.New(s.options.ProgressInterval)

		opts.Progress = func(u gap.Update) {
			mu.Lock()
			latest = u
			mu.Unlock()

			debounced(func() {
				mu.Lock()
				defer mu.Unlock()

				if finished {
					return
				}

				progress(analyze.Progress{
					RunID:        runID,
					Stage:        analyze.StageScanning,
					PairsScanned: latest.PairsScanned,
					TotalPairs:   latest.TotalPairs,
					Predictions:  latest.Predictions,
				})
			})
		}
	}

	report, err := gap.Scan(ctx, receipts, schedule, opts)

	mu.Lock()
	finished = true
	final := latest
	mu.Unlock()

	if err != nil {
		return nil, err
	}

	res := &analyze.Result{
		RunID: runID,
		Predictions: lo.Map(report.Predictions, func(p gap.Prediction, _ int) analyze.Prediction {
			return analyze.Prediction{
				MissingAV7:       p.MissingAV7,
				WindowLogic:      p.WindowLogic,
				WindowStart:      p.WindowStart,
				WindowEnd:        p.WindowEnd,
				PotentialFlights: p.PotentialFlights,
			}
		}),
		RowsRead:       stats.RowsRead,
		RowsValid:      stats.RowsValid,
		GapsFound:      report.GapsFound,
		SeriesJumps:    report.SeriesJumps,
		WindowsSkipped: report.WindowsSkipped,
		CompletedAt:    time.Now(),
	}

	s.store.Add(res)

	if progress != nil {
		progress(analyze.Progress{
			RunID:        runID,
			Stage:        analyze.StageDone,
			PairsScanned: final.TotalPairs,
			TotalPairs:   final.TotalPairs,
			Predictions:  len(res.Predictions),
		})
	}

	slog.Info("analysis complete",
		slog.String("run_id", runID),
		slog.Int("rows_read", stats.RowsRead),
		slog.Int("rows_valid", stats.RowsValid),
		slog.Int("predictions", len(res.Predictions)),
		slog.Duration("elapsed", time.Since(started)),
	)

	return res, nil
}

func (s *Service) gapOptions(req *analyze.Request) gap.Options {
	opts := gap.DefaultOptions()
	opts.SlackMinutes = s.options.SlackMinutes
	opts.SeriesJumpThreshold = s.options.SeriesJumpThreshold

	if req.SlackMinutes != 0 {
		opts.SlackMinutes = req.SlackMinutes
	}

	if req.JumpThreshold != 0 {
		opts.SeriesJumpThreshold = req.JumpThreshold
	}

	opts.IgnoreAV7s = gap.ParseIgnoreAV7s(req.IgnoreAV7s)
	opts.IgnoreFlights = gap.ParseIgnoreFlights(req.IgnoreFlights)
	opts.IgnorePrefixes = gap.ParseIgnorePrefixes(req.IgnorePrefixes)

	return opts
}
