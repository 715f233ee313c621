package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/waap-dev/waap/internal/domain"
	"github.com/waap-dev/waap/internal/logger"
)

var (
	sweepPostingsExamined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waap_sweep_postings_examined_total",
		Help: "Expired postings examined by the sweeper",
	})
	sweepPostingsAnonymized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waap_sweep_postings_anonymized_total",
		Help: "Postings anonymized by the sweeper",
	})
	sweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waap_sweep_errors_total",
		Help: "Per-record errors during sweeps",
	})
)

// SweeperStorage defines the database operations needed for the expiration sweep.
type SweeperStorage interface {
	ExpiredPostingIds(now time.Time) ([]domain.PostingId, error)
	// AnonymizePosting is the atomic claim: only one concurrent sweep run
	// wins the anonymized=false -> true flip for a given posting.
	AnonymizePosting(id domain.PostingId) (bool, error)
}

// SweepReport summarizes a single sweep run. Per-record failures are
// enumerated here, never raised as a fatal error for the batch.
type SweepReport struct {
	RunAt      time.Time `json:"run_at"`
	DryRun     bool      `json:"dry_run"`
	Examined   int       `json:"examined"`
	Anonymized int       `json:"anonymized"`
	Errors     []string  `json:"errors"`
	DurationMs int64     `json:"duration_ms"`
}

// Sweeper advances time-triggered posting transitions: it scans for postings
// past their expiration date and anonymizes them. Stateless between runs:
// "what's due" is a pure query against current time, so re-invocation after
// a crash or an overlapping scheduler run is always safe.
type Sweeper struct {
	storage SweeperStorage
	tokens  *Tokens
}

func NewSweeper(storage SweeperStorage, tokens *Tokens) *Sweeper {
	return &Sweeper{storage: storage, tokens: tokens}
}

// Run executes one sweep. In dry-run mode the selection is computed and
// counted without mutating anything. An error return means the sweep could
// not start; record-level failures land in the report instead.
func (s *Sweeper) Run(ctx context.Context, dryRun bool) (SweepReport, error) {
	startTime := time.Now()
	report := SweepReport{
		RunAt:  startTime.UTC(),
		DryRun: dryRun,
		Errors: []string{},
	}

	ids, err := s.storage.ExpiredPostingIds(time.Now().UTC())
	if err != nil {
		return report, fmt.Errorf("failed to select expired postings: %w", err)
	}
	report.Examined = len(ids)
	sweepPostingsExamined.Add(float64(len(ids)))

	if dryRun {
		report.Anonymized = len(ids)
		report.DurationMs = time.Since(startTime).Milliseconds()
		return report, nil
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("posting %d: %v", id, ctx.Err()))
			break
		}
		claimed, err := s.storage.AnonymizePosting(id)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("posting %d: %v", id, err))
			sweepErrors.Inc()
			continue
		}
		if claimed {
			report.Anonymized++
			sweepPostingsAnonymized.Inc()
		}
		// not claimed: a concurrent run got there first, nothing to do
	}

	if s.tokens != nil {
		if collected, err := s.tokens.CollectExpired(); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("token gc: %v", err))
			sweepErrors.Inc()
		} else if collected > 0 {
			logger.Log.Info("collected expired tokens", "count", collected)
		}
	}

	report.DurationMs = time.Since(startTime).Milliseconds()
	return report, nil
}

// StartBackground runs sweeps on a ticker until ctx is cancelled.
func (s *Sweeper) StartBackground(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started expiration sweeper",
		"component", "sweeper",
		"interval", interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				report, err := s.Run(ctx, false)
				if err != nil {
					logger.Log.Error("sweep failed to start",
						"component", "sweeper",
						"error", err)
					continue
				}
				logger.Log.Info("sweep completed",
					"component", "sweeper",
					"examined", report.Examined,
					"anonymized", report.Anonymized,
					"duration_ms", report.DurationMs,
					"errors", len(report.Errors))
			case <-ctx.Done():
				logger.Log.Info("sweeper shutting down gracefully",
					"component", "sweeper")
				return
			}
		}
	}()
}
