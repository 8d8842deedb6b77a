// Package ingest drives the report ingestion pipeline: window computation,
// concurrent fetch fan-out, normalization and per-date persistence.
package ingest

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ValeriyaDzh/spimex-api/internal/report"
	"github.com/ValeriyaDzh/spimex-api/internal/trading"
)

// RecordStore persists one day's batch of trading results atomically.
type RecordStore interface {
	SaveResults(results []*trading.TradingResult) error
}

// Service coordinates ingestion runs. Fetches fan out concurrently; the
// normalize and persist phase walks the window sequentially, one store
// transaction per date.
type Service struct {
	fetcher *report.Fetcher
	store   RecordStore
	dir     string
	now     func() time.Time
}

// NewService creates an ingestion coordinator writing report artifacts
// under dir.
func NewService(fetcher *report.Fetcher, store RecordStore, dir string) *Service {
	if dir == "" {
		dir = "."
	}
	return &Service{
		fetcher: fetcher,
		store:   store,
		dir:     dir,
		now:     time.Now,
	}
}

// Window returns every calendar date strictly between since and today, most
// recent first. since on or after today yields an empty window.
func Window(since, today time.Time) []time.Time {
	since = trading.DateOnly(since)
	today = trading.DateOnly(today)

	var days []time.Time
	for day := today.AddDate(0, 0, -1); day.After(since); day = day.AddDate(0, 0, -1) {
		days = append(days, day)
	}
	return days
}

// Ingest fetches, normalizes and persists the reports of every trading day
// strictly between since and today. Ingestion is best-effort per date:
// fetch, parse and persist failures are logged at date granularity and do
// not abort the remaining dates.
func (s *Service) Ingest(ctx context.Context, since time.Time) error {
	logger := log.With().Str("component", "ingest").Logger()

	window := Window(since, s.now())
	if len(window) == 0 {
		logger.Debug().Time("since", since).Msg("empty ingestion window, nothing to do")
		return nil
	}

	logger.Info().
		Int("days", len(window)).
		Str("since", since.Format("2006-01-02")).
		Msg("starting ingestion run")

	if err := s.fetcher.FetchAll(ctx, window, s.dir); err != nil {
		// Dates whose artifact materialized before the failure are still
		// processed below.
		logger.Error().Err(err).Msg("report fan-out aborted")
	}

	ingested := 0
	for _, day := range window {
		path := report.ArtifactPath(s.dir, day)
		if _, err := os.Stat(path); err != nil {
			// No report published that day.
			continue
		}

		if err := s.ingestArtifact(day, path); err != nil {
			logger.Error().
				Err(err).
				Str("date", day.Format("2006-01-02")).
				Msg("failed to ingest report")
			continue
		}
		ingested++
	}

	logger.Info().Int("ingested", ingested).Msg("ingestion run finished")
	return nil
}

// ingestArtifact normalizes one day's downloaded report and bulk-inserts its
// records in a single transaction. The artifact is removed exactly once on
// every exit path so failed dates cannot leak files across runs.
func (s *Service) ingestArtifact(day time.Time, path string) error {
	defer os.Remove(path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	rows, err := report.Normalize(raw)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	records := make([]*trading.TradingResult, 0, len(rows))
	for _, row := range rows {
		records = append(records, trading.NewTradingResult(row, day))
	}

	return s.store.SaveResults(records)
}
