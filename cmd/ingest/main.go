// Command ingest runs a one-shot report backfill: it fetches, normalizes
// and persists every trading report published since the given date.
//
// Usage:
//
//	ingest -since 2024-10-01
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ValeriyaDzh/spimex-api/internal/config"
	"github.com/ValeriyaDzh/spimex-api/internal/database"
	"github.com/ValeriyaDzh/spimex-api/internal/ingest"
	"github.com/ValeriyaDzh/spimex-api/internal/report"
	"github.com/ValeriyaDzh/spimex-api/internal/trading"
)

func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
}

func main() {
	var since string
	flag.StringVar(&since, "since", "", "backfill start date, YYYY-MM-DD (exclusive)")
	flag.Parse()

	sinceDate, err := time.Parse("2006-01-02", since)
	if err != nil {
		zlog.Fatal().Err(err).Msg("-since must be formatted as YYYY-MM-DD")
	}

	cfg := config.Load()

	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	fetcher := report.NewFetcher(cfg.ReportBaseURL, cfg.FetchTimeout)
	service := ingest.NewService(fetcher, trading.NewDatabase(db), cfg.ArtifactDir)

	if err := service.Ingest(context.Background(), sinceDate); err != nil {
		zlog.Fatal().Err(err).Msg("Ingestion failed")
	}
}
