package report

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL is the SPIMEX report download location.
const DefaultBaseURL = "https://spimex.com/upload/reports/oil_xls"

// DefaultTimeout bounds one report download.
const DefaultTimeout = 5 * time.Second

// Fetcher retrieves daily trading report files. A date with no published
// report (weekends, holidays) is not an error: Fetch reports it as absent.
type Fetcher struct {
	baseURL string
	client  *http.Client
}

// NewFetcher creates a report fetcher against the given base URL. A zero
// timeout falls back to DefaultTimeout.
func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// reportURL derives the remote location of one day's report: compact numeric
// date plus the fixed publication-time suffix.
func (f *Fetcher) reportURL(day time.Time) string {
	return fmt.Sprintf("%s/oil_xls_%s162000.xls", f.baseURL, day.Format("20060102"))
}

// Fetch downloads the report for one day. It returns (nil, nil) when no
// report exists for that day, which covers non-200 responses as well as
// timeouts and network failures.
func (f *Fetcher) Fetch(ctx context.Context, day time.Time) ([]byte, error) {
	url := f.reportURL(day)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("report fetch failed")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debug().Int("status", resp.StatusCode).Str("url", url).Msg("no report for date")
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("report body read failed")
		return nil, nil
	}
	return body, nil
}

// FetchAll downloads the reports for every given day concurrently, writing
// one artifact file per day that has a published report. A failure for one
// day never aborts the others; FetchAll returns once every fetch has
// settled.
func (f *Fetcher) FetchAll(ctx context.Context, days []time.Time, dir string) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, day := range days {
		day := day
		g.Go(func() error {
			data, err := f.Fetch(ctx, day)
			if err != nil || data == nil {
				return nil
			}
			if err := os.WriteFile(ArtifactPath(dir, day), data, 0o644); err != nil {
				log.Warn().Err(err).Time("date", day).Msg("failed to write report artifact")
			}
			return nil
		})
	}

	return g.Wait()
}

// ArtifactName is the deterministic file name of one day's downloaded
// report.
func ArtifactName(day time.Time) string {
	return day.Format("2006-01-02") + "_spimex_data.xls"
}

// ArtifactPath locates one day's report artifact under dir.
func ArtifactPath(dir string, day time.Time) string {
	return filepath.Join(dir, ArtifactName(day))
}
