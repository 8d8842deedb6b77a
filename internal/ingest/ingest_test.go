package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ValeriyaDzh/spimex-api/internal/report"
	"github.com/ValeriyaDzh/spimex-api/internal/trading"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWindow(t *testing.T) {
	today := date(2024, 10, 8)

	tests := []struct {
		name  string
		since time.Time
		want  []time.Time
	}{
		{
			name:  "since equals today",
			since: today,
			want:  nil,
		},
		{
			name:  "since is yesterday",
			since: date(2024, 10, 7),
			want:  nil,
		},
		{
			name:  "since four days back",
			since: date(2024, 10, 4),
			want:  []time.Time{date(2024, 10, 7), date(2024, 10, 6), date(2024, 10, 5)},
		},
		{
			name:  "since after today",
			since: date(2024, 10, 12),
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Window(tt.since, today)
			if len(got) != len(tt.want) {
				t.Fatalf("window size = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !got[i].Equal(tt.want[i]) {
					t.Errorf("window[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestWindowSizeMatchesDayCount(t *testing.T) {
	today := date(2024, 10, 8)
	for back := 1; back <= 30; back++ {
		since := today.AddDate(0, 0, -back)
		if got := len(Window(since, today)); got != back-1 {
			t.Errorf("window size for since=today-%d = %d, want %d", back, got, back-1)
		}
	}
}

// reportBytes builds a minimal report workbook with one data row per product
// code: six introductory rows, the header at row index 6, data, and two
// trailing summary rows.
func reportBytes(t *testing.T, productIDs ...string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i := 1; i <= 6; i++ {
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", i), "intro"); err != nil {
			t.Fatalf("failed to write intro row: %v", err)
		}
	}
	header := []interface{}{
		"", "Instrument Code", "Instrument Name", "Delivery Basis",
		"Contract Volume", "Contract Amount", "Price", "Contract Count",
	}
	if err := f.SetSheetRow(sheet, "A7", &header); err != nil {
		t.Fatalf("failed to write header row: %v", err)
	}

	row := 8
	for _, id := range productIDs {
		cells := []interface{}{"", id, "Product", "Basis", 100, 1_000_000, "", 5}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			t.Fatalf("failed to write data row: %v", err)
		}
		row++
	}
	for i := 0; i < 2; i++ {
		cells := []interface{}{"", "Total:", "", "", 100, 1_000_000, "", 5}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			t.Fatalf("failed to write footer row: %v", err)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to serialize workbook: %v", err)
	}
	return buf.Bytes()
}

func newTestStore(t *testing.T) *trading.Database {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&trading.TradingResult{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return trading.NewDatabase(db)
}

func newTestService(t *testing.T, baseURL string, store RecordStore, today time.Time) (*Service, string) {
	t.Helper()

	dir := t.TempDir()
	fetcher := report.NewFetcher(baseURL, time.Second)
	svc := NewService(fetcher, store, dir)
	svc.now = func() time.Time { return today }
	return svc, dir
}

func TestIngestPersistsWindow(t *testing.T) {
	today := date(2024, 10, 8)
	report5th := "oil_xls_20241005162000.xls"

	// Every date in the window has a published report except the 5th.
	body := reportBytes(t, "A100ANK060F", "DT50UFM005A")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, report5th) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(body)
	}))
	defer server.Close()

	store := newTestStore(t)
	svc, dir := newTestService(t, server.URL, store, today)

	// Window: 10-07 down to 10-03, five days.
	if err := svc.Ingest(context.Background(), date(2024, 10, 2)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	dates, err := store.LastTradingDates(10)
	if err != nil {
		t.Fatalf("last trading dates: %v", err)
	}
	if len(dates) != 4 {
		t.Fatalf("got %d persisted dates, want 4", len(dates))
	}
	for _, d := range dates {
		if d.Equal(date(2024, 10, 5)) {
			t.Error("records persisted for the date with no published report")
		}
	}

	results, err := store.Dynamics(date(2024, 10, 3), date(2024, 10, 7), trading.Filters{})
	if err != nil {
		t.Fatalf("dynamics: %v", err)
	}
	if len(results) != 8 {
		t.Errorf("got %d records, want 8 (2 rows x 4 dates)", len(results))
	}
	for _, r := range results {
		if r.OilID != r.ExchangeProductID[0:4] {
			t.Errorf("record %s has inconsistent oil id %q", r.ExchangeProductID, r.OilID)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read artifact dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("%d artifacts left behind after ingestion", len(entries))
	}
}

func TestIngestEmptyWindowFetchesNothing(t *testing.T) {
	today := date(2024, 10, 8)

	hits := 0
	body := reportBytes(t, "A100ANK060F")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(body)
	}))
	defer server.Close()

	store := newTestStore(t)
	svc, _ := newTestService(t, server.URL, store, today)

	if err := svc.Ingest(context.Background(), today); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if hits != 0 {
		t.Errorf("empty window issued %d fetches, want 0", hits)
	}
	dates, err := store.LastTradingDates(1)
	if err != nil {
		t.Fatalf("last trading dates: %v", err)
	}
	if len(dates) != 0 {
		t.Error("empty window persisted records")
	}
}

func TestIngestMalformedReportDoesNotAbortRun(t *testing.T) {
	today := date(2024, 10, 8)
	report7th := "oil_xls_20241007162000.xls"

	body := reportBytes(t, "A100ANK060F")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, report7th) {
			w.Write([]byte("not a spreadsheet"))
			return
		}
		w.Write(body)
	}))
	defer server.Close()

	store := newTestStore(t)
	svc, dir := newTestService(t, server.URL, store, today)

	// Window: 10-07 and 10-06.
	if err := svc.Ingest(context.Background(), date(2024, 10, 5)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	dates, err := store.LastTradingDates(10)
	if err != nil {
		t.Fatalf("last trading dates: %v", err)
	}
	if len(dates) != 1 || !dates[0].Equal(date(2024, 10, 6)) {
		t.Errorf("persisted dates = %v, want just 2024-10-06", dates)
	}

	// The malformed date's artifact must not leak into the next run.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read artifact dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("%d artifacts left behind after failed date", len(entries))
	}
}
