// Package report downloads and normalizes daily SPIMEX trading report
// spreadsheets.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrMalformedReport indicates the spreadsheet does not carry the expected
// header and column layout.
var ErrMalformedReport = errors.New("malformed trading report")

const (
	// The data table of every report sits below six introductory rows, with
	// the column header at row index 6 and data from row 7 on.
	headerRowIndex = 6

	// Required columns by fixed sheet position. The contract count column is
	// always the last column of the sheet, whatever its index.
	colProductID   = 1
	colProductName = 2
	colBasisName   = 3
	colVolume      = 4
	colTotal       = 5

	// Every report ends with two summary rows that are not data.
	footerRows = 2
)

// Row is one normalized data row of a trading report.
type Row struct {
	ExchangeProductID   string
	ExchangeProductName string
	DeliveryBasisName   string
	Volume              int64
	Total               int64
	Count               int64
}

// Normalize parses one raw report spreadsheet into its data rows, preserving
// row order. Rows whose contract count is missing, non-numeric or zero are
// dropped, as are the two trailing summary rows. A sheet whose data region is
// empty yields an empty slice; a sheet missing the expected header or columns
// fails with ErrMalformedReport.
func Normalize(raw []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrMalformedReport)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	if len(rows) <= headerRowIndex {
		return nil, fmt.Errorf("%w: header row missing", ErrMalformedReport)
	}

	width := sheetWidth(rows)
	if width <= colTotal+1 {
		return nil, fmt.Errorf("%w: expected at least %d columns, got %d",
			ErrMalformedReport, colTotal+2, width)
	}
	countCol := width - 1

	data := rows[headerRowIndex+1:]
	if len(data) <= footerRows {
		return []Row{}, nil
	}
	data = data[:len(data)-footerRows]

	normalized := make([]Row, 0, len(data))
	for _, cells := range data {
		count, ok := coerceInt(cell(cells, countCol))
		if !ok || count <= 0 {
			continue
		}

		volume, _ := coerceInt(cell(cells, colVolume))
		total, _ := coerceInt(cell(cells, colTotal))

		normalized = append(normalized, Row{
			ExchangeProductID:   cell(cells, colProductID),
			ExchangeProductName: cell(cells, colProductName),
			DeliveryBasisName:   cell(cells, colBasisName),
			Volume:              volume,
			Total:               total,
			Count:               count,
		})
	}

	return normalized, nil
}

// sheetWidth returns the widest row of the sheet. GetRows trims trailing
// empty cells per row, so no single row is authoritative.
func sheetWidth(rows [][]string) int {
	width := 0
	for _, cells := range rows {
		if len(cells) > width {
			width = len(cells)
		}
	}
	return width
}

func cell(cells []string, i int) string {
	if i >= 0 && i < len(cells) {
		return cells[i]
	}
	return ""
}

// coerceInt parses a spreadsheet cell as an integer. Numeric text with
// grouping spaces or a decimal tail ("1 234", "17.0") is tolerated; anything
// else fails the coercion.
func coerceInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(v), true
	}
	return 0, false
}
