package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/congo-pay/txengine/internal/ledger"
)

// Header is the first row of every CSV report.
var Header = []string{"client", "available", "held", "total", "locked"}

// WriteCSV renders rows as CSV with a header.
func WriteCSV(w io.Writer, rows []ledger.AccountReport) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatUint(uint64(r.Client), 10),
			r.Available.String(),
			r.Held.String(),
			r.Total.String(),
			strconv.FormatBool(r.Locked),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write report for client %d: %w", r.Client, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}

// CSVSink exports snapshots as CSV to a writer.
type CSVSink struct {
	w io.Writer
}

// NewCSVSink builds a sink writing to w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: w}
}

// Name identifies the sink in logs.
func (s *CSVSink) Name() string { return "csv" }

// Export writes the snapshot.
func (s *CSVSink) Export(_ context.Context, rows []ledger.AccountReport) error {
	return WriteCSV(s.w, rows)
}
