package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/yahgos/payment-engine/internal/domain"
)

var outputHeader = []string{"client", "available", "held", "total", "locked"}

// Writer renders account snapshots as the final CSV report. Amounts
// always carry exactly four decimal places.
type Writer struct {
	csv *csv.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteAll writes the header and one row per snapshot, preserving the
// order given.
func (w *Writer) WriteAll(snapshots []domain.Snapshot) error {
	if err := w.csv.Write(outputHeader); err != nil {
		return err
	}

	for i := range snapshots {
		if err := w.csv.Write(renderRow(&snapshots[i])); err != nil {
			return err
		}
	}

	w.csv.Flush()
	return w.csv.Error()
}

func renderRow(s *domain.Snapshot) []string {
	return []string{
		strconv.FormatUint(uint64(s.Client), 10),
		s.Available.StringFixed(4),
		s.Held.StringFixed(4),
		s.Total.StringFixed(4),
		strconv.FormatBool(s.Locked),
	}
}
