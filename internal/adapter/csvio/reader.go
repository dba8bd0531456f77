package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/yahgos/payment-engine/internal/domain"
	"github.com/yahgos/payment-engine/internal/infrastructure/metrics"
)

const defaultBufferSize = 1 << 20

// amountPlaces is how many decimal places input amounts keep; extra
// digits are truncated at the boundary so the core never rounds.
const amountPlaces = 4

var (
	errMissingHeader = errors.New("input must start with a type,client,tx,amount header")
	errTooFewFields  = errors.New("row needs at least type, client and tx fields")
)

// ReaderConfig holds dependencies and tuning for a Reader.
type ReaderConfig struct {
	// Strict makes malformed rows fatal instead of skipped.
	Strict bool
	// BufferSize is the read buffer in bytes. Zero means 1MiB.
	BufferSize int
}

// Reader streams transactions out of a CSV document. Malformed rows
// are counted, logged and skipped; in strict mode the first one stops
// the run. Field whitespace is tolerated, amounts beyond four decimal
// places are truncated.
type Reader struct {
	csv     *csv.Reader
	strict  bool
	log     zerolog.Logger
	metrics *metrics.Metrics

	headerRead bool
	row        int
	skipped    int64
}

// NewReader wraps r. The reader owns no resources; closing the
// underlying io.Reader stays with the caller.
func NewReader(r io.Reader, cfg ReaderConfig, log zerolog.Logger, m *metrics.Metrics) *Reader {
	buf := cfg.BufferSize
	if buf <= 0 {
		buf = defaultBufferSize
	}

	cr := csv.NewReader(bufio.NewReaderSize(r, buf))
	// Dispute records legitimately omit the amount column, so rows
	// vary between three and four fields.
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	return &Reader{
		csv:     cr,
		strict:  cfg.Strict,
		log:     log,
		metrics: m,
	}
}

// Next returns the next transaction, or io.EOF at the end of input.
func (r *Reader) Next() (domain.Transaction, error) {
	if !r.headerRead {
		if err := r.readHeader(); err != nil {
			return domain.Transaction{}, err
		}
	}

	for {
		record, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			return domain.Transaction{}, io.EOF
		}
		r.row++
		if err != nil {
			// Only row-level parse problems are skippable; an I/O
			// failure would repeat forever.
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return domain.Transaction{}, err
			}
			if fatal := r.reject(err); fatal != nil {
				return domain.Transaction{}, fatal
			}
			continue
		}

		tx, err := parseRecord(record)
		if err != nil {
			if fatal := r.reject(err); fatal != nil {
				return domain.Transaction{}, fatal
			}
			continue
		}
		return tx, nil
	}
}

// Skipped returns how many malformed rows were dropped so far.
func (r *Reader) Skipped() int64 {
	return r.skipped
}

// reject handles one malformed row. It returns a non-nil error only
// when the reader runs strict.
func (r *Reader) reject(cause error) error {
	if r.strict {
		return fmt.Errorf("row %d: %w", r.row, cause)
	}
	r.skipped++
	r.metrics.RowsSkipped.Inc()
	r.log.Warn().Int("row", r.row).Err(cause).Msg("skipping malformed row")
	return nil
}

func (r *Reader) readHeader() error {
	record, err := r.csv.Read()
	if err != nil {
		// An empty document has no rows to report on.
		return err
	}
	r.row = 1

	if !validHeader(record) {
		return fmt.Errorf("%w, got %q", errMissingHeader, strings.Join(record, ","))
	}
	r.headerRead = true
	return nil
}

func validHeader(record []string) bool {
	want := []string{"type", "client", "tx", "amount"}
	if len(record) < 3 || len(record) > len(want) {
		return false
	}
	for i, name := range record {
		if !strings.EqualFold(strings.TrimSpace(name), want[i]) {
			return false
		}
	}
	return true
}

func parseRecord(record []string) (domain.Transaction, error) {
	if len(record) < 3 {
		return domain.Transaction{}, fmt.Errorf("%w, got %d", errTooFewFields, len(record))
	}

	kind, err := domain.ParseKind(strings.TrimSpace(record[0]))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("type %q: %w", record[0], err)
	}

	client, err := strconv.ParseUint(strings.TrimSpace(record[1]), 10, 16)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("client %q: not a 16-bit id", record[1])
	}

	txID, err := strconv.ParseUint(strings.TrimSpace(record[2]), 10, 32)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("tx %q: not a 32-bit id", record[2])
	}

	tx := domain.Transaction{
		Kind:   kind,
		Client: uint16(client),
		TxID:   uint32(txID),
	}

	// An absent or empty amount parses to zero and is rejected
	// downstream for movements; dispute records never read it.
	if tx.RequiresAmount() && len(record) > 3 {
		raw := strings.TrimSpace(record[3])
		if raw != "" {
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return domain.Transaction{}, fmt.Errorf("amount %q: %w", raw, err)
			}
			tx.Amount = amount.Truncate(amountPlaces)
		}
	}

	return tx, nil
}
