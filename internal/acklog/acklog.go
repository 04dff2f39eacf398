package acklog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one acknowledged settlement payment.
type Entry struct {
	Key            string
	From           string
	To             string
	Amount         decimal.Decimal
	AcknowledgedAt time.Time
}

// Header is the CSV header for settled.csv.
const Header = "key,from,to,amount,acknowledged_at"

const (
	numFields  = 5
	fileName   = "settled.csv"
	colKey     = 0
	colFrom    = 1
	colTo      = 2
	colAmount  = 3
	colAckedAt = 4
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colKey] = e.Key
	row[colFrom] = e.From
	row[colTo] = e.To
	row[colAmount] = e.Amount.String()
	row[colAckedAt] = e.AcknowledgedAt.UTC().Format(time.RFC3339)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	ts, err := time.Parse(time.RFC3339, record[colAckedAt])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing acknowledged_at %q: %w", record[colAckedAt], err)
	}

	return Entry{
		Key:            record[colKey],
		From:           record[colFrom],
		To:             record[colTo],
		Amount:         amount,
		AcknowledgedAt: ts,
	}, nil
}

// Log is the set of acknowledged payments of one trip, stored in
// <dir>/settled.csv.
type Log struct {
	dir string
}

// New returns the log stored in dir.
func New(dir string) *Log {
	return &Log{dir: dir}
}

func (l *Log) path() string {
	return filepath.Join(l.dir, fileName)
}

// Read returns all entries. A missing file yields no entries.
func (l *Log) Read() ([]Entry, error) {
	f, err := os.Open(l.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening settled log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// Keys returns the set of acknowledged keys.
func (l *Log) Keys() (map[string]bool, error) {
	entries, err := l.Read()
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(entries))
	for _, e := range entries {
		keys[e.Key] = true
	}
	return keys, nil
}

// Ack appends e unless its key is already acknowledged. It reports whether
// the log changed.
func (l *Log) Ack(e Entry) (bool, error) {
	keys, err := l.Keys()
	if err != nil {
		return false, err
	}
	if keys[e.Key] {
		return false, nil
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return false, fmt.Errorf("creating trip dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(l.path()); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(l.path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("opening settled log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return false, fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(MarshalEntry(e)); err != nil {
		return false, fmt.Errorf("writing entry: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return false, fmt.Errorf("flushing settled log: %w", err)
	}
	return true, nil
}

// Unack removes key from the log. It reports whether the key was present.
func (l *Log) Unack(key string) (bool, error) {
	entries, err := l.Read()
	if err != nil {
		return false, err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.Key != key {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return false, nil
	}

	f, err := os.Create(l.path())
	if err != nil {
		return false, fmt.Errorf("rewriting settled log: %w", err)
	}
	defer f.Close()

	if err := writeEntries(f, kept); err != nil {
		return false, err
	}
	return true, nil
}

func writeEntries(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading settled log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
