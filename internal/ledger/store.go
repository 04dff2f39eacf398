package ledger

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	participantsFile = "participants.csv"
	expensesFile     = "expenses.csv"
)

// Load reads participants.csv and expenses.csv from dir. Missing files are
// treated as empty.
func Load(dir string) (*Ledger, error) {
	participants, err := readOptional(filepath.Join(dir, participantsFile), ReadParticipants)
	if err != nil {
		return nil, fmt.Errorf("loading participants: %w", err)
	}
	expenses, err := readOptional(filepath.Join(dir, expensesFile), ReadExpenses)
	if err != nil {
		return nil, fmt.Errorf("loading expenses: %w", err)
	}
	return FromState(participants, expenses), nil
}

func readOptional[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return read(f)
}

// Save writes the ledger to participants.csv and expenses.csv in dir.
func Save(dir string, l *Ledger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating trip dir: %w", err)
	}
	if err := writeFile(filepath.Join(dir, participantsFile), func(w io.Writer) error {
		return WriteParticipants(w, l.participants)
	}); err != nil {
		return fmt.Errorf("writing participants: %w", err)
	}
	if err := writeFile(filepath.Join(dir, expensesFile), func(w io.Writer) error {
		return WriteExpenses(w, l.expenses)
	}); err != nil {
		return fmt.Errorf("writing expenses: %w", err)
	}
	return nil
}

// writeFile creates path and writes it with write. A failed Close is
// reported like a failed write.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return write(f)
}
