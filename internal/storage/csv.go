package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// CSVStore reads and writes the flat CSV files exchanged between
// pipeline steps
type CSVStore struct {
	logger *logrus.Logger
}

// NewCSVStore creates a new CSV store
func NewCSVStore(logger *logrus.Logger) *CSVStore {
	return &CSVStore{logger: logger}
}

// Write overwrites the file at path with a header row followed by rows.
// When rows is empty the call is a no-op and any existing file is left
// untouched; callers that need a guaranteed clear use Reset instead.
func (s *CSVStore) Write(path string, header []string, rows [][]string) error {
	if len(rows) == 0 {
		s.logger.WithField("path", path).Debug("No data provided to write, leaving file untouched")
		return nil
	}

	if err := s.ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows to %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	s.logger.WithFields(logrus.Fields{
		"path": path,
		"rows": len(rows),
	}).Info("Wrote CSV file")
	return nil
}

// Reset truncates the file at path to a header-only CSV. This is the
// explicit clear path for runs that produce no qualifying rows but must
// not leave stale data behind.
func (s *CSVStore) Reset(path string, header []string) error {
	if err := s.ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	s.logger.WithField("path", path).Info("Reset CSV file to header only")
	return nil
}

// Append appends rows to the file at path, writing the header first
// when the file is new or empty. No-op when rows is empty.
func (s *CSVStore) Append(path string, header []string, rows [][]string) error {
	if len(rows) == 0 {
		s.logger.WithField("path", path).Debug("No data provided to append")
		return nil
	}

	if err := s.ensureDir(path); err != nil {
		return err
	}

	needHeader := true
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		needHeader = false
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write header to %s: %w", path, err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to append rows to %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	s.logger.WithFields(logrus.Fields{
		"path": path,
		"rows": len(rows),
	}).Info("Appended rows to CSV file")
	return nil
}

// Exists reports whether a regular file exists at path
func (s *CSVStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Read reads a header-keyed CSV file into one map per data row. Short
// rows leave their trailing columns absent from the map.
func (s *CSVStore) Read(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *CSVStore) ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
