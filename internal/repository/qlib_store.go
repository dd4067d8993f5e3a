package repository

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"TWPull/internal/domain/models"
	drepo "TWPull/internal/domain/repository"
	"TWPull/pkg/util"
)

const instrumentsDir = "instruments"

// QlibStore writes instrument lists in the qlib data directory layout:
// <qlib_dir>/instruments/<index>.txt with tab-separated
// SYMBOL, START_DATE, END_DATE columns.
type QlibStore struct {
	qlibDir string
}

// NewQlibStore creates a filesystem instrument store rooted at qlibDir.
func NewQlibStore(qlibDir string) drepo.InstrumentStore {
	return &QlibStore{qlibDir: qlibDir}
}

func (s *QlibStore) path(index models.Index) string {
	return filepath.Join(s.qlibDir, instrumentsDir, index.FileStem()+".txt")
}

// Exists reports whether the instruments file for index is present.
func (s *QlibStore) Exists(index models.Index) bool {
	_, err := os.Stat(s.path(index))
	return err == nil
}

// Write atomically replaces the instruments file for index.
func (s *QlibStore) Write(_ context.Context, index models.Index, instruments []models.Instrument) error {
	dir := filepath.Join(s.qlibDir, instrumentsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create instruments dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, index.FileStem()+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, inst := range instruments {
		line := fmt.Sprintf("%s\t%s\t%s\n",
			inst.Symbol, util.FormatDate(inst.StartDate), util.FormatDate(inst.EndDate))
		if _, err := w.WriteString(line); err != nil {
			tmp.Close()
			return fmt.Errorf("write instruments: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush instruments: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close instruments: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(index)); err != nil {
		return fmt.Errorf("replace instruments: %w", err)
	}
	return nil
}

// Read loads the instruments file for index.
func (s *QlibStore) Read(_ context.Context, index models.Index) ([]models.Instrument, error) {
	f, err := os.Open(s.path(index))
	if err != nil {
		return nil, fmt.Errorf("open instruments: %w", err)
	}
	defer f.Close()

	var instruments []models.Instrument
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("malformed instruments line: %q", line)
		}
		start, err := util.ParseDate(fields[1])
		if err != nil {
			return nil, fmt.Errorf("parse start date %q: %w", fields[1], err)
		}
		end, err := util.ParseDate(fields[2])
		if err != nil {
			return nil, fmt.Errorf("parse end date %q: %w", fields[2], err)
		}
		instruments = append(instruments, models.Instrument{
			Symbol:    fields[0],
			StartDate: start,
			EndDate:   end,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan instruments: %w", err)
	}
	return instruments, nil
}
