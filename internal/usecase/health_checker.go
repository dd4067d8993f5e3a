package usecase

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"TWPull/pkg/logger"
)

// Thresholds mirroring the defaults of the original data checker.
const (
	defaultPriceStepThreshold  = 0.5
	defaultVolumeStepThreshold = 3.0
)

var requiredColumns = []string{"open", "high", "low", "close", "volume"}

// HealthProblem describes one issue found in an instrument's data file.
type HealthProblem struct {
	Instrument string `json:"instrument"`
	Check      string `json:"check"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail"`
}

// HealthReport aggregates all problems found across a data directory.
type HealthReport struct {
	Checked  int             `json:"checked"`
	Problems []HealthProblem `json:"problems"`
}

// OK reports whether the dataset passed every check.
func (r *HealthReport) OK() bool { return len(r.Problems) == 0 }

// HealthChecker validates per-instrument OHLCV CSV files for completeness
// and plausibility: required columns present, no missing values beyond the
// allowance, and no implausibly large step changes.
type HealthChecker struct {
	priceStepThreshold  float64
	volumeStepThreshold float64
	missingAllowance    int
	log                 *logger.Logger
}

// NewHealthChecker creates a checker with the given thresholds; zero values
// select the defaults.
func NewHealthChecker(priceStep, volumeStep float64, missingAllowance int, log *logger.Logger) *HealthChecker {
	if priceStep <= 0 {
		priceStep = defaultPriceStepThreshold
	}
	if volumeStep <= 0 {
		volumeStep = defaultVolumeStepThreshold
	}
	return &HealthChecker{
		priceStepThreshold:  priceStep,
		volumeStepThreshold: volumeStep,
		missingAllowance:    missingAllowance,
		log:                 log,
	}
}

// CheckDir runs all checks over every .csv file in dir.
func (hc *HealthChecker) CheckDir(dir string) (*HealthReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	report := &HealthReport{}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		cols, err := readColumns(filepath.Join(dir, name))
		if err != nil {
			report.Problems = append(report.Problems, HealthProblem{
				Instrument: name, Check: "load", Detail: err.Error(),
			})
			continue
		}
		report.Checked++
		hc.checkRequiredColumns(report, name, cols)
		hc.checkMissingData(report, name, cols)
		hc.checkLargeSteps(report, name, cols)
		hc.checkFactor(name, cols)
	}

	hc.log.Info("data health check finished",
		logger.Int("checked", report.Checked),
		logger.Int("problems", len(report.Problems)))
	return report, nil
}

// column holds one numeric CSV column; NaN marks missing cells.
type column []float64

func readColumns(path string) (map[string]column, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	header := records[0]
	cols := make(map[string]column, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		col := make(column, 0, len(records)-1)
		for _, rec := range records[1:] {
			if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				col = append(col, math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				col = append(col, math.NaN())
				continue
			}
			col = append(col, v)
		}
		cols[name] = col
	}
	return cols, nil
}

func (hc *HealthChecker) checkRequiredColumns(report *HealthReport, name string, cols map[string]column) {
	for _, required := range requiredColumns {
		if _, ok := cols[required]; !ok {
			report.Problems = append(report.Problems, HealthProblem{
				Instrument: name,
				Check:      "required_columns",
				Column:     required,
				Detail:     "column missing",
			})
		}
	}
}

func (hc *HealthChecker) checkMissingData(report *HealthReport, name string, cols map[string]column) {
	for _, required := range requiredColumns {
		col, ok := cols[required]
		if !ok {
			continue
		}
		missing := 0
		for _, v := range col {
			if math.IsNaN(v) {
				missing++
			}
		}
		if missing > hc.missingAllowance {
			report.Problems = append(report.Problems, HealthProblem{
				Instrument: name,
				Check:      "missing_data",
				Column:     required,
				Detail:     fmt.Sprintf("%d missing values", missing),
			})
		}
	}
}

// checkLargeSteps flags percentage changes above the thresholds: 50% for
// prices and 300% for volume, following the original defaults.
func (hc *HealthChecker) checkLargeSteps(report *HealthReport, name string, cols map[string]column) {
	for _, colName := range requiredColumns {
		col, ok := cols[colName]
		if !ok || len(col) < 2 {
			continue
		}
		threshold := hc.priceStepThreshold
		if colName == "volume" {
			threshold = hc.volumeStepThreshold
		}
		maxStep, at := 0.0, -1
		for i := 1; i < len(col); i++ {
			prev, cur := col[i-1], col[i]
			if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
				continue
			}
			step := math.Abs(cur-prev) / math.Abs(prev)
			if step > maxStep {
				maxStep, at = step, i
			}
		}
		if maxStep > threshold {
			report.Problems = append(report.Problems, HealthProblem{
				Instrument: name,
				Check:      "large_step",
				Column:     colName,
				Detail:     fmt.Sprintf("step change %.2f at row %d exceeds %.2f", maxStep, at, threshold),
			})
		}
	}
}

// checkFactor only logs: the adjustment factor is optional but its absence
// usually means raw prices were collected without adjustment data.
func (hc *HealthChecker) checkFactor(name string, cols map[string]column) {
	if _, ok := cols["factor"]; !ok {
		hc.log.Warn("factor column missing", logger.String("instrument", name))
	}
}
