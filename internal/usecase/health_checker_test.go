package usecase

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func findProblem(report *HealthReport, check, column string) *HealthProblem {
	for i := range report.Problems {
		p := &report.Problems[i]
		if p.Check == check && p.Column == column {
			return p
		}
	}
	return nil
}

func TestCheckDirHealthy(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "tw2330.csv", `date,open,high,low,close,volume,factor
2024-01-02,590,600,585,595,25000,1.0
2024-01-03,595,605,590,600,26000,1.0
2024-01-04,600,610,598,608,24000,1.0
`)

	hc := NewHealthChecker(0, 0, 0, testLogger(t))
	report, err := hc.CheckDir(dir)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.Checked != 1 {
		t.Fatalf("checked %d files", report.Checked)
	}
	if !report.OK() {
		t.Fatalf("expected healthy, got %v", report.Problems)
	}
}

func TestCheckDirMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "tw2330.csv", `date,open,high,low,close
2024-01-02,590,600,585,595
2024-01-03,595,605,590,600
`)

	hc := NewHealthChecker(0, 0, 0, testLogger(t))
	report, err := hc.CheckDir(dir)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.OK() {
		t.Fatalf("expected problems")
	}
	if findProblem(report, "required_columns", "volume") == nil {
		t.Fatalf("missing volume column not reported: %v", report.Problems)
	}
}

func TestCheckDirMissingData(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "tw2330.csv", `date,open,high,low,close,volume
2024-01-02,590,600,585,595,25000
2024-01-03,,605,590,600,26000
2024-01-04,600,610,598,608,24000
`)

	hc := NewHealthChecker(0, 0, 0, testLogger(t))
	report, err := hc.CheckDir(dir)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if findProblem(report, "missing_data", "open") == nil {
		t.Fatalf("missing open value not reported: %v", report.Problems)
	}

	// an allowance of one tolerates the single gap
	hc = NewHealthChecker(0, 0, 1, testLogger(t))
	report, err = hc.CheckDir(dir)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if findProblem(report, "missing_data", "open") != nil {
		t.Fatalf("allowance not honored: %v", report.Problems)
	}
}

func TestCheckDirLargeStep(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "tw2330.csv", `date,open,high,low,close,volume
2024-01-02,100,101,99,100,25000
2024-01-03,100,101,99,200,25000
2024-01-04,100,101,99,201,25000
`)

	hc := NewHealthChecker(0, 0, 0, testLogger(t))
	report, err := hc.CheckDir(dir)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	p := findProblem(report, "large_step", "close")
	if p == nil {
		t.Fatalf("doubled close not reported: %v", report.Problems)
	}
	// 100 -> 200 is a 1.00 step against the 0.50 default
	if findProblem(report, "large_step", "open") != nil {
		t.Fatalf("flat open flagged: %v", report.Problems)
	}

	// volume tolerates up to 3x moves
	writeCSV(t, dir, "tw1101.csv", `date,open,high,low,close,volume
2024-01-02,100,101,99,100,10000
2024-01-03,100,101,99,100,35000
`)
	report, err = hc.CheckDir(dir)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if findProblem(report, "large_step", "volume") != nil {
		t.Fatalf("2.5x volume move flagged: %v", report.Problems)
	}
}

func TestCheckDirSkipsNonCSV(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "notes.txt", "not a csv")
	writeCSV(t, dir, "empty.csv", "date,open,high,low,close,volume\n")

	hc := NewHealthChecker(0, 0, 0, testLogger(t))
	report, err := hc.CheckDir(dir)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.Checked != 0 {
		t.Fatalf("checked %d files, want 0", report.Checked)
	}
	if findProblem(report, "load", "") == nil {
		t.Fatalf("headerless csv not reported: %v", report.Problems)
	}
}
