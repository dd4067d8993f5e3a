package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"TWPull/internal/domain/models"
	"TWPull/internal/repository"
	"TWPull/pkg/logger"
)

type fakeSource struct {
	name    string
	symbols []string
	err     error
	calls   int
}

func (f *fakeSource) FetchSymbols(_ context.Context, _ time.Time) ([]string, error) {
	f.calls++
	return f.symbols, f.err
}

func (f *fakeSource) Name() string { return f.name }

type fakeMetrics struct {
	collected map[string]int
	errors    map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{collected: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordCollected(index string, count int) { m.collected[index] = count }
func (m *fakeMetrics) RecordError(kind string)                 { m.errors[kind]++ }
func (m *fakeMetrics) RecordLastRun(string, time.Time)         {}
func (m *fakeMetrics) RecordLatency(string, float64)           {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestCollector(t *testing.T, twse, tpex *fakeSource) (*InstrumentCollector, *fakeMetrics, string) {
	t.Helper()
	dir := t.TempDir()
	metrics := newFakeMetrics()
	ic := NewInstrumentCollector(
		twse, tpex,
		repository.NewQlibStore(dir),
		nil, nil, nil,
		metrics,
		testLogger(t),
		dir+"/cache",
		time.Hour,
	)
	return ic, metrics, dir
}

func rangeSymbols(lo, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("%04d", lo+i))
	}
	return out
}

func TestCollectTW50IsStatic(t *testing.T) {
	twse := &fakeSource{name: "twse", err: fmt.Errorf("unreachable")}
	tpex := &fakeSource{name: "tpex", err: fmt.Errorf("unreachable")}
	ic, metrics, dir := newTestCollector(t, twse, tpex)

	res, err := ic.Collect(context.Background(), models.IndexTW50)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if res.Instruments != 50 {
		t.Fatalf("got %d instruments, want 50", res.Instruments)
	}
	if twse.calls != 0 || tpex.calls != 0 {
		t.Fatalf("static roster must not hit upstream (twse=%d tpex=%d)", twse.calls, tpex.calls)
	}
	if metrics.collected["TW50"] != 50 {
		t.Fatalf("metrics collected = %v", metrics.collected)
	}

	raw, err := os.ReadFile(dir + "/instruments/tw50.txt")
	if err != nil {
		t.Fatalf("read instruments: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 50 {
		t.Fatalf("got %d lines", len(lines))
	}
	prev := ""
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			t.Fatalf("malformed line %q", line)
		}
		if !strings.HasPrefix(fields[0], "TW") {
			t.Fatalf("symbol %q not normalized", fields[0])
		}
		if fields[0] <= prev {
			t.Fatalf("symbols not sorted: %q after %q", fields[0], prev)
		}
		if fields[1] != "2003-06-30" || fields[2] != "2099-12-31" {
			t.Fatalf("unexpected window %q..%q", fields[1], fields[2])
		}
		prev = fields[0]
	}
}

func TestCollectTWMIDCAPSlicesRoster(t *testing.T) {
	twse := &fakeSource{name: "twse", symbols: rangeSymbols(1000, 200)}
	tpex := &fakeSource{name: "tpex"}
	ic, _, _ := newTestCollector(t, twse, tpex)

	res, err := ic.Collect(context.Background(), models.IndexTWMIDCAP)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if res.Instruments != 100 {
		t.Fatalf("got %d instruments, want 100", res.Instruments)
	}

	out, err := ic.store.Read(context.Background(), models.IndexTWMIDCAP)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// rows 50..149 of the sorted full roster
	if out[0].Symbol != "TW1050" || out[len(out)-1].Symbol != "TW1149" {
		t.Fatalf("unexpected slice %s..%s", out[0].Symbol, out[len(out)-1].Symbol)
	}
}

func TestCollectTWMIDCAPRosterTooSmall(t *testing.T) {
	twse := &fakeSource{name: "twse", symbols: rangeSymbols(1000, 20)}
	tpex := &fakeSource{name: "tpex"}
	ic, metrics, _ := newTestCollector(t, twse, tpex)

	if _, err := ic.Collect(context.Background(), models.IndexTWMIDCAP); err == nil {
		t.Fatalf("expected error for tiny roster")
	}
	if metrics.errors["collect"] != 1 {
		t.Fatalf("metrics errors = %v", metrics.errors)
	}
}

func TestCollectMergesAndDeduplicates(t *testing.T) {
	twse := &fakeSource{name: "twse", symbols: []string{"2330", "1101"}}
	tpex := &fakeSource{name: "tpex", symbols: []string{"3443", "2330"}}
	ic, _, _ := newTestCollector(t, twse, tpex)

	res, err := ic.Collect(context.Background(), models.IndexTWII)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if res.Instruments != 3 {
		t.Fatalf("got %d instruments, want 3 after dedupe", res.Instruments)
	}

	out, _ := ic.store.Read(context.Background(), models.IndexTWII)
	want := []string{"TW1101", "TW2330", "TW3443"}
	for i := range want {
		if out[i].Symbol != want[i] {
			t.Fatalf("symbol[%d] = %q, want %q", i, out[i].Symbol, want[i])
		}
	}
}

func TestCollectFallbackWhenAllSourcesFail(t *testing.T) {
	twse := &fakeSource{name: "twse", err: fmt.Errorf("down")}
	tpex := &fakeSource{name: "tpex", err: fmt.Errorf("down")}
	ic, metrics, _ := newTestCollector(t, twse, tpex)

	res, err := ic.Collect(context.Background(), models.IndexTWII)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if res.Instruments != len(fallbackRoster) {
		t.Fatalf("got %d instruments, want fallback %d", res.Instruments, len(fallbackRoster))
	}
	if metrics.errors["twse_fetch"] != 1 || metrics.errors["tpex_fetch"] != 1 {
		t.Fatalf("metrics errors = %v", metrics.errors)
	}
}

func TestCollectDiffChanges(t *testing.T) {
	twse := &fakeSource{name: "twse", symbols: []string{"1101", "2330"}}
	tpex := &fakeSource{name: "tpex"}
	ic, _, _ := newTestCollector(t, twse, tpex)
	ctx := context.Background()

	first, err := ic.Collect(ctx, models.IndexTWII)
	if err != nil {
		t.Fatalf("first collect: %v", err)
	}
	if first.Added != 0 || first.Removed != 0 {
		t.Fatalf("first run should have no diff, got +%d -%d", first.Added, first.Removed)
	}

	twse.symbols = []string{"2330", "2454"} // 1101 out, 2454 in
	second, err := ic.Collect(ctx, models.IndexTWII)
	if err != nil {
		t.Fatalf("second collect: %v", err)
	}
	if second.Added != 1 || second.Removed != 1 {
		t.Fatalf("got +%d -%d, want +1 -1", second.Added, second.Removed)
	}
}

func TestCollectErrorsOnBadSymbol(t *testing.T) {
	twse := &fakeSource{name: "twse", symbols: []string{"2330", "ABC"}}
	tpex := &fakeSource{name: "tpex"}
	ic, _, _ := newTestCollector(t, twse, tpex)

	if _, err := ic.Collect(context.Background(), models.IndexTWII); err == nil {
		t.Fatalf("expected error for non-numeric symbol")
	}
}

func TestSaveNewCompanies(t *testing.T) {
	twse := &fakeSource{name: "twse", symbols: []string{"2330", "1101"}}
	tpex := &fakeSource{name: "tpex"}
	ic, _, _ := newTestCollector(t, twse, tpex)

	path, err := ic.SaveNewCompanies(context.Background(), models.IndexTWII)
	if err != nil {
		t.Fatalf("save companies: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if lines[0] != "symbol,start_date,end_date" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "TW1101,1990-01-01,") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}
