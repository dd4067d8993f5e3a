package tpex

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleQuotes = `{
  "tables": [
    {
      "data": [
        ["3443", "創意", "1500.00"],
        ["6488", "環球晶", "500.00"],
        ["006201", "元大富櫃50", "20.00"],
        ["730979", "指數", "0"],
        ["富櫃50", "n/a", "0"],
        ["911", "too short", "0"]
      ]
    }
  ]
}`

func TestExtractSymbols(t *testing.T) {
	var resp quotesResponse
	if err := json.Unmarshal([]byte(sampleQuotes), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	symbols := extractSymbols(&resp)
	want := []string{"3443", "6488", "730979"}
	if len(symbols) != len(want) {
		t.Fatalf("got %v, want %v", symbols, want)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Fatalf("symbols[%d] = %q, want %q", i, symbols[i], want[i])
		}
	}
}

func TestExtractSymbolsNoTables(t *testing.T) {
	if got := extractSymbols(&quotesResponse{}); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestFallbackCopies(t *testing.T) {
	a := fallback()
	a[0] = "9999"
	b := fallback()
	if b[0] == "9999" {
		t.Fatalf("fallback shares backing array")
	}
	if len(b) != len(fallbackSymbols) {
		t.Fatalf("fallback length %d", len(b))
	}
}

func TestCachePayloadName(t *testing.T) {
	dir := t.TempDir()
	c := &Client{cacheDir: dir}
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	c.cachePayload(date, []byte(sampleQuotes))

	body, err := os.ReadFile(filepath.Join(dir, "tpex_companies_20240603.json"))
	if err != nil {
		t.Fatalf("read cached payload: %v", err)
	}
	if string(body) != sampleQuotes {
		t.Fatalf("cached payload altered")
	}
}
