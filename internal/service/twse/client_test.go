package twse

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/text/encoding/traditionalchinese"
)

const sampleCSV = `"113年06月 2330 台積電 各日成交資訊"
"證券代號","證券名稱","收盤價","月平均價"
"0050","元大台灣50","180.00","178.50"
"2330","台積電","900.00","880.00"
"2317","鴻海","200.00","195.00"
"=備註: 統計資訊"
`

func TestParseCompaniesCSV(t *testing.T) {
	symbols, err := parseCompaniesCSV([]byte(sampleCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"0050", "2330", "2317"}
	if len(symbols) != len(want) {
		t.Fatalf("got %d symbols, want %d: %v", len(symbols), len(want), symbols)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Fatalf("symbols[%d] = %q, want %q", i, symbols[i], want[i])
		}
	}
}

func TestParseCompaniesCSVEmpty(t *testing.T) {
	if _, err := parseCompaniesCSV([]byte("")); err == nil {
		t.Fatalf("expected error for empty body")
	}
}

func TestDecodedReaderBig5(t *testing.T) {
	enc := traditionalchinese.Big5.NewEncoder()
	big5, err := enc.Bytes([]byte(sampleCSV))
	if err != nil {
		t.Fatalf("encode big5: %v", err)
	}

	decoded, err := io.ReadAll(decodedReader(big5))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(decoded) != sampleCSV {
		t.Fatalf("big5 payload not decoded to utf-8")
	}

	symbols, err := parseCompaniesCSV(big5)
	if err != nil {
		t.Fatalf("parse big5: %v", err)
	}
	if len(symbols) != 3 {
		t.Fatalf("got %d symbols from big5 payload", len(symbols))
	}
}

func TestCachePayloadName(t *testing.T) {
	dir := t.TempDir()
	c := &Client{cacheDir: dir}
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	c.cachePayload(date, []byte(sampleCSV))

	body, err := os.ReadFile(filepath.Join(dir, "twse_companies_20240603.csv"))
	if err != nil {
		t.Fatalf("read cached payload: %v", err)
	}
	if string(body) != sampleCSV {
		t.Fatalf("cached payload altered")
	}
}
