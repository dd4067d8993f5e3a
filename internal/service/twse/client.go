package twse

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	drepo "TWPull/internal/domain/repository"
	xhttp "TWPull/pkg/http"
	"TWPull/pkg/util"

	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

const (
	companiesURL = "https://www.twse.com.tw/exchangeReport/STOCK_DAY_AVG_ALL"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.101 Safari/537.36"
)

// Client fetches the TWSE listed-company roster from the daily average
// price report (CSV).
type Client struct {
	http     *xhttp.Client
	cacheDir string
}

// New creates a TWSE ExchangeSource.
func New(httpClient *xhttp.Client, cacheDir string) drepo.ExchangeSource {
	return &Client{http: httpClient, cacheDir: cacheDir}
}

func (c *Client) Name() string { return "twse" }

// FetchSymbols downloads the report for date and extracts the stock codes.
func (c *Client) FetchSymbols(ctx context.Context, date time.Time) ([]string, error) {
	_, body, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    companiesURL,
		Headers: map[string]string{
			"User-Agent": userAgent,
		},
		QueryParams: map[string][]string{
			"response": {"csv"},
			"date":     {util.FormatTWSEDate(date)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("twse fetch companies: %w", err)
	}

	if c.cacheDir != "" {
		c.cachePayload(date, body)
	}

	return parseCompaniesCSV(body)
}

// parseCompaniesCSV extracts the first field of each data row. The report
// wraps fields in quotes and pads with summary lines starting with "=".
func parseCompaniesCSV(body []byte) ([]string, error) {
	sc := bufio.NewScanner(decodedReader(body))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var symbols []string
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "=") {
			continue
		}
		if first { // header row
			first = false
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		symbol := strings.TrimSpace(strings.Trim(parts[0], `"`))
		if symbol == "" || !isNumeric(symbol) {
			continue
		}
		symbols = append(symbols, symbol)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("twse scan csv: %w", err)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("twse: no companies in response")
	}
	return symbols, nil
}

// decodedReader transparently converts Big5 payloads; the exchange serves
// some report endpoints in Big5 and others in UTF-8.
func decodedReader(body []byte) *bufio.Reader {
	if utf8.Valid(body) {
		return bufio.NewReader(bytes.NewReader(body))
	}
	return bufio.NewReader(transform.NewReader(bytes.NewReader(body), traditionalchinese.Big5.NewDecoder()))
}

func (c *Client) cachePayload(date time.Time, body []byte) {
	name := fmt.Sprintf("twse_companies_%s.csv", util.FormatTWSEDate(date))
	_ = os.MkdirAll(c.cacheDir, 0o755)
	_ = os.WriteFile(filepath.Join(c.cacheDir, name), body, 0o644)
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
