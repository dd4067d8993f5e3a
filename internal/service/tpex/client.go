package tpex

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	drepo "TWPull/internal/domain/repository"
	xhttp "TWPull/pkg/http"
	"TWPull/pkg/util"
)

const (
	quotesURL = "https://www.tpex.org.tw/web/stock/aftertrading/otc_quotes_no1430/stk_wn1430_result.php"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.101 Safari/537.36"
)

// fallbackSymbols covers the largest TPEx names when the quotes endpoint
// is unavailable.
var fallbackSymbols = []string{
	"3443", "6488", "5484", "4968", "6271",
	"5469", "3592", "4966", "6274", "4952",
}

// Client fetches the TPEx (OTC) roster from the after-trading quotes report.
type Client struct {
	http     *xhttp.Client
	cacheDir string
}

// New creates a TPEx ExchangeSource.
func New(httpClient *xhttp.Client, cacheDir string) drepo.ExchangeSource {
	return &Client{http: httpClient, cacheDir: cacheDir}
}

func (c *Client) Name() string { return "tpex" }

type quotesResponse struct {
	Tables []struct {
		Data [][]interface{} `json:"data"`
	} `json:"tables"`
}

// FetchSymbols downloads the OTC quotes for date and extracts equity codes.
// On upstream failure the static fallback roster is returned together with
// the error so the caller can degrade with a warning.
func (c *Client) FetchSymbols(ctx context.Context, date time.Time) ([]string, error) {
	var raw []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    quotesURL,
		Headers: map[string]string{
			"User-Agent": userAgent,
		},
		QueryParams: map[string][]string{
			"l":  {"zh-tw"},
			"d":  {util.FormatTWSEDate(date)},
			"se": {"EW"},
		},
	}, &raw)
	if err != nil {
		return fallback(), fmt.Errorf("tpex fetch quotes: %w", err)
	}

	if c.cacheDir != "" {
		c.cachePayload(date, raw)
	}

	var resp quotesResponse
	if uerr := json.Unmarshal(raw, &resp); uerr != nil {
		return fallback(), fmt.Errorf("tpex parse quotes: %w", uerr)
	}

	symbols := extractSymbols(&resp)
	if len(symbols) == 0 {
		return fallback(), fmt.Errorf("tpex: no equities in response")
	}
	return symbols, nil
}

// extractSymbols keeps all-digit codes of at least four characters and
// drops the 00-prefixed range (ETFs and similar products).
func extractSymbols(resp *quotesResponse) []string {
	if len(resp.Tables) == 0 {
		return nil
	}
	var symbols []string
	for _, row := range resp.Tables[0].Data {
		if len(row) < 1 {
			continue
		}
		symbol := strings.TrimSpace(fmt.Sprint(row[0]))
		if len(symbol) < 4 || !isNumeric(symbol) {
			continue
		}
		if strings.HasPrefix(symbol, "00") {
			continue
		}
		symbols = append(symbols, symbol)
	}
	return symbols
}

func (c *Client) cachePayload(date time.Time, body []byte) {
	name := fmt.Sprintf("tpex_companies_%s.json", util.FormatTWSEDate(date))
	_ = os.MkdirAll(c.cacheDir, 0o755)
	_ = os.WriteFile(filepath.Join(c.cacheDir, name), body, 0o644)
}

func fallback() []string {
	out := make([]string, len(fallbackSymbols))
	copy(out, fallbackSymbols)
	return out
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
