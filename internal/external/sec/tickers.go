package sec

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// TickerEntry is one row of the SEC company ticker directory
type TickerEntry struct {
	CIK    string
	Ticker string
	Name   string
}

// tickerRow matches company_tickers.json, which is keyed by row index
// with cik_str as a bare number
type tickerRow struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Tickers downloads the full ticker-to-CIK directory from www.sec.gov.
// CIKs are returned zero-padded to 10 digits, the format every XBRL
// endpoint expects.
func (c *Client) Tickers(ctx context.Context) ([]TickerEntry, error) {
	endpoint := fmt.Sprintf("%s/files/company_tickers.json", c.cfg.FilesURL)

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("company_tickers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("company_tickers: HTTP %d", resp.StatusCode)
	}

	var rows map[string]tickerRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("company_tickers: decode: %w", err)
	}

	entries := make([]TickerEntry, 0, len(rows))
	for _, row := range rows {
		if row.Ticker == "" {
			continue
		}
		entries = append(entries, TickerEntry{
			CIK:    fmt.Sprintf("%010d", row.CIK),
			Ticker: strings.ToUpper(row.Ticker),
			Name:   row.Title,
		})
	}

	c.logger.WithField("count", len(entries)).Info("Loaded SEC ticker directory")
	return entries, nil
}

// ResolveCIK returns the zero-padded CIK for one ticker symbol
func (c *Client) ResolveCIK(ctx context.Context, ticker string) (string, error) {
	entries, err := c.Tickers(ctx)
	if err != nil {
		return "", err
	}

	want := strings.ToUpper(strings.TrimSpace(ticker))
	for _, e := range entries {
		if e.Ticker == want {
			return e.CIK, nil
		}
	}
	return "", fmt.Errorf("ticker %s not found in SEC directory", ticker)
}
