package stooq

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/httputil"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// Interval selects the Stooq download granularity
type Interval string

const (
	IntervalDaily   Interval = "d"
	IntervalWeekly  Interval = "w"
	IntervalMonthly Interval = "m"
)

// Bar is one historical close from the Stooq CSV download
type Bar struct {
	Date  time.Time
	Close float64
}

// Client downloads historical prices from the Stooq CSV endpoint.
// Stooq serves anonymous CSV without an API key; empty or header-only
// responses mean the symbol is unknown and are not errors.
type Client struct {
	httpClient *httputil.Client
	cfg        config.StooqConfig
	logger     *logger.Logger
}

// NewClient creates a new Stooq client
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: httputil.New(cfg, log),
		cfg:        cfg.Stooq,
		logger:     log.WithField("module", "stooq"),
	}
}

// History downloads the full price history for a ticker at the given
// interval. The market suffix (".us") is appended to the lower-cased symbol.
func (c *Client) History(ctx context.Context, ticker string, interval Interval) ([]Bar, error) {
	symbol := strings.ToLower(ticker) + c.cfg.Suffix
	endpoint := fmt.Sprintf("%s/q/d/l/?s=%s&i=%s", c.cfg.BaseURL, url.QueryEscape(symbol), interval)

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("stooq %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stooq %s: HTTP %d", symbol, resp.StatusCode)
	}

	bars, err := parseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stooq %s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker":   ticker,
		"interval": string(interval),
		"bars":     len(bars),
	}).Debug("Fetched stooq history")
	return bars, nil
}

// parseCSV reads the Date,Open,High,Low,Close,Volume download format.
// Rows with an unparsable date or close are skipped, not fatal: Stooq
// history occasionally carries "No data" stubs or gap rows.
func parseCSV(r io.Reader) ([]Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var bars []Bar
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			continue
		}
		if len(record) < 5 {
			continue
		}

		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			continue
		}
		bars = append(bars, Bar{Date: date, Close: closePrice})
	}
	return bars, nil
}
