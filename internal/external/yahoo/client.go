package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/httputil"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// Quote is one daily close from the Yahoo chart API
type Quote struct {
	Date  time.Time
	Close float64
}

// Client fetches historical closes from the Yahoo Finance v8 chart API
type Client struct {
	httpClient *httputil.Client
	cfg        config.YahooConfig
	logger     *logger.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: httputil.New(cfg, log),
		cfg:        cfg.Yahoo,
		logger:     log.WithField("module", "yahoo"),
	}
}

// chartDoc is the relevant subset of the v8 chart response. Close entries
// are pointers because Yahoo serializes market holidays as null.
type chartDoc struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches daily closes over the configured range
func (c *Client) History(ctx context.Context, ticker string) ([]Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		c.cfg.BaseURL, url.PathEscape(ticker), url.QueryEscape(c.cfg.Range))

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo chart %s: HTTP %d", ticker, resp.StatusCode)
	}

	var doc chartDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: decode: %w", ticker, err)
	}
	if doc.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s", ticker, doc.Chart.Error.Code)
	}
	if len(doc.Chart.Result) == 0 {
		return nil, nil
	}

	result := doc.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	closes := result.Indicators.Quote[0].Close

	quotes := make([]Quote, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		quotes = append(quotes, Quote{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: *closes[i],
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"quotes": len(quotes),
	}).Debug("Fetched yahoo chart history")
	return quotes, nil
}
