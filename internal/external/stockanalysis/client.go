package stockanalysis

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/httputil"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// Row is one scraped daily close
type Row struct {
	Date  time.Time
	Close float64
}

// Client scrapes the price history table from stockanalysis.com.
// This is the last-resort source when the CSV and chart APIs both fail, so
// parsing is deliberately lenient about cells it does not recognize.
type Client struct {
	httpClient *httputil.Client
	cfg        config.StockAnalysisConfig
	logger     *logger.Logger
}

// NewClient creates a new stockanalysis.com scraper
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: httputil.New(cfg, log),
		cfg:        cfg.StockAnalysis,
		logger:     log.WithField("module", "stockanalysis"),
	}
}

// History scrapes the full visible history table for a ticker
func (c *Client) History(ctx context.Context, ticker string) ([]Row, error) {
	endpoint := fmt.Sprintf("%s/stocks/%s/history/", c.cfg.BaseURL, url.PathEscape(strings.ToLower(ticker)))

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("stockanalysis %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stockanalysis %s: HTTP %d", ticker, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stockanalysis %s: parse: %w", ticker, err)
	}

	var rows []Row
	doc.Find("table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 5 {
			return
		}

		date, err := time.Parse("Jan 2, 2006", strings.TrimSpace(cells.Eq(0).Text()))
		if err != nil {
			return
		}
		closePrice, err := parsePrice(cells.Eq(4).Text())
		if err != nil {
			return
		}
		rows = append(rows, Row{Date: date, Close: closePrice})
	})

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"rows":   len(rows),
	}).Debug("Scraped stockanalysis history")
	return rows, nil
}

func parsePrice(text string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "$", "").Replace(strings.TrimSpace(text))
	return strconv.ParseFloat(cleaned, 64)
}
