package sec

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/wonny/stockmetrics/backend/internal/fundamentals"
	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/httputil"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// Client wraps the SEC EDGAR XBRL API (data.sec.gov).
// SEC enforces a 10 req/s fair-access limit and rejects anonymous
// User-Agents, so every request goes through the identified, rate-limited
// httputil client.
// ⭐ SSOT: EDGAR 호출은 전부 이 클라이언트를 통해서만
type Client struct {
	httpClient *httputil.Client
	cfg        config.SECConfig
	logger     *logger.Logger

	// companyfacts responses are large (tens of MB for big filers) and a
	// single run asks for many concepts from the same document, so the
	// parsed document is memoized per CIK.
	mu       sync.Mutex
	bulkMemo map[string]bulkFacts
}

// NewClient creates a new SEC EDGAR client
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	host := hostOf(cfg.SEC.BaseURL)
	httpClient := httputil.New(cfg, log).
		WithUserAgent(cfg.SEC.UserAgent).
		WithHostLimit(host, cfg.SEC.RateLimit, cfg.SEC.RateBurst)

	return &Client{
		httpClient: httpClient,
		cfg:        cfg.SEC,
		logger:     log.WithField("module", "sec"),
		bulkMemo:   make(map[string]bulkFacts),
	}
}

// ConceptFacts fetches one concept from the per-concept endpoint.
// A 404 means the filer never reported under this tag and is not an error.
func (c *Client) ConceptFacts(ctx context.Context, cik string, cand fundamentals.Candidate) ([]fundamentals.Fact, error) {
	endpoint := fmt.Sprintf("%s/api/xbrl/companyconcept/CIK%s/%s/%s.json",
		c.cfg.BaseURL, cik, url.PathEscape(cand.Taxonomy), url.PathEscape(cand.Tag))

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("companyconcept %s/%s: %w", cand.Taxonomy, cand.Tag, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("companyconcept %s/%s: HTTP %d", cand.Taxonomy, cand.Tag, resp.StatusCode)
	}

	var doc conceptDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("companyconcept %s/%s: decode: %w", cand.Taxonomy, cand.Tag, err)
	}

	facts := doc.Units.toFacts()
	c.logger.WithFields(map[string]interface{}{
		"cik":   cik,
		"tag":   cand.Tag,
		"facts": len(facts),
	}).Debug("Fetched company concept")
	return facts, nil
}

// BulkConceptFacts extracts one concept from the all-facts document,
// fetching and memoizing the document on first use per CIK.
func (c *Client) BulkConceptFacts(ctx context.Context, cik string, cand fundamentals.Candidate) ([]fundamentals.Fact, error) {
	doc, err := c.companyFacts(ctx, cik)
	if err != nil {
		return nil, err
	}

	concepts, ok := doc[cand.Taxonomy]
	if !ok {
		return nil, nil
	}
	entry, ok := concepts[cand.Tag]
	if !ok {
		return nil, nil
	}
	return entry.Units.toFacts(), nil
}

func (c *Client) companyFacts(ctx context.Context, cik string) (bulkFacts, error) {
	c.mu.Lock()
	if doc, ok := c.bulkMemo[cik]; ok {
		c.mu.Unlock()
		return doc, nil
	}
	c.mu.Unlock()

	endpoint := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.cfg.BaseURL, cik)
	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("companyfacts CIK%s: %w", cik, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Unknown CIK: memoize the empty document so every candidate
		// does not refetch.
		c.mu.Lock()
		c.bulkMemo[cik] = bulkFacts{}
		c.mu.Unlock()
		return bulkFacts{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("companyfacts CIK%s: HTTP %d", cik, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("companyfacts CIK%s: read: %w", cik, err)
	}

	var doc companyFactsDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("companyfacts CIK%s: decode: %w", cik, err)
	}

	c.mu.Lock()
	c.bulkMemo[cik] = doc.Facts
	c.mu.Unlock()

	c.logger.WithFields(map[string]interface{}{
		"cik":   cik,
		"bytes": len(body),
	}).Debug("Fetched and memoized company facts")
	return doc.Facts, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
