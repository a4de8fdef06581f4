package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/stockmetrics/backend/internal/fundamentals"
	"github.com/wonny/stockmetrics/backend/internal/prices"
	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// FactResolver resolves candidate concept tags into raw facts
type FactResolver interface {
	Resolve(ctx context.Context, cik string, candidates []fundamentals.Candidate) []fundamentals.Fact
	ResolveUnion(ctx context.Context, cik string, groups ...[]fundamentals.Candidate) []fundamentals.Fact
}

// PriceResolver resolves a ticker into a price series
type PriceResolver interface {
	Resolve(ctx context.Context, ticker string) (*prices.Series, error)
}

// CIKResolver maps a ticker symbol to its SEC CIK
type CIKResolver interface {
	ResolveCIK(ctx context.Context, ticker string) (string, error)
}

// Service computes the full quarter-metrics history for a ticker: fetch,
// quarterize, compose. One call per ticker, safe for concurrent tickers.
type Service struct {
	facts       FactResolver
	priceSource PriceResolver
	ciks        CIKResolver
	concepts    fundamentals.ConceptSet
	quarterizer *fundamentals.Quarterizer
	composer    *Composer
	logger      *logger.Logger

	// now is injectable so composition is reproducible in tests
	now func() time.Time
}

// NewService wires the metrics pipeline
func NewService(facts FactResolver, priceSource PriceResolver, ciks CIKResolver, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{
		facts:       facts,
		priceSource: priceSource,
		ciks:        ciks,
		concepts:    fundamentals.DefaultConcepts(),
		quarterizer: fundamentals.NewQuarterizer(),
		composer:    NewComposer(cfg.Fetcher),
		logger:      log.WithField("module", "metrics"),
		now:         time.Now,
	}
}

// WithClock overrides the composition clock
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// QuarterMetrics fetches everything for one ticker and composes the rows.
// Branch failures degrade to empty series; only an unresolvable ticker is
// a hard error.
func (s *Service) QuarterMetrics(ctx context.Context, ticker string) ([]QuarterMetrics, error) {
	cik, err := s.ciks.ResolveCIK(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("resolve ticker %s: %w", ticker, err)
	}

	start := time.Now()
	in := s.fetchAll(ctx, ticker, cik)

	rows := s.composer.Compose(in, s.now())
	s.logger.WithFields(map[string]interface{}{
		"ticker":   ticker,
		"cik":      cik,
		"quarters": len(rows),
		"duration": time.Since(start).String(),
	}).Info("Composed quarter metrics")
	return rows, nil
}

// fetchAll runs every upstream branch concurrently. Each branch writes only
// its own field of the input, so no locking is needed beyond the WaitGroup.
func (s *Service) fetchAll(ctx context.Context, ticker, cik string) ComposeInput {
	in := ComposeInput{Ticker: ticker}

	var wg sync.WaitGroup
	run := func(f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}

	run(func() {
		facts := s.facts.ResolveUnion(ctx, cik, s.concepts.RevenueGroups...)
		in.Revenue = s.quarterizer.Quarterize(facts)
	})
	run(func() {
		facts := s.facts.Resolve(ctx, cik, s.concepts.OperatingIncome)
		in.OperatingIncome = s.quarterizer.Quarterize(facts)
	})
	run(func() {
		facts := s.facts.Resolve(ctx, cik, s.concepts.EPSDiluted)
		in.EPS = s.quarterizer.Quarterize(facts)
	})
	run(func() {
		facts := s.facts.Resolve(ctx, cik, s.concepts.NetIncome)
		in.NetIncome = s.quarterizer.Quarterize(facts)
	})
	run(func() {
		facts := s.facts.Resolve(ctx, cik, s.concepts.WeightedDiluted)
		in.WeightedShares = s.quarterizer.Quarterize(facts)
	})
	run(func() {
		facts := s.facts.Resolve(ctx, cik, s.concepts.Equity)
		in.Equity = fundamentals.BuildInstantSeries(facts)
	})
	run(func() {
		facts := s.facts.Resolve(ctx, cik, s.concepts.Shares)
		in.Shares = fundamentals.BuildInstantSeries(facts)
	})
	run(func() {
		series, err := s.priceSource.Resolve(ctx, ticker)
		if err != nil {
			s.logger.WithError(err).WithField("ticker", ticker).Warn("No price series, ratios will be missing")
			return
		}
		in.Prices = series
	})

	wg.Wait()
	return in
}
