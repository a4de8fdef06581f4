package prices

import (
	"context"
	"fmt"

	"github.com/wonny/stockmetrics/backend/internal/external/stockanalysis"
	"github.com/wonny/stockmetrics/backend/internal/external/stooq"
	"github.com/wonny/stockmetrics/backend/internal/external/yahoo"
	"github.com/wonny/stockmetrics/backend/pkg/fallback"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// Vendor source tags recorded on the resolved series
const (
	SourceStooqDaily    = "stooq:d"
	SourceStooqWeekly   = "stooq:w"
	SourceStooqMonthly  = "stooq:m"
	SourceYahoo         = "yahoo"
	SourceStockAnalysis = "stockanalysis"
)

// StooqSource is the Stooq vendor surface the resolver needs
type StooqSource interface {
	History(ctx context.Context, ticker string, interval stooq.Interval) ([]stooq.Bar, error)
}

// YahooSource is the Yahoo vendor surface the resolver needs
type YahooSource interface {
	History(ctx context.Context, ticker string) ([]yahoo.Quote, error)
}

// ScrapeSource is the stockanalysis.com vendor surface the resolver needs
type ScrapeSource interface {
	History(ctx context.Context, ticker string) ([]stockanalysis.Row, error)
}

// Resolver builds a price series by walking the vendor ladder: Stooq daily,
// then weekly, then monthly, then the Yahoo chart API, then the
// stockanalysis.com scrape. The first vendor returning any data wins; vendor
// failures downgrade to the next rung.
// ⭐ SSOT: 가격 소스 우선순위는 여기서만 결정
type Resolver struct {
	stooq  StooqSource
	yahoo  YahooSource
	scrape ScrapeSource
	logger *logger.Logger
}

// NewResolver creates a price resolver over the three vendors
func NewResolver(stooqClient StooqSource, yahooClient YahooSource, scrapeClient ScrapeSource, log *logger.Logger) *Resolver {
	return &Resolver{
		stooq:  stooqClient,
		yahoo:  yahooClient,
		scrape: scrapeClient,
		logger: log.WithField("module", "prices"),
	}
}

// Resolve returns the best available price series for a ticker.
// An error is returned only when every rung came back empty.
func (r *Resolver) Resolve(ctx context.Context, ticker string) (*Series, error) {
	// fallback.First short-circuits, so the last write wins and names
	// the vendor that actually produced the points.
	var winner string
	tag := func(source string, fetch fallback.Source[Point]) fallback.Source[Point] {
		return func(ctx context.Context) ([]Point, error) {
			points, err := fetch(ctx)
			if err != nil {
				r.logger.WithError(err).WithFields(map[string]interface{}{
					"ticker": ticker,
					"source": source,
				}).Warn("Price source failed, trying next")
				return nil, err
			}
			winner = source
			return points, nil
		}
	}

	points := fallback.First(ctx,
		tag(SourceStooqDaily, r.stooqSource(ticker, stooq.IntervalDaily)),
		tag(SourceStooqWeekly, r.stooqSource(ticker, stooq.IntervalWeekly)),
		tag(SourceStooqMonthly, r.stooqSource(ticker, stooq.IntervalMonthly)),
		tag(SourceYahoo, r.yahooSource(ticker)),
		tag(SourceStockAnalysis, r.scrapeSource(ticker)),
	)
	if len(points) == 0 {
		return nil, fmt.Errorf("no price source has data for %s", ticker)
	}

	r.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"source": winner,
		"points": len(points),
	}).Info("Resolved price series")
	return NewSeries(points, winner), nil
}

func (r *Resolver) stooqSource(ticker string, interval stooq.Interval) fallback.Source[Point] {
	return func(ctx context.Context) ([]Point, error) {
		bars, err := r.stooq.History(ctx, ticker, interval)
		if err != nil {
			return nil, err
		}
		points := make([]Point, len(bars))
		for i, b := range bars {
			points[i] = Point{Date: b.Date, Close: b.Close}
		}
		return points, nil
	}
}

func (r *Resolver) yahooSource(ticker string) fallback.Source[Point] {
	return func(ctx context.Context) ([]Point, error) {
		quotes, err := r.yahoo.History(ctx, ticker)
		if err != nil {
			return nil, err
		}
		points := make([]Point, len(quotes))
		for i, q := range quotes {
			points[i] = Point{Date: q.Date, Close: q.Close}
		}
		return points, nil
	}
}

func (r *Resolver) scrapeSource(ticker string) fallback.Source[Point] {
	return func(ctx context.Context) ([]Point, error) {
		rows, err := r.scrape.History(ctx, ticker)
		if err != nil {
			return nil, err
		}
		points := make([]Point, len(rows))
		for i, row := range rows {
			points[i] = Point{Date: row.Date, Close: row.Close}
		}
		return points, nil
	}
}
