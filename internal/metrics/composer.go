package metrics

import (
	"sort"
	"time"

	"github.com/wonny/stockmetrics/backend/internal/fundamentals"
	"github.com/wonny/stockmetrics/backend/internal/prices"
	"github.com/wonny/stockmetrics/backend/pkg/config"
)

// ComposeInput carries every reconciled series for one ticker. Any series
// may be nil or empty; composition degrades per-field instead of failing.
type ComposeInput struct {
	Ticker string

	Revenue         fundamentals.QuarterSeries
	OperatingIncome fundamentals.QuarterSeries
	EPS             fundamentals.QuarterSeries

	// EPS derivation fallback operands
	NetIncome      fundamentals.QuarterSeries
	WeightedShares fundamentals.QuarterSeries

	Equity *fundamentals.InstantSeries
	Shares *fundamentals.InstantSeries

	Prices *prices.Series
}

// Composer aligns per-concept quarter series onto a shared set of period
// ends and derives the valuation ratios. Composition is pure: the same
// input and asOf always produce the same rows.
type Composer struct {
	cfg config.FetcherConfig
}

// NewComposer creates a composer with the given tolerances and caps
func NewComposer(cfg config.FetcherConfig) *Composer {
	return &Composer{cfg: cfg}
}

// Compose builds the quarter rows, newest first.
//
// Candidate period ends are the union of the revenue, operating income and
// EPS period ends. Ends older than the lookback cutoff are dropped, near
// duplicate ends collapse onto the newer one, and at most MaxQuarters rows
// survive. A row is emitted only when at least one income-statement
// fundamental resolved for its period end.
func (c *Composer) Compose(in ComposeInput, asOf time.Time) []QuarterMetrics {
	revenue := newSeriesIndex(in.Revenue)
	opIncome := newSeriesIndex(in.OperatingIncome)
	eps := newSeriesIndex(in.EPS)
	netIncome := newSeriesIndex(in.NetIncome)
	weighted := newSeriesIndex(in.WeightedShares)

	cutoff := asOf.AddDate(-c.cfg.LookbackYears, 0, -c.cfg.LookbackGraceDays)
	ends := c.candidateEnds(asOf, cutoff, revenue, opIncome, eps)

	rows := make([]QuarterMetrics, 0, len(ends))
	for _, end := range ends {
		if len(rows) >= c.cfg.MaxQuarters {
			break
		}

		row := QuarterMetrics{
			Ticker:          in.Ticker,
			PeriodEnd:       end,
			Revenue:         revenue.nearest(end, c.cfg.MatchToleranceDays),
			OperatingIncome: opIncome.nearest(end, c.cfg.MatchToleranceDays),
			EPS:             eps.nearest(end, c.cfg.MatchToleranceDays),
			Equity:          Missing(),
			Shares:          Missing(),
			Price:           Missing(),
			PER:             Missing(),
			PBR:             Missing(),
		}
		if IsMissing(row.Revenue) && IsMissing(row.OperatingIncome) && IsMissing(row.EPS) {
			continue
		}

		if IsMissing(row.EPS) {
			row.EPS = derivedEPS(
				netIncome.nearest(end, c.cfg.MatchToleranceDays),
				weighted.nearest(end, c.cfg.MatchToleranceDays),
			)
		}

		if in.Equity != nil {
			if v, ok := in.Equity.AsOf(end); ok {
				row.Equity = v
			}
		}
		if in.Shares != nil {
			if v, ok := in.Shares.AsOf(end); ok {
				row.Shares = v
			}
		}
		if in.Prices != nil {
			if p, ok := in.Prices.Nearest(end, c.cfg.PriceToleranceDays); ok {
				row.Price = p.Close
				row.PriceSource = in.Prices.Source()
			}
		}

		row.PER = ratioPER(row.Price, row.EPS)
		row.PBR = ratioPBR(row.Price, row.Equity, row.Shares)
		rows = append(rows, row)
	}
	return rows
}

// candidateEnds unions the period ends of the income-statement series,
// newest first, dropping ends older than cutoff or later than asOf and
// collapsing ends within the match tolerance of an already accepted one.
func (c *Composer) candidateEnds(asOf, cutoff time.Time, indexes ...*seriesIndex) []time.Time {
	seen := make(map[time.Time]bool)
	var all []time.Time
	for _, idx := range indexes {
		for _, e := range idx.ends {
			if seen[e] {
				continue
			}
			seen[e] = true
			all = append(all, e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].After(all[j]) })

	tolerance := time.Duration(c.cfg.MatchToleranceDays) * 24 * time.Hour
	var accepted []time.Time
	for _, e := range all {
		if e.After(asOf) || e.Before(cutoff) {
			continue
		}
		if len(accepted) > 0 && accepted[len(accepted)-1].Sub(e) <= tolerance {
			continue
		}
		accepted = append(accepted, e)
	}
	return accepted
}

// derivedEPS falls back to net income over weighted average diluted shares
func derivedEPS(netIncome, weightedShares float64) float64 {
	if IsMissing(netIncome) || IsMissing(weightedShares) || weightedShares == 0 {
		return Missing()
	}
	return netIncome / weightedShares
}

func ratioPER(price, eps float64) float64 {
	if IsMissing(price) || IsMissing(eps) || eps == 0 {
		return Missing()
	}
	return price / eps
}

func ratioPBR(price, equity, shares float64) float64 {
	if IsMissing(price) || IsMissing(equity) || IsMissing(shares) || equity == 0 || shares == 0 {
		return Missing()
	}
	return price / (equity / shares)
}

// seriesIndex is a quarter series reindexed by period end for nearest-date
// lookup. Reported period ends drift by a few days across concepts, so
// alignment is by proximity, not equality.
type seriesIndex struct {
	ends   []time.Time
	values map[time.Time]float64
}

func newSeriesIndex(s fundamentals.QuarterSeries) *seriesIndex {
	idx := &seriesIndex{values: make(map[time.Time]float64, len(s))}
	for _, key := range s.Keys() {
		v := s[key]
		if v.End.IsZero() {
			continue
		}
		idx.ends = append(idx.ends, v.End)
		idx.values[v.End] = v.Value
	}
	sort.Slice(idx.ends, func(i, j int) bool { return idx.ends[i].Before(idx.ends[j]) })
	return idx
}

// nearest returns the value whose period end is closest to target within
// toleranceDays, or the missing sentinel. Ties prefer the earlier end.
func (idx *seriesIndex) nearest(target time.Time, toleranceDays int) float64 {
	if len(idx.ends) == 0 {
		return Missing()
	}
	tolerance := time.Duration(toleranceDays) * 24 * time.Hour

	pos := sort.Search(len(idx.ends), func(i int) bool {
		return !idx.ends[i].Before(target)
	})

	best := time.Time{}
	bestDelta := tolerance + 1
	if pos > 0 {
		if d := target.Sub(idx.ends[pos-1]); d <= tolerance {
			best, bestDelta = idx.ends[pos-1], d
		}
	}
	if pos < len(idx.ends) {
		if d := idx.ends[pos].Sub(target); d <= tolerance && d < bestDelta {
			best = idx.ends[pos]
		}
	}
	if best.IsZero() {
		return Missing()
	}
	return idx.values[best]
}
