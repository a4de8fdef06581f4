package fundamentals

import (
	"sort"
	"time"
)

// QuarterKey identifies one fiscal quarter, ordered by year then quarter
type QuarterKey struct {
	Year    int
	Quarter int // 1..4
}

// Before reports whether k precedes other in fiscal order
func (k QuarterKey) Before(other QuarterKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Quarter < other.Quarter
}

// QuarterValue is a resolved single-quarter amount with its period end
type QuarterValue struct {
	End   time.Time
	Value float64
}

// QuarterSeries maps fiscal quarters to resolved values for one concept.
// Unresolved quarters are simply absent from the map.
type QuarterSeries map[QuarterKey]QuarterValue

// Keys returns the series keys in ascending fiscal order
func (s QuarterSeries) Keys() []QuarterKey {
	keys := make([]QuarterKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}

// Quarterizer converts raw duration facts for one concept into a
// per-quarter series, deriving missing quarters from cumulative totals.
type Quarterizer struct {
	// YTDSpanDays is the period span above which a quarter-tagged fact
	// without an explicit cumulative marker is treated as year-to-date.
	YTDSpanDays int
}

// NewQuarterizer returns a quarterizer with the default cumulative threshold
func NewQuarterizer() *Quarterizer {
	return &Quarterizer{YTDSpanDays: DefaultYTDSpanDays}
}

// Quarterize resolves one value per fiscal quarter.
//
// Per quarter, a directly reported discrete value always wins. Otherwise the
// value is derived by differencing cumulative (year-to-date) totals, and Q4
// from the full-year total minus YTD Q3. A subtraction is only performed when
// both operands exist; the degraded quarter-sum fallbacks for Q2/Q3 are the
// only alternative derivations, so an absent counterpart can never produce a
// fabricated delta.
func (q *Quarterizer) Quarterize(facts []Fact) QuarterSeries {
	threshold := q.YTDSpanDays
	if threshold <= 0 {
		threshold = DefaultYTDSpanDays
	}

	// Partition, keeping only the superseding fact per key (restatements:
	// latest period end wins, then latest filing date).
	discrete := make(map[QuarterKey]Fact)
	ytd := make(map[QuarterKey]Fact)
	annual := make(map[int]Fact)

	for _, f := range facts {
		switch classify(f, threshold) {
		case kindDiscrete:
			key := QuarterKey{Year: f.FiscalYear, Quarter: f.Period.Quarter()}
			if prev, ok := discrete[key]; !ok || supersedes(f, prev) {
				discrete[key] = f
			}
		case kindYearToDate:
			key := QuarterKey{Year: f.FiscalYear, Quarter: f.Period.Quarter()}
			if prev, ok := ytd[key]; !ok || supersedes(f, prev) {
				ytd[key] = f
			}
		case kindAnnual:
			if prev, ok := annual[f.FiscalYear]; !ok || supersedes(f, prev) {
				annual[f.FiscalYear] = f
			}
		}
	}

	years := make(map[int]bool)
	for k := range discrete {
		years[k.Year] = true
	}
	for k := range ytd {
		years[k.Year] = true
	}
	for y := range annual {
		years[y] = true
	}

	out := make(QuarterSeries)
	for year := range years {
		q.resolveYear(year, discrete, ytd, annual, out)
	}
	return out
}

// resolveYear fills out for one fiscal year, Q1 through Q4 in order so that
// earlier resolved quarters are available to the degraded fallbacks.
func (q *Quarterizer) resolveYear(year int, discrete, ytd map[QuarterKey]Fact, annual map[int]Fact, out QuarterSeries) {
	key := func(quarter int) QuarterKey { return QuarterKey{Year: year, Quarter: quarter} }

	resolved := func(quarter int) (QuarterValue, bool) {
		v, ok := out[key(quarter)]
		return v, ok
	}

	// Q1: discrete, else the YTD row itself (Q1 YTD == Q1 discrete)
	if f, ok := discrete[key(1)]; ok {
		out[key(1)] = QuarterValue{End: f.End, Value: f.Value}
	} else if f, ok := ytd[key(1)]; ok {
		out[key(1)] = QuarterValue{End: f.End, Value: f.Value}
	}

	// Q2: discrete, else YTD(Q2)-YTD(Q1), else YTD(Q2)-Q1resolved
	if f, ok := discrete[key(2)]; ok {
		out[key(2)] = QuarterValue{End: f.End, Value: f.Value}
	} else if cum, ok := ytd[key(2)]; ok {
		if prev, ok := ytd[key(1)]; ok {
			out[key(2)] = QuarterValue{End: cum.End, Value: cum.Value - prev.Value}
		} else if q1, ok := resolved(1); ok {
			out[key(2)] = QuarterValue{End: cum.End, Value: cum.Value - q1.Value}
		}
	}

	// Q3: discrete, else YTD(Q3)-YTD(Q2), else YTD(Q3)-(Q1+Q2 resolved)
	if f, ok := discrete[key(3)]; ok {
		out[key(3)] = QuarterValue{End: f.End, Value: f.Value}
	} else if cum, ok := ytd[key(3)]; ok {
		if prev, ok := ytd[key(2)]; ok {
			out[key(3)] = QuarterValue{End: cum.End, Value: cum.Value - prev.Value}
		} else {
			q1, ok1 := resolved(1)
			q2, ok2 := resolved(2)
			if ok1 && ok2 {
				out[key(3)] = QuarterValue{End: cum.End, Value: cum.Value - (q1.Value + q2.Value)}
			}
		}
	}

	// Q4: discrete, else full-year total minus YTD(Q3)
	if f, ok := discrete[key(4)]; ok {
		out[key(4)] = QuarterValue{End: f.End, Value: f.Value}
	} else if total, ok := annual[year]; ok {
		if cum, ok := ytd[key(3)]; ok {
			out[key(4)] = QuarterValue{End: total.End, Value: total.Value - cum.Value}
		}
	}
}
