// Package fundamentals reconciles inconsistently reported accounting facts
// into clean per-quarter and point-in-time series.
// 분기화(quarterization), 태그 폴백, instant 시리즈가 전부 여기에 있다.
package fundamentals

import (
	"strings"
	"time"
)

// FiscalPeriod identifies which fiscal period a fact covers
type FiscalPeriod string

const (
	PeriodQ1    FiscalPeriod = "Q1"
	PeriodQ2    FiscalPeriod = "Q2"
	PeriodQ3    FiscalPeriod = "Q3"
	PeriodQ4    FiscalPeriod = "Q4"
	PeriodFY    FiscalPeriod = "FY"
	PeriodOther FiscalPeriod = ""
)

// ParseFiscalPeriod normalizes a vendor fp string
func ParseFiscalPeriod(fp string) FiscalPeriod {
	switch strings.ToUpper(fp) {
	case "Q1", "Q2", "Q3", "Q4", "FY":
		return FiscalPeriod(strings.ToUpper(fp))
	default:
		return PeriodOther
	}
}

// Quarter returns 1..4 for quarter periods, 0 otherwise
func (p FiscalPeriod) Quarter() int {
	switch p {
	case PeriodQ1:
		return 1
	case PeriodQ2:
		return 2
	case PeriodQ3:
		return 3
	case PeriodQ4:
		return 4
	default:
		return 0
	}
}

// Fact is a single reported data point with filing metadata.
// Facts are immutable after ingestion; anything without a period end or a
// numeric value is dropped at the parse boundary and never reaches here.
type Fact struct {
	Value      float64
	Unit       string
	FiscalYear int
	Period     FiscalPeriod
	Frame      string    // optional vendor frame, may mark cumulative values
	Start      time.Time // zero when the vendor omitted the period start
	End        time.Time
	Form       string // filing form, e.g. "10-Q", "10-K"
	Filed      time.Time
}

// DefaultYTDSpanDays is the span above which a quarter-tagged fact is treated
// as cumulative even without an explicit marker. Some vendors report
// year-to-date rows under a plain quarter label; a single quarter is at most
// ~92 days, so anything well past that must span multiple quarters.
// 일부 보고서는 긴 discrete 기간을 갖기도 하므로 임계값은 교체 가능하게 둔다.
const DefaultYTDSpanDays = 115

// acceptedForms are the filing types whose facts are trusted for series
// building. Amended filings supersede the originals they amend.
var acceptedForms = map[string]bool{
	"10-Q":   true,
	"10-Q/A": true,
	"10-K":   true,
	"10-K/A": true,
}

// AcceptedForm reports whether the fact comes from a quarterly/annual report
func (f Fact) AcceptedForm() bool {
	return acceptedForms[f.Form]
}

// SpanDays returns the covered period length, or 0 when Start is unknown
func (f Fact) SpanDays() int {
	if f.Start.IsZero() || f.End.IsZero() {
		return 0
	}
	return int(f.End.Sub(f.Start).Hours() / 24)
}

// factKind partitions duration facts for quarterization
type factKind int

const (
	kindOther factKind = iota
	kindDiscrete
	kindYearToDate
	kindAnnual
)

// classify buckets a fact as discrete-quarter, year-to-date or full-year.
// ytdSpanDays is the cumulative-span threshold (DefaultYTDSpanDays unless
// overridden on the Quarterizer).
func classify(f Fact, ytdSpanDays int) factKind {
	if f.Period == PeriodFY {
		return kindAnnual
	}

	if f.Period.Quarter() == 0 {
		return kindOther
	}

	if cumulativeFrame(f.Frame) {
		return kindYearToDate
	}
	if span := f.SpanDays(); span > ytdSpanDays {
		return kindYearToDate
	}
	return kindDiscrete
}

// cumulativeFrame reports whether the vendor frame explicitly marks a
// cumulative (year-to-date) accumulation
func cumulativeFrame(frame string) bool {
	return strings.Contains(strings.ToUpper(frame), "YTD")
}

// supersedes reports whether a beats b under the restatement rule:
// latest period end wins, latest filing date breaks ties.
func supersedes(a, b Fact) bool {
	if !a.End.Equal(b.End) {
		return a.End.After(b.End)
	}
	return a.Filed.After(b.Filed)
}
