package metrics

import (
	"encoding/json"
	"math"
	"time"
)

// Missing returns the sentinel for a metric that could not be computed.
// NaN and only NaN: a zero-division guard must yield Missing, never Inf.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether v is the missing sentinel
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// QuarterMetrics is one composed quarter row: the reconciled fundamentals,
// the matched price, and the derived valuation ratios. Any field can carry
// the missing sentinel.
type QuarterMetrics struct {
	Ticker          string
	PeriodEnd       time.Time
	Revenue         float64
	OperatingIncome float64
	EPS             float64
	Equity          float64
	Shares          float64
	Price           float64
	PER             float64
	PBR             float64
	PriceSource     string
}

// quarterMetricsJSON is the wire shape; missing values serialize as null
// because JSON has no NaN.
type quarterMetricsJSON struct {
	Ticker          string   `json:"ticker"`
	PeriodEnd       string   `json:"period_end"`
	Revenue         *float64 `json:"revenue"`
	OperatingIncome *float64 `json:"operating_income"`
	EPS             *float64 `json:"eps"`
	Equity          *float64 `json:"equity"`
	Shares          *float64 `json:"shares"`
	Price           *float64 `json:"price"`
	PER             *float64 `json:"per"`
	PBR             *float64 `json:"pbr"`
	PriceSource     string   `json:"price_source,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (m QuarterMetrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(quarterMetricsJSON{
		Ticker:          m.Ticker,
		PeriodEnd:       m.PeriodEnd.Format("2006-01-02"),
		Revenue:         optional(m.Revenue),
		OperatingIncome: optional(m.OperatingIncome),
		EPS:             optional(m.EPS),
		Equity:          optional(m.Equity),
		Shares:          optional(m.Shares),
		Price:           optional(m.Price),
		PER:             optional(m.PER),
		PBR:             optional(m.PBR),
		PriceSource:     m.PriceSource,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (m *QuarterMetrics) UnmarshalJSON(data []byte) error {
	var w quarterMetricsJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	end, err := time.Parse("2006-01-02", w.PeriodEnd)
	if err != nil {
		return err
	}
	*m = QuarterMetrics{
		Ticker:          w.Ticker,
		PeriodEnd:       end,
		Revenue:         fromOptional(w.Revenue),
		OperatingIncome: fromOptional(w.OperatingIncome),
		EPS:             fromOptional(w.EPS),
		Equity:          fromOptional(w.Equity),
		Shares:          fromOptional(w.Shares),
		Price:           fromOptional(w.Price),
		PER:             fromOptional(w.PER),
		PBR:             fromOptional(w.PBR),
		PriceSource:     w.PriceSource,
	}
	return nil
}

func optional(v float64) *float64 {
	if IsMissing(v) {
		return nil
	}
	return &v
}

func fromOptional(p *float64) float64 {
	if p == nil {
		return Missing()
	}
	return *p
}
