package sec

import (
	"sort"
	"time"

	"github.com/wonny/stockmetrics/backend/internal/fundamentals"
)

// conceptDoc is the companyconcept response shape
type conceptDoc struct {
	Units unitMap `json:"units"`
}

// companyFactsDoc is the companyfacts response shape
type companyFactsDoc struct {
	Facts bulkFacts `json:"facts"`
}

// bulkFacts maps taxonomy -> tag -> units
type bulkFacts map[string]map[string]bulkConcept

type bulkConcept struct {
	Units unitMap `json:"units"`
}

// unitMap maps a unit name (USD, shares, USD/shares) to its raw fact rows
type unitMap map[string][]factRow

// factRow is one reported datapoint. Val is a pointer because EDGAR
// occasionally serves rows without a value; those are dropped.
type factRow struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Val   *float64 `json:"val"`
	FY    int      `json:"fy"`
	FP    string   `json:"fp"`
	Form  string   `json:"form"`
	Filed string   `json:"filed"`
	Frame string   `json:"frame"`
}

// toFacts flattens all units into domain facts, dropping rows that are
// unusable (no value, no period end, or a non-report filing form). Units are
// walked in sorted order so output is deterministic across runs.
func (u unitMap) toFacts() []fundamentals.Fact {
	unitNames := make([]string, 0, len(u))
	for name := range u {
		unitNames = append(unitNames, name)
	}
	sort.Strings(unitNames)

	var facts []fundamentals.Fact
	for _, name := range unitNames {
		for _, row := range u[name] {
			f, ok := row.toFact(name)
			if !ok {
				continue
			}
			facts = append(facts, f)
		}
	}
	return facts
}

func (r factRow) toFact(unit string) (fundamentals.Fact, bool) {
	if r.Val == nil {
		return fundamentals.Fact{}, false
	}
	end, err := time.Parse("2006-01-02", r.End)
	if err != nil {
		return fundamentals.Fact{}, false
	}

	f := fundamentals.Fact{
		Value:      *r.Val,
		Unit:       unit,
		FiscalYear: r.FY,
		Period:     fundamentals.ParseFiscalPeriod(r.FP),
		Frame:      r.Frame,
		End:        end,
		Form:       r.Form,
	}
	if !f.AcceptedForm() {
		return fundamentals.Fact{}, false
	}
	if start, err := time.Parse("2006-01-02", r.Start); err == nil {
		f.Start = start
	}
	if filed, err := time.Parse("2006-01-02", r.Filed); err == nil {
		f.Filed = filed
	}
	return f, true
}
