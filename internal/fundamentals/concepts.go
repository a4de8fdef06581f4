package fundamentals

// ConceptSet lists the candidate tags for each fundamental metric, in
// resolution priority order. Revenue is split into two groups because
// pre-ASC606 and ASC606 filers use disjoint tag families and a long history
// may straddle the transition.
type ConceptSet struct {
	RevenueGroups   [][]Candidate
	OperatingIncome []Candidate
	EPSDiluted      []Candidate
	NetIncome       []Candidate
	Equity          []Candidate
	Shares          []Candidate
	WeightedDiluted []Candidate
}

// DefaultConcepts returns the standard us-gaap (plus dei) tag chains
func DefaultConcepts() ConceptSet {
	gaap := func(tags ...string) []Candidate {
		out := make([]Candidate, len(tags))
		for i, t := range tags {
			out[i] = Candidate{Taxonomy: "us-gaap", Tag: t}
		}
		return out
	}
	return ConceptSet{
		RevenueGroups: [][]Candidate{
			gaap(
				"SalesRevenueNet",
				"Revenues",
				"SalesRevenueGoodsNet",
			),
			gaap(
				"RevenueFromContractWithCustomerExcludingAssessedTax",
				"RevenueFromContractWithCustomerIncludingAssessedTax",
			),
		},
		OperatingIncome: gaap("OperatingIncomeLoss"),
		EPSDiluted:      gaap("EarningsPerShareDiluted", "EarningsPerShareBasicAndDiluted"),
		NetIncome:       gaap("NetIncomeLoss", "ProfitLoss"),
		Equity: gaap(
			"StockholdersEquity",
			"StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest",
		),
		Shares: []Candidate{
			{Taxonomy: "us-gaap", Tag: "CommonStockSharesOutstanding"},
			{Taxonomy: "dei", Tag: "EntityCommonStockSharesOutstanding"},
		},
		WeightedDiluted: gaap("WeightedAverageNumberOfDilutedSharesOutstanding"),
	}
}
