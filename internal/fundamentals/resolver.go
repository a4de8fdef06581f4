package fundamentals

import (
	"context"

	"github.com/wonny/stockmetrics/backend/pkg/fallback"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// Candidate names one concept tag inside a taxonomy. Tags are opaque
// identifiers here; the resolver has no accounting knowledge.
type Candidate struct {
	Taxonomy string
	Tag      string
}

// FactSource provides facts for a single concept from two endpoints: the
// per-concept endpoint (primary) and the bulk all-facts document (secondary).
// Implementations must not panic; failures surface as (nil, err).
type FactSource interface {
	ConceptFacts(ctx context.Context, cik string, c Candidate) ([]Fact, error)
	BulkConceptFacts(ctx context.Context, cik string, c Candidate) ([]Fact, error)
}

// Resolver tries ordered candidate tags against both endpoints and returns
// the first non-empty result. It never returns an error: network and parse
// failures downgrade to an empty result for that attempt.
// ⭐ SSOT: 태그 폴백 순서는 여기서만 결정
type Resolver struct {
	source FactSource
	logger *logger.Logger
}

// NewResolver creates a tag resolver on top of a fact source
func NewResolver(source FactSource, log *logger.Logger) *Resolver {
	return &Resolver{
		source: source,
		logger: log.WithField("module", "resolver"),
	}
}

// Resolve returns the facts of the first candidate tag that yields any,
// trying every candidate against the primary endpoint before falling back to
// the bulk endpoint with the same candidate order.
func (r *Resolver) Resolve(ctx context.Context, cik string, candidates []Candidate) []Fact {
	sources := make([]fallback.Source[Fact], 0, len(candidates)*2)
	for _, c := range candidates {
		sources = append(sources, r.conceptSource(cik, c))
	}
	for _, c := range candidates {
		sources = append(sources, r.bulkSource(cik, c))
	}
	return fallback.First(ctx, sources...)
}

// ResolveUnion resolves each candidate group independently and unions the
// non-empty results. Revenue needs this: filers report under one of two
// mutually exclusive taxonomy families, and mixed histories need both.
func (r *Resolver) ResolveUnion(ctx context.Context, cik string, groups ...[]Candidate) []Fact {
	sources := make([]fallback.Source[Fact], 0, len(groups))
	for _, group := range groups {
		group := group
		sources = append(sources, func(ctx context.Context) ([]Fact, error) {
			return r.Resolve(ctx, cik, group), nil
		})
	}
	return fallback.Union(ctx, sources...)
}

func (r *Resolver) conceptSource(cik string, c Candidate) fallback.Source[Fact] {
	return func(ctx context.Context) ([]Fact, error) {
		facts, err := r.source.ConceptFacts(ctx, cik, c)
		if err != nil {
			r.logger.WithError(err).WithFields(map[string]interface{}{
				"cik":      cik,
				"taxonomy": c.Taxonomy,
				"tag":      c.Tag,
			}).Debug("Concept fetch failed, trying next candidate")
			return nil, err
		}
		return facts, nil
	}
}

func (r *Resolver) bulkSource(cik string, c Candidate) fallback.Source[Fact] {
	return func(ctx context.Context) ([]Fact, error) {
		facts, err := r.source.BulkConceptFacts(ctx, cik, c)
		if err != nil {
			r.logger.WithError(err).WithFields(map[string]interface{}{
				"cik":      cik,
				"taxonomy": c.Taxonomy,
				"tag":      c.Tag,
			}).Debug("Bulk concept fetch failed, trying next candidate")
			return nil, err
		}
		return facts, nil
	}
}
