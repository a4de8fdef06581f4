package commands

import (
	"github.com/wonny/stockmetrics/backend/internal/external/sec"
	"github.com/wonny/stockmetrics/backend/internal/external/stockanalysis"
	"github.com/wonny/stockmetrics/backend/internal/external/stooq"
	"github.com/wonny/stockmetrics/backend/internal/external/yahoo"
	"github.com/wonny/stockmetrics/backend/internal/fundamentals"
	"github.com/wonny/stockmetrics/backend/internal/metrics"
	"github.com/wonny/stockmetrics/backend/internal/prices"
	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// buildMetricsService wires the full pipeline: EDGAR facts, the price
// vendor ladder, and the composer. Every command that computes metrics
// goes through this single constructor.
func buildMetricsService(cfg *config.Config, log *logger.Logger) (*metrics.Service, *sec.Client) {
	secClient := sec.NewClient(cfg, log)
	factResolver := fundamentals.NewResolver(secClient, log)

	priceResolver := prices.NewResolver(
		stooq.NewClient(cfg, log),
		yahoo.NewClient(cfg, log),
		stockanalysis.NewClient(cfg, log),
		log,
	)

	return metrics.NewService(factResolver, priceResolver, secClient, cfg, log), secClient
}
