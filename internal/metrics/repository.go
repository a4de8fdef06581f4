package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/stockmetrics/backend/pkg/database"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// Repository persists composed quarter metrics to PostgreSQL
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a metrics repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log.WithField("module", "metrics_repo"),
	}
}

// EnsureSchema creates the quarter_metrics table if it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS quarter_metrics (
			ticker           TEXT        NOT NULL,
			period_end       DATE        NOT NULL,
			revenue          DOUBLE PRECISION,
			operating_income DOUBLE PRECISION,
			eps              DOUBLE PRECISION,
			equity           DOUBLE PRECISION,
			shares           DOUBLE PRECISION,
			price            DOUBLE PRECISION,
			per              DOUBLE PRECISION,
			pbr              DOUBLE PRECISION,
			price_source     TEXT,
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (ticker, period_end)
		)`)
	if err != nil {
		return fmt.Errorf("ensure quarter_metrics schema: %w", err)
	}
	return nil
}

// Upsert writes one batch of rows, replacing existing (ticker, period_end)
// entries. Missing sentinels are stored as NULL.
func (r *Repository) Upsert(ctx context.Context, rows []QuarterMetrics) error {
	if len(rows) == 0 {
		return nil
	}

	for _, row := range rows {
		_, err := r.db.Pool.Exec(ctx, `
			INSERT INTO quarter_metrics (
				ticker, period_end, revenue, operating_income, eps,
				equity, shares, price, per, pbr, price_source, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
			ON CONFLICT (ticker, period_end) DO UPDATE SET
				revenue = EXCLUDED.revenue,
				operating_income = EXCLUDED.operating_income,
				eps = EXCLUDED.eps,
				equity = EXCLUDED.equity,
				shares = EXCLUDED.shares,
				price = EXCLUDED.price,
				per = EXCLUDED.per,
				pbr = EXCLUDED.pbr,
				price_source = EXCLUDED.price_source,
				updated_at = now()`,
			row.Ticker, row.PeriodEnd,
			optional(row.Revenue), optional(row.OperatingIncome), optional(row.EPS),
			optional(row.Equity), optional(row.Shares), optional(row.Price),
			optional(row.PER), optional(row.PBR), row.PriceSource,
		)
		if err != nil {
			return fmt.Errorf("upsert quarter_metrics %s %s: %w",
				row.Ticker, row.PeriodEnd.Format("2006-01-02"), err)
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"ticker": rows[0].Ticker,
		"rows":   len(rows),
	}).Debug("Upserted quarter metrics")
	return nil
}

// History reads the stored rows for one ticker, newest first
func (r *Repository) History(ctx context.Context, ticker string, limit int) ([]QuarterMetrics, error) {
	dbRows, err := r.db.Pool.Query(ctx, `
		SELECT ticker, period_end, revenue, operating_income, eps,
		       equity, shares, price, per, pbr, price_source
		FROM quarter_metrics
		WHERE ticker = $1
		ORDER BY period_end DESC
		LIMIT $2`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query quarter_metrics %s: %w", ticker, err)
	}
	defer dbRows.Close()

	var out []QuarterMetrics
	for dbRows.Next() {
		var (
			row         QuarterMetrics
			periodEnd   time.Time
			nullable    [8]*float64
			priceSource *string
		)
		err := dbRows.Scan(&row.Ticker, &periodEnd,
			&nullable[0], &nullable[1], &nullable[2], &nullable[3],
			&nullable[4], &nullable[5], &nullable[6], &nullable[7],
			&priceSource)
		if err != nil {
			return nil, fmt.Errorf("scan quarter_metrics: %w", err)
		}

		row.PeriodEnd = periodEnd
		row.Revenue = fromOptional(nullable[0])
		row.OperatingIncome = fromOptional(nullable[1])
		row.EPS = fromOptional(nullable[2])
		row.Equity = fromOptional(nullable[3])
		row.Shares = fromOptional(nullable[4])
		row.Price = fromOptional(nullable[5])
		row.PER = fromOptional(nullable[6])
		row.PBR = fromOptional(nullable[7])
		if priceSource != nil {
			row.PriceSource = *priceSource
		}
		out = append(out, row)
	}
	return out, dbRows.Err()
}
