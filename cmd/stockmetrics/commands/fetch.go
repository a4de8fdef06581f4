package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockmetrics/backend/internal/batch"
	"github.com/wonny/stockmetrics/backend/internal/metrics"
	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/database"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [ticker...]",
	Short: "분기 지표 계산",
	Long: `지정한 티커의 분기별 지표를 계산합니다.

이 명령어는:
- SEC EDGAR에서 XBRL 재무 데이터 수집
- Stooq/Yahoo/stockanalysis.com에서 시세 수집
- 분기화 후 PER/PBR 계산

Example:
  go run ./cmd/stockmetrics fetch AAPL
  go run ./cmd/stockmetrics fetch AAPL MSFT GOOG
  go run ./cmd/stockmetrics fetch --all --limit 5
  go run ./cmd/stockmetrics fetch AAPL --save`,
	Args: cobra.ArbitraryArgs,
	RunE: runFetch,
}

var (
	// Fetch flags
	fetchSave    bool
	fetchAll     bool
	fetchLimit   int
	fetchTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	// Flags
	fetchCmd.Flags().BoolVar(&fetchSave, "save", false, "계산 결과를 DB에 저장")
	fetchCmd.Flags().BoolVar(&fetchAll, "all", false, "SEC 디렉토리 전체 대상 (--limit로 제한)")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 5, "--all 사용 시 최대 티커 수")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 5*time.Minute, "전체 배치 타임아웃")
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== StockMetrics Fetcher ===")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	service, secClient := buildMetricsService(cfg, log)

	tickers := args
	if fetchAll {
		if len(args) > 0 {
			return fmt.Errorf("--all cannot be combined with explicit tickers")
		}
		dirCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		entries, err := secClient.Tickers(dirCtx)
		if err != nil {
			return fmt.Errorf("load ticker directory: %w", err)
		}
		for _, e := range entries {
			tickers = append(tickers, e.Ticker)
			if len(tickers) >= fetchLimit {
				break
			}
		}
		PrintInfo(fmt.Sprintf("전체 모드: 디렉토리 상위 %d개 티커", len(tickers)))
	}
	if len(tickers) == 0 {
		return fmt.Errorf("at least one ticker (or --all) is required")
	}

	var sink batch.Sink
	if fetchSave {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		repo := metrics.NewRepository(db, log)
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		sink = repo
		PrintInfo("저장 모드: quarter_metrics 테이블에 upsert")
	}

	runner := batch.NewRunner(service, sink, cfg, log)

	ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
	defer cancel()

	summary := runner.Run(ctx, tickers)

	for _, res := range summary.Results {
		fmt.Println()
		PrintDoubleSeparator()
		fmt.Printf("  %s\n", res.Ticker)
		PrintSeparator()

		if res.Err != nil {
			PrintError(fmt.Sprintf("%s: %v", res.Ticker, res.Err))
			continue
		}
		if len(res.Rows) == 0 {
			PrintWarning(fmt.Sprintf("%s: 계산된 분기가 없습니다", res.Ticker))
			continue
		}
		PrintQuarterTable(res.Rows)
	}

	fmt.Println()
	if summary.Failed > 0 {
		PrintError(fmt.Sprintf("%d/%d tickers failed (%.2fs)",
			summary.Failed, summary.Total, summary.Duration.Seconds()))
		return fmt.Errorf("%d tickers failed", summary.Failed)
	}
	PrintSuccess(fmt.Sprintf("%d tickers completed in %.2fs",
		summary.Total, summary.Duration.Seconds()))
	return nil
}
