package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockmetrics/backend/internal/batch"
	"github.com/wonny/stockmetrics/backend/internal/metrics"
	"github.com/wonny/stockmetrics/backend/internal/scheduler"
	"github.com/wonny/stockmetrics/backend/internal/scheduler/jobs"
	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/database"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "주기 갱신 스케줄러 시작",
	Long: `크론 스케줄에 따라 분기 지표를 주기적으로 갱신합니다.

이 명령어는:
- 지정한 티커 목록을 주기적으로 재계산
- 결과를 quarter_metrics 테이블에 upsert
- 이전 실행이 끝나지 않으면 해당 주기는 건너뜀

Example:
  go run ./cmd/stockmetrics scheduler --tickers AAPL,MSFT
  go run ./cmd/stockmetrics scheduler --tickers AAPL --cron "0 4 * * *"`,
	RunE: runScheduler,
}

var (
	schedulerTickers string
	schedulerCron    string
	schedulerOnce    bool
)

func init() {
	rootCmd.AddCommand(schedulerCmd)

	// Flags
	schedulerCmd.Flags().StringVar(&schedulerTickers, "tickers", "", "쉼표로 구분한 티커 목록 (필수)")
	schedulerCmd.Flags().StringVar(&schedulerCron, "cron", "", "크론 표현식 (기본값: 매일 03:00 UTC)")
	schedulerCmd.Flags().BoolVar(&schedulerOnce, "once", false, "스케줄 없이 즉시 1회 실행")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== StockMetrics Scheduler ===")

	tickers := splitTickers(schedulerTickers)
	if len(tickers) == 0 {
		return fmt.Errorf("--tickers is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	service, _ := buildMetricsService(cfg, log)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := metrics.NewRepository(db, log)
	schemaCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(schemaCtx); err != nil {
		return err
	}

	runner := batch.NewRunner(service, repo, cfg, log)
	job := jobs.NewMetricsRefreshJob(runner, tickers, schedulerCron, log)

	if schedulerOnce {
		PrintInfo(fmt.Sprintf("즉시 실행: %d tickers", len(tickers)))
		if err := job.Run(cmd.Context()); err != nil {
			return err
		}
		PrintSuccess("Refresh completed")
		return nil
	}

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()

	sched := scheduler.New(log)
	if err := sched.Register(ctx, job); err != nil {
		return err
	}
	sched.Start()

	PrintInfo(fmt.Sprintf("Scheduler running: %s (%d tickers)", job.Schedule(), len(tickers)))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stop()
	sched.Stop()
	PrintSuccess("Scheduler stopped cleanly")
	return nil
}

func splitTickers(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
