package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockmetrics/backend/internal/api"
	"github.com/wonny/stockmetrics/backend/internal/api/handlers"
	"github.com/wonny/stockmetrics/backend/internal/metrics"
	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/database"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

const serverVersion = "1.0.0"

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 분기 지표 실시간 계산 엔드포인트 제공
- 저장된 지표 조회 엔드포인트 제공

Endpoints:
  GET /health                            - Health check
  GET /api/v1/metrics/{ticker}           - 실시간 분기 지표 계산
  GET /api/v1/metrics/{ticker}/history   - 저장된 지표 조회

Example:
  go run ./cmd/stockmetrics api
  go run ./cmd/stockmetrics api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
	apiNoDB bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본값: PORT 환경변수)")
	apiCmd.Flags().BoolVar(&apiNoDB, "no-db", false, "DB 없이 실시간 계산만 제공")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== StockMetrics API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Wire the pipeline
	service, _ := buildMetricsService(cfg, log)

	// 4. Optional persistence
	var store handlers.HistoryStore
	if !apiNoDB {
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
		store = repo
	}

	// 5. Router and server
	metricsHandler := handlers.NewMetricsHandler(service, store, log)
	router := api.NewRouter(metricsHandler, handlers.NewHealthHandler(serverVersion), log)
	server := api.NewServer(cfg, router, log)

	// 6. Graceful shutdown on SIGINT/SIGTERM
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	PrintSuccess("Server stopped cleanly")
	return nil
}
