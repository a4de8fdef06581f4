package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockmetrics",
	Short: "StockMetrics - SEC 기반 분기 밸류에이션 지표 엔진",
	Long: `StockMetrics CLI

SEC EDGAR XBRL 공시와 시세 데이터를 결합해
분기별 PER/PBR 지표를 계산합니다.

Usage:
  go run ./cmd/stockmetrics [command]

Examples:
  go run ./cmd/stockmetrics fetch AAPL
  go run ./cmd/stockmetrics fetch AAPL MSFT --save
  go run ./cmd/stockmetrics api
  go run ./cmd/stockmetrics scheduler --tickers AAPL,MSFT
  go run ./cmd/stockmetrics test-db
  go run ./cmd/stockmetrics test-logger`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
