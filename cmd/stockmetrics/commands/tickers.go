package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// tickersCmd represents the tickers command
var tickersCmd = &cobra.Command{
	Use:   "tickers [query]",
	Short: "SEC 티커 디렉토리 검색",
	Long: `SEC 티커-CIK 디렉토리를 검색합니다.

티커 또는 회사명 일부로 검색할 수 있습니다.

Example:
  go run ./cmd/stockmetrics tickers AAPL
  go run ./cmd/stockmetrics tickers apple`,
	Args: cobra.ExactArgs(1),
	RunE: runTickers,
}

var tickersLimit int

func init() {
	rootCmd.AddCommand(tickersCmd)

	// Flags
	tickersCmd.Flags().IntVar(&tickersLimit, "limit", 20, "최대 출력 건수")
}

func runTickers(cmd *cobra.Command, args []string) error {
	query := strings.ToUpper(args[0])

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	_, secClient := buildMetricsService(cfg, log)

	entries, err := secClient.Tickers(cmd.Context())
	if err != nil {
		return fmt.Errorf("load ticker directory: %w", err)
	}

	matched := 0
	fmt.Printf("%-8s  %-12s  %s\n", "Ticker", "CIK", "Company")
	PrintSeparator()
	for _, e := range entries {
		if !strings.Contains(e.Ticker, query) && !strings.Contains(strings.ToUpper(e.Name), query) {
			continue
		}
		fmt.Printf("%-8s  %-12s  %s\n", e.Ticker, e.CIK, e.Name)
		matched++
		if matched >= tickersLimit {
			break
		}
	}

	if matched == 0 {
		PrintWarning(fmt.Sprintf("No match for %q", args[0]))
		return nil
	}
	fmt.Println()
	PrintSuccess(fmt.Sprintf("%d entries", matched))
	return nil
}
