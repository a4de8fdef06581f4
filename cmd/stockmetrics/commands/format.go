package commands

import (
	"fmt"
	"strings"

	"github.com/wonny/stockmetrics/backend/internal/metrics"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintQuarterTable prints composed quarter rows as an aligned table
func PrintQuarterTable(rows []metrics.QuarterMetrics) {
	headers := []string{"Period End", "Revenue", "OpIncome", "EPS", "Price", "PER", "PBR", "Source"}
	widths := []int{10, 14, 14, 8, 9, 8, 8, 14}

	for i, h := range headers {
		fmt.Printf("%-*s", widths[i], h)
		if i < len(headers)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()

	totalWidth := 0
	for i, w := range widths {
		totalWidth += w
		if i < len(widths)-1 {
			totalWidth += 2
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))

	for _, row := range rows {
		values := []string{
			row.PeriodEnd.Format("2006-01-02"),
			formatMetric(row.Revenue, "%.0f"),
			formatMetric(row.OperatingIncome, "%.0f"),
			formatMetric(row.EPS, "%.2f"),
			formatMetric(row.Price, "%.2f"),
			formatMetric(row.PER, "%.2f"),
			formatMetric(row.PBR, "%.2f"),
			row.PriceSource,
		}
		for i, v := range values {
			fmt.Printf("%-*s", widths[i], v)
			if i < len(values)-1 {
				fmt.Print("  ")
			}
		}
		fmt.Println()
	}
}

func formatMetric(v float64, format string) string {
	if metrics.IsMissing(v) {
		return "-"
	}
	return fmt.Sprintf(format, v)
}
