package calculator

import "strings"

const csvHeader = "name,roundedAmount"

// ResultToCSV renders one "name,roundedAmount" row per person under a header
// row. Fields are not quoted, so a comma inside a name shifts the columns.
func ResultToCSV(result CalculationResult) string {
	lines := make([]string, 0, len(result.PerPersonAmounts)+1)
	lines = append(lines, csvHeader)
	for _, s := range result.PerPersonAmounts {
		lines = append(lines, s.Name+","+s.RoundedAmount.String())
	}
	return strings.Join(lines, "\n")
}
