package metrics

import (
	"fmt"
	"math"
)

// FormatInt formats n with "," as the thousands separator.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatPercent renders a ratio in [0,1] as a percentage with one decimal,
// e.g. 0.4567 -> "45.7%".
func FormatPercent(ratio float64) string {
	pct := math.Round(ratio*1000) / 10
	return fmt.Sprintf("%.1f%%", pct)
}
