package tracker

import (
	"fmt"
	"math"
)

// FormatDuration renders seconds as h:mm:ss, or m:ss under an hour.
// Negative values (goal overtime) get a leading minus.
func FormatDuration(seconds int64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%s%d:%02d", sign, m, s)
}

// Hours converts seconds to hours rounded to one decimal place.
func Hours(seconds int64) float64 {
	return math.Round(float64(seconds)/3600*10) / 10
}
