package analytics

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"detection-dashboard/internal/models"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseScore reads the leading decimal number of s, so "20%" is 20. Only
// plain decimal notation counts: "0x10" is 0 and "Infinity" is 0.
// Anything unparseable, NaN or infinite is 0.
func ParseScore(s string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func fatigueOf(r models.DetectionRecord) float64 {
	return ParseScore(string(r.Fatigue))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
