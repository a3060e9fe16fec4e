package analytics

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// UndetectedMood labels records that carry no mood.
const UndetectedMood = "Tidak Terdeteksi"

// Time-series mood categories.
const (
	MoodHappy   = "bahagia"
	MoodSad     = "sedih"
	MoodAngry   = "marah"
	MoodNeutral = "netral"
	MoodOther   = "lainnya"
)

// NormalizeMood lowercases the label, folds "senang" into "bahagia" and
// capitalizes the first letter. It is idempotent.
func NormalizeMood(label string) string {
	m := strings.ToLower(strings.TrimSpace(label))
	if m == "" || m == strings.ToLower(UndetectedMood) {
		return UndetectedMood
	}
	if m == "senang" {
		m = MoodHappy
	}
	r, size := utf8.DecodeRuneInString(m)
	return string(unicode.ToUpper(r)) + m[size:]
}

// MoodCategory buckets a free-text mood by substring.
func MoodCategory(label string) string {
	m := strings.ToLower(label)
	if strings.TrimSpace(m) == "" {
		m = strings.ToLower(UndetectedMood)
	}
	switch {
	case strings.Contains(m, "senang"), strings.Contains(m, MoodHappy):
		return MoodHappy
	case strings.Contains(m, MoodSad):
		return MoodSad
	case strings.Contains(m, MoodAngry):
		return MoodAngry
	case strings.Contains(m, MoodNeutral):
		return MoodNeutral
	default:
		return MoodOther
	}
}
