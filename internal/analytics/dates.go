package analytics

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"detection-dashboard/internal/models"
)

// clockPattern matches the part after the date: a T or space separator,
// hh:mm with optional seconds and fraction, and an optional zone.
var clockPattern = regexp.MustCompile(`^[T ](\d{2}):(\d{2})(?::(\d{2})(?:\.\d+)?)?\s*(Z|[+-]\d{2}:?\d{2})?$`)

// ParseDate accepts YYYY-MM-DD and DD-MM-YYYY, each optionally followed by a
// clock. Unrecognized input yields zero components.
func ParseDate(s string) models.DateComponents {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return models.DateComponents{}
	}
	head, rest := s[:10], s[10:]

	var d models.DateComponents
	switch {
	case isDigits(head[0:4]) && head[4] == '-' && isDigits(head[5:7]) && head[7] == '-' && isDigits(head[8:10]):
		d = models.DateComponents{Year: head[0:4], Month: head[5:7], Day: head[8:10]}
	case isDigits(head[0:2]) && head[2] == '-' && isDigits(head[3:5]) && head[5] == '-' && isDigits(head[6:10]):
		d = models.DateComponents{Year: head[6:10], Month: head[3:5], Day: head[0:2]}
	default:
		return models.DateComponents{}
	}

	if _, err := time.Parse("2006-01-02", d.DateKey()); err != nil {
		return models.DateComponents{}
	}

	if rest != "" {
		parseClock(&d, rest)
	}
	return d
}

func parseClock(d *models.DateComponents, rest string) {
	m := clockPattern.FindStringSubmatch(rest)
	if m == nil {
		return
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	second := 0
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}
	if hour > 23 || minute > 59 || second > 59 {
		return
	}
	d.Hour, d.Minute, d.Second = hour, minute, second
	d.HasTime = true

	switch zone := m[4]; {
	case zone == "Z":
		d.HasOffset = true
	case zone != "":
		zone = strings.ReplaceAll(zone, ":", "")
		h, _ := strconv.Atoi(zone[1:3])
		mm, _ := strconv.Atoi(zone[3:5])
		offset := h*3600 + mm*60
		if zone[0] == '-' {
			offset = -offset
		}
		d.Offset = offset
		d.HasOffset = true
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// componentsOf prefers the components filled at ingestion and parses the raw
// datetime otherwise.
func componentsOf(r models.DetectionRecord) models.DateComponents {
	if r.Date.Valid() {
		return r.Date
	}
	return ParseDate(r.Datetime)
}

// dateKeyOf is the grouping key for per-day aggregation. Unparseable
// datetimes fall back to their first ten characters so no record is dropped.
func dateKeyOf(r models.DetectionRecord) string {
	if key := componentsOf(r).DateKey(); key != "" {
		return key
	}
	raw := strings.TrimSpace(r.Datetime)
	if runes := []rune(raw); len(runes) > 10 {
		return string(runes[:10])
	}
	return raw
}

// Normalize fills Date on every record. It returns a new slice.
func Normalize(records []models.DetectionRecord) []models.DetectionRecord {
	out := make([]models.DetectionRecord, len(records))
	for i, r := range records {
		r.Date = ParseDate(r.Datetime)
		out[i] = r
	}
	return out
}
