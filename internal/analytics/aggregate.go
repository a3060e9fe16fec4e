package analytics

import (
	"time"

	"detection-dashboard/internal/models"
)

const DefaultWindowDays = 30

var moodShareColors = map[string]string{
	"Bahagia": "#22c55e",
	"Sedih":   "#facc15",
	"Marah":   "#ef4444",
	"Netral":  "#3b82f6",
}

type fatigueBucket struct {
	sum   float64
	count int
}

// AggregateFatigueByDate averages fatigue per day, rounded to one decimal.
// Days appear in the order they are first seen.
func AggregateFatigueByDate(records []models.DetectionRecord) []models.FatigueByDate {
	var order []string
	buckets := make(map[string]*fatigueBucket)
	for _, r := range records {
		key := dateKeyOf(r)
		b, ok := buckets[key]
		if !ok {
			b = &fatigueBucket{}
			buckets[key] = b
			order = append(order, key)
		}
		b.sum += fatigueOf(r)
		b.count++
	}

	out := make([]models.FatigueByDate, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		out = append(out, models.FatigueByDate{
			Date:           key,
			AverageFatigue: round1(b.sum / float64(b.count)),
		})
	}
	return out
}

// FatigueSeries lists one chart point per record.
func FatigueSeries(records []models.DetectionRecord) []models.FatiguePoint {
	out := make([]models.FatiguePoint, 0, len(records))
	for _, r := range records {
		out = append(out, models.FatiguePoint{
			Date:    dateKeyOf(r),
			Fatigue: fatigueOf(r),
			Mood:    r.Mood,
		})
	}
	return out
}

// AggregateMoodCounts counts records per normalized mood label, in first-seen
// order. Every record lands in exactly one bucket.
func AggregateMoodCounts(records []models.DetectionRecord) []models.MoodCount {
	out := make([]models.MoodCount, 0)
	index := make(map[string]int)
	for _, r := range records {
		label := NormalizeMood(r.Mood)
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, models.MoodCount{Mood: label})
		}
		out[i].Count++
	}
	return out
}

// AggregateMoodDistributionPercent averages each mood percentage across the
// profiling rows. No rows means no shares.
func AggregateMoodDistributionPercent(rows []models.ProfilingRow) []models.MoodShare {
	if len(rows) == 0 {
		return []models.MoodShare{}
	}
	var happy, sad, angry, neutral float64
	for _, row := range rows {
		happy += ParseScore(row.Happy)
		sad += ParseScore(row.Sad)
		angry += ParseScore(row.Angry)
		neutral += ParseScore(row.Neutral)
	}
	n := float64(len(rows))
	return []models.MoodShare{
		{Name: "Bahagia", Value: happy / n, Color: moodShareColors["Bahagia"]},
		{Name: "Sedih", Value: sad / n, Color: moodShareColors["Sedih"]},
		{Name: "Marah", Value: angry / n, Color: moodShareColors["Marah"]},
		{Name: "Netral", Value: neutral / n, Color: moodShareColors["Netral"]},
	}
}

func ProfilingSeries(rows []models.ProfilingRow) []models.ProfilingPoint {
	out := make([]models.ProfilingPoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.ProfilingPoint{
			Date:    row.Date,
			Fatigue: ParseScore(row.Fatigue),
			Happy:   ParseScore(row.Happy),
			Sad:     ParseScore(row.Sad),
			Angry:   ParseScore(row.Angry),
			Neutral: ParseScore(row.Neutral),
		})
	}
	return out
}

// AggregateUserTimeSeries builds per-day fatigue averages and mood category
// counts for one device over the windowDays before now. Records whose
// datetime cannot be placed in time are left out.
func AggregateUserTimeSeries(records []models.DetectionRecord, deviceID string, now time.Time, windowDays int) models.UserTimeSeries {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	cutoff := now.AddDate(0, 0, -windowDays)

	series := models.UserTimeSeries{
		DeviceID:   deviceID,
		WindowDays: windowDays,
		Fatigue:    []models.DailyFatigue{},
		Moods:      []models.DailyMoodCounts{},
	}

	var order []string
	fatigue := make(map[string]*fatigueBucket)
	moods := make(map[string]*models.DailyMoodCounts)

	for _, r := range FilterByDevice(records, deviceID) {
		d := componentsOf(r)
		at, ok := d.Time(now.Location())
		if !ok || at.Before(cutoff) {
			continue
		}
		key := d.DateKey()
		if _, seen := fatigue[key]; !seen {
			fatigue[key] = &fatigueBucket{}
			moods[key] = &models.DailyMoodCounts{Date: key}
			order = append(order, key)
		}
		fatigue[key].sum += fatigueOf(r)
		fatigue[key].count++

		m := moods[key]
		switch MoodCategory(r.Mood) {
		case MoodHappy:
			m.Happy++
		case MoodSad:
			m.Sad++
		case MoodAngry:
			m.Angry++
		case MoodNeutral:
			m.Neutral++
		default:
			m.Other++
		}
	}

	for _, key := range order {
		b := fatigue[key]
		series.Fatigue = append(series.Fatigue, models.DailyFatigue{
			Date:    key,
			Fatigue: round1(b.sum / float64(b.count)),
		})
		series.Moods = append(series.Moods, *moods[key])
	}
	return series
}
