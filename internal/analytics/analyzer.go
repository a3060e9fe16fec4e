package analytics

import (
	"sync"
	"time"

	"detection-dashboard/internal/models"
)

// Analyzer binds the pure engine to a clock and a time-series window and
// keeps the summary of the last analyzed snapshot.
type Analyzer struct {
	windowDays int
	now        func() time.Time
	stats      models.DashboardStats
	mu         sync.RWMutex
}

func NewAnalyzer(windowDays int) *Analyzer {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Analyzer{
		windowDays: windowDays,
		now:        time.Now,
		stats: models.DashboardStats{
			MoodCounts: []models.MoodCount{},
		},
	}
}

// WithClock replaces the time source, mainly for tests.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = now
	return a
}

// Analyze summarizes records and keeps the result as the current stats.
func (a *Analyzer) Analyze(records []models.DetectionRecord) models.DashboardStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	devices := make(map[string]struct{})
	latest := ""
	for _, r := range records {
		if r.GUIDDevice != "" {
			devices[r.GUIDDevice] = struct{}{}
		}
		if key := componentsOf(r).DateKey(); key > latest {
			latest = key
		}
	}

	a.stats = models.DashboardStats{
		TotalRecords:    len(records),
		DistinctDevices: len(devices),
		AverageFatigue:  a.calculateAverageFatigue(records),
		MoodCounts:      AggregateMoodCounts(records),
		LatestDate:      latest,
		ComputedAt:      a.now(),
	}
	return a.stats
}

func (a *Analyzer) calculateAverageFatigue(records []models.DetectionRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	var sum float64
	for _, r := range records {
		sum += fatigueOf(r)
	}

	return round1(sum / float64(len(records)))
}

func (a *Analyzer) GetCurrentStats() models.DashboardStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// UserTimeSeries uses the analyzer's window when windowDays is not positive.
func (a *Analyzer) UserTimeSeries(records []models.DetectionRecord, deviceID string, windowDays int) models.UserTimeSeries {
	a.mu.RLock()
	now := a.now()
	if windowDays <= 0 {
		windowDays = a.windowDays
	}
	a.mu.RUnlock()

	return AggregateUserTimeSeries(records, deviceID, now, windowDays)
}

// Charts narrows records to the chart view of deviceID and aggregates them.
func (a *Analyzer) Charts(records []models.DetectionRecord, deviceID string, criteria models.FilterCriteria, search string) models.ChartData {
	filtered := FilterChartSearch(FilterForChart(records, deviceID, criteria), search)
	return models.ChartData{
		FatigueByDate: AggregateFatigueByDate(filtered),
		FatiguePoints: FatigueSeries(filtered),
		MoodCounts:    AggregateMoodCounts(filtered),
	}
}
