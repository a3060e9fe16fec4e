package analytics

import (
	"strings"

	"detection-dashboard/internal/models"
)

const DefaultPageSize = 10

// All filters return a new slice in input order and leave the input untouched.

func filter(records []models.DetectionRecord, keep func(models.DetectionRecord) bool) []models.DetectionRecord {
	out := make([]models.DetectionRecord, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// FilterByText keeps records whose device id or name contains query,
// ignoring case.
func FilterByText(records []models.DetectionRecord, query string) []models.DetectionRecord {
	return filter(records, func(r models.DetectionRecord) bool {
		return containsFold(r.GUIDDevice, query) || containsFold(r.Name, query)
	})
}

// FilterByDevice keeps records produced by deviceID. With no device selected
// nothing matches.
func FilterByDevice(records []models.DetectionRecord, deviceID string) []models.DetectionRecord {
	return filter(records, func(r models.DetectionRecord) bool {
		return deviceID != "" && r.GUIDDevice == deviceID
	})
}

func matchDay(r models.DetectionRecord, day string) bool {
	return day == "" || componentsOf(r).Day == day
}

func matchMonthYear(r models.DetectionRecord, monthYear string) bool {
	return monthYear == "" || componentsOf(r).MonthKey() == monthYear
}

// FilterByDateComponents keeps records on day-of-month day (two digits) and
// in month monthYear (YYYY-MM). Empty arguments impose no constraint.
func FilterByDateComponents(records []models.DetectionRecord, day, monthYear string) []models.DetectionRecord {
	return filter(records, func(r models.DetectionRecord) bool {
		return matchDay(r, day) && matchMonthYear(r, monthYear)
	})
}

// FilterByDateOrMonth keeps records whose YYYY-MM-DD or YYYY-MM key contains
// query. Records with an unparseable datetime never match a non-empty query.
func FilterByDateOrMonth(records []models.DetectionRecord, query string) []models.DetectionRecord {
	if query == "" {
		return filter(records, func(models.DetectionRecord) bool { return true })
	}
	return filter(records, func(r models.DetectionRecord) bool {
		d := componentsOf(r)
		if !d.Valid() {
			return false
		}
		return strings.Contains(d.DateKey(), query) || strings.Contains(d.MonthKey(), query)
	})
}

// FilterChartSearch is the chart view's free-text search: a record matches
// when its name contains query, ignoring case, or when FilterByDateOrMonth
// would keep it.
func FilterChartSearch(records []models.DetectionRecord, query string) []models.DetectionRecord {
	if query == "" {
		return filter(records, func(models.DetectionRecord) bool { return true })
	}
	return filter(records, func(r models.DetectionRecord) bool {
		if r.Name != "" && containsFold(r.Name, query) {
			return true
		}
		d := componentsOf(r)
		return d.Valid() && (strings.Contains(d.DateKey(), query) || strings.Contains(d.MonthKey(), query))
	})
}

// FilterByCriteria is the detail view filter: the device pre-filter followed
// by name, device substring, day and month-year constraints.
func FilterByCriteria(records []models.DetectionRecord, deviceID string, c models.FilterCriteria) []models.DetectionRecord {
	return filter(FilterByDevice(records, deviceID), func(r models.DetectionRecord) bool {
		if c.Name != "" && (r.Name == "" || !containsFold(r.Name, c.Name)) {
			return false
		}
		if c.GUIDDevice != "" && !strings.Contains(r.GUIDDevice, c.GUIDDevice) {
			return false
		}
		return matchDay(r, c.Day) && matchMonthYear(r, c.MonthYear)
	})
}

// FilterForChart is the chart view filter. Date and Month are alternatives:
// when both are set a record matching either is kept.
func FilterForChart(records []models.DetectionRecord, deviceID string, c models.FilterCriteria) []models.DetectionRecord {
	return filter(FilterByDevice(records, deviceID), func(r models.DetectionRecord) bool {
		if c.Name != "" && (r.Name == "" || !containsFold(r.Name, c.Name)) {
			return false
		}
		if c.Date == "" && c.Month == "" {
			return true
		}
		d := componentsOf(r)
		return (c.Date != "" && d.DateKey() == c.Date) || (c.Month != "" && d.MonthKey() == c.Month)
	})
}

func ResetCriteria() models.FilterCriteria {
	return models.FilterCriteria{}
}

// FilterUsers keeps profiles whose name, unit or detail contains query.
func FilterUsers(users []models.UserProfile, query string) []models.UserProfile {
	out := make([]models.UserProfile, 0, len(users))
	for _, u := range users {
		if containsFold(u.Name, query) || containsFold(u.Unit, query) || containsFold(u.Detail, query) {
			out = append(out, u)
		}
	}
	return out
}

// Paginate returns the 1-based page window. Pages past the end are empty.
func Paginate(records []models.DetectionRecord, page, perPage int) []models.DetectionRecord {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	// Compared in page units so huge page values cannot overflow.
	if page-1 >= PageCount(len(records), perPage) {
		return []models.DetectionRecord{}
	}
	start := (page - 1) * perPage
	end := len(records)
	if perPage < end-start {
		end = start + perPage
	}
	out := make([]models.DetectionRecord, end-start)
	copy(out, records[start:end])
	return out
}

func PageCount(total, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return (total-1)/perPage + 1
}

// UnionByID concatenates the collections, skipping any record whose id was
// already seen. Records without an id have no identity and are all kept.
func UnionByID(primary, secondary []models.DetectionRecord) []models.DetectionRecord {
	out := make([]models.DetectionRecord, 0, len(primary)+len(secondary))
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	for _, set := range [][]models.DetectionRecord{primary, secondary} {
		for _, r := range set {
			if r.ID != "" {
				if _, ok := seen[r.ID]; ok {
					continue
				}
				seen[r.ID] = struct{}{}
			}
			out = append(out, r)
		}
	}
	return out
}
