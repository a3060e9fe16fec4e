package analytics

import (
	"fmt"
	"math"
	"testing"

	"detection-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []models.DetectionRecord {
	return []models.DetectionRecord{
		{ID: "1", GUIDDevice: "CAM-01", Name: "Budi", Datetime: "15-06-2025", Mood: "Senang", Fatigue: "20"},
		{ID: "2", GUIDDevice: "CAM-02", Datetime: "2025-06-15T00:00:00Z", Mood: "sedih", Fatigue: "40"},
		{ID: "3", GUIDDevice: "cam-01", Name: "Siti", Datetime: "2025-07-01T08:00:00Z", Fatigue: "abc"},
		{ID: "4", GUIDDevice: "CAM-01", Name: "Budi Santoso", Mood: "marah"},
	}
}

func ids(records []models.DetectionRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestFilterByText(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"name match ignores case", "BUDI", []string{"1", "4"}},
		{"device match ignores case", "cam-01", []string{"1", "3", "4"}},
		{"missing name never matches by name", "santoso", []string{"4"}},
		{"empty query keeps all", "", []string{"1", "2", "3", "4"}},
		{"no match", "xyz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterByText(records, tt.query)))
		})
	}
}

func TestFilterByDevice(t *testing.T) {
	records := sampleRecords()

	assert.Equal(t, []string{"1", "4"}, ids(FilterByDevice(records, "CAM-01")))
	assert.Empty(t, FilterByDevice(records, ""))
	assert.Empty(t, FilterByDevice(records, "CAM-99"))
}

func TestFilterByDateComponents(t *testing.T) {
	records := sampleRecords()

	t.Run("no criteria is identity", func(t *testing.T) {
		assert.Equal(t, records, FilterByDateComponents(records, "", ""))
	})

	tests := []struct {
		name      string
		day       string
		monthYear string
		want      []string
	}{
		{"day and month across formats", "15", "2025-06", []string{"1", "2"}},
		{"day only", "01", "", []string{"3"}},
		{"month only", "", "2025-07", []string{"3"}},
		{"day not zero padded", "1", "", []string{}},
		{"month in wrong order", "", "06-2025", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterByDateComponents(records, tt.day, tt.monthYear)))
		})
	}
}

func TestFilterByDateComponents_MalformedDates(t *testing.T) {
	records := []models.DetectionRecord{
		{ID: "a", Datetime: "15/06/2025"},
		{ID: "b", Datetime: "15-06"},
		{ID: "c"},
	}

	assert.Empty(t, FilterByDateComponents(records, "15", ""))
	assert.Empty(t, FilterByDateComponents(records, "", "2025-06"))
	assert.Len(t, FilterByDateComponents(records, "", ""), 3)
}

func TestFilterByDateOrMonth(t *testing.T) {
	records := sampleRecords()

	assert.Equal(t, []string{"1", "2"}, ids(FilterByDateOrMonth(records, "2025-06")))
	assert.Equal(t, []string{"3"}, ids(FilterByDateOrMonth(records, "2025-07-01")))
	assert.Equal(t, []string{"1", "2", "3"}, ids(FilterByDateOrMonth(records, "2025")))
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(FilterByDateOrMonth(records, "")))
	assert.Empty(t, FilterByDateOrMonth(records, "15-06"))
}

func TestFilterChartSearch(t *testing.T) {
	records := sampleRecords()

	assert.Equal(t, []string{"1", "4"}, ids(FilterChartSearch(records, "budi")))
	assert.Equal(t, []string{"4"}, ids(FilterChartSearch(records, "Santoso")))
	assert.Equal(t, []string{"3"}, ids(FilterChartSearch(records, "SITI")))
	assert.Equal(t, []string{"1", "2"}, ids(FilterChartSearch(records, "2025-06")))
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(FilterChartSearch(records, "")))
	assert.Empty(t, FilterChartSearch(records, "15-06"))
}

func TestFilterByCriteria(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name     string
		device   string
		criteria models.FilterCriteria
		want     []string
	}{
		{"device only", "CAM-01", models.FilterCriteria{}, []string{"1", "4"}},
		{"no device selected", "", models.FilterCriteria{Name: "budi"}, []string{}},
		{"name", "CAM-01", models.FilterCriteria{Name: "budi"}, []string{"1", "4"}},
		{"day", "CAM-01", models.FilterCriteria{Day: "15"}, []string{"1"}},
		{"device substring", "CAM-01", models.FilterCriteria{GUIDDevice: "CAM"}, []string{"1", "4"}},
		{"device substring is case sensitive", "CAM-01", models.FilterCriteria{GUIDDevice: "cam"}, []string{}},
		{"name and month", "CAM-01", models.FilterCriteria{Name: "santoso", MonthYear: "2025-06"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterByCriteria(records, tt.device, tt.criteria)))
		})
	}
}

func TestFilterForChart(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name     string
		criteria models.FilterCriteria
		want     []string
	}{
		{"no criteria", models.FilterCriteria{}, []string{"1", "4"}},
		{"exact date", models.FilterCriteria{Date: "2025-06-15"}, []string{"1"}},
		{"exact month", models.FilterCriteria{Month: "2025-06"}, []string{"1"}},
		{"date or month", models.FilterCriteria{Date: "2025-01-01", Month: "2025-06"}, []string{"1"}},
		{"neither matches", models.FilterCriteria{Date: "2025-01-01", Month: "2025-01"}, []string{}},
		{"name narrows", models.FilterCriteria{Name: "santoso"}, []string{"4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterForChart(records, "CAM-01", tt.criteria)))
		})
	}
}

func TestFiltersDoNotMutateInput(t *testing.T) {
	records := sampleRecords()
	before := sampleRecords()

	_ = FilterByText(records, "budi")
	_ = FilterByCriteria(records, "CAM-01", models.FilterCriteria{Day: "15"})
	_ = FilterByDateOrMonth(records, "2025")
	_ = UnionByID(records, records)
	_ = Paginate(records, 1, 2)

	assert.Equal(t, before, records)
}

func TestResetCriteria(t *testing.T) {
	assert.Equal(t, models.FilterCriteria{}, ResetCriteria())
}

func TestFilterUsers(t *testing.T) {
	users := []models.UserProfile{
		{Name: "Budi", Unit: "Produksi"},
		{Name: "Siti", Unit: "Gudang", Detail: "Shift malam"},
		{Name: "Andi"},
	}

	got := FilterUsers(users, "gudang")
	require.Len(t, got, 1)
	assert.Equal(t, "Siti", got[0].Name)

	assert.Len(t, FilterUsers(users, "MALAM"), 1)
	assert.Len(t, FilterUsers(users, ""), 3)
}

func TestPaginate(t *testing.T) {
	records := make([]models.DetectionRecord, 25)
	for i := range records {
		records[i].ID = fmt.Sprintf("%d", i+1)
	}

	page3 := Paginate(records, 3, 10)
	assert.Equal(t, []string{"21", "22", "23", "24", "25"}, ids(page3))

	assert.Empty(t, Paginate(records, 4, 10))
	assert.Equal(t, ids(records[:10]), ids(Paginate(records, 0, 0)))
	assert.Equal(t, 3, PageCount(len(records), 10))
	assert.Equal(t, 0, PageCount(0, 10))
}

func TestPaginate_HugeValues(t *testing.T) {
	records := make([]models.DetectionRecord, 25)
	for i := range records {
		records[i].ID = fmt.Sprintf("%d", i+1)
	}

	assert.NotPanics(t, func() {
		assert.Empty(t, Paginate(records, math.MaxInt, 10))
		assert.Empty(t, Paginate(records, math.MaxInt, math.MaxInt))
		assert.Empty(t, Paginate(records, 2, math.MaxInt))
	})
	assert.Len(t, Paginate(records, 1, math.MaxInt), 25)
	assert.Empty(t, Paginate(nil, math.MaxInt, 10))

	assert.Equal(t, 1, PageCount(25, math.MaxInt))
	assert.Equal(t, 3, PageCount(21, 10))
	assert.Equal(t, 2, PageCount(20, 10))
	assert.Equal(t, math.MaxInt, PageCount(math.MaxInt, 1))
}

func TestUnionByID(t *testing.T) {
	primary := []models.DetectionRecord{
		{ID: "a", Unit: "first"},
		{ID: "b"},
	}
	secondary := []models.DetectionRecord{
		{ID: "a", Unit: "second"},
		{ID: "c"},
		{ID: ""},
		{ID: ""},
	}

	got := UnionByID(primary, secondary)

	assert.Equal(t, []string{"a", "b", "c", "", ""}, ids(got))
	assert.Equal(t, "first", got[0].Unit)
}
