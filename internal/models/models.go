package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// looseText decodes a JSON string, number or null into its text form.
func looseText(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return "", err
		}
		return str, nil
	}
	return string(data), nil
}

// Score holds a percentage-like value that the backend sends either as a
// JSON string or as a JSON number. The raw text is kept; parsing happens in
// the analytics package so malformed values degrade to 0.
type Score string

func (s *Score) UnmarshalJSON(data []byte) error {
	text, err := looseText(data)
	if err != nil {
		return err
	}
	*s = Score(text)
	return nil
}

type DetectionRecord struct {
	ID         string `json:"id"`
	GUIDDevice string `json:"guid_device"`
	Name       string `json:"nama,omitempty"`
	Datetime   string `json:"datetime"`
	Unit       string `json:"unit,omitempty"`
	Fatigue    Score  `json:"keletihan,omitempty"`
	Mood       string `json:"mood,omitempty"`
	ImageRef   string `json:"gambar,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	Status     string `json:"status_absen,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
	Process    string `json:"process,omitempty"`

	Date DateComponents `json:"-"`
}

// UnmarshalJSON accepts the id as a string or a number.
func (r *DetectionRecord) UnmarshalJSON(data []byte) error {
	type plain DetectionRecord
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := looseText(aux.ID)
	if err != nil {
		return fmt.Errorf("record id: %w", err)
	}
	r.ID = id
	return nil
}

// DateComponents is the canonical parse of a record's datetime, filled once
// when records enter the store.
type DateComponents struct {
	Year    string
	Month   string
	Day     string
	Hour    int
	Minute  int
	Second  int
	HasTime bool
	// Offset is the UTC offset in seconds when the source carried one.
	Offset    int
	HasOffset bool
}

func (d DateComponents) Valid() bool {
	return len(d.Year) == 4 && len(d.Month) == 2 && len(d.Day) == 2
}

// DateKey returns YYYY-MM-DD, or "" when the components are invalid.
func (d DateComponents) DateKey() string {
	if !d.Valid() {
		return ""
	}
	return d.Year + "-" + d.Month + "-" + d.Day
}

// MonthKey returns YYYY-MM, or "" when the components are invalid.
func (d DateComponents) MonthKey() string {
	if !d.Valid() {
		return ""
	}
	return d.Year + "-" + d.Month
}

// Time converts the components into an instant. Sources without an offset
// are interpreted in loc.
func (d DateComponents) Time(loc *time.Location) (time.Time, bool) {
	if !d.Valid() {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", d.DateKey(), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	if d.HasOffset {
		loc = time.FixedZone("", d.Offset)
	} else if loc == nil {
		loc = time.Local
	}
	return time.Date(t.Year(), t.Month(), t.Day(), d.Hour, d.Minute, d.Second, 0, loc), true
}

type RecordPage struct {
	Items []DetectionRecord `json:"data"`
	Page  int               `json:"page,omitempty"`
	Total int               `json:"total,omitempty"`
}

type UserProfile struct {
	ID          string `json:"_id,omitempty"`
	Name        string `json:"name"`
	Unit        string `json:"unit,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Photo       string `json:"photo,omitempty"`
	Profession  string `json:"profession,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	IsDeleted   bool   `json:"isDeleted"`
}

func (u UserProfile) Status() string {
	if u.IsDeleted {
		return "Non-Aktif"
	}
	return "Aktif"
}

// FilterCriteria fields are optional; an empty string imposes no constraint.
type FilterCriteria struct {
	Name       string `json:"nama"`
	GUIDDevice string `json:"guid_device"`
	Day        string `json:"tanggal_hari"`
	MonthYear  string `json:"bulan_tahun"`
	Date       string `json:"tanggal"`
	Month      string `json:"bulan"`
}

// ViewState gathers the selection and filter inputs of one dashboard view.
type ViewState struct {
	View           string
	SelectedDevice string
	Search         string
	Detail         FilterCriteria
	Chart          FilterCriteria
	ChartSearch    string
	Page           int
	PerPage        int
	WindowDays     int
}

type FatigueByDate struct {
	Date           string  `json:"date"`
	AverageFatigue float64 `json:"average_fatigue"`
}

type FatiguePoint struct {
	Date    string  `json:"tanggal"`
	Fatigue float64 `json:"keletihan"`
	Mood    string  `json:"mood,omitempty"`
}

type MoodCount struct {
	Mood  string `json:"mood"`
	Count int    `json:"count"`
}

type MoodShare struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"fill"`
}

type ProfilingRow struct {
	ID      string `json:"_id" yaml:"_id"`
	Date    string `json:"date" yaml:"date"`
	Name    string `json:"name" yaml:"name"`
	Fatigue string `json:"keletihan" yaml:"keletihan"`
	Happy   string `json:"bahagia" yaml:"bahagia"`
	Sad     string `json:"sedih" yaml:"sedih"`
	Angry   string `json:"marah" yaml:"marah"`
	Neutral string `json:"netral" yaml:"netral"`
}

type ProfilingPoint struct {
	Date    string  `json:"date"`
	Fatigue float64 `json:"keletihan"`
	Happy   float64 `json:"bahagia"`
	Sad     float64 `json:"sedih"`
	Angry   float64 `json:"marah"`
	Neutral float64 `json:"netral"`
}

type DailyFatigue struct {
	Date    string  `json:"date"`
	Fatigue float64 `json:"keletihan"`
}

type DailyMoodCounts struct {
	Date    string `json:"date"`
	Happy   int    `json:"bahagia"`
	Sad     int    `json:"sedih"`
	Angry   int    `json:"marah"`
	Neutral int    `json:"netral"`
	Other   int    `json:"lainnya"`
}

func (d DailyMoodCounts) Total() int {
	return d.Happy + d.Sad + d.Angry + d.Neutral + d.Other
}

type UserTimeSeries struct {
	DeviceID   string            `json:"guid_device"`
	WindowDays int               `json:"window_days"`
	Fatigue    []DailyFatigue    `json:"fatigue"`
	Moods      []DailyMoodCounts `json:"moods"`
}

type ChartData struct {
	FatigueByDate []FatigueByDate `json:"fatigue_by_date"`
	FatiguePoints []FatiguePoint  `json:"fatigue_points"`
	MoodCounts    []MoodCount     `json:"mood_counts"`
}

// TablePage is one page of a filtered record table.
type TablePage struct {
	Items      []DetectionRecord `json:"data"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	Total      int               `json:"total"`
	TotalPages int               `json:"total_pages"`
}

type ProfilingView struct {
	Series       []ProfilingPoint `json:"series"`
	Distribution []MoodShare      `json:"distribution"`
}

type DashboardStats struct {
	TotalRecords    int         `json:"total_records"`
	DistinctDevices int         `json:"distinct_devices"`
	AverageFatigue  float64     `json:"average_fatigue"`
	MoodCounts      []MoodCount `json:"mood_counts"`
	LatestDate      string      `json:"latest_date,omitempty"`
	ComputedAt      time.Time   `json:"computed_at"`
}

// Action is one edit or delete issued through the dashboard.
type Action struct {
	Kind      string    `json:"kind"`
	RecordID  string    `json:"record_id"`
	Detail    string    `json:"detail,omitempty"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

func (a Action) String() string {
	return fmt.Sprintf("%s %s success=%t", a.Kind, a.RecordID, a.Success)
}
