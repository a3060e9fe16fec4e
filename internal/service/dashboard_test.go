package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"detection-dashboard/internal/cache"
	"detection-dashboard/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGateway struct {
	mu       sync.Mutex
	pages    map[int][]models.DetectionRecord
	history  []models.DetectionRecord
	users    []models.UserProfile
	listErr  error
	writeErr error
	usersErr error

	deleted    []string
	updated    map[string]models.DetectionRecord
	userCalls  int
	listCalls  int
	writeCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		pages: map[int][]models.DetectionRecord{
			1: {
				{ID: "c1", GUIDDevice: "CAM-01", Name: "Budi", Datetime: "2025-06-15T08:00:00Z", Fatigue: "20", Mood: "senang"},
				{ID: "c2", GUIDDevice: "CAM-02", Name: "Sari", Datetime: "16-06-2025", Fatigue: "40", Mood: "sedih"},
			},
		},
		history: []models.DetectionRecord{
			{ID: "c1", GUIDDevice: "CAM-01", Name: "Budi", Datetime: "2025-06-15T08:00:00Z", Fatigue: "20", Mood: "senang"},
			{ID: "h1", GUIDDevice: "CAM-01", Name: "Budi", Datetime: "2025-06-14T08:00:00Z", Fatigue: "30", Mood: "marah"},
			{ID: "h2", GUIDDevice: "CAM-03", Name: "Tono", Datetime: "2025-05-01", Fatigue: "10", Mood: "netral"},
		},
		users: []models.UserProfile{
			{Name: "Budi Santoso", Unit: "Produksi"},
			{Name: "Sari", Unit: "Gudang", Detail: "shift malam"},
		},
		updated: map[string]models.DetectionRecord{},
	}
}

func (g *fakeGateway) ListRecords(_ context.Context, page int) (*models.RecordPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listCalls++
	if g.listErr != nil {
		return nil, g.listErr
	}
	var items []models.DetectionRecord
	for _, r := range g.pages[page] {
		if u, ok := g.updated[r.ID]; ok {
			r = u
		}
		if !contains(g.deleted, r.ID) {
			items = append(items, r)
		}
	}
	return &models.RecordPage{Items: items, Page: page}, nil
}

func (g *fakeGateway) ListAllRecords(_ context.Context, _ int) ([]models.DetectionRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]models.DetectionRecord(nil), g.history...), nil
}

func (g *fakeGateway) DeleteRecord(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writeCalls++
	if g.writeErr != nil {
		return g.writeErr
	}
	g.deleted = append(g.deleted, id)
	return nil
}

func (g *fakeGateway) UpdateRecord(_ context.Context, id string, record models.DetectionRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writeCalls++
	if g.writeErr != nil {
		return g.writeErr
	}
	g.updated[id] = record
	return nil
}

func (g *fakeGateway) ListUsers(context.Context) ([]models.UserProfile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.userCalls++
	if g.usersErr != nil {
		return nil, g.usersErr
	}
	return g.users, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func newTestDashboard(t *testing.T, gw *fakeGateway, c Cache) *Dashboard {
	t.Helper()
	d := NewDashboard(gw, c, Options{HistoryPages: 5, PageSize: 10, UsersTTL: time.Minute}, zap.NewNop())
	_, err := d.RefreshCamera(context.Background(), 1)
	require.NoError(t, err)
	_, err = d.RefreshHistory(context.Background())
	require.NoError(t, err)
	return d
}

func newTestCache(t *testing.T) *cache.RedisClient {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisClient(&redis.Options{Addr: mr.Addr()}, 50)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDashboard_RefreshFailureEmptiesStore(t *testing.T) {
	gw := newFakeGateway()
	d := newTestDashboard(t, gw, nil)
	require.Len(t, d.Records(ViewCamera), 2)

	gw.listErr = errors.New("connection refused")

	n, err := d.RefreshCamera(context.Background(), 1)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Empty(t, d.Records(ViewCamera))

	_, err = d.RefreshHistory(context.Background())
	require.Error(t, err)
	assert.Empty(t, d.Records(ViewHistory))
	assert.NotNil(t, d.Records(ViewHistory))
}

func TestDashboard_RefreshCameraClampsPage(t *testing.T) {
	gw := newFakeGateway()
	gw.pages[5] = []models.DetectionRecord{{ID: "p5", GUIDDevice: "CAM-09", Datetime: "2025-06-01"}}
	d := NewDashboard(gw, nil, Options{MaxPages: 5}, zap.NewNop())

	n, err := d.RefreshCamera(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "p5", d.Records(ViewCamera)[0].ID)
}

func TestDashboard_DashboardViewIsUnion(t *testing.T) {
	d := newTestDashboard(t, newFakeGateway(), nil)

	records := d.Records(ViewDashboard)

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"c1", "c2", "h1", "h2"}, ids)
}

func TestDashboard_Table(t *testing.T) {
	d := newTestDashboard(t, newFakeGateway(), nil)

	page := d.Table(models.ViewState{View: ViewDashboard, Search: "budi", PerPage: 1, Page: 2})

	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "h1", page.Items[0].ID)

	page = d.Table(models.ViewState{View: ViewCamera, Page: 9})
	assert.Empty(t, page.Items)
	assert.Equal(t, 10, page.PerPage)
}

func TestDashboard_DetailAndCharts(t *testing.T) {
	d := newTestDashboard(t, newFakeGateway(), nil)

	detail := d.Detail(models.ViewState{
		SelectedDevice: "CAM-01",
		Detail:         models.FilterCriteria{Day: "14"},
	})
	require.Len(t, detail, 1)
	assert.Equal(t, "h1", detail[0].ID)

	assert.Empty(t, d.Detail(models.ViewState{}))

	charts := d.Charts(models.ViewState{
		SelectedDevice: "CAM-01",
		Chart:          models.FilterCriteria{Month: "2025-06"},
	})
	assert.Len(t, charts.FatigueByDate, 2)
	assert.Len(t, charts.FatiguePoints, 2)
}

func TestDashboard_DeleteRequiresConfirmation(t *testing.T) {
	gw := newFakeGateway()
	d := newTestDashboard(t, gw, nil)

	err := d.DeleteRecord(context.Background(), "c1", false)

	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Zero(t, gw.writeCalls)
	assert.Len(t, d.Records(ViewCamera), 2)
}

func TestDashboard_DeleteUnknownRecord(t *testing.T) {
	gw := newFakeGateway()
	d := newTestDashboard(t, gw, nil)

	err := d.DeleteRecord(context.Background(), "missing", true)

	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.Zero(t, gw.writeCalls)
}

func TestDashboard_DeleteGatewayFailureKeepsStores(t *testing.T) {
	gw := newFakeGateway()
	d := newTestDashboard(t, gw, nil)
	gw.writeErr = errors.New("backend down")

	err := d.DeleteRecord(context.Background(), "c1", true)

	require.Error(t, err)
	assert.Len(t, d.Records(ViewCamera), 2)
	assert.Len(t, d.Records(ViewHistory), 3)
}

func TestDashboard_DeleteRemovesAndLogs(t *testing.T) {
	gw := newFakeGateway()
	c := newTestCache(t)
	d := newTestDashboard(t, gw, c)

	require.NoError(t, d.DeleteRecord(context.Background(), "c1", true))

	assert.Equal(t, []string{"c1"}, gw.deleted)
	camera := d.Records(ViewCamera)
	require.Len(t, camera, 1)
	assert.Equal(t, "c2", camera[0].ID)
	assert.Len(t, d.Records(ViewHistory), 2)

	actions, err := d.RecentActions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "delete", actions[0].Kind)
	assert.Equal(t, "c1", actions[0].RecordID)
	assert.True(t, actions[0].Success)
}

func TestDashboard_UpdateUnit(t *testing.T) {
	gw := newFakeGateway()
	d := newTestDashboard(t, gw, nil)

	require.NoError(t, d.UpdateUnit(context.Background(), "c2", "Gudang"))

	assert.Equal(t, "Gudang", gw.updated["c2"].Unit)
	assert.Equal(t, "Sari", gw.updated["c2"].Name)
	assert.Equal(t, 2, gw.listCalls)

	for _, r := range d.Records(ViewCamera) {
		if r.ID == "c2" {
			assert.Equal(t, "Gudang", r.Unit)
		}
	}

	assert.ErrorIs(t, d.UpdateUnit(context.Background(), "missing", "x"), ErrRecordNotFound)
}

func TestDashboard_UpdateUnitGatewayFailure(t *testing.T) {
	gw := newFakeGateway()
	d := newTestDashboard(t, gw, nil)
	gw.writeErr = errors.New("backend down")

	err := d.UpdateUnit(context.Background(), "c2", "Gudang")

	require.Error(t, err)
	r, ok := d.camera.Get("c2")
	require.True(t, ok)
	assert.Empty(t, r.Unit)
}

func TestDashboard_UsersCached(t *testing.T) {
	gw := newFakeGateway()
	d := newTestDashboard(t, gw, newTestCache(t))

	users := d.Users(context.Background(), "gudang")
	require.Len(t, users, 1)
	assert.Equal(t, "Sari", users[0].Name)

	users = d.Users(context.Background(), "")
	assert.Len(t, users, 2)
	assert.Equal(t, 1, gw.userCalls)
}

func TestDashboard_UsersFailureIsEmpty(t *testing.T) {
	gw := newFakeGateway()
	gw.usersErr = errors.New("timeout")
	d := newTestDashboard(t, gw, nil)

	users := d.Users(context.Background(), "")

	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestDashboard_RecentActionsWithoutCache(t *testing.T) {
	d := newTestDashboard(t, newFakeGateway(), nil)

	actions, err := d.RecentActions(context.Background(), 5)

	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestDashboard_Profiling(t *testing.T) {
	rows := []models.ProfilingRow{
		{Date: "01-05-2025", Fatigue: "15", Happy: "20", Sad: "5", Angry: "10", Neutral: "50"},
	}
	d := NewDashboard(newFakeGateway(), nil, Options{Profiling: rows}, zap.NewNop())

	view := d.Profiling()

	require.Len(t, view.Series, 1)
	assert.Equal(t, 15.0, view.Series[0].Fatigue)
	assert.Len(t, view.Distribution, 4)
}

func TestDashboard_TimeSeriesAndStats(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	d := newTestDashboard(t, newFakeGateway(), nil)
	d.Analyzer().WithClock(func() time.Time { return now })

	series := d.TimeSeries(models.ViewState{SelectedDevice: "CAM-01", WindowDays: 30})
	require.Len(t, series.Fatigue, 2)
	assert.Equal(t, "2025-06-15", series.Fatigue[0].Date)
	assert.Equal(t, 20.0, series.Fatigue[0].Fatigue)
	assert.Equal(t, 1, series.Moods[0].Happy)
	assert.Equal(t, 1, series.Moods[1].Angry)

	stats := d.Stats()
	assert.Equal(t, 4, stats.TotalRecords)
	assert.Equal(t, 3, stats.DistinctDevices)
	assert.Equal(t, 25.0, stats.AverageFatigue)
	assert.Equal(t, "2025-06-16", stats.LatestDate)
	assert.Equal(t, now, stats.ComputedAt)
}
