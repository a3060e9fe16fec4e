package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"detection-dashboard/internal/analytics"
	"detection-dashboard/internal/models"
	"detection-dashboard/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	ViewCamera    = "camera"
	ViewHistory   = "history"
	ViewDashboard = "dashboard"
)

var (
	ErrConfirmationRequired = errors.New("delete requires explicit confirmation")
	ErrRecordNotFound       = errors.New("record not found")
)

var (
	gatewayFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_gateway_failures_total",
		Help: "Total number of failed backend calls",
	}, []string{"op"})

	storeRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dashboard_store_records",
		Help: "Number of records in each store snapshot",
	}, []string{"store"})
)

// Gateway is the backend the dashboard reads from and writes through.
type Gateway interface {
	ListRecords(ctx context.Context, page int) (*models.RecordPage, error)
	ListAllRecords(ctx context.Context, pageCount int) ([]models.DetectionRecord, error)
	DeleteRecord(ctx context.Context, id string) error
	UpdateRecord(ctx context.Context, id string, record models.DetectionRecord) error
	ListUsers(ctx context.Context) ([]models.UserProfile, error)
}

// Cache is optional; a nil Cache disables user caching and the action log.
type Cache interface {
	StoreUsers(ctx context.Context, users []models.UserProfile, ttl time.Duration) error
	GetUsers(ctx context.Context) ([]models.UserProfile, bool, error)
	StoreAction(ctx context.Context, action models.Action) error
	GetRecentActions(ctx context.Context, count int64) ([]models.Action, error)
}

type Options struct {
	HistoryPages int
	// MaxPages caps the camera page that may be fetched; 0 means no cap.
	MaxPages     int
	PageSize     int
	WindowDays   int
	UsersTTL     time.Duration
	Profiling    []models.ProfilingRow
}

// Dashboard keeps the camera page and the full history as two snapshots and
// serves every view from them.
type Dashboard struct {
	gateway  Gateway
	cache    Cache
	camera   *store.RecordStore
	history  *store.RecordStore
	analyzer *analytics.Analyzer
	opts     Options
	logger   *zap.Logger

	mu       sync.Mutex
	lastPage int
}

func NewDashboard(gateway Gateway, cache Cache, opts Options, logger *zap.Logger) *Dashboard {
	if opts.HistoryPages < 1 {
		opts.HistoryPages = 5
	}
	if opts.PageSize < 1 {
		opts.PageSize = analytics.DefaultPageSize
	}
	if opts.WindowDays < 1 {
		opts.WindowDays = analytics.DefaultWindowDays
	}
	return &Dashboard{
		gateway:  gateway,
		cache:    cache,
		camera:   store.NewRecordStore(ViewCamera),
		history:  store.NewRecordStore(ViewHistory),
		analyzer: analytics.NewAnalyzer(opts.WindowDays),
		opts:     opts,
		logger:   logger,
	}
}

// Analyzer exposes the analyzer so callers can swap its clock.
func (d *Dashboard) Analyzer() *analytics.Analyzer {
	return d.analyzer
}

// RefreshCamera replaces the camera snapshot with one backend page. On
// failure the snapshot becomes empty.
func (d *Dashboard) RefreshCamera(ctx context.Context, page int) (int, error) {
	if page < 1 {
		page = 1
	}
	if d.opts.MaxPages > 0 && page > d.opts.MaxPages {
		page = d.opts.MaxPages
	}
	result, err := d.gateway.ListRecords(ctx, page)
	if err != nil {
		d.failRefresh(d.camera, "list_records", err)
		return 0, fmt.Errorf("refresh camera page %d: %w", page, err)
	}

	d.camera.Replace(result.Items)
	storeRecords.WithLabelValues(ViewCamera).Set(float64(d.camera.Len()))

	d.mu.Lock()
	d.lastPage = page
	d.mu.Unlock()

	d.logger.Info("Camera records refreshed", zap.Int("page", page), zap.Int("count", len(result.Items)))
	return len(result.Items), nil
}

// RefreshHistory replaces the history snapshot with all configured pages.
// On failure the snapshot becomes empty.
func (d *Dashboard) RefreshHistory(ctx context.Context) (int, error) {
	records, err := d.gateway.ListAllRecords(ctx, d.opts.HistoryPages)
	if err != nil {
		d.failRefresh(d.history, "list_all_records", err)
		return 0, fmt.Errorf("refresh history: %w", err)
	}

	d.history.Replace(records)
	storeRecords.WithLabelValues(ViewHistory).Set(float64(d.history.Len()))

	d.logger.Info("History records refreshed", zap.Int("pages", d.opts.HistoryPages), zap.Int("count", len(records)))
	return len(records), nil
}

func (d *Dashboard) failRefresh(s *store.RecordStore, op string, err error) {
	s.Replace(nil)
	storeRecords.WithLabelValues(s.Name()).Set(0)
	gatewayFailures.WithLabelValues(op).Inc()
	d.logger.Error("Failed to refresh records", zap.String("store", s.Name()), zap.Error(err))
}

// Records returns the snapshot behind a view. The dashboard view is the
// camera page united with the history by id.
func (d *Dashboard) Records(view string) []models.DetectionRecord {
	switch view {
	case ViewDashboard:
		return store.Union(d.camera, d.history)
	case ViewHistory:
		return d.history.Snapshot()
	default:
		return d.camera.Snapshot()
	}
}

// Table filters a view by free text and cuts the requested page.
func (d *Dashboard) Table(vs models.ViewState) models.TablePage {
	perPage := vs.PerPage
	if perPage < 1 {
		perPage = d.opts.PageSize
	}
	page := vs.Page
	if page < 1 {
		page = 1
	}

	filtered := analytics.FilterByText(d.Records(vs.View), vs.Search)
	return models.TablePage{
		Items:      analytics.Paginate(filtered, page, perPage),
		Page:       page,
		PerPage:    perPage,
		Total:      len(filtered),
		TotalPages: analytics.PageCount(len(filtered), perPage),
	}
}

// Detail lists the history of the selected device narrowed by vs.Detail.
func (d *Dashboard) Detail(vs models.ViewState) []models.DetectionRecord {
	return analytics.FilterByCriteria(d.history.Snapshot(), vs.SelectedDevice, vs.Detail)
}

func (d *Dashboard) Charts(vs models.ViewState) models.ChartData {
	return d.analyzer.Charts(d.history.Snapshot(), vs.SelectedDevice, vs.Chart, vs.ChartSearch)
}

func (d *Dashboard) TimeSeries(vs models.ViewState) models.UserTimeSeries {
	return d.analyzer.UserTimeSeries(d.history.Snapshot(), vs.SelectedDevice, vs.WindowDays)
}

func (d *Dashboard) Stats() models.DashboardStats {
	return d.analyzer.Analyze(d.Records(ViewDashboard))
}

func (d *Dashboard) Profiling() models.ProfilingView {
	return models.ProfilingView{
		Series:       analytics.ProfilingSeries(d.opts.Profiling),
		Distribution: analytics.AggregateMoodDistributionPercent(d.opts.Profiling),
	}
}

func (d *Dashboard) find(id string) (models.DetectionRecord, bool) {
	if r, ok := d.camera.Get(id); ok {
		return r, true
	}
	return d.history.Get(id)
}

// UpdateUnit changes a record's unit through the backend, then refreshes the
// camera page.
func (d *Dashboard) UpdateUnit(ctx context.Context, id, unit string) error {
	record, ok := d.find(id)
	if !ok {
		return ErrRecordNotFound
	}
	record.Unit = unit

	if err := d.gateway.UpdateRecord(ctx, id, record); err != nil {
		gatewayFailures.WithLabelValues("update_record").Inc()
		d.logger.Error("Failed to update record", zap.String("id", id), zap.Error(err))
		d.recordAction(ctx, "update", id, unit, false)
		return fmt.Errorf("update record %s: %w", id, err)
	}

	d.camera.SetUnit(id, unit)
	d.history.SetUnit(id, unit)
	d.recordAction(ctx, "update", id, unit, true)
	d.refreshAfterWrite(ctx)
	return nil
}

// DeleteRecord removes a record through the backend. It refuses to run
// without confirmation and leaves the stores untouched on any failure.
func (d *Dashboard) DeleteRecord(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if _, ok := d.find(id); !ok {
		return ErrRecordNotFound
	}

	if err := d.gateway.DeleteRecord(ctx, id); err != nil {
		gatewayFailures.WithLabelValues("delete_record").Inc()
		d.logger.Error("Failed to delete record", zap.String("id", id), zap.Error(err))
		d.recordAction(ctx, "delete", id, "", false)
		return fmt.Errorf("delete record %s: %w", id, err)
	}

	d.camera.Remove(id)
	d.history.Remove(id)
	d.recordAction(ctx, "delete", id, "", true)
	d.refreshAfterWrite(ctx)
	return nil
}

func (d *Dashboard) refreshAfterWrite(ctx context.Context) {
	d.mu.Lock()
	page := d.lastPage
	d.mu.Unlock()
	if page == 0 {
		return
	}
	// The write already succeeded; a failed refresh is logged by RefreshCamera.
	_, _ = d.RefreshCamera(ctx, page)
}

func (d *Dashboard) recordAction(ctx context.Context, kind, id, detail string, success bool) {
	if d.cache == nil {
		return
	}
	action := models.Action{
		Kind:      kind,
		RecordID:  id,
		Detail:    detail,
		Success:   success,
		Timestamp: time.Now().UTC(),
	}
	if err := d.cache.StoreAction(ctx, action); err != nil {
		d.logger.Warn("Failed to log action", zap.Stringer("action", action), zap.Error(err))
	}
}

// Users returns the user directory narrowed by query. Backend failures
// yield an empty list.
func (d *Dashboard) Users(ctx context.Context, query string) []models.UserProfile {
	users, err := d.loadUsers(ctx)
	if err != nil {
		gatewayFailures.WithLabelValues("list_users").Inc()
		d.logger.Error("Failed to load users", zap.Error(err))
		return []models.UserProfile{}
	}
	return analytics.FilterUsers(users, query)
}

func (d *Dashboard) loadUsers(ctx context.Context) ([]models.UserProfile, error) {
	if d.cache != nil {
		users, ok, err := d.cache.GetUsers(ctx)
		if err != nil {
			d.logger.Warn("User cache read failed", zap.Error(err))
		} else if ok {
			return users, nil
		}
	}

	users, err := d.gateway.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	if d.cache != nil && d.opts.UsersTTL > 0 {
		if err := d.cache.StoreUsers(ctx, users, d.opts.UsersTTL); err != nil {
			d.logger.Warn("User cache write failed", zap.Error(err))
		}
	}
	return users, nil
}

// RecentActions lists the newest edits and deletes, newest first.
func (d *Dashboard) RecentActions(ctx context.Context, limit int64) ([]models.Action, error) {
	if d.cache == nil {
		return []models.Action{}, nil
	}
	return d.cache.GetRecentActions(ctx, limit)
}
