package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"detection-dashboard/internal/analytics"
	"detection-dashboard/internal/export"
	"detection-dashboard/internal/models"
	"detection-dashboard/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

// writeError maps service errors onto status codes. Anything unknown is a
// backend failure.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, service.ErrConfirmationRequired):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrRecordNotFound):
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

// viewState reads the selection and filter inputs shared by all views.
func viewState(r *http.Request) models.ViewState {
	q := r.URL.Query()
	view := q.Get("view")
	if view == "" {
		view = service.ViewCamera
	}
	return models.ViewState{
		View:           view,
		SelectedDevice: mux.Vars(r)["device"],
		Search:         q.Get("q"),
		Detail: models.FilterCriteria{
			Name:       q.Get("nama"),
			GUIDDevice: q.Get("guid_device"),
			Day:        q.Get("tanggal_hari"),
			MonthYear:  q.Get("bulan_tahun"),
		},
		Chart: models.FilterCriteria{
			Name:  q.Get("nama"),
			Date:  q.Get("tanggal"),
			Month: q.Get("bulan"),
		},
		ChartSearch: q.Get("q"),
		Page:        queryInt(r, "page", 1),
		PerPage:     queryInt(r, "per_page", 0),
		WindowDays:  queryInt(r, "days", 0),
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   s.version,
	})
}

func (s *Server) refreshRecordsHandler(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	n, err := s.dashboard.RefreshCamera(r.Context(), page)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"page": page, "count": n})
}

func (s *Server) refreshHistoryHandler(w http.ResponseWriter, r *http.Request) {
	n, err := s.dashboard.RefreshHistory(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) listRecordsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dashboard.Table(viewState(r)))
}

func (s *Server) deviceRecordsHandler(w http.ResponseWriter, r *http.Request) {
	records := s.dashboard.Detail(viewState(r))
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  records,
		"total": len(records),
	})
}

func (s *Server) deviceChartsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dashboard.Charts(viewState(r)))
}

func (s *Server) deviceTimeSeriesHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dashboard.TimeSeries(viewState(r)))
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dashboard.Stats())
}

func (s *Server) profilingHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dashboard.Profiling())
}

type updateUnitRequest struct {
	Unit string `json:"unit"`
}

func (s *Server) updateUnitHandler(w http.ResponseWriter, r *http.Request) {
	var req updateUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	id := mux.Vars(r)["id"]
	if err := s.dashboard.UpdateUnit(r.Context(), id, req.Unit); err != nil {
		s.writeError(w, err)
		return
	}
	recordsUpdated.Inc()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated", "id": id})
}

func (s *Server) deleteRecordHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	confirmed := r.URL.Query().Get("confirm") == "true"

	if err := s.dashboard.DeleteRecord(r.Context(), id, confirmed); err != nil {
		s.writeError(w, err)
		return
	}
	recordsDeleted.Inc()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (s *Server) usersHandler(w http.ResponseWriter, r *http.Request) {
	users := s.dashboard.Users(r.Context(), r.URL.Query().Get("q"))
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  users,
		"total": len(users),
	})
}

func (s *Server) recentActionsHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	actions, err := s.dashboard.RecentActions(r.Context(), int64(limit))
	if err != nil {
		s.logger.Error("Failed to read recent actions", zap.Error(err))
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "action log unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, actions)
}

// exportRecords returns the filtered view, cut to one page only when the
// client asks for one.
func (s *Server) exportRecords(r *http.Request) []models.DetectionRecord {
	vs := viewState(r)
	records := analytics.FilterByText(s.dashboard.Records(vs.View), vs.Search)
	if r.URL.Query().Has("page") {
		records = analytics.Paginate(records, vs.Page, vs.PerPage)
	}
	return records
}

func (s *Server) writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("Failed to write export", zap.String("file", filename), zap.Error(err))
	}
}

func (s *Server) exportXLSXHandler(w http.ResponseWriter, r *http.Request) {
	data, err := export.RecordsXLSX(s.exportRecords(r))
	if err != nil {
		s.logger.Error("Failed to render spreadsheet", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "export failed"})
		return
	}
	exportsRendered.WithLabelValues("xlsx").Inc()
	s.writeFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "data_kamera.xlsx", data)
}

func (s *Server) exportPDFHandler(w http.ResponseWriter, r *http.Request) {
	data, err := export.RecordsPDF(s.exportRecords(r))
	if err != nil {
		s.logger.Error("Failed to render pdf", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "export failed"})
		return
	}
	exportsRendered.WithLabelValues("pdf").Inc()
	s.writeFile(w, "application/pdf", "data_kamera.pdf", data)
}
