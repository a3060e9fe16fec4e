// Package api serves the dashboard views over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"detection-dashboard/internal/service"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	router    *mux.Router
	dashboard *service.Dashboard
	logger    *zap.Logger
	version   string
}

func NewServer(dashboard *service.Dashboard, logger *zap.Logger, version string) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		dashboard: dashboard,
		logger:    logger,
		version:   version,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.instrument)

	s.router.HandleFunc("/health", s.healthHandler).Methods("GET")

	s.router.HandleFunc("/records/refresh", s.refreshRecordsHandler).Methods("POST")
	s.router.HandleFunc("/history/refresh", s.refreshHistoryHandler).Methods("POST")
	s.router.HandleFunc("/records", s.listRecordsHandler).Methods("GET")
	s.router.HandleFunc("/records/{id}/unit", s.updateUnitHandler).Methods("PUT")
	s.router.HandleFunc("/records/{id}", s.deleteRecordHandler).Methods("DELETE")

	s.router.HandleFunc("/devices/{device}/records", s.deviceRecordsHandler).Methods("GET")
	s.router.HandleFunc("/devices/{device}/charts", s.deviceChartsHandler).Methods("GET")
	s.router.HandleFunc("/devices/{device}/timeseries", s.deviceTimeSeriesHandler).Methods("GET")

	s.router.HandleFunc("/stats", s.statsHandler).Methods("GET")
	s.router.HandleFunc("/profiling", s.profilingHandler).Methods("GET")
	s.router.HandleFunc("/users", s.usersHandler).Methods("GET")
	s.router.HandleFunc("/actions/recent", s.recentActionsHandler).Methods("GET")

	s.router.HandleFunc("/export/xlsx", s.exportXLSXHandler).Methods("GET")
	s.router.HandleFunc("/export/pdf", s.exportPDFHandler).Methods("GET")

	s.router.Handle("/metrics/prometheus", promhttp.Handler())
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until SIGINT or SIGTERM, then drains connections.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		s.logger.Info("Server is shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("Could not gracefully shutdown the server", zap.Error(err))
		}
		close(done)
	}()

	s.logger.Info("Server is ready to handle requests", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not listen on %s: %w", addr, err)
	}

	<-done
	s.logger.Info("Server stopped")
	return nil
}
