package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sentinelx/internal/config"
	"sentinelx/internal/ledger"
	"sentinelx/internal/model"
	"sentinelx/internal/report"
)

type EngineControl interface {
	Reset()
}

type Server struct {
	cfg     *config.Manager
	reports *report.Store
	ledger  *ledger.Ledger
	engine  EngineControl
	logger  *slog.Logger
	version string
}

type statusResponse struct {
	Status    string          `json:"status"`
	Time      string          `json:"time"`
	Version   string          `json:"version"`
	Telemetry telemetryStatus `json:"telemetry"`
	Geo       geoStatus       `json:"geo"`
	Ledger    ledgerStatus    `json:"ledger"`
}

type telemetryStatus struct {
	BrakeThresholdMPS2 float64 `json:"brake_threshold_mps2"`
	DebounceWindow     string  `json:"debounce_window"`
	RetriggerHoldoff   string  `json:"retrigger_holdoff"`
	UDPEnabled         bool    `json:"udp_enabled"`
}

type geoStatus struct {
	MaxRadiusKM float64 `json:"max_radius_km"`
	DatasetPath string  `json:"dataset_path,omitempty"`
}

type ledgerStatus struct {
	Driver          string `json:"driver"`
	FirstThreshold  int64  `json:"first_threshold"`
	SecondThreshold int64  `json:"second_threshold"`
}

func Start(ctx context.Context, cfg *config.Manager, reports *report.Store, led *ledger.Ledger, engine EngineControl, logger *slog.Logger, version string) *http.Server {
	if cfg == nil {
		return nil
	}
	current := cfg.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := &Server{
		cfg:     cfg,
		reports: reports,
		ledger:  led,
		engine:  engine,
		logger:  logger,
		version: version,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/status", server.handleStatus)
	mux.HandleFunc("/reports", server.handleReports)
	mux.HandleFunc("/offenders", server.handleOffenders)
	mux.HandleFunc("/admin/reset", server.handleReset)

	httpServer := &http.Server{Addr: current.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cfg := s.cfg.Get()
	resp := statusResponse{
		Status:  "ok",
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Version: s.version,
		Telemetry: telemetryStatus{
			BrakeThresholdMPS2: cfg.Telemetry.BrakeThreshold,
			DebounceWindow:     cfg.Telemetry.DebounceWindow.String(),
			RetriggerHoldoff:   cfg.Telemetry.RetriggerHoldoff.String(),
			UDPEnabled:         cfg.Telemetry.UDP.Enabled,
		},
		Geo: geoStatus{
			MaxRadiusKM: cfg.Geo.MaxRadiusKM,
			DatasetPath: cfg.Geo.DatasetPath,
		},
		Ledger: ledgerStatus{
			Driver:          cfg.Ledger.Driver,
			FirstThreshold:  cfg.Ledger.FirstThreshold,
			SecondThreshold: cfg.Ledger.SecondThreshold,
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	sinceStr := r.URL.Query().Get("since")
	var list []model.ViolationReport
	if sinceStr != "" {
		ts, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		list = s.reports.Since(ts)
	} else {
		list = s.reports.List(limit)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reports": list,
		"count":   len(list),
	})
}

func (s *Server) handleOffenders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	plate := strings.TrimSpace(r.URL.Query().Get("plate"))
	if plate == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	rec, ok, err := s.ledger.Lookup(r.Context(), plate)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("offender lookup failed", "err", err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.engine != nil {
		s.engine.Reset()
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
