// Package api serves zone reports over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hrzones/internal/analysis"
	"hrzones/internal/service"
	"hrzones/internal/store"
)

// maxPeriodDays bounds the days query parameter
const maxPeriodDays = 366

var errBadPeriod = errors.New("unknown period")

// SettingsHook is called after settings were accepted by the registry
type SettingsHook func(analysis.Settings) error

// Handler holds the HTTP endpoints
type Handler struct {
	pipeline      *service.Pipeline
	defaultPeriod analysis.TimePeriod
	onSettings    SettingsHook
	logger        *slog.Logger
}

// Option configures a Handler
type Option func(*Handler)

// WithDefaultPeriod sets the period used when a request names none
func WithDefaultPeriod(p analysis.TimePeriod) Option {
	return func(h *Handler) { h.defaultPeriod = p }
}

// WithSettingsHook persists settings changed through PUT /v1/settings
func WithSettingsHook(hook SettingsHook) Option {
	return func(h *Handler) { h.onSettings = hook }
}

// NewHandler creates the API handler
func NewHandler(pipeline *service.Pipeline, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		pipeline:      pipeline,
		defaultPeriod: analysis.DefaultPeriods[0],
		logger:        logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router with panic recovery applied
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/periods", h.listPeriods).Methods(http.MethodGet)
	v1.HandleFunc("/zones", h.getZones).Methods(http.MethodGet)
	v1.HandleFunc("/zones/chart", h.getZoneChart).Methods(http.MethodGet)
	v1.HandleFunc("/settings", h.getSettings).Methods(http.MethodGet)
	v1.HandleFunc("/settings", h.putSettings).Methods(http.MethodPut)
	v1.HandleFunc("/activities", h.listActivities).Methods(http.MethodGet)

	return handlers.RecoveryHandler()(r)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listPeriods(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, analysis.DefaultPeriods)
}

func (h *Handler) getZones(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_period", err.Error())
		return
	}

	report, err := h.pipeline.Run(r.Context(), period)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type settingsResponse struct {
	Settings analysis.Settings `json:"settings"`
	Zones    []analysis.Zone   `json:"zones,omitempty"`
	Error    string            `json:"zones_error,omitempty"`
}

func (h *Handler) settingsBody() settingsResponse {
	registry := h.pipeline.Registry()
	resp := settingsResponse{Settings: registry.Settings()}
	zones, err := registry.Zones()
	if err != nil {
		resp.Error = service.UserMessage(err)
	} else {
		resp.Zones = zones
	}
	return resp
}

func (h *Handler) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.settingsBody())
}

func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var s analysis.Settings
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("decoding settings: %v", err))
		return
	}

	if err := h.pipeline.Registry().SetSettings(s); err != nil {
		if errors.Is(err, service.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, "invalid_settings", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", "updating settings failed")
		return
	}

	if h.onSettings != nil {
		if err := h.onSettings(h.pipeline.Registry().Settings()); err != nil {
			h.logger.Error("persisting settings", "err", err)
			writeError(w, http.StatusInternalServerError, "persist_failed", "settings applied but not saved")
			return
		}
	}

	h.logger.Info("settings updated", "settings", h.pipeline.Registry().Settings())
	writeJSON(w, http.StatusOK, h.settingsBody())
}

type activitySummary struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	StartDate        time.Time `json:"start_date"`
	MovingTime       int       `json:"moving_time"`
	Distance         float64   `json:"distance"`
	AverageHeartrate *float64  `json:"average_heartrate,omitempty"`
	MaxHeartrate     *float64  `json:"max_heartrate,omitempty"`
	Samples          int       `json:"samples"`
	Source           string    `json:"source"`
}

func summarizeActivity(a store.Activity) activitySummary {
	return activitySummary{
		ID:               a.ID,
		Name:             a.Name,
		Type:             a.Type,
		StartDate:        a.StartDate,
		MovingTime:       a.MovingTime,
		Distance:         a.Distance,
		AverageHeartrate: a.AverageHeartrate,
		MaxHeartrate:     a.MaxHeartrate,
		Samples:          len(a.Heartrate),
		Source:           a.Source,
	}
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_period", err.Error())
		return
	}

	activities, err := h.pipeline.Activities(r.Context(), period)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	out := make([]activitySummary, len(activities))
	for i, a := range activities {
		out[i] = summarizeActivity(a)
	}
	writeJSON(w, http.StatusOK, out)
}

// periodFromRequest reads ?period=<label> or ?days=<n>
func (h *Handler) periodFromRequest(r *http.Request) (analysis.TimePeriod, error) {
	q := r.URL.Query()
	if label := q.Get("period"); label != "" {
		p, ok := analysis.FindPeriod(label)
		if !ok {
			return analysis.TimePeriod{}, fmt.Errorf("%w %q", errBadPeriod, label)
		}
		return p, nil
	}
	if raw := q.Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 || days > maxPeriodDays {
			return analysis.TimePeriod{}, fmt.Errorf("days must be between 1 and %d", maxPeriodDays)
		}
		return analysis.PeriodForDays(days), nil
	}
	return h.defaultPeriod, nil
}

func (h *Handler) writePipelineError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("zone request failed", "err", err)
	} else {
		h.logger.Warn("zone request rejected", "err", err)
	}
	writeError(w, status, code, service.UserMessage(err))
}
