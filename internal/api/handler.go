package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/aetb-config/internal/settings"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// ConfigService is the part of settings.Manager the admin API depends on.
type ConfigService interface {
	Raw() settings.RawConfig
	GetPath(path string, def any) any
	Trading() (settings.TradingSettings, error)
	Evolution() (settings.EvolutionSettings, error)
	Risk() (settings.RiskSettings, error)
	Refresh(ctx context.Context) error
	State() settings.LoadState
	RemoteConnected() bool
}

// Handler exposes the configuration manager over HTTP.
type Handler struct {
	config ConfigService
	logger *zap.Logger

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithHandlerLogger sets the logger used for refresh failures.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(config ConfigService, opts ...HandlerOption) *Handler {
	h := &Handler{
		config: config,
		logger: zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// missing marks an absent key in GetPath lookups.
type missing struct{}

var missingValue = &missing{}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:          "ok",
		Timestamp:       h.clock(),
		LoadState:       h.config.State().String(),
		RemoteConnected: h.config.RemoteConnected(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	if h.config.State() == settings.StateUnloaded {
		writeNotLoaded(w)
		return
	}
	writeJSON(w, http.StatusOK, h.config.Raw())
}

func (h *Handler) handleGetKey(w http.ResponseWriter, r *http.Request) {
	if h.config.State() == settings.StateUnloaded {
		writeNotLoaded(w)
		return
	}

	key := r.PathValue("key")
	value := h.config.GetPath(key, missingValue)
	if value == any(missingValue) {
		writeError(w, http.StatusNotFound, "Key not found", "no configuration value under "+key)
		return
	}
	writeJSON(w, http.StatusOK, keyResponse{Key: key, Value: value})
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	section := r.PathValue("section")

	var (
		payload any
		err     error
	)
	switch section {
	case settings.SectionTrading:
		payload, err = h.config.Trading()
	case settings.SectionEvolution:
		payload, err = h.config.Evolution()
	case settings.SectionRisk:
		payload, err = h.config.Risk()
	default:
		writeError(w, http.StatusNotFound, "Unknown section", "section must be one of trading, evolution, risk")
		return
	}

	var verr *settings.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, payload)
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, validationErrorResponse{
			Error:      "Invalid settings",
			Section:    verr.Section,
			Violations: verr.Violations,
		})
	case errors.Is(err, settings.ErrMissingSection):
		writeError(w, http.StatusNotFound, "Section not found", err.Error())
	case errors.Is(err, settings.ErrNotLoaded):
		writeNotLoaded(w)
	default:
		writeInternalError(w, err)
	}
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	err := h.config.Refresh(r.Context())
	switch {
	case err == nil:
	case errors.Is(err, settings.ErrRemoteUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Remote unavailable", err.Error(),
			"check the remote credentials file and the store's reachability")
		return
	default:
		h.logger.Warn("remote refresh failed",
			zap.Error(err),
			zap.String("request_id", requestIDFromContext(r.Context())),
		)
		writeError(w, http.StatusBadGateway, "Remote refresh failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		Message:     "Remote configuration applied",
		RefreshedAt: h.clock(),
		Config:      h.config.Raw(),
	})
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	LoadState       string    `json:"load_state"`
	RemoteConnected bool      `json:"remote_connected"`
}

type keyResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type refreshResponse struct {
	Message     string             `json:"message"`
	RefreshedAt time.Time          `json:"refreshed_at"`
	Config      settings.RawConfig `json:"config"`
}

type validationErrorResponse struct {
	Error      string               `json:"error"`
	Section    string               `json:"section"`
	Violations []settings.Violation `json:"violations"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeNotLoaded(w http.ResponseWriter) {
	writeError(w, http.StatusServiceUnavailable, "Configuration not loaded", settings.ErrNotLoaded.Error())
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
