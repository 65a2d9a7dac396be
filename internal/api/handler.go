// Package api serves the practice coach over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/abhisek/kotowari/internal/chatlog"
	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/training"
)

const maxUserIDLen = 128

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the JSON API.
type Handler struct {
	reg      *Registry
	elements training.Set
	db       Pinger
	logger   *zap.Logger
}

// NewHandler creates a Handler. db may be nil when there is nothing to ping.
func NewHandler(reg *Registry, elements training.Set, db Pinger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reg: reg, elements: elements, db: db, logger: logger}
}

// Router builds the chi router with middleware and all routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(chiMiddleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/elements", h.ListElements)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Use(requireUserID)
			r.Get("/progress", h.GetProgress)
			r.Delete("/progress", h.ResetProgress)
			r.Get("/session", h.GetSession)
			r.Post("/session", h.StartSession)
			r.Delete("/session", h.DiscardSession)
			r.Post("/session/messages", h.SendMessage)
			r.Post("/session/retry", h.Retry)
			r.Post("/session/save", h.SaveTranscript)
			r.Get("/history", h.ListHistory)
			r.Get("/history/{sessionID}", h.GetHistory)
			r.Delete("/history/{sessionID}", h.DeleteHistory)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Health reports liveness and store reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListElements returns the six training elements.
func (h *Handler) ListElements(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, newElementViews(h.elements))
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	var view progressView
	_ = h.reg.With(r.Context(), userID(r), func(c *session.Coach) error {
		view = newProgressView(h.elements, c.Progress(), c.Modes())
		return nil
	})
	JSON(w, http.StatusOK, view)
}

func (h *Handler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	var res session.ResetResult
	err := h.reg.With(r.Context(), userID(r), func(c *session.Coach) error {
		var err error
		res, err = c.ResetProgress(r.Context())
		return err
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, resetView{
		progressView: newProgressView(h.elements, res.Progress, res.Modes),
		Forced:       res.Forced,
	})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	var view sessionView
	_ = h.reg.With(r.Context(), userID(r), func(c *session.Coach) error {
		view = newSessionView(c.State())
		return nil
	})
	JSON(w, http.StatusOK, view)
}

type startRequest struct {
	Mode      string `json:"mode"`
	ElementID string `json:"element_id"`
	Scenario  string `json:"scenario"`
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decode(w, r, &req) {
		return
	}
	mode, err := training.ParseMode(req.Mode)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_mode_selection", err.Error())
		return
	}

	var turn session.Turn
	err = h.reg.With(r.Context(), userID(r), func(c *session.Coach) error {
		var err error
		turn, err = c.Start(r.Context(), mode, strings.TrimSpace(req.ElementID), req.Scenario)
		return err
	})
	h.writeTurn(w, http.StatusCreated, turn, err)
}

func (h *Handler) DiscardSession(w http.ResponseWriter, r *http.Request) {
	_ = h.reg.With(r.Context(), userID(r), func(c *session.Coach) error {
		c.NewScenario()
		return nil
	})
	w.WriteHeader(http.StatusNoContent)
}

type messageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decode(w, r, &req) {
		return
	}
	var turn session.Turn
	err := h.reg.With(r.Context(), userID(r), func(c *session.Coach) error {
		var err error
		turn, err = c.Send(r.Context(), req.Text)
		return err
	})
	h.writeTurn(w, http.StatusOK, turn, err)
}

func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	var turn session.Turn
	err := h.reg.With(r.Context(), userID(r), func(c *session.Coach) error {
		var err error
		turn, err = c.Retry(r.Context())
		return err
	})
	h.writeTurn(w, http.StatusOK, turn, err)
}

func (h *Handler) SaveTranscript(w http.ResponseWriter, r *http.Request) {
	var entry chatlog.Entry
	err := h.reg.With(r.Context(), userID(r), func(c *session.Coach) error {
		var err error
		entry, err = c.SaveTranscript(r.Context())
		return err
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusCreated, newHistoryViews([]chatlog.Entry{entry})[0])
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	var view []historyView
	_ = h.reg.With(r.Context(), userID(r), func(c *session.Coach) error {
		view = newHistoryViews(c.History(r.Context()))
		return nil
	})
	JSON(w, http.StatusOK, view)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var (
		entry chatlog.Entry
		found bool
	)
	_ = h.reg.With(r.Context(), userID(r), func(c *session.Coach) error {
		entry, found = c.FindHistory(r.Context(), sessionID)
		return nil
	})
	if !found {
		Error(w, http.StatusNotFound, "not_found", "session "+sessionID+" not found")
		return
	}
	JSON(w, http.StatusOK, newHistoryViews([]chatlog.Entry{entry})[0])
}

func (h *Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var removed bool
	err := h.reg.With(r.Context(), userID(r), func(c *session.Coach) error {
		var err error
		removed, err = c.DeleteHistory(r.Context(), sessionID)
		return err
	})
	switch {
	case err != nil:
		WriteError(w, err)
	case !removed:
		Error(w, http.StatusNotFound, "not_found", "session "+sessionID+" not found")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeTurn writes a completed turn. A pass that could not be saved is
// still a successful turn and carries a warning.
func (h *Handler) writeTurn(w http.ResponseWriter, status int, turn session.Turn, err error) {
	var risk *session.AtRiskError
	if err != nil && !errors.As(err, &risk) {
		WriteError(w, err)
		return
	}
	view := newTurnView(turn)
	if risk != nil {
		view.Warning = session.Describe(risk)
	}
	JSON(w, status, view)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return false
	}
	return true
}

func userID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "userID"))
}

func requireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := userID(r)
		if id == "" || len(id) > maxUserIDLen {
			Error(w, http.StatusBadRequest, "invalid_user", "user id must be 1-128 characters")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
		})
	}
}
