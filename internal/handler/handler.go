package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/forerkortet/forerkortet/internal/auth"
	appI18n "github.com/forerkortet/forerkortet/internal/i18n"
	"github.com/forerkortet/forerkortet/internal/importer"
	"github.com/forerkortet/forerkortet/internal/model"
	"github.com/forerkortet/forerkortet/internal/store"
)

const (
	defaultNumQuestions = 45
	defaultMaxOptions   = 4
	maxBodyBytes        = 10 << 20
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	auth     auth.Provider
	importer *importer.Importer
	config   model.TestConfig
	now      func() time.Time
}

// New creates a new Handler.
func New(s *store.Store, p auth.Provider, im *importer.Importer, cfg model.TestConfig) *Handler {
	if cfg.NumQuestions <= 0 {
		cfg.NumQuestions = defaultNumQuestions
	}
	if cfg.MaxOptions == 0 {
		cfg.MaxOptions = defaultMaxOptions
	}
	h := &Handler{store: s, auth: p, importer: im, config: cfg, now: time.Now}
	p.OnCredentialRevoked(func(userID int64) {
		n, err := s.DeleteUserIssuedTests(userID)
		if err != nil {
			slog.Error("failed to drop open tests of revoked user", "user_id", userID, "error", err)
			return
		}
		slog.Debug("dropped open tests of revoked user", "user_id", userID, "tests", n)
	})
	return h
}

// Router builds the full HTTP handler with middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.config.AllowOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept-Language", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))
	r.Use(appI18n.Middleware(h.config.DefaultLocale))
	h.Routes(r)
	return r
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/score", h.handleScore)
	r.Post("/api/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/api/auth/logout", h.handleLogout)
		r.Get("/api/me", h.handleMe)
		r.Get("/api/questions", h.handleQuestions)
		r.Get("/api/categories", h.handleCategories)
		r.Post("/api/tests", h.handleStartTest)
		r.Post("/api/results", h.handleSubmitResult)
		r.Get("/api/results", h.handleListResults)
		r.Get("/api/results/{id}", h.handleGetResult)
		r.Get("/api/progress", h.handleProgress)

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/users", h.handleListUsers)
			r.Post("/users", h.handleCreateUser)
			r.Put("/users/{userID}/active", h.handleSetUserActive)
			r.Post("/questions", h.handleUploadQuestions)
			r.Get("/export", h.handleExport)
		})
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeMessage writes a localized error message.
func writeMessage(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, errorResponse{Error: appI18n.T(r.Context(), msgID)})
}

// writeError maps err to a status code and writes a localized message.
// Unexpected errors are logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeMessage(w, r, http.StatusNotFound, "ErrNotFound")
	case errors.Is(err, model.ErrInvalidQuestion), errors.Is(err, importer.ErrMalformed):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrInvalidCredentials):
		writeMessage(w, r, http.StatusUnauthorized, "ErrInvalidCredentials")
	case errors.Is(err, model.ErrUnavailable):
		writeMessage(w, r, http.StatusServiceUnavailable, "ErrAuthUnavailable")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, r, http.StatusInternalServerError, "ErrInternal")
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		slog.Debug("invalid request body", "path", r.URL.Path, "error", err)
		writeMessage(w, r, http.StatusBadRequest, "ErrBadRequest")
		return false
	}
	return true
}
