package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/forerkortet/forerkortet/internal/auth"
	"github.com/forerkortet/forerkortet/internal/model"
	"github.com/forerkortet/forerkortet/internal/progress"
)

// revoker is implemented by providers that can revoke a user's credentials.
type revoker interface {
	Revoke(ctx context.Context, userID int64) error
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	Password    string         `json:"password"`
	Role        model.UserRole `json:"role"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeMessage(w, r, http.StatusBadRequest, "ErrBadRequest")
		return
	}
	switch req.Role {
	case "":
		req.Role = model.UserRoleStudent
	case model.UserRoleStudent, model.UserRoleAdmin:
	default:
		writeMessage(w, r, http.StatusBadRequest, "ErrBadRequest")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	existing, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing != nil {
		writeMessage(w, r, http.StatusConflict, "ErrUsernameTaken")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.store.CreateUser(model.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.store.GetUserByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("created user", "username", user.Username, "role", user.Role)
	writeJSON(w, http.StatusCreated, user)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) handleSetUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "ErrBadRequest")
		return
	}
	var req setActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.store.GetUserByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		writeMessage(w, r, http.StatusNotFound, "ErrNotFound")
		return
	}

	if rv, ok := h.auth.(revoker); ok && !req.Active {
		err = rv.Revoke(r.Context(), id)
	} else {
		err = h.store.SetUserActive(id, req.Active)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("set user active", "user_id", id, "active", req.Active)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUploadQuestions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "ErrBadRequest")
		return
	}

	file, header, err := r.FormFile("questions_file")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "ErrBadRequest")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sum, err := h.importer.ImportData(r.Context(), "upload:"+header.Filename, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("uploaded questions via admin", "filename", header.Filename, "count", sum.Imported, "skipped", sum.Skipped)
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	export, err := progress.Export(h.store, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="results.xlsx"`)
		if err := progress.WriteXLSX(w, export); err != nil {
			slog.Error("write xlsx export", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, export)
}
