package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appI18n "github.com/forerkortet/forerkortet/internal/i18n"
	"github.com/forerkortet/forerkortet/internal/model"
	"github.com/forerkortet/forerkortet/internal/progress"
	"github.com/forerkortet/forerkortet/internal/scoring"
	"github.com/forerkortet/forerkortet/internal/selection"
	"github.com/forerkortet/forerkortet/internal/store"
)

type scoreRequest struct {
	Correct   int   `json:"correct"`
	Total     int   `json:"total"`
	ElapsedMs int64 `json:"elapsed_ms"`
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Correct < 0 || req.Total < 0 || req.ElapsedMs < 0 || req.Correct > req.Total {
		writeMessage(w, r, http.StatusBadRequest, "ErrBadRequest")
		return
	}
	writeJSON(w, http.StatusOK, scoring.Score(r.Context(), scoring.Attempt{
		Correct: req.Correct,
		Total:   req.Total,
		Elapsed: time.Duration(req.ElapsedMs) * time.Millisecond,
	}))
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := h.store.ListQuestions(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if qs == nil {
		qs = []model.Question{}
	}
	writeJSON(w, http.StatusOK, qs)
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.Categories()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []store.CategoryCount{}
	}
	writeJSON(w, http.StatusOK, cats)
}

type startTestRequest struct {
	Category     string `json:"category"`
	NumQuestions int    `json:"num_questions"`
}

func (h *Handler) handleStartTest(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	req := startTestRequest{Category: h.config.Category}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	target := h.config.NumQuestions
	if req.NumQuestions > 0 {
		target = req.NumQuestions
	}

	pool, err := h.store.ListQuestions(req.Category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(pool) == 0 {
		writeMessage(w, r, http.StatusNotFound, "ErrNoQuestions")
		return
	}
	previous, err := h.store.ListResults(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	picked := selection.Select(selection.Config{
		Target:      target,
		UnseenShare: h.config.UnseenShare,
		Questions:   pool,
		Previous:    previous,
	}, nil)

	test := model.IssuedTest{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Questions: selection.ReduceAll(picked, h.config.MaxOptions, nil),
		StartedAt: h.now().UTC(),
	}
	if err := h.store.CreateIssuedTest(test); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Debug("issued test", "test_id", test.ID, "user_id", user.ID, "questions", len(test.Questions))
	writeJSON(w, http.StatusCreated, test)
}

type submitRequest struct {
	TestID  string             `json:"test_id"`
	Answers []model.Submission `json:"answers"`
}

type resultView struct {
	model.TestResult
	Report scoring.Report `json:"report"`
}

type submitResponse struct {
	Result          resultView             `json:"result"`
	Message         string                 `json:"message"`
	NewAchievements []progress.Achievement `json:"new_achievements"`
}

func (h *Handler) view(r *http.Request, res model.TestResult) resultView {
	return resultView{
		TestResult: res,
		Report: scoring.Score(r.Context(), scoring.Attempt{
			Correct: res.Score,
			Total:   res.TotalQuestions,
			Elapsed: time.Duration(res.Duration) * time.Millisecond,
		}),
	}
}

func (h *Handler) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	test, err := h.store.GetIssuedTest(req.TestID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if test.UserID != user.ID {
		writeMessage(w, r, http.StatusNotFound, "ErrNotFound")
		return
	}

	previous, err := h.store.ListResults(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := h.now().UTC()
	res := model.NewTestResult(test.ID, user.ID, test.Questions, req.Answers, test.StartedAt, now)
	if err := h.store.SubmitIssuedTest(res); err != nil {
		writeError(w, r, err)
		return
	}

	before := progress.Stats(previous, now)
	after := progress.Stats(append([]model.TestResult{res}, previous...), now)
	newlyUnlocked := progress.NewlyUnlocked(r.Context(), before, after)
	if newlyUnlocked == nil {
		newlyUnlocked = []progress.Achievement{}
	}

	slog.Info("test submitted", "test_id", res.ID, "user_id", user.ID,
		"score", res.Score, "total", res.TotalQuestions, "achievements", len(newlyUnlocked))
	writeJSON(w, http.StatusCreated, submitResponse{
		Result:          h.view(r, res),
		Message:         progress.ResultMessage(r.Context(), res.Score, res.TotalQuestions),
		NewAchievements: newlyUnlocked,
	})
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	results, err := h.store.ListResults(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]resultView, 0, len(results))
	for _, res := range results {
		views = append(views, h.view(r, res))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	res, err := h.store.GetResult(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.UserID != user.ID && user.Role != model.UserRoleAdmin {
		writeMessage(w, r, http.StatusNotFound, "ErrNotFound")
		return
	}
	writeJSON(w, http.StatusOK, h.view(r, res))
}

type progressResponse struct {
	Stats              model.UserStats        `json:"stats"`
	StreakLabel        string                 `json:"streak_label"`
	Achievements       []progress.Achievement `json:"achievements"`
	Coverage           selection.Stats        `json:"coverage"`
	QuestionsAvailable string                 `json:"questions_available"`
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	results, err := h.store.ListResults(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	questions, err := h.store.ListQuestions("")
	if err != nil {
		writeError(w, r, err)
		return
	}

	stats := progress.Stats(results, h.now())
	writeJSON(w, http.StatusOK, progressResponse{
		Stats:              stats,
		StreakLabel:        progress.StreakLabel(r.Context(), stats.Streak),
		Achievements:       progress.CheckAchievements(r.Context(), stats),
		Coverage:           selection.Statistics(questions, results),
		QuestionsAvailable: appI18n.Tp(r.Context(), "QuestionsAvailable", len(questions)),
	})
}
