package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	model "github.com/zhouzirui/moodflow/backend/internal/model/session"
	sessionService "github.com/zhouzirui/moodflow/backend/internal/service/session"
	"github.com/zhouzirui/moodflow/backend/pkg/utils"
)

// Handler 会话服务的HTTP处理器
type Handler struct {
	store  sessionService.Store
	logger *zap.Logger
}

// New 创建会话处理器
func New(store sessionService.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:  store,
		logger: logger.Named("session"),
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(sr chi.Router) {
		sr.Post("/", h.handleCreate)
		sr.Get("/", h.handleList)
		sr.Get("/completed", h.handleListCompleted)
		sr.Get("/mood/{mood}", h.handleListByMood)
		sr.Get("/step/{step}", h.handleListByStep)
		sr.Get("/{id}", h.handleGet)
		sr.Patch("/{id}", h.handleUpdate)
	})
}

// handleCreate 创建会话
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := payload.toNew()
	if err != nil {
		h.respondValidation(w, err)
		return
	}

	created, err := h.store.Create(r.Context(), in)
	if err != nil {
		h.respondStoreError(w, r, err, "failed to create session")
		return
	}

	h.logger.Debug("session created", zap.Int64("id", created.ID), zap.String("mood", string(created.Mood)))
	utils.RespondJSON(w, http.StatusCreated, created)
}

// handleUpdate 局部更新会话的步骤或完成状态
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch, err := payload.toPatch()
	if err != nil {
		h.respondValidation(w, err)
		return
	}

	updated, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		h.respondStoreError(w, r, err, "failed to update session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, updated)
}

// handleGet 查询单个会话
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	found, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, r, err, "failed to retrieve session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, found)
}

// handleList 列出所有会话
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.List(r.Context())
	h.respondList(w, r, sessions, err, "failed to retrieve sessions")
}

// handleListByMood 按心情筛选会话
func (h *Handler) handleListByMood(w http.ResponseWriter, r *http.Request) {
	mood := model.Mood(chi.URLParam(r, "mood"))
	if !mood.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "invalid mood")
		return
	}

	sessions, err := h.store.ListByMood(r.Context(), mood)
	h.respondList(w, r, sessions, err, "failed to retrieve sessions by mood")
}

// handleListByStep 按步骤筛选会话
func (h *Handler) handleListByStep(w http.ResponseWriter, r *http.Request) {
	step, err := model.ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid step")
		return
	}

	sessions, err := h.store.ListByStep(r.Context(), step)
	h.respondList(w, r, sessions, err, "failed to retrieve sessions by step")
}

// handleListCompleted 列出已完成的会话
func (h *Handler) handleListCompleted(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListCompleted(r.Context())
	h.respondList(w, r, sessions, err, "failed to retrieve completed sessions")
}

// parseID 解析路径中的会话 ID，必须是非负整数
func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		utils.RespondError(w, http.StatusBadRequest, "invalid session id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, sessions []model.Session, err error, failure string) {
	if err != nil {
		h.respondStoreError(w, r, err, failure)
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	utils.RespondJSON(w, http.StatusOK, sessions)
}

func (h *Handler) respondValidation(w http.ResponseWriter, err error) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		utils.RespondError(w, http.StatusBadRequest, "invalid session data", verrs.Details()...)
		return
	}
	utils.RespondError(w, http.StatusBadRequest, "invalid session data")
}

// respondStoreError 将存储层错误映射为 HTTP 状态码，内部错误不向客户端泄露细节
func (h *Handler) respondStoreError(w http.ResponseWriter, r *http.Request, err error, failure string) {
	switch {
	case errors.Is(err, sessionService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, model.ErrInvalidMood),
		errors.Is(err, model.ErrInvalidStep),
		errors.Is(err, sessionService.ErrMoodRequired):
		utils.RespondError(w, http.StatusBadRequest, "invalid session data", err.Error())
	default:
		h.logger.Error(failure,
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		utils.RespondError(w, http.StatusInternalServerError, failure)
	}
}
