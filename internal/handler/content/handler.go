package content

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/moodflow/backend/internal/model/content"
	"github.com/zhouzirui/moodflow/backend/internal/model/session"
	"github.com/zhouzirui/moodflow/backend/pkg/utils"
)

// Handler 引导内容服务的HTTP处理器
type Handler struct {
	contents content.Store
}

// New 创建内容处理器
func New(contents content.Store) *Handler {
	return &Handler{
		contents: contents,
	}
}

// RegisterRoutes 注册内容相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/moods", h.handleListMoods)
	r.Get("/content/{mood}/{step}", h.handleLookup)
}

// handleListMoods 列出所有可选心情
func (h *Handler) handleListMoods(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.contents.Moods())
}

// handleLookup 返回指定心情与步骤的脚本消息
func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	mood, err := session.ParseMood(chi.URLParam(r, "mood"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid mood")
		return
	}
	step, err := session.ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid step")
		return
	}

	utils.RespondJSON(w, http.StatusOK, content.FromSchemaList(h.contents.Lookup(mood, step)))
}
