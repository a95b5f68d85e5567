package message

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/anythingboes/boes-chat/pkg/utils"
)

// 对外暴露的错误文案
const (
	errEmptyMessage   = "Message cannot be empty"
	errTooLong        = "Message is too long"
	errUnavailable    = "reply service unavailable"
	errUnexpected     = "An unexpected error occurred"
	maxBodyMultiplier = 8
)

// Replier 生成对单条消息的回复
type Replier interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Handler 回复服务的HTTP处理器
type Handler struct {
	replier   Replier
	maxLength int
	log       zerolog.Logger
}

// New 创建消息处理器，replier 为 nil 时返回 503
func New(replier Replier, maxLength int, log zerolog.Logger) *Handler {
	return &Handler{
		replier:   replier,
		maxLength: maxLength,
		log:       log,
	}
}

// RegisterRoutes 注册消息路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/message", h.handleMessage)
}

type messageRequest struct {
	Message *string `json:"message"`
}

type messageResponse struct {
	Response string `json:"response"`
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload messageRequest
	var limit int64
	if h.maxLength > 0 {
		// Leave room for JSON escaping on top of the rune limit.
		limit = int64(h.maxLength*utf8.UTFMax*maxBodyMultiplier + 64)
	}
	if err := utils.DecodeJSON(r, limit, &payload); err != nil || payload.Message == nil {
		utils.RespondError(w, http.StatusBadRequest, errEmptyMessage)
		return
	}

	text := strings.TrimSpace(*payload.Message)
	if text == "" {
		utils.RespondError(w, http.StatusBadRequest, errEmptyMessage)
		return
	}
	if h.maxLength > 0 && utf8.RuneCountInString(text) > h.maxLength {
		utils.RespondError(w, http.StatusBadRequest, errTooLong)
		return
	}

	if h.replier == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, errUnavailable)
		return
	}

	reply, err := h.replier.Reply(r.Context(), text)
	if err != nil {
		h.log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("failed to generate reply")
		utils.RespondError(w, http.StatusInternalServerError, errUnexpected)
		return
	}

	utils.RespondJSON(w, http.StatusOK, messageResponse{Response: reply})
}
