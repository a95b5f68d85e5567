package widget

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/anythingboes/boes-chat/internal/model/chat"
	"github.com/anythingboes/boes-chat/pkg/utils"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Session 是桥接层需要的会话操作
type Session interface {
	Snapshot() chat.Snapshot
	Subscribe() (<-chan struct{}, func())
	OnDraftChange(text string)
	Submit(ctx context.Context, text string) bool
	SubmitDraft(ctx context.Context) bool
}

// Handler 把同一个会话暴露给浏览器 widget
type Handler struct {
	ctx      context.Context
	session  Session
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// New 创建 websocket 桥接处理器。ctx 用于提交请求，连接断开不会取消进行中的请求。
func New(ctx context.Context, session Session, log zerolog.Logger) *Handler {
	return &Handler{
		ctx:     ctx,
		session: session,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
	r.Get("/state", h.handleState)
}

type inboundFrame struct {
	Type string  `json:"type"`
	Text *string `json:"text,omitempty"`
}

type snapshotFrame struct {
	Type     string         `json:"type"`
	Messages []chat.Message `json:"messages"`
	Draft    string         `json:"draft"`
	Busy     bool           `json:"busy"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newSnapshotFrame(snap chat.Snapshot) snapshotFrame {
	return snapshotFrame{
		Type:     "snapshot",
		Messages: snap.Messages,
		Draft:    snap.Draft,
		Busy:     snap.Busy,
	}
}

// connection 串行化对 websocket 的写入
type connection struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *connection) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *connection) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, newSnapshotFrame(h.session.Snapshot()))
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn := &connection{conn: ws}
	defer ws.Close()

	log := h.log.With().Str("conn_id", uuid.NewString()).Logger()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// 先订阅再推送首帧，避免漏掉两者之间的变化
	changes, unsubscribe := h.session.Subscribe()
	defer unsubscribe()

	if err := conn.writeJSON(newSnapshotFrame(h.session.Snapshot())); err != nil {
		log.Warn().Err(err).Msg("failed to send initial snapshot")
		return
	}

	log.Debug().Str("remote", r.RemoteAddr).Msg("widget connected")

	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go h.pushLoop(ctx, conn, changes, log)

	for {
		var frame inboundFrame
		if err := ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read error")
			}
			log.Debug().Msg("widget disconnected")
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		h.handleFrame(conn, frame, log)
	}
}

func (h *Handler) handleFrame(conn *connection, frame inboundFrame, log zerolog.Logger) {
	switch strings.ToLower(frame.Type) {
	case "draft":
		text := ""
		if frame.Text != nil {
			text = *frame.Text
		}
		h.session.OnDraftChange(text)
	case "submit":
		// Submit 会阻塞到请求结束，结果通过快照推送
		if frame.Text != nil {
			text := *frame.Text
			go h.submit(log, func() bool { return h.session.Submit(h.ctx, text) })
		} else {
			go h.submit(log, func() bool { return h.session.SubmitDraft(h.ctx) })
		}
	default:
		if err := conn.writeJSON(errorFrame{Type: "error", Message: "unsupported frame type"}); err != nil {
			log.Warn().Err(err).Msg("failed to send error frame")
		}
	}
}

func (h *Handler) submit(log zerolog.Logger, fn func() bool) {
	if !fn() {
		log.Debug().Msg("submission ignored: blank text or request in flight")
	}
}

// pushLoop 在会话变化时推送快照，并定期发送 ping
func (h *Handler) pushLoop(ctx context.Context, conn *connection, changes <-chan struct{}, log zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := conn.writeJSON(newSnapshotFrame(h.session.Snapshot())); err != nil {
				log.Debug().Err(err).Msg("failed to push snapshot")
				return
			}
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}
