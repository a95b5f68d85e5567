package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/anythingboes/boes-chat/internal/config"
	"github.com/anythingboes/boes-chat/internal/handler/message"
	"github.com/anythingboes/boes-chat/internal/handler/widget"
	middlewarePkg "github.com/anythingboes/boes-chat/internal/middleware"
)

// NewRouter wires the reply service routes. The message endpoint is mounted at
// the root for production widgets and under /api for the development proxy path.
func NewRouter(replier message.Replier, serverCfg config.ServerConfig, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(serverCfg.AllowedOrigins))

	messageHandler := message.New(replier, serverCfg.MaxMessageLength, log)
	messageHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		messageHandler.RegisterRoutes(api)
	})

	return r
}

// NewWidgetRouter exposes a single local session to browser widgets.
func NewWidgetRouter(ctx context.Context, session widget.Session, allowedOrigins []string, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middlewarePkg.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	widget.New(ctx, session, log).RegisterRoutes(r)

	return r
}
