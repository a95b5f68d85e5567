package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/anythingboes/boes-chat/internal/config"
	"github.com/anythingboes/boes-chat/internal/handler"
	"github.com/anythingboes/boes-chat/internal/handler/message"
	"github.com/anythingboes/boes-chat/internal/logging"
	"github.com/anythingboes/boes-chat/internal/service/ai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logging.Setup("info", "", nil); err != nil {
		panic(err)
	}

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("failed to load .env file, continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := logging.Setup(cfg.LogLevel, os.Getenv("LOG_FILE"), nil); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}
	defer func() { _ = logging.Close() }()

	var replier message.Replier
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI, logging.Component("ai"))
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize AI service, /message will answer 503")
		} else {
			replier = aiService
			log.Info().Str("model", cfg.AI.Model).Msg("AI service initialized successfully")
		}
	} else {
		log.Warn().Msg("Ark credentials not configured, skipping AI initialization; /message will answer 503")
	}

	router := handler.NewRouter(replier, cfg.Server, logging.Component("http"))

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Strs("allowed_origins", serverCfg.AllowedOrigins).Msg("reply service listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
