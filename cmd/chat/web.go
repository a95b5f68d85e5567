package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/anythingboes/boes-chat/internal/handler"
	"github.com/anythingboes/boes-chat/internal/logging"
)

func newWebCmd(flags *rootFlags) *cobra.Command {
	var (
		addr    string
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the chat session to browser widgets over a websocket",
		Long: "Starts an HTTP server exposing one shared chat session. Widgets connect to /ws " +
			"for live snapshots and GET /state for the current session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.newService(cmd)
			if err != nil {
				return err
			}

			log := logging.Component("widget")
			router := handler.NewWidgetRouter(cmd.Context(), svc, origins, log)
			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
			}

			log.Info().Str("addr", addr).Msg("widget bridge listening")
			fmt.Fprintf(cmd.OutOrStdout(), "Widget bridge listening on http://%s\n", addr)
			return serve(cmd.Context(), srv)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8090", "listen address")
	cmd.Flags().StringSliceVar(&origins, "allowed-origins", []string{"*"}, "origins allowed to call the bridge")
	return cmd
}

// serve runs srv until ctx is canceled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
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
