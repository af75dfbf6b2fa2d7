package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rflorenc/storefront-ica-generator/internal/api"
	"github.com/rflorenc/storefront-ica-generator/internal/models"
)

func (a *app) serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.Listen
			}
			server, err := a.apiServer(cmd.Context())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{Addr: listen, Handler: api.NewRouter(server)}
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdown)
			}()

			a.logger.Info("icagen API listening", zap.String("addr", listen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default $ICAGEN_LISTEN or :8080)")
	return cmd
}

// apiServer loads the configured portals and checks each one before the
// API starts serving.
func (a *app) apiServer(ctx context.Context) (*api.Server, error) {
	server := &api.Server{
		Portals: models.NewPortalStore(),
		Jobs:    models.NewJobStore(),
		Logger:  a.logger,
	}
	for _, pc := range a.cfg.Portals {
		p, err := pc.Portal()
		if err != nil {
			return nil, err
		}
		server.Portals.Create(p)
		a.logger.Info("loaded portal", zap.String("name", p.Name), zap.String("url", p.URL))
		server.CheckPortal(ctx, p)
	}
	return server, nil
}
