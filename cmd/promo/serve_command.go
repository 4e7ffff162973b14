package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/youruser/promoapp/internal/api"
	imagepkg "github.com/youruser/promoapp/internal/image"
	"github.com/youruser/promoapp/internal/logging"
	"github.com/youruser/promoapp/internal/pipeline"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compose API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			defer logging.Sync(logger)

			addr := cfg.Server.Bind
			if v := strings.TrimSpace(bind); v != "" {
				addr = v
			}

			opts, err := pipeline.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			gin.SetMode(cfg.Server.Mode)
			fetcher := imagepkg.NewFetcher(cfg.FetchTimeout())
			fetcher.MaxPixels = cfg.Server.MaxUploadPixels
			handler := api.NewHandler(opts.Composer, fetcher, logger, api.WithMaxPixels(cfg.Server.MaxUploadPixels))
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewEngine(handler, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), srv, logger)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}

func serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("version", Version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
