package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/core/container"
	"github.com/edy93762/gesto-de-epi-sub000/internal/core/routes"
)

const shutdownTimeout = 15 * time.Second

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		gin.SetMode(cfg.Server.Mode)

		ctx := cmd.Context()
		app, err := container.NewAppContainer(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("start application: %w", err)
		}

		server := &http.Server{
			Addr:              cfg.Server.Address(),
			Handler:           routes.NewRouter(app),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Info("Starting server", zap.String("address", server.Addr), zap.String("version", cfg.Server.Version))
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err = <-serveErr:
		case <-ctx.Done():
			log.Info("Shutting down server")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error("Server shutdown failed", zap.Error(shutdownErr))
		}
		if closeErr := app.Close(shutdownCtx); closeErr != nil {
			log.Error("Failed to release resources", zap.Error(closeErr))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}
