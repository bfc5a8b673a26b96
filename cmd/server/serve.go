package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/rice-leaf-api/internal/handlers"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and JSON API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, classifier, err := loadApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := classifier.Close(); err != nil {
			logger.Error("failed to close classifier", "error", err)
		}
	}()

	handler, err := handlers.NewHandler(app.Diagnosis, handlers.Options{
		AssetsDir:      cfg.Assets.Dir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
		Logger:         logger.With("component", "http"),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		logger.Info("endpoints",
			"GET /", "upload and camera page",
			"GET /diseases", "disease information",
			"POST /api/predict", "predict from image upload",
			"POST /api/predict/tensor", "predict from preprocessed tensor",
			"GET /health", "health check")
		errCh <- srv.ListenAndServe()
	}()

	ctx := cmd.Context()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
