package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/panda279/leave-note/internal/config"
	"github.com/panda279/leave-note/internal/core"
	"github.com/panda279/leave-note/internal/document"
	"github.com/panda279/leave-note/internal/logging"
	"github.com/panda279/leave-note/internal/web"
)

func main() {
	// Overload lets a local .env win over the shell environment.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration", "config", cfg.String())

	profile, warnings, err := config.LoadProfile(cfg.Roster)
	if err != nil {
		slog.Error("failed to load roster profile", "error", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		slog.Warn("roster profile", "warning", w)
	}

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"category_field", profile.CategoryField,
		"colleges", profile.Order.Len(),
		"aliases", profile.Aliases.Len(),
	)

	limiter := core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	service := core.NewService(profile, limiter, core.Options{
		ProbeDepth:           cfg.Upload.ProbeDepth,
		MaxRows:              cfg.Upload.MaxRows,
		PreviewRows:          cfg.Upload.PreviewRows,
		Timeout:              cfg.Upload.Timeout,
		Organization:         cfg.Document.Organization,
		DefaultSignatureDate: cfg.Document.SignatureDate,
		Style: document.Style{
			BodyFont:  cfg.Document.BodyFont,
			TitleFont: cfg.Document.TitleFont,
		},
	})

	server := web.NewServer(service, cfg)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active, "waiting", status.Waiting)
			if err := limiter.WaitForDrain(ctx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
