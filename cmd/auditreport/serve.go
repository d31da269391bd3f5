package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"auditreport/internal/cache"
	"auditreport/internal/cli"
	"auditreport/internal/convert"
	"auditreport/internal/files"
	apphttp "auditreport/internal/http"
	applog "auditreport/internal/log"
	"auditreport/internal/report"
	"auditreport/internal/services"
)

func newServeCmd() *cobra.Command {
	var (
		previewCacheSize int
		previewCacheTTL  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), previewCacheSize, previewCacheTTL)
		},
	}
	cmd.Flags().IntVar(&previewCacheSize, "preview-cache-size", 32, "number of preview PDFs kept for identical payloads")
	cmd.Flags().DurationVar(&previewCacheTTL, "preview-cache-ttl", 10*time.Minute, "how long a cached preview PDF is reused")
	return cmd
}

func runServe(parent context.Context, previewCacheSize int, previewCacheTTL time.Duration) error {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg)
	logger.Info("Starting auditreport server", applog.FieldOperation, applog.OpStartup)

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	store, err := files.NewDiskStore(cfg.UploadDir, cfg.MaxUploadBytes())
	if err != nil {
		return err
	}

	generator := report.NewGenerator(cfg.TemplatePath, cfg.TmpDir, nil)
	if !generator.TemplateAvailable() {
		logger.Warn("Report template not found, generation will fail until it is provided",
			"template_path", cfg.TemplatePath,
			"error_type", applog.ErrorTypeConfiguration)
	}
	converter := convert.NewSofficeConverter(cfg.SofficePath, cfg.TmpDir, cfg.ConvertTimeout, cfg.ConvertConcurrency)

	previews := services.NewPreviewCache(previewCacheSize, previewCacheTTL, services.DefaultPreviewGrace)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(previews)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	reportOpts := []services.ReportOption{
		services.WithPreviewCache(previews),
		services.WithTimeout(cfg.RequestTimeout),
	}
	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		// Reports are still served without events.
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
	} else if amqpClient != nil {
		defer amqpClient.Close()
		reportOpts = append(reportOpts, services.WithPublisher(amqpClient))
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Projects:           services.NewProjectService(repo, store),
		Reports:            services.NewReportService(generator, converter, reportOpts...),
		DB:                 repo,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MaxUploadBytes:     cfg.MaxUploadBytes(),
		Stats: func() map[string]int64 {
			st := previews.Stats()
			return map[string]int64{
				"preview_cache_entries":      int64(st.Size),
				"preview_cache_hits_total":   st.Hits,
				"preview_cache_misses_total": st.Misses,
			}
		},
	})
	srv.ReadTimeout = 2 * time.Minute
	srv.WriteTimeout = cfg.RequestTimeout + 30*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := cli.SignalContext(parent, logger)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", applog.FieldError, err.Error(), applog.FieldOperation, applog.OpShutdown)
		return err
	}
	logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
	return nil
}
