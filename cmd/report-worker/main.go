// Command report-worker archives generated reports to Google Drive as they
// are announced on the report queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"auditreport/internal/archive/gdrive"
	"auditreport/internal/cli"
	applog "auditreport/internal/log"
	"auditreport/internal/worker"
)

func newRootCmd() *cobra.Command {
	var includePreviews bool
	cmd := &cobra.Command{
		Use:          "report-worker",
		Short:        "Archive generated reports to Google Drive",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), includePreviews)
		},
	}
	cmd.Flags().BoolVar(&includePreviews, "include-previews", false, "also archive preview documents and PDFs")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func run(parent context.Context, includePreviews bool) error {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg).WithComponent(applog.ComponentWorker)
	logger.Info("Starting report-worker", applog.FieldOperation, applog.OpStartup)

	if !cfg.AMQPEnabled() {
		return errors.New("report-worker needs AMQP_URL")
	}
	if !cfg.ArchiveEnabled() {
		return errors.New("report-worker needs GOOGLE_DRIVE_FOLDER_ID")
	}

	ctx, cancel := cli.SignalContext(parent, logger)
	defer cancel()

	creds, err := gdrive.LoadCredentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		return err
	}
	uploader, err := gdrive.New(ctx, cfg.GoogleDriveFolderID, creds, logger)
	if err != nil {
		return fmt.Errorf("init drive uploader: %w", err)
	}
	logger.Info("Google Drive archive initialized", "folder_id", cfg.GoogleDriveFolderID)

	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		return err
	}
	defer amqpClient.Close()

	archiveWorker := worker.NewArchiveWorker(uploader, logger, includePreviews)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeReportGenerated(gctx, archiveWorker.HandleReportGenerated)
	})
	g.Go(func() error {
		// Periodic broker health log while consuming.
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := amqpClient.Ping(); err != nil {
					logger.Warn("AMQP health check failed", applog.FieldError, err.Error())
				}
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err.Error())
		return err
	}
	logger.Info("Worker shutdown complete", applog.FieldOperation, applog.OpShutdown)
	return nil
}
