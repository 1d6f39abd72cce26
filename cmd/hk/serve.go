package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/api/option"

	"github.com/alfredjeanlab/hackops/internal/config"
	"github.com/alfredjeanlab/hackops/internal/events"
	"github.com/alfredjeanlab/hackops/internal/export"
	"github.com/alfredjeanlab/hackops/internal/model"
	"github.com/alfredjeanlab/hackops/internal/notify"
	"github.com/alfredjeanlab/hackops/internal/server"
	"github.com/alfredjeanlab/hackops/internal/session"
	"github.com/alfredjeanlab/hackops/internal/store"
	"github.com/alfredjeanlab/hackops/internal/store/postgres"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the hackops HTTP and gRPC servers",
	GroupID: "system",
	// No client is needed to run the server.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	PersistentPostRun: func(cmd *cobra.Command, args []string) {},
	RunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		logger := cfg.NewLogger(os.Stderr)
		slog.SetDefault(logger)

		pg, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				pg.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (HK_NATS_URL not set)")
		}

		var sender notify.Sender = notify.LogSender{Logger: logger}
		if cfg.SendGridKey != "" {
			sender = notify.NewSendGridSender(cfg.SendGridKey, cfg.AppName, cfg.MailFrom)
			logger.Info("transfer notifications via sendgrid", "from", cfg.MailFrom)
		} else {
			logger.Info("transfer notifications logged only (HK_SENDGRID_KEY not set)")
		}
		dispatcher := notify.NewDispatcher(sender, cfg.AppName, logger)

		hk := server.NewHackopsServer(pg, publisher, dispatcher)
		hk.Sessions.StartReaper(&session.ReaperConfig{
			IdleThreshold: cfg.SessionIdle,
			OnDiscard: func(key session.Key, discarded []model.PendingTransfer) {
				logger.Warn("reaped idle transfer session",
					"operator", key.Operator,
					"hackathon", key.HackathonID,
					"discarded", len(discarded))
			},
		})

		grpcServer, healthServer := server.NewGRPCServer(cfg.AuthToken)
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			hk.Sessions.Stop()
			publisher.Close()
			pg.Close()
			return err
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           hk.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := startExportScheduler(cfg, pg, logger)

		logger.Info("hackops server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		healthServer.Shutdown()
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("export scheduler stopped")
		}

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		hk.Sessions.Stop()
		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := pg.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// startExportScheduler starts periodic roster export when an interval and
// at least one destination are configured. It returns nil otherwise.
func startExportScheduler(cfg *config.Config, s store.Store, logger *slog.Logger) *export.Scheduler {
	if !cfg.ExportEnabled() {
		return nil
	}
	ctx := context.Background()
	var dests []export.Destination

	if cfg.ExportS3Bucket != "" {
		d, err := export.NewS3Destination(ctx, cfg.ExportS3Bucket, cfg.ExportS3Key, cfg.ExportS3Region, cfg.ExportS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 export destination", "err", err)
		} else {
			dests = append(dests, d)
			logger.Info("export S3 destination enabled", "bucket", cfg.ExportS3Bucket, "key", cfg.ExportS3Key)
		}
	}

	if cfg.ExportSheetsID != "" {
		var opts []option.ClientOption
		if cfg.ExportSheetsCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.ExportSheetsCredentials))
		}
		d, err := export.NewSheetsDestination(ctx, cfg.ExportSheetsID, opts...)
		if err != nil {
			logger.Error("failed to create Sheets export destination", "err", err)
		} else {
			dests = append(dests, d)
			logger.Info("export Sheets destination enabled", "spreadsheet", cfg.ExportSheetsID)
		}
	}

	if len(dests) == 0 {
		return nil
	}
	sched := export.NewScheduler(s, dests, cfg.ExportInterval, logger)
	sched.Start()
	logger.Info("export scheduler started", "interval", cfg.ExportInterval)
	return sched
}

func init() {
	serveCmd.Flags().String("env-file", ".env", "dotenv file loaded before reading HK_* variables")
}
