package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/scheduler"
	"github.com/amishk599/jobpulse/internal/telemetry"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the pipeline daemon",
	Long:  "Start the scheduler daemon; runs the pipeline every schedule_interval and blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFormat)
	cfg := mustLoad(logger)

	logger.Info("config loaded",
		"version", buildVersion(),
		"interval", cfg.ScheduleInterval.String(),
		"sources", len(cfg.EnabledSources()),
		"warehouse", cfg.Warehouse.Driver,
		"checkpoints", cfg.Checkpoints.Backend,
		"reporting", cfg.Reporting.Type,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, buildVersion(), cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pm := metrics.New(reg)
	if cfg.Telemetry.MetricsAddr != "" {
		srv := metrics.Serve(cfg.Telemetry.MetricsAddr, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("serving metrics", "addr", cfg.Telemetry.MetricsAddr)
	}

	p, cleanup, err := buildPipeline(ctx, cfg, runOptions{Metrics: pm}, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer cleanup.run()

	sched := scheduler.NewScheduler(p, cfg.ScheduleInterval, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
