package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/lora-autoposter/internal/poster"
)

var (
	addrFlag     string
	scheduleFlag string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API, optionally posting on a schedule",
	Long: `Serve starts the HTTP API. With --schedule (or POST_SCHEDULE) it also runs
a full generate-and-publish cycle on a six-field cron expression (seconds first).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default LISTEN_ADDR or :8080)")
	serveCmd.Flags().StringVar(&scheduleFlag, "schedule", "", "Cron expression with seconds, e.g. \"0 0 9 * * *\"")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := addrFlag
	if addr == "" {
		addr = app.Config.ListenAddr
	}
	schedule := scheduleFlag
	if schedule == "" {
		schedule = app.Config.Schedule
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if schedule != "" {
		scheduler, err := startScheduler(ctx, schedule)
		if err != nil {
			return err
		}
		defer func() { <-scheduler.Stop().Done() }()
	}

	srv := &http.Server{
		Addr:        addr,
		Handler:     app.Server.Handler(),
		ReadTimeout: 30 * time.Second,
		// Previews may poll for up to the preview timeout.
		WriteTimeout: app.Config.PreviewTimeout + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().Str("addr", addr).Msg("Starting API server")
	fmt.Fprintf(os.Stderr, "\n  Poster API: http://localhost%s/api/ping\n\n", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// startScheduler runs a cycle on every tick of schedule. Ticks that arrive while
// a cycle is still running are skipped.
func startScheduler(ctx context.Context, schedule string) (*cron.Cron, error) {
	var mu sync.Mutex
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(schedule, func() {
		if !mu.TryLock() {
			log.Warn().Msg("Previous scheduled cycle still running, skipping tick")
			return
		}
		defer mu.Unlock()

		report, err := app.Service.RunCycle(ctx, poster.CycleInput{Trigger: "schedule"})
		if err != nil {
			log.Error().Err(err).Str("runId", report.RunID).Msg("Scheduled cycle failed")
			return
		}
		log.Info().Str("runId", report.RunID).Bool("success", report.Success).Msg("Scheduled cycle finished")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	c.Start()
	log.Info().Str("schedule", schedule).Msg("Scheduler started")
	return c, nil
}
