package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/squeeze/internal/api"
	"github.com/wonny/squeeze/internal/api/handlers"
	"github.com/wonny/squeeze/internal/scheduler"
	"github.com/wonny/squeeze/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the scan daemon on a cron schedule",
	Long: `Starts the in-process daemon:

- Schedules the daily scan on SCHEDULE_CRON (default: weekdays 18:00)
- Serves a read-only status API on STATUS_PORT

Endpoints:
  GET /health           - Health check
  GET /api/v1/status    - Job statistics
  GET /api/v1/last-run  - Most recent scan result
  GET /api/v1/history   - Recent scan executions

The daemon runs until interrupted (Ctrl+C / SIGTERM).

Example:
  go run ./cmd/squeeze schedule
  go run ./cmd/squeeze schedule --run-now`,
	RunE: runSchedule,
}

var runNow bool

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().BoolVar(&runNow, "run-now", false, "trigger one scan immediately at startup")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Short Squeeze Screener Daemon ===")

	cfg, log, runner, err := initRunner()
	if err != nil {
		return err
	}

	// 1. Register the scan job
	scanJob := jobs.NewScanJob(runner, cfg.Schedule.Cron, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(scanJob); err != nil {
		return fmt.Errorf("register scan job: %w", err)
	}

	sched.Start()

	// 2. Start the read-only status server
	statusHandler := handlers.NewStatusHandler(sched, scanJob, log)
	router := api.NewRouter(statusHandler, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start status server")
		}
	}()

	fmt.Println("\n✅ Daemon started")
	fmt.Printf("   Schedule : %s\n", cfg.Schedule.Cron)
	fmt.Printf("   Status   : http://localhost:%s\n", cfg.Schedule.StatusPort)
	fmt.Println("\nPress Ctrl+C to stop")

	if runNow {
		if err := sched.RunJob(scanJob.Name()); err != nil {
			log.WithError(err).Warn("Immediate scan trigger failed")
		}
	}

	// 3. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Status server shutdown failed")
	}
	sched.Stop()

	fmt.Println("Daemon stopped")
	return nil
}
