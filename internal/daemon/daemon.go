package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/readly-app/readly/internal/api"
	"github.com/readly-app/readly/internal/app/gamify"
	"github.com/readly-app/readly/internal/app/points"
	"github.com/readly-app/readly/internal/app/reminder"
	_ "github.com/readly-app/readly/internal/infra/metrics" // Register Prometheus metrics
	"github.com/readly-app/readly/internal/infra/sqlite"
)

// Daemon is the core Readly runtime. It wires together all services.
type Daemon struct {
	Config Config
	DB     *sqlite.DB
	Server *api.Server
	cancel context.CancelFunc

	Points     *points.Service
	Badges     *gamify.BadgeEngine
	Aggregator *gamify.Aggregator
	Challenge  *gamify.ChallengeEngine
	Reminders  *reminder.Scheduler
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	db, err := sqlite.Open(readlyHome())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Engagement services
	pts := points.NewService(db)
	badges := gamify.NewBadgeEngine(db, pts)
	agg := gamify.NewAggregator(db, pts, badges)
	challenge := gamify.NewChallengeEngine(db, pts,
		cfg.Gamify.DailyTargetMinutes, cfg.Gamify.ChallengeReward)

	// Reminder loop
	remCfg := reminder.DefaultConfig()
	remCfg.InactiveHour = cfg.Reminders.InactiveHour
	remCfg.ParentAlertHour = cfg.Reminders.ParentAlertHour
	remCfg.CleanupHour = cfg.Reminders.CleanupHour
	remCfg.InactiveAfterDays = cfg.Reminders.InactiveAfterDays
	remCfg.RetentionDays = cfg.Reminders.RetentionDays
	sched := reminder.New(db, remCfg)

	srv := api.NewServer(db, agg, badges, challenge, pts)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:     cfg,
		DB:         db,
		Server:     srv,
		Points:     pts,
		Badges:     badges,
		Aggregator: agg,
		Challenge:  challenge,
		Reminders:  sched,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.Config.Reminders.Enabled {
		if err := d.Reminders.Start(ctx); err != nil {
			return fmt.Errorf("start reminders: %w", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		d.Reminders.Stop()
		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("Readly serving on http://%s\n", addr)
	if d.Config.Reminders.Enabled {
		fmt.Printf("  Reminders: enabled (child %02d:00, parent %02d:00)\n",
			d.Config.Reminders.InactiveHour, d.Config.Reminders.ParentAlertHour)
	}
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Reminders != nil {
		d.Reminders.Stop()
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			log.Printf("[daemon] close db: %v", err)
		}
	}
}
