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

	"github.com/greenhouse-games/accolade/internal/api"
	"github.com/greenhouse-games/accolade/internal/app/celebration"
	"github.com/greenhouse-games/accolade/internal/app/events"
	"github.com/greenhouse-games/accolade/internal/app/progress"
	"github.com/greenhouse-games/accolade/internal/domain"
	"github.com/greenhouse-games/accolade/internal/health"
	"github.com/greenhouse-games/accolade/internal/infra/catalog"
	_ "github.com/greenhouse-games/accolade/internal/infra/metrics" // register Prometheus metrics
	"github.com/greenhouse-games/accolade/internal/infra/sqlite"
)

// Daemon is the accolade runtime. It wires the progress engine, the
// celebration scheduler, the health monitor, and the HTTP API.
type Daemon struct {
	Config    Config
	DB        *sqlite.DB // nil when persistence is off
	Bus       *events.Bus
	Engine    *progress.Engine
	Scheduler *celebration.Scheduler
	Monitor   *health.Monitor
	Source    *events.ChannelSource
	Server    *api.Server

	cancel context.CancelFunc
}

// New creates and initializes a Daemon from the on-disk configuration.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration. This is
// the only place an error aborts startup: a bad catalog or unreachable
// store means the core cannot initialize. Everything after construction
// degrades instead of failing.
func NewWithConfig(cfg Config) (*Daemon, error) {
	// Catalog: file if configured, embedded defaults otherwise.
	var (
		defs  []domain.AccomplishmentDef
		rules []domain.MetaRule
		err   error
	)
	if cfg.Catalog.Path != "" {
		defs, rules, err = catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	} else {
		defs, rules = catalog.Default()
	}

	// Durable history store.
	var db *sqlite.DB
	if cfg.Storage.Dir != "off" {
		dir := cfg.Storage.Dir
		if dir == "" {
			dir = accoladeHome()
		}
		db, err = sqlite.Open(dir)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
	}

	bus := events.NewBus()

	engCfg := progress.Config{
		StreakWindow:    parseDuration(cfg.Engine.StreakWindow, 24*time.Hour),
		StreakThreshold: cfg.Engine.StreakThreshold,
	}
	if engCfg.StreakThreshold <= 0 {
		engCfg.StreakThreshold = 3
	}
	eng := progress.NewEngine(engCfg, defs, rules, bus)

	sched := celebration.NewScheduler(celebration.Config{
		Capacity:         cfg.Celebrations.Capacity,
		MaxConcurrent:    cfg.Celebrations.MaxConcurrent,
		WakeInterval:     parseDuration(cfg.Celebrations.WakeInterval, 500*time.Millisecond),
		HistorySize:      cfg.Celebrations.HistorySize,
		PriorityEviction: cfg.Celebrations.PriorityEviction,
		Enabled:          cfg.Celebrations.Enabled,
		DurationScale:    cfg.Celebrations.DurationScale,
	}, bus)
	eng.SetCelebrator(sched)

	// Reference collaborators. The history store doubles as the tracking
	// service; a daemon running without persistence reports it degraded.
	rewards := pointsRewardService{}
	display := logDisplayService{}
	eng.SetRewardService(rewards)
	eng.SetDisplayService(display)

	var tracking domain.Collaborator
	if db != nil {
		tracking = db
	}
	monitor := health.NewMonitor(
		tracking, rewards, display,
		parseDuration(cfg.Health.CheckInterval, health.DefaultInterval),
		bus,
	)

	buffer := cfg.Engine.SourceBuffer
	if buffer <= 0 {
		buffer = 256
	}
	source := events.NewChannelSource(buffer)

	srv := api.NewServer(eng, sched, monitor, source)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	if db != nil {
		srv.SetHistory(db)
	}

	d := &Daemon{
		Config:    cfg,
		DB:        db,
		Bus:       bus,
		Engine:    eng,
		Scheduler: sched,
		Monitor:   monitor,
		Source:    source,
		Server:    srv,
	}
	d.subscribeHistory()
	return d, nil
}

// subscribeHistory mirrors engine notifications into the durable store.
// Store failures are logged, never propagated; the in-memory engine is
// authoritative.
func (d *Daemon) subscribeHistory() {
	if d.DB == nil {
		return
	}
	db := d.DB
	d.Bus.OnUnlockCompleted(func(e events.UnlockCompleted) {
		if err := db.RecordUnlock(e.Event); err != nil {
			log.Printf("[daemon] record unlock: %v", err)
		}
	})
	d.Bus.OnCelebrationCompleted(func(e events.CelebrationCompleted) {
		if err := db.RecordCelebration(e.Item, e.Faulted); err != nil {
			log.Printf("[daemon] record celebration: %v", err)
		}
	})
}

// Serve starts the background loops and the HTTP server, blocking until
// shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// One-time collaborator discovery, then the periodic probe loop.
	d.Monitor.Discover(ctx)
	go d.Monitor.Run(ctx)

	go d.Scheduler.Run(ctx)
	go d.Engine.Consume(ctx, d.Source)

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
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		if d.DB != nil {
			_ = d.DB.Close()
		}
	}()

	fmt.Printf("accolade serving on http://%s\n", addr)
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
	d.Source.Close()
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
