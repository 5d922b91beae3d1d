package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lcalzada-xor/netcity/internal/adapters/boltstore"
	pdfreport "github.com/lcalzada-xor/netcity/internal/adapters/reporting"
	"github.com/lcalzada-xor/netcity/internal/adapters/skeleton"
	"github.com/lcalzada-xor/netcity/internal/adapters/storage"
	"github.com/lcalzada-xor/netcity/internal/adapters/vulndb"
	webserver "github.com/lcalzada-xor/netcity/internal/adapters/web/server"
	"github.com/lcalzada-xor/netcity/internal/adapters/worlddef"
	"github.com/lcalzada-xor/netcity/internal/config"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/lcalzada-xor/netcity/internal/core/services/access"
	"github.com/lcalzada-xor/netcity/internal/core/services/audit"
	"github.com/lcalzada-xor/netcity/internal/core/services/auth"
	"github.com/lcalzada-xor/netcity/internal/core/services/catalog"
	"github.com/lcalzada-xor/netcity/internal/core/services/commands"
	"github.com/lcalzada-xor/netcity/internal/core/services/connection"
	"github.com/lcalzada-xor/netcity/internal/core/services/discovery"
	"github.com/lcalzada-xor/netcity/internal/core/services/player"
	"github.com/lcalzada-xor/netcity/internal/core/services/reporting"
	"github.com/lcalzada-xor/netcity/internal/core/services/scanner"
	"github.com/lcalzada-xor/netcity/internal/core/services/shell"
	"github.com/lcalzada-xor/netcity/internal/core/services/world"
	"github.com/lcalzada-xor/netcity/internal/telemetry"
	"github.com/robfig/cron/v3"
)

// Application holds all the components of the game.
type Application struct {
	Config *config.Config

	// Persistence
	ProgressRepo ports.ProgressRepository
	AuditService *audit.AuditService
	AuditStore   *storage.SQLiteAdapter
	VulnRepo     *vulndb.SQLiteRepository

	// Game
	World       *world.World
	Player      *player.State
	Connections *connection.Simulator
	Reports     *reporting.ReportGenerator
	Exporter    ports.ReportExporter
	Engine      *shell.Engine

	// Surfaces
	WebServer *webserver.Server
	scheduler *cron.Cron

	stdin  io.Reader
	stdout io.Writer

	closers  []io.Closer
	quit     chan struct{}
	quitOnce sync.Once

	// mu serializes every engine and world access across surfaces.
	mu sync.Mutex
}

// New creates and bootstraps a new Application instance.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		quit:   make(chan struct{}),
	}

	if err := app.bootstrap(context.Background()); err != nil {
		app.cleanup()
		return nil, err
	}

	return app, nil
}

func (app *Application) bootstrap(ctx context.Context) error {
	telemetry.InitMetrics()

	if err := app.initStorage(); err != nil {
		return fmt.Errorf("storage init failed: %w", err)
	}

	matcher, err := app.initCatalog(ctx)
	if err != nil {
		return fmt.Errorf("vulnerability catalog init failed: %w", err)
	}

	if err := app.initWorld(ctx, matcher); err != nil {
		return fmt.Errorf("world init failed: %w", err)
	}

	if err := app.initShell(); err != nil {
		return fmt.Errorf("shell init failed: %w", err)
	}

	if err := app.initScheduler(); err != nil {
		return err
	}

	if app.Config.WebAddr != "" {
		app.initServer()
	}
	return nil
}

func (app *Application) initStorage() error {
	for _, dir := range []string{app.Config.DataDir, filepath.Dir(app.Config.ProgressPath), filepath.Dir(app.Config.VulnDBPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	switch app.Config.ProgressBackend {
	case config.BackendBolt:
		store, err := boltstore.Open(app.Config.ProgressPath)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, store)
		app.ProgressRepo = store

		// Audit records stay relational
		db, err := storage.NewSQLiteAdapter(filepath.Join(app.Config.DataDir, "audit.db"))
		if err != nil {
			return err
		}
		app.closers = append(app.closers, db)
		app.AuditStore = db
	default:
		db, err := storage.NewSQLiteAdapter(app.Config.ProgressPath)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, db)
		app.ProgressRepo = db
		app.AuditStore = db
	}

	app.AuditService = audit.NewAuditService(app.AuditStore)
	slog.Info("Progress store ready", "backend", app.Config.ProgressBackend, "path", app.Config.ProgressPath)
	return nil
}

func (app *Application) initCatalog(ctx context.Context) (ports.VulnerabilityMatcher, error) {
	repo, err := vulndb.NewSQLiteRepository(app.Config.VulnDBPath)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, repo)
	app.VulnRepo = repo

	if _, err := vulndb.NewSeedLoader(repo).EnsureSeeded(ctx); err != nil {
		return nil, err
	}
	return vulndb.NewMatcher(repo), nil
}

func (app *Application) initWorld(ctx context.Context, matcher ports.VulnerabilityMatcher) error {
	now := time.Now
	gen := catalog.NewGenerator(matcher, now)
	authSvc := auth.NewAuthService()

	app.Player = player.NewState(app.ProgressRepo, now)
	app.Connections = connection.NewSimulator(app.Config.Seed, now)
	app.Connections.SetIdleTimeout(app.Config.ConnectionTimeout)

	app.World = world.New(world.Deps{
		Local:       world.NewLocalHost(now()),
		Access:      access.NewController(app.Player, now),
		Connections: app.Connections,
		Ledger:      discovery.NewLedger(),
		Player:      app.Player,
		Scanner:     scanner.NewScanner(now),
		Catalog:     gen,
		Auth:        authSvc,
		Now:         now,
	})

	def, err := worlddef.NewFileLoader(app.Config.WorldFile).Load(ctx)
	if err != nil {
		return err
	}

	var skeletons ports.SkeletonSource = skeleton.NewEmbeddedSource()
	if app.Config.TemplateDir != "" {
		skeletons = skeleton.NewLayeredSource(app.Config.TemplateDir)
	}
	if err := world.NewBuilder(gen, authSvc, skeletons, app.Config.Seed, now).Build(ctx, app.World, def, app.Config.Difficulty); err != nil {
		return err
	}

	// Progress refers to hosts, so it is restored once they exist
	if err := app.Player.Load(ctx); err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	app.World.RestoreProgress(ctx)

	app.Reports = reporting.NewReportGenerator(app.World, now)
	return nil
}

func (app *Application) initShell() error {
	registry := shell.NewRegistry()
	app.Exporter = pdfreport.NewPDFExporter()

	err := commands.Register(registry, commands.Deps{
		World:    app.World,
		Reports:  app.Reports,
		Exporter: app.Exporter,
		Store:    pdfreport.NewDiskStore(app.Config.ReportDir),
		Quit:     app.Quit,
	})
	if err != nil {
		return err
	}

	app.Engine = shell.NewEngine(registry, shell.NewAliasTable(), app.World)
	app.Engine.SetAuditService(app.AuditService)
	return nil
}

func (app *Application) initScheduler() error {
	app.scheduler = cron.New()
	if _, err := app.scheduler.AddFunc(app.Config.SweepSchedule, app.sweepIdleConnections); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", app.Config.SweepSchedule, err)
	}
	if app.Config.AuditRetention > 0 {
		if _, err := app.scheduler.AddFunc("@daily", app.pruneAuditLogs); err != nil {
			return err
		}
	}
	return nil
}

func (app *Application) initServer() {
	app.WebServer = webserver.NewServer(app.Config.WebAddr, webserver.Deps{
		Terminal:       app,
		Progress:       app.Player,
		Reports:        serializedReports{app: app},
		Exporter:       app.Exporter,
		Audit:          app.AuditService,
		AllowedOrigins: app.Config.AllowedOrigins,
	})
}

// sweepIdleConnections drops links nobody used within the idle timeout.
func (app *Application) sweepIdleConnections() {
	app.mu.Lock()
	defer app.mu.Unlock()

	for _, c := range app.World.ExpireIdleConnections() {
		slog.Info("Idle connection closed", "id", c.ID, "network", c.TargetNetwork)
	}
}

func (app *Application) pruneAuditLogs() {
	cutoff := time.Now().Add(-app.Config.AuditRetention)
	n, err := app.AuditStore.PruneAuditLogs(context.Background(), cutoff)
	if err != nil {
		slog.Error("Audit pruning failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("Audit records pruned", "count", n, "before", cutoff)
	}
}

// Quit asks Run to stop. It is safe to call more than once.
func (app *Application) Quit() {
	app.quitOnce.Do(func() { close(app.quit) })
}

func (app *Application) cleanup() error {
	slog.Info("Cleaning up resources...")

	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
