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

	"github.com/qamqor-studio/qamqor/internal/api"
	"github.com/qamqor-studio/qamqor/internal/app/dialog"
	"github.com/qamqor-studio/qamqor/internal/app/lifecycle"
	"github.com/qamqor-studio/qamqor/internal/app/session"
	"github.com/qamqor-studio/qamqor/internal/domain"
	_ "github.com/qamqor-studio/qamqor/internal/infra/metrics" // Register Prometheus metrics
	"github.com/qamqor-studio/qamqor/internal/infra/sqlite"
)

// Daemon is the core Qamqor runtime. It wires together all services.
type Daemon struct {
	Config   Config
	DB       *sqlite.DB
	Engine   *lifecycle.Service
	Sessions *session.Store
	Driver   *dialog.Driver
	Server   *api.Server
	cancel   context.CancelFunc
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
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
	}

	dataDir := cfg.Storage.Dir
	if dataDir == "" {
		dataDir = DefaultConfig().Storage.Dir
	}
	db, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	roles := domain.NewRoles(cfg.Identity.Developers, cfg.Identity.Workers)
	engine := lifecycle.NewService(db)
	sessions := session.NewStore()
	driver := dialog.New(engine, roles, sessions)

	srv := api.NewServer(driver, engine)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	log.Printf("[daemon] wired: %d developers, %d workers, data dir %s",
		len(cfg.Identity.Developers), len(cfg.Identity.Workers), dataDir)

	return &Daemon{
		Config:   cfg,
		DB:       db,
		Engine:   engine,
		Sessions: sessions,
		Driver:   driver,
		Server:   srv,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

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

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("Qamqor serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop triggers a graceful shutdown.
func (d *Daemon) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
}

// Close releases daemon resources without serving.
func (d *Daemon) Close() error {
	return d.DB.Close()
}
