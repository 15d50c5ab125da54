package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	httpserver "github.com/yungbote/taskmaster-backend/internal/http"
	"github.com/yungbote/taskmaster-backend/internal/observability"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/platform/envutil"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/realtime"
	"github.com/yungbote/taskmaster-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *gorm.DB
	Blobs    blobstore.Store
	Bus      bus.Bus
	Hub      *realtime.Hub
	Metrics  *observability.Metrics
	Repos    Repos
	Services Services
	Server   *httpserver.Server

	closers      []namedCloser
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

type namedCloser struct {
	name   string
	closer io.Closer
}

// New wires the API process: storage, event bus, realtime hub and the HTTP
// server.
func New(ctx context.Context) (*App, error) {
	return build(ctx, true)
}

// NewMaintenance wires storage and services only. Maintenance commands use it
// and publish no events.
func NewMaintenance(ctx context.Context) (*App, error) {
	return build(ctx, false)
}

func build(ctx context.Context, serveHTTP bool) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &App{Log: log, Cfg: cfg}
	if cfg.MetricsEnabled {
		a.Metrics = observability.NewMetrics()
	}
	if serveHTTP {
		a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)
	}

	theDB, dbCloser, err := openDatabase(log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.DB = theDB
	a.closers = append(a.closers, namedCloser{"database", dbCloser})

	blobs, blobCloser, err := resolveBlobStore(ctx, log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if blobCloser != nil {
		a.closers = append(a.closers, namedCloser{"object storage", blobCloser})
	}
	a.Blobs = instrumentBlobStore(blobs, a.Metrics)

	if serveHTTP {
		eventBus, err := wireEventBus(ctx, log, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Bus = instrumentBus(eventBus, a.Metrics)
		a.closers = append(a.closers, namedCloser{"event bus", eventBus})
		a.Hub = realtime.NewHub(log)
	}

	a.Repos = wireRepos(theDB, log)
	a.Services = wireServices(theDB, log, cfg, a.Repos, a.Blobs, a.Bus)

	if serveHTTP {
		handlers := wireHandlers(theDB, log, cfg, a.Services, a.Hub)
		middleware := wireMiddleware(log, a.Services)
		a.Server = wireServer(log, cfg, a.Metrics, handlers, middleware)
	}
	return a, nil
}

// Start launches the background loops: event forwarding into the hub and the
// metric collectors. They stop when Close is called.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Bus != nil && a.Hub != nil {
		if err := a.Bus.StartForwarder(ctx, a.Hub.Dispatch); err != nil {
			return fmt.Errorf("start event forwarder: %w", err)
		}
	}
	if a.Metrics != nil {
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB, a.Cfg.MetricsCollectInterval)
		if a.Cfg.Redis.Addr != "" {
			a.Metrics.StartRedisCollector(ctx, a.Log, &redis.Options{
				Addr:     a.Cfg.Redis.Addr,
				Password: a.Cfg.Redis.Password,
				DB:       a.Cfg.Redis.DB,
			}, a.Cfg.MetricsCollectInterval)
		}
	}
	return nil
}

// Run serves HTTP until Shutdown is called or the listener fails.
func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(a.Cfg.Address())
}

// Shutdown drains in-flight requests, then releases everything Close does.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
		a.otelShutdown = nil
	}
	a.Close()
	return errors.Join(errs...)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.closer.Close(); err != nil && a.Log != nil {
			a.Log.Warn("Failed to close resource", "resource", c.name, "error", err)
		}
	}
	a.closers = nil
	if a.Log != nil {
		a.Log.Sync()
	}
}

// Exit logs err and terminates the process.
func Exit(log *logger.Logger, msg string, err error) {
	if log != nil {
		log.Error(msg, "error", err)
		log.Sync()
	} else {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	}
	os.Exit(1)
}
