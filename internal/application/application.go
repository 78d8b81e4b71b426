package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/aetb-config/internal/api"
	"github.com/eugenenazirov/aetb-config/internal/config"
	"github.com/eugenenazirov/aetb-config/internal/metrics"
	"github.com/eugenenazirov/aetb-config/internal/remote"
	"github.com/eugenenazirov/aetb-config/internal/settings"
	"github.com/eugenenazirov/aetb-config/internal/storage"
)

// Option overrides a dependency of the application, primarily for tests.
type Option func(*options)

type options struct {
	store     storage.Store
	connector settings.Connector
	metrics   *metrics.Metrics
}

// WithStore replaces the file-backed store.
func WithStore(store storage.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithConnector replaces the credentials-driven remote connector.
func WithConnector(connector settings.Connector) Option {
	return func(o *options) {
		o.connector = connector
	}
}

// WithMetrics supplies the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func resolveOptions(logger *zap.Logger, opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = storage.NewFileStore()
	}
	if o.connector == nil {
		o.connector = remote.NewConnector(o.store, logger)
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}
	return o
}

// NewManager builds a settings manager for cfg, loads the local document and,
// when credentials are configured, connects the remote store and applies it once.
// Remote failures are logged and never fatal.
func NewManager(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) *settings.Manager {
	o := resolveOptions(logger, opts)
	return newManager(ctx, cfg, logger, o)
}

func newManager(ctx context.Context, cfg config.Config, logger *zap.Logger, o options) *settings.Manager {
	manager := settings.NewManager(cfg.SettingsPath,
		settings.WithStore(o.store),
		settings.WithConnector(o.connector),
		settings.WithLogger(logger),
		settings.WithRecorder(o.metrics),
	)

	state := manager.Load()
	logger.Info("configuration loaded",
		zap.String("path", manager.Path()),
		zap.Stringer("source", state),
	)

	if cfg.CredentialsPath == "" {
		return manager
	}
	if !manager.ConnectRemote(ctx, cfg.CredentialsPath) {
		logger.Warn("continuing with local configuration only")
		return manager
	}
	if err := manager.Refresh(ctx); err != nil {
		logger.Warn("initial remote refresh failed", zap.Error(err))
	}
	return manager
}

// App encapsulates the application dependencies and HTTP server.
type App struct {
	manager         *settings.Manager
	metrics         *metrics.Metrics
	handler         *api.Handler
	router          http.Handler
	logger          *zap.Logger
	server          *http.Server
	refreshInterval time.Duration

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc
	workers  sync.WaitGroup
}

// New initializes the application with all dependencies from the provided configuration.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	o := resolveOptions(logger, opts)
	manager := newManager(ctx, cfg, logger, o)

	handler := api.NewHandler(manager, api.WithHandlerLogger(logger))
	routerOpts := []api.RouterOption{
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithMetrics(o.metrics),
	}
	if cfg.AdminTokenSecret != "" {
		routerOpts = append(routerOpts, api.WithAdminTokens(api.NewAdminTokens(cfg.AdminTokenSecret)))
	} else {
		logger.Warn("admin token secret not set, refresh endpoint is unauthenticated")
	}
	router := api.NewRouter(handler, logger, routerOpts...)

	return &App{
		manager:         manager,
		metrics:         o.metrics,
		handler:         handler,
		router:          router,
		logger:          logger,
		server:          NewServer(cfg, router),
		refreshInterval: cfg.RefreshInterval,
	}, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start binds the listener, serves HTTP in a goroutine and, when a refresh
// interval is configured, starts the remote refresh worker.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.listener != nil {
		return errors.New("application already started")
	}

	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}
	a.listener = ln

	go func() {
		a.logger.Info("server listening", zap.String("addr", ln.Addr().String()))
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("server error", zap.Error(err))
		}
	}()

	if a.refreshInterval > 0 && a.manager.RemoteConnected() {
		workerCtx, cancel := context.WithCancel(ctx)
		a.cancel = cancel
		a.workers.Add(1)
		go func() {
			defer a.workers.Done()
			a.runRefresher(workerCtx, a.refreshInterval)
		}()
	}
	return nil
}

// runRefresher applies the remote document on every tick until ctx is done.
func (a *App) runRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("remote refresh worker started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("remote refresh worker stopped")
			return
		case <-ticker.C:
			err := a.manager.Refresh(ctx)
			switch {
			case err == nil:
			case errors.Is(err, settings.ErrRemoteUnavailable):
				a.logger.Debug("remote store unavailable, skipping refresh")
			default:
				a.logger.Warn("remote refresh failed", zap.Error(err))
			}
		}
	}
}

// Addr returns the bound listener address, or the configured one before Start.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.server.Addr
}

// Shutdown stops the refresh worker, drains the HTTP server and releases the remote store.
func (a *App) Shutdown(ctx context.Context) error {
	a.stopWorkers()

	err := a.server.Shutdown(ctx)
	if closeErr := a.manager.Close(); closeErr != nil {
		a.logger.Warn("closing remote store failed", zap.Error(closeErr))
	}
	return err
}

// Close forcibly closes the HTTP server.
func (a *App) Close() error {
	a.stopWorkers()
	return a.server.Close()
}

func (a *App) stopWorkers() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.workers.Wait()
}

// Manager returns the configuration manager.
func (a *App) Manager() *settings.Manager {
	return a.manager
}

// Server returns the HTTP server instance.
func (a *App) Server() *http.Server {
	return a.server
}
