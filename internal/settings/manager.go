package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/eugenenazirov/aetb-config/internal/storage"
)

// DefaultPath is the configuration file used when none is specified.
const DefaultPath = "config.json"

// LoadState records where the cached configuration came from.
type LoadState int

const (
	StateUnloaded LoadState = iota
	StateLoadedFromFile
	StateLoadedFromDefaults
)

func (s LoadState) String() string {
	switch s {
	case StateLoadedFromFile:
		return "file"
	case StateLoadedFromDefaults:
		return "defaults"
	default:
		return "unloaded"
	}
}

//go:generate mockgen -source=manager.go -destination=../mock/settings_mock.go -package=mock

// RemoteSource is a remote document store holding configuration overrides.
type RemoteSource interface {
	Fetch(ctx context.Context) (map[string]any, error)
	Available() bool
	Close() error
}

// Connector opens a RemoteSource from a credentials file.
type Connector func(ctx context.Context, credentialsPath string) (RemoteSource, error)

// Recorder receives configuration lifecycle events, typically for metrics.
type Recorder interface {
	ObserveLoad(source string)
	ObserveRefresh(result string)
	ObserveValidationFailure(section string)
	SetRemoteConnected(connected bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveLoad(string)              {}
func (nopRecorder) ObserveRefresh(string)           {}
func (nopRecorder) ObserveValidationFailure(string) {}
func (nopRecorder) SetRemoteConnected(bool)         {}

// Refresh results passed to Recorder.ObserveRefresh.
const (
	RefreshOK          = "ok"
	RefreshUnavailable = "unavailable"
	RefreshFailed      = "error"
)

// Manager owns the process-wide configuration: it loads the local file or
// defaults, merges remote overrides and hands out validated sections.
type Manager struct {
	path      string
	store     storage.Store
	defaults  DefaultsProvider
	connector Connector
	logger    *zap.Logger
	recorder  Recorder

	mu     sync.RWMutex
	cache  RawConfig
	state  LoadState
	remote RemoteSource
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore overrides the document store, primarily for tests.
func WithStore(store storage.Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithDefaults overrides the defaults provider.
func WithDefaults(provider DefaultsProvider) Option {
	return func(m *Manager) {
		m.defaults = provider
	}
}

// WithConnector sets how remote sources are opened.
func WithConnector(connector Connector) Option {
	return func(m *Manager) {
		m.connector = connector
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRecorder sets the lifecycle event recorder.
func WithRecorder(recorder Recorder) Option {
	return func(m *Manager) {
		m.recorder = recorder
	}
}

// NewManager creates an unloaded Manager for the configuration file at path.
func NewManager(path string, opts ...Option) *Manager {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	m := &Manager{
		path:     path,
		store:    storage.NewFileStore(),
		defaults: Defaults,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the local configuration file path.
func (m *Manager) Path() string {
	return m.path
}

// Load reads the local file, falling back to defaults which are then written
// back to the same path. Load never fails: source problems are logged.
func (m *Manager) Load() LoadState {
	raw, err := m.readLocal()
	if err == nil {
		m.setCache(raw, StateLoadedFromFile)
		m.logger.Info("loaded config", zap.String("path", m.path))
		m.recorder.ObserveLoad(StateLoadedFromFile.String())
		return StateLoadedFromFile
	}

	if errors.Is(err, storage.ErrNotFound) {
		m.logger.Info("config file not found, using defaults", zap.String("path", m.path))
	} else {
		m.logger.Error("failed to load config, using defaults", zap.String("path", m.path), zap.Error(err))
	}

	defaults := m.defaults().Clone()
	if defaults == nil {
		defaults = RawConfig{}
	}
	m.setCache(defaults, StateLoadedFromDefaults)
	m.recorder.ObserveLoad(StateLoadedFromDefaults.String())

	if err := m.persist(defaults); err != nil {
		m.logger.Error("failed to save default config", zap.String("path", m.path), zap.Error(err))
	} else {
		m.logger.Info("created default config", zap.String("path", m.path))
	}

	return StateLoadedFromDefaults
}

func (m *Manager) readLocal() (RawConfig, error) {
	data, err := m.store.Read(m.path)
	if err != nil {
		return nil, err
	}
	return ParseRaw(data)
}

func (m *Manager) persist(raw RawConfig) error {
	data, err := raw.Encode()
	if err != nil {
		return err
	}
	return m.store.Write(m.path, data)
}

func (m *Manager) setCache(raw RawConfig, state LoadState) {
	m.mu.Lock()
	m.cache = raw
	m.state = state
	m.mu.Unlock()
}

// State reports where the cached configuration came from.
func (m *Manager) State() LoadState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// ConnectRemote opens the remote source described by credentialsPath. An empty
// or missing path, or any connection failure, leaves the remote disconnected.
func (m *Manager) ConnectRemote(ctx context.Context, credentialsPath string) bool {
	if strings.TrimSpace(credentialsPath) == "" {
		m.logger.Debug("no remote credentials configured")
		return false
	}
	if !m.store.Exists(credentialsPath) {
		m.logger.Info("remote credentials not found, remote config disabled", zap.String("path", credentialsPath))
		return false
	}
	if m.connector == nil {
		m.logger.Warn("no remote connector configured, remote config disabled")
		return false
	}

	src, err := m.connect(ctx, credentialsPath)
	if err != nil {
		m.logger.Error("failed to initialize remote config", zap.String("path", credentialsPath), zap.Error(err))
		m.swapRemote(nil)
		m.recorder.SetRemoteConnected(false)
		return false
	}

	m.swapRemote(src)
	m.logger.Info("remote config initialized", zap.String("path", credentialsPath))
	m.recorder.SetRemoteConnected(true)
	return true
}

func (m *Manager) swapRemote(src RemoteSource) {
	m.mu.Lock()
	previous := m.remote
	m.remote = src
	m.mu.Unlock()

	if previous != nil {
		if err := previous.Close(); err != nil {
			m.logger.Warn("failed to close previous remote source", zap.Error(err))
		}
	}
}

func (m *Manager) connect(ctx context.Context, credentialsPath string) (src RemoteSource, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			src = nil
			err = fmt.Errorf("remote connector panicked: %v", rec)
		}
	}()

	src, err = m.connector(ctx, credentialsPath)
	if err == nil && src == nil {
		err = errors.New("remote connector returned no source")
	}
	return src, err
}

// RemoteConnected reports whether a remote source is attached.
func (m *Manager) RemoteConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.remote != nil
}

// Refresh pulls the remote document and merges it over the cache; remote values win.
// On error the cache is left untouched.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	src := m.remote
	m.mu.RUnlock()

	if src == nil || !src.Available() {
		m.recorder.ObserveRefresh(RefreshUnavailable)
		return ErrRemoteUnavailable
	}

	doc, err := src.Fetch(ctx)
	if err != nil {
		m.recorder.ObserveRefresh(RefreshFailed)
		return fmt.Errorf("fetch remote config: %w", err)
	}

	m.mu.Lock()
	merged, err := Merge(m.cache, RawConfig(doc))
	if err == nil {
		m.cache = merged
	}
	m.mu.Unlock()

	if err != nil {
		m.recorder.ObserveRefresh(RefreshFailed)
		return err
	}

	m.logger.Info("applied remote config", zap.Int("keys", len(doc)))
	m.recorder.ObserveRefresh(RefreshOK)
	return nil
}

// Get returns the top-level value stored under key or def when absent.
// Values are returned as stored, without type coercion.
func (m *Manager) Get(key string, def any) any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.cache[key]
	if !ok {
		return def
	}
	return cloneValue(v)
}

// GetPath is Get for dotted paths such as "risk.stop_loss_pct".
func (m *Manager) GetPath(path string, def any) any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.cache.Lookup(path)
	if !ok {
		return def
	}
	return v
}

// Raw returns a copy of the cached document.
func (m *Manager) Raw() RawConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache.Clone()
}

// Trading returns the validated trading section.
func (m *Manager) Trading() (TradingSettings, error) {
	return loadSection(m, SectionTrading, DefaultTradingSettings(), ValidateTrading)
}

// Evolution returns the validated evolution section.
func (m *Manager) Evolution() (EvolutionSettings, error) {
	return loadSection(m, SectionEvolution, DefaultEvolutionSettings(), ValidateEvolution)
}

// Risk returns the validated risk section.
func (m *Manager) Risk() (RiskSettings, error) {
	return loadSection(m, SectionRisk, DefaultRiskSettings(), ValidateRisk)
}

func loadSection[T any](m *Manager, section string, out T, check func(T) error) (T, error) {
	var zero T

	m.mu.RLock()
	state := m.state
	raw := m.cache
	err := ErrNotLoaded
	if state != StateUnloaded {
		err = decodeSection(raw, section, &out)
	}
	m.mu.RUnlock()

	if err == nil {
		err = check(out)
	}
	if err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			m.recorder.ObserveValidationFailure(section)
		}
		return zero, err
	}
	return out, nil
}

// Close releases the remote source, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	src := m.remote
	m.remote = nil
	m.mu.Unlock()

	if src == nil {
		return nil
	}
	m.recorder.SetRemoteConnected(false)
	return src.Close()
}
