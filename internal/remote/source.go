package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/aetb-config/internal/settings"
	"github.com/eugenenazirov/aetb-config/internal/storage"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultCooldown = 30 * time.Second
)

var (
	// ErrDocumentNotFound is returned when the remote store holds no configuration document.
	ErrDocumentNotFound = errors.New("remote config document not found")
	// ErrInvalidDocument is returned when the remote document is not a JSON object.
	ErrInvalidDocument = errors.New("remote config document must be a JSON object")
	// ErrClosed is returned by Fetch after Close.
	ErrClosed = errors.New("remote source closed")
)

// Source is a remote configuration document store.
type Source interface {
	Fetch(ctx context.Context) (map[string]any, error)
	Available() bool
	Close() error
}

// Publisher is implemented by sources that accept configuration uploads.
type Publisher interface {
	Publish(ctx context.Context, doc map[string]any) error
}

// Open connects to the backend named in creds.
func Open(ctx context.Context, creds Credentials, logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("backend", creds.Backend))

	var (
		src Source
		err error
	)
	switch creds.Backend {
	case BackendVault:
		src, err = newVaultSource(creds)
	case BackendRedis:
		src, err = newRedisSource(ctx, creds)
	case BackendHTTP, BackendFirebaseRTDB:
		src, err = newHTTPSource(creds)
	case BackendFirebase:
		src, err = newFirestoreSource(ctx, creds)
	case BackendPostgres:
		src, err = newPostgresSource(ctx, creds)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, creds.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("connected to remote config store")
	return src, nil
}

// NewConnector returns a settings.Connector that reads credentials through
// reader and opens the matching backend.
func NewConnector(reader storage.Reader, logger *zap.Logger) settings.Connector {
	return func(ctx context.Context, credentialsPath string) (settings.RemoteSource, error) {
		creds, err := LoadCredentials(reader, credentialsPath)
		if err != nil {
			return nil, err
		}
		return Open(ctx, creds, logger)
	}
}

// availability tracks whether a source should be queried. A failed fetch
// makes the source unavailable for a cooldown period.
type availability struct {
	mu       sync.Mutex
	closed   bool
	retryAt  time.Time
	cooldown time.Duration
	now      func() time.Time
}

func newAvailability() availability {
	return availability{cooldown: defaultCooldown, now: time.Now}
}

// Available reports whether the source is open and not cooling down.
func (a *availability) Available() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.closed && !a.now().Before(a.retryAt)
}

func (a *availability) record(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err == nil || errors.Is(err, ErrDocumentNotFound) || errors.Is(err, ErrInvalidDocument) {
		a.retryAt = time.Time{}
		return
	}
	a.retryAt = a.now().Add(a.cooldown)
}

func (a *availability) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func (a *availability) markClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	wasOpen := !a.closed
	a.closed = true
	return wasOpen
}

// decodeDocument parses a JSON object. A JSON null is treated as a missing document.
func decodeDocument(data []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	switch doc := v.(type) {
	case nil:
		return nil, ErrDocumentNotFound
	case map[string]any:
		return doc, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidDocument, v)
	}
}

// normalize converts decoder-specific values (json.Number and friends) into
// the float64/map[string]any form used by settings.RawConfig.
func normalize(doc map[string]any) (map[string]any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return decodeDocument(data)
}
