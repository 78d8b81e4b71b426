package remote

import (
	"context"
	"fmt"
	"strings"

	vault "github.com/hashicorp/vault/api"
)

type vaultReader interface {
	ReadWithContext(ctx context.Context, path string) (*vault.Secret, error)
}

// vaultSource reads the configuration document from a Vault secret. Both KV
// v1 and KV v2 mounts are supported; a v2 response is unwrapped from its
// "data" envelope.
type vaultSource struct {
	availability
	logical   vaultReader
	path      string
	kvVersion int
}

func newVaultSource(creds Credentials) (*vaultSource, error) {
	cfg := vault.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("vault config: %w", cfg.Error)
	}
	cfg.Address = creds.Address
	cfg.Timeout = defaultTimeout
	cfg.MaxRetries = 1

	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	client.SetToken(creds.Token)
	if creds.Namespace != "" {
		client.SetNamespace(creds.Namespace)
	}

	return &vaultSource{
		availability: newAvailability(),
		logical:      client.Logical(),
		path:         strings.Trim(creds.Path, "/"),
		kvVersion:    creds.KVVersion,
	}, nil
}

func (s *vaultSource) Fetch(ctx context.Context) (map[string]any, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	doc, err := s.read(ctx)
	s.record(err)
	return doc, err
}

func (s *vaultSource) read(ctx context.Context) (map[string]any, error) {
	secret, err := s.logical.ReadWithContext(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("read vault secret %s: %w", s.path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: vault secret %s", ErrDocumentNotFound, s.path)
	}

	data := secret.Data
	if s.kvVersion != 1 {
		switch nested := data["data"].(type) {
		case nil:
			return nil, fmt.Errorf("%w: vault secret %s", ErrDocumentNotFound, s.path)
		case map[string]any:
			data = nested
		default:
			return nil, fmt.Errorf("%w: vault secret %s holds %T", ErrInvalidDocument, s.path, nested)
		}
	}
	return normalize(data)
}

func (s *vaultSource) Close() error {
	s.markClosed()
	return nil
}
