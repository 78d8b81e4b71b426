package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/eugenenazirov/aetb-config/internal/storage"
)

// Supported backends.
const (
	BackendVault        = "vault"
	BackendRedis        = "redis"
	BackendHTTP         = "http"
	BackendFirebase     = "firebase"
	BackendFirebaseRTDB = "firebase_rtdb"
	BackendPostgres     = "postgres"
)

const (
	defaultRedisKey     = "aetb:config"
	defaultDocumentName = "default"
	defaultCollection   = "aetb_config"

	serviceAccountType = "service_account"
)

var (
	// ErrUnsupportedBackend is returned for an unknown backend name.
	ErrUnsupportedBackend = errors.New("unsupported remote backend")
	// ErrInvalidCredentials is returned when required credential fields are missing.
	ErrInvalidCredentials = errors.New("invalid remote credentials")
)

// Credentials describes how to reach the remote document store. Which fields
// apply depends on Backend.
type Credentials struct {
	Backend string `json:"backend"`
	// "service_account" for a Firebase service-account key file
	Type string `json:"type,omitempty"`

	// vault, redis
	Address string `json:"address,omitempty"`
	// vault token, http bearer token, firebase_rtdb auth token
	Token     string `json:"token,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	// vault secret path and KV engine version (1 or 2)
	Path      string `json:"path,omitempty"`
	KVVersion int    `json:"kv_version,omitempty"`

	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
	Key      string `json:"key,omitempty"`

	// http, firebase_rtdb
	URL string `json:"url,omitempty"`

	// firebase (Firestore)
	ProjectID       string `json:"project_id,omitempty"`
	CredentialsFile string `json:"credentials_file,omitempty"`
	Collection      string `json:"collection,omitempty"`
	ServiceAccount  []byte `json:"-"`

	// postgres, firebase
	DSN      string `json:"dsn,omitempty"`
	Document string `json:"document,omitempty"`
}

// LoadCredentials reads and parses the credentials file at path.
func LoadCredentials(reader storage.Reader, path string) (Credentials, error) {
	data, err := reader.Read(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	creds, err := ParseCredentials(data)
	if err != nil {
		return Credentials{}, err
	}

	if creds.Backend == BackendFirebase && len(creds.ServiceAccount) == 0 {
		keyPath := creds.CredentialsFile
		if !filepath.IsAbs(keyPath) {
			keyPath = filepath.Join(filepath.Dir(path), keyPath)
		}
		key, err := reader.Read(keyPath)
		if err != nil {
			return Credentials{}, fmt.Errorf("read service account key: %w", err)
		}
		creds.ServiceAccount = key
		creds.CredentialsFile = keyPath
	}
	return creds, nil
}

// ParseCredentials decodes a JSON credentials document and fills backend defaults.
// A Firebase service-account key file is accepted as is and selects the
// firebase backend.
func ParseCredentials(data []byte) (Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	creds.Backend = strings.ToLower(strings.TrimSpace(creds.Backend))
	if creds.Type == serviceAccountType {
		if creds.Backend == "" {
			creds.Backend = BackendFirebase
		}
		if creds.Backend != BackendFirebase {
			return Credentials{}, fmt.Errorf("%w: service account key used with %s backend", ErrInvalidCredentials, creds.Backend)
		}
		creds.ServiceAccount = data
	}

	if err := creds.validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

func (c *Credentials) validate() error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s backend requires %q", ErrInvalidCredentials, c.Backend, field)
	}

	switch c.Backend {
	case BackendVault:
		if c.Address == "" {
			return missing("address")
		}
		if c.Token == "" {
			return missing("token")
		}
		if strings.Trim(c.Path, "/") == "" {
			return missing("path")
		}
		switch c.KVVersion {
		case 0:
			c.KVVersion = 2
		case 1, 2:
		default:
			return fmt.Errorf("%w: kv_version must be 1 or 2, got %d", ErrInvalidCredentials, c.KVVersion)
		}
	case BackendRedis:
		if c.Address == "" {
			return missing("address")
		}
		if c.Key == "" {
			c.Key = defaultRedisKey
		}
	case BackendHTTP, BackendFirebaseRTDB:
		if c.URL == "" {
			return missing("url")
		}
	case BackendFirebase:
		if len(c.ServiceAccount) == 0 && c.CredentialsFile == "" {
			return missing("credentials_file")
		}
		if c.Collection == "" {
			c.Collection = defaultCollection
		}
		if c.Document == "" {
			c.Document = defaultDocumentName
		}
	case BackendPostgres:
		if c.DSN == "" {
			return missing("dsn")
		}
		if c.Document == "" {
			c.Document = defaultDocumentName
		}
	case "":
		return fmt.Errorf("%w: backend is required", ErrInvalidCredentials)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedBackend, c.Backend)
	}
	return nil
}
