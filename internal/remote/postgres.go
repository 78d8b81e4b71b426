package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DocumentsTable holds one JSON configuration document per name.
const DocumentsTable = "aetb_config_documents"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// postgresSource reads a named document from DocumentsTable.
type postgresSource struct {
	availability
	db   *sql.DB
	name string
}

// OpenDB opens and pings the postgres database described by creds.
func OpenDB(ctx context.Context, creds Credentials) (*sql.DB, error) {
	if creds.Backend != BackendPostgres {
		return nil, fmt.Errorf("%w: %q is not a postgres backend", ErrUnsupportedBackend, creds.Backend)
	}

	db, err := sql.Open("pgx", creds.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func newPostgresSource(ctx context.Context, creds Credentials) (*postgresSource, error) {
	db, err := OpenDB(ctx, creds)
	if err != nil {
		return nil, err
	}
	return openPostgres(db, creds.Document), nil
}

func openPostgres(db *sql.DB, name string) *postgresSource {
	return &postgresSource{
		availability: newAvailability(),
		db:           db,
		name:         name,
	}
}

func (s *postgresSource) Fetch(ctx context.Context) (map[string]any, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	doc, err := s.read(ctx)
	s.record(err)
	return doc, err
}

func (s *postgresSource) read(ctx context.Context) (map[string]any, error) {
	query, args, err := psql.Select("document").
		From(DocumentsTable).
		Where(sq.Eq{"name": s.name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var payload []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: document %q", ErrDocumentNotFound, s.name)
	case isUndefinedTable(err):
		return nil, fmt.Errorf("%w: table %s does not exist, run migrate", ErrDocumentNotFound, DocumentsTable)
	case err != nil:
		return nil, fmt.Errorf("select document %q: %w", s.name, err)
	}
	return decodeDocument(payload)
}

// Publish upserts doc under the configured document name.
func (s *postgresSource) Publish(ctx context.Context, doc map[string]any) error {
	if s.isClosed() {
		return ErrClosed
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	query, args, err := psql.Insert(DocumentsTable).
		Columns("name", "document").
		Values(s.name, payload).
		Suffix("ON CONFLICT (name) DO UPDATE SET document = EXCLUDED.document, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert document %q: %w", s.name, err)
	}
	return nil
}

func (s *postgresSource) Close() error {
	if !s.markClosed() {
		return nil
	}
	return s.db.Close()
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}
