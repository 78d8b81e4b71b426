package remote

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// firestoreDocument is the single Firestore document holding the configuration.
type firestoreDocument interface {
	Get(ctx context.Context) (map[string]any, error)
	Set(ctx context.Context, doc map[string]any) error
}

// firestoreSource reads the configuration document from Cloud Firestore using
// a Firebase service-account key.
type firestoreSource struct {
	availability
	doc    firestoreDocument
	name   string
	closer func() error
}

func newFirestoreSource(ctx context.Context, creds Credentials) (*firestoreSource, error) {
	opt := option.WithCredentialsJSON(creds.ServiceAccount)
	if len(creds.ServiceAccount) == 0 {
		opt = option.WithCredentialsFile(creds.CredentialsFile)
	}

	var conf *firebase.Config
	if creds.ProjectID != "" {
		conf = &firebase.Config{ProjectID: creds.ProjectID}
	}
	app, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open firestore: %w", err)
	}

	ref := client.Collection(creds.Collection).Doc(creds.Document)
	return openFirestore(documentRef{ref: ref}, ref.Path, client.Close), nil
}

func openFirestore(doc firestoreDocument, name string, closer func() error) *firestoreSource {
	return &firestoreSource{
		availability: newAvailability(),
		doc:          doc,
		name:         name,
		closer:       closer,
	}
}

func (s *firestoreSource) Fetch(ctx context.Context) (map[string]any, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	doc, err := s.read(ctx)
	s.record(err)
	return doc, err
}

func (s *firestoreSource) read(ctx context.Context) (map[string]any, error) {
	data, err := s.doc.Get(ctx)
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return nil, fmt.Errorf("%w: firestore document %s", ErrDocumentNotFound, s.name)
	case err != nil:
		return nil, fmt.Errorf("get firestore document %s: %w", s.name, err)
	case data == nil:
		return nil, fmt.Errorf("%w: firestore document %s", ErrDocumentNotFound, s.name)
	}
	// Firestore integers arrive as int64 and timestamps as time.Time.
	return normalize(data)
}

func (s *firestoreSource) Publish(ctx context.Context, doc map[string]any) error {
	if s.isClosed() {
		return ErrClosed
	}
	if err := s.doc.Set(ctx, doc); err != nil {
		return fmt.Errorf("set firestore document %s: %w", s.name, err)
	}
	return nil
}

func (s *firestoreSource) Close() error {
	if !s.markClosed() || s.closer == nil {
		return nil
	}
	return s.closer()
}

// documentRef adapts a Firestore document reference to firestoreDocument.
type documentRef struct {
	ref *firestore.DocumentRef
}

func (d documentRef) Get(ctx context.Context) (map[string]any, error) {
	snap, err := d.ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return snap.Data(), nil
}

func (d documentRef) Set(ctx context.Context, doc map[string]any) error {
	_, err := d.ref.Set(ctx, doc)
	return err
}
