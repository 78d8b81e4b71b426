package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// httpSource fetches the configuration document from a JSON endpoint. The
// firebase_rtdb backend targets a Realtime Database REST path and passes the token
// as the "auth" query parameter instead of a bearer header.
type httpSource struct {
	availability
	client *resty.Client
	url    string
}

func newHTTPSource(creds Credentials) (*httpSource, error) {
	client := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")

	url := creds.URL
	if creds.Backend == BackendFirebaseRTDB {
		if !strings.HasSuffix(url, ".json") {
			url = strings.TrimSuffix(url, "/") + ".json"
		}
		if creds.Token != "" {
			client.SetQueryParam("auth", creds.Token)
		}
	} else if creds.Token != "" {
		client.SetAuthToken(creds.Token)
	}

	return &httpSource{
		availability: newAvailability(),
		client:       client,
		url:          url,
	}, nil
}

func (s *httpSource) Fetch(ctx context.Context) (map[string]any, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	doc, err := s.read(ctx)
	s.record(err)
	return doc, err
}

func (s *httpSource) read(ctx context.Context) (map[string]any, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.url, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, s.url)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get %s: unexpected status %s", s.url, resp.Status())
	}
	return decodeDocument(resp.Body())
}

func (s *httpSource) Close() error {
	s.markClosed()
	return nil
}
