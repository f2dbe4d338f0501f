package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/publicsuffix"

	"github.com/jiaming2012/nsefetch/src/models"
)

// SessionFetcher talks to the exchange directly. The first Fetch primes the
// cookie jar with a GET to the base URL; later requests reuse the same client
// and jar.
type SessionFetcher struct {
	baseURL string
	headers map[string]string
	client  *http.Client

	mu           sync.Mutex
	bootstrapped bool
}

func NewSessionFetcher(baseURL string, headers map[string]string, timeout time.Duration) (*SessionFetcher, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("NewSessionFetcher: failed to create cookie jar: %w", err)
	}

	return &SessionFetcher{
		baseURL: baseURL,
		headers: headers,
		client: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func (f *SessionFetcher) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	for _, k := range sortedHeaderKeys(f.headers) {
		req.Header.Set(k, f.headers[k])
	}

	return req, nil
}

func (f *SessionFetcher) ensureSession(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bootstrapped {
		return nil
	}

	req, err := f.newRequest(ctx, f.baseURL)
	if err != nil {
		return fmt.Errorf("ensureSession: failed to create request: %w", err)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("ensureSession: failed to reach %s: %w", f.baseURL, err)
	}

	io.Copy(io.Discard, res.Body)
	res.Body.Close()

	if res.StatusCode >= 400 {
		log.Warnf("ensureSession: %s answered %v, continuing without cookies", f.baseURL, res.Status)
	}

	f.bootstrapped = true
	log.Debugf("ensureSession: session established against %s", f.baseURL)

	return nil
}

func (f *SessionFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.ensureSession(ctx); err != nil {
		return nil, &models.FetchError{URL: url, Err: err}
	}

	body, err := f.get(ctx, url)
	if err != nil {
		return nil, &models.FetchError{URL: url, Err: err}
	}

	return body, nil
}

func (f *SessionFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := f.newRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	log.Debugf("SessionFetcher: fetching %s", url)

	res, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("http code %v: %s", res.Status, snippet(body))
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s", models.NonJSONBodyErr, snippet(body))
	}

	return body, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 128 {
		return s[:128] + "..."
	}

	return s
}
