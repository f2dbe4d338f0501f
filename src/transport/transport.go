package transport

import (
	"context"
	"fmt"
	"sort"

	"github.com/jiaming2012/nsefetch/src/config"
)

// Fetcher retrieves a JSON document. Every failure is a *models.FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// New picks the transport for cfg.Mode. The choice is fixed for the lifetime
// of the returned Fetcher.
func New(cfg *config.Config) (Fetcher, error) {
	switch cfg.Mode {
	case config.ModeDirect:
		return NewSessionFetcher(cfg.BaseURL, cfg.Headers, cfg.Timeout)
	case config.ModeShell:
		return NewCurlFetcher(CurlConfig{
			CurlPath:  cfg.CurlPath,
			BaseURL:   cfg.BaseURL,
			CookieJar: cfg.CookieJar,
			Headers:   cfg.Headers,
			Timeout:   cfg.Timeout,
		}, ExecCommander{}), nil
	default:
		return nil, fmt.Errorf("transport.New: unknown mode %q", cfg.Mode)
	}
}

func sortedHeaderKeys(headers map[string]string) []string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}
