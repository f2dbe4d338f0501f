package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Get issues a plain GET and returns the body. Responses >= 400 are errors.
func Get(ctx context.Context, client *http.Client, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("Get: failed to create request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Get: failed to fetch %s: %w", url, err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("Get: failed to read body: %w", err)
	}

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("Get: http code %v: %s", res.Status, truncate(strings.TrimSpace(string(body)), 256))
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
