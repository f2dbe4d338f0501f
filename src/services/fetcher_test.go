package services

import (
	"context"
	"errors"
	"sync"

	"github.com/jiaming2012/nsefetch/src/models"
)

// fakeFetcher answers each url with respond and records the urls it saw.
type fakeFetcher struct {
	mu      sync.Mutex
	urls    []string
	respond func(url string) ([]byte, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()

	body, err := f.respond(url)
	if err != nil {
		return nil, &models.FetchError{URL: url, Err: err}
	}

	return body, nil
}

func (f *fakeFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.urls...)
}

func staticFetcher(body string) *fakeFetcher {
	return &fakeFetcher{respond: func(string) ([]byte, error) { return []byte(body), nil }}
}

func failingFetcher() *fakeFetcher {
	return &fakeFetcher{respond: func(string) ([]byte, error) { return nil, errors.New("connection reset by peer") }}
}
