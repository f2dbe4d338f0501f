package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/nsefetch/src/models"
)

type CurlConfig struct {
	CurlPath  string
	BaseURL   string
	CookieJar string
	Headers   map[string]string
	Timeout   time.Duration
}

// CurlFetcher relays every request through curl with a cookie jar file. The
// jar is not safe to share between concurrent instances.
type CurlFetcher struct {
	cfg       CurlConfig
	commander Commander

	// jarMu keeps readers of the jar out while it is being rewritten.
	jarMu sync.RWMutex
}

type relayState int

const (
	stateFetching relayState = iota
	stateBootstrappingCookies
)

func (s relayState) String() string {
	switch s {
	case stateFetching:
		return "fetching"
	case stateBootstrappingCookies:
		return "bootstrapping_cookies"
	default:
		return "unknown"
	}
}

func NewCurlFetcher(cfg CurlConfig, commander Commander) *CurlFetcher {
	if cfg.CurlPath == "" {
		cfg.CurlPath = "curl"
	}

	return &CurlFetcher{
		cfg:       cfg,
		commander: commander,
	}
}

// Fetch runs Fetching -> BootstrappingCookies -> Fetching. The cookie jar is
// regenerated at most once; a second failure is terminal.
func (f *CurlFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target := EncodeURL(rawURL)

	state := stateFetching
	refreshed := false

	for {
		switch state {
		case stateFetching:
			body, err := f.fetchOnce(ctx, target)
			if err == nil {
				return body, nil
			}

			if refreshed || !isRelayRetryable(err) {
				return nil, &models.FetchError{URL: rawURL, Err: err}
			}

			log.Warnf("CurlFetcher: %s failed (%v), regenerating cookie jar %s", rawURL, err, f.cfg.CookieJar)
			state = stateBootstrappingCookies

		case stateBootstrappingCookies:
			if err := f.bootstrap(ctx); err != nil {
				return nil, &models.FetchError{URL: rawURL, Err: fmt.Errorf("failed to regenerate cookie jar: %w", err)}
			}

			refreshed = true
			state = stateFetching
		}
	}
}

func (f *CurlFetcher) fetchOnce(ctx context.Context, target string) ([]byte, error) {
	f.jarMu.RLock()
	defer f.jarMu.RUnlock()

	log.Debugf("CurlFetcher: fetching %s", target)

	out, err := f.commander.Run(ctx, f.cfg.CurlPath, f.args("-b", target)...)
	if err != nil {
		return nil, err
	}

	if !json.Valid(out) {
		return nil, fmt.Errorf("%w: %s", models.NonJSONBodyErr, snippet(out))
	}

	return out, nil
}

func (f *CurlFetcher) bootstrap(ctx context.Context) error {
	f.jarMu.Lock()
	defer f.jarMu.Unlock()

	_, err := f.commander.Run(ctx, f.cfg.CurlPath, f.args("-c", f.cfg.BaseURL)...)
	return err
}

// args builds "-s --compressed <jarFlag> <jar> <url> -H k: v ...". jarFlag is
// -b to read the jar and -c to write it.
func (f *CurlFetcher) args(jarFlag string, target string) []string {
	args := []string{"-s", "--compressed", jarFlag, f.cfg.CookieJar, target}

	if f.cfg.Timeout > 0 {
		args = append(args, "--max-time", strconv.FormatFloat(f.cfg.Timeout.Seconds(), 'f', -1, 64))
	}

	for _, k := range sortedHeaderKeys(f.cfg.Headers) {
		args = append(args, "-H", k+": "+f.cfg.Headers[k])
	}

	return args
}

// isRelayRetryable reports whether a fresh cookie jar could fix err: curl ran
// but produced unusable output or exited non-zero.
func isRelayRetryable(err error) bool {
	if errors.Is(err, models.NonJSONBodyErr) {
		return true
	}

	var cmdErr *CommandError
	return errors.As(err, &cmdErr)
}

const urlSafe = ":/?&="

// EncodeURL percent-encodes raw, leaving unreserved characters and :/?&=
// alone. URLs that already carry %26 or %20 are assumed encoded.
func EncodeURL(raw string) string {
	if strings.Contains(raw, "%26") || strings.Contains(raw, "%20") {
		return raw
	}

	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if isUnreserved(c) || strings.IndexByte(urlSafe, c) >= 0 {
			b.WriteByte(c)
			continue
		}

		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}

	return b.String()
}

func isUnreserved(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}
