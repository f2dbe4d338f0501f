package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeDirect Mode = "direct"
	ModeShell  Mode = "shell"
)

const (
	DefaultBaseURL        = "https://www.nseindia.com"
	DefaultOptionChainURL = DefaultBaseURL + "/api/option-chain-indices?symbol="
	DefaultHistoricalURL  = DefaultBaseURL + "/api/historical/cm/equity"
	DefaultEquityListURL  = "https://archives.nseindia.com/content/equities/EQUITY_L.csv"
	DefaultCookieJar      = "cookies.txt"
	DefaultChunkDays      = 40
)

// DefaultHeaders imitate a browser; the exchange rejects bare clients.
var DefaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Accept":          "*/*",
	"Accept-Language": "en-US,en;q=0.9",
	"Referer":         DefaultBaseURL + "/",
}

type Config struct {
	BaseURL        string            `yaml:"base_url"`
	OptionChainURL string            `yaml:"option_chain_url"`
	HistoricalURL  string            `yaml:"historical_url"`
	EquityListURL  string            `yaml:"equity_list_url"`
	Mode           Mode              `yaml:"mode"`
	CookieJar      string            `yaml:"cookie_jar"`
	CurlPath       string            `yaml:"curl_path"`
	ChunkDays      int               `yaml:"chunk_days"`
	MaxConcurrency int               `yaml:"max_concurrency"`
	Timeout        time.Duration     `yaml:"timeout"`
	VerifySymbols  bool              `yaml:"verify_symbols"`
	Headers        map[string]string `yaml:"headers"`
	LogLevel       string            `yaml:"log_level"`
	LogFormat      string            `yaml:"log_format"`
	Telemetry      bool              `yaml:"telemetry"`
	ServiceName    string            `yaml:"service_name"`
}

func Default() *Config {
	headers := make(map[string]string, len(DefaultHeaders))
	for k, v := range DefaultHeaders {
		headers[k] = v
	}

	return &Config{
		BaseURL:        DefaultBaseURL,
		OptionChainURL: DefaultOptionChainURL,
		HistoricalURL:  DefaultHistoricalURL,
		EquityListURL:  DefaultEquityListURL,
		Mode:           ModeDirect,
		CookieJar:      DefaultCookieJar,
		CurlPath:       "curl",
		ChunkDays:      DefaultChunkDays,
		MaxConcurrency: 1,
		VerifySymbols:  true,
		Headers:        headers,
		LogLevel:       "info",
		LogFormat:      "text",
		ServiceName:    "nsefetch",
	}
}

// Load reads the yaml file at path (if any) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: failed to read %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: failed to unmarshal %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"NSE_BASE_URL":         &c.BaseURL,
		"NSE_OPTION_CHAIN_URL": &c.OptionChainURL,
		"NSE_HISTORICAL_URL":   &c.HistoricalURL,
		"NSE_EQUITY_LIST_URL":  &c.EquityListURL,
		"NSE_COOKIE_JAR":       &c.CookieJar,
		"NSE_CURL_PATH":        &c.CurlPath,
		"LOG_LEVEL":            &c.LogLevel,
		"LOG_FORMAT":           &c.LogFormat,
		"OTEL_SERVICE_NAME":    &c.ServiceName,
	}

	for key, dest := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dest = v
		}
	}

	if v, ok := lookup("NSE_MODE"); ok && v != "" {
		c.Mode = Mode(strings.ToLower(v))
	}

	ints := map[string]*int{
		"NSE_CHUNK_DAYS":      &c.ChunkDays,
		"NSE_MAX_CONCURRENCY": &c.MaxConcurrency,
	}

	for key, dest := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}

		*dest = n
	}

	if v, ok := lookup("NSE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid NSE_TIMEOUT: %w", err)
		}

		c.Timeout = d
	}

	bools := map[string]*bool{
		"NSE_VERIFY_SYMBOLS": &c.VerifySymbols,
		"NSE_TELEMETRY":      &c.Telemetry,
	}

	for key, dest := range bools {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}

		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}

		*dest = b
	}

	return nil
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeDirect:
	case ModeShell:
		if c.CookieJar == "" {
			return fmt.Errorf("cookie_jar is required in %s mode", ModeShell)
		}

		if c.CurlPath == "" {
			return fmt.Errorf("curl_path is required in %s mode", ModeShell)
		}
	default:
		return fmt.Errorf("unknown mode %q (want %s|%s)", c.Mode, ModeDirect, ModeShell)
	}

	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	if c.ChunkDays <= 0 {
		return fmt.Errorf("chunk_days must be positive, got %d", c.ChunkDays)
	}

	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be positive, got %d", c.MaxConcurrency)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	return nil
}
