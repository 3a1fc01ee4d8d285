package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	clerrors "github.com/hpungsan/clipper/internal/errors"
)

// Selection sources understood by the CLI.
const (
	SourceCDP       = "cdp"
	SourceClipboard = "clipboard"
	SourceStdin     = "stdin"
)

// Environment variables that override the config file.
const (
	EnvEndpoint = "CLIPPER_ENDPOINT"
	EnvCDPURL   = "CLIPPER_CDP_URL"
)

// Config holds application configuration.
type Config struct {
	// Endpoint is the URL clips are POSTed to. Required for submission.
	Endpoint string `json:"endpoint,omitempty"`

	// CDPURL is the Chrome DevTools address used to read the active tab.
	CDPURL string `json:"cdp_url,omitempty"`

	// Source is the default selection source: "cdp", "clipboard" or "stdin".
	Source string `json:"source,omitempty"`

	// RequestTimeoutSeconds bounds the relay request. 0 means no timeout.
	RequestTimeoutSeconds int `json:"request_timeout_seconds,omitempty"`

	// WebBind and WebPort set the address of the popup web UI.
	WebBind string `json:"web_bind,omitempty"`
	WebPort int    `json:"web_port,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
// The endpoint has no default: it must be supplied by the user.
func DefaultConfig() *Config {
	return &Config{
		CDPURL:  "http://127.0.0.1:9222",
		Source:  SourceCDP,
		WebBind: "127.0.0.1",
		WebPort: 8765,
	}
}

// Load loads configuration from baseDir/config.json and applies environment overrides.
// Returns default config (plus overrides) if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.clipper.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(cfg, fromEnv(os.Getenv)), nil
}

// fromEnv builds an overlay config from environment variables.
func fromEnv(getenv func(string) string) *Config {
	return &Config{
		Endpoint: strings.TrimSpace(getenv(EnvEndpoint)),
		CDPURL:   strings.TrimSpace(getenv(EnvCDPURL)),
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Endpoint = pick(overlay.Endpoint, base.Endpoint)
	result.CDPURL = pick(overlay.CDPURL, base.CDPURL)
	result.Source = pick(overlay.Source, base.Source)
	result.WebBind = pick(overlay.WebBind, base.WebBind)

	result.RequestTimeoutSeconds = overlay.RequestTimeoutSeconds
	if result.RequestTimeoutSeconds == 0 {
		result.RequestTimeoutSeconds = base.RequestTimeoutSeconds
	}

	result.WebPort = overlay.WebPort
	if result.WebPort == 0 {
		result.WebPort = base.WebPort
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// pick returns overlay unless it is blank.
func pick(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return strings.TrimSpace(overlay)
	}
	return base
}

// RequestTimeout returns the relay timeout, or 0 when none is configured.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ValidateEndpoint checks that the endpoint is set and is an absolute http(s) URL.
func (c *Config) ValidateEndpoint() error {
	if c.Endpoint == "" {
		return clerrors.NewEndpointNotConfigured("", "")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return clerrors.NewEndpointNotConfigured(c.Endpoint, err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return clerrors.NewEndpointNotConfigured(c.Endpoint, "scheme must be http or https")
	}
	if u.Host == "" {
		return clerrors.NewEndpointNotConfigured(c.Endpoint, "missing host")
	}
	return nil
}

// ValidateSource checks that the source name is known.
func ValidateSource(source string) error {
	switch source {
	case SourceCDP, SourceClipboard, SourceStdin:
		return nil
	}
	return clerrors.NewInvalidRequest(fmt.Sprintf("unknown source %q; use cdp, clipboard or stdin", source))
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
