// Package config loads client configuration from YAML, .env files and the
// environment, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full client configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Session  SessionConfig  `yaml:"session"`
	Social   SocialConfig   `yaml:"social"`
	Callback CallbackConfig `yaml:"callback"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig configures the remote authentication API client.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig selects where the session is persisted.
type SessionConfig struct {
	Backend string `yaml:"backend"` // memory, file or sqlite
	Path    string `yaml:"path"`    // empty = default file under the config dir
}

// SocialConfig holds identity-provider authorization URLs.
type SocialConfig struct {
	GoogleURL     string        `yaml:"google_url"`
	GitHubURL     string        `yaml:"github_url"`
	RedirectDelay time.Duration `yaml:"redirect_delay"`
}

// CallbackConfig controls how the provider redirect reaches the client.
type CallbackConfig struct {
	Mode       string        `yaml:"mode"` // loopback or relay
	ListenAddr string        `yaml:"listen_addr"`
	RelayURL   string        `yaml:"relay_url"`
	Wait       time.Duration `yaml:"wait"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Debug bool   `yaml:"debug"`
	File  string `yaml:"file"`
}

// Environment overrides.
const (
	EnvAPIURL         = "EVENTLY_API_URL"
	EnvGoogleAuthURL  = "EVENTLY_GOOGLE_AUTH_URL"
	EnvGitHubAuthURL  = "EVENTLY_GITHUB_AUTH_URL"
	EnvSessionBackend = "EVENTLY_SESSION_BACKEND"
	EnvSessionPath    = "EVENTLY_SESSION_PATH"
	EnvCallbackAddr   = "EVENTLY_CALLBACK_ADDR"
	EnvCallbackMode   = "EVENTLY_CALLBACK_MODE"
	EnvRelayURL       = "EVENTLY_RELAY_URL"
)

// Default returns a configuration populated with defaults only.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultAPIBaseURL,
			Timeout: DefaultRequestTimeout,
		},
		Session: SessionConfig{
			Backend: DefaultSessionBackend,
		},
		Social: SocialConfig{
			RedirectDelay: DefaultRedirectDelay,
		},
		Callback: CallbackConfig{
			Mode:       CallbackLoopback,
			ListenAddr: DefaultCallbackAddr,
			Wait:       DefaultCallbackWait,
		},
	}
}

// Dir returns ~/.config/evently.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// LoadEnvFiles loads the project .env and then the global one. Values already
// present in the environment are never overwritten.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	if dir, err := Dir(); err == nil {
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}
}

// Load reads the config file at path (or the default location when path is
// empty), applies environment overrides and validates the result.
// A missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		dir, err := Dir()
		if err == nil {
			path = filepath.Join(dir, "config.yaml")
		}
	}

	var data []byte
	if path != "" {
		b, err := os.ReadFile(path) // #nosec G304 -- user-selected config path
		switch {
		case err == nil:
			data = b
		case explicit || !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML config data on top of the defaults.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := Default()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.expandEnv()
	cfg.applyEnv()
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}

	switch c.Session.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("session.backend must be one of memory, file, sqlite; got %q", c.Session.Backend)
	}

	switch c.Callback.Mode {
	case CallbackLoopback:
		if c.Callback.ListenAddr == "" {
			return fmt.Errorf("callback.listen_addr is required in loopback mode")
		}
	case CallbackRelay:
		if c.Callback.RelayURL == "" {
			return fmt.Errorf("callback.relay_url is required in relay mode")
		}
	default:
		return fmt.Errorf("callback.mode must be loopback or relay; got %q", c.Callback.Mode)
	}

	if c.Social.RedirectDelay < 0 {
		return fmt.Errorf("social.redirect_delay must not be negative")
	}
	return nil
}

// SessionPath returns the storage path for the configured backend.
func (c *Config) SessionPath() (string, error) {
	if c.Session.Path != "" {
		return c.Session.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	switch c.Session.Backend {
	case BackendSQLite:
		return filepath.Join(dir, DefaultSQLiteFile), nil
	default:
		return filepath.Join(dir, DefaultSessionFile), nil
	}
}

// ProviderURLs maps provider names to their configured authorization URLs.
// Providers without a URL are omitted.
func (c *Config) ProviderURLs() map[string]string {
	urls := make(map[string]string, 2)
	if c.Social.GoogleURL != "" {
		urls["google"] = c.Social.GoogleURL
	}
	if c.Social.GitHubURL != "" {
		urls["github"] = c.Social.GitHubURL
	}
	return urls
}

func (c *Config) expandEnv() {
	c.API.BaseURL = resolveEnvVar(c.API.BaseURL)
	c.Session.Path = resolveEnvVar(c.Session.Path)
	c.Social.GoogleURL = resolveEnvVar(c.Social.GoogleURL)
	c.Social.GitHubURL = resolveEnvVar(c.Social.GitHubURL)
	c.Callback.RelayURL = resolveEnvVar(c.Callback.RelayURL)
	c.Log.File = resolveEnvVar(c.Log.File)
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvAPIURL, &c.API.BaseURL},
		{EnvGoogleAuthURL, &c.Social.GoogleURL},
		{EnvGitHubAuthURL, &c.Social.GitHubURL},
		{EnvSessionBackend, &c.Session.Backend},
		{EnvSessionPath, &c.Session.Path},
		{EnvCallbackAddr, &c.Callback.ListenAddr},
		{EnvCallbackMode, &c.Callback.Mode},
		{EnvRelayURL, &c.Callback.RelayURL},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.target = v
		}
	}
}

// fillDefaults restores defaults for keys the YAML set to empty values.
func (c *Config) fillDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultRequestTimeout
	}
	if c.Session.Backend == "" {
		c.Session.Backend = DefaultSessionBackend
	}
	if c.Callback.Mode == "" {
		c.Callback.Mode = CallbackLoopback
	}
	if c.Callback.ListenAddr == "" {
		c.Callback.ListenAddr = DefaultCallbackAddr
	}
	if c.Callback.Wait == 0 {
		c.Callback.Wait = DefaultCallbackWait
	}
}

// resolveEnvVar expands ${VAR:-default} syntax in config values.
func resolveEnvVar(value string) string {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value
	}

	content := strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}")

	varName, defaultVal := content, ""
	if idx := strings.Index(content, ":-"); idx != -1 {
		varName = content[:idx]
		defaultVal = content[idx+2:]
	}

	if envVal := os.Getenv(varName); envVal != "" {
		return envVal
	}
	return defaultVal
}
