// Package config loads the daemon configuration: a JSON file in the tagwatch
// config dir with TAGWATCH_* environment overrides. The two retirement
// durations are deliberately required; the daemon refuses to start without
// them rather than invent thresholds.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// FileName is the config file name inside the config dir.
const FileName = "config.json"

// Environment override names not already shared through package common.
const (
	InitialNoticeDurationEnv = "TAGWATCH_INITIAL_NOTICE_DURATION"
	FinalNoticeDurationEnv   = "TAGWATCH_FINAL_NOTICE_DURATION"
	BadgeBackgroundEnv       = "TAGWATCH_BADGE_BACKGROUND"
	WelcomePageUrlEnv        = "TAGWATCH_WELCOME_PAGE_URL"
	RetirePageUrlEnv         = "TAGWATCH_RETIRE_PAGE_URL"
	CheckEveryEnv            = "TAGWATCH_CHECK_EVERY"
)

// Defaults for the optional keys.
const (
	DefaultBadgeBackground   = "#d93025"
	DefaultWelcomePageUrl    = "https://tagwatch.app/welcome"
	DefaultRetirePageUrl     = "https://tagwatch.app/retired"
	DefaultCheckEverySeconds = 6 * 60 * 60
)

// Feed describes one retailer bulk price feed.
type Feed struct {
	// Name identifies the feed in logs and sync summaries.
	Name string `json:"name"`
	// Url is an ftp:// or sftp:// endpoint pointing at a CSV price list.
	Url string `json:"url"`
	// CredentialRef names the credential vault entry holding the login.
	// Empty means anonymous.
	CredentialRef string `json:"credentialRef,omitempty"`
}

// Config is the daemon configuration after defaults and env overrides.
type Config struct {
	// InitialNoticeDuration and FinalNoticeDuration are the retirement
	// window lengths in seconds. Both are required; there is no default.
	InitialNoticeDuration int64 `json:"initialNoticeDuration"`
	FinalNoticeDuration   int64 `json:"finalNoticeDuration"`

	// BadgeAlertBackground is the CSS color pushed to clients for the
	// alert badge.
	BadgeAlertBackground string `json:"badgeAlertBackground"`

	WelcomePageUrl string `json:"welcomePageUrl"`
	RetirePageUrl  string `json:"retirePageUrl"`

	// Port is the TCP fallback port for the local socket server.
	Port int `json:"port"`

	// DataDir overrides where state files live. Empty uses the default
	// data dir under the config dir.
	DataDir string `json:"dataDir,omitempty"`

	// DefaultCheckEvery is the check interval in seconds applied to
	// products tracked without an explicit schedule.
	DefaultCheckEvery int64 `json:"defaultCheckEvery"`

	Feeds []Feed `json:"feeds,omitempty"`
}

// InitialNotice returns the initial retirement window as a duration.
func (c *Config) InitialNotice() time.Duration {
	return time.Duration(c.InitialNoticeDuration) * time.Second
}

// FinalNotice returns the final retirement window as a duration.
func (c *Config) FinalNotice() time.Duration {
	return time.Duration(c.FinalNoticeDuration) * time.Second
}

// CheckEvery returns the default product check interval as a duration.
func (c *Config) CheckEvery() time.Duration {
	return time.Duration(c.DefaultCheckEvery) * time.Second
}

// DefaultPath returns the config file path inside the tagwatch config dir.
func DefaultPath() string {
	return filepath.Join(tracklib.ConfigDir, FileName)
}

// LoadDefault loads the config from the default path.
func LoadDefault() (*Config, error) {
	return Load(DefaultPath())
}

// Load reads the config file at path, applies defaults and TAGWATCH_* env
// overrides and validates the result. A missing file is not an error by
// itself: env overrides alone can satisfy the required keys.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	case os.IsNotExist(err):
		// Proceed with defaults and env only.
	default:
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.BadgeAlertBackground == "" {
		cfg.BadgeAlertBackground = DefaultBadgeBackground
	}
	if cfg.WelcomePageUrl == "" {
		cfg.WelcomePageUrl = DefaultWelcomePageUrl
	}
	if cfg.RetirePageUrl == "" {
		cfg.RetirePageUrl = DefaultRetirePageUrl
	}
	if cfg.Port == 0 {
		cfg.Port = common.DefaultTCPPort
	}
	if cfg.DefaultCheckEvery == 0 {
		cfg.DefaultCheckEvery = DefaultCheckEverySeconds
	}
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv(InitialNoticeDurationEnv); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.InitialNoticeDuration = n
		}
	}
	if val := os.Getenv(FinalNoticeDurationEnv); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.FinalNoticeDuration = n
		}
	}
	if val := os.Getenv(BadgeBackgroundEnv); val != "" {
		cfg.BadgeAlertBackground = val
	}
	if val := os.Getenv(WelcomePageUrlEnv); val != "" {
		cfg.WelcomePageUrl = val
	}
	if val := os.Getenv(RetirePageUrlEnv); val != "" {
		cfg.RetirePageUrl = val
	}
	if val := os.Getenv(common.TCPPortEnv); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Port = n
		}
	}
	if val := os.Getenv(common.DataDirEnv); val != "" {
		cfg.DataDir = val
	}
	if val := os.Getenv(CheckEveryEnv); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.DefaultCheckEvery = n
		}
	}
}

func validate(cfg *Config) error {
	if cfg.InitialNoticeDuration <= 0 {
		return fmt.Errorf("config: initialNoticeDuration must be a positive number of seconds, got %d", cfg.InitialNoticeDuration)
	}
	if cfg.FinalNoticeDuration <= 0 {
		return fmt.Errorf("config: finalNoticeDuration must be a positive number of seconds, got %d", cfg.FinalNoticeDuration)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", cfg.Port)
	}
	if cfg.DefaultCheckEvery <= 0 {
		return fmt.Errorf("config: defaultCheckEvery must be a positive number of seconds, got %d", cfg.DefaultCheckEvery)
	}
	if err := validateColor(cfg.BadgeAlertBackground); err != nil {
		return err
	}
	for i, f := range cfg.Feeds {
		if f.Name == "" {
			return fmt.Errorf("config: feeds[%d]: name is required", i)
		}
		u, err := url.Parse(f.Url)
		if err != nil {
			return fmt.Errorf("config: feeds[%d] (%s): invalid url: %w", i, f.Name, err)
		}
		if u.Scheme != "ftp" && u.Scheme != "sftp" {
			return fmt.Errorf("config: feeds[%d] (%s): unsupported scheme %q, want ftp or sftp", i, f.Name, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("config: feeds[%d] (%s): url has no host", i, f.Name)
		}
	}
	return nil
}

func validateColor(c string) error {
	if c == "" {
		return fmt.Errorf("config: badgeAlertBackground is required")
	}
	if c[0] != '#' {
		// Named CSS colors pass through unchecked.
		return nil
	}
	if len(c) != 4 && len(c) != 7 {
		return fmt.Errorf("config: badgeAlertBackground %q is not a #rgb or #rrggbb color", c)
	}
	for _, r := range c[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return fmt.Errorf("config: badgeAlertBackground %q is not a #rgb or #rrggbb color", c)
		}
	}
	return nil
}
