// Package config loads the probe's search, report and token settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DayLayout is the date format used by Gmail's after:/before: query operators.
const DayLayout = "2006/01/02"

const envPrefix = "GMAIL_PROBE"

// Search describes which messages discovery looks for.
type Search struct {
	// From is matched against the From header (substring, case-insensitive).
	From string
	// SubjectContains is reported on but does not filter.
	SubjectContains string
	// After is the inclusive lower bound (calendar day).
	After time.Time
	// Before is the exclusive upper bound (calendar day).
	Before time.Time
	// MaxResults bounds the server-side filtered search.
	MaxResults int64
	// FallbackMaxResults bounds the unfiltered listing used when queries are not allowed.
	FallbackMaxResults int64
	// FallbackLabel restricts the unfiltered listing.
	FallbackLabel string
}

// Report controls what the probe prints and persists.
type Report struct {
	OutDir        string
	FilePrefix    string
	PreviewChars  int
	MinimalFields string
}

// Token controls where the bearer token comes from.
type Token struct {
	EnvVar     string
	File       string
	KeyringKey string
}

// Config is the complete probe configuration.
type Config struct {
	Search Search
	Report Report
	Token  Token
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.from", "nu@nu.com.co")
	v.SetDefault("search.subject_contains", "Pagaste en GOU PAYMENTS")
	v.SetDefault("search.after", "2026/02/09")
	v.SetDefault("search.before", "2026/02/10")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.fallback_max_results", 100)
	v.SetDefault("search.fallback_label", "INBOX")

	v.SetDefault("report.out_dir", os.TempDir())
	v.SetDefault("report.file_prefix", "gmail_nu")
	v.SetDefault("report.preview_chars", 3000)
	v.SetDefault("report.minimal_fields", "id,snippet,internalDate")

	v.SetDefault("token.env_var", "GMAIL_ACCESS_TOKEN")
	v.SetDefault("token.file", "")
	v.SetDefault("token.keyring_key", "")
}

// Load reads configuration from defaults, the optional YAML file at path and
// GMAIL_PROBE_* environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	after, err := ParseDay(v.GetString("search.after"))
	if err != nil {
		return nil, fmt.Errorf("search.after: %w", err)
	}
	before, err := ParseDay(v.GetString("search.before"))
	if err != nil {
		return nil, fmt.Errorf("search.before: %w", err)
	}

	cfg := &Config{
		Search: Search{
			From:               v.GetString("search.from"),
			SubjectContains:    v.GetString("search.subject_contains"),
			After:              after,
			Before:             before,
			MaxResults:         v.GetInt64("search.max_results"),
			FallbackMaxResults: v.GetInt64("search.fallback_max_results"),
			FallbackLabel:      v.GetString("search.fallback_label"),
		},
		Report: Report{
			OutDir:        v.GetString("report.out_dir"),
			FilePrefix:    v.GetString("report.file_prefix"),
			PreviewChars:  v.GetInt("report.preview_chars"),
			MinimalFields: v.GetString("report.minimal_fields"),
		},
		Token: Token{
			EnvVar:     v.GetString("token.env_var"),
			File:       v.GetString("token.file"),
			KeyringKey: v.GetString("token.keyring_key"),
		},
	}

	if err := cfg.Search.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseDay parses a YYYY/MM/DD day into midnight UTC.
func ParseDay(s string) (time.Time, error) {
	d, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("time.Parse failed: %w", err)
	}
	return d, nil
}

// FormatDay renders t in the layout Gmail queries expect.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// Validate checks that the search can match anything at all.
func (s Search) Validate() error {
	if strings.TrimSpace(s.From) == "" {
		return errors.New("search.from must be set")
	}
	if !s.After.Before(s.Before) {
		return fmt.Errorf("search.after (%s) must be before search.before (%s)", FormatDay(s.After), FormatDay(s.Before))
	}
	if s.MaxResults <= 0 || s.FallbackMaxResults <= 0 {
		return errors.New("search.max_results and search.fallback_max_results must be positive")
	}
	return nil
}
