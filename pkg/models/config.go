package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	MaxDepth         int           `yaml:"max_depth" json:"max_depth"`
	Workers          int           `yaml:"workers" json:"workers"`
	QueryTimeout     time.Duration `yaml:"query_timeout" json:"query_timeout"`
	RetryAttempts    int           `yaml:"retry_attempts" json:"retry_attempts"`
	Nameservers      []string      `yaml:"nameservers" json:"nameservers"`
	RecordTypes      []string      `yaml:"record_types" json:"record_types"`
	RateLimit        float64       `yaml:"rate_limit" json:"rate_limit"`
	Exclude          []string      `yaml:"exclude" json:"exclude"`
	BlacklistFile    string        `yaml:"blacklist_file" json:"blacklist_file"`
	DefaultBlacklist bool          `yaml:"default_blacklist" json:"default_blacklist"`
	IncludeIPs       bool          `yaml:"include_ips" json:"include_ips"`
	WordlistFile     string        `yaml:"wordlist_file" json:"wordlist_file"`
	Verbose          bool          `yaml:"verbose" json:"verbose"`
}

func DefaultConfig() Config {
	return Config{
		MaxDepth:         2,
		Workers:          5,
		QueryTimeout:     2 * time.Second,
		RetryAttempts:    1,
		RecordTypes:      []string{"A", "AAAA", "CNAME", "NS", "MX", "TXT"},
		RateLimit:        50,
		DefaultBlacklist: true,
		IncludeIPs:       true,
	}
}

// Load reads a YAML scan profile over the receiver's current values.
func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Field: "config", Reason: fmt.Sprintf("read %s: %v", path, err)}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ConfigError{Field: "config", Reason: fmt.Sprintf("parse %s: %v", path, err)}
	}
	return nil
}

// Save writes the configuration as YAML, atomically.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	return os.Rename(tmp, path)
}

// Normalize fills zero values with usable defaults without touching
// fields the caller set explicitly.
func (c *Config) Normalize() {
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 2 * time.Second
	}
	if c.RetryAttempts < 0 {
		c.RetryAttempts = 0
	}
	if len(c.RecordTypes) == 0 {
		c.RecordTypes = []string{"A", "AAAA", "CNAME", "NS", "MX", "TXT"}
	}
	for i, rt := range c.RecordTypes {
		c.RecordTypes[i] = strings.ToUpper(strings.TrimSpace(rt))
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 50
	}
	for i, p := range c.Exclude {
		c.Exclude[i] = strings.ToLower(strings.TrimSpace(p))
	}
}

// Validate reports the first configuration problem as a *ConfigError.
// Only what must hold before the first query is sent belongs here;
// per-query failures during a scan are never configuration errors.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return &ConfigError{Field: "max_depth", Reason: "must be >= 0"}
	}
	if c.Workers < 1 {
		return &ConfigError{Field: "workers", Reason: "must be >= 1"}
	}
	if c.QueryTimeout <= 0 {
		return &ConfigError{Field: "query_timeout", Reason: "must be positive"}
	}
	for _, rt := range c.RecordTypes {
		switch rt {
		case "A", "AAAA", "CNAME", "NS", "MX", "TXT":
		default:
			return &ConfigError{Field: "record_types", Reason: "unsupported record type " + rt}
		}
	}
	return nil
}
