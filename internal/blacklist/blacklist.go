// Package blacklist classifies hostnames as infrastructure noise (CDNs,
// cloud providers, managed DNS) that should not be expanded during a scan.
package blacklist

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bl4ck0w1/dnsatlas/pkg/models"
)

//go:embed default_patterns.txt
var defaultPatterns string

// RuleSet is an immutable set of lowercase substring patterns. Build one
// per scan and share it freely; no method mutates it.
type RuleSet struct {
	patterns []string
}

func New(patterns []string) *RuleSet {
	rs := &RuleSet{patterns: make([]string, 0, len(patterns))}
	seen := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		rs.patterns = append(rs.patterns, p)
	}
	return rs
}

// Default returns the built-in CDN/cloud pattern set.
func Default() *RuleSet {
	return New(parse(strings.NewReader(defaultPatterns)))
}

// LoadFile reads a pattern file: one pattern per line, '#' comments and
// blank lines ignored. A missing file is a configuration error since the
// caller asked for it explicitly.
func LoadFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.ConfigError{Field: "blacklist_file", Reason: fmt.Sprintf("cannot read %s: %v", path, err)}
	}
	defer f.Close()
	return New(parse(f)), nil
}

// Merge returns a new set containing this set's patterns plus the others'.
func (r *RuleSet) Merge(others ...*RuleSet) *RuleSet {
	merged := append([]string(nil), r.patterns...)
	for _, o := range others {
		if o != nil {
			merged = append(merged, o.patterns...)
		}
	}
	return New(merged)
}

// Match reports whether any pattern is a substring of the hostname.
func (r *RuleSet) Match(hostname string) bool {
	hostname = strings.ToLower(hostname)
	for _, p := range r.patterns {
		if strings.Contains(hostname, p) {
			return true
		}
	}
	return false
}

func (r *RuleSet) Len() int {
	return len(r.patterns)
}

func (r *RuleSet) Patterns() []string {
	out := make([]string, len(r.patterns))
	copy(out, r.patterns)
	return out
}

func parse(src io.Reader) []string {
	var patterns []string
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}
