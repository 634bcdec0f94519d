package crawler

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bl4ck0w1/dnsatlas/internal/graph"
	"github.com/bl4ck0w1/dnsatlas/pkg/models"
)

// loadWordlist reads one candidate label per line, skipping blanks and
// '#' comments. The file was named explicitly, so failing to read it is a
// configuration error.
func loadWordlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.ConfigError{Field: "wordlist_file", Reason: fmt.Sprintf("cannot read %s: %v", path, err)}
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		words = append(words, strings.Trim(word, "."))
	}
	if err := scanner.Err(); err != nil {
		return nil, &models.ConfigError{Field: "wordlist_file", Reason: err.Error()}
	}
	return words, nil
}

// probe tries <word>.<domain> for every wordlist entry and reports the
// ones that resolve. Probed names enter the graph with a SUBDOMAIN edge
// rather than a record-type label since no record on the parent names them.
func (e *Engine) probe(ctx context.Context, domain string) []target {
	var targets []target
	for _, word := range e.words {
		if ctx.Err() != nil {
			return targets
		}
		candidate := word + "." + domain
		recs, err := e.lookup.Lookup(ctx, candidate, "A")
		if err != nil || len(recs) == 0 {
			continue
		}
		targets = append(targets, target{value: candidate, relation: graph.RelSubdomain, info: "wordlist"})
	}
	return targets
}
