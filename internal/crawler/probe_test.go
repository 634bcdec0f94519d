package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bl4ck0w1/dnsatlas/internal/graph"
	"github.com/bl4ck0w1/dnsatlas/pkg/models"
)

func writeWordlist(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subdomains.txt")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestLoadWordlist(t *testing.T) {
	path := writeWordlist(t, "# common labels\nwww\nMAIL\n\n  dev.  \n")
	words, err := loadWordlist(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"www", "mail", "dev"}, words)
}

func TestLoadWordlistMissingIsConfigError(t *testing.T) {
	_, err := loadWordlist(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.True(t, models.IsConfigError(err))
}

func TestCrawlProbesWordlistSubdomains(t *testing.T) {
	fake := newFake()
	fake.add("www.example.com", "A", "192.0.2.80")
	// "mail" does not resolve and must not enter the graph.

	cfg := testConfig()
	cfg.WordlistFile = writeWordlist(t, "www\nmail\n")
	g := mustCrawl(t, cfg, fake, "example.com")

	www, ok := g.Node("www.example.com")
	require.True(t, ok)
	assert.Equal(t, 1, www.Depth)
	assert.Equal(t, string(graph.RelSubdomain), www.Source)
	assert.False(t, g.HasNode("mail.example.com"))

	var found bool
	for _, e := range g.Edges() {
		if e.Relation == graph.RelSubdomain && e.Target == "www.example.com" {
			found = true
			assert.Equal(t, "example.com", e.Source)
		}
	}
	assert.True(t, found, "probed subdomains get a SUBDOMAIN edge from their parent")
}
