package report

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bl4ck0w1/dnsatlas/internal/graph"
	"github.com/bl4ck0w1/dnsatlas/pkg/models"
)

func sampleGraph() *graph.Graph {
	g := graph.New("example.com")
	g.AddNode("example.com", graph.KindDomain, 0, "root")
	g.AddNode("ns1.example.org", graph.KindDomain, 1, "NS")
	g.AddNode("192.0.2.1", graph.KindIP, 1, "A")
	g.AddEdge("example.com", "ns1.example.org", graph.RelNS, "")
	g.AddEdge("example.com", "192.0.2.1", graph.RelA, "")
	g.AddEdge("example.com", "cdn.cloudflare.net", graph.RelCNAME, "")
	return g
}

func TestTextFormatter(t *testing.T) {
	out := (&TextFormatter{NoColor: true}).Format(sampleGraph())
	assert.Contains(t, out, "DNS Map: example.com")
	assert.Contains(t, out, "2 domains | 1 IPs | 3 relations")
	assert.Contains(t, out, "ns1.example.org")
	assert.Contains(t, out, "192.0.2.1")
	assert.Contains(t, out, "example.com -> cdn.cloudflare.net")
	assert.NotContains(t, out, "\033[", "NoColor suppresses ANSI codes")
}

func TestMarkdownFormatter(t *testing.T) {
	out := (&MarkdownFormatter{}).Format(sampleGraph())
	assert.Contains(t, out, "# DNS Map: example.com")
	assert.Contains(t, out, "| example.com | domain | 0 | root |")
	assert.Contains(t, out, "| 192.0.2.1 | ip | 1 | A |")
	assert.Contains(t, out, "| example.com | NS | ns1.example.org |")
}

func TestDotFormatter(t *testing.T) {
	out := (&DotFormatter{}).Format(sampleGraph())
	assert.Contains(t, out, "digraph dns_map")
	assert.Contains(t, out, "layout=twopi")
	assert.Contains(t, out, `root="n_example_com"`)
	assert.Contains(t, out, "doubleoctagon", "root is highlighted")
	assert.Contains(t, out, "n_example_com -> n_ns1_example_org")
	assert.Contains(t, out, "cluster_legend")
}

func TestWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, nil)
	require.NoError(t, err)
	g := sampleGraph()

	mdPath, err := w.WriteMarkdown(g)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(mdPath, "example_com_dns_map.md"))

	dotPath, err := w.WriteDot(g)
	require.NoError(t, err)
	data, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph dns_map")

	jsonPath, err := w.WriteJSON(g, models.ScanResult{Root: "example.com", Domains: 2, IPs: 1, Edges: 3})
	require.NoError(t, err)

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var export struct {
		Result models.ScanResult `json:"result"`
		Nodes  []graph.Node      `json:"nodes"`
		Edges  []graph.Edge      `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(raw, &export))
	assert.Equal(t, "example.com", export.Result.Root)
	assert.Len(t, export.Nodes, 3)
	assert.Len(t, export.Edges, 3)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"))
	}
}
