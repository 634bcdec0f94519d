package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bl4ck0w1/dnsatlas/internal/graph"
)

type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(g *graph.Graph) string {
	stats := g.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "# DNS Map: %s\n\n", g.Root())
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "| Domains | IPs | Relations |\n")
	fmt.Fprintf(&b, "|---------|-----|-----------|\n")
	fmt.Fprintf(&b, "| %d | %d | %d |\n\n", stats.Domains, stats.IPs, stats.Edges)

	nodes := g.Nodes()
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Depth != nodes[j].Depth {
			return nodes[i].Depth < nodes[j].Depth
		}
		return nodes[i].Name < nodes[j].Name
	})

	b.WriteString("## Nodes\n\n")
	b.WriteString("| Name | Kind | Depth | Discovered via |\n")
	b.WriteString("|------|------|-------|----------------|\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", n.Name, n.Kind, n.Depth, n.Source)
	}
	b.WriteString("\n")

	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Relation != edges[j].Relation {
			return edges[i].Relation < edges[j].Relation
		}
		return edges[i].Source < edges[j].Source
	})

	b.WriteString("## Relations\n\n")
	b.WriteString("| Source | Relation | Target | Info |\n")
	b.WriteString("|--------|----------|--------|------|\n")
	for _, e := range edges {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", e.Source, e.Relation, e.Target, e.Info)
	}
	b.WriteString("\n")
	return b.String()
}
