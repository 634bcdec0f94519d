// Package report renders a finished discovery graph: terminal summary,
// Markdown report, Graphviz DOT and a JSON export. Everything here treats
// the graph as read-only.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bl4ck0w1/dnsatlas/internal/graph"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiCyan   = "\033[36m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
)

// maxEdgesPerRelation bounds the relation listing in the terminal view.
const maxEdgesPerRelation = 10

type TextFormatter struct {
	NoColor bool
}

func (f *TextFormatter) Format(g *graph.Graph) string {
	c := func(code string) string {
		if f.NoColor {
			return ""
		}
		return code
	}
	rule := strings.Repeat("=", 63)

	var b strings.Builder
	stats := g.Stats()
	fmt.Fprintf(&b, "\n%s%s%s%s\n", c(ansiBold), c(ansiCyan), rule, c(ansiReset))
	fmt.Fprintf(&b, "%s%s  DNS Map: %s%s\n", c(ansiBold), c(ansiCyan), g.Root(), c(ansiReset))
	fmt.Fprintf(&b, "%s%s%s\n", c(ansiCyan), rule, c(ansiReset))
	fmt.Fprintf(&b, "  %d domains | %d IPs | %d relations\n\n", stats.Domains, stats.IPs, stats.Edges)

	var domains, ips []graph.Node
	for _, n := range g.Nodes() {
		if n.Kind == graph.KindIP {
			ips = append(ips, n)
		} else {
			domains = append(domains, n)
		}
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i].Name < domains[j].Name })
	sort.Slice(ips, func(i, j int) bool { return ips[i].Name < ips[j].Name })

	if len(domains) > 0 {
		fmt.Fprintf(&b, "%s%s  DOMAINS%s\n", c(ansiBold), c(ansiCyan), c(ansiReset))
		for _, n := range domains {
			src := ""
			if n.Source != "" && n.Source != "root" {
				src = fmt.Sprintf(" %s(%s, depth %d)%s", c(ansiDim), n.Source, n.Depth, c(ansiReset))
			}
			fmt.Fprintf(&b, "  %s*%s %s%s\n", c(ansiCyan), c(ansiReset), n.Name, src)
		}
		b.WriteString("\n")
	}

	if len(ips) > 0 {
		fmt.Fprintf(&b, "%s%s  IP ADDRESSES%s\n", c(ansiBold), c(ansiGreen), c(ansiReset))
		for _, n := range ips {
			fmt.Fprintf(&b, "  %s*%s %s %s(%s)%s\n", c(ansiGreen), c(ansiReset), n.Name, c(ansiDim), n.Source, c(ansiReset))
		}
		b.WriteString("\n")
	}

	groups := make(map[graph.Relation][]graph.Edge)
	for _, e := range g.Edges() {
		groups[e.Relation] = append(groups[e.Relation], e)
	}
	if len(groups) > 0 {
		relations := make([]string, 0, len(groups))
		for rel := range groups {
			relations = append(relations, string(rel))
		}
		sort.Strings(relations)

		fmt.Fprintf(&b, "%s%s  RELATIONS%s\n", c(ansiBold), c(ansiYellow), c(ansiReset))
		for _, rel := range relations {
			edges := groups[graph.Relation(rel)]
			sort.Slice(edges, func(i, j int) bool { return edges[i].Source < edges[j].Source })
			fmt.Fprintf(&b, "  %s%s%s (%d)\n", c(ansiYellow), rel, c(ansiReset), len(edges))
			for i, e := range edges {
				if i == maxEdgesPerRelation {
					fmt.Fprintf(&b, "    %s... and %d more%s\n", c(ansiDim), len(edges)-maxEdgesPerRelation, c(ansiReset))
					break
				}
				fmt.Fprintf(&b, "    %s->%s %s -> %s\n", c(ansiDim), c(ansiReset), e.Source, e.Target)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s%s%s\n", c(ansiCyan), rule, c(ansiReset))
	return b.String()
}
