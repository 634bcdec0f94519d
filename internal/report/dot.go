package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bl4ck0w1/dnsatlas/internal/graph"
)

// DotFormatter emits Graphviz source using the twopi radial layout, root
// at the center, one color per relation type.
type DotFormatter struct{}

var relationColors = map[graph.Relation]string{
	graph.RelA:         "#424242",
	graph.RelAAAA:      "#9E9E9E",
	graph.RelCNAME:     "#FF9800",
	graph.RelNS:        "#9C27B0",
	graph.RelMX:        "#2196F3",
	graph.RelTXT:       "#FFC107",
	graph.RelSubdomain: "#4CAF50",
}

func (f *DotFormatter) Format(g *graph.Graph) string {
	var b strings.Builder
	b.WriteString("digraph dns_map {\n")
	fmt.Fprintf(&b, "  label=%q;\n", "DNS Map: "+g.Root())
	b.WriteString("  layout=twopi;\n")
	b.WriteString("  ranksep=3.0;\n")
	b.WriteString("  overlap=false;\n")
	b.WriteString("  splines=true;\n")
	fmt.Fprintf(&b, "  root=%q;\n", nodeID(g.Root()))
	b.WriteString("  node [fontsize=10, fontname=\"Arial\"];\n")
	b.WriteString("  edge [fontsize=8, fontname=\"Arial\"];\n")

	for _, n := range g.Nodes() {
		shape, color := "box", "#4A90D9"
		switch {
		case n.Name == g.Root():
			shape, color = "doubleoctagon", "#D32F2F"
		case n.Kind == graph.KindIP:
			shape, color = "ellipse", "#7CB342"
		}
		fmt.Fprintf(&b, "  %s [label=%q, shape=%s, style=filled, fillcolor=%q, fontcolor=white];\n",
			nodeID(n.Name), n.Name, shape, color)
	}

	for _, e := range g.Edges() {
		color, ok := relationColors[e.Relation]
		if !ok {
			color = "#000000"
		}
		fmt.Fprintf(&b, "  %s -> %s [color=%q, penwidth=1.5];\n", nodeID(e.Source), nodeID(e.Target), color)
	}

	b.WriteString("  subgraph cluster_legend {\n")
	b.WriteString("    rank=sink;\n")
	b.WriteString("    label=\"Legend\";\n")
	b.WriteString("    style=filled;\n")
	b.WriteString("    color=\"#EEEEEE\";\n")
	b.WriteString("    node [shape=plaintext, fontsize=10];\n")
	rels := make([]string, 0, len(relationColors))
	for rel := range relationColors {
		rels = append(rels, string(rel))
	}
	sort.Strings(rels)
	for _, rel := range rels {
		fmt.Fprintf(&b, "    legend_%s [label=%q, fontcolor=%q];\n",
			strings.ToLower(rel), rel, relationColors[graph.Relation(rel)])
	}
	b.WriteString("  }\n")
	b.WriteString("}\n")
	return b.String()
}

// nodeID makes a hostname safe for use as a DOT identifier.
func nodeID(name string) string {
	replacer := strings.NewReplacer(".", "_", "-", "_", ":", "_")
	return "n_" + replacer.Replace(name)
}
