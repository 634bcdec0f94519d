package graph

import (
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/bl4ck0w1/dnsatlas/pkg/utils"
)

type NodeKind string

const (
	KindDomain NodeKind = "domain"
	KindIP     NodeKind = "ip"
)

// Relation labels an edge with the DNS record type that produced it.
type Relation string

const (
	RelA         Relation = "A"
	RelAAAA      Relation = "AAAA"
	RelCNAME     Relation = "CNAME"
	RelNS        Relation = "NS"
	RelMX        Relation = "MX"
	RelTXT       Relation = "TXT"
	RelSubdomain Relation = "SUBDOMAIN"
)

type Node struct {
	Name   string   `json:"name"`
	Kind   NodeKind `json:"kind"`
	Depth  int      `json:"depth"`
	Source string   `json:"source"`
	Order  int      `json:"order"`
}

type Edge struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Relation Relation `json:"relation"`
	Info     string   `json:"info,omitempty"`
}

type Stats struct {
	Domains int `json:"domains"`
	IPs     int `json:"ips"`
	Edges   int `json:"edges"`
}

// Graph is the directed, edge-labeled relationship graph produced by one
// scan. It is safe for concurrent mutation while the scan runs and is
// treated as read-only by exporters afterwards. A single mutex guards
// both the node map and the edge list; query latency dominates contention.
type Graph struct {
	root string

	mu      sync.Mutex
	nodes   map[string]*Node
	order   []string
	edges   []Edge
	edgeSet map[uint64]struct{}
}

func New(root string) *Graph {
	return &Graph{
		root:    utils.NormalizeHost(root),
		nodes:   make(map[string]*Node),
		edgeSet: make(map[uint64]struct{}),
	}
}

func (g *Graph) Root() string { return g.root }

// AddNode inserts a node under its normalized name and reports whether the
// insert won. The check-and-set is atomic: two tasks racing to discover the
// same target see exactly one true return, and the first insert fixes the
// node's depth for the rest of the scan.
func (g *Graph) AddNode(name string, kind NodeKind, depth int, source string) bool {
	key := utils.NormalizeHost(name)
	if key == "" {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[key]; ok {
		return false
	}
	g.nodes[key] = &Node{
		Name:   key,
		Kind:   kind,
		Depth:  depth,
		Source: source,
		Order:  len(g.order),
	}
	g.order = append(g.order, key)
	return true
}

// AddEdge records a relation, deduplicated on (source, target, relation,
// info). Edge targets are not required to be nodes; blacklisted or
// depth-bounded targets stay visible as edge endpoints only.
func (g *Graph) AddEdge(source, target string, rel Relation, info string) bool {
	src := utils.NormalizeHost(source)
	dst := utils.NormalizeHost(target)
	if src == "" || dst == "" {
		return false
	}

	key := edgeKey(src, dst, rel, info)
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.edgeSet[key]; ok {
		return false
	}
	g.edgeSet[key] = struct{}{}
	g.edges = append(g.edges, Edge{Source: src, Target: dst, Relation: rel, Info: info})
	return true
}

func (g *Graph) HasNode(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.nodes[utils.NormalizeHost(name)]
	return ok
}

func (g *Graph) Node(name string) (Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[utils.NormalizeHost(name)]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns copies in discovery order.
func (g *Graph) Nodes() []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Node, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, *g.nodes[key])
	}
	return out
}

// NodesAtDepth returns domain nodes at the given depth, in discovery order.
func (g *Graph) NodesAtDepth(depth int) []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Node
	for _, key := range g.order {
		n := g.nodes[key]
		if n.Kind == KindDomain && n.Depth == depth {
			out = append(out, *n)
		}
	}
	return out
}

func (g *Graph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

func (g *Graph) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := Stats{Edges: len(g.edges)}
	for _, n := range g.nodes {
		switch n.Kind {
		case KindIP:
			s.IPs++
		default:
			s.Domains++
		}
	}
	return s
}

func edgeKey(src, dst string, rel Relation, info string) uint64 {
	h := xxh3.New()
	_, _ = h.WriteString(src)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(dst)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(string(rel))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(info)
	return h.Sum64()
}
