package graph

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddNodeNormalizesIdentity(t *testing.T) {
	g := New("Example.COM.")
	assert.Equal(t, "example.com", g.Root())

	assert.True(t, g.AddNode("WWW.Example.com.", KindDomain, 1, "CNAME"))
	assert.False(t, g.AddNode("www.example.com", KindDomain, 2, "NS"))

	n, ok := g.Node("www.EXAMPLE.com")
	assert.True(t, ok)
	assert.Equal(t, 1, n.Depth, "first insert fixes the depth")
	assert.Equal(t, "CNAME", n.Source)
}

func TestAddEdgeDeduplicates(t *testing.T) {
	g := New("example.com")
	assert.True(t, g.AddEdge("example.com", "mail.example.com", RelMX, ""))
	assert.False(t, g.AddEdge("example.com.", "MAIL.example.com", RelMX, ""))
	assert.True(t, g.AddEdge("example.com", "mail.example.com", RelCNAME, ""),
		"same pair under a different relation is a distinct edge")
	assert.Len(t, g.Edges(), 2)
}

func TestEdgeTargetsNeedNotBeNodes(t *testing.T) {
	g := New("example.com")
	g.AddNode("example.com", KindDomain, 0, "root")
	g.AddEdge("example.com", "cdn.cloudflare.net", RelCNAME, "")

	assert.False(t, g.HasNode("cdn.cloudflare.net"))
	assert.Len(t, g.Edges(), 1)
}

func TestNodesPreserveDiscoveryOrder(t *testing.T) {
	g := New("example.com")
	g.AddNode("example.com", KindDomain, 0, "root")
	g.AddNode("b.example.com", KindDomain, 1, "NS")
	g.AddNode("a.example.com", KindDomain, 1, "NS")

	nodes := g.Nodes()
	assert.Equal(t, []int{0, 1, 2}, []int{nodes[0].Order, nodes[1].Order, nodes[2].Order})
	assert.Equal(t, "b.example.com", nodes[1].Name)
}

func TestStatsCountsKinds(t *testing.T) {
	g := New("example.com")
	g.AddNode("example.com", KindDomain, 0, "root")
	g.AddNode("ns1.example.com", KindDomain, 1, "NS")
	g.AddNode("192.0.2.1", KindIP, 1, "A")
	g.AddEdge("example.com", "ns1.example.com", RelNS, "")
	g.AddEdge("example.com", "192.0.2.1", RelA, "")

	s := g.Stats()
	assert.Equal(t, 2, s.Domains)
	assert.Equal(t, 1, s.IPs)
	assert.Equal(t, 2, s.Edges)
}

func TestAddNodeConcurrentExactlyOnce(t *testing.T) {
	g := New("example.com")

	const goroutines = 64
	var wg sync.WaitGroup
	wins := make(chan bool, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- g.AddNode("target.example.com", KindDomain, 1, "CNAME")
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one goroutine wins the check-and-set")
	assert.Len(t, g.Nodes(), 1)
}

func TestNodesAtDepth(t *testing.T) {
	g := New("example.com")
	g.AddNode("example.com", KindDomain, 0, "root")
	g.AddNode("a.example.com", KindDomain, 1, "NS")
	g.AddNode("192.0.2.1", KindIP, 1, "A")
	g.AddNode("b.example.com", KindDomain, 2, "CNAME")

	atOne := g.NodesAtDepth(1)
	assert.Len(t, atOne, 1, "IP nodes are not expandable and are excluded")
	assert.Equal(t, "a.example.com", atOne[0].Name)
}
