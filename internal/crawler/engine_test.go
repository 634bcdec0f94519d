package crawler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bl4ck0w1/dnsatlas/internal/graph"
	"github.com/bl4ck0w1/dnsatlas/pkg/models"
)

// fakeLookuper serves answers from an in-memory zone map and records which
// domains were queried. Unknown domains resolve to nothing, which is
// exactly how the real resolver reports NXDOMAIN.
type fakeLookuper struct {
	mu      sync.Mutex
	zones   map[string]map[string][]models.DNSRecord
	queried map[string]int
}

func newFake() *fakeLookuper {
	return &fakeLookuper{
		zones:   make(map[string]map[string][]models.DNSRecord),
		queried: make(map[string]int),
	}
}

func (f *fakeLookuper) add(domain, rtype string, values ...string) {
	if f.zones[domain] == nil {
		f.zones[domain] = make(map[string][]models.DNSRecord)
	}
	for _, v := range values {
		f.zones[domain][rtype] = append(f.zones[domain][rtype],
			models.DNSRecord{Domain: domain, Type: rtype, Value: v})
	}
}

func (f *fakeLookuper) Lookup(ctx context.Context, domain, recordType string) ([]models.DNSRecord, error) {
	f.mu.Lock()
	f.queried[domain+"/"+recordType]++
	f.mu.Unlock()
	return f.zones[domain][recordType], nil
}

func (f *fakeLookuper) queryCount(domain, recordType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queried[domain+"/"+recordType]
}

func (f *fakeLookuper) totalQueries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.queried {
		total += n
	}
	return total
}

func testConfig() models.Config {
	return models.Config{
		MaxDepth:         2,
		Workers:          4,
		QueryTimeout:     time.Second,
		RecordTypes:      []string{"A", "CNAME", "NS", "MX", "TXT"},
		DefaultBlacklist: false,
		IncludeIPs:       true,
	}
}

func mustCrawl(t *testing.T, cfg models.Config, fake *fakeLookuper, root string) *graph.Graph {
	t.Helper()
	e, err := NewEngine(cfg, fake, nil, nil)
	require.NoError(t, err)
	g, err := e.Crawl(context.Background(), root)
	require.NoError(t, err)
	return g
}

func TestCrawlDepthZeroQueriesOnlyRoot(t *testing.T) {
	fake := newFake()
	fake.add("example.com", "A", "192.0.2.1")
	fake.add("example.com", "NS", "ns1.example.org")
	fake.add("ns1.example.org", "A", "192.0.2.53")

	cfg := testConfig()
	cfg.MaxDepth = 0
	g := mustCrawl(t, cfg, fake, "example.com")

	nodes := g.Nodes()
	require.Len(t, nodes, 1, "depth 0 keeps only the root node")
	assert.Equal(t, "example.com", nodes[0].Name)
	assert.Equal(t, 0, nodes[0].Depth)
	assert.Len(t, g.Edges(), 2, "direct edges are still recorded at the boundary")
	assert.Zero(t, fake.queryCount("ns1.example.org", "A"), "nothing past the root is expanded")
}

func TestCrawlAssignsBFSDepths(t *testing.T) {
	fake := newFake()
	fake.add("example.com", "NS", "ns1.example.org")
	fake.add("ns1.example.org", "CNAME", "core.example.net")

	g := mustCrawl(t, testConfig(), fake, "example.com")

	root, _ := g.Node("example.com")
	ns, ok := g.Node("ns1.example.org")
	require.True(t, ok)
	core, ok := g.Node("core.example.net")
	require.True(t, ok)

	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, 1, ns.Depth)
	assert.Equal(t, 2, core.Depth)
}

func TestCrawlVisitsSharedTargetOnce(t *testing.T) {
	fake := newFake()
	fake.add("example.com", "NS", "ns1.example.org", "ns2.example.org")
	fake.add("ns1.example.org", "CNAME", "shared.example.net")
	fake.add("ns2.example.org", "CNAME", "shared.example.net")

	g := mustCrawl(t, testConfig(), fake, "example.com")

	shared, ok := g.Node("shared.example.net")
	require.True(t, ok)
	assert.Equal(t, 2, shared.Depth)
	assert.Equal(t, 1, fake.queryCount("shared.example.net", "CNAME"),
		"a target referenced by two parents is expanded once")
}

func TestCrawlBreaksCNAMECycles(t *testing.T) {
	fake := newFake()
	fake.add("example.com", "CNAME", "a.example.org")
	fake.add("a.example.org", "CNAME", "b.example.org")
	fake.add("b.example.org", "CNAME", "a.example.org")

	cfg := testConfig()
	cfg.MaxDepth = 10
	g := mustCrawl(t, cfg, fake, "example.com")

	assert.Len(t, g.Nodes(), 3)
	assert.Equal(t, 1, fake.queryCount("a.example.org", "CNAME"))
	assert.Equal(t, 1, fake.queryCount("b.example.org", "CNAME"))
}

func TestCrawlBlacklistStopsExpansionKeepsEdge(t *testing.T) {
	fake := newFake()
	fake.add("example.com", "CNAME", "cdn.cloudflare.net")
	fake.add("cdn.cloudflare.net", "CNAME", "edge.cloudflare.net")

	cfg := testConfig()
	cfg.DefaultBlacklist = true
	g := mustCrawl(t, cfg, fake, "example.com")

	root, _ := g.Node("example.com")
	assert.Equal(t, 0, root.Depth)
	assert.False(t, g.HasNode("cdn.cloudflare.net"))
	assert.False(t, g.HasNode("edge.cloudflare.net"))

	edges := g.Edges()
	require.Len(t, edges, 1, "the boundary edge stays visible")
	assert.Equal(t, "cdn.cloudflare.net", edges[0].Target)
	assert.Zero(t, fake.queryCount("cdn.cloudflare.net", "CNAME"),
		"blacklisted targets are never queried")
}

func TestCrawlUserExclusions(t *testing.T) {
	fake := newFake()
	fake.add("example.com", "NS", "ns.staging.example.com", "ns.example.org")
	fake.add("ns.example.org", "A", "192.0.2.9")

	cfg := testConfig()
	cfg.Exclude = []string{"staging"}
	g := mustCrawl(t, cfg, fake, "example.com")

	assert.False(t, g.HasNode("ns.staging.example.com"))
	assert.True(t, g.HasNode("ns.example.org"))
}

func TestCrawlNXDOMAINLeafStaysInGraph(t *testing.T) {
	fake := newFake()
	fake.add("example.com", "NS", "ns1.example.org")
	// ns1.example.org has no records at all.

	g := mustCrawl(t, testConfig(), fake, "example.com")

	leaf, ok := g.Node("ns1.example.org")
	require.True(t, ok)
	assert.Equal(t, 1, leaf.Depth)
	for _, e := range g.Edges() {
		assert.NotEqual(t, "ns1.example.org", e.Source, "a dead leaf has no outgoing edges")
	}
}

func TestCrawlWorkerCountDoesNotChangeResult(t *testing.T) {
	build := func() *fakeLookuper {
		fake := newFake()
		fake.add("example.com", "NS", "ns1.example.org", "ns2.example.org")
		fake.add("example.com", "MX", "10 mail.example.org")
		fake.add("ns1.example.org", "CNAME", "shared.example.net")
		fake.add("ns2.example.org", "CNAME", "shared.example.net")
		fake.add("mail.example.org", "A", "192.0.2.25")
		fake.add("shared.example.net", "TXT", "v=spf1 include:spf.example.io -all")
		return fake
	}

	cfgSerial := testConfig()
	cfgSerial.Workers = 1
	serial := mustCrawl(t, cfgSerial, build(), "example.com")

	cfgParallel := testConfig()
	cfgParallel.Workers = 8
	parallel := mustCrawl(t, cfgParallel, build(), "example.com")

	serialNodes := make(map[string]int)
	for _, n := range serial.Nodes() {
		serialNodes[n.Name] = n.Depth
	}
	parallelNodes := make(map[string]int)
	for _, n := range parallel.Nodes() {
		parallelNodes[n.Name] = n.Depth
	}
	assert.Equal(t, serialNodes, parallelNodes, "node set and depths are concurrency-invariant")
	assert.Equal(t, len(serial.Edges()), len(parallel.Edges()))
}

func TestCrawlFollowsSPFIncludes(t *testing.T) {
	fake := newFake()
	fake.add("example.com", "TXT", "v=spf1 include:_spf.mailer.example.org ~all")

	g := mustCrawl(t, testConfig(), fake, "example.com")

	spf, ok := g.Node("_spf.mailer.example.org")
	require.True(t, ok)
	assert.Equal(t, 1, spf.Depth)
	assert.Equal(t, "TXT", spf.Source)
}

func TestCrawlIPNodesAreLeaves(t *testing.T) {
	fake := newFake()
	fake.add("example.com", "A", "192.0.2.1")

	g := mustCrawl(t, testConfig(), fake, "example.com")

	ip, ok := g.Node("192.0.2.1")
	require.True(t, ok)
	assert.Equal(t, graph.KindIP, ip.Kind)
	assert.Zero(t, fake.queryCount("192.0.2.1", "A"), "IPs are never expanded")
}

func TestCrawlIPNodesCanBeDisabled(t *testing.T) {
	fake := newFake()
	fake.add("example.com", "A", "192.0.2.1")
	fake.add("example.com", "NS", "ns1.example.org")

	cfg := testConfig()
	cfg.IncludeIPs = false
	g := mustCrawl(t, cfg, fake, "example.com")

	assert.False(t, g.HasNode("192.0.2.1"))
	assert.True(t, g.HasNode("ns1.example.org"))
	for _, e := range g.Edges() {
		assert.NotEqual(t, graph.RelA, e.Relation)
	}
}

func TestCrawlSkipsSelfReferences(t *testing.T) {
	fake := newFake()
	fake.add("example.com", "NS", "example.com", "ns1.example.org")

	g := mustCrawl(t, testConfig(), fake, "example.com")

	for _, e := range g.Edges() {
		assert.NotEqual(t, e.Source, e.Target)
	}
	root, _ := g.Node("example.com")
	assert.Equal(t, 0, root.Depth)
}

func TestNewEngineRejectsInvalidWorkers(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 0
	fake := newFake()

	_, err := NewEngine(cfg, fake, nil, nil)
	require.Error(t, err)
	assert.True(t, models.IsConfigError(err))
	assert.Zero(t, fake.totalQueries(), "validation fails before any query is issued")
}

func TestNewEngineRejectsNegativeDepth(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDepth = -1
	_, err := NewEngine(cfg, newFake(), nil, nil)
	require.Error(t, err)
	assert.True(t, models.IsConfigError(err))
}

func TestCrawlRejectsInvalidRoot(t *testing.T) {
	e, err := NewEngine(testConfig(), newFake(), nil, nil)
	require.NoError(t, err)

	_, err = e.Crawl(context.Background(), "not a domain")
	require.Error(t, err)
	assert.True(t, models.IsConfigError(err))
}

func TestCrawlHonorsContextCancellation(t *testing.T) {
	fake := newFake()
	fake.add("example.com", "NS", "ns1.example.org")
	fake.add("ns1.example.org", "NS", "ns2.example.org")

	e, err := NewEngine(testConfig(), fake, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g, err := e.Crawl(ctx, "example.com")
	require.NoError(t, err, "cancellation is a clean stop, not a failure")
	assert.LessOrEqual(t, len(g.Nodes()), 1)
}
