// Package crawler implements the recursive discovery engine: a layered,
// concurrent breadth-first expansion over DNS record references, bounded
// by depth and worker count, producing a deduplicated relationship graph.
package crawler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/bl4ck0w1/dnsatlas/internal/blacklist"
	"github.com/bl4ck0w1/dnsatlas/internal/graph"
	"github.com/bl4ck0w1/dnsatlas/pkg/models"
	"github.com/bl4ck0w1/dnsatlas/pkg/utils"
)

// Lookuper is the engine's view of the resolver. Implementations return an
// empty slice for NXDOMAIN/SERVFAIL/timeouts and an error only for
// responses that could not be interpreted.
type Lookuper interface {
	Lookup(ctx context.Context, domain, recordType string) ([]models.DNSRecord, error)
}

type Engine struct {
	cfg     models.Config
	lookup  Lookuper
	rules   *blacklist.RuleSet
	words   []string
	logger  *logrus.Logger
	metrics *utils.MetricsCollector
}

// NewEngine validates the configuration and builds an engine. The rule
// set is assembled here once: default patterns (unless disabled) merged
// with user exclusions. All errors returned are *models.ConfigError.
func NewEngine(cfg models.Config, lookup Lookuper, logger *logrus.Logger, metrics *utils.MetricsCollector) (*Engine, error) {
	if logger == nil {
		logger = logrus.New()
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rules, err := buildRules(cfg)
	if err != nil {
		return nil, err
	}

	var words []string
	if cfg.WordlistFile != "" {
		if words, err = loadWordlist(cfg.WordlistFile); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		cfg:     cfg,
		lookup:  lookup,
		rules:   rules,
		words:   words,
		logger:  logger,
		metrics: metrics,
	}
	e.registerMetrics()
	return e, nil
}

func buildRules(cfg models.Config) (*blacklist.RuleSet, error) {
	user := blacklist.New(cfg.Exclude)
	if !cfg.DefaultBlacklist {
		return user, nil
	}
	base := blacklist.Default()
	if cfg.BlacklistFile != "" {
		loaded, err := blacklist.LoadFile(cfg.BlacklistFile)
		if err != nil {
			return nil, err
		}
		base = loaded
	}
	return base.Merge(user), nil
}

// Crawl explores the DNS-reachable graph rooted at root. Layer D is fully
// drained before layer D+1 is dispatched, which keeps depth assignment
// deterministic regardless of worker count. Every dequeued domain is
// queried; discovered targets become nodes and frontier entries only if
// they are not blacklisted, stay within the depth bound, and win the
// visited check-and-set.
func (e *Engine) Crawl(ctx context.Context, root string) (*graph.Graph, error) {
	root = utils.NormalizeHost(root)
	if !utils.IsValidDomain(root) {
		return nil, &models.ConfigError{Field: "domain", Reason: "not a valid domain name: " + root}
	}

	g := graph.New(root)
	g.AddNode(root, graph.KindDomain, 0, "root")

	pool := NewPool(e.cfg.Workers, e.logger)
	defer pool.Stop()

	frontier := []string{root}
	for depth := 0; depth <= e.cfg.MaxDepth && len(frontier) > 0; depth++ {
		if ctx.Err() != nil {
			break
		}
		e.logger.Debugf("depth %d: expanding %d domains", depth, len(frontier))
		e.setGauge("dnsatlas_frontier_size", float64(len(frontier)), prometheus.Labels{"depth": strconv.Itoa(depth)})

		var (
			mu   sync.Mutex
			next []string
		)
		for _, domain := range frontier {
			domain, depth := domain, depth
			pool.Submit(func() {
				discovered := e.expandDomain(ctx, g, domain, depth)
				if len(discovered) > 0 {
					mu.Lock()
					next = append(next, discovered...)
					mu.Unlock()
				}
			})
		}
		pool.Wait()
		frontier = next
	}

	stats := g.Stats()
	e.setGauge("dnsatlas_graph_nodes", float64(stats.Domains+stats.IPs), nil)
	e.setGauge("dnsatlas_graph_edges", float64(stats.Edges), nil)
	return g, nil
}

// expandDomain queries one frontier domain and folds the answers into the
// graph. It returns the domains that entered the next BFS layer.
func (e *Engine) expandDomain(ctx context.Context, g *graph.Graph, domain string, depth int) []string {
	var enqueued []string
	for _, t := range e.collect(ctx, domain) {
		val := utils.NormalizeHost(t.value)
		if val == "" || val == domain {
			continue
		}

		if t.ip {
			if !e.cfg.IncludeIPs {
				continue
			}
			g.AddEdge(domain, val, t.relation, t.info)
			if depth+1 <= e.cfg.MaxDepth && g.AddNode(val, graph.KindIP, depth+1, string(t.relation)) {
				e.countDiscovered("ip")
			}
			continue
		}

		// The edge is always recorded for visibility; the node and its
		// expansion are what blacklisting and the depth bound suppress.
		g.AddEdge(domain, val, t.relation, t.info)

		if e.rules.Match(val) {
			e.logger.Debugf("  blacklisted, not expanding: %s", val)
			e.countBlacklisted()
			continue
		}
		if depth+1 > e.cfg.MaxDepth {
			continue
		}
		if g.AddNode(val, graph.KindDomain, depth+1, string(t.relation)) {
			e.logger.Debugf("  + %s (%s)", val, t.relation)
			e.countDiscovered("domain")
			enqueued = append(enqueued, val)
		}
	}
	return enqueued
}

// collect runs every enabled record type, plus the wordlist prober when
// configured, and returns the extracted candidate targets.
func (e *Engine) collect(ctx context.Context, domain string) []target {
	var targets []target
	for _, rt := range e.cfg.RecordTypes {
		if ctx.Err() != nil {
			return targets
		}
		start := time.Now()
		recs, err := e.lookup.Lookup(ctx, domain, rt)
		e.observeQueryDuration(rt, time.Since(start))
		switch {
		case err != nil:
			// Malformed answer: noted and absorbed, same as no data.
			e.logger.Debugf("  %s %s: %v", domain, rt, err)
			e.countQuery(rt, "error")
			continue
		case len(recs) == 0:
			e.countQuery(rt, "empty")
			continue
		default:
			e.countQuery(rt, "ok")
		}
		for _, rec := range recs {
			if ex := extractorFor(rec.Type); ex != nil {
				targets = append(targets, ex(rec)...)
			}
		}
	}
	if len(e.words) > 0 {
		targets = append(targets, e.probe(ctx, domain)...)
	}
	return targets
}

func (e *Engine) registerMetrics() {
	if e.metrics == nil {
		return
	}
	_ = e.metrics.RegisterCounter("dnsatlas_dns_queries_total", "DNS queries issued by the crawler", "type", "outcome")
	_ = e.metrics.RegisterCounter("dnsatlas_discovered_total", "Nodes added to the discovery graph", "kind")
	_ = e.metrics.RegisterCounter("dnsatlas_blacklisted_total", "Targets suppressed by the blacklist")
	_ = e.metrics.RegisterGauge("dnsatlas_frontier_size", "Frontier size per BFS depth", "depth")
	_ = e.metrics.RegisterHistogram("dnsatlas_query_duration_seconds", "Wall-clock time per DNS lookup", nil, "type")
	_ = e.metrics.RegisterGauge("dnsatlas_graph_nodes", "Total nodes in the finished graph")
	_ = e.metrics.RegisterGauge("dnsatlas_graph_edges", "Total edges in the finished graph")
}

func (e *Engine) countQuery(recordType, outcome string) {
	if e.metrics != nil {
		e.metrics.IncCounter("dnsatlas_dns_queries_total", 1, prometheus.Labels{"type": recordType, "outcome": outcome})
	}
}

func (e *Engine) countDiscovered(kind string) {
	if e.metrics != nil {
		e.metrics.IncCounter("dnsatlas_discovered_total", 1, prometheus.Labels{"kind": kind})
	}
}

func (e *Engine) observeQueryDuration(recordType string, d time.Duration) {
	if e.metrics != nil {
		e.metrics.ObserveHistogram("dnsatlas_query_duration_seconds", d.Seconds(), prometheus.Labels{"type": recordType})
	}
}

func (e *Engine) countBlacklisted() {
	if e.metrics != nil {
		e.metrics.IncCounter("dnsatlas_blacklisted_total", 1, nil)
	}
}

func (e *Engine) setGauge(name string, v float64, labels prometheus.Labels) {
	if e.metrics != nil {
		e.metrics.SetGauge(name, v, labels)
	}
}
