// Package resolver wraps miekg/dns queries with timeouts, retries, rate
// limiting and error classification. It knows nothing about recursion;
// the crawler decides what to do with the answers.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	mdns "github.com/miekg/dns"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/idna"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bl4ck0w1/dnsatlas/pkg/models"
)

// ErrMalformed marks responses that could not be interpreted at all (nil
// or unparseable). Callers log it and move on; it never aborts a scan.
var ErrMalformed = errors.New("malformed DNS response")

var typeCodes = map[string]uint16{
	"A":     mdns.TypeA,
	"AAAA":  mdns.TypeAAAA,
	"CNAME": mdns.TypeCNAME,
	"NS":    mdns.TypeNS,
	"MX":    mdns.TypeMX,
	"TXT":   mdns.TypeTXT,
}

type Resolver struct {
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
	udpClient  *mdns.Client
	tcpClient  *mdns.Client
	logger     *logrus.Logger

	mu          sync.Mutex
	servers     []string
	rotateIndex int
}

func New(servers []string, timeout time.Duration, maxRetries int, qps float64, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}
	if len(servers) == 0 {
		servers = systemResolvers()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if qps <= 0 {
		qps = 50
	}
	burst := int(qps)
	if burst < 1 {
		burst = 1
	}

	udp := &mdns.Client{
		Net:          "udp",
		Timeout:      timeout,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		UDPSize:      1232,
	}
	tcp := &mdns.Client{
		Net:          "tcp",
		Timeout:      timeout,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	return &Resolver{
		servers:    normalizeServers(servers),
		timeout:    timeout,
		maxRetries: maxRetries,
		limiter:    rate.NewLimiter(rate.Limit(qps), burst),
		udpClient:  udp,
		tcpClient:  tcp,
		logger:     logger,
	}
}

// Lookup resolves one record type for one domain. NXDOMAIN, SERVFAIL and
// timeouts come back as an empty slice with a nil error; only malformed
// responses surface as ErrMalformed.
func (r *Resolver) Lookup(ctx context.Context, domain, recordType string) ([]models.DNSRecord, error) {
	qtype, ok := typeCodes[strings.ToUpper(recordType)]
	if !ok {
		return nil, fmt.Errorf("unsupported record type %q", recordType)
	}

	asciiDomain, err := idna.ToASCII(strings.TrimSpace(domain))
	if err != nil || asciiDomain == "" {
		return nil, fmt.Errorf("invalid domain %q: %w", domain, err)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var records []models.DNSRecord
	err = retryWithBackoff(ctx, r.maxRetries, r.timeout/4, func() error {
		recs, qerr := r.query(ctx, asciiDomain, qtype)
		if qerr != nil {
			return qerr
		}
		records = recs
		return nil
	})
	if err != nil {
		if isNoData(err) {
			r.logger.Debugf("no data for %s %s: %v", asciiDomain, recordType, err)
			return nil, nil
		}
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		// Network-level failure after retries: classified as no data.
		r.logger.Debugf("lookup %s %s failed: %v", asciiDomain, recordType, err)
		return nil, nil
	}
	return records, nil
}

// LookupAll fans out over the given record types with one goroutine each.
// Per-type failures are absorbed; the merged answer set is returned.
func (r *Resolver) LookupAll(ctx context.Context, domain string, recordTypes []string) []models.DNSRecord {
	var (
		mu      sync.Mutex
		results []models.DNSRecord
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, rt := range recordTypes {
		rt := rt
		g.Go(func() error {
			recs, err := r.Lookup(ctx, domain, rt)
			if err != nil {
				r.logger.Debugf("discarding %s response for %s: %v", rt, domain, err)
				return nil
			}
			mu.Lock()
			results = append(results, recs...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Resolver) query(ctx context.Context, domain string, qtype uint16) ([]models.DNSRecord, error) {
	msg := new(mdns.Msg)
	msg.SetQuestion(mdns.Fqdn(domain), qtype)
	msg.RecursionDesired = true
	msg.SetEdns0(1232, false)

	server := r.selectServer()
	resp, _, err := r.udpClient.ExchangeContext(ctx, msg, server)
	if err != nil {
		return r.queryTCP(ctx, msg, server)
	}
	if resp == nil {
		return nil, ErrMalformed
	}
	if resp.Truncated {
		return r.queryTCP(ctx, msg, server)
	}
	return r.interpret(resp, domain, qtype)
}

func (r *Resolver) queryTCP(ctx context.Context, msg *mdns.Msg, server string) ([]models.DNSRecord, error) {
	resp, _, err := r.tcpClient.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, fmt.Errorf("dns exchange with %s: %w", server, err)
	}
	if resp == nil {
		return nil, ErrMalformed
	}
	q := msg.Question[0]
	return r.interpret(resp, strings.TrimSuffix(q.Name, "."), q.Qtype)
}

func (r *Resolver) interpret(resp *mdns.Msg, domain string, qtype uint16) ([]models.DNSRecord, error) {
	switch resp.Rcode {
	case mdns.RcodeSuccess:
	case mdns.RcodeNameError, mdns.RcodeServerFailure, mdns.RcodeRefused:
		return nil, &noDataError{rcode: resp.Rcode}
	default:
		return nil, fmt.Errorf("%w: rcode %s", ErrMalformed, mdns.RcodeToString[resp.Rcode])
	}

	out := make([]models.DNSRecord, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		if rr == nil {
			continue
		}
		if rec := parseRecord(rr, domain); rec != nil {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func parseRecord(rr mdns.RR, domain string) *models.DNSRecord {
	trimDot := func(s string) string { return strings.TrimSuffix(s, ".") }

	record := &models.DNSRecord{
		Domain: domain,
		Type:   mdns.TypeToString[rr.Header().Rrtype],
		TTL:    rr.Header().Ttl,
	}

	switch rr := rr.(type) {
	case *mdns.A:
		record.Value = rr.A.String()
	case *mdns.AAAA:
		record.Value = rr.AAAA.String()
	case *mdns.CNAME:
		record.Value = trimDot(rr.Target)
	case *mdns.NS:
		record.Value = trimDot(rr.Ns)
	case *mdns.MX:
		record.Value = fmt.Sprintf("%d %s", rr.Preference, trimDot(rr.Mx))
	case *mdns.TXT:
		record.Value = strings.Join(rr.Txt, "")
	default:
		return nil
	}
	return record
}

func (r *Resolver) selectServer() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.servers) == 0 {
		r.servers = systemResolvers()
	}
	server := r.servers[r.rotateIndex%len(r.servers)]
	r.rotateIndex = (r.rotateIndex + 1) % len(r.servers)
	return server
}

func (r *Resolver) SetServers(servers []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers = normalizeServers(servers)
	r.rotateIndex = 0
}

func (r *Resolver) Servers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]string, len(r.servers))
	copy(cp, r.servers)
	return cp
}

// noDataError carries the rcodes that mean "this domain has nothing for
// you" rather than "the query went wrong".
type noDataError struct {
	rcode int
}

func (e *noDataError) Error() string {
	return fmt.Sprintf("no data: %s", mdns.RcodeToString[e.rcode])
}

func isNoData(err error) bool {
	var nd *noDataError
	return errors.As(err, &nd)
}

func normalizeServers(servers []string) []string {
	out := make([]string, 0, len(servers))
	for _, s := range servers {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !strings.Contains(s, ":") {
			s = net.JoinHostPort(s, "53")
		}
		out = append(out, s)
	}
	return out
}

func systemResolvers() []string {
	cfg, err := mdns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || cfg == nil || len(cfg.Servers) == 0 {
		return []string{
			"1.1.1.1:53",
			"8.8.8.8:53",
			"9.9.9.9:53",
		}
	}
	servers := make([]string, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		servers = append(servers, net.JoinHostPort(s, "53"))
	}
	return servers
}
