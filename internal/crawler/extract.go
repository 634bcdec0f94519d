package crawler

import (
	"strings"

	"github.com/bl4ck0w1/dnsatlas/internal/graph"
	"github.com/bl4ck0w1/dnsatlas/pkg/models"
	"github.com/bl4ck0w1/dnsatlas/pkg/utils"
)

// target is one candidate hostname or address pulled out of a DNS answer.
type target struct {
	value    string
	ip       bool
	relation graph.Relation
	info     string
}

// An extractor pulls candidate targets out of one DNS record. Keyed by
// answer record type so that, say, a CNAME answer to an A query still goes
// through the CNAME extractor.
type extractor func(rec models.DNSRecord) []target

var extractors = map[string]extractor{
	"A":     extractAddr(graph.RelA),
	"AAAA":  extractAddr(graph.RelAAAA),
	"CNAME": extractHost(graph.RelCNAME),
	"NS":    extractHost(graph.RelNS),
	"MX":    extractMX,
	"TXT":   extractSPF,
}

func extractorFor(recordType string) extractor {
	return extractors[strings.ToUpper(recordType)]
}

func extractAddr(rel graph.Relation) extractor {
	return func(rec models.DNSRecord) []target {
		addr := strings.TrimSpace(rec.Value)
		if !utils.IsValidIP(addr) {
			return nil
		}
		return []target{{value: addr, ip: true, relation: rel}}
	}
}

func extractHost(rel graph.Relation) extractor {
	return func(rec models.DNSRecord) []target {
		host := utils.NormalizeHost(rec.Value)
		if host == "" {
			return nil
		}
		return []target{{value: host, relation: rel}}
	}
}

// MX values carry a preference before the exchanger ("10 mail.example.com").
func extractMX(rec models.DNSRecord) []target {
	fields := strings.Fields(rec.Value)
	if len(fields) == 0 {
		return nil
	}
	host := utils.NormalizeHost(fields[len(fields)-1])
	if host == "" {
		return nil
	}
	info := ""
	if len(fields) > 1 {
		info = "preference " + fields[0]
	}
	return []target{{value: host, relation: graph.RelMX, info: info}}
}

// extractSPF scans TXT records for SPF policies and pulls the referenced
// domains out of include: and redirect= directives. Other TXT content
// (verification tokens, DKIM selectors) names no hosts worth following.
func extractSPF(rec models.DNSRecord) []target {
	txt := strings.TrimSpace(rec.Value)
	if !strings.HasPrefix(strings.ToLower(txt), "v=spf1") {
		return nil
	}

	var targets []target
	for _, token := range strings.Fields(txt)[1:] {
		token = strings.ToLower(token)
		var host string
		switch {
		case strings.HasPrefix(token, "include:"):
			host = strings.TrimPrefix(token, "include:")
		case strings.HasPrefix(token, "redirect="):
			host = strings.TrimPrefix(token, "redirect=")
		default:
			continue
		}
		host = utils.NormalizeHost(host)
		if host == "" || strings.ContainsAny(host, "%{}") {
			// SPF macros cannot be resolved statically.
			continue
		}
		targets = append(targets, target{value: host, relation: graph.RelTXT, info: "spf"})
	}
	return targets
}
