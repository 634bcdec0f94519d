package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bl4ck0w1/dnsatlas/internal/crawler"
	"github.com/bl4ck0w1/dnsatlas/internal/report"
	"github.com/bl4ck0w1/dnsatlas/internal/resolver"
	"github.com/bl4ck0w1/dnsatlas/pkg/models"
	"github.com/bl4ck0w1/dnsatlas/pkg/utils"
)

func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [domain]",
		Short: "Map the DNS footprint of a domain",
		Long: `Recursively discover domains related to the target by following its DNS
records (CNAME, NS, MX, TXT/SPF includes) outward, bounded by depth and
worker count, with known CDN/cloud infrastructure filtered out.`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}

	cmd.Flags().IntP("depth", "d", 2, "Recursion depth")
	cmd.Flags().IntP("workers", "p", 5, "Concurrent DNS workers")
	cmd.Flags().StringSliceP("exclude", "e", nil, "Extra hostname patterns to exclude from expansion")
	cmd.Flags().Bool("no-blacklist", false, "Disable the built-in infrastructure blacklist")
	cmd.Flags().String("blacklist-file", "", "Pattern file replacing the built-in blacklist")
	cmd.Flags().IntP("timeout", "t", 2, "Per-query timeout in seconds")
	cmd.Flags().Int("retries", 1, "Retries per transient query failure")
	cmd.Flags().StringSliceP("nameservers", "n", nil, "Nameservers to query (default: system resolvers)")
	cmd.Flags().Float64("rate-limit", 50, "Maximum DNS queries per second")
	cmd.Flags().StringSlice("record-types", nil, "Record types to follow (default: A,AAAA,CNAME,NS,MX,TXT)")
	cmd.Flags().Bool("no-ips", false, "Leave A/AAAA targets out of the graph")
	cmd.Flags().StringP("wordlist", "w", "", "Wordlist for subdomain probing (off by default)")
	cmd.Flags().BoolP("verbose", "v", false, "Verbose mode (debug logging)")
	cmd.Flags().Bool("markdown", false, "Write a Markdown report")
	cmd.Flags().Bool("dot", false, "Write a Graphviz DOT graph")
	cmd.Flags().Bool("json", false, "Write a JSON export")
	cmd.Flags().StringP("output", "o", "", "Output directory for reports")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address during the scan")
	cmd.Flags().String("profile", "", "YAML scan profile; explicit flags take precedence")

	for _, name := range []string{
		"depth", "workers", "exclude", "no-blacklist", "blacklist-file", "timeout",
		"retries", "nameservers", "rate-limit", "record-types", "no-ips", "wordlist",
		"verbose", "markdown", "dot", "json", "output", "metrics-addr", "profile",
	} {
		_ = viper.BindPFlag("scan."+name, cmd.Flags().Lookup(name))
	}
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	domain := utils.NormalizeHost(args[0])
	if !utils.IsValidDomain(domain) {
		return &models.ConfigError{Field: "domain", Reason: fmt.Sprintf("not a valid domain name: %q", args[0])}
	}

	cfg := models.DefaultConfig()
	profile := viper.GetString("scan.profile")
	if profile != "" {
		if err := cfg.Load(profile); err != nil {
			return err
		}
	}

	// With a profile loaded, only flags the user actually set override it.
	set := func(name string) bool { return profile == "" || cmd.Flags().Changed(name) }
	if set("depth") {
		cfg.MaxDepth = viper.GetInt("scan.depth")
	}
	if set("workers") {
		cfg.Workers = viper.GetInt("scan.workers")
	}
	if set("timeout") {
		cfg.QueryTimeout = time.Duration(viper.GetInt("scan.timeout")) * time.Second
	}
	if set("retries") {
		cfg.RetryAttempts = viper.GetInt("scan.retries")
	}
	if set("nameservers") {
		cfg.Nameservers = viper.GetStringSlice("scan.nameservers")
	}
	if set("record-types") {
		cfg.RecordTypes = viper.GetStringSlice("scan.record-types")
	}
	if set("rate-limit") {
		cfg.RateLimit = viper.GetFloat64("scan.rate-limit")
	}
	if set("exclude") {
		cfg.Exclude = viper.GetStringSlice("scan.exclude")
	}
	if set("blacklist-file") {
		cfg.BlacklistFile = viper.GetString("scan.blacklist-file")
	}
	if set("no-blacklist") {
		cfg.DefaultBlacklist = !viper.GetBool("scan.no-blacklist")
	}
	if set("no-ips") {
		cfg.IncludeIPs = !viper.GetBool("scan.no-ips")
	}
	if set("wordlist") {
		cfg.WordlistFile = viper.GetString("scan.wordlist")
	}
	if set("verbose") {
		cfg.Verbose = viper.GetBool("scan.verbose")
	}
	if cfg.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("received interrupt, stopping scan...")
		cancel()
	}()

	logger := logrus.StandardLogger()

	var metrics *utils.MetricsCollector
	if addr := viper.GetString("scan.metrics-addr"); addr != "" {
		metrics = utils.NewMetricsCollector(true)
		go func() {
			if err := metrics.StartServerWithContext(ctx, addr); err != nil {
				logger.Warnf("metrics server: %v", err)
			}
		}()
	}

	res := resolver.New(cfg.Nameservers, cfg.QueryTimeout, cfg.RetryAttempts, cfg.RateLimit, logger)
	engine, err := crawler.NewEngine(cfg, res, logger, metrics)
	if err != nil {
		return err
	}

	logger.Infof("scanning %s (depth %d, %d workers)", domain, cfg.MaxDepth, cfg.Workers)
	start := time.Now()
	g, err := engine.Crawl(ctx, domain)
	if err != nil {
		return err
	}
	duration := time.Since(start)

	fmt.Print((&report.TextFormatter{}).Format(g))

	stats := g.Stats()
	result := models.ScanResult{
		ScanID:    fmt.Sprintf("scan_%s_%s", domain, start.Format("20060102_150405")),
		Root:      domain,
		StartedAt: start,
		Duration:  duration,
		Domains:   stats.Domains,
		IPs:       stats.IPs,
		Edges:     stats.Edges,
		Config:    cfg,
	}

	outputDir := viper.GetString("scan.output")
	if outputDir == "" {
		outputDir = viper.GetString("output_directory")
	}
	if viper.GetBool("scan.markdown") || viper.GetBool("scan.dot") || viper.GetBool("scan.json") {
		writer, err := report.NewWriter(outputDir, logger)
		if err != nil {
			return err
		}
		if viper.GetBool("scan.markdown") {
			if _, err := writer.WriteMarkdown(g); err != nil {
				return err
			}
		}
		if viper.GetBool("scan.dot") {
			if _, err := writer.WriteDot(g); err != nil {
				return err
			}
		}
		if viper.GetBool("scan.json") {
			if _, err := writer.WriteJSON(g, result); err != nil {
				return err
			}
		}
	}

	logger.Infof("scan finished in %s: %d domains, %d IPs, %d relations",
		duration.Round(time.Millisecond), stats.Domains, stats.IPs, stats.Edges)
	return nil
}
