package commands

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bl4ck0w1/dnsatlas/internal/resolver"
	"github.com/bl4ck0w1/dnsatlas/pkg/models"
	"github.com/bl4ck0w1/dnsatlas/pkg/utils"
)

// NewResolveCommand is a one-shot lookup without any recursion: useful to
// sanity-check what the crawler would see for a single domain.
func NewResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [domain]",
		Short: "Resolve a single domain and print its records",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}

	cmd.Flags().StringSlice("types", []string{"A", "AAAA", "CNAME", "NS", "MX", "TXT"}, "Record types to query")
	cmd.Flags().StringSliceP("nameservers", "n", nil, "Nameservers to query (default: system resolvers)")
	cmd.Flags().IntP("timeout", "t", 2, "Per-query timeout in seconds")

	_ = viper.BindPFlag("resolve.types", cmd.Flags().Lookup("types"))
	_ = viper.BindPFlag("resolve.nameservers", cmd.Flags().Lookup("nameservers"))
	_ = viper.BindPFlag("resolve.timeout", cmd.Flags().Lookup("timeout"))
	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	domain := utils.NormalizeHost(args[0])
	if !utils.IsValidDomain(domain) {
		return &models.ConfigError{Field: "domain", Reason: fmt.Sprintf("not a valid domain name: %q", args[0])}
	}

	timeout := time.Duration(viper.GetInt("resolve.timeout")) * time.Second
	res := resolver.New(viper.GetStringSlice("resolve.nameservers"), timeout, 1, 50, logrus.StandardLogger())

	records := res.LookupAll(cmd.Context(), domain, viper.GetStringSlice("resolve.types"))
	if len(records) == 0 {
		fmt.Printf("%s: no records\n", domain)
		return nil
	}
	for _, rec := range records {
		fmt.Printf("%-8s %-6d %s\n", rec.Type, rec.TTL, rec.Value)
	}
	return nil
}
