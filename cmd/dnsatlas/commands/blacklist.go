package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bl4ck0w1/dnsatlas/internal/blacklist"
)

// NewBlacklistCommand prints the effective rule set a scan would use, so
// the pattern merge can be inspected without issuing a single query.
func NewBlacklistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Show the effective exclusion patterns",
		RunE:  runBlacklist,
	}

	cmd.Flags().StringSliceP("exclude", "e", nil, "Extra hostname patterns to exclude")
	cmd.Flags().Bool("no-blacklist", false, "Disable the built-in infrastructure blacklist")
	cmd.Flags().String("blacklist-file", "", "Pattern file replacing the built-in blacklist")
	cmd.Flags().String("check", "", "Test a hostname against the rule set")

	_ = viper.BindPFlag("blacklist.exclude", cmd.Flags().Lookup("exclude"))
	_ = viper.BindPFlag("blacklist.no_blacklist", cmd.Flags().Lookup("no-blacklist"))
	_ = viper.BindPFlag("blacklist.file", cmd.Flags().Lookup("blacklist-file"))
	_ = viper.BindPFlag("blacklist.check", cmd.Flags().Lookup("check"))
	return cmd
}

func runBlacklist(cmd *cobra.Command, args []string) error {
	rules := blacklist.New(viper.GetStringSlice("blacklist.exclude"))
	if !viper.GetBool("blacklist.no_blacklist") {
		base := blacklist.Default()
		if path := viper.GetString("blacklist.file"); path != "" {
			loaded, err := blacklist.LoadFile(path)
			if err != nil {
				return err
			}
			base = loaded
		}
		rules = base.Merge(rules)
	}

	if host := viper.GetString("blacklist.check"); host != "" {
		if rules.Match(host) {
			fmt.Printf("%s: blacklisted\n", host)
		} else {
			fmt.Printf("%s: not blacklisted\n", host)
		}
		return nil
	}

	fmt.Printf("# %d patterns\n", rules.Len())
	for _, p := range rules.Patterns() {
		fmt.Println(p)
	}
	return nil
}
