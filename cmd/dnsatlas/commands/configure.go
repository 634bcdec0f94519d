package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bl4ck0w1/dnsatlas/pkg/models"
)

func NewConfigureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Manage scan profiles",
		Long: `Manage dnsatlas scan profiles: initialize a profile with default
values, or show what a profile resolves to. Profiles are YAML files
usable with "scan --profile".`,
	}

	cmd.AddCommand(newConfigureInitCommand())
	cmd.AddCommand(newConfigureShowCommand())
	cmd.AddCommand(newConfigureListCommand())
	return cmd
}

func newConfigureInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [profile]",
		Short: "Write a scan profile with default values",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigureInit,
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing profile")
	return cmd
}

func newConfigureShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [profile]",
		Short: "Show the effective values of a scan profile",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigureShow,
	}
}

func newConfigureListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scan profiles in the config directory",
		RunE:  runConfigureList,
	}
}

func runConfigureInit(cmd *cobra.Command, args []string) error {
	path, err := profilePath(args)
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("profile already exists: %s (use --force to overwrite)", path)
	}

	cfg := models.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		return err
	}
	logrus.Infof("profile written: %s", path)
	return nil
}

func runConfigureShow(cmd *cobra.Command, args []string) error {
	path, err := profilePath(args)
	if err != nil {
		return err
	}

	cfg := models.DefaultConfig()
	if err := cfg.Load(path); err != nil {
		return err
	}
	cfg.Normalize()

	fmt.Printf("Profile: %s\n", path)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Depth:\t%d\n", cfg.MaxDepth)
	fmt.Fprintf(w, "  Workers:\t%d\n", cfg.Workers)
	fmt.Fprintf(w, "  Query Timeout:\t%s\n", cfg.QueryTimeout)
	fmt.Fprintf(w, "  Retries:\t%d\n", cfg.RetryAttempts)
	fmt.Fprintf(w, "  Rate Limit:\t%.1f qps\n", cfg.RateLimit)
	fmt.Fprintf(w, "  Record Types:\t%s\n", strings.Join(cfg.RecordTypes, ","))
	fmt.Fprintf(w, "  Nameservers:\t%v\n", cfg.Nameservers)
	fmt.Fprintf(w, "  Default Blacklist:\t%t\n", cfg.DefaultBlacklist)
	fmt.Fprintf(w, "  Blacklist File:\t%s\n", cfg.BlacklistFile)
	fmt.Fprintf(w, "  Exclude:\t%v\n", cfg.Exclude)
	fmt.Fprintf(w, "  Include IPs:\t%t\n", cfg.IncludeIPs)
	fmt.Fprintf(w, "  Wordlist:\t%s\n", cfg.WordlistFile)
	return w.Flush()
}

func runConfigureList(cmd *cobra.Command, args []string) error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logrus.Info("no profiles found; run 'dnsatlas configure init' to create one")
		return nil
	}
	for _, f := range files {
		fmt.Println(strings.TrimSuffix(filepath.Base(f), ".yaml"))
	}
	return nil
}

// profilePath resolves an argument to a profile file: a bare name maps
// into the config directory, anything with a path separator or .yaml
// suffix is used as-is.
func profilePath(args []string) (string, error) {
	name := "default"
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		name = strings.TrimSpace(args[0])
	}
	if strings.ContainsRune(name, os.PathSeparator) || strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return name, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".yaml"), nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".dnsatlas"), nil
}
