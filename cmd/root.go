package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sitemap-terms/internal/config"
	"sitemap-terms/pkg/logger"
)

type globalOptions struct {
	configPath string
	verbose    bool
}

// NewRootCmd builds the CLI. Without a subcommand it runs a scan.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	scan := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "sitemap-terms",
		Short: "Find sitemap URLs that contain search terms",
		Long: `sitemap-terms reads a list of domains and a list of terms, resolves each
domain's sitemap.xml (following nested sitemap indexes) and reports, per term,
every listed URL that contains the term. Domains whose sitemap could not be
resolved are listed at the end of the report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, scan)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./config.yaml or "+config.ConfigDir()+"/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	addScanFlags(cmd, scan)

	cmd.AddCommand(newScanCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig binds the given flags, loads the config and installs the
// configured logger as the global one.
func loadConfig(cmd *cobra.Command, opts *globalOptions, bindings map[string]string) (*config.Config, error) {
	m := config.NewManager()
	if err := m.BindFlags(cmd.Flags(), bindings); err != nil {
		return nil, err
	}
	cfg, err := m.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		cfg.Logger.Level = "debug"
	}
	logger.SetLogger(logger.New(cfg.LoggerConfig()))

	if used := m.ConfigFileUsed(); used != "" {
		logger.WithField("path", used).Debug("Config file loaded")
	}
	return cfg, nil
}
