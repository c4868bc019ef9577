package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sitemap-terms/internal/config"
	"sitemap-terms/pkg/input"
	"sitemap-terms/pkg/logger"
	"sitemap-terms/pkg/parser"
	"sitemap-terms/pkg/report"
	"sitemap-terms/pkg/resolver"
	"sitemap-terms/pkg/scanner"
	"sitemap-terms/pkg/storage"
)

type scanOptions struct {
	store string
}

var scanBindings = map[string]string{
	"domains": "input.domains",
	"terms":   "input.terms",
	"output":  "output.path",
	"format":  "output.format",
	"workers": "worker.max_workers",
	"timeout": "fetch.timeout",
}

func addScanFlags(cmd *cobra.Command, opts *scanOptions) {
	flags := cmd.Flags()
	flags.StringP("domains", "d", "domains.txt", "path of the file with the domain list")
	flags.StringP("terms", "t", "terms.txt", "path of the file with the term list")
	flags.StringP("output", "o", "output.txt", "path where the report is written")
	flags.StringP("format", "f", "", "report format: "+report.FormatNames()+" (default: from the output extension)")
	flags.IntP("workers", "w", 8, "number of domains resolved concurrently")
	flags.Duration("timeout", 0, "per request fetch timeout (default 30s)")
	flags.StringVar(&opts.store, "store", "", "also save the run into this SQLite database")
}

func newScanCmd(global *globalOptions) *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Resolve sitemaps and write the term report (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, global, opts)
		},
	}
	addScanFlags(cmd, opts)
	return cmd
}

func runScan(cmd *cobra.Command, global *globalOptions, opts *scanOptions) error {
	bindings := make(map[string]string, len(scanBindings))
	for name, key := range scanBindings {
		if cmd.Flags().Changed(name) {
			bindings[name] = key
		}
	}
	cfg, err := loadConfig(cmd, global, bindings)
	if err != nil {
		return err
	}
	if opts.store != "" {
		cfg.Storage.Driver, cfg.Storage.Path = storage.DriverSQLite, opts.store
	}

	domains, err := input.ReadDomains(cfg.Input.Domains)
	if err != nil {
		return err
	}
	terms, err := input.ReadTerms(cfg.Input.Terms)
	if err != nil {
		return err
	}
	format, err := outputFormat(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Scraping websites...")

	ctx, cancel := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := newScanner(cfg)
	rep, err := s.Scan(ctx, domains, terms)
	if err != nil {
		return fmt.Errorf("scan aborted: %w", err)
	}

	if err := report.WriteFile(cfg.Output.Path, format, rep); err != nil {
		return err
	}
	if storage.Persistent(cfg.Storage.Driver) {
		if err := saveRun(ctx, cfg, rep); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "\n...Done!")
	fmt.Fprintln(out)
	if n := len(rep.Failed); n != 0 {
		fmt.Fprintf(out, "Unfortunately, %d website(s) need(s) to be analyzed manually/separately\n", n)
		fmt.Fprintln(out, "Check the end of the output file for more details")
	}
	return nil
}

func outputFormat(cfg *config.Config) (report.Format, error) {
	if cfg.Output.Format != "" {
		return report.ParseFormat(cfg.Output.Format)
	}
	return report.FormatFromPath(cfg.Output.Path), nil
}

func newScanner(cfg *config.Config) *scanner.Scanner {
	client := parser.NewHTTPClient(cfg.HTTPClientConfig())
	r := resolver.New(client, cfg.ResolverConfig())
	return scanner.New(r, cfg.ScannerConfig())
}

func saveRun(ctx context.Context, cfg *config.Config, rep *scanner.Report) error {
	store, err := storage.Open(cfg.StorageConfig())
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer store.Close()

	if err := store.SaveRun(ctx, rep); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	logger.WithFields(map[string]interface{}{
		"run_id": rep.RunID,
		"path":   cfg.Storage.Path,
	}).Info("Run stored")
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
