package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"sitemap-terms/internal/handler"
	"sitemap-terms/internal/service"
	"sitemap-terms/pkg/logger"
	"sitemap-terms/pkg/storage"
)

func newServeCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, global)
		},
	}
	cmd.Flags().String("host", "127.0.0.1", "listen host")
	cmd.Flags().IntP("port", "p", 8080, "listen port")
	cmd.Flags().String("storage-driver", "memory", "run store: memory or sqlite")
	cmd.Flags().String("storage-path", "", "SQLite database path")
	return cmd
}

func runServe(cmd *cobra.Command, global *globalOptions) error {
	bindings := map[string]string{}
	for name, key := range map[string]string{
		"host":           "server.host",
		"port":           "server.port",
		"storage-driver": "storage.driver",
		"storage-path":   "storage.path",
	} {
		if cmd.Flags().Changed(name) {
			bindings[name] = key
		}
	}
	cfg, err := loadConfig(cmd, global, bindings)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.StorageConfig())
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer store.Close()

	controller := handler.NewController(
		service.NewScanService(newScanner(cfg), store),
		handler.ControllerConfig{MaxDomains: cfg.Server.MaxDomains},
	)

	ctx, cancel := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	errCh := make(chan error, 1)
	go func() {
		errCh <- controller.Listen(addr)
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log := logger.WithField("component", "serve")
	log.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := controller.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
