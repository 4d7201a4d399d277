// Package cli wires the ghlicense commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ghlicense/config"
	"ghlicense/logger"
	"ghlicense/metrics"
	"ghlicense/service"
)

var cfgFile string

// configKeyType is the key for storing the loaded Config in the context.
type configKeyType string

const configKey configKeyType = "config"

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var metricsServer *http.Server

	cmd := &cobra.Command{
		Use:   "ghlicense",
		Short: "Crawl GitHub repositories and classify their licenses.",
		Long: `ghlicense walks the public GitHub repository listing, stores every
repository with its license and README files in Postgres, and tags the stored
files with license abbreviations reported by the FOSSology nomos scanner.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := logger.Initialize(cfg.LogLevel); err != nil {
				return err
			}
			if cfg.MetricsAddr != "" {
				metricsServer = startMetrics(cfg.MetricsAddr)
			}

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},

		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if metricsServer != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = metricsServer.Shutdown(ctx)
			}
			logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (.env, yaml or json); environment variables override it")

	cmd.AddCommand(
		newCrawlCmd(),
		newClassifyCmd(),
		newReportCmd(),
		newExportCmd(),
		newCursorCmd(),
		newTagCmd(),
		newMigrateCmd(),
	)
	return cmd
}

// Execute runs the root command until it finishes or SIGINT/SIGTERM arrives.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		logger.Fatal("Command failed", zap.Error(err))
	}
}

// configFrom returns the Config stored by the root command.
func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// withService opens the service for the duration of fn.
func withService(cmd *cobra.Command, fn func(*service.Service) error) (err error) {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}
	svc, err := service.NewService(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := svc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(svc)
}

func startMetrics(addr string) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           metrics.NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Serving metrics", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	return server
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
