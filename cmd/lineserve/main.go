package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/linewise/lineserve/internal/config"
	"github.com/linewise/lineserve/internal/engine"
	"github.com/linewise/lineserve/internal/server"
	"github.com/linewise/lineserve/internal/stats"
	"github.com/linewise/lineserve/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		port         int
		addr         string
		thresholdStr string
		forceDisk    bool
		indexDir     string
		verbose      bool
		quiet        bool
		logFile      string
		showVersion  bool
	)

	rootCmd := &cobra.Command{
		Use:   "lineserve [flags] <file>",
		Short: "Serve individual lines of a large immutable text file over HTTP",
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "lineserve %s\n", version)
				return nil
			}

			// Load optional config file.
			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults, &port, &addr, &thresholdStr, &forceDisk, &indexDir)

			// Configure logging.
			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			} else if quiet {
				logLevel = slog.LevelWarn
			}
			textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			var logHandler slog.Handler = textHandler
			if logFile != "" {
				lf, lfErr := os.Create(logFile)
				if lfErr != nil {
					return fmt.Errorf("open log file: %w", lfErr)
				}
				defer lf.Close()
				jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})
				logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
			}
			slog.SetDefault(slog.New(logHandler))

			threshold, err := config.ParseSize(thresholdStr)
			if err != nil {
				return fmt.Errorf("invalid --memory-threshold: %w", err)
			}

			listenAddr := addr
			if listenAddr == "" {
				listenAddr = fmt.Sprintf("127.0.0.1:%d", port)
			}

			// Build the index synchronously before accepting traffic.
			collector := stats.NewCollector()
			buildStart := time.Now()
			eng, err := engine.New(args[0], engine.Config{
				MemoryThreshold: threshold,
				ForceDisk:       forceDisk,
				IndexDir:        indexDir,
				Stats:           collector,
			})
			if err != nil {
				return err
			}
			defer eng.Close()

			elapsed := time.Since(buildStart)
			collector.SetBuildDuration(elapsed)
			rate := 0.0
			if secs := elapsed.Seconds(); secs > 0 {
				rate = float64(eng.Size()) / secs
			}
			slog.Info("index ready",
				"file", eng.Path(),
				"size", stats.FormatBytes(eng.Size()),
				"lines", eng.LineCount(),
				"mode", eng.Mode().String(),
				"read_method", eng.ReadMethod(),
				"elapsed", ui.FormatDuration(elapsed),
				"rate", ui.FormatRate(rate),
			)

			srv := server.New(server.Config{
				Addr:    listenAddr,
				Engine:  eng,
				Stats:   collector,
				Version: version,
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if serveErr := srv.Start(); serveErr != nil && serveErr != http.ErrServerClosed {
					return serveErr
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil {
				return err
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.Flags().IntVarP(&port, "port", "p", server.DefaultPort, "listen port")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides --port)")
	rootCmd.Flags().
		StringVar(&thresholdStr, "memory-threshold", "512M", "projected index size above which the disk index is used")
	rootCmd.Flags().
		BoolVar(&forceDisk, "force-disk", false, "always build the disk index, skipping estimation")
	rootCmd.Flags().
		StringVar(&indexDir, "index-dir", "", "directory for sidecar index files (default: next to the source)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except warnings")
	rootCmd.Flags().StringVar(&logFile, "log", "", "write structured JSON log to FILE")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	port *int,
	addr *string,
	threshold *string,
	forceDisk *bool,
	indexDir *string,
) {
	if !cmd.Flags().Changed("port") && defaults.Port != nil {
		*port = *defaults.Port
	}
	if !cmd.Flags().Changed("addr") && defaults.Addr != nil {
		*addr = *defaults.Addr
	}
	if !cmd.Flags().Changed("memory-threshold") && defaults.MemoryThreshold != nil {
		*threshold = *defaults.MemoryThreshold
	}
	if !cmd.Flags().Changed("force-disk") && defaults.ForceDisk != nil {
		*forceDisk = *defaults.ForceDisk
	}
	if !cmd.Flags().Changed("index-dir") && defaults.IndexDir != nil {
		*indexDir = *defaults.IndexDir
	}
}
