package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"sentirec/internal/app"
	"sentirec/internal/catalog"
	"sentirec/internal/config"
	"sentirec/internal/embedding"
	"sentirec/internal/httpapi"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFiles   []string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	var (
		g   globalFlags
		cfg config.Config
	)
	root := &cobra.Command{
		Use:           "sentirec",
		Short:         "Sentiment prediction and product recommendation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (.yaml, .json or .toml)")
	root.PersistentFlags().StringSliceVar(&g.envFiles, "env-file", nil, "Dotenv files to load before reading the environment (default .env)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: trace|debug|info|warn|error (defaults SENTIREC_LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format: console|json (defaults SENTIREC_LOG_FORMAT or console)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(g)
		if err != nil {
			return err
		}
		cfg = c
		return setupLogging(cfg.Log)
	}

	root.AddCommand(newServeCmd(&cfg), newIndexCmd(&cfg), newVersionCmd())
	return root
}

// loadConfig applies defaults, then the config file, the environment and flags.
func loadConfig(g globalFlags) (config.Config, error) {
	if err := config.LoadDotEnv(g.envFiles...); err != nil {
		return config.Config{}, err
	}
	cfg := config.Default()
	if g.configPath != "" {
		c, err := config.Load(g.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	if err := config.FromEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	return cfg, nil
}

func setupLogging(lc config.LogConfig) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(lc.Level))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if strings.EqualFold(lc.Format, "json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	return nil
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	var (
		addr        string
		corsOrigins string
	)
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API",
		Example: "  sentirec serve --addr :8080\n  MODEL_PATH=./model QDRANT_HOST=localhost sentirec serve",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("cors-origins") {
				cfg.Server.CORSEnabled = true
				cfg.Server.CORSOrigins = config.SplitCSV(corsOrigins)
			}
			return serve(cmd.Context(), *cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address, e.g. :8080 (defaults SENTIREC_ADDR or :8080)")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins; enables CORS")
	return cmd
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.WithLogger(log.Logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("close components")
		}
	}()

	httpapi.SetLogger(log.Logger)
	httpapi.SetDefaultLogLevel(cfg.Log.Level)
	httpapi.SetMaxBodyBytes(cfg.Server.MaxBodyBytes)
	httpapi.SetRequestTimeoutSeconds(cfg.Server.RequestTimeoutSeconds)
	httpapi.SetCORSOptions(cfg.Server.CORSEnabled, cfg.Server.CORSOrigins, nil, nil)
	httpapi.SetRateLimit(cfg.Server.RateLimitRequests, time.Duration(cfg.Server.RateLimitWindowSecs)*time.Second)
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewMux(a.Service),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Bool("ready", a.Service.Ready()).Msg("sentirec listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

func newIndexCmd(cfg *config.Config) *cobra.Command {
	var (
		catalogPath string
		batchSize   int
		workers     int
	)
	cmd := &cobra.Command{
		Use:     "index",
		Short:   "Embed a product catalogue and store it in the vector store",
		Example: "  sentirec index --catalog products.jsonl --batch-size 64 --workers 4",
		RunE: func(cmd *cobra.Command, args []string) error {
			if catalogPath == "" {
				return errors.New("--catalog is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			products, err := catalog.Load(catalogPath)
			if err != nil {
				return err
			}
			ix, closeFn, err := app.Indexer(ctx, *cfg, batchSize, workers, log.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			res, err := ix.Index(ctx, products)
			if err != nil {
				return fmt.Errorf("indexed %d of %d products: %w", res.Products, len(products), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d products in %d batches (%s)\n", res.Products, res.Batches, res.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Product catalogue: JSON Lines or a JSON array of {product_id, product_title, description}")
	cmd.Flags().IntVar(&batchSize, "batch-size", catalog.DefaultBatchSize, "Products embedded per batch")
	cmd.Flags().IntVar(&workers, "workers", catalog.DefaultWorkers, "Concurrent embedding workers")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			backends := []string{config.EmbeddingONNX, config.EmbeddingOpenAI}
			if embedding.LlamaAvailable() {
				backends = append(backends, config.EmbeddingLlama)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sentirec", version)
			fmt.Fprintln(cmd.OutOrStdout(), "embedding backends:", strings.Join(backends, ", "))
			return nil
		},
	}
}
