// ABOUTME: Entry point for the lead quality scoring dashboard.
// ABOUTME: Wires config, store, cache and handlers behind cobra commands.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/2389/leadscore/internal/api"
	"github.com/2389/leadscore/internal/config"
	"github.com/2389/leadscore/internal/export"
	"github.com/2389/leadscore/internal/leads"
	"github.com/2389/leadscore/internal/logging"
	"github.com/2389/leadscore/internal/report"
	"github.com/2389/leadscore/internal/seed"
	"github.com/2389/leadscore/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cliFlags holds flag values shared by the subcommands.
type cliFlags struct {
	configPath string
	port       int
	dbPath     string
	count      int
	seed       int64
	topN       int
	format     string
	output     string
	asJSON     bool
	dryRun     bool
	force      bool
}

func newRootCmd() *cobra.Command {
	f := &cliFlags{}

	rootCmd := &cobra.Command{
		Use:   "leadscore",
		Short: "Lead quality scoring dashboard",
		Long: `leadscore generates synthetic B2B leads, scores each contact's email
quality from 0 to 100 and shows the results as a dashboard.

Quick Start:
  leadscore serve                 # Dashboard on http://localhost:9000
  leadscore report --seed 42      # Same dashboard in the terminal
  leadscore generate --format csv # Export a dataset`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "YAML config file (default $LEADSCORE_CONFIG)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the dashboard and JSON API.

The server provides:
  • Dashboard at http://localhost:PORT/dashboard
  • Request log browser at http://localhost:PORT/dashboard/logs
  • JSON API under http://localhost:PORT/api
  • Prometheus metrics at http://localhost:PORT/metrics
  • Health check at http://localhost:PORT/healthz

Sessions:
  Each browser gets a session cookie and its own stable dataset. API clients
  can pick a session with: Authorization: Bearer session:NAME`,
		RunE: func(cmd *cobra.Command, _ []string) error { return runServe(cmd, f) },
	}
	serveCmd.Flags().IntVarP(&f.port, "port", "p", 9000, "Port to listen on")
	serveCmd.Flags().StringVarP(&f.dbPath, "db", "d", "", "Database path (default $LEADSCORE_DB_PATH or the XDG data dir)")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a dataset and export it",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runGenerate(cmd, f) },
	}
	generateCmd.Flags().IntVarP(&f.count, "count", "n", leads.DefaultCount, "Number of leads")
	generateCmd.Flags().Int64VarP(&f.seed, "seed", "s", 0, "Random seed (default: random)")
	generateCmd.Flags().StringVarP(&f.format, "format", "f", "json", "Output format: "+export.FormatNames())
	generateCmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file (default stdout)")

	scoreCmd := &cobra.Command{
		Use:   "score [file]",
		Short: "Score attribute sets read from a file or stdin",
		Long: `Score one JSON attribute object, or a JSON array of them.

Example:
  echo '{"type":"corporate","sources":5,"bounce":0,"last_updated_days":0,
         "verified_domain":true,"social_presence":true,"source_confidence":0.9}' | leadscore score`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScore,
	}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard in the terminal",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runReport(cmd, f) },
	}
	reportCmd.Flags().IntVarP(&f.count, "count", "n", leads.DefaultCount, "Number of leads")
	reportCmd.Flags().Int64VarP(&f.seed, "seed", "s", 0, "Random seed (default: random)")
	reportCmd.Flags().IntVarP(&f.topN, "top", "t", leads.DefaultTopN, "Leaderboard size")
	reportCmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the report as JSON")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete persisted datasets and request logs",
		Long: `Delete every persisted dataset snapshot and request log entry.

Sessions regenerate their datasets on the next request. This cannot be undone.`,
		RunE: func(cmd *cobra.Command, _ []string) error { return runReset(cmd, f) },
	}
	resetCmd.Flags().StringVarP(&f.dbPath, "db", "d", "", "Database path (default $LEADSCORE_DB_PATH or the XDG data dir)")
	resetCmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "List what would be deleted without deleting it")

	initConfigCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write the effective configuration to a YAML file",
		Long: `Write the configuration leadscore would run with (defaults, config file,
.env and environment applied) to a YAML file, leadscore.yaml by default.
The OpenAI API key is never written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error { return runInitConfig(cmd, f, args) },
	}
	initConfigCmd.Flags().BoolVar(&f.force, "force", false, "Overwrite an existing file")

	rootCmd.AddCommand(serveCmd, generateCmd, scoreCmd, reportCmd, resetCmd, initConfigCmd)
	return rootCmd
}

// loadConfig layers the command's explicitly set flags over the loaded configuration.
func loadConfig(cmd *cobra.Command, f *cliFlags) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("db") {
		cfg.DBPath = f.dbPath
	}
	if flags.Changed("count") {
		cfg.Count = f.count
	}
	if flags.Changed("seed") {
		s := f.seed
		cfg.Seed = &s
	}
	if flags.Changed("top") {
		cfg.TopN = f.topN
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func resolveDBPath(cfg *config.Config) (string, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = config.DefaultDBPath()
	}
	return config.ValidateDBPath(cfg.DBPath)
}

func runServe(cmd *cobra.Command, f *cliFlags) error {
	cfg, logger, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.DBPath, err = resolveDBPath(cfg); err != nil {
		return err
	}

	srv, err := newServer(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("leadscore server listening",
			zap.String("addr", httpServer.Addr),
			zap.String("db", cfg.DBPath),
			zap.Bool("persist_datasets", cfg.Persist))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-cmd.Context().Done():
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// namePool builds the generator's word lists, from OpenAI when a key is configured.
func namePool(ctx context.Context, cfg *config.Config, logger *zap.Logger) *seed.NamePool {
	gen := seed.NewGenerator(seed.Options{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
		Logger:  logger,
	})
	pool := gen.NamePool(ctx, cfg.OpenAI.PoolSize)
	logger.Debug("name pool ready", zap.Bool("ai", gen.UsesAI()), zap.Int("words", pool.Size()))
	return pool
}

// buildDataset generates a dataset outside of any session. Without a
// configured seed a random one is picked and logged so the run can be repeated.
func buildDataset(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*leads.Dataset, error) {
	var s int64
	if cfg.Seed != nil {
		s = *cfg.Seed
	} else {
		s = time.Now().UnixNano()
		logger.Info("using random seed", zap.Int64("seed", s))
	}

	records, err := leads.Generate(ctx, cfg.Count, s, namePool(ctx, cfg, logger))
	if err != nil {
		return nil, err
	}
	return leads.NewDataset(leads.Key{Seed: s, Count: cfg.Count}, time.Now(), records), nil
}

func runGenerate(cmd *cobra.Command, f *cliFlags) error {
	format, err := export.ParseFormat(f.format)
	if err != nil {
		return err
	}
	cfg, logger, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ds, err := buildDataset(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	write := func(w io.Writer) error { return export.Write(w, format, ds) }
	if f.output == "" {
		if err := write(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to write dataset: %w", err)
		}
		return nil
	}

	file, err := os.Create(f.output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeAndClose(file, write); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	logger.Info("dataset written", zap.String("path", f.output), zap.Int("records", ds.Len()), zap.String("format", string(format)))
	return nil
}

// writeAndClose runs write against wc and closes it. A failed close is
// reported when the write itself succeeded.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return write(wc)
}

func runScore(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()
		in = file
	}

	reqs, isArray, err := api.DecodeScoreRequests(in)
	if err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	results, err := api.ScoreAll(reqs)
	if err != nil {
		return fmt.Errorf("invalid attributes: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if isArray {
		return enc.Encode(results)
	}
	return enc.Encode(results[0])
}

func runReport(cmd *cobra.Command, f *cliFlags) error {
	cfg, logger, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ds, err := buildDataset(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	rep, err := report.Build(ds, cfg.TopN)
	if err != nil {
		return err
	}

	if f.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return report.RenderTerminal(cmd.OutOrStdout(), rep)
}

func runReset(cmd *cobra.Command, f *cliFlags) error {
	cfg, logger, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return err
	}

	s, err := store.New(dbPath, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if f.dryRun {
		infos, err := s.ListDatasets(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list datasets: %w", err)
		}
		stats, err := s.GetRequestLogStats()
		if err != nil {
			return fmt.Errorf("failed to count request logs: %w", err)
		}
		out := cmd.OutOrStdout()
		for _, info := range infos {
			fmt.Fprintf(out, "%s\t%s\n", info.Key, info.GeneratedAt.Format(time.RFC3339))
		}
		fmt.Fprintf(out, "Would delete %d datasets and %d request logs from %s\n", len(infos), stats.TotalRequests, dbPath)
		return nil
	}

	datasets, err := s.DeleteDatasets(cmd.Context(), "")
	if err != nil {
		return fmt.Errorf("failed to delete datasets: %w", err)
	}
	requests, err := s.DeleteRequestLogs()
	if err != nil {
		return fmt.Errorf("failed to delete request logs: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d datasets and %d request logs from %s\n", datasets, requests, dbPath)
	return nil
}

func runInitConfig(cmd *cobra.Command, f *cliFlags, args []string) error {
	cfg, logger, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	defer logger.Sync()

	path := "leadscore.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !f.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote configuration to %s\n", path)
	return nil
}
