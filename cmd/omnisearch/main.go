package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"omnisearch/internal/config"
	"omnisearch/internal/executor"
	"omnisearch/internal/router"
	"omnisearch/internal/trace"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// query flags
	strategyFlag string
	backendNames []string
	traceDB      string
	concurrency  int64
	watchConfig  bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "omnisearch",
	Short: "omnisearch - multi-backend query router",
	Long: `omnisearch routes natural language queries to configured information
backends (LLMs, web search, knowledge graphs, news, finance, weather and
more), queries them concurrently, and returns normalized text results.

Backend failures never abort a query: a failing backend contributes an
"Error: ..." value next to its successful siblings.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// queryCmd dispatches a query to one or more backends
var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Route a query to backends and print their results",
	Long: `Routes the query according to the selection strategy:

  auto    pick the single best backend from the routing rules (default)
  manual  query exactly the backends named with --backends
  multi   query every backend matched by the routing rules concurrently

Example:
  omnisearch query "latest news about quantum computing"
  omnisearch query --strategy manual --backends llm,web "compare results"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

// backendsCmd prints the routing surface
var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List configured backends and routing rules",
	RunE:  runBackends,
}

// validateCmd loads the config and reports problems without querying anything
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file and report warnings",
	RunE:  runValidate,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default: search standard locations)")

	queryCmd.Flags().StringVarP(&strategyFlag, "strategy", "s", "", "selection strategy: auto, manual, multi (default: from config)")
	queryCmd.Flags().StringSliceVarP(&backendNames, "backends", "b", nil, "backends to query with --strategy manual")
	queryCmd.Flags().StringVar(&traceDB, "trace-db", "", "record invocations to a SQLite file")
	queryCmd.Flags().Int64Var(&concurrency, "concurrency", executor.DefaultConcurrency, "max concurrent backend calls")
	queryCmd.Flags().BoolVar(&watchConfig, "watch", false, "reload the config file on change")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(backendsCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadHandle loads the configuration and wraps it in a swap handle.
func loadHandle() (*config.Handle, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	for _, warning := range cfg.Warnings {
		logger.Warn("Config warning", zap.String("warning", warning))
	}
	return config.NewHandle(cfg), nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	handle, err := loadHandle()
	if err != nil {
		return err
	}

	if watchConfig && configPath != "" {
		watcher, werr := config.WatchFile(configPath, handle, logger)
		if werr != nil {
			return werr
		}
		defer watcher.Close()
	}

	opts := []executor.Option{
		executor.WithConcurrency(concurrency),
		executor.WithLogger(logger),
	}
	if traceDB != "" {
		rec, rerr := trace.OpenSQLite(traceDB)
		if rerr != nil {
			return rerr
		}
		defer rec.Close()
		opts = append(opts, executor.WithRecorder(rec))
	}
	exec := executor.New(handle, opts...)
	rtr := router.New(handle)

	strategy := handle.Snapshot().Strategy
	if strategyFlag != "" {
		strategy = config.Strategy(strategyFlag)
		if !strategy.Valid() {
			return fmt.Errorf("invalid strategy %q (valid: auto, manual, multi)", strategyFlag)
		}
	}
	if len(backendNames) > 0 && strategyFlag == "" {
		strategy = config.StrategyManual
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	selected := rtr.SelectBackends(query, strategy, backendNames)
	logger.Info("Dispatching query",
		zap.String("strategy", string(strategy)),
		zap.Strings("backends", selected))

	results := exec.SearchMultiOrdered(ctx, query, selected)
	for i, r := range results {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("=== %s ===\n%s\n", r.Backend, r.Output)
	}
	return nil
}

func runBackends(cmd *cobra.Command, args []string) error {
	handle, err := loadHandle()
	if err != nil {
		return err
	}

	hints := router.New(handle).RoutingHints()
	data, err := json.MarshalIndent(hints, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal routing hints: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	fmt.Printf("Configuration valid: %d backends (%d enabled), default %q, strategy %q\n",
		len(cfg.Backends), len(cfg.EnabledBackends()), cfg.DefaultBackend, cfg.Strategy)
	for _, warning := range cfg.Warnings {
		fmt.Println("Warning:", warning)
	}
	return nil
}
