package loadtest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/careerrank/pkg/logger"
)

// NewRootCommand builds the loadtest CLI.
func NewRootCommand() *cobra.Command {
	var (
		logFile string
		verbose bool
	)

	root := &cobra.Command{
		Use:   "loadtest",
		Short: "Load generator and data seeder for careerrank",
		Long: `loadtest drives a running careerrank server and produces synthetic
candidates for it to rank.

Examples:
  loadtest seed --candidates 500 --out seed.json
  loadtest seed --candidates 500 --redis-addr localhost:6379
  loadtest run --requests 1000 --concurrency 20`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var opts []logger.Option
			if logFile != "" {
				opts = append(opts, logger.WithFile(logFile))
			}
			if err := logger.Init(opts...); err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			if verbose {
				return logger.SetLevelString("debug")
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&logFile, "log", "", "also write JSON logs to this file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCommand(), newSeedCommand())
	return root
}

func newRunCommand() *cobra.Command {
	cfg := RunConfig{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send repeated rerank requests and report latency and cache rate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", DefaultURL, "base URL of the service")
	f.IntVarP(&cfg.Requests, "requests", "n", DefaultRequests, "total number of requests")
	f.IntVarP(&cfg.Concurrency, "concurrency", "c", DefaultConcurrency, "requests in flight")
	f.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "per-request timeout")
	f.IntVar(&cfg.Candidates, "candidates", DefaultCandidates, "candidate ids per request")
	f.IntVar(&cfg.TopN, "top", DefaultTopN, "topN sent with each request")
	return cmd
}

func newSeedCommand() *cobra.Command {
	cfg := SeedConfig{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate synthetic candidates into a seed file or Redis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := Seed(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int{"candidates": n})
		},
	}
	f := cmd.Flags()
	f.IntVar(&cfg.Candidates, "candidates", DefaultCandidates, "number of candidates")
	f.IntVar(&cfg.Events, "events", DefaultEvents, "events per candidate")
	f.IntVar(&cfg.Dimension, "dim", DefaultDimension, "embedding dimension")
	f.Uint64Var(&cfg.Seed, "seed", DefaultSeed, "random seed")
	f.StringVarP(&cfg.OutFile, "out", "o", "", "write a JSON seed file")
	f.StringVar(&cfg.RedisAddr, "redis-addr", "", "write to this Redis server instead")
	f.StringVar(&cfg.RedisPrefix, "redis-prefix", "careerrank", "Redis key prefix")
	cmd.MarkFlagsMutuallyExclusive("out", "redis-addr")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Execute runs the CLI with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
