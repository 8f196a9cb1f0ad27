package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"crmbench/benchmark"
	"crmbench/benchmark/crm"
	"crmbench/config"
	"crmbench/report"
	"crmbench/util"
	"crmbench/worker"
)

// Prepare zerolog
func setupLogging(disableLog bool, level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	var zlevel zerolog.Level
	if disableLog {
		zlevel = zerolog.Disabled
	} else if level == "info" {
		zlevel = zerolog.InfoLevel
	} else if level == "trace" {
		zlevel = zerolog.TraceLevel
	} else {
		zlevel = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(zlevel)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("conf")
	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile, Flags: cmd.Flags()})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "crmbench",
		Short: "Benchmark data-access strategies inserting companies and contacts into PostgreSQL",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			disableLog, _ := cmd.Flags().GetBool("no-log")
			level, _ := cmd.Flags().GetString("level")
			setupLogging(disableLog, level)
		},
	}
	root.PersistentFlags().String("conf", "", "Benchmark config file (yaml)")
	root.PersistentFlags().Bool("no-log", false, "Disables the log")
	root.PersistentFlags().String("level", "debug", "Log level (info|debug|trace)")
	root.PersistentFlags().StringSlice("strategy", config.AllStrategies, "Strategies to use (orm|microorm|native|raw)")

	root.AddCommand(newRunCommand(), newProvisionCommand(), newTruncateCommand())
	return root
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the insert benchmark for every selected strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBenchmarks(ctx, cfg, cmd.OutOrStdout())
		},
	}
	defaults := config.Default()
	cmd.Flags().Int("runs", defaults.Runs, "Number of runs per strategy")
	cmd.Flags().Int("iterations", defaults.Iterations, "Measured iterations per run")
	cmd.Flags().Int("warmup", defaults.Warmup, "Unrecorded iterations before the measured ones")
	cmd.Flags().Bool("include-connect", false, "Open and close the connection inside the timed region")
	cmd.Flags().Bool("verify", false, "Read every inserted company back after the iteration")
	cmd.Flags().Bool("provision", false, "Apply the schema migrations before running")
	cmd.Flags().Bool("truncate", false, "Empty the tables before each run")
	cmd.Flags().Uint64("seed", 0, "Fixture seed (0 = random)")
	cmd.Flags().String("format", defaults.Format, "Report format (csv|kv|yaml)")
	return cmd
}

func newProvisionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create the tables in the database of every selected strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return eachDatabase(cmd.Context(), cfg, true, nil)
		},
	}
}

func newTruncateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "truncate",
		Short: "Empty the tables in the database of every selected strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return eachDatabase(cmd.Context(), cfg, false, (*crm.Crm).Truncate)
		},
	}
}

// Sets up the benchmark of every selected strategy, optionally provisioning, and calls fn if set.
func eachDatabase(ctx context.Context, cfg *config.Config, provision bool, fn func(*crm.Crm, context.Context) error) error {
	c := *cfg
	c.Provision = provision
	for _, name := range c.Strategies {
		b, err := crm.New(0, "", name, &c)
		if err != nil {
			return err
		}
		err = b.Setup(ctx)
		if err == nil && fn != nil {
			err = fn(b, ctx)
		}
		b.Finalize()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		zlog.Info().Str("strategy", name).Msg("Done")
	}
	return nil
}

// Runs every strategy cfg.Runs times, one after the other, and prints the report to out.
func runBenchmarks(ctx context.Context, cfg *config.Config, out io.Writer) error {
	rep := report.New()
	zlog.Info().Str("run_id", rep.ID).Strs("strategies", cfg.Strategies).
		Int("contactsPerCompany", cfg.ContactsPerCompany).Msg("Run started")

	for _, name := range cfg.Strategies {
		results := []*worker.BenchmarkResults{}
		configs := map[string]string{}
		metrics := map[string]string{}

		for j := 0; j < cfg.Runs && ctx.Err() == nil; j++ {
			startTime := util.EpochSeconds()
			var b benchmark.Benchmark = util.Try(crm.New(j, rep.ID, name, cfg))
			util.CheckErr(b.Setup(ctx))
			util.CheckErr(b.Populate(ctx))

			w := worker.NewWorker(j, b.Prepare(), worker.Options{
				Iterations:         cfg.Iterations,
				Warmup:             cfg.Warmup,
				ContactsPerCompany: cfg.ContactsPerCompany,
				IncludeConnect:     cfg.IncludeConnect,
				Seed:               cfg.Seed,
				Verifier:           b.Verifier(),
			})
			result := w.Run(ctx)
			results = append(results, result)

			if len(configs) == 0 {
				configs = b.GetConfigs()
			}
			metrics = b.GetMetrics(ctx)

			zlog.Info().Str("strategy", name).Int("run", j).
				Float64("setupTime", util.EpochSeconds()-startTime-result.RealDuration).Msg("Run ended")
			b.Finalize()
		}

		if len(results) == 0 {
			zlog.Warn().Str("strategy", name).Msg("No run completed")
			continue
		}
		rep.Add(results, configs, metrics)
	}

	return rep.Write(out, cfg.Format)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
