package benchmark

import (
	"context"

	engine "crmbench/benchmark/engines/abstract"
	"crmbench/worker"
)

type Benchmark interface {
	// Called once at the start of the run, to setup any resources required
	Setup(ctx context.Context) error
	// Populates (and cleans if needed) the database
	Populate(ctx context.Context) error
	// Returns the strategy every iteration opens its session from
	Prepare() engine.Strategy
	// Returns the read back check run after each iteration, nil when disabled
	Verifier() worker.Verifier
	// Returns the benchmark-specific configurations
	GetConfigs() map[string]string
	// Returns the benchmark-specific metrics
	GetMetrics(ctx context.Context) map[string]string
	// Called once at the end of the run, to close any resources required
	Finalize()
}
