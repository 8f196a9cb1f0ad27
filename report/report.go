// Package report aggregates worker results across runs and prints them.
package report

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"crmbench/worker"
)

// Per run figures. Response times are in seconds.
type RunResult struct {
	Run            int     `yaml:"run"`
	Completed      int     `yaml:"completed"`
	Aborted        int     `yaml:"aborted"`
	VerifyFailures int     `yaml:"verifyFailures"`
	Rows           int     `yaml:"rows"`
	Duration       float64 `yaml:"duration"`
	Rt             float64 `yaml:"rt"`
	RtStdDev       float64 `yaml:"rtStdDev"`
	RtMedian       float64 `yaml:"rtMedian"`
	RtP95          float64 `yaml:"rtP95"`
	RtMin          float64 `yaml:"rtMin"`
	RtMax          float64 `yaml:"rtMax"`
	Tps            float64 `yaml:"tps"`
	AbortRate      float64 `yaml:"abortRate"`
}

// Averages of the runs of one strategy.
type Summary struct {
	Strategy       string            `yaml:"strategy"`
	Runs           int               `yaml:"runs"`
	Configs        map[string]string `yaml:"configs,omitempty"`
	Metrics        map[string]string `yaml:"metrics,omitempty"`
	Completed      float64           `yaml:"completed"`
	Aborted        float64           `yaml:"aborted"`
	VerifyFailures int               `yaml:"verifyFailures"`
	Rt             float64           `yaml:"rt"`
	RtStdDev       float64           `yaml:"rtStdDev"`
	RtMedian       float64           `yaml:"rtMedian"`
	RtP95          float64           `yaml:"rtP95"`
	RtMin          float64           `yaml:"rtMin"`
	RtMax          float64           `yaml:"rtMax"`
	Tps            float64           `yaml:"tps"`
	RowsPerSecond  float64           `yaml:"rowsPerSecond"`
	AbortRate      float64           `yaml:"abortRate"`
	PerRun         []RunResult       `yaml:"perRun"`
}

type Report struct {
	ID        string    `yaml:"id"`
	StartedAt time.Time `yaml:"startedAt"`
	Summaries []Summary `yaml:"summaries"`
}

func New() *Report {
	return &Report{ID: uuid.NewString(), StartedAt: time.Now()}
}

// Add aggregates the runs of one strategy and appends the summary.
func (r *Report) Add(runs []*worker.BenchmarkResults, configs, metrics map[string]string) Summary {
	s := Aggregate(runs)
	s.Configs = configs
	s.Metrics = metrics
	r.Summaries = append(r.Summaries, s)
	return s
}

// Process computes the figures of a single run. Response time figures are NaN when nothing
// completed.
func Process(result *worker.BenchmarkResults) RunResult {
	rts := stats.Float64Data(result.Rts)
	out := RunResult{
		Run:            result.Run,
		Completed:      result.CompleteCount,
		Aborted:        result.AbortCount,
		VerifyFailures: result.VerifyFailures,
		Rows:           result.Rows,
		Duration:       result.RealDuration,
		Rt:             orNaN(stats.Mean(rts)),
		RtStdDev:       orNaN(stats.StandardDeviation(rts)),
		RtMedian:       orNaN(stats.Median(rts)),
		RtP95:          orNaN(stats.PercentileNearestRank(rts, 95)),
		RtMin:          orNaN(stats.Min(rts)),
		RtMax:          orNaN(stats.Max(rts)),
		AbortRate:      math.NaN(),
	}
	if result.RealDuration > 0 {
		out.Tps = float64(result.CompleteCount) / result.RealDuration
	}
	if total := result.CompleteCount + result.AbortCount; total > 0 {
		out.AbortRate = float64(result.AbortCount) / float64(total)
	}
	return out
}

// Aggregate averages the runs of one strategy. Runs where a figure is NaN are left out of that
// figure's average.
func Aggregate(runs []*worker.BenchmarkResults) Summary {
	s := Summary{Runs: len(runs)}
	if len(runs) == 0 {
		return s
	}
	s.Strategy = runs[0].Strategy

	var completed, aborted, rt, rtStd, rtMedian, rtP95, rtMin, rtMax, tps, rowsPerSecond, abortRate []float64
	for _, run := range runs {
		p := Process(run)
		s.PerRun = append(s.PerRun, p)
		s.VerifyFailures += p.VerifyFailures

		completed = append(completed, float64(p.Completed))
		aborted = append(aborted, float64(p.Aborted))
		rt = appendDefined(rt, p.Rt)
		rtStd = appendDefined(rtStd, p.RtStdDev)
		rtMedian = appendDefined(rtMedian, p.RtMedian)
		rtP95 = appendDefined(rtP95, p.RtP95)
		rtMin = appendDefined(rtMin, p.RtMin)
		rtMax = appendDefined(rtMax, p.RtMax)
		tps = append(tps, p.Tps)
		abortRate = appendDefined(abortRate, p.AbortRate)
		if p.Duration > 0 {
			rowsPerSecond = append(rowsPerSecond, float64(p.Rows)/p.Duration)
		}
	}

	s.Completed = mean(completed)
	s.Aborted = mean(aborted)
	s.Rt = mean(rt)
	s.RtStdDev = mean(rtStd)
	s.RtMedian = mean(rtMedian)
	s.RtP95 = mean(rtP95)
	s.RtMin = mean(rtMin)
	s.RtMax = mean(rtMax)
	s.Tps = mean(tps)
	s.RowsPerSecond = mean(rowsPerSecond)
	s.AbortRate = mean(abortRate)
	return s
}

func orNaN(v float64, err error) float64 {
	if err != nil {
		return math.NaN()
	}
	return v
}

func appendDefined(values []float64, v float64) []float64 {
	if math.IsNaN(v) {
		return values
	}
	return append(values, v)
}

func mean(values []float64) float64 {
	return orNaN(stats.Mean(values))
}
