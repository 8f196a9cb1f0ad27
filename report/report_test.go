package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"crmbench/worker"
)

func result(run int, rts []float64, aborted int, duration float64) *worker.BenchmarkResults {
	total := 0.
	for _, rt := range rts {
		total += rt
	}
	return &worker.BenchmarkResults{
		Strategy:     "raw",
		Run:          run,
		RealDuration: duration,
		Metric: worker.Metric{
			Rts:           rts,
			TotalRt:       total,
			CompleteCount: len(rts),
			AbortCount:    aborted,
			Rows:          len(rts) * 2,
		},
	}
}

func TestProcess(t *testing.T) {
	p := Process(result(0, []float64{0.004, 0.001, 0.003, 0.002}, 1, 2))

	assert.Equal(t, 4, p.Completed)
	assert.Equal(t, 1, p.Aborted)
	assert.InDelta(t, 0.0025, p.Rt, 1e-12)
	assert.InDelta(t, 0.0025, p.RtMedian, 1e-12)
	assert.InDelta(t, 0.001, p.RtMin, 1e-12)
	assert.InDelta(t, 0.004, p.RtMax, 1e-12)
	assert.InDelta(t, 0.004, p.RtP95, 1e-12)
	assert.InDelta(t, 2.0, p.Tps, 1e-12)
	assert.InDelta(t, 0.2, p.AbortRate, 1e-12)
}

func TestProcessSingleIteration(t *testing.T) {
	p := Process(result(0, []float64{0.5}, 0, 1))

	assert.Equal(t, 0.5, p.RtP95)
	assert.Equal(t, 0., p.RtStdDev)
	assert.Equal(t, 0., p.AbortRate)
}

func TestProcessNothingCompleted(t *testing.T) {
	p := Process(result(0, nil, 3, 1))

	assert.True(t, math.IsNaN(p.Rt))
	assert.True(t, math.IsNaN(p.RtP95))
	assert.Equal(t, 0., p.Tps)
	assert.Equal(t, 1., p.AbortRate)
}

func TestAggregateAveragesRuns(t *testing.T) {
	s := Aggregate([]*worker.BenchmarkResults{
		result(0, []float64{0.002, 0.002}, 0, 1),
		result(1, []float64{0.004, 0.004}, 2, 2),
		result(2, nil, 1, 0),
	})

	assert.Equal(t, "raw", s.Strategy)
	assert.Equal(t, 3, s.Runs)
	require.Len(t, s.PerRun, 3)
	assert.InDelta(t, 0.003, s.Rt, 1e-12, "runs without completions are left out")
	assert.InDelta(t, 4./3, s.Completed, 1e-12)
	assert.InDelta(t, 1., s.Aborted, 1e-12)
	assert.InDelta(t, (2.+1.+0.)/3, s.Tps, 1e-12)
	assert.InDelta(t, (0.+0.5+1.)/3, s.AbortRate, 1e-12)
	assert.InDelta(t, 3., s.RowsPerSecond, 1e-12, "runs without a measured duration are left out")
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)
	assert.Zero(t, s.Runs)
	assert.Empty(t, s.Strategy)
}

func TestNewReportHasRunID(t *testing.T) {
	r := New()
	_, err := uuid.Parse(r.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, r.ID, New().ID)
}

func sampleReport() *Report {
	r := New()
	r.Add([]*worker.BenchmarkResults{result(0, []float64{0.001, 0.003}, 0, 1)},
		map[string]string{"strategy": "raw", "contactsPerCompany": "1"},
		map[string]string{"dbSize": "8192"})
	r.Add([]*worker.BenchmarkResults{result(0, []float64{0.002}, 1, 1)},
		map[string]string{"strategy": "orm", "contactsPerCompany": "1"},
		map[string]string{"dbSize": "16384"})
	return r
}

func TestWriteCsv(t *testing.T) {
	r := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, FormatCsv))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Csv:id,runs,contactsPerCompany,strategy,dbSize,rt,rtStdDev,rtMedian,rtP95,rtMin,rtMax,tps,rowsPerSecond,ct,ar,vf", lines[0])
	assert.Equal(t, "CsvRuns:id,strategy,run,rt,rtP95,tps,ct,ar,vf", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "CsvRuns:"+r.ID+",raw,0,0.002000,"))
	assert.True(t, strings.HasPrefix(lines[3], "Csv:"+r.ID+",1,1,raw,8192,0.002000,"))
	assert.True(t, strings.HasPrefix(lines[5], "Csv:"+r.ID+",1,1,orm,16384,"))
	assert.Equal(t, 1, strings.Count(buf.String(), "Csv:id"), "header only once")
}

func TestWriteKv(t *testing.T) {
	r := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, FormatKv))

	out := buf.String()
	assert.Contains(t, out, "strategy: raw\nruns: 1\ncontactsPerCompany: 1\ndbSize: 8192\nrt: 0.002000")
	assert.Contains(t, out, "\n\nid: "+r.ID+"\nstrategy: orm")
	assert.Contains(t, out, "ar: 0.500000")
}

func TestWriteYaml(t *testing.T) {
	r := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, FormatYaml))

	var decoded struct {
		ID        string `yaml:"id"`
		Summaries []struct {
			Strategy string            `yaml:"strategy"`
			Metrics  map[string]string `yaml:"metrics"`
			PerRun   []RunResult       `yaml:"perRun"`
		} `yaml:"summaries"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.ID, decoded.ID)
	require.Len(t, decoded.Summaries, 2)
	assert.Equal(t, "orm", decoded.Summaries[1].Strategy)
	assert.Equal(t, "16384", decoded.Summaries[1].Metrics["dbSize"])
	assert.Equal(t, 1, decoded.Summaries[1].PerRun[0].Aborted)
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, New().Write(&bytes.Buffer{}, "xml"))
}
