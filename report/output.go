package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FormatCsv  = "csv"
	FormatKv   = "kv"
	FormatYaml = "yaml"
)

func sortedKeys(m map[string]string) []string {
	keys := []string{}
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Write prints every summary in the given format.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case FormatCsv:
		for i, s := range r.Summaries {
			if err := WriteCsv(w, r.ID, s, i == 0); err != nil {
				return err
			}
		}
		return nil
	case FormatKv:
		for i, s := range r.Summaries {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if err := WriteKv(w, r.ID, s); err != nil {
				return err
			}
		}
		return nil
	case FormatYaml:
		return WriteYaml(w, r)
	}
	return fmt.Errorf("unknown report format %q", format)
}

// WriteCsv prints the per run lines ("CsvRuns:" prefix) and the averaged line ("Csv:" prefix).
// The header lines are printed first when header is set.
func WriteCsv(w io.Writer, id string, s Summary, header bool) error {
	sortedConfigs := sortedKeys(s.Configs)
	sortedMetrics := sortedKeys(s.Metrics)

	var out strings.Builder
	if header {
		columns := append([]string{"id", "runs"}, sortedConfigs...)
		columns = append(columns, sortedMetrics...)
		out.WriteString("Csv:" + strings.Join(columns, ",") +
			",rt,rtStdDev,rtMedian,rtP95,rtMin,rtMax,tps,rowsPerSecond,ct,ar,vf\n")
		out.WriteString("CsvRuns:id,strategy,run,rt,rtP95,tps,ct,ar,vf\n")
	}

	for _, run := range s.PerRun {
		fmt.Fprintf(&out, "CsvRuns:%s,%s,%d,%.6f,%.6f,%.3f,%d,%.6f,%d\n",
			id, s.Strategy, run.Run, run.Rt, run.RtP95, run.Tps, run.Completed, run.AbortRate, run.VerifyFailures)
	}

	csv := fmt.Sprintf("Csv:%s,%d", id, s.Runs)
	for _, config := range sortedConfigs {
		csv += fmt.Sprintf(",%s", s.Configs[config])
	}
	for _, metric := range sortedMetrics {
		csv += fmt.Sprintf(",%s", s.Metrics[metric])
	}
	csv += fmt.Sprintf(",%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.3f,%.3f,%.0f,%.6f,%d",
		s.Rt, s.RtStdDev, s.RtMedian, s.RtP95, s.RtMin, s.RtMax, s.Tps, s.RowsPerSecond, s.Completed, s.AbortRate, s.VerifyFailures)
	out.WriteString(csv + "\n")

	_, err := io.WriteString(w, out.String())
	return err
}

// WriteKv prints one "key: value" line per figure to ease reading.
func WriteKv(w io.Writer, id string, s Summary) error {
	kv := fmt.Sprintf("id: %s\nstrategy: %s\nruns: %d", id, s.Strategy, s.Runs)
	for _, config := range sortedKeys(s.Configs) {
		if config == "strategy" {
			continue
		}
		kv += fmt.Sprintf("\n%s: %s", config, s.Configs[config])
	}
	for _, metric := range sortedKeys(s.Metrics) {
		kv += fmt.Sprintf("\n%s: %s", metric, s.Metrics[metric])
	}
	kv += fmt.Sprintf("\nrt: %.6f", s.Rt)
	kv += fmt.Sprintf("\nrtStdDev: %.6f", s.RtStdDev)
	kv += fmt.Sprintf("\nrtMedian: %.6f", s.RtMedian)
	kv += fmt.Sprintf("\nrtP95: %.6f", s.RtP95)
	kv += fmt.Sprintf("\nrtMin: %.6f", s.RtMin)
	kv += fmt.Sprintf("\nrtMax: %.6f", s.RtMax)
	kv += fmt.Sprintf("\ntps: %.6f", s.Tps)
	kv += fmt.Sprintf("\nrowsPerSecond: %.6f", s.RowsPerSecond)
	kv += fmt.Sprintf("\nct: %.6f", s.Completed)
	kv += fmt.Sprintf("\nar: %.6f", s.AbortRate)
	kv += fmt.Sprintf("\nvf: %d", s.VerifyFailures)

	_, err := fmt.Fprintln(w, kv)
	return err
}

func WriteYaml(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}
