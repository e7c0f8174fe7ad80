package report

import (
	"bytes"
	"fmt"
	"os"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// WriteMetricsFile renders the result as Prometheus gauges in text
// exposition format for the node_exporter textfile collector. The write
// goes through a temp file and rename so the collector never scrapes a
// half-written file.
func (r *Result) WriteMetricsFile(path string) error {
	reg := promclient.NewRegistry()

	exitCode := promclient.NewGauge(promclient.GaugeOpts{
		Name: "psqlrun_exit_code",
		Help: "Exit code of the last psql run",
	})
	duration := promclient.NewGauge(promclient.GaugeOpts{
		Name: "psqlrun_duration_seconds",
		Help: "Wall clock duration of the last psql run in seconds",
	})
	timedOut := promclient.NewGauge(promclient.GaugeOpts{
		Name: "psqlrun_timed_out",
		Help: "Whether the last psql run was killed at the deadline (0 or 1)",
	})
	completedAt := promclient.NewGauge(promclient.GaugeOpts{
		Name: "psqlrun_completed_timestamp_seconds",
		Help: "Unix timestamp of the last psql run completion",
	})
	reg.MustRegister(exitCode, duration, timedOut, completedAt)

	exitCode.Set(float64(r.ExitCode))
	duration.Set(r.DurationSeconds)
	if r.TimedOut {
		timedOut.Set(1)
	}
	completedAt.Set(float64(r.FinishedAt.Unix()))

	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move metrics file into place: %w", err)
	}
	return nil
}
