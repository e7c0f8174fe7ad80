package report

import (
	"testing"
	"time"

	"github.com/psantana5/psql-runner/internal/supervisor"
)

func TestNew_FreezesSupervisorResult(t *testing.T) {
	started := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	finished := started.Add(1500 * time.Millisecond)

	res := &supervisor.Result{
		Outcome:    supervisor.OutcomeCompleted,
		ExitCode:   3,
		PID:        4242,
		StartedAt:  started,
		FinishedAt: finished,
		Duration:   finished.Sub(started),
	}

	r := New("psql", []string{"-X", "-c", "SELECT 1"}, 30, res)

	if r.Binary != "psql" {
		t.Errorf("Expected binary psql, got %s", r.Binary)
	}
	if r.Outcome != supervisor.OutcomeCompleted {
		t.Errorf("Expected completed outcome, got %s", r.Outcome)
	}
	if r.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", r.ExitCode)
	}
	if r.TimedOut {
		t.Error("Did not expect timed_out for a completed run")
	}
	if r.PID != 4242 {
		t.Errorf("Expected PID 4242, got %d", r.PID)
	}
	if r.TimeoutSeconds != 30 {
		t.Errorf("Expected timeout 30, got %d", r.TimeoutSeconds)
	}
	if r.DurationSeconds != 1.5 {
		t.Errorf("Expected duration 1.5s, got %v", r.DurationSeconds)
	}
	if !r.StartedAt.Equal(started) || !r.FinishedAt.Equal(finished) {
		t.Error("Timestamps were not carried over")
	}
	if r.Usage != nil {
		t.Error("Did not expect usage for a completed run")
	}
}

func TestNew_TimedOutCarriesUsage(t *testing.T) {
	res := &supervisor.Result{
		Outcome:  supervisor.OutcomeTimedOut,
		ExitCode: supervisor.ExitTimeout,
		PID:      99,
		Usage:    &supervisor.Usage{CPUPercent: 12.5, RSSBytes: 1 << 20},
	}

	r := New("psql", []string{"-X"}, 5, res)

	if !r.TimedOut {
		t.Error("Expected timed_out to be set")
	}
	if r.ExitCode != supervisor.ExitTimeout {
		t.Errorf("Expected exit code %d, got %d", supervisor.ExitTimeout, r.ExitCode)
	}
	if r.Usage == nil {
		t.Fatal("Expected usage snapshot to be carried over")
	}
	if r.Usage.RSSBytes != 1<<20 {
		t.Errorf("Expected RSS 1MiB, got %d", r.Usage.RSSBytes)
	}
}
