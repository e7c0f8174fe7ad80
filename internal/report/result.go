// Package report freezes the outcome of a supervised psql run into an
// immutable record and projects it into logs, files and metrics.
package report

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/psantana5/psql-runner/internal/supervisor"
)

// Result is immutable run-level truth. Set once when the child is done,
// never changed; every export in this package is a projection of it.
type Result struct {
	// Identity
	Binary string   `json:"binary" yaml:"binary"`
	Args   []string `json:"args" yaml:"args"`
	PID    int      `json:"pid,omitempty" yaml:"pid,omitempty"`

	// Outcome
	Outcome  supervisor.Outcome `json:"outcome" yaml:"outcome"`
	ExitCode int                `json:"exit_code" yaml:"exit_code"`
	TimedOut bool               `json:"timed_out" yaml:"timed_out"`

	// Timing
	TimeoutSeconds  int       `json:"timeout_seconds" yaml:"timeout_seconds"`
	StartedAt       time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time `json:"finished_at" yaml:"finished_at"`
	DurationSeconds float64   `json:"duration_seconds" yaml:"duration_seconds"`

	// Usage is only present for timed-out runs, sampled just before the
	// kill.
	Usage *supervisor.Usage `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// New freezes a supervisor result into a report record. Args should be the
// display-safe vector: anything secret must already be redacted.
func New(binary string, args []string, timeoutSeconds int, res *supervisor.Result) *Result {
	return &Result{
		Binary:          binary,
		Args:            args,
		PID:             res.PID,
		Outcome:         res.Outcome,
		ExitCode:        res.ExitCode,
		TimedOut:        res.TimedOut(),
		TimeoutSeconds:  timeoutSeconds,
		StartedAt:       res.StartedAt,
		FinishedAt:      res.FinishedAt,
		DurationSeconds: res.Duration.Seconds(),
		Usage:           res.Usage,
	}
}

// LogSummary emits the one-line summary ops grep for.
func (r *Result) LogSummary() {
	fields := log.Fields{
		"binary":   r.Binary,
		"outcome":  r.Outcome,
		"exit":     r.ExitCode,
		"duration": r.DurationSeconds,
	}
	if r.PID > 0 {
		fields["pid"] = r.PID
	}
	if r.TimedOut {
		fields["timeout"] = r.TimeoutSeconds
	}
	log.WithFields(fields).Info("Run finished")
}
