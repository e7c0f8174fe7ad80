// Package supervisor launches a child process with a hard wall-clock
// deadline and normalizes its fate into a small result taxonomy.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	log "github.com/sirupsen/logrus"
)

// Exit codes reserved by the supervisor. They follow the coreutils
// timeout(1) convention so shell callers can branch on them.
const (
	// ExitTimeout is returned when the child is killed at the deadline.
	ExitTimeout = 124
	// ExitNotFound is returned when the executable is not on PATH.
	ExitNotFound = 127
)

// ErrNonPositiveTimeout rejects invocations whose deadline would never
// fire or would fire immediately.
var ErrNonPositiveTimeout = errors.New("timeout must be positive")

// Outcome classifies how a supervised run ended.
type Outcome string

const (
	// OutcomeCompleted means the child ran to its own exit, success or
	// failure; ExitCode carries its status.
	OutcomeCompleted Outcome = "completed"
	// OutcomeTimedOut means the deadline fired and the child was killed.
	OutcomeTimedOut Outcome = "timed_out"
	// OutcomeNotFound means the executable could not be resolved and no
	// process was ever started.
	OutcomeNotFound Outcome = "not_found"
)

// Invocation describes one supervised child process.
type Invocation struct {
	// Path is the executable name or path; it is resolved against PATH
	// before anything is launched.
	Path string
	// Args is the argument vector, not including the executable itself.
	Args []string
	// Env is the child environment. Nil inherits the parent environment.
	Env []string
	// Timeout is the hard wall-clock budget. Must be positive.
	Timeout time.Duration
}

// Result records the fate of a supervised run.
type Result struct {
	Outcome    Outcome
	ExitCode   int
	PID        int
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	// Usage is a best-effort resource snapshot taken just before a
	// timed-out child is killed. Nil for every other outcome.
	Usage *Usage
}

// TimedOut reports whether the deadline expired before the child could
// deliver its own exit status.
func (r *Result) TimedOut() bool { return r.Outcome == OutcomeTimedOut }

// Run launches inv.Path with inv.Args and waits for it to finish, killing
// it if inv.Timeout elapses first. The child inherits the parent's stdin,
// stdout and stderr, so its output streams to the caller's terminal
// untouched.
//
// A missing executable and an expired deadline are results, not errors:
// they come back as OutcomeNotFound and OutcomeTimedOut with the
// corresponding reserved exit code. The error return covers everything
// that prevents a verdict, such as a cancelled parent context or a fork
// failure.
func Run(ctx context.Context, inv Invocation) (*Result, error) {
	if inv.Timeout <= 0 {
		return nil, ErrNonPositiveTimeout
	}

	path, lookErr := exec.LookPath(inv.Path)
	if lookErr != nil {
		now := time.Now()
		log.WithField("path", inv.Path).Debug("Executable not found on PATH")
		return &Result{
			Outcome:    OutcomeNotFound,
			ExitCode:   ExitNotFound,
			StartedAt:  now,
			FinishedAt: now,
		}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, inv.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, inv.Args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if inv.Env != nil {
		cmd.Env = inv.Env
	}

	// The cancel hook fires at the deadline, the one moment a resource
	// snapshot of the still-running child is possible. os/exec serializes
	// the hook with Wait, so the write is safe to read after Wait returns.
	var usage *Usage
	cmd.Cancel = func() error {
		usage = snapshotUsage(cmd.Process.Pid)
		log.WithFields(log.Fields{
			"pid":     cmd.Process.Pid,
			"timeout": inv.Timeout,
		}).Debug("Deadline reached, killing child")
		return cmd.Process.Kill()
	}

	log.WithFields(log.Fields{
		"path":    path,
		"args":    inv.Args,
		"timeout": inv.Timeout,
	}).Debug("Launching child process")

	startedAt := time.Now()
	if err := cmd.Start(); err != nil {
		// The deadline can expire before the child even launches; that
		// is still a timeout, not a supervisor failure.
		if errors.Is(err, context.DeadlineExceeded) {
			now := time.Now()
			return &Result{
				Outcome:    OutcomeTimedOut,
				ExitCode:   ExitTimeout,
				StartedAt:  startedAt,
				FinishedAt: now,
				Duration:   now.Sub(startedAt),
			}, nil
		}
		return nil, fmt.Errorf("failed to start %s: %w", inv.Path, err)
	}

	res := &Result{
		PID:       cmd.Process.Pid,
		StartedAt: startedAt,
	}

	waitErr := cmd.Wait()
	res.FinishedAt = time.Now()
	res.Duration = res.FinishedAt.Sub(res.StartedAt)

	// Classify the wait status before looking at the deadline: a child
	// that delivered its own exit status passes through even when the
	// deadline fired in the same instant. Only a kill may be reported as
	// a timeout.
	if waitErr == nil {
		res.Outcome = OutcomeCompleted
		res.ExitCode = 0
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) && exitErr.Exited() {
		res.Outcome = OutcomeCompleted
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	// The child did not exit on its own; the deadline kill is the
	// expected cause.
	if runCtx.Err() == context.DeadlineExceeded {
		res.Outcome = OutcomeTimedOut
		res.ExitCode = ExitTimeout
		res.Usage = usage
		return res, nil
	}
	if runCtx.Err() != nil {
		return nil, fmt.Errorf("run cancelled: %w", runCtx.Err())
	}

	if exitErr != nil {
		// Signal death without our deadline: something else killed the
		// child. Pass the opaque status through as-is.
		res.Outcome = OutcomeCompleted
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return nil, fmt.Errorf("failed to wait for %s: %w", inv.Path, waitErr)
}
