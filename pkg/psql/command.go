// Package psql builds argument vectors and environments for invoking the
// PostgreSQL psql client as a child process.
package psql

import "strconv"

// Options describes a single psql invocation: either a full connection
// string or individual connection fields, exactly one command source, and
// behavioral flags.
type Options struct {
	// DSN is a full connection string. When set it takes precedence over
	// Host/Port/Username/Database, which are then not emitted at all.
	DSN      string
	Host     string
	Port     int
	Username string
	Database string

	// Command is an inline SQL command; File is a path to a SQL script.
	// Command wins when both are set.
	Command string
	File    string

	// OnErrorStop aborts the session on the first SQL error.
	OnErrorStop bool
	// NoPager disables psql's interactive pager, which otherwise blocks
	// non-interactive callers on long result sets.
	NoPager bool
}

// BuildArgs generates the ordered psql argument vector for opts. The vector
// always starts with -X so the user's psqlrc cannot change behavior between
// environments. Connection tokens come first, then -v ON_ERROR_STOP=1 when
// requested, then the command source, and -P pager=off always last. Tokens
// are passed to the process-launch primitive as-is; no shell is involved.
func BuildArgs(opts Options) []string {
	args := []string{"-X"}

	if dsn := SanitizeDSN(opts.DSN); dsn != "" {
		args = append(args, dsn)
	} else {
		if opts.Host != "" {
			args = append(args, "-h", opts.Host)
		}
		if opts.Port > 0 {
			args = append(args, "-p", strconv.Itoa(opts.Port))
		}
		if opts.Username != "" {
			args = append(args, "-U", opts.Username)
		}
		if opts.Database != "" {
			args = append(args, "-d", opts.Database)
		}
	}

	if opts.OnErrorStop {
		args = append(args, "-v", "ON_ERROR_STOP=1")
	}

	if opts.Command != "" {
		args = append(args, "-c", opts.Command)
	} else if opts.File != "" {
		args = append(args, "-f", opts.File)
	}

	if opts.NoPager {
		args = append(args, "-P", "pager=off")
	}

	return args
}
