package psql

import "testing"

func TestBuildArgs_Basic(t *testing.T) {
	opts := Options{
		Host:     "db.internal",
		Port:     5433,
		Username: "analyst",
		Database: "metrics",
		Command:  "SELECT count(*) FROM jobs",
		NoPager:  true,
	}

	args := BuildArgs(opts)

	// Verify psqlrc is always suppressed, first
	if len(args) == 0 || args[0] != "-X" {
		t.Fatalf("Expected -X as first argument, got %v", args)
	}

	if !containsArg(args, "-h") || !containsArg(args, "db.internal") {
		t.Error("Expected host specification")
	}

	if !containsArg(args, "-p") || !containsArg(args, "5433") {
		t.Error("Expected port specification")
	}

	if !containsArg(args, "-U") || !containsArg(args, "analyst") {
		t.Error("Expected username specification")
	}

	if !containsArg(args, "-d") || !containsArg(args, "metrics") {
		t.Error("Expected database specification")
	}

	if !containsArg(args, "-c") || !containsArg(args, "SELECT count(*) FROM jobs") {
		t.Error("Expected inline command specification")
	}

	// Verify pager suppression is the trailing pair
	if args[len(args)-2] != "-P" || args[len(args)-1] != "pager=off" {
		t.Errorf("Expected -P pager=off as trailing arguments, got %v", args)
	}
}

func TestBuildArgs_FieldOrder(t *testing.T) {
	args := BuildArgs(Options{
		Host:     "localhost",
		Port:     5432,
		Username: "postgres",
		Database: "app",
	})

	// Connection fields keep a fixed order: -h, -p, -U, -d
	hi := argIndex(args, "-h")
	pi := argIndex(args, "-p")
	ui := argIndex(args, "-U")
	di := argIndex(args, "-d")
	if hi < 0 || pi < 0 || ui < 0 || di < 0 {
		t.Fatalf("Missing connection flags in %v", args)
	}
	if !(hi < pi && pi < ui && ui < di) {
		t.Errorf("Expected -h -p -U -d ordering, got %v", args)
	}
}

func TestBuildArgs_DSNWinsOverFields(t *testing.T) {
	opts := Options{
		DSN:      "postgres://svc@db.internal:5432/metrics",
		Host:     "ignored-host",
		Port:     9999,
		Username: "ignored-user",
		Database: "ignored-db",
	}

	args := BuildArgs(opts)

	if !containsArg(args, "postgres://svc@db.internal:5432/metrics") {
		t.Errorf("Expected DSN in arguments, got %v", args)
	}

	// Verify individual connection flags are suppressed entirely
	for _, flag := range []string{"-h", "-p", "-U", "-d"} {
		if containsArg(args, flag) {
			t.Errorf("Did not expect %s when DSN is set, got %v", flag, args)
		}
	}
}

func TestBuildArgs_DSNQueryStripped(t *testing.T) {
	args := BuildArgs(Options{
		DSN: "postgres://svc@db.internal/metrics?sslmode=disable&connect_timeout=2",
	})

	if !containsArg(args, "postgres://svc@db.internal/metrics") {
		t.Errorf("Expected sanitized DSN, got %v", args)
	}
	if containsArg(args, "postgres://svc@db.internal/metrics?sslmode=disable&connect_timeout=2") {
		t.Errorf("Raw DSN with query leaked into arguments: %v", args)
	}
}

func TestBuildArgs_CommandWinsOverFile(t *testing.T) {
	args := BuildArgs(Options{
		Command: "SELECT 1",
		File:    "/tmp/query.sql",
	})

	if !containsArg(args, "-c") || !containsArg(args, "SELECT 1") {
		t.Error("Expected inline command to win")
	}
	if containsArg(args, "-f") || containsArg(args, "/tmp/query.sql") {
		t.Errorf("Did not expect file arguments when command is set, got %v", args)
	}
}

func TestBuildArgs_FileOnly(t *testing.T) {
	args := BuildArgs(Options{File: "/reports/weekly.sql"})

	if !containsArg(args, "-f") || !containsArg(args, "/reports/weekly.sql") {
		t.Errorf("Expected file arguments, got %v", args)
	}
	if containsArg(args, "-c") {
		t.Errorf("Did not expect -c without an inline command, got %v", args)
	}
}

func TestBuildArgs_OnErrorStopPrecedesCommand(t *testing.T) {
	args := BuildArgs(Options{
		Command:     "INSERT INTO t VALUES (1)",
		OnErrorStop: true,
	})

	vi := argIndex(args, "-v")
	ci := argIndex(args, "-c")
	if vi < 0 || ci < 0 {
		t.Fatalf("Missing -v or -c in %v", args)
	}
	if args[vi+1] != "ON_ERROR_STOP=1" {
		t.Errorf("Expected ON_ERROR_STOP=1 after -v, got %v", args)
	}

	// The variable assignment must land before the command source so psql
	// applies it to the script
	if vi > ci {
		t.Errorf("Expected -v ON_ERROR_STOP=1 before -c, got %v", args)
	}
}

func TestBuildArgs_Empty(t *testing.T) {
	args := BuildArgs(Options{})

	if len(args) != 1 || args[0] != "-X" {
		t.Errorf("Expected bare [-X] for empty options, got %v", args)
	}
}

// Helper function to check if an argument exists in the vector
func containsArg(args []string, target string) bool {
	for _, arg := range args {
		if arg == target {
			return true
		}
	}
	return false
}

// Helper function returning the index of the first occurrence, or -1
func argIndex(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}
