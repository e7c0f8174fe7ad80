package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/psql-runner/internal/report"
	"github.com/psantana5/psql-runner/internal/supervisor"
	"github.com/psantana5/psql-runner/pkg/psql"
)

// ExitUsage is the exit code for argument errors, reported before any
// child process is launched.
const ExitUsage = 2

var (
	cfgFile string
	verbose bool

	// Connection flags
	dsn      string
	host     string
	port     int
	username string
	database string
	password string

	// Command source flags
	sqlCommand string
	sqlFile    string

	// Behavior flags
	timeoutSecs int
	noPager     bool
	onErrorStop bool
	psqlPath    string

	// Output flags
	dryRun       bool
	outputFormat string
	reportPath   string
	metricsFile  string

	// exitCode carries the process status out of Execute. runRoot sets it
	// for every outcome that is not a usage error.
	exitCode int

	// configReadErr holds a config file read failure until the logger is
	// configured; initConfig runs before initLogging.
	configReadErr error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "psqlrun",
	Short: "Run psql with timeout protection",
	Long: `psqlrun invokes the PostgreSQL psql client as a subprocess under a hard
wall-clock timeout, so hung connections or interactive prompts cannot block
an automated caller such as a CI pipeline or a cron job.

The child inherits stdin, stdout and stderr, so query output streams to the
terminal exactly as a direct psql call would. When the deadline elapses the
child is forcefully killed and psqlrun exits 124; a missing psql binary
exits 127; in every other case the child's own exit code passes through
unchanged.`,
	Example: `  psqlrun --host db.internal -U alice -d mydb -c "SELECT count(*) FROM jobs"
  psqlrun --dsn "postgres://alice@db.internal/mydb" -f nightly_report.sql --timeout 120
  psqlrun -c "VACUUM ANALYZE" --on-error-stop --no-pager --report run.json`,
	Version:      versionString(),
	SilenceUsage: true,
	RunE:         runRoot,
}

// Execute runs the root command and maps its outcome to a process exit
// code. Usage errors exit 2; everything else exits with the supervised
// child's taxonomy (its own code, 124 on timeout, 127 when psql is
// missing).
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if exitCode != 0 {
			return exitCode
		}
		return ExitUsage
	}
	return exitCode
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.psqlrun/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Connection flags
	rootCmd.Flags().StringVar(&dsn, "dsn", "", "full PostgreSQL connection string (overrides host/port/username/database)")
	rootCmd.Flags().StringVar(&host, "host", "", "PostgreSQL host name")
	rootCmd.Flags().IntVar(&port, "port", 0, "PostgreSQL port number")
	rootCmd.Flags().StringVarP(&username, "username", "U", "", "PostgreSQL user name")
	rootCmd.Flags().StringVarP(&database, "database", "d", "", "database name")
	rootCmd.Flags().StringVar(&password, "password", "", "password, injected as PGPASSWORD for the child")

	// Command source flags
	rootCmd.Flags().StringVarP(&sqlCommand, "command", "c", "", "inline SQL command to execute")
	rootCmd.Flags().StringVarP(&sqlFile, "file", "f", "", "path to a SQL file to execute")
	rootCmd.MarkFlagsOneRequired("command", "file")
	rootCmd.MarkFlagsMutuallyExclusive("command", "file")

	// Behavior flags
	rootCmd.Flags().IntVar(&timeoutSecs, "timeout", 30, "timeout in seconds before the child is killed")
	rootCmd.Flags().BoolVar(&noPager, "no-pager", false, "disable the psql pager to avoid interactive blocking")
	rootCmd.Flags().BoolVar(&onErrorStop, "on-error-stop", false, "abort on first SQL error")
	rootCmd.Flags().StringVar(&psqlPath, "psql", "psql", "psql executable to invoke")

	// Output flags
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the psql invocation without running it")
	rootCmd.Flags().StringVar(&outputFormat, "output", "table", "dry-run output format: table or json")
	rootCmd.Flags().StringVar(&reportPath, "report", "", "write a run report to this file (.json or .yaml)")
	rootCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		// Search config in home directory with name ".psqlrun/config" (without extension)
		configDir := filepath.Join(home, ".psqlrun")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// Bind specific environment variables
	viper.BindEnv("timeout", "PSQLRUN_TIMEOUT")
	viper.BindEnv("psql_path", "PSQLRUN_PSQL_PATH")
	viper.BindEnv("no_pager", "PSQLRUN_NO_PAGER")
	viper.BindEnv("on_error_stop", "PSQLRUN_ON_ERROR_STOP")
	viper.BindEnv("log_level", "PSQLRUN_LOG_LEVEL")
	viper.BindEnv("report", "PSQLRUN_REPORT")
	viper.BindEnv("metrics_file", "PSQLRUN_METRICS_FILE")
	viper.BindEnv("output", "PSQLRUN_OUTPUT")

	// If a config file is found, read it in. A missing file is fine; a
	// present but unreadable one must not be silently ignored.
	configReadErr = viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(configReadErr, &notFound) {
		configReadErr = nil
	}

	applyConfig()
}

// applyConfig overlays config file and environment values onto flags the
// user did not set explicitly, so precedence is flag, then environment,
// then config file, then built-in default.
func applyConfig() {
	flags := rootCmd.Flags()

	if !flags.Changed("timeout") && viper.IsSet("timeout") {
		timeoutSecs = viper.GetInt("timeout")
	}
	if !flags.Changed("psql") && viper.IsSet("psql_path") {
		psqlPath = viper.GetString("psql_path")
	}
	if !flags.Changed("no-pager") && viper.IsSet("no_pager") {
		noPager = viper.GetBool("no_pager")
	}
	if !flags.Changed("on-error-stop") && viper.IsSet("on_error_stop") {
		onErrorStop = viper.GetBool("on_error_stop")
	}
	if !flags.Changed("report") && viper.IsSet("report") {
		reportPath = viper.GetString("report")
	}
	if !flags.Changed("metrics-file") && viper.IsSet("metrics_file") {
		metricsFile = viper.GetString("metrics_file")
	}
	if !flags.Changed("output") && viper.IsSet("output") {
		outputFormat = viper.GetString("output")
	}
}

// initLogging configures the global logger. The default level is warn so
// psqlrun's own logging never pollutes the child's streamed output;
// --verbose or a log_level config entry raise it.
func initLogging() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	level := log.WarnLevel
	if s := viper.GetString("log_level"); s != "" {
		if parsed, err := log.ParseLevel(s); err == nil {
			level = parsed
		}
	}
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	if configReadErr != nil {
		log.WithError(configReadErr).Warn("Failed to read config file, using defaults")
	} else if used := viper.ConfigFileUsed(); used != "" {
		log.WithField("file", used).Debug("Loaded config file")
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	if timeoutSecs < 1 {
		return fmt.Errorf("--timeout must be at least 1 second, got %d", timeoutSecs)
	}

	opts := psql.Options{
		DSN:         dsn,
		Host:        host,
		Port:        port,
		Username:    username,
		Database:    database,
		Command:     sqlCommand,
		File:        sqlFile,
		OnErrorStop: onErrorStop,
		NoPager:     noPager,
	}

	if dryRun {
		return renderPreview(cmd, newPreview(psqlPath, opts, timeoutSecs))
	}

	res, err := supervisor.Run(context.Background(), supervisor.Invocation{
		Path:    psqlPath,
		Args:    psql.BuildArgs(opts),
		Env:     psql.Environ(os.Environ(), password),
		Timeout: time.Duration(timeoutSecs) * time.Second,
	})
	if err != nil {
		exitCode = 1
		return err
	}

	switch res.Outcome {
	case supervisor.OutcomeNotFound:
		fmt.Fprintln(cmd.ErrOrStderr(), "psql executable not found. Please install PostgreSQL client tools.")
	case supervisor.OutcomeTimedOut:
		fmt.Fprintf(cmd.ErrOrStderr(), "psql command timed out after %d seconds\n", timeoutSecs)
	}
	exitCode = res.ExitCode

	rep := report.New(psqlPath, previewArgs(opts), timeoutSecs, res)
	rep.LogSummary()

	// Export failures must never clobber the child's exit code; they are
	// logged and the run's verdict stands.
	if reportPath != "" {
		if err := rep.WriteFile(reportPath); err != nil {
			log.WithError(err).Warn("Failed to write run report")
		}
	}
	if metricsFile != "" {
		if err := rep.WriteMetricsFile(metricsFile); err != nil {
			log.WithError(err).Warn("Failed to write metrics file")
		}
	}

	return nil
}

// previewArgs builds the display-safe argument vector: the DSN is
// sanitized exactly as the real invocation sanitizes it, then the
// password is masked on top. Reports and previews only ever see this
// form.
func previewArgs(opts psql.Options) []string {
	opts.DSN = psql.RedactDSN(psql.SanitizeDSN(opts.DSN))
	return psql.BuildArgs(opts)
}
