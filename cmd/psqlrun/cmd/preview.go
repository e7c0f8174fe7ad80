package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/psql-runner/pkg/psql"
)

// previewInfo is the dry-run view of an invocation: everything the real
// run would use, with secrets already masked.
type previewInfo struct {
	Binary         string   `json:"binary"`
	Args           []string `json:"args"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	PasswordSet    bool     `json:"password_set"`
	ReportPath     string   `json:"report,omitempty"`
	MetricsFile    string   `json:"metrics_file,omitempty"`
}

func newPreview(binary string, opts psql.Options, timeoutSeconds int) previewInfo {
	return previewInfo{
		Binary:         binary,
		Args:           previewArgs(opts),
		TimeoutSeconds: timeoutSeconds,
		PasswordSet:    password != "",
		ReportPath:     reportPath,
		MetricsFile:    metricsFile,
	}
}

// renderPreview writes the dry-run view in the requested output format.
func renderPreview(cmd *cobra.Command, info previewInfo) error {
	if IsJSONOutput() {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Field", "Value")
	table.Append("Binary", info.Binary)
	table.Append("Arguments", strings.Join(info.Args, " "))
	table.Append("Timeout", fmt.Sprintf("%ds", info.TimeoutSeconds))
	table.Append("Password Set", strconv.FormatBool(info.PasswordSet))
	if info.ReportPath != "" {
		table.Append("Report", info.ReportPath)
	}
	if info.MetricsFile != "" {
		table.Append("Metrics File", info.MetricsFile)
	}
	table.Render()

	return nil
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}
