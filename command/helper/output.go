// Package helper provides the small pieces of CLI plumbing every docwriter
// subcommand shares: flag registration, and the JSON/plain-text output
// formatter pattern used throughout the command tree.
package helper

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// JSONOutputFlag toggles machine-readable output on any command.
const JSONOutputFlag = "json"

// CommandResult is implemented by every subcommand's result type. GetOutput
// renders the plain-text form; JSON output marshals the result as-is.
type CommandResult interface {
	GetOutput() string
}

// OutputFormatter accumulates a command's result (or error) and writes it
// to stdout/stderr in the format the caller asked for.
type OutputFormatter interface {
	SetCommandResult(result CommandResult)
	SetError(err error)
	WriteOutput()
}

// RegisterJSONOutputFlag adds the --json flag to cmd.
func RegisterJSONOutputFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool(JSONOutputFlag, false, "get all outputs in json format (default false)")
}

// InitializeOutputter builds the OutputFormatter matching the command's
// --json flag.
func InitializeOutputter(cmd *cobra.Command) OutputFormatter {
	isJSON, _ := cmd.Flags().GetBool(JSONOutputFlag)

	if isJSON {
		return &jsonOutputFormatter{}
	}

	return &textOutputFormatter{}
}

type jsonOutputFormatter struct {
	result CommandResult
	err    error
}

func (f *jsonOutputFormatter) SetCommandResult(result CommandResult) { f.result = result }
func (f *jsonOutputFormatter) SetError(err error)                    { f.err = err }

func (f *jsonOutputFormatter) WriteOutput() {
	if f.err != nil {
		_ = json.NewEncoder(os.Stderr).Encode(map[string]string{"error": f.err.Error()})

		return
	}

	if f.result == nil {
		return
	}

	_ = json.NewEncoder(os.Stdout).Encode(f.result)
}

type textOutputFormatter struct {
	result CommandResult
	err    error
}

func (f *textOutputFormatter) SetCommandResult(result CommandResult) { f.result = result }
func (f *textOutputFormatter) SetError(err error)                    { f.err = err }

func (f *textOutputFormatter) WriteOutput() {
	if f.err != nil {
		fmt.Fprintln(os.Stderr, f.err.Error()) //nolint:errcheck

		return
	}

	if f.result == nil {
		return
	}

	fmt.Fprintln(os.Stdout, f.result.GetOutput()) //nolint:errcheck
}

// FormatKV renders "key|value" pairs as an aligned two-column table, in the
// style every docwriter command result uses for its plain-text output.
func FormatKV(rows []string) string {
	maxKeyLen := 0
	keys := make([]string, len(rows))
	values := make([]string, len(rows))

	for i, row := range rows {
		key, value := splitKV(row)
		keys[i] = key
		values[i] = value

		if len(key) > maxKeyLen {
			maxKeyLen = len(key)
		}
	}

	out := ""

	for i := range rows {
		out += fmt.Sprintf("%-*s = %s\n", maxKeyLen, keys[i], values[i])
	}

	return out
}

func splitKV(row string) (string, string) {
	for i := 0; i < len(row); i++ {
		if row[i] == '|' {
			return row[:i], row[i+1:]
		}
	}

	return row, ""
}
