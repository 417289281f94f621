// Package command holds constants and helpers shared by every docwriter
// subcommand (command/run, command/version) and the root command that
// wires them together.
package command

import "github.com/dogechain-lab/docwriter/bulkwriter"

const (
	// DefaultDatabase is used when a subcommand's --database flag is left
	// unset.
	DefaultDatabase = "default"
)

// DefaultMaxBatchSize and DefaultMaxConcurrentBatches alias the bulkwriter
// package's own defaults rather than duplicating the numbers, so CLI flag
// help text can never drift out of sync with the scheduler it configures.
var (
	DefaultMaxBatchSize         = bulkwriter.DefaultMaxBatchSize
	DefaultMaxConcurrentBatches = int64(bulkwriter.DefaultMaxConcurrentBatches)
)
