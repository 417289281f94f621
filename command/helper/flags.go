package helper

import "github.com/spf13/cobra"

const (
	// GRPCAddressFlag is the flag every subcommand that dials the write
	// RPC service registers.
	GRPCAddressFlag = "grpc-address"

	// LogLevelFlag controls the hclog level used by the command's logger.
	LogLevelFlag = "log-level"
)

// RegisterGRPCAddressFlag adds --grpc-address to cmd.
func RegisterGRPCAddressFlag(cmd *cobra.Command) {
	cmd.Flags().String(
		GRPCAddressFlag,
		"127.0.0.1:9632",
		"the gRPC address of the write RPC service (host:port)",
	)
}

// RegisterLogLevelFlag adds --log-level to cmd.
func RegisterLogLevelFlag(cmd *cobra.Command) {
	cmd.Flags().String(
		LogLevelFlag,
		"info",
		"the log level for console output (trace, debug, info, warn, error)",
	)
}

// GetGRPCAddress reads --grpc-address off cmd.
func GetGRPCAddress(cmd *cobra.Command) string {
	address, _ := cmd.Flags().GetString(GRPCAddressFlag)

	return address
}

// GetLogLevel reads --log-level off cmd.
func GetLogLevel(cmd *cobra.Command) string {
	level, _ := cmd.Flags().GetString(LogLevelFlag)

	return level
}
