package run

import (
	"context"
	"fmt"
	"os"

	"github.com/dogechain-lab/docwriter/bulkwriter"
	"github.com/dogechain-lab/docwriter/command/helper"
	"github.com/dogechain-lab/docwriter/transport/rpc"
	"github.com/dogechain-lab/docwriter/transport/simple"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	rawgrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var params = defaultParams()

// GetCommand returns the "run" subcommand: it reads a newline-delimited
// JSON stream of document mutations and drives them through a BulkWriter
// against a live write RPC service.
func GetCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:     "run",
		Short:   "Schedule a batch of document writes from an input file through the bulk write scheduler",
		PreRunE: runPreRun,
		Run:     runCommand,
	}

	helper.RegisterGRPCAddressFlag(runCmd)
	helper.RegisterLogLevelFlag(runCmd)
	helper.RegisterJSONOutputFlag(runCmd)

	setFlags(runCmd)

	return runCmd
}

func setFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&params.input, inputFlag, "", "path to a newline-delimited JSON write file (\"-\" for stdin)")
	cmd.Flags().StringVar(&params.database, databaseFlag, params.database, "the database resource name passed to every RPC")
	cmd.Flags().IntVar(&params.maxBatchSize, maxBatchSizeFlag, params.maxBatchSize, "maximum operations per RPC batch")
	cmd.Flags().Int64Var(
		&params.maxConcurrentBatches,
		maxConcurrentBatchesFlag,
		params.maxConcurrentBatches,
		"maximum number of batches with an RPC in flight at once",
	)
	cmd.Flags().BoolVar(
		&params.preferTransactions,
		preferTransactionsFlag,
		false,
		"set the transport's prefer-transactions policy flag (read only by the atomic commit path, which run does not use)",
	)
	cmd.Flags().BoolVar(&params.insecure, insecureFlag, true, "dial the gRPC address without transport security")
}

func runPreRun(cmd *cobra.Command, _ []string) error {
	params.grpcAddress = helper.GetGRPCAddress(cmd)
	params.logLevel = helper.GetLogLevel(cmd)

	return params.validate()
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := helper.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	result, err := execute(cmd.Context(), params)
	if err != nil {
		outputter.SetError(err)

		return
	}

	outputter.SetCommandResult(result)
}

func execute(ctx context.Context, p *runParams) (*RunResult, error) {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "docwriter",
		Level: hclog.LevelFromString(p.logLevel),
	})

	lines, err := readInput(p.input)
	if err != nil {
		return nil, err
	}

	conn, err := dial(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("run: dial %s: %w", p.grpcAddress, err)
	}

	client := rpc.NewClient(logger, conn, p.preferTransactions)
	defer client.Close()

	writer := bulkwriter.New(bulkwriter.Config{
		Database:             p.database,
		MaxBatchSize:         p.maxBatchSize,
		MaxConcurrentBatches: p.maxConcurrentBatches,
		Logger:               logger,
	}, client, simple.New())

	futures := make([]bulkwriter.Future, 0, len(lines))
	skipped := 0

	for _, line := range lines {
		fut, err := enqueueLine(writer, line)
		if err != nil {
			logger.Error("rejected write before enqueue", "path", line.Path, "op", line.Op, "error", err)
			skipped++

			continue
		}

		futures = append(futures, fut)
	}

	if err := writer.Close(ctx); err != nil {
		return nil, fmt.Errorf("run: close writer: %w", err)
	}

	return collectResult(ctx, futures, skipped)
}

func enqueueLine(writer *bulkwriter.BulkWriter, line writeLine) (bulkwriter.Future, error) {
	precondition, err := line.precondition()
	if err != nil {
		return nil, err
	}

	switch line.Op {
	case "create":
		return writer.Create(line.Path, line.Data)
	case "set":
		opts := setOptions(line)

		return writer.Set(line.Path, line.Data, opts...)
	case "update":
		return writer.Update(line.Path, line.Data, precondition)
	case "delete":
		return writer.Delete(line.Path, precondition)
	default:
		return nil, fmt.Errorf("run: unknown op %q", line.Op)
	}
}

func setOptions(line writeLine) []bulkwriter.SetOption {
	if line.MergeAll {
		return []bulkwriter.SetOption{bulkwriter.WithMergeAll()}
	}

	if len(line.MergeFields) > 0 {
		return []bulkwriter.SetOption{bulkwriter.WithMergeFields(line.MergeFields...)}
	}

	return nil
}

func collectResult(ctx context.Context, futures []bulkwriter.Future, skipped int) (*RunResult, error) {
	result := &RunResult{Total: len(futures) + skipped, Failed: skipped}

	for _, fut := range futures {
		if _, err := fut.Wait(ctx); err != nil {
			result.Failed++

			if len(result.Errors) < 10 {
				result.Errors = append(result.Errors, err.Error())
			}

			continue
		}

		result.Succeeded++
	}

	return result, nil
}

func readInput(path string) ([]writeLine, error) {
	if path == "-" {
		return readWriteLines(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("run: open input: %w", err)
	}
	defer f.Close()

	return readWriteLines(f)
}

func dial(ctx context.Context, p *runParams) (*rawgrpc.ClientConn, error) {
	opts := []rawgrpc.DialOption{rawgrpc.WithBlock()}

	if p.insecure {
		opts = append(opts, rawgrpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	return rawgrpc.DialContext(ctx, p.grpcAddress, opts...)
}
