package run

import (
	"errors"

	"github.com/dogechain-lab/docwriter/command"
)

const (
	inputFlag                = "input"
	databaseFlag             = "database"
	maxBatchSizeFlag         = "max-batch-size"
	maxConcurrentBatchesFlag = "max-concurrent-batches"
	preferTransactionsFlag   = "prefer-transactions"
	insecureFlag             = "insecure"
)

var errMissingInput = errors.New("run: --input is required")

type runParams struct {
	input                string
	database             string
	maxBatchSize         int
	maxConcurrentBatches int64
	preferTransactions   bool
	insecure             bool
	grpcAddress          string
	logLevel             string
}

func (p *runParams) validate() error {
	if p.input == "" {
		return errMissingInput
	}

	return nil
}

func defaultParams() *runParams {
	return &runParams{
		database:             command.DefaultDatabase,
		maxBatchSize:         command.DefaultMaxBatchSize,
		maxConcurrentBatches: command.DefaultMaxConcurrentBatches,
	}
}
