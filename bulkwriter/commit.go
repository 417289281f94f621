package bulkwriter

import (
	"context"
	"sync"
	"time"

	"github.com/dogechain-lab/docwriter/helper/telemetry"
	"github.com/dogechain-lab/docwriter/transport"
	"github.com/hashicorp/go-hclog"
)

// CommitCoordinator drives a single all-or-nothing commit: every operation
// queued on it lands in exactly one WriteBatch, sent once, with no
// splitting and no document-level independence (spec.md §4.3). It is the
// atomic counterpart to BulkWriter, used for a "last write before an idle
// shutdown" case where the caller would rather block than risk losing the
// connection mid-batch.
type CommitCoordinator struct {
	database string
	maxSize  int

	transport  transport.Transport
	serializer transport.Serializer

	logger hclog.Logger
	tracer telemetry.Tracer

	mu        sync.Mutex
	batch     *WriteBatch
	committed bool
	succeeded bool

	// transactionID, when set by the caller, forces a transactional
	// commit regardless of the idle-threshold heuristic (spec.md §4.3).
	transactionID []byte
}

// NewCommitCoordinator constructs a coordinator bound to a single commit
// attempt. maxSize bounds how many operations the underlying batch accepts
// before further enqueues fail with ErrAlreadyCommitted; zero selects
// DefaultMaxBatchSize.
func NewCommitCoordinator(
	database string,
	maxSize int,
	t transport.Transport,
	s transport.Serializer,
	logger hclog.Logger,
	tracer telemetry.Tracer,
) *CommitCoordinator {
	if maxSize <= 0 {
		maxSize = DefaultMaxBatchSize
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	if tracer == nil {
		tracer = telemetry.NewNilTracerProvider(context.Background()).NewTracer("bulkwriter")
	}

	c := &CommitCoordinator{
		database:   database,
		maxSize:    maxSize,
		transport:  t,
		serializer: s,
		logger:     logger.Named("commit-coordinator"),
		tracer:     tracer,
	}

	c.batch = newWriteBatch(database, maxSize, logger, tracer, nil)

	return c
}

// WithTransaction forces Commit to pass transactionID through to the
// Commit RPC unconditionally, bypassing the idle-threshold heuristic. It
// must be called before any Create/Set/Update/Delete.
func (c *CommitCoordinator) WithTransaction(transactionID []byte) *CommitCoordinator {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transactionID = transactionID

	return c
}

func (c *CommitCoordinator) Create(documentPath string, data map[string]interface{}) (Future, error) {
	uw := transport.UserWrite{DocumentPath: documentPath, Data: data}
	if err := c.serializer.ValidateCreate(uw); err != nil {
		return nil, err
	}

	return c.enqueue(Create, documentPath, func() (transport.Write, error) {
		return c.serializer.ProjectCreate(uw)
	})
}

func (c *CommitCoordinator) Set(documentPath string, data map[string]interface{}, opts ...SetOption) (Future, error) {
	uw := transport.UserWrite{DocumentPath: documentPath, Data: data}
	for _, opt := range opts {
		opt(&uw)
	}

	if err := c.serializer.ValidateSet(uw); err != nil {
		return nil, err
	}

	return c.enqueue(Set, documentPath, func() (transport.Write, error) {
		return c.serializer.ProjectSet(uw)
	})
}

func (c *CommitCoordinator) Update(
	documentPath string,
	data map[string]interface{},
	precondition *transport.Precondition,
) (Future, error) {
	uw := transport.UserWrite{DocumentPath: documentPath, Data: data, Precondition: precondition}
	if err := c.serializer.ValidateUpdate(uw); err != nil {
		return nil, err
	}

	return c.enqueue(Update, documentPath, func() (transport.Write, error) {
		return c.serializer.ProjectUpdate(uw)
	})
}

func (c *CommitCoordinator) Delete(documentPath string, precondition *transport.Precondition) (Future, error) {
	uw := transport.UserWrite{DocumentPath: documentPath, Precondition: precondition}
	if err := c.serializer.ValidateDelete(uw); err != nil {
		return nil, err
	}

	return c.enqueue(Delete, documentPath, func() (transport.Write, error) {
		return c.serializer.ProjectDelete(uw)
	})
}

func (c *CommitCoordinator) enqueue(kind Kind, documentPath string, payload PayloadFunc) (Future, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.committed {
		return nil, ErrAlreadyCommitted
	}

	op := newWriteOperation(kind, documentPath, payload)
	if _, err := c.batch.append(op); err != nil {
		return nil, err
	}

	return op.Future(), nil
}

// Commit sends the accumulated batch as a single atomic Commit RPC and
// returns its results in enqueue order. It decides between a direct commit
// and a transactional one per spec.md §4.3:
//
//   - an explicit transaction id set via WithTransaction always wins;
//   - otherwise, if the Transport prefers transactions and either no RPC
//     has ever succeeded or the last one was more than IdleThreshold ago,
//     Commit first calls BeginTransaction and retries with the id it
//     returns;
//   - otherwise the commit is sent directly, with no transaction id.
//
// Commit may be re-entered after a failed attempt (spec.md §9: the
// committed flag only forbids further enqueues, it does not forbid
// re-entering Commit itself). A transport-level failure leaves the
// underlying batch in ReadyToSend, so a retried call resends the same
// operations. Once a call actually succeeds, every further call returns
// ErrAlreadyCommitted; Reset is the separate, heavier mechanism for
// starting over with a new batch entirely.
func (c *CommitCoordinator) Commit(ctx context.Context) ([]transport.WriteResult, error) {
	c.mu.Lock()

	if c.succeeded {
		c.mu.Unlock()

		return nil, ErrAlreadyCommitted
	}

	c.committed = true
	batch := c.batch
	transactionID := c.transactionID
	c.mu.Unlock()

	if transactionID == nil && c.shouldUseTransaction() {
		resp, err := c.transport.BeginTransaction(ctx, &transport.BeginTransactionRequest{Database: c.database})
		if err != nil {
			return nil, err
		}

		transactionID = resp.Transaction
	}

	batch.markReadyToSend()

	if err := batch.SendCommit(ctx, c.transport, transactionID); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.succeeded = true
	c.mu.Unlock()

	return batch.collectResults(ctx)
}

// shouldUseTransaction implements the idle-threshold half of spec.md
// §4.3's decision: the coordinator only consults it when the caller didn't
// pin a transaction id explicitly.
func (c *CommitCoordinator) shouldUseTransaction() bool {
	if !c.transport.PreferTransactions() {
		return false
	}

	lastMillis, ok := c.transport.LastSuccessfulRequestMillis()
	if !ok {
		return true
	}

	idleFor := time.Since(time.UnixMilli(lastMillis))

	return idleFor > IdleThreshold
}

// Reset discards the current batch's state and starts a fresh one so the
// same CommitCoordinator can be reused for a retry after a failed Commit,
// without callers re-building their write set.
func (c *CommitCoordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.committed = false
	c.succeeded = false
	c.batch = newWriteBatch(c.database, c.maxSize, c.logger, c.tracer, nil)
}
