package bulkwriter

import (
	"context"
	"fmt"
	"sync"

	"github.com/dogechain-lab/docwriter/helper/telemetry"
	"github.com/dogechain-lab/docwriter/transport"
	"github.com/hashicorp/go-hclog"
)

// state is a WriteBatch's lifecycle stage: Open -> ReadyToSend -> Sent.
// The one backwards step is unreserve, which returns a Sent batch to
// ReadyToSend after a failed commit RPC so it can be resent; a batch is
// otherwise never reused (spec.md §3).
type state int32

const (
	stateOpen state = iota
	stateReadyToSend
	stateSent
)

// Mode selects which RPC WriteBatch.Send issues and, correspondingly, how
// it interprets the response (spec.md §4.1).
type Mode int

const (
	// ModeBatchWrite is the non-atomic bulk path: each index's result is
	// independent.
	ModeBatchWrite Mode = iota

	// ModeCommit is the atomic path: an RPC-level failure fails the send as
	// a whole. The batch returns to ReadyToSend and no operation's Future
	// is resolved or rejected, so the same operations can be resent.
	ModeCommit
)

// WriteBatch accumulates up to maxSize writes for distinct documents,
// serializes them to the wire form at send time, and issues exactly one
// RPC that resolves every contained operation's Future (spec.md §4.1).
type WriteBatch struct {
	mu sync.Mutex

	database string
	maxSize  int

	state      state
	docPaths   map[string]struct{}
	operations []*WriteOperation

	// blockedOn holds document paths this batch cannot be sent for yet
	// because an earlier, not-yet-completed batch also touches them
	// (spec.md §4.2 step 4). The BulkWriter dispatcher mutates this set
	// as earlier batches complete.
	blockedOn map[string]struct{}

	completed chan struct{}

	logger  hclog.Logger
	tracer  telemetry.Tracer
	metrics *Metrics
}

func newWriteBatch(database string, maxSize int, logger hclog.Logger, tracer telemetry.Tracer, m *Metrics) *WriteBatch {
	if tracer == nil {
		tracer = telemetry.NewNilTracerProvider(context.Background()).NewTracer("bulkwriter")
	}

	return &WriteBatch{
		database:  database,
		maxSize:   maxSize,
		state:     stateOpen,
		docPaths:  make(map[string]struct{}),
		blockedOn: make(map[string]struct{}),
		completed: make(chan struct{}),
		logger:    logger.Named("write-batch"),
		tracer:    tracer,
		metrics:   m,
	}
}

// State returns the batch's current lifecycle stage. Exposed for tests and
// for the dispatcher's eligibility check.
func (b *WriteBatch) State() state {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// Len reports how many operations the batch currently holds.
func (b *WriteBatch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.operations)
}

// Completed is closed once the batch's RPC response has been fully
// distributed to every contained operation's Future.
func (b *WriteBatch) Completed() <-chan struct{} {
	return b.completed
}

// HasDocument reports whether path already has a write queued in this
// batch.
func (b *WriteBatch) HasDocument(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.docPaths[path]

	return ok
}

// DocumentPaths returns a snapshot copy of the batch's document set, used
// by the BulkWriter to maintain inFlightDocs bookkeeping.
func (b *WriteBatch) DocumentPaths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.docPaths))
	for p := range b.docPaths {
		out = append(out, p)
	}

	return out
}

// append adds op to the batch. It fails with ErrAlreadyCommitted once the
// batch has left Open, and with ErrDuplicateDocument if op's document
// already has a write queued here. It reports whether the append itself
// caused the batch to become full and transition to ReadyToSend, so the
// caller can register the batch's documents as in-flight exactly once
// (spec.md §4.1, §4.2).
func (b *WriteBatch) append(op *WriteOperation) (becameReady bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateOpen {
		return false, ErrAlreadyCommitted
	}

	if _, ok := b.docPaths[op.documentPath]; ok {
		return false, ErrDuplicateDocument
	}

	b.docPaths[op.documentPath] = struct{}{}
	b.operations = append(b.operations, op)

	if len(b.operations) >= b.maxSize {
		b.state = stateReadyToSend

		return true, nil
	}

	return false, nil
}

// markReadyToSend idempotently transitions Open -> ReadyToSend, reporting
// whether this call performed the transition. It is a no-op in any other
// state (spec.md §4.1).
func (b *WriteBatch) markReadyToSend() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateOpen {
		b.state = stateReadyToSend

		return true
	}

	return false
}

// block adds paths to the batch's blocked-on set.
func (b *WriteBatch) block(paths map[string]struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for p := range paths {
		b.blockedOn[p] = struct{}{}
	}
}

// unblock removes a resolved path from the batch's blocked-on set.
func (b *WriteBatch) unblock(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.blockedOn, path)
}

// reserve atomically transitions ReadyToSend -> Sent, but only when the
// batch is currently unblocked. It is the single point where a batch is
// claimed for dispatch, so two concurrent dispatcher passes can never both
// claim the same batch (spec.md §4.2).
func (b *WriteBatch) reserve() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateReadyToSend && len(b.blockedOn) == 0 {
		b.state = stateSent

		return true
	}

	return false
}

// unreserve reverts a Sent batch back to ReadyToSend after a transport-level
// commit failure, so the transactional-retry wrapper (spec.md §4.3,
// CommitCoordinator.Commit) can legally re-reserve and resend the same
// operations. The ordinary BatchWrite path never calls this: it has no
// named retry exception and rejects its operations permanently on failure.
func (b *WriteBatch) unreserve() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateSent {
		b.state = stateReadyToSend
	}
}

// Send reserves the batch (ReadyToSend -> Sent) and issues its single RPC,
// distributing results to every contained operation's Future. It fails
// with ErrNotReady if the batch is not currently ReadyToSend and unblocked
// (spec.md §4.1).
func (b *WriteBatch) Send(ctx context.Context, t transport.Transport, mode Mode) error {
	if !b.reserve() {
		return ErrNotReady
	}

	return b.doSend(ctx, t, mode, nil)
}

// SendCommit is Send restricted to ModeCommit with an explicit transaction
// id, used by CommitCoordinator once it has decided (or been told) that
// this commit must run inside a transaction (spec.md §4.3).
func (b *WriteBatch) SendCommit(ctx context.Context, t transport.Transport, transactionID []byte) error {
	if !b.reserve() {
		return ErrNotReady
	}

	return b.doSend(ctx, t, ModeCommit, transactionID)
}

// doSend runs the wire exchange for an already-reserved (Sent) batch.
func (b *WriteBatch) doSend(ctx context.Context, t transport.Transport, mode Mode, transactionID []byte) error {
	b.mu.Lock()
	ops := append([]*WriteOperation(nil), b.operations...)
	b.mu.Unlock()

	span := b.tracer.Start("WriteBatch.Send")
	span.SetAttribute("docwriter.batch.size", len(ops))
	span.SetAttribute("docwriter.batch.mode", mode == ModeCommit)

	defer span.End()

	writes, err := serialize(ops)
	if err != nil {
		span.RecordError(err)
		b.rejectAll(ops, err)
		close(b.completed)

		return err
	}

	switch mode {
	case ModeCommit:
		// sendCommitWithTransaction closes b.completed itself: on any
		// transport failure it returns the batch to ReadyToSend for
		// another attempt instead of finalizing it.
		return b.sendCommitWithTransaction(ctx, t, ops, writes, transactionID, span)
	default:
		err := b.sendBatchWrite(ctx, t, ops, writes, span)
		close(b.completed)

		return err
	}
}

// collectResults waits for every contained operation's Future and returns
// their results in enqueue order. By the time Send/SendCommit has
// returned, every Future is already resolved, so this only blocks on ctx
// cancellation.
func (b *WriteBatch) collectResults(ctx context.Context) ([]transport.WriteResult, error) {
	b.mu.Lock()
	ops := append([]*WriteOperation(nil), b.operations...)
	b.mu.Unlock()

	results := make([]transport.WriteResult, len(ops))

	for i, op := range ops {
		res, err := op.Future().Wait(ctx)
		if err != nil {
			return nil, err
		}

		results[i] = res
	}

	return results, nil
}

// serialize invokes each operation's deferred payload producer in append
// order, per spec.md §4.1: deferred so the Serializer can observe any
// state finalized after enqueue, and so a retry can cheaply reproduce the
// same request.
func serialize(ops []*WriteOperation) ([]transport.Write, error) {
	writes := make([]transport.Write, len(ops))

	for i, op := range ops {
		w, err := op.payload()
		if err != nil {
			return nil, fmt.Errorf("serialize operation %d (%s): %w", i, op.documentPath, err)
		}

		writes[i] = w
	}

	return writes, nil
}

func (b *WriteBatch) rejectAll(ops []*WriteOperation, err error) {
	for _, op := range ops {
		b.metrics.failed(op.Kind())
		op.promise.reject(err)
	}
}

func (b *WriteBatch) sendBatchWrite(
	ctx context.Context,
	t transport.Transport,
	ops []*WriteOperation,
	writes []transport.Write,
	span telemetry.Span,
) error {
	resp, err := t.BatchWrite(ctx, &transport.BatchWriteRequest{Database: b.database, Writes: writes})
	if err != nil {
		span.RecordError(err)
		b.rejectAll(ops, err)

		return err
	}

	if len(resp.Status) != len(ops) {
		err := fmt.Errorf("bulkwriter: batchWrite returned %d statuses for %d writes", len(resp.Status), len(ops))
		span.RecordError(err)
		b.rejectAll(ops, err)

		return err
	}

	for i, op := range ops {
		st := resp.Status[i]
		if st.Err != nil {
			b.metrics.failed(op.Kind())
			op.promise.reject(st.Err)

			continue
		}

		op.promise.resolve(st.Result)
	}

	return nil
}

// sendCommitWithTransaction is shared by WriteBatch's own commit path and
// by CommitCoordinator, which needs to attach a transaction id obtained
// from a prior BeginTransaction call.
func (b *WriteBatch) sendCommitWithTransaction(
	ctx context.Context,
	t transport.Transport,
	ops []*WriteOperation,
	writes []transport.Write,
	transactionID []byte,
	span telemetry.Span,
) error {
	resp, err := t.Commit(ctx, &transport.CommitRequest{
		Database:    b.database,
		Writes:      writes,
		Transaction: transactionID,
	})
	if err != nil {
		// The RPC never reached the server, or the server never replied:
		// nothing was durably written, so this is the named retry
		// exception of spec.md §4.1 — revert instead of finalizing, and
		// leave every Future pending for the retried attempt to resolve.
		span.RecordError(err)
		b.unreserve()

		return err
	}

	defer close(b.completed)

	if len(resp.WriteResults) != len(ops) {
		err := fmt.Errorf("bulkwriter: commit returned %d results for %d writes", len(resp.WriteResults), len(ops))
		span.RecordError(err)
		b.rejectAll(ops, err)

		return err
	}

	for i, op := range ops {
		result := resp.WriteResults[i]
		if result.WriteTime.IsZero() {
			result.WriteTime = resp.CommitTime
		}

		op.promise.resolve(result)
	}

	return nil
}
