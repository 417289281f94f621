package bulkwriter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dogechain-lab/docwriter/helper/telemetry"
	"github.com/dogechain-lab/docwriter/transport"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxBatchSize is the server-side cap on operations per RPC
// (spec.md §2).
const DefaultMaxBatchSize = 500

// DefaultMaxConcurrentBatches bounds how many batches may have an RPC in
// flight at once when a caller does not override Config.MaxConcurrentBatches.
const DefaultMaxConcurrentBatches = 1

// IdleThreshold is the connection idle window after which CommitCoordinator
// prefers wrapping a commit in a transaction (spec.md §4.3). It mirrors the
// Cloud Functions container idle-shutdown window the original design is
// calibrated against.
const IdleThreshold = 110 * time.Second

// Config controls a BulkWriter's batching policy and ambient wiring.
type Config struct {
	// Database is the resource name passed through to every RPC
	// (transport.BatchWriteRequest.Database, transport.CommitRequest.Database).
	Database string

	// MaxBatchSize bounds operations per batch. Zero selects
	// DefaultMaxBatchSize.
	MaxBatchSize int

	// MaxConcurrentBatches bounds how many batches may be in flight at
	// once. Zero selects DefaultMaxConcurrentBatches.
	MaxConcurrentBatches int64

	Logger  hclog.Logger
	Tracer  telemetry.Tracer
	Metrics *Metrics
}

func (c Config) withDefaults() Config {
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}

	if c.MaxConcurrentBatches <= 0 {
		c.MaxConcurrentBatches = DefaultMaxConcurrentBatches
	}

	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}

	if c.Tracer == nil {
		c.Tracer = telemetry.NewNilTracerProvider(context.Background()).NewTracer("bulkwriter")
	}

	return c
}

// BulkWriter schedules single-document mutations into bounded RPC batches,
// dispatching as many as Config.MaxConcurrentBatches allows while keeping
// writes to the same document ordered (spec.md §1, §4.2).
//
// Its queue, inFlightDocs refcounts, and dispatch decisions are all
// mutated under a single mutex: the scheduler itself is a cooperative,
// single-threaded state machine (spec.md §5), not a lock-free structure.
type BulkWriter struct {
	cfg        Config
	transport  transport.Transport
	serializer transport.Serializer

	mu           sync.Mutex
	dispatchMu   sync.Mutex
	batches      []*WriteBatch
	inFlightDocs map[string]int
	closed       bool

	sem *semaphore.Weighted
}

// New constructs a BulkWriter bound to the given Transport/Serializer. The
// Transport issues RPCs; the Serializer validates and projects caller data
// into wire form at send time.
func New(cfg Config, t transport.Transport, s transport.Serializer) *BulkWriter {
	cfg = cfg.withDefaults()

	return &BulkWriter{
		cfg:          cfg,
		transport:    t,
		serializer:   s,
		inFlightDocs: make(map[string]int),
		sem:          semaphore.NewWeighted(cfg.MaxConcurrentBatches),
	}
}

// Create enqueues a document creation. Validation failures are returned
// here; a write to a document that already has a write queued in the
// current open batch does not fail, it goes into a new batch instead
// (spec.md §3's duplicate-document rule).
func (w *BulkWriter) Create(documentPath string, data map[string]interface{}) (Future, error) {
	uw := transport.UserWrite{DocumentPath: documentPath, Data: data}
	if err := w.serializer.ValidateCreate(uw); err != nil {
		w.cfg.Metrics.failed(Create)

		return nil, err
	}

	return w.enqueue(Create, documentPath, func() (transport.Write, error) {
		return w.serializer.ProjectCreate(uw)
	})
}

// Set enqueues a full-document replace, or a merge when WithMergeAll/
// WithMergeFields is supplied.
func (w *BulkWriter) Set(documentPath string, data map[string]interface{}, opts ...SetOption) (Future, error) {
	uw := transport.UserWrite{DocumentPath: documentPath, Data: data}
	for _, opt := range opts {
		opt(&uw)
	}

	if err := w.serializer.ValidateSet(uw); err != nil {
		w.cfg.Metrics.failed(Set)

		return nil, err
	}

	return w.enqueue(Set, documentPath, func() (transport.Write, error) {
		return w.serializer.ProjectSet(uw)
	})
}

// Update enqueues a partial-field update.
func (w *BulkWriter) Update(
	documentPath string,
	data map[string]interface{},
	precondition *transport.Precondition,
) (Future, error) {
	uw := transport.UserWrite{DocumentPath: documentPath, Data: data, Precondition: precondition}
	if err := w.serializer.ValidateUpdate(uw); err != nil {
		w.cfg.Metrics.failed(Update)

		return nil, err
	}

	return w.enqueue(Update, documentPath, func() (transport.Write, error) {
		return w.serializer.ProjectUpdate(uw)
	})
}

// Delete enqueues a document deletion.
func (w *BulkWriter) Delete(documentPath string, precondition *transport.Precondition) (Future, error) {
	uw := transport.UserWrite{DocumentPath: documentPath, Precondition: precondition}
	if err := w.serializer.ValidateDelete(uw); err != nil {
		w.cfg.Metrics.failed(Delete)

		return nil, err
	}

	return w.enqueue(Delete, documentPath, func() (transport.Write, error) {
		return w.serializer.ProjectDelete(uw)
	})
}

// enqueue implements spec.md §4.2's six-step algorithm: find or open the
// current batch, split on same-document conflict, block on cross-batch
// conflict, append, then kick the dispatcher. It never suspends: it either
// appends synchronously or returns an error.
func (w *BulkWriter) enqueue(kind Kind, documentPath string, payload PayloadFunc) (Future, error) {
	w.mu.Lock()

	if w.closed {
		w.mu.Unlock()

		return nil, ErrClosed
	}

	op := newWriteOperation(kind, documentPath, payload)

	current := w.lastBatchLocked()
	if current == nil || current.State() != stateOpen {
		current = w.newOpenBatchLocked()
	}

	if current.HasDocument(documentPath) {
		if current.markReadyToSend() {
			w.registerInFlightLocked(current)
		}

		current = w.newOpenBatchLocked()
	}

	if w.inFlightDocs[documentPath] > 0 {
		current.block(map[string]struct{}{documentPath: {}})
	}

	becameReady, err := current.append(op)
	if err != nil {
		w.mu.Unlock()

		return nil, err
	}

	if becameReady {
		w.registerInFlightLocked(current)
	}

	w.mu.Unlock()

	w.cfg.Metrics.enqueued(kind)
	w.kick()

	return op.Future(), nil
}

func (w *BulkWriter) lastBatchLocked() *WriteBatch {
	if len(w.batches) == 0 {
		return nil
	}

	return w.batches[len(w.batches)-1]
}

func (w *BulkWriter) newOpenBatchLocked() *WriteBatch {
	b := newWriteBatch(w.cfg.Database, w.cfg.MaxBatchSize, w.cfg.Logger, w.cfg.Tracer, w.cfg.Metrics)
	w.batches = append(w.batches, b)

	return b
}

// registerInFlightLocked records b's documents as in flight. Called exactly
// once per batch, at the moment it leaves Open, so later conflicting
// enqueues see them via inFlightDocs (spec.md §4.2 step 4).
func (w *BulkWriter) registerInFlightLocked(b *WriteBatch) {
	for _, p := range b.DocumentPaths() {
		w.inFlightDocs[p]++
	}
}

// kick scans the batch queue from the head and dispatches every leading run
// of ReadyToSend, unblocked batches, up to the concurrency limit. It stops
// at the first batch that is still Open (always the last entry, so nothing
// follows it) or still blocked, preserving the queue's FIFO-with-conflict
// ordering instead of skipping ahead to a later unblocked batch.
//
// The scan itself is serialized by dispatchMu so concurrent enqueue/
// completion callers never race to dispatch the same batch twice.
func (w *BulkWriter) kick() {
	w.dispatchMu.Lock()
	defer w.dispatchMu.Unlock()

	for {
		if !w.sem.TryAcquire(1) {
			return
		}

		b := w.nextDispatchable()
		if b == nil {
			w.sem.Release(1)

			return
		}

		go w.dispatchBatch(b)
	}
}

// nextDispatchable finds the first not-yet-claimed ReadyToSend, unblocked
// batch and reserves it (ReadyToSend -> Sent) before returning it, so the
// reservation and the eligibility check are atomic per batch: two racing
// kick() calls can never both claim the same batch.
func (w *BulkWriter) nextDispatchable() *WriteBatch {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, b := range w.batches {
		switch b.State() {
		case stateSent:
			continue
		case stateOpen:
			return nil
		default: // stateReadyToSend
			if b.reserve() {
				return b
			}

			return nil
		}
	}

	return nil
}

func (w *BulkWriter) dispatchBatch(b *WriteBatch) {
	start := time.Now()
	err := b.doSend(context.Background(), w.transport, ModeBatchWrite, nil)
	w.cfg.Metrics.batchSent(time.Since(start).Seconds())

	if err != nil {
		w.cfg.Logger.Error("batch send failed", "error", err, "size", b.Len())
	}

	w.sem.Release(1)
	w.onBatchComplete(b)
}

// onBatchComplete removes b from the queue, releases its documents from
// inFlightDocs, unblocks any later batch that was waiting on them, and
// re-kicks the dispatcher so a newly-unblocked batch can proceed.
func (w *BulkWriter) onBatchComplete(b *WriteBatch) {
	w.mu.Lock()

	for i, cand := range w.batches {
		if cand == b {
			w.batches = append(w.batches[:i], w.batches[i+1:]...)

			break
		}
	}

	for _, p := range b.DocumentPaths() {
		w.inFlightDocs[p]--
		if w.inFlightDocs[p] <= 0 {
			delete(w.inFlightDocs, p)
		}

		for _, other := range w.batches {
			other.unblock(p)
		}
	}

	w.cfg.Metrics.setInFlightBatches(w.countSentLocked())

	w.mu.Unlock()

	w.kick()
}

func (w *BulkWriter) countSentLocked() int {
	n := 0

	for _, b := range w.batches {
		if b.State() == stateSent {
			n++
		}
	}

	return n
}

// Flush marks the current Open batch (if any) ReadyToSend, dispatches
// everything eligible, and waits for every not-yet-completed batch to
// finish. A writer with nothing queued returns immediately without issuing
// any RPC (spec.md §4.2's "flush" operation).
func (w *BulkWriter) Flush(ctx context.Context) error {
	w.mu.Lock()

	if w.closed {
		w.mu.Unlock()

		return ErrClosed
	}

	if last := w.lastBatchLocked(); last != nil {
		if last.markReadyToSend() {
			w.registerInFlightLocked(last)
		}
	}

	snapshot := append([]*WriteBatch(nil), w.batches...)
	w.mu.Unlock()

	w.kick()

	var result *multierror.Error

	for _, b := range snapshot {
		select {
		case <-b.Completed():
		case <-ctx.Done():
			result = multierror.Append(result, fmt.Errorf("bulkwriter: flush interrupted: %w", ctx.Err()))

			return result.ErrorOrNil()
		}
	}

	return result.ErrorOrNil()
}

// Close flushes any outstanding writes and then permanently disables the
// writer: subsequent Create/Set/Update/Delete/Flush/Close calls return
// ErrClosed.
func (w *BulkWriter) Close(ctx context.Context) error {
	if err := w.Flush(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	return nil
}
