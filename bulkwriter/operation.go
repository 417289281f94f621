package bulkwriter

import (
	"context"
	"sync"

	"github.com/dogechain-lab/docwriter/transport"
	"github.com/google/uuid"
)

// Kind identifies the mutation a WriteOperation performs.
type Kind int

const (
	Create Kind = iota
	Set
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case Create:
		return "create"
	case Set:
		return "set"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// PayloadFunc is the deferred wire-form producer captured by a
// WriteOperation at enqueue time. It must be pure and idempotent: it is
// invoked once per send attempt, not once per operation, so retries can
// call it again and observe the same result (spec.md §3, §9).
type PayloadFunc func() (transport.Write, error)

// Future is the single-use handle to an operation's eventual result,
// handed to the caller at enqueue time. It is the Go analogue of the
// single-resolve promise in spec.md §9.
type Future interface {
	// Wait blocks until the operation resolves or ctx is done, whichever
	// comes first.
	Wait(ctx context.Context) (transport.WriteResult, error)
}

// resultPromise is a one-shot, safe-for-concurrent-use result cell: the
// owning batch resolves or rejects it exactly once when the batch's RPC
// response is distributed; the caller observes it through Future.
type resultPromise struct {
	once sync.Once
	done chan struct{}
	res  transport.WriteResult
	err  error
}

func newResultPromise() *resultPromise {
	return &resultPromise{done: make(chan struct{})}
}

func (p *resultPromise) resolve(res transport.WriteResult) {
	p.once.Do(func() {
		p.res = res
		close(p.done)
	})
}

func (p *resultPromise) reject(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

func (p *resultPromise) Wait(ctx context.Context) (transport.WriteResult, error) {
	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return transport.WriteResult{}, ctx.Err()
	}
}

// WriteOperation is the in-memory record of one enqueued mutation. It is
// created on enqueue, never mutated, and resolved exactly once when its
// containing batch receives a response (spec.md §3).
type WriteOperation struct {
	// ID is a unique per-operation identifier assigned at enqueue time.
	// It is an ambient addition (SPEC_FULL.md §5); it plays no role in
	// dispatch semantics and is not attached to logs, traces or metrics
	// labels.
	ID uuid.UUID

	kind         Kind
	documentPath string
	payload      PayloadFunc
	promise      *resultPromise
}

func newWriteOperation(kind Kind, documentPath string, payload PayloadFunc) *WriteOperation {
	return &WriteOperation{
		ID:           uuid.New(),
		kind:         kind,
		documentPath: documentPath,
		payload:      payload,
		promise:      newResultPromise(),
	}
}

// DocumentPath returns the canonical resource name this operation targets.
func (op *WriteOperation) DocumentPath() string {
	return op.documentPath
}

// Kind returns the mutation kind.
func (op *WriteOperation) Kind() Kind {
	return op.kind
}

// Future returns the operation's single-use result handle.
func (op *WriteOperation) Future() Future {
	return op.promise
}
