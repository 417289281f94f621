// Package transport defines the external collaborators the bulk write
// scheduler depends on but does not implement: the wire-level RPC
// transport and the per-field write serializer. Concrete implementations
// live in transport/rpc (a gRPC-backed Transport) and transport/simple (a
// reference Serializer); callers may supply their own.
package transport

import (
	"context"
	"time"
)

// Precondition gates a mutation on the server-side document state. Exactly
// one of Exists or LastUpdateTime is meaningful, selected by HasExists.
type Precondition struct {
	HasExists      bool
	Exists         bool
	LastUpdateTime time.Time
}

// Write is the wire form of a single mutation, produced by a Serializer and
// consumed by a Transport at send time.
type Write struct {
	// DocumentPath is the canonical resource name the mutation targets.
	DocumentPath string

	// Fields holds the document's field values for Create/Set/Update. Nil
	// for Delete.
	Fields map[string]interface{}

	// UpdateMask lists the field paths the server should replace, leaving
	// all others untouched. Empty for Create, Delete and a non-merge Set.
	UpdateMask []string

	// Transforms holds server-computed field mutations (timestamp stamp,
	// numeric increment, array union/remove) layered on top of Fields.
	Transforms []FieldTransform

	// IsDelete marks a delete mutation; Fields/UpdateMask/Transforms are
	// meaningless when true.
	IsDelete bool

	// CurrentDocument is attached from Precondition only when the
	// Serializer produced one; see bulkwriter's deferred serialization.
	CurrentDocument *Precondition
}

// FieldTransform is a server-computed mutation layered onto a Write.
type FieldTransform struct {
	FieldPath string
	Kind      TransformKind
	// Operand carries the numeric increment/minimum/maximum value or the
	// elements for ArrayUnion/ArrayRemove; unused for ServerTimestamp.
	Operand interface{}
}

// TransformKind enumerates the transform operations a Serializer may emit.
type TransformKind int

const (
	TransformServerTimestamp TransformKind = iota
	TransformIncrement
	TransformArrayUnion
	TransformArrayRemove
	TransformMinimum
	TransformMaximum
)

// WriteResult is the outcome of one successfully applied mutation.
type WriteResult struct {
	WriteTime time.Time
}

// Status is the per-write outcome reported by BatchWrite, aligned by index
// with the request's Writes. A nil Err means the write applied; Err, when
// non-nil, always carries a *grpc/status.Status created via
// google.golang.org/grpc/status so callers can recover the code.
type Status struct {
	Result WriteResult
	Err    error
}

// BatchWriteRequest is the non-atomic bulk write RPC request.
type BatchWriteRequest struct {
	Database string
	Writes   []Write
}

// BatchWriteResponse carries one Status per request Write, index-aligned.
type BatchWriteResponse struct {
	Status []Status
}

// CommitRequest is the atomic commit RPC request, optionally scoped to a
// transaction.
type CommitRequest struct {
	Database    string
	Writes      []Write
	Transaction []byte
}

// CommitResponse carries one WriteResult per request Write (index-aligned)
// plus the server's commit timestamp, used to fill in a WriteResult whose
// own WriteTime is zero.
type CommitResponse struct {
	WriteResults []WriteResult
	CommitTime   time.Time
}

// BeginTransactionRequest starts a new transaction.
type BeginTransactionRequest struct {
	Database string
}

// BeginTransactionResponse carries the opaque transaction id to be
// threaded into a subsequent CommitRequest.
type BeginTransactionResponse struct {
	Transaction []byte
}

// Transport is the RPC surface the scheduler drives. Implementations are
// shared, read-only collaborators: safe for concurrent use once
// constructed.
type Transport interface {
	BatchWrite(ctx context.Context, req *BatchWriteRequest) (*BatchWriteResponse, error)
	Commit(ctx context.Context, req *CommitRequest) (*CommitResponse, error)
	BeginTransaction(ctx context.Context, req *BeginTransactionRequest) (*BeginTransactionResponse, error)

	// PreferTransactions reports the static policy flag the
	// CommitCoordinator reads to decide whether idle commits should be
	// wrapped in a transaction.
	PreferTransactions() bool

	// LastSuccessfulRequestMillis returns the monotonic millisecond
	// timestamp of the last successful RPC, or (0, false) if none has
	// completed yet.
	LastSuccessfulRequestMillis() (int64, bool)
}

// UserWrite is the caller-facing description of one mutation, before
// validation. MergeFields, when non-nil, requests a merge Set restricted
// to the listed paths (dotted notation); MergeAll requests a merge Set
// across every field present in Data.
type UserWrite struct {
	DocumentPath string
	Data         map[string]interface{}
	MergeAll     bool
	MergeFields  []string
	Precondition *Precondition
}

// Serializer validates and projects caller-facing writes into their wire
// form. Implementations must be safe for concurrent use; Project must be
// pure so it may be invoked more than once (deferred/retried
// serialization, see bulkwriter's PayloadFunc).
type Serializer interface {
	// ValidateCreate/ValidateSet/ValidateUpdate/ValidateDelete run
	// synchronously at the enqueue site and reject malformed user data,
	// conflicting/prefixed field paths, and disallowed preconditions.
	ValidateCreate(w UserWrite) error
	ValidateSet(w UserWrite) error
	ValidateUpdate(w UserWrite) error
	ValidateDelete(w UserWrite) error

	// ProjectCreate/ProjectSet/ProjectUpdate/ProjectDelete convert an
	// already-validated UserWrite into its wire Write. Called lazily, at
	// send time, once per attempt.
	ProjectCreate(w UserWrite) (Write, error)
	ProjectSet(w UserWrite) (Write, error)
	ProjectUpdate(w UserWrite) (Write, error)
	ProjectDelete(w UserWrite) (Write, error)
}
