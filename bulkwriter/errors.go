package bulkwriter

import "errors"

var (
	// ErrAlreadyCommitted is returned by WriteBatch.append once the batch
	// has left the Open state, and by CommitCoordinator once Commit has
	// been entered (enqueues) or has succeeded (further Commit calls).
	ErrAlreadyCommitted = errors.New("bulkwriter: batch already committed")

	// ErrDuplicateDocument is returned by WriteBatch.append when the
	// target document already has a write queued in the same batch.
	ErrDuplicateDocument = errors.New("bulkwriter: duplicate document in batch")

	// ErrClosed is returned by BulkWriter's enqueue methods, and by its
	// Flush/Close, once the writer has been closed.
	ErrClosed = errors.New("bulkwriter: writer is closed")

	// ErrNotReady is returned by WriteBatch.Send when the batch is not in
	// the ReadyToSend state.
	ErrNotReady = errors.New("bulkwriter: batch is not ready to send")
)
