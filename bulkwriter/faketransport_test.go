package bulkwriter_test

import (
	"context"
	"sync"
	"time"

	"github.com/dogechain-lab/docwriter/transport"
)

// fakeTransport is an in-memory transport.Transport good enough to drive
// the scheduler end-to-end: it does not store document data, it records
// every BatchWriteRequest/CommitRequest it receives for assertions on
// batch shape (size, document grouping) and answers each write with a
// strictly increasing fake write time.
type fakeTransport struct {
	mu sync.Mutex

	preferTransactions bool
	lastSuccessMillis  int64
	haveSuccess        bool

	batchWriteCalls []*transport.BatchWriteRequest
	commitCalls     []*transport.CommitRequest
	transactions    int

	// failDocument, when set, makes every write targeting it fail with
	// failErr instead of applying.
	failDocument string
	failErr      error

	// rpcErr, when set, makes the next BatchWrite/Commit call fail
	// wholesale instead of returning per-write statuses.
	rpcErr error

	clock int64
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{clock: 1}
}

func (f *fakeTransport) tick() time.Time {
	f.clock++

	return time.UnixMilli(f.clock)
}

func (f *fakeTransport) BatchWrite(ctx context.Context, req *transport.BatchWriteRequest) (*transport.BatchWriteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batchWriteCalls = append(f.batchWriteCalls, req)

	if f.rpcErr != nil {
		err := f.rpcErr
		f.rpcErr = nil

		return nil, err
	}

	resp := &transport.BatchWriteResponse{Status: make([]transport.Status, len(req.Writes))}

	for i, w := range req.Writes {
		if f.failDocument != "" && w.DocumentPath == f.failDocument {
			resp.Status[i] = transport.Status{Err: f.failErr}

			continue
		}

		resp.Status[i] = transport.Status{Result: transport.WriteResult{WriteTime: f.tick()}}
	}

	f.markSuccessLocked()

	return resp, nil
}

func (f *fakeTransport) Commit(ctx context.Context, req *transport.CommitRequest) (*transport.CommitResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.commitCalls = append(f.commitCalls, req)

	if f.rpcErr != nil {
		err := f.rpcErr
		f.rpcErr = nil

		return nil, err
	}

	commitTime := f.tick()
	resp := &transport.CommitResponse{
		WriteResults: make([]transport.WriteResult, len(req.Writes)),
		CommitTime:   commitTime,
	}

	f.markSuccessLocked()

	return resp, nil
}

func (f *fakeTransport) BeginTransaction(
	ctx context.Context,
	req *transport.BeginTransactionRequest,
) (*transport.BeginTransactionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.transactions++

	return &transport.BeginTransactionResponse{Transaction: []byte("txn")}, nil
}

func (f *fakeTransport) PreferTransactions() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.preferTransactions
}

func (f *fakeTransport) LastSuccessfulRequestMillis() (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.lastSuccessMillis, f.haveSuccess
}

func (f *fakeTransport) markSuccessLocked() {
	f.haveSuccess = true
	f.lastSuccessMillis = f.clock
}

func (f *fakeTransport) setLastSuccessAge(age time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.haveSuccess = true
	f.lastSuccessMillis = time.Now().Add(-age).UnixMilli()
}
