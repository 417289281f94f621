package bulkwriter_test

import (
	"context"
	"testing"
	"time"

	"github.com/dogechain-lab/docwriter/bulkwriter"
	"github.com/dogechain-lab/docwriter/transport/simple"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCoordinator(ft *fakeTransport) *bulkwriter.CommitCoordinator {
	return bulkwriter.NewCommitCoordinator("db", 0, ft, simple.New(), hclog.NewNullLogger(), nil)
}

func TestCommitCoordinator_DirectCommitWhenTransactionsNotPreferred(t *testing.T) {
	ft := newFakeTransport()
	c := newCoordinator(ft)

	_, err := c.Set("docs/a", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	results, err := c.Commit(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Len(t, ft.commitCalls, 1)
	assert.Zero(t, ft.transactions)
	assert.Nil(t, ft.commitCalls[0].Transaction)
}

func TestCommitCoordinator_WrapsInTransactionWhenIdle(t *testing.T) {
	ft := newFakeTransport()
	ft.preferTransactions = true
	// no prior success recorded: haveSuccess is false, which alone should
	// trigger the transactional path.
	c := newCoordinator(ft)

	_, err := c.Set("docs/a", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	_, err = c.Commit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, ft.transactions)
	assert.Equal(t, []byte("txn"), ft.commitCalls[0].Transaction)
}

func TestCommitCoordinator_SkipsTransactionWhenRecentlyActive(t *testing.T) {
	ft := newFakeTransport()
	ft.preferTransactions = true
	ft.setLastSuccessAge(1 * time.Second)

	c := newCoordinator(ft)

	_, err := c.Set("docs/a", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	_, err = c.Commit(context.Background())
	require.NoError(t, err)

	assert.Zero(t, ft.transactions)
	assert.Nil(t, ft.commitCalls[0].Transaction)
}

func TestCommitCoordinator_ExplicitTransactionOverridesHeuristic(t *testing.T) {
	ft := newFakeTransport()
	ft.setLastSuccessAge(1 * time.Second)

	c := newCoordinator(ft).WithTransaction([]byte("pinned"))

	_, err := c.Set("docs/a", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	_, err = c.Commit(context.Background())
	require.NoError(t, err)

	assert.Zero(t, ft.transactions, "an explicit transaction id must skip BeginTransaction entirely")
	assert.Equal(t, []byte("pinned"), ft.commitCalls[0].Transaction)
}

func TestCommitCoordinator_RejectsCommitAfterSuccess(t *testing.T) {
	ft := newFakeTransport()
	c := newCoordinator(ft)

	_, err := c.Set("docs/a", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	_, err = c.Commit(context.Background())
	require.NoError(t, err)

	_, err = c.Commit(context.Background())
	assert.ErrorIs(t, err, bulkwriter.ErrAlreadyCommitted)

	_, err = c.Set("docs/b", map[string]interface{}{"x": 1})
	assert.ErrorIs(t, err, bulkwriter.ErrAlreadyCommitted)
}

func TestCommitCoordinator_RetryAfterTransportFailureResendsSameBatch(t *testing.T) {
	ft := newFakeTransport()
	ft.rpcErr = assertErr("transient")

	c := newCoordinator(ft)

	_, err := c.Set("docs/a", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	_, err = c.Commit(context.Background())
	require.EqualError(t, err, "transient")

	// No Reset: a transport-level failure must leave the coordinator
	// re-enterable, per spec.md §9 — committed gates further enqueues, not
	// further Commit calls.
	_, err = c.Set("docs/b", map[string]interface{}{"x": 1})
	assert.ErrorIs(t, err, bulkwriter.ErrAlreadyCommitted, "enqueue stays rejected once Commit has been entered")

	results, err := c.Commit(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Len(t, ft.commitCalls, 2, "the retried Commit must resend the same operation")
}

func TestCommitCoordinator_ResetAllowsRetry(t *testing.T) {
	ft := newFakeTransport()
	ft.rpcErr = assertErr("transient")

	c := newCoordinator(ft)

	_, err := c.Set("docs/a", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	_, err = c.Commit(context.Background())
	require.Error(t, err)

	c.Reset()

	_, err = c.Set("docs/a", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	results, err := c.Commit(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
}
