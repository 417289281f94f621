package bulkwriter_test

import (
	"context"
	"testing"

	"github.com/dogechain-lab/docwriter/bulkwriter"
	"github.com/dogechain-lab/docwriter/transport/simple"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkWriter_CloseRejectsFurtherEnqueues(t *testing.T) {
	ft := newFakeTransport()
	w := bulkwriter.New(bulkwriter.Config{Database: "db"}, ft, simple.New())

	_, err := w.Set("docs/a", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	require.NoError(t, w.Close(context.Background()))

	_, err = w.Set("docs/b", map[string]interface{}{"x": 1})
	assert.ErrorIs(t, err, bulkwriter.ErrClosed)

	assert.ErrorIs(t, w.Flush(context.Background()), bulkwriter.ErrClosed)
	assert.ErrorIs(t, w.Close(context.Background()), bulkwriter.ErrClosed)
}

func TestBulkWriter_ValidationRejectsBeforeEnqueue(t *testing.T) {
	ft := newFakeTransport()
	w := bulkwriter.New(bulkwriter.Config{Database: "db"}, ft, simple.New())

	_, err := w.Create("docs/a", nil)
	require.Error(t, err)

	require.NoError(t, w.Flush(context.Background()))
	assert.Empty(t, ft.batchWriteCalls, "a rejected validation must never reach the transport")
}

func TestBulkWriter_RespectsMaxConcurrentBatches(t *testing.T) {
	ft := newFakeTransport()
	w := bulkwriter.New(
		bulkwriter.Config{Database: "db", MaxBatchSize: 1, MaxConcurrentBatches: 1},
		ft,
		simple.New(),
	)

	futures := make([]bulkwriter.Future, 0, 4)

	for i := 0; i < 4; i++ {
		fut, err := w.Set(docPath(i), map[string]interface{}{"x": i})
		require.NoError(t, err)

		futures = append(futures, fut)
	}

	require.NoError(t, w.Flush(context.Background()))

	for _, fut := range futures {
		_, err := fut.Wait(context.Background())
		require.NoError(t, err)
	}

	require.Len(t, ft.batchWriteCalls, 4)
}
