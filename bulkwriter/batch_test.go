package bulkwriter_test

import (
	"context"
	"testing"

	"github.com/dogechain-lab/docwriter/bulkwriter"
	"github.com/dogechain-lab/docwriter/transport/simple"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkWriter_SingleSetSucceeds(t *testing.T) {
	ft := newFakeTransport()
	w := bulkwriter.New(bulkwriter.Config{Database: "projects/p/databases/(default)"}, ft, simple.New())

	future, err := w.Set("docs/a", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	require.NoError(t, w.Flush(context.Background()))

	res, err := future.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, res.WriteTime.IsZero())

	require.Len(t, ft.batchWriteCalls, 1)
	assert.Len(t, ft.batchWriteCalls[0].Writes, 1)
}

func TestBulkWriter_SurfacesPerWriteFailure(t *testing.T) {
	ft := newFakeTransport()
	ft.failDocument = "docs/bad"
	ft.failErr = assertErr("boom")

	w := bulkwriter.New(bulkwriter.Config{Database: "db"}, ft, simple.New())

	good, err := w.Set("docs/good", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	bad, err := w.Set("docs/bad", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	require.NoError(t, w.Flush(context.Background()))

	_, err = good.Wait(context.Background())
	assert.NoError(t, err)

	_, err = bad.Wait(context.Background())
	assert.Error(t, err)
}

func TestBulkWriter_SameDocumentSplitsAcrossBatches(t *testing.T) {
	ft := newFakeTransport()
	w := bulkwriter.New(bulkwriter.Config{Database: "db"}, ft, simple.New())

	first, err := w.Set("docs/a", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	second, err := w.Set("docs/a", map[string]interface{}{"x": 2})
	require.NoError(t, err)

	require.NoError(t, w.Flush(context.Background()))

	_, err = first.Wait(context.Background())
	require.NoError(t, err)

	_, err = second.Wait(context.Background())
	require.NoError(t, err)

	require.Len(t, ft.batchWriteCalls, 2, "writes to the same document must land in different RPCs")
}

func TestBulkWriter_SizeSplitsIntoCeilBatches(t *testing.T) {
	ft := newFakeTransport()
	w := bulkwriter.New(bulkwriter.Config{Database: "db", MaxBatchSize: 2, MaxConcurrentBatches: 4}, ft, simple.New())

	futures := make([]bulkwriter.Future, 0, 5)

	for i := 0; i < 5; i++ {
		fut, err := w.Set(docPath(i), map[string]interface{}{"x": i})
		require.NoError(t, err)

		futures = append(futures, fut)
	}

	require.NoError(t, w.Flush(context.Background()))

	for _, fut := range futures {
		_, err := fut.Wait(context.Background())
		require.NoError(t, err)
	}

	require.Len(t, ft.batchWriteCalls, 3, "5 operations at max size 2 must take ceil(5/2)=3 RPCs")
}

func TestBulkWriter_FlushOnEmptyWriterIssuesNoRPC(t *testing.T) {
	ft := newFakeTransport()
	w := bulkwriter.New(bulkwriter.Config{Database: "db"}, ft, simple.New())

	require.NoError(t, w.Flush(context.Background()))
	assert.Empty(t, ft.batchWriteCalls, "flushing an empty writer must not issue any RPC")
}

func TestBulkWriter_ConflictingDocumentBlocksUntilEarlierBatchCompletes(t *testing.T) {
	ft := newFakeTransport()
	w := bulkwriter.New(bulkwriter.Config{Database: "db", MaxBatchSize: 1, MaxConcurrentBatches: 4}, ft, simple.New())

	first, err := w.Set("docs/a", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	second, err := w.Set("docs/a", map[string]interface{}{"x": 2})
	require.NoError(t, err)

	require.NoError(t, w.Flush(context.Background()))

	r1, err := first.Wait(context.Background())
	require.NoError(t, err)

	r2, err := second.Wait(context.Background())
	require.NoError(t, err)

	assert.True(t, r2.WriteTime.After(r1.WriteTime), "the conflicting write must be observed to complete after the first")
}

func docPath(i int) string {
	return "docs/" + string(rune('a'+i))
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func assertErr(msg string) error { return simpleErr(msg) }
