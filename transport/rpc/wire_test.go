package rpc

import (
	"testing"
	"time"

	"github.com/dogechain-lab/docwriter/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEncodeWriteRoundTripsTransformOperands(t *testing.T) {
	t.Parallel()

	w := transport.Write{
		DocumentPath: "docs/1",
		Fields:       map[string]interface{}{"a": 1},
		Transforms: []transport.FieldTransform{
			{FieldPath: "ts", Kind: transport.TransformServerTimestamp},
			{FieldPath: "count", Kind: transport.TransformIncrement, Operand: 5},
			{FieldPath: "tags", Kind: transport.TransformArrayUnion, Operand: []interface{}{"x", "y"}},
			{FieldPath: "old", Kind: transport.TransformArrayRemove, Operand: []interface{}{"z"}},
		},
	}

	encoded, err := encodeWrite(w)
	require.NoError(t, err)

	transforms, ok := encoded["transforms"].([]interface{})
	require.True(t, ok)
	require.Len(t, transforms, 4)

	tsEntry := transforms[0].(map[string]interface{})
	assert.Nil(t, tsEntry["operand"], "ServerTimestamp must carry no operand")

	countEntry := transforms[1].(map[string]interface{})
	assert.Equal(t, float64(5), countEntry["operand"], "Increment operand must be a real number, not a string")

	unionEntry := transforms[2].(map[string]interface{})
	assert.Equal(t, []interface{}{"x", "y"}, unionEntry["operand"], "ArrayUnion operand must be a real list, not a string")

	removeEntry := transforms[3].(map[string]interface{})
	assert.Equal(t, []interface{}{"z"}, removeEntry["operand"])
}

func TestEncodeBatchWriteRequestSurvivesStructpbRoundTrip(t *testing.T) {
	t.Parallel()

	req := &transport.BatchWriteRequest{
		Database: "db",
		Writes: []transport.Write{
			{
				DocumentPath: "docs/1",
				Fields:       map[string]interface{}{"a": 1},
				Transforms: []transport.FieldTransform{
					{FieldPath: "count", Kind: transport.TransformIncrement, Operand: 3},
				},
			},
		},
	}

	msg, err := encodeBatchWriteRequest(req)
	require.NoError(t, err)

	decoded := msg.AsMap()

	writes, ok := decoded["writes"].([]interface{})
	require.True(t, ok)
	require.Len(t, writes, 1)

	write := writes[0].(map[string]interface{})
	transforms := write["transforms"].([]interface{})
	require.Len(t, transforms, 1)

	entry := transforms[0].(map[string]interface{})
	assert.Equal(t, float64(3), entry["operand"], "operand must still be numeric after a real structpb encode/decode cycle")
}

func TestEncodeOperandRejectsUnsupportedTypes(t *testing.T) {
	t.Parallel()

	_, err := encodeOperand(transport.FieldTransform{Kind: transport.TransformIncrement, Operand: "five"})
	require.Error(t, err)

	_, err = encodeOperand(transport.FieldTransform{Kind: transport.TransformArrayUnion, Operand: "not-a-list"})
	require.Error(t, err)
}

func TestDecodeBatchWriteResponseDecodesStatusEntries(t *testing.T) {
	t.Parallel()

	writeTime := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	msg, err := structpb.NewStruct(map[string]interface{}{
		"status": []interface{}{
			map[string]interface{}{"code": float64(0), "updateTime": writeTime.Format(timeLayout)},
			map[string]interface{}{"code": float64(5), "message": "not found"},
		},
	})
	require.NoError(t, err)

	resp, err := decodeBatchWriteResponse(msg)
	require.NoError(t, err)
	require.Len(t, resp.Status, 2)

	assert.NoError(t, resp.Status[0].Err)
	assert.True(t, resp.Status[0].Result.WriteTime.Equal(writeTime))

	require.Error(t, resp.Status[1].Err)
}
