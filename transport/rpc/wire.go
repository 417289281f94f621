package rpc

import (
	"fmt"
	"time"

	"github.com/dogechain-lab/docwriter/transport"
	"google.golang.org/protobuf/types/known/structpb"
)

// These helpers marshal the transport package's request/response structs
// into google.protobuf.Struct envelopes so they can travel over a plain
// *grpc.ClientConn without a generated client stub: structpb.Struct
// already satisfies proto.Message, which is all grpc's default codec
// requires. A production deployment would swap this for codegen from a
// .proto file without touching bulkwriter or transport.

const timeLayout = time.RFC3339Nano

func encodeWrite(w transport.Write) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, len(w.Fields))
	for k, v := range w.Fields {
		fields[k] = v
	}

	transforms := make([]interface{}, 0, len(w.Transforms))
	for _, tr := range w.Transforms {
		operand, err := encodeOperand(tr)
		if err != nil {
			return nil, fmt.Errorf("rpc: encode transform operand for %q: %w", tr.FieldPath, err)
		}

		transforms = append(transforms, map[string]interface{}{
			"fieldPath": tr.FieldPath,
			"kind":      int(tr.Kind),
			"operand":   operand,
		})
	}

	m := map[string]interface{}{
		"documentPath": w.DocumentPath,
		"fields":       fields,
		"updateMask":   toInterfaceSlice(w.UpdateMask),
		"transforms":   transforms,
		"isDelete":     w.IsDelete,
	}

	if w.CurrentDocument != nil {
		m["currentDocument"] = encodePrecondition(*w.CurrentDocument)
	}

	return m, nil
}

// encodeOperand encodes a FieldTransform's operand with its real wire type
// instead of stringifying it: ServerTimestamp carries none, Increment/
// Minimum/Maximum carry a bare number, and ArrayUnion/ArrayRemove carry a
// list of values. structpb.NewStruct only accepts numbers as float64 and
// lists as []interface{}, so those are the shapes returned here.
func encodeOperand(tr transport.FieldTransform) (interface{}, error) {
	switch tr.Kind {
	case transport.TransformServerTimestamp:
		return nil, nil
	case transport.TransformIncrement, transport.TransformMinimum, transport.TransformMaximum:
		return toFloat64(tr.Operand)
	case transport.TransformArrayUnion, transport.TransformArrayRemove:
		elements, ok := tr.Operand.([]interface{})
		if !ok {
			return nil, fmt.Errorf("expected []interface{} operand, got %T", tr.Operand)
		}

		return elements, nil
	default:
		return nil, fmt.Errorf("unknown transform kind %d", tr.Kind)
	}
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unsupported numeric operand type %T", v)
	}
}

func encodePrecondition(p transport.Precondition) map[string]interface{} {
	m := map[string]interface{}{"hasExists": p.HasExists}
	if p.HasExists {
		m["exists"] = p.Exists
	} else {
		m["lastUpdateTime"] = p.LastUpdateTime.Format(timeLayout)
	}

	return m
}

func toInterfaceSlice(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}

	return out
}

func encodeBatchWriteRequest(req *transport.BatchWriteRequest) (*structpb.Struct, error) {
	writes := make([]interface{}, 0, len(req.Writes))

	for _, w := range req.Writes {
		encoded, err := encodeWrite(w)
		if err != nil {
			return nil, err
		}

		writes = append(writes, encoded)
	}

	return structpb.NewStruct(map[string]interface{}{
		"database": req.Database,
		"writes":   writes,
	})
}

func encodeCommitRequest(req *transport.CommitRequest) (*structpb.Struct, error) {
	writes := make([]interface{}, 0, len(req.Writes))

	for _, w := range req.Writes {
		encoded, err := encodeWrite(w)
		if err != nil {
			return nil, err
		}

		writes = append(writes, encoded)
	}

	m := map[string]interface{}{
		"database": req.Database,
		"writes":   writes,
	}

	if len(req.Transaction) > 0 {
		m["transaction"] = string(req.Transaction)
	}

	return structpb.NewStruct(m)
}

func encodeBeginTransactionRequest(req *transport.BeginTransactionRequest) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"database": req.Database,
	})
}

func decodeBatchWriteResponse(s *structpb.Struct) (*transport.BatchWriteResponse, error) {
	m := s.AsMap()

	rawStatus, _ := m["status"].([]interface{})

	out := &transport.BatchWriteResponse{Status: make([]transport.Status, len(rawStatus))}

	for i, raw := range rawStatus {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("rpc: malformed status entry at index %d", i)
		}

		out.Status[i] = decodeStatusEntry(entry)
	}

	return out, nil
}

func decodeStatusEntry(entry map[string]interface{}) transport.Status {
	code, _ := entry["code"].(float64)
	if code != 0 {
		message, _ := entry["message"].(string)

		return transport.Status{Err: newStatusError(int32(code), message)}
	}

	updateTime, _ := entry["updateTime"].(string)

	t, err := time.Parse(timeLayout, updateTime)
	if err != nil {
		t = time.Time{}
	}

	return transport.Status{Result: transport.WriteResult{WriteTime: t}}
}

func decodeCommitResponse(s *structpb.Struct) (*transport.CommitResponse, error) {
	m := s.AsMap()

	rawResults, _ := m["writeResults"].([]interface{})
	results := make([]transport.WriteResult, len(rawResults))

	for i, raw := range rawResults {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("rpc: malformed writeResult entry at index %d", i)
		}

		updateTime, _ := entry["updateTime"].(string)

		if t, err := time.Parse(timeLayout, updateTime); err == nil {
			results[i] = transport.WriteResult{WriteTime: t}
		}
	}

	commitTimeRaw, _ := m["commitTime"].(string)

	commitTime, err := time.Parse(timeLayout, commitTimeRaw)
	if err != nil {
		return nil, fmt.Errorf("rpc: malformed commitTime: %w", err)
	}

	return &transport.CommitResponse{WriteResults: results, CommitTime: commitTime}, nil
}

func decodeBeginTransactionResponse(s *structpb.Struct) (*transport.BeginTransactionResponse, error) {
	m := s.AsMap()

	txn, _ := m["transaction"].(string)

	return &transport.BeginTransactionResponse{Transaction: []byte(txn)}, nil
}
