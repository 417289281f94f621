package run

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dogechain-lab/docwriter/transport"
)

// writeLine is the newline-delimited JSON shape read from --input: one
// mutation per line, in enqueue order.
type writeLine struct {
	Op          string                 `json:"op"`
	Path        string                 `json:"path"`
	Data        map[string]interface{} `json:"data,omitempty"`
	MergeAll    bool                   `json:"mergeAll,omitempty"`
	MergeFields []string               `json:"mergeFields,omitempty"`

	PreconditionExists bool   `json:"preconditionExists,omitempty"`
	HasPrecondition    bool   `json:"hasPrecondition,omitempty"`
	LastUpdateTime     string `json:"lastUpdateTime,omitempty"`
}

func (l writeLine) precondition() (*transport.Precondition, error) {
	if !l.HasPrecondition {
		return nil, nil
	}

	if l.LastUpdateTime != "" {
		t, err := time.Parse(time.RFC3339Nano, l.LastUpdateTime)
		if err != nil {
			return nil, fmt.Errorf("run: parse lastUpdateTime: %w", err)
		}

		return &transport.Precondition{LastUpdateTime: t}, nil
	}

	return &transport.Precondition{HasExists: true, Exists: l.PreconditionExists}, nil
}

// readWriteLines decodes one writeLine per non-empty line of r.
func readWriteLines(r io.Reader) ([]writeLine, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var lines []writeLine

	lineNo := 0

	for scanner.Scan() {
		lineNo++

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var l writeLine
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("run: line %d: %w", lineNo, err)
		}

		lines = append(lines, l)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("run: read input: %w", err)
	}

	return lines, nil
}
