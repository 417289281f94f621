package run

import (
	"fmt"
	"strings"

	"github.com/dogechain-lab/docwriter/command/helper"
)

// RunResult summarizes one run of the bulk write scheduler over an input
// file: how many write lines were read, how many completed and how many
// failed (including lines rejected before enqueue), plus the first few
// write failures for quick diagnosis.
type RunResult struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

func (r *RunResult) GetOutput() string {
	var s strings.Builder

	s.WriteString("docwriter run\n")
	s.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Total|%d", r.Total),
		fmt.Sprintf("Succeeded|%d", r.Succeeded),
		fmt.Sprintf("Failed|%d", r.Failed),
	}))

	for _, e := range r.Errors {
		s.WriteString(fmt.Sprintf("  - %s\n", e))
	}

	return s.String()
}
