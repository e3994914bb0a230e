package guardian

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	memoryFile    = "guardian_memory.json"
	maxRecords    = 10
	promptRecords = 5 // how many recent records to include in the oracle prompt
)

// CycleRecord captures what happened in a single guardian cycle.
type CycleRecord struct {
	TimestampMillis int64  `json:"timestampMillis"`
	Action          string `json:"action"`
	Pookie          string `json:"pookie,omitempty"`
	CrisisLevel     string `json:"crisisLevel"`
	Rationale       string `json:"rationale,omitempty"`
}

// CycleMemory manages a ring of recent guardian cycle records.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`
}

// LoadMemory reads the memory file from disk. Returns empty memory if not
// found.
func LoadMemory() *CycleMemory {
	data, err := os.ReadFile(memoryFile)
	if err != nil {
		return &CycleMemory{}
	}
	var mem CycleMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		slog.Warn("guardian memory corrupted, starting fresh", "error", err)
		return &CycleMemory{}
	}
	return &mem
}

// Save writes the memory to disk.
func (m *CycleMemory) Save() {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		slog.Error("failed to marshal guardian memory", "error", err)
		return
	}
	if err := os.WriteFile(memoryFile, data, 0644); err != nil {
		slog.Error("failed to write guardian memory", "error", err)
	}
}

// Record adds a cycle record, trimming to maxRecords.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// FormatForPrompt returns a string summarizing the last few cycles, so the
// oracle can avoid nagging the same pookie every cycle.
func (m *CycleMemory) FormatForPrompt() string {
	if len(m.Records) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Recent Guardian Cycles\n")

	start := 0
	if len(m.Records) > promptRecords {
		start = len(m.Records) - promptRecords
	}
	for _, r := range m.Records[start:] {
		fmt.Fprintf(&b, "- action=%s, crisis=%s", r.Action, r.CrisisLevel)
		if r.Pookie != "" {
			fmt.Fprintf(&b, ", pookie=%s", r.Pookie)
		}
		b.WriteString("\n")
	}
	return b.String()
}
