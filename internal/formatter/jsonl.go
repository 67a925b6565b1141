package formatter

import (
	"encoding/json"
	"io"
)

// JSONLFormatter outputs entries as JSON Lines format.
// Each entry is a single JSON object on one line.
type JSONLFormatter struct {
	// Pretty enables indented JSON (not recommended for JSONL).
	Pretty bool
}

// NewJSONLFormatter creates a new JSONL formatter.
func NewJSONLFormatter() *JSONLFormatter {
	return &JSONLFormatter{
		Pretty: false,
	}
}

// Format writes the entry as a JSON line.
func (jf *JSONLFormatter) Format(w io.Writer, entry *Entry) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)

	if jf.Pretty {
		encoder.SetIndent("", "  ")
	}

	output := jf.buildOutput(entry)

	return encoder.Encode(output)
}

// Extension returns the file extension for JSONL.
func (jf *JSONLFormatter) Extension() string {
	return ".jsonl"
}

// jsonlOutput is the structure written to JSONL files.
type jsonlOutput struct {
	TaskID      string           `json:"task_id"`
	Prompt      string           `json:"prompt"`
	State       string           `json:"state"`
	CreatedAt   string           `json:"created_at"`
	CompletedAt string           `json:"completed_at,omitempty"`
	Subtasks    []subtaskOutput  `json:"subtasks,omitempty"`
	Findings    []string         `json:"findings,omitempty"`
	Conflicts   []string         `json:"conflicts,omitempty"`
}

type subtaskOutput struct {
	ID        string `json:"id"`
	Assistant string `json:"assistant"`
	State     string `json:"state"`
	ExitCode  int    `json:"exit_code"`
	Reason    string `json:"reason,omitempty"`
}

func (jf *JSONLFormatter) buildOutput(entry *Entry) *jsonlOutput {
	output := &jsonlOutput{
		TaskID:    entry.TaskID,
		Prompt:    entry.Prompt,
		State:     entry.State,
		CreatedAt: entry.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Findings:  entry.Findings,
		Conflicts: entry.Conflicts,
	}

	if !entry.CompletedAt.IsZero() {
		output.CompletedAt = entry.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	for _, s := range entry.Subtasks {
		output.Subtasks = append(output.Subtasks, subtaskOutput{
			ID:        s.ID,
			Assistant: s.Assistant,
			State:     s.State,
			ExitCode:  s.ExitCode,
			Reason:    s.Reason,
		})
	}

	return output
}
