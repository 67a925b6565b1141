package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/template"
)

// MarkdownFormatter renders a task Entry as a markdown recovery summary.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a markdown formatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format writes the entry as markdown.
func (mf *MarkdownFormatter) Format(w io.Writer, entry *Entry) error {
	data := mf.buildTemplateData(entry)

	tmpl, err := template.New("entry").Funcs(mf.templateFuncs()).Parse(markdownTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	return tmpl.Execute(w, data)
}

// Extension returns the file extension for markdown.
func (mf *MarkdownFormatter) Extension() string {
	return ".md"
}

type templateData struct {
	TaskID      string
	Prompt      string
	State       string
	CreatedAt   string
	CompletedAt string

	Subtasks  []SubtaskSummary
	Findings  []string
	Conflicts []string
}

func (mf *MarkdownFormatter) buildTemplateData(entry *Entry) *templateData {
	data := &templateData{
		TaskID:    entry.TaskID,
		Prompt:    entry.Prompt,
		State:     entry.State,
		CreatedAt: entry.CreatedAt.Format("2006-01-02 15:04:05"),
		Subtasks:  entry.Subtasks,
		Findings:  entry.Findings,
		Conflicts: entry.Conflicts,
	}
	if !entry.CompletedAt.IsZero() {
		data.CompletedAt = entry.CompletedAt.Format("2006-01-02 15:04:05")
	}
	return data
}

func (mf *MarkdownFormatter) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
		"hasContent": func(s []string) bool {
			return len(s) > 0
		},
		"hasSubtasks": func(s []SubtaskSummary) bool {
			return len(s) > 0
		},
	}
}

const markdownTemplate = `# Task {{ .TaskID }}

**State:** {{ .State }}
**Started:** {{ .CreatedAt }}
{{- if .CompletedAt }}
**Completed:** {{ .CompletedAt }}
{{- end }}

## Prompt

{{ .Prompt }}

{{- if hasSubtasks .Subtasks }}

## Subtasks

| Assistant | State | Exit | Reason |
|-----------|-------|------|--------|
{{- range .Subtasks }}
| {{ .Assistant }} | {{ .State }} | {{ .ExitCode }} | {{ .Reason }} |
{{- end }}
{{- end }}

{{- if hasContent .Findings }}

## Findings

{{- range .Findings }}
- {{ . }}
{{- end }}
{{- end }}

{{- if hasContent .Conflicts }}

## Conflicts

{{- range .Conflicts }}
- {{ . }}
{{- end }}
{{- end }}
`
