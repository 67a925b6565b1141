package sessions

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// FormatSummary renders records as a tab-aligned table, one row per
// session.
func FormatSummary(w io.Writer, records []Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ASSISTANT\tSESSION\tPROJECT\tLAST MODIFIED\tMESSAGES")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			r.Assistant, shortID(r.SessionID), r.ProjectPath,
			r.LastModified.Format("2006-01-02 15:04"), r.ApproximateMessageCount)
	}
	return tw.Flush()
}

// FormatTimeline renders records as a reverse-chronological list, one
// line per session, suited to a narrow terminal.
func FormatTimeline(w io.Writer, records []Record) error {
	for _, r := range records {
		_, err := fmt.Fprintf(w, "%s  %-10s %s\n",
			r.LastModified.Format("2006-01-02 15:04"), r.Assistant, r.ProjectPath)
		if err != nil {
			return err
		}
	}
	return nil
}

// FormatDetailed renders one record per multi-line block with every
// field, for `orc sessions --view detailed`.
func FormatDetailed(w io.Writer, records []Record) error {
	for i, r := range records {
		if i > 0 {
			fmt.Fprintln(w, "---")
		}
		fmt.Fprintf(w, "assistant:     %s\n", r.Assistant)
		fmt.Fprintf(w, "session:       %s\n", r.SessionID)
		fmt.Fprintf(w, "project:       %s\n", r.ProjectPath)
		fmt.Fprintf(w, "file:          %s\n", r.FilePath)
		fmt.Fprintf(w, "last modified: %s\n", r.LastModified.Format("2006-01-02T15:04:05Z07:00"))
		fmt.Fprintf(w, "messages:      ~%d\n", r.ApproximateMessageCount)
		if r.FirstLine != "" {
			fmt.Fprintf(w, "preview:       %s\n", truncate(r.FirstLine, 120))
		}
	}
	return nil
}

// FormatContext renders only the most recent record for each assistant,
// formatted for pasting into a new session: just enough to let an
// assistant decide whether to go read the full file itself.
func FormatContext(w io.Writer, records []Record) error {
	fmt.Fprintln(w, "# Prior session context")
	fmt.Fprintln(w)
	for _, r := range latestPerAssistant(records) {
		fmt.Fprintf(w, "- [%s] %s (%s, ~%d messages): %s\n",
			r.Assistant, r.SessionID, r.ProjectPath, r.ApproximateMessageCount,
			truncate(r.FirstLine, 160))
	}
	return nil
}

// latestPerAssistant keeps the first record seen for each assistant.
// Scan returns records sorted by LastModified descending, so the first
// occurrence is the most recent one.
func latestPerAssistant(records []Record) []Record {
	seen := map[string]bool{}
	var out []Record
	for _, r := range records {
		if seen[r.Assistant] {
			continue
		}
		seen[r.Assistant] = true
		out = append(out, r)
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
