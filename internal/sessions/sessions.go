// Package sessions scans the on-disk session directories that each
// assistant CLI maintains on its own (outside this module's control) and
// builds a read-only recovery index over them, so a task can be resumed
// with knowledge of what an assistant already saw even after its own
// context window has rolled off.
package sessions

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ptreezh/orc/internal/types"
	"github.com/ptreezh/orc/internal/worker"
)

// Record is one discovered session file, summarized without ever
// rewriting or relocating the source.
type Record struct {
	Assistant               string    `json:"assistant"`
	SessionID               string    `json:"session_id"`
	ProjectPath             string    `json:"project_path"`
	FilePath                string    `json:"file_path"`
	LastModified            time.Time `json:"last_modified"`
	ApproximateMessageCount int       `json:"approximate_message_count"`
	FirstLine               string    `json:"first_line,omitempty"`
}

// Scan walks every descriptor's SessionDirs under home and returns one
// Record per session file found. Each assistant is scanned concurrently
// via a worker pool; unreadable entries are skipped rather than failing
// the whole scan, mirroring a best-effort filesystem walk.
func Scan(ctx context.Context, descriptors map[string]types.Descriptor, home string) ([]Record, error) {
	names := make([]string, 0, len(descriptors))
	for name := range descriptors {
		names = append(names, name)
	}

	pool := worker.NewPool[[]Record](0)
	outcomes := pool.Process(names, func(name string) ([]Record, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var found []Record
		for _, rel := range descriptors[name].SessionDirs {
			root := filepath.Join(home, rel)
			recs, err := scanDir(name, root)
			if err != nil {
				continue
			}
			found = append(found, recs...)
		}
		return found, nil
	})

	var records []Record
	for _, o := range outcomes {
		records = append(records, o.Value...)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].LastModified.After(records[j].LastModified)
	})
	return records, ctx.Err()
}

// scanDir walks root, best-effort, skipping anything it can't stat or
// open rather than aborting the whole scan.
func scanDir(assistant, root string) ([]Record, error) {
	var records []Record

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".jsonl" && ext != ".json" && ext != ".md" {
			return nil
		}

		rec := Record{
			Assistant:    assistant,
			SessionID:    strings.TrimSuffix(filepath.Base(path), ext),
			ProjectPath:  filepath.Dir(path),
			FilePath:     path,
			LastModified: info.ModTime(),
		}
		rec.ApproximateMessageCount, rec.FirstLine = peek(path)
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// peek does a cheap, read-only pass over a session file to approximate
// its message count (one per non-empty line in JSONL-shaped files) and
// capture its first non-empty line for a quick preview.
func peek(path string) (count int, firstLine string) {
	f, err := os.Open(path)
	if err != nil {
		return 0, ""
	}
	defer f.Close()

	data, err := readUpTo(f, 512*1024)
	if err != nil && len(data) == 0 {
		return 0, ""
	}

	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if firstLine == "" {
			firstLine = line
		}
		count++
	}
	return count, firstLine
}

func readUpTo(f *os.File, limit int64) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size > limit {
		size = limit
	}
	buf := make([]byte, size)
	n, err := f.Read(buf)
	return buf[:n], err
}

// Filter narrows a scanned record set by assistant, project path
// substring, time window, and a content-digest substring matched
// against each record's first line.
type Filter struct {
	Assistant     string
	Project       string
	Since         time.Time
	Until         time.Time
	ContentDigest string
}

// Apply returns the subset of records matching filter. A zero-value
// field on Filter is treated as unconstrained.
func Apply(records []Record, filter Filter) []Record {
	var out []Record
	for _, r := range records {
		if filter.Assistant != "" && r.Assistant != filter.Assistant {
			continue
		}
		if filter.Project != "" && !strings.Contains(r.ProjectPath, filter.Project) {
			continue
		}
		if !filter.Since.IsZero() && r.LastModified.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && r.LastModified.After(filter.Until) {
			continue
		}
		if filter.ContentDigest != "" && !strings.Contains(r.FirstLine, filter.ContentDigest) {
			continue
		}
		out = append(out, r)
	}
	return out
}
