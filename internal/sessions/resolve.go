package sessions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ptreezh/orc/internal/types"
)

// sessionExtensions lists the file extensions to probe when a bare
// session ID is given without one.
var sessionExtensions = []string{".jsonl", ".json", ".md"}

// Resolver locates a session file on disk given a short ID, searching
// each descriptor's SessionDirs under home with extension probing, a
// direct-path check, and a substring glob match. Directories outside
// those session directories are not searched.
type Resolver struct {
	Home        string
	Descriptors map[string]types.Descriptor
}

// NewResolver creates a Resolver rooted at home, probing the session
// directories declared by descriptors.
func NewResolver(home string, descriptors map[string]types.Descriptor) *Resolver {
	return &Resolver{Home: home, Descriptors: descriptors}
}

// Resolve locates a session by ID, optionally scoped to one assistant
// (empty assistant searches all known session directories). It tries,
// in order: the ID as an absolute path, extension-probing inside each
// candidate session directory, the ID as a file name inside each
// directory, and a substring glob match.
func (r *Resolver) Resolve(assistant, id string) (string, error) {
	if filepath.IsAbs(id) {
		if _, err := os.Stat(id); err == nil {
			return id, nil
		}
	}

	dirs := r.candidateDirs(assistant)

	for _, d := range dirs {
		if p := probeWithExtensions(d, id); p != "" {
			return p, nil
		}
	}
	for _, d := range dirs {
		if p := probeDirect(d, id); p != "" {
			return p, nil
		}
	}
	for _, d := range dirs {
		p, err := probeGlob(d, id)
		if err != nil {
			return "", err
		}
		if p != "" {
			return p, nil
		}
	}

	return "", fmt.Errorf("session not found: %s", id)
}

// candidateDirs returns the absolute session directories to search,
// scoped to one assistant when given, otherwise all known assistants.
func (r *Resolver) candidateDirs(assistant string) []string {
	var dirs []string
	for name, descriptor := range r.Descriptors {
		if assistant != "" && name != assistant {
			continue
		}
		for _, rel := range descriptor.SessionDirs {
			dirs = append(dirs, filepath.Join(r.Home, rel))
		}
	}
	return dirs
}

// probeWithExtensions checks for id + each known session extension
// inside dirPath.
func probeWithExtensions(dirPath, id string) string {
	for _, ext := range sessionExtensions {
		path := filepath.Join(dirPath, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// probeDirect checks whether id already names a file inside dirPath.
func probeDirect(dirPath, id string) string {
	path := filepath.Join(dirPath, id)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// probeGlob searches dirPath for a file whose name contains id.
func probeGlob(dirPath, id string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dirPath, "*"+id+"*"))
	if err != nil {
		return "", err
	}
	if len(matches) > 0 {
		return matches[0], nil
	}
	return "", nil
}

// shortID truncates a full session ID to its leading segment before
// the first hyphen, convenient for display.
func shortID(id string) string {
	if i := strings.Index(id, "-"); i > 0 {
		return id[:i]
	}
	return id
}
