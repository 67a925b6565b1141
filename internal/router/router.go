package router

import (
	"fmt"
	"strings"
)

// Route parses utterance against the catalogue in order and returns the
// first match whose captured assistant name is in known. If no pattern
// matches, or every match's captured name falls outside known, target is
// nil and residual is empty.
func Route(utterance string, known []string) (target *string, residual string, matched *Pattern) {
	trimmed := strings.TrimSpace(utterance)
	knownSet := toLowerSet(known)

	for i := range Catalogue {
		pattern := &Catalogue[i]
		groups := pattern.Regex.FindStringSubmatch(trimmed)
		if groups == nil {
			continue
		}

		name := strings.TrimSpace(groups[pattern.AssistantGroup])
		if !knownSet[strings.ToLower(name)] {
			continue
		}

		task := ""
		if pattern.TaskGroup < len(groups) {
			task = strings.TrimSpace(groups[pattern.TaskGroup])
		}

		canonical := name
		return &canonical, task, pattern
	}

	return nil, "", nil
}

// RenderUtterance reverse-renders pattern's template with the given
// assistant name and task text, the inverse of what Route parses. It is
// used by round-trip property tests: Route(RenderUtterance(p, a, t)) should
// recover (a, t, p).
func RenderUtterance(pattern *Pattern, assistant, task string) (string, error) {
	if pattern == nil {
		return "", fmt.Errorf("router: nil pattern")
	}
	if !strings.Contains(pattern.Template, "%s") {
		return "", fmt.Errorf("router: pattern %q has no template", pattern.Name)
	}
	return fmt.Sprintf(pattern.Template, assistant, task), nil
}

func toLowerSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set
}
