package domain

import "strings"

// FilterTasks keeps tasks whose name contains q, ignoring case.
// An empty query keeps everything.
func FilterTasks(tasks []Task, q string) []Task {
	if q == "" {
		return tasks
	}
	q = strings.ToLower(q)
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Name), q) {
			out = append(out, t)
		}
	}
	return out
}

// FilterGroups is FilterTasks for groups.
func FilterGroups(groups []TaskGroup, q string) []TaskGroup {
	if q == "" {
		return groups
	}
	q = strings.ToLower(q)
	out := make([]TaskGroup, 0, len(groups))
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.Name), q) {
			out = append(out, g)
		}
	}
	return out
}
