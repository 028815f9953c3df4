package view

import (
	"sort"

	"calplan/internal/model"
)

// Colors returns the distinct non-empty colors used by templates, sorted.
func Colors(templates []model.Template) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, t := range templates {
		if t.Color == "" || seen[t.Color] {
			continue
		}
		seen[t.Color] = true
		out = append(out, t.Color)
	}
	sort.Strings(out)
	return out
}

// NextColor advances the color filter one step through
// none -> first -> ... -> last -> none. An empty string means no filter.
// A current value that is no longer in use restarts at the first color.
func NextColor(current string, templates []model.Template) string {
	colors := Colors(templates)
	if len(colors) == 0 {
		return ""
	}
	if current == "" {
		return colors[0]
	}
	i := sort.SearchStrings(colors, current)
	if i >= len(colors) || colors[i] != current {
		return colors[0]
	}
	if i == len(colors)-1 {
		return ""
	}
	return colors[i+1]
}
