// Package registry holds the agent definitions served by agents/query.
//
// Definitions live in an immutable Snapshot. A Registry points at exactly one
// snapshot at a time and replaces it atomically on reload, so a query never
// sees a partially updated set.
package registry

import (
	"slices"
	"strings"
)

// AgentDefinition describes one available automation agent.
type AgentDefinition struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ContextTags []string `json:"contextTags"`
	Category    string   `json:"category,omitempty"`
	Model       string   `json:"model,omitempty"`
	Tools       []string `json:"tools,omitempty"`

	// Source is the file the definition was loaded from.
	Source string `json:"-"`
}

// normalizeTags lowercases, trims, drops empties and dedupes tags. The result
// is sorted and never nil, so it always encodes as a JSON array.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		out = append(out, tag)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (a AgentDefinition) clone() AgentDefinition {
	a.ContextTags = slices.Clone(a.ContextTags)
	a.Tools = slices.Clone(a.Tools)
	return a
}
