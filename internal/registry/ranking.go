package registry

import "strings"

// Weights control how much each kind of match adds to an agent's score.
type Weights struct {
	// Tag is added once per context tag that equals, or is contained in, the
	// query context.
	Tag int `toml:"tag_weight"`
	// Description is added once when the query context appears in the
	// description.
	Description int `toml:"description_weight"`
}

// DefaultWeights rank a single tag match above a description mention.
var DefaultWeights = Weights{Tag: 2, Description: 1}

// score computes the relevance of e for an already lowercased, non-empty
// context. Zero means irrelevant.
func (e *entry) score(context string, w Weights) int {
	score := 0
	for _, tag := range e.def.ContextTags {
		// equality is the degenerate substring case
		if strings.Contains(context, tag) {
			score += w.Tag
		}
	}
	if strings.Contains(e.lowerDesc, context) {
		score += w.Description
	}
	return score
}

// Score reports the relevance of def for context under w. It normalizes def
// the same way a snapshot does, so it can be used on raw records.
func Score(def AgentDefinition, context string, w Weights) int {
	context = strings.ToLower(strings.TrimSpace(context))
	if context == "" {
		return 0
	}
	def.ContextTags = normalizeTags(def.ContextTags)
	e := entry{def: def, lowerDesc: strings.ToLower(def.Description)}
	return e.score(context, w)
}
