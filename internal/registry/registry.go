package registry

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/orchestr8/orchestr8-mcp/internal/logger"
)

var logQuery = logger.New("registry:query")

// DefaultLimit is used when a query does not say how many agents it wants.
const DefaultLimit = 10

// Options configure a Registry.
type Options struct {
	Weights      Weights
	DefaultLimit int
}

// Registry serves queries against the current snapshot.
type Registry struct {
	current      atomic.Pointer[Snapshot]
	weights      Weights
	defaultLimit int
}

// New creates a registry serving snapshot. Zero-valued options fall back to
// DefaultWeights and DefaultLimit.
func New(snapshot *Snapshot, opts Options) *Registry {
	if snapshot == nil {
		snapshot, _ = NewSnapshot(nil)
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}

	r := &Registry{weights: opts.Weights, defaultLimit: opts.DefaultLimit}
	r.current.Store(snapshot)
	return r
}

// Snapshot returns the snapshot currently being served.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Replace installs snapshot and returns the one it replaced. Queries already
// running finish against the old snapshot.
func (r *Registry) Replace(snapshot *Snapshot) *Snapshot {
	old := r.current.Swap(snapshot)
	logQuery.Printf("Replaced snapshot: agents %d -> %d", old.Len(), snapshot.Len())
	return old
}

// DefaultLimit returns the limit applied when a query omits one.
func (r *Registry) DefaultLimit() int {
	return r.defaultLimit
}

type match struct {
	e     *entry
	score int
}

// Query returns at most limit agents relevant to context, ordered by
// descending score and then ascending name. Agents scoring zero are never
// returned. limit <= 0 yields an empty, non-nil result.
func (r *Registry) Query(context string, limit int) []AgentDefinition {
	result := make([]AgentDefinition, 0)
	context = strings.ToLower(strings.TrimSpace(context))
	if limit <= 0 || context == "" {
		return result
	}

	snapshot := r.current.Load()
	var matches []match
	for i := range snapshot.entries {
		e := &snapshot.entries[i]
		if s := e.score(context, r.weights); s > 0 {
			matches = append(matches, match{e: e, score: s})
		}
	}

	// entries are name-sorted already; a stable sort keeps the tie-break
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	total := len(matches)
	if total > limit {
		matches = matches[:limit]
	}
	for _, m := range matches {
		result = append(result, m.e.def.clone())
	}

	logQuery.Printf("Query: context=%q, limit=%d, matched=%d, returned=%d", context, limit, total, len(result))
	return result
}
