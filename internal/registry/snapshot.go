package registry

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/orchestr8/orchestr8-mcp/internal/logger"
)

var logSnapshot = logger.New("registry:snapshot")

// Rejection records a definition left out of a snapshot.
type Rejection struct {
	Name   string
	Source string
	Reason string
}

func (r Rejection) String() string {
	name := r.Name
	if name == "" {
		name = "<unnamed>"
	}
	if r.Source != "" {
		return fmt.Sprintf("%s (%s): %s", name, r.Source, r.Reason)
	}
	return fmt.Sprintf("%s: %s", name, r.Reason)
}

type entry struct {
	def       AgentDefinition
	lowerDesc string
}

// Snapshot is an immutable, name-indexed set of agent definitions.
type Snapshot struct {
	entries  []entry // sorted by name
	byName   map[string]int
	loadedAt time.Time
}

// NewSnapshot builds a snapshot from records in load order. Records without a
// name are rejected. When a name repeats, the first record wins and the later
// ones are rejected.
func NewSnapshot(records []AgentDefinition) (*Snapshot, []Rejection) {
	var rejections []Rejection
	seen := make(map[string]string, len(records))
	entries := make([]entry, 0, len(records))

	for _, rec := range records {
		rec.Name = strings.TrimSpace(rec.Name)
		if rec.Name == "" {
			rejections = append(rejections, Rejection{Source: rec.Source, Reason: "missing name"})
			continue
		}
		if first, dup := seen[rec.Name]; dup {
			rejections = append(rejections, Rejection{
				Name:   rec.Name,
				Source: rec.Source,
				Reason: fmt.Sprintf("duplicate name, keeping definition from %s", first),
			})
			continue
		}
		seen[rec.Name] = rec.Source

		rec = rec.clone()
		rec.ContextTags = normalizeTags(rec.ContextTags)
		entries = append(entries, entry{
			def:       rec,
			lowerDesc: strings.ToLower(rec.Description),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].def.Name < entries[j].def.Name
	})

	byName := make(map[string]int, len(entries))
	for i, e := range entries {
		byName[e.def.Name] = i
	}

	logSnapshot.Printf("Built snapshot: agents=%d, rejected=%d", len(entries), len(rejections))
	return &Snapshot{entries: entries, byName: byName, loadedAt: time.Now()}, rejections
}

// Len returns the number of definitions.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Get looks a definition up by exact name.
func (s *Snapshot) Get(name string) (AgentDefinition, bool) {
	i, ok := s.byName[name]
	if !ok {
		return AgentDefinition{}, false
	}
	return s.entries[i].def.clone(), true
}

// Names returns all names in ascending order.
func (s *Snapshot) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.def.Name
	}
	return names
}
