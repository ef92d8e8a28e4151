package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/orchestr8/orchestr8-mcp/internal/registry"
)

// loadManifest runs the manifest query over a JSON file. Every object the
// query emits becomes one definition; anything else is an error for the
// whole file.
func (l *Loader) loadManifest(path, rel string) ([]registry.AgentDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON manifest: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var defs []registry.AgentDefinition

	iter := l.query.Run(doc)
	for i := 0; ; i++ {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("manifest query %q failed: %w", l.queryText, err)
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("manifest query %q emitted %T at index %d, expected an object", l.queryText, v, i)
		}

		// round trip through JSON so the field rules match frontmatter
		raw, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to re-encode manifest entry %d: %w", i, err)
		}
		var fields agentFields
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("invalid manifest entry %d: %w", i, err)
		}
		if strings.TrimSpace(fields.Name) == "" {
			// the stem names the file, not the entry; leave it empty so the
			// snapshot rejects it
			defs = append(defs, registry.AgentDefinition{Source: fmt.Sprintf("%s#%d", rel, i)})
			continue
		}
		def := fields.definition(stem, rel)
		def.Source = fmt.Sprintf("%s#%d", rel, i)
		defs = append(defs, def)
	}

	logLoader.Printf("Manifest %s yielded %d definitions", rel, len(defs))
	return defs, nil
}
