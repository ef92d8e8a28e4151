// Package loader reads agent definitions from disk.
//
// The agent directory is walked in lexical order. Markdown files carry their
// definition in YAML frontmatter; JSON manifests are run through a jq query
// that yields one object per agent. Anything that cannot be turned into a
// definition is reported as a rejection instead of failing the whole load.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/orchestr8/orchestr8-mcp/internal/logger"
	"github.com/orchestr8/orchestr8-mcp/internal/registry"
)

var logLoader = logger.New("loader:loader")

// DefaultManifestQuery selects the agents array of a JSON manifest.
const DefaultManifestQuery = ".agents[]?"

// Options configure a Loader.
type Options struct {
	// ManifestQuery is the jq program applied to every *.json manifest.
	// Empty selects DefaultManifestQuery.
	ManifestQuery string
}

// Loader loads agent definitions from one directory tree.
type Loader struct {
	dir       string
	queryText string
	query     *gojq.Code
}

// New creates a loader for dir. The manifest query is compiled up front so a
// bad query fails at startup rather than on every reload.
func New(dir string, opts Options) (*Loader, error) {
	queryText := opts.ManifestQuery
	if queryText == "" {
		queryText = DefaultManifestQuery
	}

	parsed, err := gojq.Parse(queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest query %q: %w", queryText, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile manifest query %q: %w", queryText, err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve agent directory %s: %w", dir, err)
	}

	logLoader.Printf("Created loader: dir=%s, manifestQuery=%s", abs, queryText)
	return &Loader{dir: abs, queryText: queryText, query: code}, nil
}

// Dir returns the absolute agent directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Load walks the agent directory and returns the definitions in load order
// together with the files that could not be used. A missing or unreadable
// directory is an error.
func (l *Loader) Load() ([]registry.AgentDefinition, []registry.Rejection, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("agent directory %s: %w", l.dir, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("agent directory %s: not a directory", l.dir)
	}

	var (
		records    []registry.AgentDefinition
		rejections []registry.Rejection
	)

	err = filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == l.dir {
				return walkErr
			}
			rejections = append(rejections, registry.Rejection{Source: path, Reason: walkErr.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path != l.dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(l.dir, path)
		if err != nil {
			rel = path
		}

		var (
			found []registry.AgentDefinition
			ferr  error
		)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".markdown":
			found, ferr = l.loadMarkdown(path, rel)
		case ".json":
			found, ferr = l.loadManifest(path, rel)
		default:
			return nil
		}

		if ferr != nil {
			logLoader.Printf("Skipping %s: %v", rel, ferr)
			rejections = append(rejections, registry.Rejection{Source: rel, Reason: ferr.Error()})
			return nil
		}
		records = append(records, found...)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk agent directory %s: %w", l.dir, err)
	}

	logLoader.Printf("Loaded %d definitions from %s (%d files rejected)", len(records), l.dir, len(rejections))
	return records, rejections, nil
}

// Snapshot loads the directory and builds a registry snapshot from it. File
// and record rejections are merged and logged as warnings.
func (l *Loader) Snapshot() (*registry.Snapshot, []registry.Rejection, error) {
	records, rejections, err := l.Load()
	if err != nil {
		return nil, nil, err
	}

	snapshot, dropped := registry.NewSnapshot(records)
	rejections = append(rejections, dropped...)
	for _, r := range rejections {
		logger.LogWarn("loader", "Rejected agent definition: %s", r)
	}
	return snapshot, rejections, nil
}

// category is the first directory below the agent root, or "" for files at
// the top level.
func category(rel string) string {
	dir := filepath.Dir(filepath.ToSlash(rel))
	if dir == "." || dir == "" {
		return ""
	}
	first, _, _ := strings.Cut(filepath.ToSlash(dir), "/")
	return first
}

// fallbackTags derives tags from the category and the dash separated tokens
// of the name.
func fallbackTags(name, cat string) []string {
	var tags []string
	if cat != "" {
		tags = append(tags, cat)
	}
	return append(tags, strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})...)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

var errNoFrontmatter = errors.New("no frontmatter")
