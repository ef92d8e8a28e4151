package loader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orchestr8/orchestr8-mcp/internal/registry"
)

// stringList accepts either a list or a comma separated string.
type stringList []string

func (s *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = splitList(value.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*s = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a list or a string", value.Line)
	}
}

func (s *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = splitList(one)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected a list or a string")
	}
	*s = items
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// agentFields are the definition fields shared by frontmatter and manifests.
type agentFields struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description"`
	Tags        stringList `yaml:"tags" json:"tags"`
	ContextTags stringList `yaml:"contextTags" json:"contextTags"`
	Category    string     `yaml:"category" json:"category"`
	Model       string     `yaml:"model" json:"model"`
	Tools       stringList `yaml:"tools" json:"tools"`
}

// definition turns parsed fields into an AgentDefinition, filling the name
// from stem and the tags from the name when they are missing.
func (f agentFields) definition(stem, rel string) registry.AgentDefinition {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = stem
	}
	cat := strings.TrimSpace(f.Category)
	if cat == "" {
		cat = category(rel)
	}

	tags := append(append([]string(nil), f.ContextTags...), f.Tags...)
	if len(tags) == 0 {
		tags = fallbackTags(name, cat)
	}

	return registry.AgentDefinition{
		Name:        name,
		Description: strings.TrimSpace(f.Description),
		ContextTags: tags,
		Category:    cat,
		Model:       strings.TrimSpace(f.Model),
		Tools:       []string(f.Tools),
		Source:      rel,
	}
}

// loadMarkdown reads one agent from a markdown file. Files without
// frontmatter are not agent definitions and yield nothing.
func (l *Loader) loadMarkdown(path, rel string) ([]registry.AgentDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	front, body, err := splitFrontmatter(data)
	if errors.Is(err, errNoFrontmatter) {
		logLoader.Printf("No frontmatter in %s, not an agent", rel)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var fields agentFields
	if err := yaml.Unmarshal(front, &fields); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	if fields.Description == "" {
		fields.Description = firstParagraphLine(body)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []registry.AgentDefinition{fields.definition(stem, rel)}, nil
}

// splitFrontmatter separates a leading "---" delimited YAML block from the
// rest of the document.
func splitFrontmatter(data []byte) ([]byte, []byte, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	first, rest, found := bytes.Cut(data, []byte("\n"))
	if !found || strings.TrimSpace(string(first)) != "---" {
		return nil, nil, errNoFrontmatter
	}

	offset := 0
	for offset <= len(rest) {
		line, _, _ := bytes.Cut(rest[offset:], []byte("\n"))
		trimmed := strings.TrimSpace(string(line))
		if trimmed == "---" || trimmed == "..." {
			bodyStart := offset + len(line) + 1
			if bodyStart > len(rest) {
				bodyStart = len(rest)
			}
			return rest[:offset], rest[bodyStart:], nil
		}
		if offset+len(line) >= len(rest) {
			break
		}
		offset += len(line) + 1
	}
	return nil, nil, errors.New("unterminated frontmatter")
}

// firstParagraphLine returns the first line of prose in body, skipping
// headings and blank lines.
func firstParagraphLine(body []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line
	}
	return ""
}
