// Package prompts holds the system prompts sent to the language model.
// Each prompt is a YAML file whose known sections are rendered, in a fixed
// order, as "-Section: content" lines.
package prompts

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var files embed.FS

// Names of the embedded prompts.
const (
	Resume         = "resume"
	Language       = "language"
	CppVersion     = "cpp_version"
	TheoryFollowUp = "theory_followup"
	Project        = "project"
	TheoryReport   = "theory_report"
	ProjectReport  = "project_report"
)

var sectionOrder = []string{
	"Role", "Background", "Profile", "Skills", "Goals",
	"Constraints", "Workflow", "OutputFormat",
}

// Section is prompt text given either as a scalar or as a list of lines.
type Section string

func (s *Section) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*s = Section(strings.TrimSpace(n.Value))
	case yaml.SequenceNode:
		var items []string
		if err := n.Decode(&items); err != nil {
			return err
		}
		*s = Section(strings.Join(items, "\n"))
	default:
		return fmt.Errorf("line %d: prompt section must be a string or a list of strings", n.Line)
	}
	return nil
}

// Render parses a YAML prompt document into a system prompt.
func Render(data []byte) (string, error) {
	var doc map[string]Section
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parsing prompt: %w", err)
	}
	var parts []string
	for _, key := range sectionOrder {
		if content, ok := doc[key]; ok && content != "" {
			parts = append(parts, fmt.Sprintf("-%s: %s", key, content))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("invalid prompt file format: no known sections")
	}
	return strings.Join(parts, "\n"), nil
}

// Load renders the embedded prompt with the given name.
func Load(name string) (string, error) {
	data, err := files.ReadFile(name + ".yaml")
	if err != nil {
		return "", fmt.Errorf("prompt %q not found: %w", name, err)
	}
	return Render(data)
}

// MustLoad is Load for prompts known to be embedded.
func MustLoad(name string) string {
	p, err := Load(name)
	if err != nil {
		panic(err)
	}
	return p
}
