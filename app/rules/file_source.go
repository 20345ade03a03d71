package rules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileSource reads rules from a YAML (.yml, .yaml) or TOML (.toml) file.
type FileSource struct {
	path            string
	defaultPriority uint32
}

type fileRules struct {
	Rules []fileRule `yaml:"rules" toml:"rules"`
}

type fileRule struct {
	Name        string  `yaml:"name" toml:"name"`
	Pattern     string  `yaml:"pattern" toml:"pattern"`
	Replacement string  `yaml:"replacement" toml:"replacement"`
	Priority    *uint32 `yaml:"priority" toml:"priority"`
}

// NewFileSource creates a source for path. Rules without a priority get defaultPriority.
func NewFileSource(path string, defaultPriority uint32) *FileSource {
	return &FileSource{path: path, defaultPriority: defaultPriority}
}

func (fs *FileSource) Path() string {
	return fs.path
}

func (fs *FileSource) LoadRules(ctx context.Context) ([]Rule, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var parsed fileRules
	switch ext := strings.ToLower(filepath.Ext(fs.path)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported rules file extension '%s'", ext)
	}

	rules := make([]Rule, 0, len(parsed.Rules))
	for i, raw := range parsed.Rules {
		if err := validateFileRule(raw); err != nil {
			return nil, fmt.Errorf("invalid rule at index %d in %s: %w", i, fs.path, err)
		}

		rule := Rule{
			Name:        raw.Name,
			Pattern:     raw.Pattern,
			Replacement: raw.Replacement,
			Priority:    fs.defaultPriority,
		}
		if raw.Priority != nil {
			rule.Priority = *raw.Priority
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

func validateFileRule(raw fileRule) error {
	requiredFields := map[string]string{
		"rule name":    raw.Name,
		"rule pattern": raw.Pattern,
	}

	for fieldName, fieldValue := range requiredFields {
		if strings.TrimSpace(fieldValue) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	return nil
}
