// Package loader reads story and lore bundles from JSON or YAML documents
// and validates them for referential integrity before runtime construction.
// Errors block; warnings are returned for the caller to surface.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/storyloom/types"
)

// Load reads a story bundle and any lore bundles from disk, decodes them
// by file extension (.json, .yaml, .yml), and validates the set. Warnings
// come back alongside the bundles; error-severity findings abort with a
// *ValidationError.
func Load(storyPath string, lorePaths ...string) (*types.StoryBundle, []*types.LoreBundle, []types.Issue, error) {
	story, err := LoadStory(storyPath)
	if err != nil {
		return nil, nil, nil, err
	}

	var lore []*types.LoreBundle
	for _, path := range lorePaths {
		bundle, err := LoadLore(path)
		if err != nil {
			return nil, nil, nil, err
		}
		lore = append(lore, bundle)
	}

	issues := Validate(story, lore)
	var warnings []types.Issue
	var fatal []types.Issue
	for _, issue := range issues {
		if issue.Severity == types.SeverityError {
			fatal = append(fatal, issue)
		} else {
			warnings = append(warnings, issue)
		}
	}
	if len(fatal) > 0 {
		return nil, nil, warnings, &ValidationError{Issues: fatal}
	}
	return story, lore, warnings, nil
}

// LoadStory reads and decodes a single story bundle file without
// validating it.
func LoadStory(path string) (*types.StoryBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading story bundle: %w", err)
	}
	story, err := DecodeStory(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return story, nil
}

// LoadLore reads and decodes a single lore bundle file.
func LoadLore(path string) (*types.LoreBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lore bundle: %w", err)
	}
	bundle, err := DecodeLore(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return bundle, nil
}

// Format identifies a bundle document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// DecodeStory decodes story bundle bytes in the given format.
func DecodeStory(data []byte, format Format) (*types.StoryBundle, error) {
	var story types.StoryBundle
	if err := decode(data, format, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

// DecodeLore decodes lore bundle bytes in the given format.
func DecodeLore(data []byte, format Format) (*types.LoreBundle, error) {
	var bundle types.LoreBundle
	if err := decode(data, format, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// decode routes YAML through a JSON re-encoding so the custom JSON
// unmarshallers (narrative text unions) apply to both formats.
func decode(data []byte, format Format, v any) error {
	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing YAML: %w", err)
		}
		jsonData, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("converting YAML document: %w", err)
		}
		data = jsonData
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing bundle: %w", err)
	}
	return nil
}

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}
