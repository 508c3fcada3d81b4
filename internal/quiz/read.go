package quiz

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var topLevelKeys = map[string]struct{}{
	"round":                     {},
	"theme":                     {},
	"spacers":                   {},
	"use_cached_video_files":    {},
	"background_image":          {},
	"first_question_is_example": {},
	"questioned":                {},
	"questions":                 {},
}

// ReadRound reads, substitutes, and validates a round file. JSON and YAML
// documents are supported, selected by file extension.
func ReadRound(path string) (*Round, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read round file: %w", err)
	}

	var document map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &document); err != nil {
			return nil, fmt.Errorf("parse round file %s: %w", filepath.Base(path), err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &document); err != nil {
			return nil, fmt.Errorf("parse round file %s: %w", filepath.Base(path), err)
		}
	default:
		return nil, fmt.Errorf("round file %s: unsupported extension %q (use .json, .yaml, or .yml)", filepath.Base(path), ext)
	}

	if err := checkTopLevelKeys(document); err != nil {
		return nil, err
	}

	substituteVariables(document)

	encoded, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("normalize round document: %w", err)
	}

	var round Round
	if err := json.Unmarshal(encoded, &round); err != nil {
		return nil, fmt.Errorf("decode round document: %w", err)
	}

	round.canonicalize()
	if err := round.Validate(); err != nil {
		return nil, err
	}
	round.applyDefaults()
	return &round, nil
}

func checkTopLevelKeys(document map[string]any) error {
	unknown := make([]string, 0)
	for key := range document {
		if _, ok := topLevelKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("round file has unknown top-level keys: %s", strings.Join(unknown, ", "))
}

// canonicalize trims and lowercases source kinds before validation.
func (r *Round) canonicalize() {
	for qi := range r.Questions {
		for si := range r.Questions[qi].Sources {
			source := &r.Questions[qi].Sources[si]
			source.Kind = strings.ToLower(strings.TrimSpace(source.Kind))
		}
	}
}

// applyDefaults fills round file defaults after validation: generated sources
// fall back to mp4 and unspecified repetitions mean a single play.
func (r *Round) applyDefaults() {
	for qi := range r.Questions {
		question := &r.Questions[qi]
		if question.Repetitions == 0 {
			question.Repetitions = 1
		}
		for si := range question.Sources {
			source := &question.Sources[si]
			if (source.Kind == SourceText || source.Kind == SourceImage) && source.Format == "" {
				source.Format = "mp4"
			}
		}
	}
}
