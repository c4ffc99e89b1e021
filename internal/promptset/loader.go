package promptset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"embed"
)

//go:embed all:testdata
var embeddedSets embed.FS

const (
	variantsFile = "variants.yaml"
	casesFile    = "cases.json"
)

// utf8BOM is tolerated at the start of both documents; editors on Windows
// routinely prepend it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ValidationError reports a malformed variants or cases document. It is a
// configuration error: loading fails before any model invocation happens.
type ValidationError struct {
	Set    string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid prompt set %q: %s", e.Set, e.Detail)
}

// Load loads a prompt set by name, searching first in the external directory
// (if provided), then in the embedded sets.
func Load(name string, externalDir string) (*Set, error) {
	if externalDir != "" {
		dir := filepath.Join(externalDir, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return loadFromFS(os.DirFS(dir), name)
		}
	}

	// Use path.Join (not filepath.Join) because embed.FS always uses forward slashes.
	subFS, err := fs.Sub(embeddedSets, path.Join("testdata", name))
	if err != nil {
		return nil, fmt.Errorf("prompt set %q not found: %w", name, err)
	}
	return loadFromFS(subFS, name)
}

// List returns the names of all available prompt sets.
func List(externalDir string) ([]string, error) {
	seen := make(map[string]bool)
	var names []string

	entries, err := fs.ReadDir(embeddedSets, "testdata")
	if err == nil {
		for _, e := range entries {
			if e.IsDir() {
				seen[e.Name()] = true
				names = append(names, e.Name())
			}
		}
	}

	if externalDir != "" {
		entries, err := os.ReadDir(externalDir)
		if err == nil {
			for _, e := range entries {
				if e.IsDir() && !seen[e.Name()] {
					names = append(names, e.Name())
				}
			}
		}
	}

	return names, nil
}

func loadFromFS(fsys fs.FS, name string) (*Set, error) {
	variantsData, err := fs.ReadFile(fsys, variantsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s for set %q: %w", variantsFile, name, err)
	}

	var doc variantsDoc
	if err := yaml.Unmarshal(stripBOM(variantsData), &doc); err != nil {
		return nil, &ValidationError{Set: name, Detail: fmt.Sprintf("failed to parse %s: %v", variantsFile, err)}
	}

	casesData, err := fs.ReadFile(fsys, casesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s for set %q: %w", casesFile, name, err)
	}

	var cases []Case
	if err := json.Unmarshal(stripBOM(casesData), &cases); err != nil {
		return nil, &ValidationError{Set: name, Detail: fmt.Sprintf("failed to parse %s: %v", casesFile, err)}
	}

	set := &Set{
		Name:     name,
		Defaults: resolveDefaults(doc.Defaults),
		Variants: doc.Variants,
		Cases:    cases,
	}

	if err := validate(set); err != nil {
		return nil, err
	}

	return set, nil
}

// resolveDefaults fills in fallbacks for omitted settings only; an explicit
// zero (temperature 0.0 for deterministic runs) is kept as written.
func resolveDefaults(doc defaultsDoc) Defaults {
	d := Defaults{
		Model:           doc.Model,
		Temperature:     0.7,
		MaxOutputTokens: 256,
	}
	if doc.Temperature != nil {
		d.Temperature = *doc.Temperature
	}
	if doc.MaxOutputTokens != nil {
		d.MaxOutputTokens = *doc.MaxOutputTokens
	}
	return d
}

func validate(set *Set) error {
	if len(set.Variants) == 0 {
		return &ValidationError{Set: set.Name, Detail: "no variants defined"}
	}
	if len(set.Cases) == 0 {
		return &ValidationError{Set: set.Name, Detail: "no cases defined"}
	}

	variantIDs := make(map[string]bool, len(set.Variants))
	for i, v := range set.Variants {
		if strings.TrimSpace(v.ID) == "" {
			return &ValidationError{Set: set.Name, Detail: fmt.Sprintf("variant %d has no id", i)}
		}
		if variantIDs[v.ID] {
			return &ValidationError{Set: set.Name, Detail: fmt.Sprintf("duplicate variant id %q", v.ID)}
		}
		variantIDs[v.ID] = true

		if strings.TrimSpace(v.PromptTemplate) == "" && len(v.FewShots) == 0 {
			return &ValidationError{Set: set.Name, Detail: fmt.Sprintf("variant %q has neither prompt_template nor few_shots", v.ID)}
		}
		for j, s := range v.FewShots {
			if s.User == "" || s.Model == "" {
				return &ValidationError{Set: set.Name, Detail: fmt.Sprintf("variant %q few_shot %d is missing user or model text", v.ID, j)}
			}
		}
	}

	caseIDs := make(map[string]bool, len(set.Cases))
	for i, c := range set.Cases {
		if strings.TrimSpace(c.ID) == "" {
			return &ValidationError{Set: set.Name, Detail: fmt.Sprintf("case %d has no id", i)}
		}
		if caseIDs[c.ID] {
			return &ValidationError{Set: set.Name, Detail: fmt.Sprintf("duplicate case id %q", c.ID)}
		}
		caseIDs[c.ID] = true

		if strings.TrimSpace(c.Type) == "" {
			return &ValidationError{Set: set.Name, Detail: fmt.Sprintf("case %q has no type", c.ID)}
		}
	}

	return nil
}

// ValidateTypes rejects cases whose type has no registered scorer. It is a
// strictness knob separate from Load so new case types can be registered
// without touching the loader.
func (s *Set) ValidateTypes(known []string) error {
	for _, c := range s.Cases {
		if !slices.Contains(known, c.Type) {
			return &ValidationError{Set: s.Name, Detail: fmt.Sprintf("case %q has unknown type %q", c.ID, c.Type)}
		}
	}
	return nil
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}
