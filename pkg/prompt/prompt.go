// Package prompt holds the named prompt registry for narrative
// generation: each prompt pairs a system template, a user template,
// and a set of output constraints. Templates are parsed once at
// registration; lookups return ready-to-render definitions.
package prompt

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/riskforge/riskforge/pkg/riskmodel"
)

// Constraints declares the output contract communicated to the
// text-generation collaborator. MinWords and RequiredElements are
// instructions only; post-processing never rejects output over them.
type Constraints struct {
	MaxWords           int      `yaml:"maxWords"`
	MinWords           int      `yaml:"minWords"`
	ProhibitedPhrases  []string `yaml:"prohibitedPhrases"`
	RequiredElements   []string `yaml:"requiredElements"`
	PreferredStructure string   `yaml:"preferredStructure"`
}

// Directives renders the constraints as instruction lines in their
// fixed order: max words, min words, prohibited phrases, required
// elements, preferred structure. Absent constraints are omitted.
func (c Constraints) Directives() []string {
	var out []string
	if c.MaxWords > 0 {
		out = append(out, fmt.Sprintf("Write at most %d words.", c.MaxWords))
	}
	if c.MinWords > 0 {
		out = append(out, fmt.Sprintf("Write at least %d words.", c.MinWords))
	}
	if len(c.ProhibitedPhrases) > 0 {
		out = append(out, fmt.Sprintf("Never use the following phrases: %s.", strings.Join(c.ProhibitedPhrases, "; ")))
	}
	if len(c.RequiredElements) > 0 {
		out = append(out, fmt.Sprintf("The text must address: %s.", strings.Join(c.RequiredElements, "; ")))
	}
	if c.PreferredStructure != "" {
		out = append(out, "Preferred structure: "+c.PreferredStructure)
	}
	return out
}

// Definition is one registered prompt with its compiled templates.
type Definition struct {
	ID          string
	Name        string
	System      *Template
	User        *Template
	Constraints Constraints
}

// definitionFile is the YAML shape of a prompt file.
type definitionFile struct {
	Prompts []struct {
		ID          string      `yaml:"id"`
		Name        string      `yaml:"name"`
		System      string      `yaml:"system"`
		User        string      `yaml:"user"`
		Constraints Constraints `yaml:"constraints"`
	} `yaml:"prompts"`
}

// Registry is a threadsafe id-to-prompt lookup table.
type Registry struct {
	mu      sync.RWMutex
	prompts map[string]*Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{prompts: make(map[string]*Definition)}
}

// Register adds or replaces a definition.
func (r *Registry) Register(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts[def.ID] = def
}

// Get returns the named prompt or a riskmodel.NotFoundError.
func (r *Registry) Get(id string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt: %w", &riskmodel.NotFoundError{Kind: "prompt", ID: id})
	}
	return def, nil
}

// IDs returns registered prompt ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.prompts))
	for id := range r.prompts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadBytes parses a YAML prompt file and registers every prompt in it.
// Template compile errors abort the whole load so a bad file never
// half-registers.
func (r *Registry) LoadBytes(data []byte) error {
	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("prompt: parse prompt file: %w", err)
	}

	defs := make([]*Definition, 0, len(file.Prompts))
	for _, p := range file.Prompts {
		if p.ID == "" {
			return fmt.Errorf("prompt: prompt with empty id")
		}
		system, err := ParseTemplate(p.System)
		if err != nil {
			return fmt.Errorf("prompt: prompt %q system template: %w", p.ID, err)
		}
		user, err := ParseTemplate(p.User)
		if err != nil {
			return fmt.Errorf("prompt: prompt %q user template: %w", p.ID, err)
		}
		defs = append(defs, &Definition{
			ID:          p.ID,
			Name:        p.Name,
			System:      system,
			User:        user,
			Constraints: p.Constraints,
		})
	}
	for _, def := range defs {
		r.Register(def)
	}
	return nil
}

// LoadFS registers every *.yaml prompt file found under dir in fsys.
func (r *Registry) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("prompt: read prompt dir %q: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("prompt: read %q: %w", entry.Name(), err)
		}
		if err := r.LoadBytes(data); err != nil {
			return fmt.Errorf("prompt: load %q: %w", entry.Name(), err)
		}
	}
	return nil
}
