// Package recipe loads and validates the declarative report recipes
// that drive section orchestration: which sections a report contains,
// their order, and how each one is populated.
package recipe

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/riskforge/riskforge/pkg/datapath"
	"github.com/riskforge/riskforge/pkg/riskmodel"
	"github.com/riskforge/riskforge/pkg/tablerender"
	"github.com/riskforge/riskforge/pkg/templateresolver"
)

// ContentType names what a section renders.
type ContentType string

const (
	ContentNarrative     ContentType = "narrative"
	ContentTable         ContentType = "table"
	ContentVisualization ContentType = "visualization"
	ContentMixed         ContentType = "mixed"
)

func validContentType(ct ContentType) bool {
	switch ct {
	case ContentNarrative, ContentTable, ContentVisualization, ContentMixed:
		return true
	}
	return false
}

// ConditionOperator compares a resolved field against a condition value.
type ConditionOperator string

const (
	OpExists      ConditionOperator = "exists"
	OpEquals      ConditionOperator = "equals"
	OpGreaterThan ConditionOperator = "greaterThan"
	OpLessThan    ConditionOperator = "lessThan"
	OpContains    ConditionOperator = "contains"
)

// Condition is a section display condition evaluated against the
// report data package.
type Condition struct {
	Field    string            `yaml:"field"`
	Operator ConditionOperator `yaml:"operator"`
	Value    any               `yaml:"value"`
}

// Evaluate resolves the condition field against data and applies the
// operator. Unresolvable fields satisfy nothing.
func (c *Condition) Evaluate(data any) bool {
	v, ok := datapath.Resolve(data, c.Field)
	switch c.Operator {
	case OpExists:
		return ok && !datapath.IsEmpty(v)
	case OpEquals:
		if !ok {
			return false
		}
		if fv, okA := datapath.AsFloat(v); okA {
			if fc, okB := datapath.AsFloat(c.Value); okB {
				return fv == fc
			}
		}
		return fmt.Sprintf("%v", v) == fmt.Sprintf("%v", c.Value)
	case OpGreaterThan, OpLessThan:
		if !ok {
			return false
		}
		fv, okA := datapath.AsFloat(v)
		fc, okB := datapath.AsFloat(c.Value)
		if !okA || !okB {
			return false
		}
		if c.Operator == OpGreaterThan {
			return fv > fc
		}
		return fv < fc
	case OpContains:
		if !ok {
			return false
		}
		want := fmt.Sprintf("%v", c.Value)
		if elems, isList := datapath.Elements(v); isList {
			for _, e := range elems {
				if fmt.Sprintf("%v", e) == want {
					return true
				}
			}
			return false
		}
		return strings.Contains(fmt.Sprintf("%v", v), want)
	default:
		return false
	}
}

// Section declares one report section.
type Section struct {
	ID                string              `yaml:"id"`
	Title             string              `yaml:"title"`
	Order             int                 `yaml:"order"`
	Required          bool                `yaml:"required"`
	ContentType       ContentType         `yaml:"contentType"`
	RequiredData      []string            `yaml:"requiredData"`
	DisplayCondition  *Condition          `yaml:"displayCondition"`
	NarrativePromptID string              `yaml:"narrativePromptId"`
	TableConfig       *tablerender.Config `yaml:"tableConfig"`
	PageBreakBefore   bool                `yaml:"pageBreakBefore"`
}

// Recipe is one versioned report configuration. Sections are sorted by
// Order at load time and never mutated afterwards.
type Recipe struct {
	ID              string                    `yaml:"id"`
	Name            string                    `yaml:"name"`
	Version         string                    `yaml:"version"`
	AssessmentTypes []riskmodel.AssessmentType `yaml:"assessmentTypes"`
	Sections        []Section                 `yaml:"sections"`
}

// Parse decodes and validates a recipe document.
func Parse(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("recipe: parse: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(r.Sections, func(i, j int) bool {
		return r.Sections[i].Order < r.Sections[j].Order
	})
	return &r, nil
}

func (r *Recipe) validate() error {
	if r.ID == "" {
		return fmt.Errorf("recipe: missing id")
	}
	if len(r.Sections) == 0 {
		return fmt.Errorf("recipe %q: no sections", r.ID)
	}
	seen := make(map[string]bool, len(r.Sections))
	for _, s := range r.Sections {
		if s.ID == "" {
			return fmt.Errorf("recipe %q: section with empty id", r.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("recipe %q: duplicate section id %q", r.ID, s.ID)
		}
		seen[s.ID] = true
		if !validContentType(s.ContentType) {
			return fmt.Errorf("recipe %q: section %q: unknown contentType %q", r.ID, s.ID, s.ContentType)
		}
		needsNarrative := s.ContentType == ContentNarrative || s.ContentType == ContentMixed
		if needsNarrative && s.NarrativePromptID == "" {
			return fmt.Errorf("recipe %q: section %q: contentType %s requires narrativePromptId", r.ID, s.ID, s.ContentType)
		}
		if s.ContentType == ContentTable && s.TableConfig == nil {
			return fmt.Errorf("recipe %q: section %q: contentType table requires tableConfig", r.ID, s.ID)
		}
	}
	return nil
}

// Load resolves name through the template resolution chain (disk →
// env dir → embedded) and parses it. A name that resolves nowhere
// yields a riskmodel.NotFoundError.
func Load(name string) (*Recipe, error) {
	data, source, err := templateresolver.ReadAll(name, templateresolver.KindRecipe)
	if err != nil {
		return nil, fmt.Errorf("recipe: %w", &riskmodel.NotFoundError{Kind: "recipe", ID: name})
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("recipe: loading %s: %w", source, err)
	}
	return r, nil
}
