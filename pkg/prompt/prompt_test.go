package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskforge/riskforge/pkg/riskmodel"
)

func TestConstraintsDirectivesOrder(t *testing.T) {
	c := Constraints{
		MaxWords:           300,
		MinWords:           150,
		ProhibitedPhrases:  []string{"in conclusion", "as an AI"},
		RequiredElements:   []string{"overall risk level", "top threat"},
		PreferredStructure: "three paragraphs, no headings",
	}
	got := c.Directives()
	require.Len(t, got, 5)
	assert.Equal(t, "Write at most 300 words.", got[0])
	assert.Equal(t, "Write at least 150 words.", got[1])
	assert.Equal(t, "Never use the following phrases: in conclusion; as an AI.", got[2])
	assert.Equal(t, "The text must address: overall risk level; top threat.", got[3])
	assert.Equal(t, "Preferred structure: three paragraphs, no headings", got[4])
}

func TestConstraintsDirectivesOmitAbsent(t *testing.T) {
	got := Constraints{MaxWords: 100}.Directives()
	require.Len(t, got, 1)
	assert.Equal(t, "Write at most 100 words.", got[0])

	assert.Empty(t, Constraints{}.Directives())
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	require.Error(t, err)
	assert.True(t, riskmodel.IsNotFound(err))
	assert.Contains(t, err.Error(), `prompt "nope" not found`)
}

func TestRegistryLoadBytes(t *testing.T) {
	r := NewRegistry()
	err := r.LoadBytes([]byte(`
prompts:
  - id: executive-summary
    name: Executive Summary
    system: "You are a security risk analyst."
    user: "Summarize risk for assessment {{assessmentId}}."
    constraints:
      maxWords: 250
      prohibitedPhrases: ["in conclusion"]
`))
	require.NoError(t, err)

	def, err := r.Get("executive-summary")
	require.NoError(t, err)
	assert.Equal(t, "Executive Summary", def.Name)
	assert.Equal(t, 250, def.Constraints.MaxWords)
	assert.Equal(t, []string{"executive-summary"}, r.IDs())
}

func TestRegistryLoadBytesBadTemplateRegistersNothing(t *testing.T) {
	r := NewRegistry()
	err := r.LoadBytes([]byte(`
prompts:
  - id: good
    system: "ok"
    user: "ok"
  - id: bad
    system: "ok"
    user: "{{#each threatDomains}} no closing tag"
`))
	require.Error(t, err)
	_, err = r.Get("good")
	assert.Error(t, err, "a file with any bad template registers none of its prompts")
}
