package riskmodel

import "time"

// TableRow is one rendered data row with its highlight decision.
type TableRow struct {
	Cells          []string `json:"cells"`
	Highlighted    bool     `json:"highlighted"`
	HighlightStyle string   `json:"highlight_style,omitempty"` // bold | highlight | warning
}

// RenderedTable is the structured output of the table renderer. Cell
// values are already formatted strings; renderers only lay them out.
type RenderedTable struct {
	Headers []string   `json:"headers"`
	Rows    []TableRow `json:"rows"`
	Footer  []string   `json:"footer,omitempty"`
}

// NarrativeResult carries generated prose plus the metadata the
// orchestrator aggregates into report totals.
type NarrativeResult struct {
	PromptID     string `json:"prompt_id"`
	Text         string `json:"text"`
	WordCount    int    `json:"word_count"`
	Model        string `json:"model,omitempty"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// GeneratedSection is one completed report section. Narrative and Table
// are each optional; a section that failed partway keeps whatever
// content was produced before the failure.
type GeneratedSection struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Order           int              `json:"order"`
	Narrative       *NarrativeResult `json:"narrative,omitempty"`
	Table           *RenderedTable   `json:"table,omitempty"`
	PageBreakBefore bool             `json:"page_break_before,omitempty"`
}

// SectionStatus is the terminal state of one section's generation attempt.
type SectionStatus string

const (
	SectionSuccess SectionStatus = "success"
	SectionError   SectionStatus = "error"
	SectionSkipped SectionStatus = "skipped"
)

// GenerationLogEntry records the outcome of one section attempt.
type GenerationLogEntry struct {
	SectionID string        `json:"section_id"`
	Status    SectionStatus `json:"status"`
	Message   string        `json:"message,omitempty"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// GeneratedReport is the complete product of one generation run: the
// ordered sections, the data snapshot they were generated from, and a
// full per-section log.
type GeneratedReport struct {
	ID                  string               `json:"id"`
	RecipeID            string               `json:"recipe_id"`
	AssessmentID        string               `json:"assessment_id"`
	GeneratedAt         time.Time            `json:"generated_at"`
	Sections            []GeneratedSection   `json:"sections"`
	Data                *ReportDataPackage   `json:"data,omitempty"`
	Log                 []GenerationLogEntry `json:"log"`
	TotalTokensUsed     int                  `json:"total_tokens_used"`
	TotalNarrativeWords int                  `json:"total_narrative_words"`
}
