// Package narrative composes constrained prompts from registered
// templates, invokes the text-generation collaborator, and
// post-processes the returned prose.
package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/riskforge/riskforge/pkg/prompt"
	"github.com/riskforge/riskforge/pkg/riskmodel"
	"github.com/riskforge/riskforge/pkg/textgen"
)

// defaultTokenBudget applies when a prompt declares no max word count.
const defaultTokenBudget = 2048

// tokensPerWord scales a word limit into a completion token budget.
const tokensPerWord = 1.5

// Engine generates narrative sections one at a time. It holds no
// per-generation state and is safe for reuse across reports.
type Engine struct {
	registry *prompt.Registry
	client   textgen.Client
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine wires the prompt registry to the generation client.
func NewEngine(registry *prompt.Registry, client textgen.Client, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		client:   client,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TokenBudget derives the completion budget from a max word count:
// ceil(maxWords * 1.5), or the default when no limit is set.
func TokenBudget(maxWords int) int {
	if maxWords <= 0 {
		return defaultTokenBudget
	}
	return int(math.Ceil(float64(maxWords) * tokensPerWord))
}

// Generate produces one narrative section. The prompt lookup is the
// only fatal path; a missing prompt surfaces as a not-found error.
// Constraints beyond prohibited phrases are communicated to the
// collaborator but never enforced on the returned text.
func (e *Engine) Generate(ctx context.Context, promptID string, data *riskmodel.ReportDataPackage) (*riskmodel.NarrativeResult, error) {
	def, err := e.registry.Get(promptID)
	if err != nil {
		return nil, err
	}

	system := def.System.Render(data)
	if directives := def.Constraints.Directives(); len(directives) > 0 {
		var sb strings.Builder
		sb.WriteString(system)
		sb.WriteString("\n\nConstraints:\n")
		for _, d := range directives {
			sb.WriteString("- ")
			sb.WriteString(d)
			sb.WriteString("\n")
		}
		system = sb.String()
	}
	user := def.User.Render(data)

	completion, err := e.client.Generate(ctx, &textgen.Request{
		System:    system,
		User:      user,
		MaxTokens: TokenBudget(def.Constraints.MaxWords),
	})
	if err != nil {
		return nil, fmt.Errorf("narrative: prompt %q: %w", promptID, err)
	}

	text := StripProhibited(completion.Text, def.Constraints.ProhibitedPhrases)
	words := CountWords(text)

	if def.Constraints.MinWords > 0 && words < def.Constraints.MinWords {
		e.logger.Debug("narrative below requested minimum",
			"prompt", promptID, "words", words, "min_words", def.Constraints.MinWords)
	}

	return &riskmodel.NarrativeResult{
		PromptID:     promptID,
		Text:         text,
		WordCount:    words,
		Model:        completion.Model,
		InputTokens:  completion.InputTokens,
		OutputTokens: completion.OutputTokens,
	}, nil
}

// GenerateMultiple runs prompt ids strictly in order, one request in
// flight at a time. The first failure aborts the batch; the error
// names the prompt that failed and the results cover everything
// generated before it.
func (e *Engine) GenerateMultiple(ctx context.Context, promptIDs []string, data *riskmodel.ReportDataPackage) ([]*riskmodel.NarrativeResult, error) {
	results := make([]*riskmodel.NarrativeResult, 0, len(promptIDs))
	for _, id := range promptIDs {
		res, err := e.Generate(ctx, id, data)
		if err != nil {
			return results, fmt.Errorf("narrative: batch aborted at prompt %q: %w", id, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// CountWords counts whitespace-separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

var spaceRuns = regexp.MustCompile(`[ \t]{2,}`)
var blankRuns = regexp.MustCompile(`\n{3,}`)

// StripProhibited removes every prohibited phrase case-insensitively
// and collapses the whitespace the removals leave behind. Applying it
// to already-clean text is a no-op.
func StripProhibited(text string, phrases []string) string {
	for _, phrase := range phrases {
		if phrase == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(phrase))
		text = re.ReplaceAllString(text, "")
	}
	text = spaceRuns.ReplaceAllString(text, " ")
	text = blankRuns.ReplaceAllString(text, "\n\n")

	// Removal at a sentence start leaves a dangling space before
	// punctuation or after a newline.
	text = strings.ReplaceAll(text, "\n ", "\n")
	text = strings.ReplaceAll(text, " \n", "\n")
	return strings.TrimSpace(text)
}
