// Package generator orchestrates report generation: it walks a
// recipe's ordered sections, evaluates display conditions and
// required-data contracts against the assembled data package, and
// dispatches to the table renderer and narrative engine. A failed
// section never fails the report; only unresolvable references (a
// missing assessment, recipe, or prompt id) abort the request.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskforge/riskforge/pkg/datapath"
	"github.com/riskforge/riskforge/pkg/genmetrics"
	"github.com/riskforge/riskforge/pkg/recipe"
	"github.com/riskforge/riskforge/pkg/riskmodel"
	"github.com/riskforge/riskforge/pkg/tablerender"
)

// Assembler builds the data package a report is generated from.
type Assembler interface {
	Assemble(ctx context.Context, assessmentID string) (*riskmodel.ReportDataPackage, error)
}

// Narrator produces one narrative section. Calls are made strictly
// one at a time; the collaborator behind it is rate limited and the
// sequencing is part of that contract.
type Narrator interface {
	Generate(ctx context.Context, promptID string, data *riskmodel.ReportDataPackage) (*riskmodel.NarrativeResult, error)
}

// Saver persists a finished report snapshot.
type Saver interface {
	SaveReport(ctx context.Context, report *riskmodel.GeneratedReport) error
}

// RecipeLoader resolves a recipe id to its definition.
type RecipeLoader func(id string) (*recipe.Recipe, error)

// Generator runs report generation end to end.
type Generator struct {
	assembler   Assembler
	narrator    Narrator
	loadRecipe  RecipeLoader
	saver       Saver
	metrics     *genmetrics.Metrics
	logger      *slog.Logger
	tracer      trace.Tracer
	newReportID func() string
	now         func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the generator's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithRecipeLoader overrides recipe resolution. Defaults to the
// template resolution chain.
func WithRecipeLoader(load RecipeLoader) Option {
	return func(g *Generator) { g.loadRecipe = load }
}

// WithSaver enables snapshot persistence after generation. A save
// failure degrades to a warning; the report is still returned.
func WithSaver(saver Saver) Option {
	return func(g *Generator) { g.saver = saver }
}

// WithMetrics wires generation metrics.
func WithMetrics(m *genmetrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithReportID overrides report id generation, for tests.
func WithReportID(fn func() string) Option {
	return func(g *Generator) { g.newReportID = fn }
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New wires a Generator.
func New(assembler Assembler, narrator Narrator, opts ...Option) *Generator {
	g := &Generator{
		assembler:   assembler,
		narrator:    narrator,
		loadRecipe:  recipe.Load,
		logger:      slog.Default(),
		tracer:      otel.Tracer("riskforge/generator"),
		newReportID: uuid.NewString,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces the report for one assessment and recipe. Only a
// missing assessment, recipe, or prompt id fails the call; every other
// per-section failure is absorbed into the generation log. Sections
// are processed strictly in recipe order, one narrative request in
// flight at a time.
func (g *Generator) Generate(ctx context.Context, assessmentID, recipeID string) (*riskmodel.GeneratedReport, error) {
	ctx, span := g.tracer.Start(ctx, "report.generate", trace.WithAttributes(
		attribute.String("assessment.id", assessmentID),
		attribute.String("recipe.id", recipeID),
	))
	defer span.End()

	rcp, err := g.loadRecipe(recipeID)
	if err != nil {
		return nil, err
	}
	data, err := g.assembler.Assemble(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	report := &riskmodel.GeneratedReport{
		ID:           g.newReportID(),
		RecipeID:     rcp.ID,
		AssessmentID: assessmentID,
		GeneratedAt:  g.now().UTC(),
		Data:         data,
	}
	span.SetAttributes(attribute.String("report.id", report.ID))

	for _, section := range rcp.Sections {
		if err := g.runSection(ctx, report, &section, data); err != nil {
			return nil, err
		}
	}

	g.metrics.ObserveReport(rcp.ID, report.TotalTokensUsed, report.TotalNarrativeWords)
	g.logger.Info("report generated",
		"report", report.ID, "recipe", rcp.ID, "assessment", assessmentID,
		"sections", len(report.Sections), "tokens", report.TotalTokensUsed,
		"words", report.TotalNarrativeWords)

	if g.saver != nil {
		if err := g.saver.SaveReport(ctx, report); err != nil {
			g.logger.Warn("report snapshot not persisted", "report", report.ID, "error", err)
		}
	}
	return report, nil
}

// runSection drives one section through the per-section state machine
// and appends the outcome to the report. A non-nil return is fatal and
// aborts the whole generation run.
func (g *Generator) runSection(ctx context.Context, report *riskmodel.GeneratedReport, section *recipe.Section, data *riskmodel.ReportDataPackage) error {
	ctx, span := g.tracer.Start(ctx, "report.section", trace.WithAttributes(
		attribute.String("section.id", section.ID),
	))
	defer span.End()
	started := g.now()

	if section.DisplayCondition != nil && !section.DisplayCondition.Evaluate(data) {
		report.Log = append(report.Log, riskmodel.GenerationLogEntry{
			SectionID: section.ID,
			Status:    riskmodel.SectionSkipped,
			Message:   fmt.Sprintf("display condition on %q not met", section.DisplayCondition.Field),
		})
		g.metrics.ObserveSection(riskmodel.SectionSkipped, g.now().Sub(started))
		g.logger.Debug("section skipped", "section", section.ID)
		return nil
	}

	// Missing required data is a warning, never a veto: generation is
	// still attempted, including for required sections.
	var warnings []string
	for _, path := range section.RequiredData {
		if v, ok := datapath.Resolve(data, path); !ok || datapath.IsEmpty(v) {
			warnings = append(warnings, fmt.Sprintf("required data %q is missing or empty", path))
		}
	}
	for _, w := range warnings {
		g.logger.Warn("section data incomplete", "section", section.ID, "detail", w)
	}

	generated := riskmodel.GeneratedSection{
		ID:              section.ID,
		Title:           section.Title,
		Order:           section.Order,
		PageBreakBefore: section.PageBreakBefore,
	}
	genErr := g.populate(ctx, &generated, section, data)

	// A recipe naming a prompt that does not exist is a broken
	// reference, the same class of failure as a missing assessment or
	// recipe: it aborts the request instead of degrading the section.
	if riskmodel.IsNotFound(genErr) {
		g.metrics.ObserveSection(riskmodel.SectionError, g.now().Sub(started))
		return genErr
	}

	entry := riskmodel.GenerationLogEntry{
		SectionID: section.ID,
		Status:    riskmodel.SectionSuccess,
		Warnings:  warnings,
	}
	if genErr != nil {
		entry.Status = riskmodel.SectionError
		entry.Message = genErr.Error()
		g.logger.Error("section generation failed, keeping partial content",
			"section", section.ID, "error", genErr)
	}

	// Totals only count narrative that actually landed.
	if generated.Narrative != nil {
		report.TotalTokensUsed += generated.Narrative.InputTokens + generated.Narrative.OutputTokens
		report.TotalNarrativeWords += generated.Narrative.WordCount
	}

	report.Sections = append(report.Sections, generated)
	report.Log = append(report.Log, entry)
	g.metrics.ObserveSection(entry.Status, g.now().Sub(started))
	return nil
}

// populate fills the section's content. The first failure stops
// population; whatever was produced before it stays on the section.
// Panics from content generation are converted to errors so one
// broken section cannot take down the report.
func (g *Generator) populate(ctx context.Context, out *riskmodel.GeneratedSection, section *recipe.Section, data *riskmodel.ReportDataPackage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator: section %q panicked: %v", section.ID, r)
		}
	}()

	wantsNarrative := section.ContentType == recipe.ContentNarrative || section.ContentType == recipe.ContentMixed
	if wantsNarrative && section.NarrativePromptID != "" {
		res, nerr := g.narrator.Generate(ctx, section.NarrativePromptID, data)
		if nerr != nil {
			return fmt.Errorf("generator: narrative for section %q: %w", section.ID, nerr)
		}
		out.Narrative = res
	}

	wantsTable := section.ContentType == recipe.ContentTable || section.ContentType == recipe.ContentMixed
	if wantsTable && section.TableConfig != nil {
		table, terr := tablerender.Render(section.TableConfig, data)
		if terr != nil {
			return fmt.Errorf("generator: table for section %q: %w", section.ID, terr)
		}
		out.Table = table
	}
	return nil
}
