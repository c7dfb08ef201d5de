// Command riskforge generates a risk assessment report for one
// assessment and recipe and writes it in the chosen format.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/riskforge/riskforge/pkg/assemble"
	"github.com/riskforge/riskforge/pkg/generator"
	"github.com/riskforge/riskforge/pkg/genmetrics"
	"github.com/riskforge/riskforge/pkg/narrative"
	"github.com/riskforge/riskforge/pkg/prompt"
	"github.com/riskforge/riskforge/pkg/render"
	"github.com/riskforge/riskforge/pkg/riskmodel"
	"github.com/riskforge/riskforge/pkg/store"
	"github.com/riskforge/riskforge/pkg/textgen"
	"github.com/riskforge/riskforge/templates"
)

// config holds the CLI options.
type config struct {
	AssessmentID string
	RecipeID     string
	Format       string
	OutFile      string
	Save         bool
	Verbose      bool

	DB     store.Config
	OpenAI textgen.OpenAIConfig
}

func parseFlags() *config {
	cfg := &config{
		DB:     store.DefaultConfig(),
		OpenAI: textgen.DefaultOpenAIConfig(),
	}

	flag.StringVar(&cfg.AssessmentID, "assessment", "", "Assessment id to report on (required)")
	flag.StringVar(&cfg.RecipeID, "recipe", "facility-standard", "Recipe name or path")
	flag.StringVar(&cfg.Format, "format", "console", "Output format: console, html, markdown, json")
	flag.StringVar(&cfg.OutFile, "o", "", "Output file (default: stdout)")
	flag.BoolVar(&cfg.Save, "save", false, "Persist the report snapshot to the database")
	flag.BoolVar(&cfg.Verbose, "v", false, "Debug logging")

	flag.StringVar(&cfg.DB.Host, "db-host", cfg.DB.Host, "PostgreSQL host")
	flag.IntVar(&cfg.DB.Port, "db-port", cfg.DB.Port, "PostgreSQL port")
	flag.StringVar(&cfg.DB.User, "db-user", cfg.DB.User, "PostgreSQL user")
	flag.StringVar(&cfg.DB.Password, "db-password", os.Getenv("RISKFORGE_DB_PASSWORD"), "PostgreSQL password (or RISKFORGE_DB_PASSWORD)")
	flag.StringVar(&cfg.DB.Database, "db-name", cfg.DB.Database, "PostgreSQL database")

	flag.StringVar(&cfg.OpenAI.BaseURL, "openai-base-url", os.Getenv("OPENAI_BASE_URL"), "OpenAI-compatible endpoint (or OPENAI_BASE_URL)")
	flag.StringVar(&cfg.OpenAI.APIKey, "openai-key", os.Getenv("OPENAI_API_KEY"), "API key (or OPENAI_API_KEY)")
	flag.StringVar(&cfg.OpenAI.Model, "model", cfg.OpenAI.Model, "Chat model")
	flag.IntVar(&cfg.OpenAI.RequestsPerMinute, "rpm", cfg.OpenAI.RequestsPerMinute, "Client-side request rate limit per minute")

	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	if err := run(context.Background(), cfg); err != nil {
		fmt.Fprintln(os.Stderr, "riskforge:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config) error {
	if cfg.AssessmentID == "" {
		return fmt.Errorf("-assessment is required")
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	db, err := store.Open(ctx, cfg.DB, store.WithLogger(logger))
	if err != nil {
		return err
	}
	defer db.Close()

	registry := prompt.NewRegistry()
	if err := registry.LoadFS(templates.FS, "prompts"); err != nil {
		return err
	}
	// Deployment overrides shadow the embedded prompt set by id.
	for _, dir := range []string{os.Getenv("RISKFORGE_TEMPLATE_DIR"), "templates"} {
		if dir == "" {
			continue
		}
		promptDir := dir + "/prompts"
		if info, statErr := os.Stat(promptDir); statErr != nil || !info.IsDir() {
			continue
		}
		if err := registry.LoadFS(os.DirFS(promptDir), "."); err != nil {
			return err
		}
	}

	client, err := textgen.NewOpenAIClient(ctx, cfg.OpenAI)
	if err != nil {
		return err
	}

	metrics, err := genmetrics.New(genmetrics.Options{})
	if err != nil {
		return err
	}

	assembler := assemble.New(db, assemble.WithLogger(logger))
	engine := narrative.NewEngine(registry, client, narrative.WithLogger(logger))

	opts := []generator.Option{
		generator.WithLogger(logger),
		generator.WithMetrics(metrics),
	}
	if cfg.Save {
		opts = append(opts, generator.WithSaver(db))
	}
	gen := generator.New(assembler, engine, opts...)

	report, err := gen.Generate(ctx, cfg.AssessmentID, cfg.RecipeID)
	if err != nil {
		return err
	}
	return write(cfg, report)
}

func write(cfg *config, report *riskmodel.GeneratedReport) error {
	var out io.Writer = os.Stdout
	if cfg.OutFile != "" {
		f, err := os.Create(cfg.OutFile)
		if err != nil {
			return fmt.Errorf("create %s: %w", cfg.OutFile, err)
		}
		defer f.Close()
		out = f
	}

	switch cfg.Format {
	case "console":
		return render.ConsolePreview(out, report)
	case "html":
		data, err := render.HTML(report)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "markdown":
		data, err := render.Markdown(report)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "json":
		data, err := render.JSON(report)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q", cfg.Format)
	}
}
