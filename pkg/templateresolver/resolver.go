// Package templateresolver resolves recipe and prompt references to
// file content.
//
// It implements a resolution chain: explicit path → on-disk templates
// directory → RISKFORGE_TEMPLATE_DIR env var → embedded FS fallback.
// This ensures definitions are always available regardless of
// installation method.
package templateresolver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/riskforge/riskforge/templates"
)

// Kind identifies the definition category for resolution.
type Kind string

const (
	// KindRecipe resolves recipe YAML files from recipes/.
	KindRecipe Kind = "recipes"

	// KindPrompt resolves prompt YAML files from prompts/.
	KindPrompt Kind = "prompts"
)

// envKey is the environment variable for overriding the template root
// directory.
const envKey = "RISKFORGE_TEMPLATE_DIR"

// diskRoot is the default on-disk templates directory, relative to the
// working directory.
const diskRoot = "templates"

// Result holds resolved content and where it came from.
type Result struct {
	// Source describes the origin, e.g. "disk:/path" or
	// "embedded:recipes/facility-standard.yaml".
	Source string

	// Content is a ReadCloser for the data. Caller must close it.
	Content io.ReadCloser
}

// containsTraversal reports whether a reference attempts directory
// traversal.
func containsTraversal(value string) bool {
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}

func validKind(kind Kind) bool {
	return kind == KindRecipe || kind == KindPrompt
}

// Resolve resolves a recipe or prompt reference to its content.
//
// The value parameter can be:
//   - A filesystem path (contains / or \) → read from disk
//   - A short name (e.g. "facility-standard") → resolution chain
//   - A filename with extension → same resolution chain
//
// Resolution order for short names:
//  1. On-disk ./templates/<kind>/<name>.yaml
//  2. RISKFORGE_TEMPLATE_DIR env var: <dir>/<kind>/<name>.yaml
//  3. Embedded FS fallback (always available)
func Resolve(value string, kind Kind) (*Result, error) {
	if value == "" {
		return nil, fmt.Errorf("templateresolver: empty reference")
	}
	if containsTraversal(value) {
		return nil, fmt.Errorf("templateresolver: path traversal not allowed: %q", value)
	}
	if !validKind(kind) {
		return nil, fmt.Errorf("templateresolver: unknown kind %q", kind)
	}

	// Explicit paths bypass the chain.
	if strings.ContainsAny(value, "/\\") {
		f, err := os.Open(value)
		if err != nil {
			return nil, fmt.Errorf("templateresolver: opening %q: %w", value, err)
		}
		return &Result{Source: "disk:" + value, Content: f}, nil
	}

	name := value
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}
	rel := string(kind) + "/" + name

	// 1. On-disk templates directory.
	diskPath := filepath.Join(diskRoot, string(kind), name)
	if f, err := os.Open(diskPath); err == nil {
		return &Result{Source: "disk:" + diskPath, Content: f}, nil
	}

	// 2. Env-configured directory.
	if envDir := os.Getenv(envKey); envDir != "" {
		envPath := filepath.Join(envDir, string(kind), name)
		if f, err := os.Open(envPath); err == nil {
			return &Result{Source: "env:" + envPath, Content: f}, nil
		}
	}

	// 3. Embedded fallback.
	if f, err := templates.FS.Open(rel); err == nil {
		return &Result{Source: "embedded:" + rel, Content: f}, nil
	}

	return nil, fmt.Errorf("templateresolver: %q not found (kind=%s): tried disk, env, embedded", value, kind)
}

// ReadAll resolves value and returns its full content.
func ReadAll(value string, kind Kind) ([]byte, string, error) {
	res, err := Resolve(value, kind)
	if err != nil {
		return nil, "", err
	}
	defer res.Content.Close()
	data, err := io.ReadAll(res.Content)
	if err != nil {
		return nil, "", fmt.Errorf("templateresolver: reading %s: %w", res.Source, err)
	}
	return data, res.Source, nil
}
