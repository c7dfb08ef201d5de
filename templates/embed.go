// Package templates embeds the bundled recipe and prompt definitions.
//
// The embedded copies are the fallback of the resolution chain: a
// deployment can override any of them with on-disk files or a
// RISKFORGE_TEMPLATE_DIR directory, but report generation always has
// a working default set regardless of installation method.
package templates

import "embed"

// FS contains the bundled recipe and prompt YAML files. Subdirectory
// structure matches the on-disk templates/ layout minus this Go file.
//
//go:embed recipes/*.yaml prompts/*.yaml
var FS embed.FS
