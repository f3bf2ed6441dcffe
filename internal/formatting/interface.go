// Package formatting renders environments and templates for CLI output in
// table, JSON, or YAML form.
package formatting

import (
	"habitat/internal/api"
	"habitat/internal/orchestrator"
)

// OutputFormat represents the desired output format.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// Options configures formatter behavior.
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
}

// Formatter renders the habitat domain objects.
type Formatter interface {
	FormatEnvironmentList(infos []api.EnvironmentInfo) (string, error)
	FormatEnvironmentDetail(info *api.EnvironmentInfo) (string, error)
	FormatTemplateList(templates []*api.EnvironmentTemplate) (string, error)
	FormatUsage(report orchestrator.UsageReport) (string, error)
}

// NewFormatter returns the formatter for the requested format, defaulting to
// the table renderer.
func NewFormatter(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return &jsonFormatter{}
	case FormatYAML:
		return &yamlFormatter{}
	default:
		return &tableFormatter{options: options}
	}
}
