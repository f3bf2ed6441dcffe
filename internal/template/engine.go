// Package template implements lightweight placeholder substitution and the
// deep-merge semantics for environment configuration bags.
//
// Backends describe endpoint URLs and workspace paths with placeholders like
// "https://{{ name }}.run.habitat.dev"; the engine resolves them against a
// context built from the environment record. Merge combines a template's base
// config with caller overrides: caller keys win per-key, nested maps merge
// key-wise, nothing else is touched.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

// Engine resolves {{ variable }} placeholders in strings, maps, and slices.
type Engine struct {
	pattern *regexp.Regexp
}

// New creates a new template engine.
func New() *Engine {
	return &Engine{
		pattern: regexp.MustCompile(`\{\{\s*\.?([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`),
	}
}

// Replace resolves all placeholders in value using context. Maps and slices
// are walked recursively; non-templatable types pass through unchanged. A
// placeholder with no matching context key is an error.
func (e *Engine) Replace(value interface{}, context map[string]interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return e.replaceString(v, context)
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, val := range v {
			replaced, err := e.Replace(val, context)
			if err != nil {
				return nil, fmt.Errorf("error in key '%s': %w", key, err)
			}
			result[key] = replaced
		}
		return result, nil
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			replaced, err := e.Replace(val, context)
			if err != nil {
				return nil, fmt.Errorf("error at index %d: %w", i, err)
			}
			result[i] = replaced
		}
		return result, nil
	default:
		return value, nil
	}
}

func (e *Engine) replaceString(s string, context map[string]interface{}) (string, error) {
	var missing []string

	result := e.pattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := e.pattern.FindStringSubmatch(match)
		name := groups[1]
		value, exists := context[name]
		if !exists {
			missing = append(missing, name)
			return match
		}
		return stringify(value)
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing template variables: %s", strings.Join(missing, ", "))
	}
	return result, nil
}

// ExtractVariables returns the distinct placeholder names referenced by value.
func (e *Engine) ExtractVariables(value interface{}) []string {
	seen := make(map[string]bool)
	e.extract(value, seen)

	result := make([]string, 0, len(seen))
	for name := range seen {
		result = append(result, name)
	}
	return result
}

func (e *Engine) extract(value interface{}, seen map[string]bool) {
	switch v := value.(type) {
	case string:
		for _, match := range e.pattern.FindAllStringSubmatch(v, -1) {
			seen[match[1]] = true
		}
	case map[string]interface{}:
		for _, val := range v {
			e.extract(val, seen)
		}
	case []interface{}:
		for _, val := range v {
			e.extract(val, seen)
		}
	}
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
