package config

import (
	"fmt"
	"os"
	"regexp"
)

// envRefPattern matches the ${{ env.NAME }} interpolation syntax.
var envRefPattern = regexp.MustCompile(`\$\{\{\s*env\.([A-Za-z0-9_]+)\s*\}\}`)

// interpolateEnv substitutes ${{ env.NAME }} references in every string
// value of the document from the process environment, at resolution time.
// A reference to an unset variable resolves to the empty string and is
// reported as a warning, never a hard error.
//
// The env manifest is no exception: its keys name the variables the agent
// expects and stay literal, but its values are ordinary strings and
// interpolate like any other.
func interpolateEnv(input map[string]any) (map[string]any, []Warning) {
	var warnings []Warning
	out := interpolateMap(input, "", &warnings)
	return out, warnings
}

func interpolateMap(input map[string]any, base string, warnings *[]Warning) map[string]any {
	result := make(map[string]any, len(input))
	for k, v := range input {
		result[k] = interpolateValue(v, base+"/"+k, warnings)
	}
	return result
}

func interpolateValue(v any, path string, warnings *[]Warning) any {
	switch val := v.(type) {
	case string:
		return interpolateString(val, path, warnings)
	case map[string]any:
		return interpolateMap(val, path, warnings)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = interpolateValue(item, fmt.Sprintf("%s/%d", path, i), warnings)
		}
		return result
	default:
		return v
	}
}

func interpolateString(s, path string, warnings *[]Warning) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envRefPattern.FindStringSubmatch(match)[1]
		val, ok := os.LookupEnv(name)
		if !ok {
			*warnings = append(*warnings, Warning{
				Path:    path,
				Message: fmt.Sprintf("environment variable %q is not set, substituting empty string", name),
			})
			return ""
		}
		return val
	})
}
