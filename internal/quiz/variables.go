package quiz

import "strings"

const variableMarker = "var:"

// substituteVariables resolves "var:" references against each question's
// variables table. Substitution runs on the decoded document tree so a
// variable can hold any value shape, including whole interval arrays.
func substituteVariables(document map[string]any) {
	questions, ok := document["questions"].([]any)
	if !ok {
		return
	}
	for _, entry := range questions {
		question, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		variables, ok := question["variables"].(map[string]any)
		if !ok {
			continue
		}
		substituteInMap(question, variables)
	}
}

func substituteInMap(values map[string]any, variables map[string]any) {
	for key, item := range values {
		if key == "variables" {
			continue
		}
		if replacement, ok := substituted(item, variables); ok {
			values[key] = replacement
		}
	}
}

func substituteInSlice(values []any, variables map[string]any) {
	for i, item := range values {
		if replacement, ok := substituted(item, variables); ok {
			values[i] = replacement
		}
	}
}

// substituted returns the replacement for item and whether the caller should
// store it. Containers are rewritten in place and never replaced wholesale.
func substituted(item any, variables map[string]any) (any, bool) {
	switch value := item.(type) {
	case map[string]any:
		substituteInMap(value, variables)
	case []any:
		substituteInSlice(value, variables)
	case string:
		if !strings.HasPrefix(value, variableMarker) {
			return nil, false
		}
		name := value[len(variableMarker):]
		if replacement, ok := variables[name]; ok {
			return replacement, true
		}
	}
	return nil, false
}
