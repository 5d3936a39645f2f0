package cache

import (
	"github.com/google/jsonschema-go/jsonschema"
)

func intPtr(v int) *int {
	return &v
}

func float64Ptr(v float64) *float64 {
	return &v
}

var usageSchema = &jsonschema.Schema{
	Types: []string{"object", "null"},
	Properties: map[string]*jsonschema.Schema{
		"prompt_tokens":     {Type: "integer"},
		"completion_tokens": {Type: "integer"},
		"total_tokens":      {Type: "integer"},
	},
}

// entrySchema accepts success entries written by this tool and by earlier
// versions (no status field), and failure entries.
var entrySchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"md_text":  {Type: "string"},
		"usage":    usageSchema,
		"status":   {Type: "string", Enum: []any{string(statusSuccess), string(statusFailed)}},
		"error":    {Type: "string"},
		"attempts": {Type: "integer", Minimum: float64Ptr(0)},
	},
	AnyOf: []*jsonschema.Schema{
		{
			Required: []string{"md_text"},
			Properties: map[string]*jsonschema.Schema{
				"md_text": {Type: "string", MinLength: intPtr(1)},
				"status":  {Enum: []any{string(statusSuccess)}},
			},
		},
		{
			Required: []string{"status", "error"},
			Properties: map[string]*jsonschema.Schema{
				"status": {Enum: []any{string(statusFailed)}},
			},
		},
	},
}

var resolvedSchema = mustResolve(entrySchema)

func mustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	resolved, err := s.Resolve(nil)

	if err != nil {
		panic(err)
	}

	return resolved
}
