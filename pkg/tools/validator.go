package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/harunnryd/tooloop/pkg/llm"
)

// Validate checks args against schema: required fields present, no unknown
// fields, primitive types and enums respected.
func Validate(args map[string]any, schema *llm.Schema) error {
	if schema == nil {
		return nil
	}
	for _, field := range schema.Required {
		if _, exists := args[field]; !exists {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		prop, ok := schema.Properties[key]
		if !ok {
			return fmt.Errorf("unexpected field: %s", key)
		}
		if prop.Type == "" {
			continue
		}
		value := args[key]
		if err := validateType(value, prop.Type); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		if len(prop.Enum) > 0 {
			s, _ := value.(string)
			if !slices.Contains(prop.Enum, s) {
				return fmt.Errorf("field %s: %q is not one of %v", key, s, prop.Enum)
			}
		}
	}
	return nil
}

func validateType(value any, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		if isNumber(value) {
			return nil
		}
	case "integer":
		if isInteger(value) {
			return nil
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	case "object":
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case "array":
		if _, ok := value.([]any); ok {
			return nil
		}
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return math.Trunc(v) == v
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}

// decodeArgs copies validated args into a typed struct tagged with
// `mapstructure`. Keys without a matching field are an error.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}
