// internal/common/validation/schema.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateVariables checks decoded job variables against a JSON schema
// expressed as a Go map. Returns one error message per violation.
func ValidateVariables(variables map[string]interface{}, schema map[string]interface{}) []string {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(variables)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return []string{fmt.Sprintf("schema validation error: %v", err)}
	}
	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return messages
}

// ObjectSchema builds an object schema with the given properties and
// required field names.
func ObjectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty describes a non-empty string field.
func StringProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":      "string",
		"minLength": 1,
	}
}

// EnumProperty describes a string field restricted to the given values.
func EnumProperty(values ...string) map[string]interface{} {
	enum := make([]interface{}, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return map[string]interface{}{
		"type": "string",
		"enum": enum,
	}
}
