package ai

import (
	"fmt"

	"scribe-service/internal/app/models"
	"scribe-service/internal/pkg/constvars"
)

// ChunkSchema is the anonymized extraction target for one schema fragment.
// FieldIDs[i] is the real field id behind property "qi".
type ChunkSchema struct {
	FieldIDs             []string
	Schema               map[string]interface{}
	IncludeTranscription bool
}

// BuildTargetSchema anonymizes a fragment's leaf fields into q0..qN and wraps
// them in an object schema. transcriptionDesc is attached when the backend is
// asked to report the transcription alongside the values.
func BuildTargetSchema(fragment models.FormSchema, includeTranscription bool, transcriptionDesc string) *ChunkSchema {
	leaves := fragment.LeafFields()
	properties := make(map[string]interface{}, len(leaves)+1)
	fieldIDs := make([]string, 0, len(leaves))

	for i, leaf := range leaves {
		key := fmt.Sprintf(constvars.AnonymousFieldKeyFormat, i)
		schema := leaf.Schema
		if schema == nil {
			schema = map[string]interface{}{}
		}
		properties[key] = deepCopySchema(schema)
		fieldIDs = append(fieldIDs, leaf.ID)
	}

	required := []interface{}{}
	if includeTranscription {
		properties[constvars.TranscriptionFieldKey] = map[string]interface{}{
			"type":        "string",
			"description": transcriptionDesc,
		}
		required = append(required, constvars.TranscriptionFieldKey)
	}

	return &ChunkSchema{
		FieldIDs: fieldIDs,
		Schema: map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
		IncludeTranscription: includeTranscription,
	}
}

// Reassemble maps anonymized keys back to real field ids. Keys outside the
// mapping and nil values are dropped, so reassembly is a left inverse of
// anonymization for any subset of returned keys.
func Reassemble(fieldIDs []string, values map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for i, id := range fieldIDs {
		key := fmt.Sprintf(constvars.AnonymousFieldKeyFormat, i)
		if value, ok := values[key]; ok && value != nil {
			out[id] = value
		}
	}
	return out
}

// schemaMetaKeywords are JSON-Schema keywords the backends reject or ignore.
var schemaMetaKeywords = []string{"$schema", "$id", "$ref", "$defs", "default", "propertyOrdering"}

// SanitizeSchema deep-copies the schema, strips provider-incompatible
// keywords, and backfills an open-ended string type onto any leaf that does
// not declare one, for backends that require every property to carry a
// concrete type.
func SanitizeSchema(schema map[string]interface{}, stripAdditionalProperties, backfillTypes bool) map[string]interface{} {
	out := deepCopySchema(schema)
	sanitizeInPlace(out, stripAdditionalProperties, backfillTypes)
	return out
}

func sanitizeInPlace(node map[string]interface{}, stripAdditionalProperties, backfillTypes bool) {
	for _, keyword := range schemaMetaKeywords {
		delete(node, keyword)
	}
	if stripAdditionalProperties {
		delete(node, "additionalProperties")
	}

	if properties, ok := node["properties"].(map[string]interface{}); ok {
		for _, raw := range properties {
			if child, ok := raw.(map[string]interface{}); ok {
				sanitizeInPlace(child, stripAdditionalProperties, backfillTypes)
			}
		}
	}
	if items, ok := node["items"].(map[string]interface{}); ok {
		sanitizeInPlace(items, stripAdditionalProperties, backfillTypes)
	}
	for _, combiner := range []string{"anyOf", "oneOf", "allOf"} {
		if list, ok := node[combiner].([]interface{}); ok {
			for _, raw := range list {
				if child, ok := raw.(map[string]interface{}); ok {
					sanitizeInPlace(child, stripAdditionalProperties, backfillTypes)
				}
			}
		}
	}

	if backfillTypes && isUnderSpecified(node) {
		node["type"] = "string"
	}
}

func isUnderSpecified(node map[string]interface{}) bool {
	for _, keyword := range []string{"type", "anyOf", "oneOf", "allOf", "enum", "properties", "items"} {
		if _, ok := node[keyword]; ok {
			return false
		}
	}
	return true
}

func deepCopySchema(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		return deepCopySchema(typed)
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, item := range typed {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}
