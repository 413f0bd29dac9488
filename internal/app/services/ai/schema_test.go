package ai

import (
	"testing"

	"scribe-service/internal/app/models"
	"scribe-service/internal/pkg/constvars"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fragmentOf(ids ...string) models.FormSchema {
	nodes := make([]models.FieldNode, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, models.FieldNode{Field: &models.Field{
			ID:     id,
			Schema: map[string]interface{}{"type": "string"},
		}})
	}
	return models.FormSchema{{Title: "Visit", Fields: nodes}}
}

func TestBuildTargetSchemaAnonymizes(t *testing.T) {
	target := BuildTargetSchema(fragmentOf("pulse", "spo2", "note"), false, "")

	assert.Equal(t, []string{"pulse", "spo2", "note"}, target.FieldIDs)
	properties := target.Schema["properties"].(map[string]interface{})
	require.Len(t, properties, 3)
	assert.Contains(t, properties, "q0")
	assert.Contains(t, properties, "q1")
	assert.Contains(t, properties, "q2")
	assert.NotContains(t, properties, constvars.TranscriptionFieldKey)
}

func TestBuildTargetSchemaWithTranscription(t *testing.T) {
	target := BuildTargetSchema(fragmentOf("pulse"), true, "The transcription of the audio")

	properties := target.Schema["properties"].(map[string]interface{})
	transcription := properties[constvars.TranscriptionFieldKey].(map[string]interface{})
	assert.Equal(t, "string", transcription["type"])
	assert.Equal(t, "The transcription of the audio", transcription["description"])
	assert.Contains(t, target.Schema["required"], constvars.TranscriptionFieldKey)
}

func TestReassembleIsLeftInverse(t *testing.T) {
	fieldIDs := []string{"pulse", "spo2", "note"}

	out := Reassemble(fieldIDs, map[string]interface{}{
		"q0": "72",
		"q2": "stable",
		"q1": nil,       // nil values are dropped
		"q9": "ignored", // spurious keys are dropped
		constvars.TranscriptionFieldKey: "ignored too",
	})

	assert.Equal(t, map[string]interface{}{"pulse": "72", "note": "stable"}, out)
}

func TestSanitizeSchemaStripsMetaKeywords(t *testing.T) {
	schema := map[string]interface{}{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"properties": map[string]interface{}{
			"q0": map[string]interface{}{
				"type":             "string",
				"default":          "x",
				"propertyOrdering": []interface{}{"a"},
			},
			"q1": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]interface{}{
					"value": map[string]interface{}{"$ref": "#/defs/v", "type": "string"},
				},
			},
		},
	}

	out := SanitizeSchema(schema, true, false)

	assert.NotContains(t, out, "$schema")
	q0 := out["properties"].(map[string]interface{})["q0"].(map[string]interface{})
	assert.NotContains(t, q0, "default")
	assert.NotContains(t, q0, "propertyOrdering")
	q1 := out["properties"].(map[string]interface{})["q1"].(map[string]interface{})
	assert.NotContains(t, q1, "additionalProperties")
	value := q1["properties"].(map[string]interface{})["value"].(map[string]interface{})
	assert.NotContains(t, value, "$ref")

	// The input schema is never mutated.
	assert.Contains(t, schema, "$schema")
	assert.Contains(t, schema["properties"].(map[string]interface{})["q0"], "default")
}

func TestSanitizeSchemaBackfillsTypes(t *testing.T) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"q0": map[string]interface{}{"description": "anything"},
			"q1": map[string]interface{}{"type": "number"},
		},
	}

	out := SanitizeSchema(schema, false, true)

	q0 := out["properties"].(map[string]interface{})["q0"].(map[string]interface{})
	assert.Equal(t, "string", q0["type"])
	q1 := out["properties"].(map[string]interface{})["q1"].(map[string]interface{})
	assert.Equal(t, "number", q1["type"])
}

func TestAssembleMessagesOrdering(t *testing.T) {
	audio := FilePayload{Kind: FileKindAudio, Format: "mp3", Data: []byte{1}}
	image := FilePayload{Kind: FileKindImage, Format: "png", Data: []byte{2}}

	messages := AssembleMessages(ContentInput{
		Prompt:        "system prompt",
		Text:          "free text",
		Transcript:    "the transcript",
		AudioFiles:    []FilePayload{audio},
		DocumentFiles: []FilePayload{image},
	})

	require.Len(t, messages, 5)
	assert.Equal(t, RoleSystem, messages[0].Role)
	assert.Equal(t, "system prompt", messages[0].Text)
	assert.Equal(t, "free text", messages[1].Text)
	assert.Equal(t, FileKindAudio, messages[2].File.Kind)
	assert.Equal(t, FileKindImage, messages[3].File.Kind)
	assert.Equal(t, "the transcript", messages[4].Text)
}

func TestAssembleMessagesSkipsEmptyParts(t *testing.T) {
	messages := AssembleMessages(ContentInput{Prompt: "p"})
	require.Len(t, messages, 1)
	assert.Equal(t, RoleSystem, messages[0].Role)
}
