package models

import (
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatField(id string) FieldNode {
	return FieldNode{Field: &Field{ID: id, FriendlyName: id, Schema: map[string]interface{}{"type": "string"}}}
}

func flatSchema(n int) FormSchema {
	fields := make([]FieldNode, 0, n)
	for i := 0; i < n; i++ {
		fields = append(fields, flatField(fmt.Sprintf("field-%d", i)))
	}
	return FormSchema{{Title: "Encounter", Fields: fields}}
}

func TestCountFields(t *testing.T) {
	schema := FormSchema{{
		Title: "Vitals",
		Fields: []FieldNode{
			flatField("a"),
			{Group: &Group{Title: "Blood Pressure", Fields: []FieldNode{
				flatField("b"),
				{Group: &Group{Title: "Nested", Fields: []FieldNode{flatField("c"), flatField("d")}}},
			}}},
		},
	}}

	// A group counts as the sum of its descendants, never as one.
	assert.Equal(t, 4, schema.CountFields())
	assert.Equal(t, 3, schema[0].Fields[1].CountFields())
}

func TestChunkFlatSchema(t *testing.T) {
	schema := flatSchema(45)
	fragments := schema.Chunk(20)

	require.Len(t, fragments, 3)
	assert.Equal(t, 20, fragments[0].CountFields())
	assert.Equal(t, 20, fragments[1].CountFields())
	assert.Equal(t, 5, fragments[2].CountFields())
}

func TestChunkConservesFieldsInOrder(t *testing.T) {
	schema := FormSchema{{
		Title: "Visit",
		Fields: []FieldNode{
			flatField("f0"),
			{Group: &Group{Title: "History", Fields: []FieldNode{
				flatField("f1"), flatField("f2"), flatField("f3"),
			}}},
			flatField("f4"),
			{Group: &Group{Title: "Exam", Fields: []FieldNode{
				flatField("f5"), flatField("f6"),
			}}},
		},
	}}

	for _, budget := range []int{1, 2, 3, 7, 100} {
		fragments := schema.Chunk(budget)

		total := 0
		var ids []string
		for _, fragment := range fragments {
			count := fragment.CountFields()
			assert.LessOrEqual(t, count, budget, "budget %d", budget)
			total += count
			for _, leaf := range fragment.LeafFields() {
				ids = append(ids, leaf.ID)
			}
		}
		assert.Equal(t, schema.CountFields(), total, "budget %d", budget)
		assert.Equal(t, []string{"f0", "f1", "f2", "f3", "f4", "f5", "f6"}, ids, "budget %d", budget)
	}
}

func TestChunkDuplicatesGroupShells(t *testing.T) {
	schema := FormSchema{{
		Title: "Visit",
		Fields: []FieldNode{
			{Group: &Group{Title: "Long Section", Description: "desc", Fields: []FieldNode{
				flatField("g0"), flatField("g1"), flatField("g2"), flatField("g3"), flatField("g4"),
			}}},
		},
	}}

	fragments := schema.Chunk(2)
	require.Len(t, fragments, 3)

	for _, fragment := range fragments {
		require.Len(t, fragment[0].Fields, 1)
		group := fragment[0].Fields[0].Group
		require.NotNil(t, group)
		assert.Equal(t, "Long Section", group.Title)
		assert.Equal(t, "desc", group.Description)
	}
	assert.Equal(t, 2, fragments[0].CountFields())
	assert.Equal(t, 2, fragments[1].CountFields())
	assert.Equal(t, 1, fragments[2].CountFields())
}

func TestChunkIsDeterministic(t *testing.T) {
	schema := flatSchema(33)

	first := schema.Chunk(10)
	second := schema.Chunk(10)

	require.Equal(t, len(first), len(second))
	for i := range first {
		a, _ := json.Marshal(first[i])
		b, _ := json.Marshal(second[i])
		assert.Equal(t, string(a), string(b))
	}
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	schema := FormSchema{{
		Title:  "Visit",
		Fields: []FieldNode{flatField("dup"), flatField("dup")},
	}}
	assert.Error(t, schema.Validate())

	empty := FormSchema{{
		Title:  "Visit",
		Fields: []FieldNode{{Field: &Field{FriendlyName: "no id"}}},
	}}
	assert.Error(t, empty.Validate())

	assert.NoError(t, flatSchema(3).Validate())
}

func TestFieldNodeUnmarshal(t *testing.T) {
	var schema FormSchema
	raw := `[{"title":"Visit","fields":[
		{"id":"f0","friendlyName":"Pulse","type":"number","current":null},
		{"title":"Section","fields":[{"id":"f1","friendlyName":"Note","type":"string","current":null}]}
	]}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &schema))

	require.Len(t, schema[0].Fields, 2)
	assert.NotNil(t, schema[0].Fields[0].Field)
	assert.NotNil(t, schema[0].Fields[1].Group)
	assert.Equal(t, "f1", schema[0].Fields[1].Group.Fields[0].Field.ID)

	var bad FormSchema
	err := json.Unmarshal([]byte(`[{"title":"Visit","fields":[{"friendlyName":"orphan"}]}]`), &bad)
	assert.Error(t, err)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, ScribeStatusCreated.CanTransitionTo(ScribeStatusReady))
	assert.True(t, ScribeStatusReady.CanTransitionTo(ScribeStatusGeneratingTranscript))
	assert.True(t, ScribeStatusGeneratingAIResponse.CanTransitionTo(ScribeStatusCompleted))
	assert.True(t, ScribeStatusGeneratingAIResponse.CanTransitionTo(ScribeStatusRefused))

	// No backward transitions, ever.
	for _, status := range []ScribeStatus{
		ScribeStatusReady, ScribeStatusGeneratingTranscript, ScribeStatusGeneratingAIResponse,
		ScribeStatusCompleted, ScribeStatusRefused, ScribeStatusFailed,
	} {
		assert.False(t, status.CanTransitionTo(ScribeStatusCreated), string(status))
	}

	for _, status := range []ScribeStatus{ScribeStatusCompleted, ScribeStatusRefused, ScribeStatusFailed} {
		assert.True(t, status.IsTerminal(), string(status))
		for _, next := range []ScribeStatus{
			ScribeStatusReady, ScribeStatusGeneratingTranscript, ScribeStatusGeneratingAIResponse, ScribeStatusCompleted,
		} {
			assert.False(t, status.CanTransitionTo(next))
		}
	}
}
