package models

import (
	"fmt"

	"github.com/goccy/go-json"
)

// FormSchema is the ordered questionnaire tree attached to a Scribe. The wire
// shape is validated once here, at ingestion; everything downstream can assume
// a well-formed tree.
type FormSchema []Questionnaire

type Questionnaire struct {
	Title       string      `json:"title" bson:"title"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Fields      []FieldNode `json:"fields" bson:"fields"`
}

// FieldNode is a tagged union: exactly one of Group or Field is set. On the
// wire a node with a "fields" member is a group, anything else must carry an
// "id" and is a leaf field.
type FieldNode struct {
	Group *Group `json:"-" bson:"group,omitempty"`
	Field *Field `json:"-" bson:"field,omitempty"`
}

type Group struct {
	Title       string      `json:"title" bson:"title"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Fields      []FieldNode `json:"fields" bson:"fields"`
}

type Field struct {
	ID             string                 `json:"id" bson:"id"`
	FriendlyName   string                 `json:"friendlyName" bson:"friendlyName"`
	Type           string                 `json:"type" bson:"type"`
	Current        interface{}            `json:"current" bson:"current,omitempty"`
	StructuredType string                 `json:"structuredType,omitempty" bson:"structuredType,omitempty"`
	Repeats        bool                   `json:"repeats,omitempty" bson:"repeats,omitempty"`
	Schema         map[string]interface{} `json:"schema,omitempty" bson:"schema,omitempty"`
	Options        []FieldOption          `json:"options,omitempty" bson:"options,omitempty"`
}

type FieldOption struct {
	ID   interface{} `json:"id" bson:"id"`
	Text string      `json:"text" bson:"text"`
}

func (n FieldNode) MarshalJSON() ([]byte, error) {
	if n.Group != nil {
		return json.Marshal(n.Group)
	}
	return json.Marshal(n.Field)
}

func (n *FieldNode) UnmarshalJSON(data []byte) error {
	var probe struct {
		Fields json.RawMessage `json:"fields"`
		ID     *string         `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if probe.Fields != nil {
		group := new(Group)
		if err := json.Unmarshal(data, group); err != nil {
			return err
		}
		n.Group = group
		return nil
	}

	if probe.ID == nil {
		return fmt.Errorf("form node is neither a group nor a field")
	}
	field := new(Field)
	if err := json.Unmarshal(data, field); err != nil {
		return err
	}
	n.Field = field
	return nil
}

// CountFields sums leaf fields; a group counts as the sum of its descendants,
// never as one.
func (n FieldNode) CountFields() int {
	if n.Field != nil {
		return 1
	}
	return countFields(n.Group.Fields)
}

func countFields(nodes []FieldNode) int {
	total := 0
	for _, node := range nodes {
		total += node.CountFields()
	}
	return total
}

func (s FormSchema) CountFields() int {
	total := 0
	for _, qn := range s {
		total += countFields(qn.Fields)
	}
	return total
}

// LeafFields returns all leaf fields in document order. The order is the
// anonymization order: field i maps to extraction property "qi".
func (s FormSchema) LeafFields() []Field {
	var leaves []Field
	for _, qn := range s {
		leaves = appendLeaves(leaves, qn.Fields)
	}
	return leaves
}

func appendLeaves(leaves []Field, nodes []FieldNode) []Field {
	for _, node := range nodes {
		if node.Field != nil {
			leaves = append(leaves, *node.Field)
			continue
		}
		leaves = appendLeaves(leaves, node.Group.Fields)
	}
	return leaves
}

// Validate enforces the schema invariants: leaf field ids must be unique and
// non-empty across the whole tree.
func (s FormSchema) Validate() error {
	seen := make(map[string]struct{})
	for _, field := range s.LeafFields() {
		if field.ID == "" {
			return fmt.Errorf("form field %q has an empty id", field.FriendlyName)
		}
		if _, dup := seen[field.ID]; dup {
			return fmt.Errorf("duplicate form field id %q", field.ID)
		}
		seen[field.ID] = struct{}{}
	}
	return nil
}

// Chunk splits the schema into fragments of at most maxFields leaf fields,
// preserving questionnaire and group order. A group whose fields straddle a
// fragment boundary is duplicated as one shell per fragment, each shell
// carrying its own partial field subset. Leaf fields are atomic. The packing
// is greedy and order-preserving, so identical input always yields identical
// fragment boundaries.
func (s FormSchema) Chunk(maxFields int) []FormSchema {
	if maxFields <= 0 {
		return []FormSchema{s}
	}
	var fragments []FormSchema
	for _, qn := range s {
		for _, part := range splitFields(qn.Fields, maxFields) {
			fragments = append(fragments, FormSchema{{
				Title:       qn.Title,
				Description: qn.Description,
				Fields:      part,
			}})
		}
	}
	return fragments
}

func splitFields(nodes []FieldNode, maxFields int) [][]FieldNode {
	var chunks [][]FieldNode
	var current []FieldNode
	count := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
			count = 0
		}
	}

	for _, node := range nodes {
		if node.Field != nil {
			if count+1 > maxFields {
				flush()
			}
			current = append(current, node)
			count++
			continue
		}

		for _, sub := range splitFields(node.Group.Fields, maxFields) {
			subCount := countFields(sub)
			if count+subCount > maxFields {
				flush()
			}
			shell := FieldNode{Group: &Group{
				Title:       node.Group.Title,
				Description: node.Group.Description,
				Fields:      sub,
			}}
			current = append(current, shell)
			count += subCount
			if count >= maxFields {
				flush()
			}
		}
	}
	flush()
	return chunks
}
