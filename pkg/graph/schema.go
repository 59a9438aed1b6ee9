package graph

import (
	"github.com/cubahno/typegen/internal/types"
)

// Kind is the closed set of schema node variants.
// Every component switches exhaustively over these values.
type Kind string

const (
	KindPrimitive   Kind = "primitive"
	KindObject      Kind = "object"
	KindArray       Kind = "array"
	KindEnum        Kind = "enum"
	KindComposition Kind = "composition"
	KindReference   Kind = "reference"
	KindUnion       Kind = "union"
)

// CompositionKind is the source keyword a composition or union node came from.
type CompositionKind string

const (
	CompositionAllOf CompositionKind = "allOf"
	CompositionOneOf CompositionKind = "oneOf"
	CompositionAnyOf CompositionKind = "anyOf"
)

const (
	TypeArray   = "array"
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeObject  = "object"
	TypeString  = "string"
)

// SchemaNode is one named or anonymous schema unit.
// It is pure data: all behavior lives in the resolver and the synthesizers.
// Nodes are owned by the Graph; everything else holds name-keyed lookups.
type SchemaNode struct {
	Kind        Kind
	Name        string
	Type        string
	Format      string
	Description string
	Nullable    bool

	// Required holds the owning object's required field names.
	Required []string

	// Properties maps field names to their schemas.
	// PropertyOrder keeps a stable field order for deterministic output.
	Properties    map[string]*SchemaNode
	PropertyOrder []string

	// Items is the element schema for array nodes.
	Items *SchemaNode

	// EnumValues is the ordered literal sequence for enum nodes.
	EnumValues []any

	// Members are the ordered sub-schemas of allOf/oneOf/anyOf nodes.
	Members     []*SchemaNode
	Composition CompositionKind

	// Discriminator is the discriminator property name for oneOf/anyOf nodes.
	Discriminator string

	// Ref is the canonical path of the target for reference nodes.
	Ref string

	// AdditionalProps carries the additionalProperties keyword when present.
	AdditionalProps *AdditionalProps

	// Deferred marks a reference returned for a re-entrant cycle.
	// The holder must reference the target by name instead of expanding it.
	Deferred bool
}

// AdditionalProps represents the additionalProperties keyword.
// Schema is nil when the keyword was the literal true.
type AdditionalProps struct {
	Schema  *SchemaNode
	Allowed bool
}

// Property returns the named property schema or nil.
func (n *SchemaNode) Property(name string) *SchemaNode {
	if n == nil || n.Properties == nil {
		return nil
	}
	return n.Properties[name]
}

// SetProperty sets a property and records its position on first insertion.
func (n *SchemaNode) SetProperty(name string, prop *SchemaNode) {
	if n.Properties == nil {
		n.Properties = make(map[string]*SchemaNode)
	}
	if _, ok := n.Properties[name]; !ok {
		n.PropertyOrder = append(n.PropertyOrder, name)
	}
	n.Properties[name] = prop
}

// IsRequired reports whether the field belongs to the node's required set.
func (n *SchemaNode) IsRequired(field string) bool {
	return types.SliceContains(n.Required, field)
}

// FixSchemaTypeTypos fixes common typos in schema types.
func FixSchemaTypeTypos(typ string) string {
	switch typ {
	case "int":
		return TypeInteger
	case "float":
		return TypeNumber
	case "bool":
		return TypeBoolean
	}

	return typ
}
