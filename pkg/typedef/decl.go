// Package typedef assembles the resolved type model into an ordered,
// acyclic-safe list of type declarations consumable by an external
// renderer. Declarations reference each other only by name; cycles are
// broken at the output boundary with deferred edges.
package typedef

import (
	"github.com/cubahno/typegen/pkg/graph"
	"github.com/cubahno/typegen/pkg/presence"
	"github.com/cubahno/typegen/pkg/synth"
)

// Shape is the structural type of a field, alias, variant or map value.
// Reference shapes carry the target declaration name, never the target
// structure: inline expansion stops at every named schema.
type Shape struct {
	Kind     graph.Kind `json:"kind"`
	Type     string     `json:"type,omitempty"`
	Format   string     `json:"format,omitempty"`
	Nullable bool       `json:"nullable,omitempty"`

	// Ref is the target declaration name for reference shapes.
	// Deferred marks a cycle-broken edge: the renderer must emit a
	// forward or self reference instead of expecting a prior declaration.
	Ref      string `json:"ref,omitempty"`
	Deferred bool   `json:"deferred,omitempty"`

	// Items is the element shape for arrays.
	Items *Shape `json:"items,omitempty"`

	// MapValues is the value shape of an additionalProperties mapping.
	MapValues *Shape `json:"mapValues,omitempty"`

	// Fields are the fields of an inline (anonymous) object.
	Fields []Field `json:"fields,omitempty"`

	// EnumValues is the literal set of an inline enum.
	EnumValues []any `json:"enumValues,omitempty"`

	// Tagged, TagField and Variants describe an inline union.
	Tagged   bool      `json:"tagged,omitempty"`
	TagField string    `json:"tagField,omitempty"`
	Variants []Variant `json:"variants,omitempty"`
}

// Field is one object field with its presence state.
type Field struct {
	Name        string         `json:"name"`
	Presence    presence.State `json:"presence"`
	Shape       Shape          `json:"shape"`
	Description string         `json:"description,omitempty"`
}

// Variant is one union member.
type Variant struct {
	// Tag is the discriminator literal keying this variant in tagged unions.
	Tag string `json:"tag,omitempty"`

	Shape Shape `json:"shape"`

	// Signature is the member's sorted required-field set, enough for a
	// renderer to emit a runtime-checkable structural predicate.
	Signature []string `json:"signature,omitempty"`
}

// TypeDecl is one named type declaration: the engine's output unit.
type TypeDecl struct {
	Name        string     `json:"name"`
	SchemaName  string     `json:"schemaName"`
	Kind        graph.Kind `json:"kind"`
	Description string     `json:"description,omitempty"`

	// Fields are set for object declarations.
	Fields []Field `json:"fields,omitempty"`

	// MapValues is the value shape of an additionalProperties mapping.
	MapValues *Shape `json:"mapValues,omitempty"`

	// Tagged, TagField and Variants are set for union declarations.
	Tagged   bool      `json:"tagged,omitempty"`
	TagField string    `json:"tagField,omitempty"`
	Variants []Variant `json:"variants,omitempty"`

	// EnumBase and EnumValues are set for enum declarations.
	EnumBase   string `json:"enumBase,omitempty"`
	EnumValues []any  `json:"enumValues,omitempty"`

	// Alias is set for primitive, array and pure-reference declarations.
	Alias *Shape `json:"alias,omitempty"`

	// Warnings are the recoverable degradations hit while building the decl.
	Warnings []synth.Warning `json:"warnings,omitempty"`

	// refs holds outgoing schema names for ordering and failure propagation.
	refs []string
}

// References returns the schema names this declaration points at.
func (d *TypeDecl) References() []string {
	res := make([]string, len(d.refs))
	copy(res, d.refs)
	return res
}

// Result is the emitter's output: ordered declarations plus the schemas
// that could not be emitted, each with its structural error.
type Result struct {
	Decls  []TypeDecl       `json:"decls"`
	Failed map[string]error `json:"-"`
}

// Warnings collects all declaration warnings in emission order.
func (r *Result) Warnings() []synth.Warning {
	var res []synth.Warning
	for _, decl := range r.Decls {
		res = append(res, decl.Warnings...)
	}
	return res
}
