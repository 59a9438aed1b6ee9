// Package presence computes the four-state field presence model:
// whether a field's key may be absent and whether its value may be null.
package presence

import (
	"encoding/json"

	"github.com/cubahno/typegen/pkg/graph"
)

// State is one of the four presence states of an object field.
type State uint8

const (
	// Mandatory: key must be present, value must not be null.
	Mandatory State = iota
	// MandatoryNullable: key must be present, value may be null.
	MandatoryNullable
	// Optional: key may be absent; if present, value must not be null.
	Optional
	// OptionalNullable: key may be absent; if present, value may be null.
	OptionalNullable
)

// Of maps the two independent booleans to a presence state.
// It is pure: the same inputs always produce the same state.
func Of(required, nullable bool) State {
	switch {
	case required && !nullable:
		return Mandatory
	case required && nullable:
		return MandatoryNullable
	case !required && !nullable:
		return Optional
	default:
		return OptionalNullable
	}
}

// ForProperty computes the presence state of a field from the owning
// object's required set and the property's own nullable flag.
// Nullability is never inherited through references.
func ForProperty(owner *graph.SchemaNode, field string) State {
	prop := owner.Property(field)
	nullable := prop != nil && prop.Nullable
	return Of(owner.IsRequired(field), nullable)
}

// Required reports whether the key must be present.
func (s State) Required() bool {
	return s == Mandatory || s == MandatoryNullable
}

// Nullable reports whether the value may be null.
func (s State) Nullable() bool {
	return s == MandatoryNullable || s == OptionalNullable
}

func (s State) String() string {
	switch s {
	case Mandatory:
		return "mandatory"
	case MandatoryNullable:
		return "mandatory-nullable"
	case Optional:
		return "optional"
	case OptionalNullable:
		return "optional-nullable"
	}
	return "unknown"
}

// MarshalJSON renders the state as its string name for external renderers.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
