package synth

import (
	"fmt"

	"github.com/cubahno/typegen/pkg/graph"
)

// Enum is the synthesized shape of an enum schema:
// a deduplicated literal sequence in declaration order.
type Enum struct {
	// Base is the underlying primitive type, "string" unless declared otherwise.
	Base string

	// Values preserves declaration order; order may carry domain meaning.
	Values []any
}

// SynthesizeEnum collapses the declared enum values into a deduplicated
// ordered sequence. Duplicates collapse silently; an empty sequence is a
// contract violation.
func SynthesizeEnum(name string, node *graph.SchemaNode) (*Enum, error) {
	if len(node.EnumValues) == 0 {
		return nil, &EmptyEnumError{Schema: name}
	}

	base := node.Type
	if base == "" {
		base = graph.TypeString
	}

	seen := make(map[string]bool)
	values := make([]any, 0, len(node.EnumValues))
	for _, value := range node.EnumValues {
		key := fmt.Sprintf("%T:%v", value, value)
		if seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, value)
	}

	return &Enum{Base: base, Values: values}, nil
}
