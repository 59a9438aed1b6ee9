// Package synth turns composition and enum schemas into flattened,
// renderer-ready shapes: allOf members are merged into one object,
// oneOf/anyOf become tagged or untagged unions, enums become ordered
// literal sets.
package synth

import (
	"fmt"

	"github.com/cubahno/typegen/internal/types"
	"github.com/cubahno/typegen/pkg/graph"
	"github.com/cubahno/typegen/pkg/resolver"
)

// Synthesizer merges compositions and builds unions,
// consulting a resolver scope for referenced members.
// Like the scope it wraps, a Synthesizer belongs to one call chain.
type Synthesizer struct {
	resolver *resolver.Scope
}

// New creates a synthesizer backed by the given resolution scope.
func New(scope *resolver.Scope) *Synthesizer {
	return &Synthesizer{resolver: scope}
}

// MergeAllOf flattens the ordered members of an allOf composition into a
// single object schema. Required sets are unioned; properties merge left
// to right. A field introduced by more than one member must resolve to an
// identical shape, otherwise the merge fails.
func (s *Synthesizer) MergeAllOf(name string, node *graph.SchemaNode) (*graph.SchemaNode, error) {
	merged := &graph.SchemaNode{
		Kind:        graph.KindObject,
		Name:        name,
		Type:        graph.TypeObject,
		Description: node.Description,
		Nullable:    node.Nullable,
	}

	for _, member := range node.Members {
		resolved, err := s.resolver.ResolveNode(member)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			continue
		}
		if resolved.Deferred {
			// a member cannot reference the composition it belongs to:
			// there would be no base shape to merge
			return nil, &InvalidCompositionError{
				Schema: name,
				Reason: fmt.Sprintf("member %s is part of a reference cycle", resolved.Ref),
			}
		}

		// nested allOf members flatten recursively
		if resolved.Kind == graph.KindComposition && resolved.Composition == graph.CompositionAllOf {
			resolved, err = s.MergeAllOf(memberName(name, resolved), resolved)
			if err != nil {
				return nil, err
			}
		}

		if resolved.Kind != graph.KindObject {
			return nil, &InvalidCompositionError{
				Schema: name,
				Reason: fmt.Sprintf("member of kind %s is not an object", resolved.Kind),
			}
		}

		for _, field := range resolved.PropertyOrder {
			prop := resolved.Properties[field]
			if existing, ok := merged.Properties[field]; ok {
				same, err := s.sameShape(existing, prop)
				if err != nil {
					return nil, err
				}
				if !same {
					return nil, &CompositionConflictError{Schema: name, Field: field}
				}
				// identical shape: the left-most declaration stays
				continue
			}
			merged.SetProperty(field, prop)
		}

		merged.Required = append(merged.Required, resolved.Required...)
		if merged.AdditionalProps == nil {
			merged.AdditionalProps = resolved.AdditionalProps
		}
	}

	merged.Required = types.SliceUnique(merged.Required)
	return merged, nil
}

// sameShape reports whether two property schemas resolve to a structurally
// identical primitive/format/nullable shape.
func (s *Synthesizer) sameShape(a, b *graph.SchemaNode) (bool, error) {
	ra, err := s.resolver.ResolveNode(a)
	if err != nil {
		return false, err
	}
	rb, err := s.resolver.ResolveNode(b)
	if err != nil {
		return false, err
	}
	if ra == nil || rb == nil {
		return ra == rb, nil
	}

	// cycle markers compare by target name
	if ra.Deferred || rb.Deferred {
		return ra.Deferred == rb.Deferred && ra.Ref == rb.Ref, nil
	}
	// two named schemas are the same shape only if they are the same schema
	if ra.Name != "" || rb.Name != "" {
		return ra.Name == rb.Name, nil
	}

	if ra.Kind != rb.Kind || ra.Type != rb.Type || ra.Format != rb.Format || ra.Nullable != rb.Nullable {
		return false, nil
	}
	if ra.Kind == graph.KindArray {
		return s.sameShape(ra.Items, rb.Items)
	}
	return true, nil
}

func memberName(parent string, member *graph.SchemaNode) string {
	if member.Name != "" {
		return member.Name
	}
	return parent
}
