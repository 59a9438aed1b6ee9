package synth

import (
	"fmt"
	"sort"

	"github.com/cubahno/typegen/internal/types"
	"github.com/cubahno/typegen/pkg/graph"
)

// UnionVariant is one resolved member of a union.
type UnionVariant struct {
	// Name is the target schema name for named members, empty for inline ones.
	Name string

	// Tag is the member's discriminator literal. Empty in untagged unions.
	Tag string

	// Node is the resolved member schema. Deferred markers stay as-is.
	Node *graph.SchemaNode

	// Signature is the member's sorted required-field set, enough for an
	// external renderer to emit a structural runtime check.
	Signature []string
}

// Union is the synthesized shape of a oneOf/anyOf schema.
// anyOf is treated identically to oneOf: both mean "is at least one of".
type Union struct {
	Tagged   bool
	TagField string
	Variants []UnionVariant
}

// Union resolves the members of a oneOf/anyOf node and synthesizes a
// tagged union when a discriminator is declared and every member exposes
// it as a single-literal string property. A member without a resolvable
// tag degrades the whole union to untagged with a warning.
func (s *Synthesizer) Union(name string, node *graph.SchemaNode) (*Union, []Warning, error) {
	u := &Union{TagField: node.Discriminator}
	var warnings []Warning

	for _, member := range node.Members {
		resolved, err := s.resolver.ResolveNode(member)
		if err != nil {
			return nil, nil, err
		}
		if resolved == nil {
			continue
		}

		variant := UnionVariant{
			Name: resolved.Name,
			Node: resolved,
		}
		if !resolved.Deferred {
			variant.Signature = types.SliceUnique(resolved.Required)
			sort.Strings(variant.Signature)
		}
		u.Variants = append(u.Variants, variant)
	}

	if node.Discriminator == "" {
		return u, warnings, nil
	}

	tags, ok := s.discriminatorTags(node.Discriminator, u.Variants)
	if !ok {
		warnings = append(warnings, Warning{
			Code:   WarnAmbiguousDiscriminator,
			Schema: name,
			Field:  node.Discriminator,
			Detail: "a member lacks a single-literal discriminator value, union degraded to untagged",
		})
		u.TagField = ""
		return u, warnings, nil
	}

	u.Tagged = true
	for i := range u.Variants {
		u.Variants[i].Tag = tags[i]
	}
	return u, warnings, nil
}

// discriminatorTags extracts the literal tag value of every variant.
// All members must be objects exposing the discriminator field as a
// single-valued string enum, and the literals must be distinct.
func (s *Synthesizer) discriminatorTags(field string, variants []UnionVariant) ([]string, bool) {
	tags := make([]string, len(variants))
	seen := make(map[string]bool)

	for i, variant := range variants {
		node := variant.Node
		if node.Deferred || node.Kind != graph.KindObject {
			return nil, false
		}

		prop, err := s.resolver.ResolveNode(node.Property(field))
		if err != nil || prop == nil {
			return nil, false
		}
		if prop.Kind != graph.KindEnum || len(types.SliceUnique(prop.EnumValues)) != 1 {
			return nil, false
		}

		literal, ok := prop.EnumValues[0].(string)
		if !ok {
			literal = fmt.Sprintf("%v", prop.EnumValues[0])
		}
		if seen[literal] {
			return nil, false
		}
		seen[literal] = true
		tags[i] = literal
	}

	return tags, true
}
