package graph

import (
	"log/slog"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/cubahno/typegen/internal/types"
)

// NewKinGraphFromFile builds a schema graph from a spec file using kin-openapi.
func NewKinGraphFromFile(filePath string) (*Graph, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(filePath)
	if err != nil {
		return nil, err
	}
	return NewGraphFromKinDocument(doc), nil
}

// NewKinGraphFromData builds a schema graph from raw spec bytes using kin-openapi.
func NewKinGraphFromData(data []byte) (*Graph, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, err
	}
	return NewGraphFromKinDocument(doc), nil
}

// NewGraphFromKinDocument converts the components/schemas of a parsed
// kin-openapi document into a schema graph.
// References are kept as reference nodes and never expanded inline,
// so cyclic documents produce a finite graph.
func NewGraphFromKinDocument(doc *openapi3.T) *Graph {
	g := NewGraph()
	if doc == nil {
		return g
	}

	for _, name := range types.SortedMapKeys(doc.Components.Schemas) {
		g.Add(name, newNodeFromKin(doc.Components.Schemas[name]))
	}
	return g
}

func newNodeFromKin(ref *openapi3.SchemaRef) *SchemaNode {
	if ref == nil {
		return nil
	}
	if ref.Ref != "" {
		return &SchemaNode{
			Kind: KindReference,
			Ref:  CanonicalPath(NameFromRef(ref.Ref)),
		}
	}

	schema := ref.Value
	if schema == nil {
		return nil
	}

	if schema.Not != nil {
		slog.Debug("ignoring unsupported keyword", "keyword", "not")
	}

	node := &SchemaNode{
		Type:        FixSchemaTypeTypos(schema.Type),
		Format:      schema.Format,
		Description: schema.Description,
		Nullable:    schema.Nullable,
		Required:    types.SliceUnique(schema.Required),
	}

	switch {
	case len(schema.AllOf) > 0:
		node.Kind = KindComposition
		node.Composition = CompositionAllOf
		node.Members = kinMembers(schema.AllOf)
		// inline properties participate in the merge as a leading member
		if len(schema.Properties) > 0 {
			own := &SchemaNode{Kind: KindObject, Type: TypeObject, Required: node.Required}
			fillKinProperties(own, schema)
			node.Members = append([]*SchemaNode{own}, node.Members...)
		}

	case len(schema.OneOf) > 0:
		node.Kind = KindUnion
		node.Composition = CompositionOneOf
		node.Members = kinMembers(schema.OneOf)
		if schema.Discriminator != nil {
			node.Discriminator = schema.Discriminator.PropertyName
		}

	case len(schema.AnyOf) > 0:
		node.Kind = KindUnion
		node.Composition = CompositionAnyOf
		node.Members = kinMembers(schema.AnyOf)
		if schema.Discriminator != nil {
			node.Discriminator = schema.Discriminator.PropertyName
		}

	case schema.Enum != nil:
		node.Kind = KindEnum
		node.EnumValues = schema.Enum
		if node.Type == "" {
			node.Type = TypeString
		}

	case node.Type == TypeArray:
		node.Kind = KindArray
		node.Items = newNodeFromKin(schema.Items)
		if node.Items == nil {
			// unspecified items could be anything, assume string
			node.Items = &SchemaNode{Kind: KindPrimitive, Type: TypeString}
		}

	case node.Type == TypeObject, node.Type == "":
		node.Kind = KindObject
		node.Type = TypeObject
		fillKinProperties(node, schema)
		node.AdditionalProps = kinAdditionalProps(schema.AdditionalProperties)

	default:
		node.Kind = KindPrimitive
	}

	return node
}

func kinMembers(refs openapi3.SchemaRefs) []*SchemaNode {
	members := make([]*SchemaNode, 0, len(refs))
	for _, ref := range refs {
		if member := newNodeFromKin(ref); member != nil {
			members = append(members, member)
		}
	}
	return members
}

func fillKinProperties(node *SchemaNode, schema *openapi3.Schema) {
	// the parser exposes properties as an unordered map, so sorted is the
	// only stable order available
	for _, propName := range types.SortedMapKeys(schema.Properties) {
		if prop := newNodeFromKin(schema.Properties[propName]); prop != nil {
			node.SetProperty(propName, prop)
		}
	}
}

func kinAdditionalProps(source openapi3.AdditionalProperties) *AdditionalProps {
	if source.Schema != nil && (source.Schema.Ref != "" || source.Schema.Value != nil) {
		return &AdditionalProps{
			Schema:  newNodeFromKin(source.Schema),
			Allowed: true,
		}
	}
	if types.RemovePointer(source.Has) {
		// additionalProperties: true
		return &AdditionalProps{Allowed: true}
	}
	return nil
}
