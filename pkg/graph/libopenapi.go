package graph

import (
	"errors"
	"log/slog"
	"os"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3high "github.com/pb33f/libopenapi/datamodel/high/v3"

	"github.com/cubahno/typegen/internal/types"
)

// NewLibGraphFromFile builds a schema graph from a spec file using libopenapi.
func NewLibGraphFromFile(filePath string) (*Graph, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return NewLibGraphFromData(src)
}

// NewLibGraphFromData builds a schema graph from raw spec bytes using libopenapi.
func NewLibGraphFromData(data []byte) (*Graph, error) {
	doc, err := libopenapi.NewDocument(data)
	if err != nil {
		return nil, err
	}
	model, errs := doc.BuildV3Model()
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return NewGraphFromLibDocument(model), nil
}

// NewGraphFromLibDocument converts the components/schemas of a parsed
// libopenapi v3 model into a schema graph.
func NewGraphFromLibDocument(model *libopenapi.DocumentModel[v3high.Document]) *Graph {
	g := NewGraph()
	if model == nil || model.Model.Components == nil {
		return g
	}

	schemas := model.Model.Components.Schemas
	for _, name := range types.SortedMapKeys(schemas) {
		g.Add(name, newNodeFromLib(schemas[name]))
	}
	return g
}

func newNodeFromLib(proxy *base.SchemaProxy) *SchemaNode {
	if proxy == nil {
		return nil
	}
	if ref := proxy.GetReference(); ref != "" {
		return &SchemaNode{
			Kind: KindReference,
			Ref:  CanonicalPath(NameFromRef(ref)),
		}
	}

	schema := proxy.Schema()
	if schema == nil {
		return nil
	}

	if schema.Not != nil {
		slog.Debug("ignoring unsupported keyword", "keyword", "not")
	}

	typ := ""
	if len(schema.Type) > 0 {
		typ = schema.Type[0]
	}

	node := &SchemaNode{
		Type:        FixSchemaTypeTypos(typ),
		Format:      schema.Format,
		Description: schema.Description,
		Nullable:    types.RemovePointer(schema.Nullable),
		Required:    types.SliceUnique(schema.Required),
	}

	switch {
	case len(schema.AllOf) > 0:
		node.Kind = KindComposition
		node.Composition = CompositionAllOf
		node.Members = libMembers(schema.AllOf)
		if len(schema.Properties) > 0 {
			own := &SchemaNode{Kind: KindObject, Type: TypeObject, Required: node.Required}
			fillLibProperties(own, schema)
			node.Members = append([]*SchemaNode{own}, node.Members...)
		}

	case len(schema.OneOf) > 0:
		node.Kind = KindUnion
		node.Composition = CompositionOneOf
		node.Members = libMembers(schema.OneOf)
		if schema.Discriminator != nil {
			node.Discriminator = schema.Discriminator.PropertyName
		}

	case len(schema.AnyOf) > 0:
		node.Kind = KindUnion
		node.Composition = CompositionAnyOf
		node.Members = libMembers(schema.AnyOf)
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
		if schema.Items != nil && schema.Items.IsA() {
			node.Items = newNodeFromLib(schema.Items.A)
		}
		if node.Items == nil {
			node.Items = &SchemaNode{Kind: KindPrimitive, Type: TypeString}
		}

	case node.Type == TypeObject, node.Type == "":
		node.Kind = KindObject
		node.Type = TypeObject
		fillLibProperties(node, schema)
		node.AdditionalProps = libAdditionalProps(schema.AdditionalProperties)

	default:
		node.Kind = KindPrimitive
	}

	return node
}

func libMembers(proxies []*base.SchemaProxy) []*SchemaNode {
	members := make([]*SchemaNode, 0, len(proxies))
	for _, proxy := range proxies {
		if member := newNodeFromLib(proxy); member != nil {
			members = append(members, member)
		}
	}
	return members
}

func fillLibProperties(node *SchemaNode, schema *base.Schema) {
	// the parser exposes properties as an unordered map, so sorted is the
	// only stable order available
	for _, propName := range types.SortedMapKeys(schema.Properties) {
		if prop := newNodeFromLib(schema.Properties[propName]); prop != nil {
			node.SetProperty(propName, prop)
		}
	}
}

// libAdditionalProps normalizes the additionalProperties keyword,
// which libopenapi exposes as either a bool or a schema proxy.
func libAdditionalProps(source any) *AdditionalProps {
	if source == nil {
		return nil
	}

	switch v := source.(type) {
	case bool:
		if !v {
			return nil
		}
		return &AdditionalProps{Allowed: true}
	case *base.SchemaProxy:
		return &AdditionalProps{
			Schema:  newNodeFromLib(v),
			Allowed: true,
		}
	}

	return nil
}
