package graph

import "strings"

// CanonicalPrefix is the canonical component path prefix for named schemas.
const CanonicalPrefix = "#/components/schemas/"

// Graph is the process-scoped registry of all named schema nodes,
// keyed by canonical path. It is built once per generation run,
// never mutated afterwards, and discarded after emission.
type Graph struct {
	names []string
	nodes map[string]*SchemaNode
}

// NewGraph creates an empty schema graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*SchemaNode),
	}
}

// Add registers a top-level named schema under its canonical path.
// Re-adding a name overwrites the node but keeps its original position.
func (g *Graph) Add(name string, node *SchemaNode) {
	path := CanonicalPath(name)
	if _, ok := g.nodes[path]; !ok {
		g.names = append(g.names, name)
	}
	if node != nil {
		node.Name = name
	}
	g.nodes[path] = node
}

// Get looks up a node by canonical path or bare schema name.
func (g *Graph) Get(path string) (*SchemaNode, bool) {
	node, ok := g.nodes[CanonicalPath(NameFromRef(path))]
	return node, ok
}

// Names returns the schema names in registration order.
func (g *Graph) Names() []string {
	res := make([]string, len(g.names))
	copy(res, g.names)
	return res
}

// Len returns the number of registered schemas.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// CanonicalPath returns the canonical component path for a schema name.
func CanonicalPath(name string) string {
	if strings.HasPrefix(name, CanonicalPrefix) {
		return name
	}
	return CanonicalPrefix + name
}

// NameFromRef extracts the schema name from a $ref or canonical path.
func NameFromRef(ref string) string {
	if idx := strings.LastIndex(ref, "/"); idx != -1 {
		return ref[idx+1:]
	}
	return ref
}
