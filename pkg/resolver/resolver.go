// Package resolver resolves $ref pointers against the schema graph.
//
// Resolution is memoized and cycle-safe: when a path is re-entered while
// still being resolved on the active call chain, the resolver hands back a
// deferred reference marker instead of recursing. Callers must treat the
// marker as "reference by name now, resolve later".
package resolver

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cubahno/typegen/pkg/graph"
)

// ErrUnresolvedReference is returned when a $ref points to a name
// absent from the schema graph.
var ErrUnresolvedReference = errors.New("unresolved reference")

// UnresolvedReferenceError carries the canonical path that failed to resolve.
type UnresolvedReferenceError struct {
	Path string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference: %s", e.Path)
}

func (e *UnresolvedReferenceError) Unwrap() error {
	return ErrUnresolvedReference
}

// Resolver resolves canonical paths to schema nodes.
// It is read-only with respect to the graph, and its memoization cache is
// safe for concurrent use: the first resolver of a path writes the entry,
// concurrent resolvers redundantly compute and agree. The cache lives for
// a single generation run.
type Resolver struct {
	graph *graph.Graph

	mu    sync.Mutex
	cache map[string]*graph.SchemaNode
}

// New creates a resolver for the given graph.
func New(g *graph.Graph) *Resolver {
	return &Resolver{
		graph: g,
		cache: make(map[string]*graph.SchemaNode),
	}
}

// Resolve resolves a canonical path (or bare schema name) on a fresh scope.
func (r *Resolver) Resolve(path string) (*graph.SchemaNode, error) {
	return r.NewScope().Resolve(path)
}

// NewScope starts a resolution scope with an empty in-progress set.
// A scope tracks the paths being resolved on one call chain and is not
// safe for concurrent use; each worker takes its own.
func (r *Resolver) NewScope() *Scope {
	return &Scope{
		resolver:  r,
		expanding: make(map[string]bool),
	}
}

func (r *Resolver) cached(path string) (*graph.SchemaNode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.cache[path]
	return node, ok
}

func (r *Resolver) memoize(path string, node *graph.SchemaNode) {
	r.mu.Lock()
	// single writer per key: the first resolution wins, later ones agree
	if _, ok := r.cache[path]; !ok {
		r.cache[path] = node
	}
	r.mu.Unlock()
}

// Scope is a resolution call chain. Re-entering a path that is in progress
// on the same scope yields a deferred marker, converting structural
// recursion into a name-based back-edge.
type Scope struct {
	resolver  *Resolver
	expanding map[string]bool
}

// Resolve resolves a canonical path (or bare schema name) to its node,
// following reference chains to the final target. Resolving the same path
// twice yields identical results.
func (s *Scope) Resolve(path string) (*graph.SchemaNode, error) {
	canonical := graph.CanonicalPath(graph.NameFromRef(path))

	// the in-progress check comes first: a cached node must not shadow
	// an active cycle on this call chain
	if s.expanding[canonical] {
		return deferredNode(canonical), nil
	}
	if node, ok := s.resolver.cached(canonical); ok {
		return node, nil
	}

	s.expanding[canonical] = true
	defer delete(s.expanding, canonical)

	node, ok := s.resolver.graph.Get(canonical)
	if !ok || node == nil {
		return nil, &UnresolvedReferenceError{Path: canonical}
	}

	if node.Kind == graph.KindReference {
		target, err := s.Resolve(node.Ref)
		if err != nil {
			return nil, err
		}
		// deferred results are transient, do not memoize them
		if !target.Deferred {
			s.resolver.memoize(canonical, target)
		}
		return target, nil
	}

	s.resolver.memoize(canonical, node)
	return node, nil
}

// ResolveNode resolves reference nodes to their targets and
// returns non-reference nodes unchanged.
func (s *Scope) ResolveNode(node *graph.SchemaNode) (*graph.SchemaNode, error) {
	if node == nil || node.Kind != graph.KindReference || node.Deferred {
		return node, nil
	}
	return s.Resolve(node.Ref)
}

// Begin marks a named schema as in progress for the whole scope, so any
// resolution of the same name during its synthesis returns a deferred
// marker. It returns false if the name is already in progress.
func (s *Scope) Begin(name string) bool {
	canonical := graph.CanonicalPath(name)
	if s.expanding[canonical] {
		return false
	}
	s.expanding[canonical] = true
	return true
}

// End clears the in-progress mark set by Begin.
func (s *Scope) End(name string) {
	delete(s.expanding, graph.CanonicalPath(name))
}

func deferredNode(path string) *graph.SchemaNode {
	return &graph.SchemaNode{
		Kind:     graph.KindReference,
		Name:     graph.NameFromRef(path),
		Ref:      path,
		Deferred: true,
	}
}
