package typedef

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/iancoleman/strcase"

	"github.com/cubahno/typegen/internal/types"
	"github.com/cubahno/typegen/pkg/graph"
	"github.com/cubahno/typegen/pkg/presence"
	"github.com/cubahno/typegen/pkg/resolver"
	"github.com/cubahno/typegen/pkg/synth"
)

// Emitter turns a schema graph into an ordered declaration list.
// Emission is deterministic: the same graph produces the same output
// order and shape on every run.
type Emitter struct {
	graph    *graph.Graph
	resolver *resolver.Resolver

	// declNames maps schema names to exported declaration names,
	// assigned once so collisions resolve the same way everywhere.
	declNames map[string]string
}

// NewEmitter creates an emitter for the given graph.
func NewEmitter(g *graph.Graph) *Emitter {
	e := &Emitter{
		graph:    g,
		resolver: resolver.New(g),
	}
	e.assignDeclNames()
	return e
}

// Emit builds every top-level named schema into a TypeDecl,
// isolates failures to each schema's dependent closure, and returns the
// declarations in topological order with cycle-broken edges marked deferred.
func (e *Emitter) Emit() *Result {
	names := e.graph.Names()
	built := make(map[string]*TypeDecl, len(names))
	failed := make(map[string]error)

	for _, name := range names {
		decl, err := e.buildDecl(name)
		if err != nil {
			slog.Warn("schema failed", "schema", name, "error", err)
			failed[name] = err
			continue
		}
		built[name] = decl
	}

	return e.finish(names, built, failed)
}

// EmitParallel is Emit with per-schema builds fanned out over workers.
// Safe because resolution and synthesis are read-only over the graph and
// the resolver cache is single-writer-per-key. The output is identical
// to Emit.
func (e *Emitter) EmitParallel(concurrency int) *Result {
	if concurrency <= 1 {
		return e.Emit()
	}

	names := e.graph.Names()
	decls := make([]*TypeDecl, len(names))
	errs := make([]error, len(names))

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)
	for i, name := range names {
		// acquire before spawning so at most concurrency goroutines exist
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			defer func() { <-sem }()
			decls[i], errs[i] = e.buildDecl(name)
		}(i, name)
	}
	wg.Wait()

	built := make(map[string]*TypeDecl, len(names))
	failed := make(map[string]error)
	for i, name := range names {
		if errs[i] != nil {
			slog.Warn("schema failed", "schema", name, "error", errs[i])
			failed[name] = errs[i]
			continue
		}
		built[name] = decls[i]
	}

	return e.finish(names, built, failed)
}

func (e *Emitter) finish(names []string, built map[string]*TypeDecl, failed map[string]error) *Result {
	e.poisonDependents(names, built, failed)
	ordered := e.order(names, built)
	e.markDeferred(ordered)

	decls := make([]TypeDecl, len(ordered))
	for i, decl := range ordered {
		decls[i] = *decl
	}
	return &Result{Decls: decls, Failed: failed}
}

// buildDecl builds one named schema on its own resolution scope.
// The schema name is held in progress for the whole build so that any
// self-reference comes back as a deferred marker.
func (e *Emitter) buildDecl(name string) (*TypeDecl, error) {
	node, ok := e.graph.Get(name)
	if !ok || node == nil {
		return nil, &resolver.UnresolvedReferenceError{Path: graph.CanonicalPath(name)}
	}

	scope := e.resolver.NewScope()
	syn := synth.New(scope)
	if scope.Begin(name) {
		defer scope.End(name)
	}

	decl := &TypeDecl{
		Name:        e.declNames[name],
		SchemaName:  name,
		Description: node.Description,
	}

	switch node.Kind {
	case graph.KindReference:
		target, err := scope.Resolve(node.Ref)
		if err != nil {
			return nil, err
		}
		decl.Kind = graph.KindReference
		ref := e.refShape(decl, node.Ref, target.Deferred)
		decl.Alias = &ref

	case graph.KindEnum:
		en, err := synth.SynthesizeEnum(name, node)
		if err != nil {
			return nil, err
		}
		decl.Kind = graph.KindEnum
		decl.EnumBase = en.Base
		decl.EnumValues = en.Values

	case graph.KindComposition:
		merged, err := syn.MergeAllOf(name, node)
		if err != nil {
			return nil, err
		}
		decl.Kind = graph.KindObject
		if err := e.fillObject(decl, scope, syn, name, merged); err != nil {
			return nil, err
		}

	case graph.KindUnion:
		if err := e.fillUnion(decl, scope, syn, name, node); err != nil {
			return nil, err
		}

	case graph.KindObject:
		decl.Kind = graph.KindObject
		if err := e.fillObject(decl, scope, syn, name, node); err != nil {
			return nil, err
		}

	case graph.KindArray, graph.KindPrimitive:
		shape, err := e.shapeOf(decl, scope, syn, name, "", node)
		if err != nil {
			return nil, err
		}
		decl.Kind = node.Kind
		decl.Alias = &shape
	}

	decl.refs = types.SliceUnique(decl.refs)
	return decl, nil
}

func (e *Emitter) fillObject(decl *TypeDecl, scope *resolver.Scope, syn *synth.Synthesizer, name string, node *graph.SchemaNode) error {
	for _, field := range node.PropertyOrder {
		prop := node.Properties[field]
		shape, err := e.shapeOf(decl, scope, syn, name, field, prop)
		if err != nil {
			return err
		}
		decl.Fields = append(decl.Fields, Field{
			Name:        field,
			Presence:    presence.ForProperty(node, field),
			Shape:       shape,
			Description: propDescription(prop),
		})
	}

	mapValues, err := e.mapValuesShape(decl, scope, syn, name, node.AdditionalProps)
	if err != nil {
		return err
	}
	decl.MapValues = mapValues
	return nil
}

func (e *Emitter) fillUnion(decl *TypeDecl, scope *resolver.Scope, syn *synth.Synthesizer, name string, node *graph.SchemaNode) error {
	u, warnings, err := syn.Union(name, node)
	if err != nil {
		return err
	}

	decl.Kind = graph.KindUnion
	decl.Tagged = u.Tagged
	decl.TagField = u.TagField
	decl.Warnings = append(decl.Warnings, warnings...)

	for _, uv := range u.Variants {
		var shape Shape
		switch {
		case uv.Node.Deferred:
			shape = e.refShape(decl, uv.Node.Ref, true)
		case uv.Name != "":
			shape = e.refShape(decl, uv.Name, false)
		default:
			shape, err = e.shapeOf(decl, scope, syn, name, "", uv.Node)
			if err != nil {
				return err
			}
		}
		decl.Variants = append(decl.Variants, Variant{
			Tag:       uv.Tag,
			Shape:     shape,
			Signature: uv.Signature,
		})
	}
	return nil
}

// shapeOf computes the structural shape of a property or element schema.
// References become name-keyed shapes and record an ordering edge;
// anonymous sub-schemas are expanded inline.
func (e *Emitter) shapeOf(decl *TypeDecl, scope *resolver.Scope, syn *synth.Synthesizer, schema, field string, node *graph.SchemaNode) (Shape, error) {
	if node == nil {
		return Shape{Kind: graph.KindPrimitive, Type: graph.TypeString}, nil
	}

	switch node.Kind {
	case graph.KindReference:
		if node.Deferred {
			return e.refShape(decl, node.Ref, true), nil
		}
		if _, err := scope.Resolve(node.Ref); err != nil {
			return Shape{}, err
		}
		return e.refShape(decl, node.Ref, false), nil

	case graph.KindPrimitive:
		format := node.Format
		if !graph.IsKnownFormat(format) {
			decl.Warnings = append(decl.Warnings, synth.Warning{
				Code:   synth.WarnUnknownFormat,
				Schema: schema,
				Field:  field,
				Detail: fmt.Sprintf("format %q, falling back to %s", format, node.Type),
			})
			format = ""
		}
		return Shape{
			Kind:     graph.KindPrimitive,
			Type:     node.Type,
			Format:   format,
			Nullable: node.Nullable,
		}, nil

	case graph.KindEnum:
		en, err := synth.SynthesizeEnum(enumName(schema, field), node)
		if err != nil {
			return Shape{}, err
		}
		return Shape{
			Kind:       graph.KindEnum,
			Type:       en.Base,
			Nullable:   node.Nullable,
			EnumValues: en.Values,
		}, nil

	case graph.KindArray:
		items, err := e.shapeOf(decl, scope, syn, schema, field, node.Items)
		if err != nil {
			return Shape{}, err
		}
		return Shape{
			Kind:     graph.KindArray,
			Nullable: node.Nullable,
			Items:    &items,
		}, nil

	case graph.KindComposition:
		merged, err := syn.MergeAllOf(schema, node)
		if err != nil {
			return Shape{}, err
		}
		return e.inlineObjectShape(decl, scope, syn, schema, merged)

	case graph.KindUnion:
		inline := &TypeDecl{}
		if err := e.fillUnion(inline, scope, syn, schema, node); err != nil {
			return Shape{}, err
		}
		decl.Warnings = append(decl.Warnings, inline.Warnings...)
		decl.refs = append(decl.refs, inline.refs...)
		return Shape{
			Kind:     graph.KindUnion,
			Nullable: node.Nullable,
			Tagged:   inline.Tagged,
			TagField: inline.TagField,
			Variants: inline.Variants,
		}, nil

	default: // object
		return e.inlineObjectShape(decl, scope, syn, schema, node)
	}
}

func (e *Emitter) inlineObjectShape(decl *TypeDecl, scope *resolver.Scope, syn *synth.Synthesizer, schema string, node *graph.SchemaNode) (Shape, error) {
	shape := Shape{
		Kind:     graph.KindObject,
		Nullable: node.Nullable,
	}
	for _, field := range node.PropertyOrder {
		prop := node.Properties[field]
		fieldShape, err := e.shapeOf(decl, scope, syn, schema, field, prop)
		if err != nil {
			return Shape{}, err
		}
		shape.Fields = append(shape.Fields, Field{
			Name:        field,
			Presence:    presence.ForProperty(node, field),
			Shape:       fieldShape,
			Description: propDescription(prop),
		})
	}

	mapValues, err := e.mapValuesShape(decl, scope, syn, schema, node.AdditionalProps)
	if err != nil {
		return Shape{}, err
	}
	shape.MapValues = mapValues
	return shape, nil
}

// mapValuesShape turns additionalProperties into a map value shape.
// A typed schema produces an index-signature-style mapping; the literal
// true degrades to an untyped mapping with a warning.
func (e *Emitter) mapValuesShape(decl *TypeDecl, scope *resolver.Scope, syn *synth.Synthesizer, schema string, props *graph.AdditionalProps) (*Shape, error) {
	if props == nil || !props.Allowed {
		return nil, nil
	}

	if props.Schema != nil {
		shape, err := e.shapeOf(decl, scope, syn, schema, "additionalProperties", props.Schema)
		if err != nil {
			return nil, err
		}
		return &shape, nil
	}

	decl.Warnings = append(decl.Warnings, synth.Warning{
		Code:   synth.WarnAdditionalPropertiesAny,
		Schema: schema,
		Detail: "additionalProperties: true produces an untyped mapping",
	})
	return &Shape{Kind: graph.KindPrimitive, Type: "any"}, nil
}

// refShape records an ordering edge and returns a name-keyed reference shape.
func (e *Emitter) refShape(decl *TypeDecl, ref string, deferred bool) Shape {
	target := graph.NameFromRef(ref)
	decl.refs = append(decl.refs, target)
	return Shape{
		Kind:     graph.KindReference,
		Ref:      e.declName(target),
		Deferred: deferred,
	}
}

// poisonDependents fails every schema whose reference closure contains a
// failed schema. Isolated schemas keep emitting.
func (e *Emitter) poisonDependents(names []string, built map[string]*TypeDecl, failed map[string]error) {
	for {
		progressed := false
		for _, name := range names {
			decl, ok := built[name]
			if !ok {
				continue
			}
			for _, ref := range decl.refs {
				if cause, bad := failed[ref]; bad {
					failed[name] = &DependencyError{Schema: name, On: ref, Err: cause}
					delete(built, name)
					progressed = true
					break
				}
			}
		}
		if !progressed {
			return
		}
	}
}

// order sorts the built declarations topologically by their name
// references: a type precedes its first use wherever no cycle requires
// deferral. Cycles are broken at the first remaining schema in graph
// order, so the output is deterministic.
func (e *Emitter) order(names []string, built map[string]*TypeDecl) []*TypeDecl {
	emitted := make(map[string]bool, len(built))
	ordered := make([]*TypeDecl, 0, len(built))

	emit := func(name string) {
		ordered = append(ordered, built[name])
		emitted[name] = true
	}

	for len(ordered) < len(built) {
		progressed := false
		for _, name := range names {
			decl, ok := built[name]
			if !ok || emitted[name] {
				continue
			}
			ready := true
			for _, ref := range decl.refs {
				if ref == name || emitted[ref] {
					continue
				}
				if _, exists := built[ref]; exists {
					ready = false
					break
				}
			}
			if ready {
				emit(name)
				progressed = true
			}
		}
		if !progressed {
			// genuine cycle: break it at the first remaining schema
			for _, name := range names {
				if _, ok := built[name]; ok && !emitted[name] {
					emit(name)
					break
				}
			}
		}
	}

	return ordered
}

// markDeferred flags every reference shape that points at a declaration
// not yet emitted at its position, including self references. The
// renderer emits those by name instead of inline expansion.
func (e *Emitter) markDeferred(ordered []*TypeDecl) {
	pos := make(map[string]int, len(ordered))
	for i, decl := range ordered {
		pos[decl.Name] = i
	}

	for i, decl := range ordered {
		deferred := func(shape *Shape) {
			if shape.Kind != graph.KindReference || shape.Ref == "" {
				return
			}
			target, ok := pos[shape.Ref]
			shape.Deferred = ok && target >= i
		}
		if decl.Alias != nil {
			walkShapes(decl.Alias, deferred)
		}
		for f := range decl.Fields {
			walkShapes(&decl.Fields[f].Shape, deferred)
		}
		for v := range decl.Variants {
			walkShapes(&decl.Variants[v].Shape, deferred)
		}
		if decl.MapValues != nil {
			walkShapes(decl.MapValues, deferred)
		}
	}
}

func walkShapes(shape *Shape, fn func(*Shape)) {
	fn(shape)
	if shape.Items != nil {
		walkShapes(shape.Items, fn)
	}
	if shape.MapValues != nil {
		walkShapes(shape.MapValues, fn)
	}
	for i := range shape.Fields {
		walkShapes(&shape.Fields[i].Shape, fn)
	}
	for i := range shape.Variants {
		walkShapes(&shape.Variants[i].Shape, fn)
	}
}

// assignDeclNames derives exported declaration names from schema names,
// resolving collisions with a numeric suffix in graph order.
func (e *Emitter) assignDeclNames() {
	used := make(map[string]bool)
	e.declNames = make(map[string]string)

	for _, name := range e.graph.Names() {
		candidate := strcase.ToCamel(name)
		for i := 2; used[candidate]; i++ {
			candidate = strcase.ToCamel(name) + strconv.Itoa(i)
		}
		used[candidate] = true
		e.declNames[name] = candidate
	}
}

func (e *Emitter) declName(schemaName string) string {
	if decl, ok := e.declNames[schemaName]; ok {
		return decl
	}
	return strcase.ToCamel(schemaName)
}

func propDescription(prop *graph.SchemaNode) string {
	if prop == nil {
		return ""
	}
	return prop.Description
}

func enumName(schema, field string) string {
	if field == "" {
		return schema
	}
	return schema + "." + field
}
