package typedef

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubahno/typegen/pkg/graph"
	"github.com/cubahno/typegen/pkg/presence"
	"github.com/cubahno/typegen/pkg/resolver"
	"github.com/cubahno/typegen/pkg/synth"
)

func emit(t *testing.T, spec string) *Result {
	t.Helper()
	g, err := graph.NewKinGraphFromData([]byte(spec))
	require.NoError(t, err)
	return NewEmitter(g).Emit()
}

func declByName(t *testing.T, result *Result, name string) *TypeDecl {
	t.Helper()
	for i := range result.Decls {
		if result.Decls[i].Name == name {
			return &result.Decls[i]
		}
	}
	t.Fatalf("decl %q not found", name)
	return nil
}

func fieldByName(t *testing.T, decl *TypeDecl, name string) *Field {
	t.Helper()
	for i := range decl.Fields {
		if decl.Fields[i].Name == name {
			return &decl.Fields[i]
		}
	}
	t.Fatalf("field %q not found in %s", name, decl.Name)
	return nil
}

const userSpec = `
openapi: 3.0.0
info:
  title: Test
  version: 1.0.0
paths: {}
components:
  schemas:
    User:
      type: object
      required:
        - id
        - email
        - managerId
      properties:
        id:
          type: string
          format: uuid
        email:
          type: string
          format: email
        managerId:
          type: string
          format: uuid
          nullable: true
        bio:
          type: string
          nullable: true
        address:
          $ref: '#/components/schemas/Address'
    Address:
      type: object
      required:
        - street
      properties:
        street:
          type: string
        city:
          type: string
`

func TestEmit_PresenceStates(t *testing.T) {
	result := emit(t, userSpec)
	require.Empty(t, result.Failed)

	user := declByName(t, result, "User")
	assert.Equal(t, graph.KindObject, user.Kind)

	assert.Equal(t, presence.Mandatory, fieldByName(t, user, "id").Presence)
	assert.Equal(t, presence.Mandatory, fieldByName(t, user, "email").Presence)
	assert.Equal(t, presence.MandatoryNullable, fieldByName(t, user, "managerId").Presence)
	assert.Equal(t, presence.OptionalNullable, fieldByName(t, user, "bio").Presence)
	assert.Equal(t, presence.Optional, fieldByName(t, user, "address").Presence)
}

func TestEmit_OrdersDependenciesFirst(t *testing.T) {
	// graph order is alphabetical, so Zebra comes last unless ordering works
	result := emit(t, `
openapi: 3.0.0
info:
  title: Test
  version: 1.0.0
paths: {}
components:
  schemas:
    Apple:
      type: object
      properties:
        peer:
          $ref: '#/components/schemas/Zebra'
    Zebra:
      type: object
      properties:
        name:
          type: string
`)
	require.Empty(t, result.Failed)
	require.Len(t, result.Decls, 2)
	assert.Equal(t, "Zebra", result.Decls[0].Name)
	assert.Equal(t, "Apple", result.Decls[1].Name)

	// the backward edge needs no deferral
	peer := fieldByName(t, &result.Decls[1], "peer")
	assert.Equal(t, graph.KindReference, peer.Shape.Kind)
	assert.Equal(t, "Zebra", peer.Shape.Ref)
	assert.False(t, peer.Shape.Deferred)
}

func TestEmit_SelfReferenceProducesOneDeferredEdge(t *testing.T) {
	result := emit(t, `
openapi: 3.0.0
info:
  title: Test
  version: 1.0.0
paths: {}
components:
  schemas:
    TreeNode:
      type: object
      required:
        - value
      properties:
        value:
          type: string
        children:
          type: array
          items:
            $ref: '#/components/schemas/TreeNode'
`)
	require.Empty(t, result.Failed)
	require.Len(t, result.Decls, 1)

	node := result.Decls[0]
	deferredEdges := 0
	for f := range node.Fields {
		walkShapes(&node.Fields[f].Shape, func(s *Shape) {
			if s.Deferred {
				deferredEdges++
				assert.Equal(t, "TreeNode", s.Ref)
			}
		})
	}
	assert.Equal(t, 1, deferredEdges)
}

func TestEmit_MutualCycleBreaksExactlyOneEdge(t *testing.T) {
	result := emit(t, `
openapi: 3.0.0
info:
  title: Test
  version: 1.0.0
paths: {}
components:
  schemas:
    Author:
      type: object
      properties:
        books:
          type: array
          items:
            $ref: '#/components/schemas/Book'
    Book:
      type: object
      properties:
        author:
          $ref: '#/components/schemas/Author'
`)
	require.Empty(t, result.Failed)
	require.Len(t, result.Decls, 2)

	deferredEdges := 0
	for d := range result.Decls {
		decl := &result.Decls[d]
		for f := range decl.Fields {
			walkShapes(&decl.Fields[f].Shape, func(s *Shape) {
				if s.Deferred {
					deferredEdges++
				}
			})
		}
	}
	assert.Equal(t, 1, deferredEdges)
}

func TestEmit_TaggedUnion(t *testing.T) {
	result := emit(t, `
openapi: 3.0.0
info:
  title: Test
  version: 1.0.0
paths: {}
components:
  schemas:
    Dog:
      type: object
      required: [type]
      properties:
        type:
          type: string
          enum: [dog]
    Cat:
      type: object
      required: [type]
      properties:
        type:
          type: string
          enum: [cat]
    Fish:
      type: object
      required: [type]
      properties:
        type:
          type: string
          enum: [fish]
    Pet:
      oneOf:
        - $ref: '#/components/schemas/Dog'
        - $ref: '#/components/schemas/Cat'
        - $ref: '#/components/schemas/Fish'
      discriminator:
        propertyName: type
`)
	require.Empty(t, result.Failed)

	pet := declByName(t, result, "Pet")
	assert.Equal(t, graph.KindUnion, pet.Kind)
	assert.True(t, pet.Tagged)
	assert.Equal(t, "type", pet.TagField)
	require.Len(t, pet.Variants, 3)

	tags := []string{pet.Variants[0].Tag, pet.Variants[1].Tag, pet.Variants[2].Tag}
	assert.Equal(t, []string{"dog", "cat", "fish"}, tags)

	// variant members precede the union
	assert.Equal(t, "Pet", result.Decls[len(result.Decls)-1].Name)
}

func TestEmit_InlineUnionKeepsTagField(t *testing.T) {
	result := emit(t, `
openapi: 3.0.0
info:
  title: Test
  version: 1.0.0
paths: {}
components:
  schemas:
    Dog:
      type: object
      required: [type]
      properties:
        type:
          type: string
          enum: [dog]
    Cat:
      type: object
      required: [type]
      properties:
        type:
          type: string
          enum: [cat]
    Owner:
      type: object
      properties:
        pet:
          oneOf:
            - $ref: '#/components/schemas/Dog'
            - $ref: '#/components/schemas/Cat'
          discriminator:
            propertyName: type
`)
	require.Empty(t, result.Failed)

	owner := declByName(t, result, "Owner")
	pet := fieldByName(t, owner, "pet")
	assert.Equal(t, graph.KindUnion, pet.Shape.Kind)
	assert.True(t, pet.Shape.Tagged)
	assert.Equal(t, "type", pet.Shape.TagField)
	require.Len(t, pet.Shape.Variants, 2)
	assert.Equal(t, "dog", pet.Shape.Variants[0].Tag)
	assert.Equal(t, "cat", pet.Shape.Variants[1].Tag)
}

func TestEmit_NilPropertyNode(t *testing.T) {
	g := graph.NewGraph()
	node := &graph.SchemaNode{Kind: graph.KindObject, Type: graph.TypeObject}
	node.SetProperty("ghost", nil)
	node.SetProperty("name", &graph.SchemaNode{Kind: graph.KindPrimitive, Type: graph.TypeString})
	g.Add("Spooky", node)

	result := NewEmitter(g).Emit()
	require.Empty(t, result.Failed)

	spooky := declByName(t, result, "Spooky")
	ghost := fieldByName(t, spooky, "ghost")
	assert.Equal(t, graph.KindPrimitive, ghost.Shape.Kind)
	assert.Equal(t, graph.TypeString, ghost.Shape.Type)
	assert.Equal(t, presence.Optional, ghost.Presence)
	assert.Empty(t, ghost.Description)
}

func TestEmit_EnumDecl(t *testing.T) {
	result := emit(t, `
openapi: 3.0.0
info:
  title: Test
  version: 1.0.0
paths: {}
components:
  schemas:
    Status:
      type: string
      enum: [active, inactive, pending, suspended, active]
`)
	require.Empty(t, result.Failed)

	status := declByName(t, result, "Status")
	assert.Equal(t, graph.KindEnum, status.Kind)
	assert.Equal(t, graph.TypeString, status.EnumBase)
	assert.Equal(t, []any{"active", "inactive", "pending", "suspended"}, status.EnumValues)
}

func TestEmit_FailureIsolation(t *testing.T) {
	result := emit(t, `
openapi: 3.0.0
info:
  title: Test
  version: 1.0.0
paths: {}
components:
  schemas:
    Bad:
      type: string
      enum: []
    UsesBad:
      type: object
      properties:
        status:
          $ref: '#/components/schemas/Bad'
    UsesUsesBad:
      type: object
      properties:
        parent:
          $ref: '#/components/schemas/UsesBad'
    Good:
      type: object
      properties:
        name:
          type: string
`)

	// the failing schema and its dependent closure are not emitted
	require.Len(t, result.Decls, 1)
	assert.Equal(t, "Good", result.Decls[0].Name)

	assert.ErrorIs(t, result.Failed["Bad"], synth.ErrEmptyEnum)
	assert.ErrorIs(t, result.Failed["UsesBad"], ErrDependencyFailed)
	assert.ErrorIs(t, result.Failed["UsesUsesBad"], ErrDependencyFailed)

	var dep *DependencyError
	require.ErrorAs(t, result.Failed["UsesBad"], &dep)
	assert.Equal(t, "Bad", dep.On)
}

func TestEmit_UnresolvedReference(t *testing.T) {
	result := emit(t, `
openapi: 3.0.0
info:
  title: Test
  version: 1.0.0
paths: {}
components:
  schemas:
    Dangling:
      type: object
      properties:
        ghost:
          $ref: '#/components/schemas/Ghost'
`)

	assert.Empty(t, result.Decls)
	assert.ErrorIs(t, result.Failed["Dangling"], resolver.ErrUnresolvedReference)
}

func TestEmit_UnknownFormatWarning(t *testing.T) {
	result := emit(t, `
openapi: 3.0.0
info:
  title: Test
  version: 1.0.0
paths: {}
components:
  schemas:
    Card:
      type: object
      properties:
        number:
          type: string
          format: credit-card
        issued:
          type: string
          format: date-time
`)
	require.Empty(t, result.Failed)

	card := declByName(t, result, "Card")
	require.Len(t, card.Warnings, 1)
	assert.Equal(t, synth.WarnUnknownFormat, card.Warnings[0].Code)
	assert.Equal(t, "number", card.Warnings[0].Field)

	// unknown format falls back to the base primitive
	assert.Empty(t, fieldByName(t, card, "number").Shape.Format)
	// known formats stay
	assert.Equal(t, "date-time", fieldByName(t, card, "issued").Shape.Format)
}

func TestEmit_AdditionalProperties(t *testing.T) {
	result := emit(t, `
openapi: 3.0.0
info:
  title: Test
  version: 1.0.0
paths: {}
components:
  schemas:
    Counters:
      type: object
      additionalProperties:
        type: integer
    Anything:
      type: object
      additionalProperties: true
`)
	require.Empty(t, result.Failed)

	t.Run("typed-map", func(t *testing.T) {
		counters := declByName(t, result, "Counters")
		require.NotNil(t, counters.MapValues)
		assert.Equal(t, graph.TypeInteger, counters.MapValues.Type)
		assert.Empty(t, counters.Warnings)
	})

	t.Run("untyped-map-warns", func(t *testing.T) {
		anything := declByName(t, result, "Anything")
		require.NotNil(t, anything.MapValues)
		assert.Equal(t, "any", anything.MapValues.Type)
		require.Len(t, anything.Warnings, 1)
		assert.Equal(t, synth.WarnAdditionalPropertiesAny, anything.Warnings[0].Code)
	})
}

func TestEmit_AllOfDecl(t *testing.T) {
	result := emit(t, `
openapi: 3.0.0
info:
  title: Test
  version: 1.0.0
paths: {}
components:
  schemas:
    Base:
      type: object
      required: [id]
      properties:
        id:
          type: string
    Extended:
      allOf:
        - $ref: '#/components/schemas/Base'
        - type: object
          required: [name]
          properties:
            name:
              type: string
`)
	require.Empty(t, result.Failed)

	extended := declByName(t, result, "Extended")
	assert.Equal(t, graph.KindObject, extended.Kind)
	assert.Equal(t, presence.Mandatory, fieldByName(t, extended, "id").Presence)
	assert.Equal(t, presence.Mandatory, fieldByName(t, extended, "name").Presence)
}

func TestEmit_AliasDecls(t *testing.T) {
	result := emit(t, `
openapi: 3.0.0
info:
  title: Test
  version: 1.0.0
paths: {}
components:
  schemas:
    UserId:
      type: string
      format: uuid
    UserIds:
      type: array
      items:
        $ref: '#/components/schemas/UserId'
`)
	require.Empty(t, result.Failed)

	userID := declByName(t, result, "UserId")
	assert.Equal(t, graph.KindPrimitive, userID.Kind)
	require.NotNil(t, userID.Alias)
	assert.Equal(t, "uuid", userID.Alias.Format)

	userIDs := declByName(t, result, "UserIds")
	assert.Equal(t, graph.KindArray, userIDs.Kind)
	require.NotNil(t, userIDs.Alias)
	require.NotNil(t, userIDs.Alias.Items)
	assert.Equal(t, "UserId", userIDs.Alias.Items.Ref)
}

func TestEmit_IsDeterministic(t *testing.T) {
	g, err := graph.NewKinGraphFromData([]byte(userSpec))
	require.NoError(t, err)

	first := NewEmitter(g).Emit()
	second := NewEmitter(g).Emit()

	firstJSON, err := json.Marshal(first.Decls)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Decls)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestEmitParallel_MatchesSequential(t *testing.T) {
	g, err := graph.NewKinGraphFromData([]byte(userSpec))
	require.NoError(t, err)

	sequential := NewEmitter(g).Emit()
	parallel := NewEmitter(g).EmitParallel(4)

	seqJSON, err := json.Marshal(sequential.Decls)
	require.NoError(t, err)
	parJSON, err := json.Marshal(parallel.Decls)
	require.NoError(t, err)
	assert.Equal(t, string(seqJSON), string(parJSON))
	assert.Equal(t, len(sequential.Failed), len(parallel.Failed))
}

func TestEmitter_DeclNameCollisions(t *testing.T) {
	g := graph.NewGraph()
	g.Add("user_profile", &graph.SchemaNode{Kind: graph.KindObject, Type: graph.TypeObject})
	g.Add("UserProfile", &graph.SchemaNode{Kind: graph.KindObject, Type: graph.TypeObject})

	result := NewEmitter(g).Emit()
	require.Len(t, result.Decls, 2)
	names := map[string]bool{}
	for _, decl := range result.Decls {
		names[decl.Name] = true
	}
	assert.Len(t, names, 2)
	assert.True(t, names["UserProfile"])
	assert.True(t, names["UserProfile2"])
}
