package graph

// Provider selects the OpenAPI parser used to build the graph.
type Provider string

const (
	KinOpenAPIProvider Provider = "kin-openapi"
	LibOpenAPIProvider Provider = "libopenapi"
)

// NewGraphFromFileFactory returns a function that builds a Graph from a spec file.
func NewGraphFromFileFactory(provider Provider) func(filePath string) (*Graph, error) {
	switch provider {
	case KinOpenAPIProvider:
		return NewKinGraphFromFile
	case LibOpenAPIProvider:
		return NewLibGraphFromFile
	default:
		return NewLibGraphFromFile
	}
}
